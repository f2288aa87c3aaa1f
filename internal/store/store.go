// Package store provides persistence for the admin workbench's prompt test
// cases. The rest of the system depends on the TestCaseStore interface only;
// the concrete implementation is PostgreSQL.
package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marcus/portfolio-agent/internal/testrunner"
)

// TestCaseStore is the document-store boundary for prompt test cases.
type TestCaseStore interface {
	ListTestCases(ctx context.Context) ([]testrunner.TestCase, error)
	CreateTestCase(ctx context.Context, question string, criteria []testrunner.Criterion) (testrunner.TestCase, error)
	DeleteTestCase(ctx context.Context, id uuid.UUID) (bool, error)
}

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// ListTestCases returns all stored test cases, oldest first.
func (db *DB) ListTestCases(ctx context.Context) ([]testrunner.TestCase, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, question, criteria FROM prompt_test_cases ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list test cases: %w", err)
	}
	defer rows.Close()

	var testCases []testrunner.TestCase
	for rows.Next() {
		var (
			id       uuid.UUID
			question string
			raw      []byte
		)
		if err := rows.Scan(&id, &question, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan test case: %w", err)
		}

		var criteria []testrunner.Criterion
		if err := json.Unmarshal(raw, &criteria); err != nil {
			return nil, fmt.Errorf("test case %s has invalid criteria: %w", id, err)
		}

		testCases = append(testCases, testrunner.TestCase{
			ID:       id.String(),
			Question: question,
			Criteria: criteria,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read test cases: %w", err)
	}

	return testCases, nil
}

// CreateTestCase stores a new test case and returns it with its assigned ID.
func (db *DB) CreateTestCase(ctx context.Context, question string, criteria []testrunner.Criterion) (testrunner.TestCase, error) {
	raw, err := json.Marshal(criteria)
	if err != nil {
		return testrunner.TestCase{}, fmt.Errorf("failed to encode criteria: %w", err)
	}

	var id uuid.UUID
	err = db.pool.QueryRow(ctx,
		`INSERT INTO prompt_test_cases (question, criteria)
		 VALUES ($1, $2)
		 RETURNING id`,
		question, raw,
	).Scan(&id)
	if err != nil {
		return testrunner.TestCase{}, fmt.Errorf("failed to create test case: %w", err)
	}

	return testrunner.TestCase{
		ID:       id.String(),
		Question: question,
		Criteria: criteria,
	}, nil
}

// DeleteTestCase removes a test case. It reports whether a row existed.
func (db *DB) DeleteTestCase(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := db.pool.Exec(ctx,
		`DELETE FROM prompt_test_cases WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete test case: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
