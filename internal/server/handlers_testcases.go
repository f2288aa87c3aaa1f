// Package server provides the HTTP API for the portfolio agent.
package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/marcus/portfolio-agent/internal/prompts"
	"github.com/marcus/portfolio-agent/internal/testrunner"
)

// CreateTestCaseRequest is the admin request to register a prompt test case.
type CreateTestCaseRequest struct {
	Question string                 `json:"question"`
	Criteria []testrunner.Criterion `json:"criteria"`
}

// TestRunRequest selects what a test run executes. Both fields are optional:
// an empty system prompt falls back to the live chat persona, and an absent
// test_case_ids runs every stored case. A present-but-empty list runs nothing.
type TestRunRequest struct {
	SystemPrompt string   `json:"system_prompt"`
	TestCaseIDs  []string `json:"test_case_ids"`
}

// TestRunResponse summarizes one execution of the stored test suite.
type TestRunResponse struct {
	Total   int                     `json:"total"`
	Passed  int                     `json:"passed"`
	Results []testrunner.TestResult `json:"results"`
}

// handleListTestCases returns all stored prompt test cases.
func (s *Server) handleListTestCases(w http.ResponseWriter, r *http.Request) {
	testCases, err := s.store.ListTestCases(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list test cases")
		s.errorResponse(w, http.StatusInternalServerError, "Failed to list test cases")
		return
	}

	s.jsonResponse(w, http.StatusOK, testCases)
}

// handleCreateTestCase stores a new prompt test case.
func (s *Server) handleCreateTestCase(w http.ResponseWriter, r *http.Request) {
	var req CreateTestCaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Question == "" {
		verr := &ErrValidation{Field: "question", Message: "is required"}
		s.errorResponse(w, HTTPStatus(verr), verr.Error())
		return
	}
	if len(req.Criteria) == 0 {
		verr := &ErrValidation{Field: "criteria", Message: "at least one criterion is required"}
		s.errorResponse(w, HTTPStatus(verr), verr.Error())
		return
	}

	testCase, err := s.store.CreateTestCase(r.Context(), req.Question, req.Criteria)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to create test case")
		s.errorResponse(w, http.StatusInternalServerError, "Failed to create test case")
		return
	}

	s.jsonResponse(w, http.StatusCreated, testCase)
}

// handleDeleteTestCase removes a stored prompt test case by ID.
func (s *Server) handleDeleteTestCase(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		verr := &ErrValidation{Field: "id", Message: "must be a valid UUID"}
		s.errorResponse(w, HTTPStatus(verr), verr.Error())
		return
	}

	deleted, err := s.store.DeleteTestCase(r.Context(), id)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to delete test case")
		s.errorResponse(w, http.StatusInternalServerError, "Failed to delete test case")
		return
	}
	if !deleted {
		nferr := &ErrTestCaseNotFound{ID: id}
		s.errorResponse(w, HTTPStatus(nferr), nferr.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleRunTests executes stored test cases against a system prompt,
// defaulting to the live chat persona. Results are returned to the caller and
// not persisted.
func (s *Server) handleRunTests(w http.ResponseWriter, r *http.Request) {
	var req TestRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	testCases, err := s.store.ListTestCases(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load test cases")
		s.errorResponse(w, http.StatusInternalServerError, "Failed to load test cases")
		return
	}
	if req.TestCaseIDs != nil {
		testCases = filterTestCases(testCases, req.TestCaseIDs)
	}

	if err := s.llmSem.Acquire(r.Context(), 1); err != nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "Server busy, please retry")
		return
	}
	defer s.llmSem.Release(1)

	// The suite runs sequentially; budget one model-call timeout per case.
	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(len(testCases)+1)*llmRequestTimeout)
	defer cancel()

	systemPrompt := req.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = prompts.MustGet("chat.json", "system")
	}
	results, err := s.runner.RunTestSuite(ctx, systemPrompt, testCases)
	if err != nil {
		s.logger.Error().Err(err).Int("completed", len(results)).Msg("test run aborted")
		upstream := &ErrUpstream{Err: err}
		s.errorResponse(w, HTTPStatus(upstream), "Test run failed")
		return
	}

	passed := 0
	for _, result := range results {
		if result.Passed {
			passed++
		}
	}

	s.jsonResponse(w, http.StatusOK, TestRunResponse{
		Total:   len(results),
		Passed:  passed,
		Results: results,
	})
}

// filterTestCases keeps only the cases whose IDs appear in ids.
func filterTestCases(testCases []testrunner.TestCase, ids []string) []testrunner.TestCase {
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	filtered := make([]testrunner.TestCase, 0, len(ids))
	for _, tc := range testCases {
		if wanted[tc.ID] {
			filtered = append(filtered, tc)
		}
	}
	return filtered
}
