package testrunner

import (
	"context"
	"fmt"
	"time"

	"github.com/marcus/portfolio-agent/internal/llm"
)

// TestCase bundles a question with the criteria its response must satisfy.
type TestCase struct {
	ID       string      `json:"id"`
	Question string      `json:"question"`
	Criteria []Criterion `json:"criteria"`
}

// TestResult records one test execution. Passed is true exactly when
// FailedCriteria is empty. Results live only for the calling session.
type TestResult struct {
	TestID         string             `json:"test_id"`
	Passed         bool               `json:"passed"`
	Response       string             `json:"response"`
	TokenCount     int                `json:"token_count"`
	LatencyMS      int64              `json:"latency_ms"`
	FailedCriteria []CriterionFailure `json:"failed_criteria,omitempty"`
}

// Runner executes test cases against a system prompt.
type Runner struct {
	client llm.Client
	tier   llm.ModelTier
}

// NewRunner creates a runner using the lite model tier.
func NewRunner(client llm.Client) *Runner {
	return &Runner{client: client, tier: llm.TierLite}
}

// RunTest sends the test question to the LLM under the given system prompt and
// evaluates every criterion against the response.
func (r *Runner) RunTest(ctx context.Context, systemPrompt string, testCase TestCase) (TestResult, error) {
	start := time.Now()
	completion, err := r.client.GenerateContent(ctx, systemPrompt, testCase.Question, r.tier)
	latency := time.Since(start)
	if err != nil {
		return TestResult{}, fmt.Errorf("test %s: %w", testCase.ID, err)
	}

	result := TestResult{
		TestID:     testCase.ID,
		Response:   completion.Text,
		TokenCount: completion.TotalTokens,
		LatencyMS:  latency.Milliseconds(),
	}

	for _, criterion := range testCase.Criteria {
		passed, reason := criterion.Evaluate(completion.Text, completion.TotalTokens)
		if !passed {
			result.FailedCriteria = append(result.FailedCriteria, CriterionFailure{
				Type:   criterion.Type,
				Value:  criterion.ValueString(),
				Reason: reason,
			})
		}
	}

	result.Passed = len(result.FailedCriteria) == 0
	return result, nil
}

// RunTestSuite runs every test case in order. Execution is deliberately
// sequential to stay inside provider rate limits.
func (r *Runner) RunTestSuite(ctx context.Context, systemPrompt string, testCases []TestCase) ([]TestResult, error) {
	results := make([]TestResult, 0, len(testCases))
	for _, testCase := range testCases {
		result, err := r.RunTest(ctx, systemPrompt, testCase)
		if err != nil {
			return results, err
		}
		results = append(results, result)
	}
	return results, nil
}
