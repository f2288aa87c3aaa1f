package testrunner

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcus/portfolio-agent/internal/llm"
)

// stubClient returns canned completions keyed by prompt and records call order.
type stubClient struct {
	responses map[string]*llm.Completion
	err       error
	calls     []string
}

func (s *stubClient) GenerateContent(_ context.Context, _ string, prompt string, _ llm.ModelTier) (*llm.Completion, error) {
	s.calls = append(s.calls, prompt)
	if s.err != nil {
		return nil, s.err
	}
	if completion, ok := s.responses[prompt]; ok {
		return completion, nil
	}
	return &llm.Completion{Text: "default reply", TotalTokens: 10}, nil
}

func (s *stubClient) GenerateJSON(context.Context, string, string, llm.ModelTier) (string, error) {
	return "", fmt.Errorf("not implemented")
}

func (s *stubClient) Close() error { return nil }

// TestRunTest_AllCriteriaPass tests the passing path and the result invariant
func TestRunTest_AllCriteriaPass(t *testing.T) {
	client := &stubClient{responses: map[string]*llm.Completion{
		"What do you work on?": {Text: "I'm building backend systems in Go.", TotalTokens: 40},
	}}
	runner := NewRunner(client)

	result, err := runner.RunTest(context.Background(), "persona prompt", TestCase{
		ID:       "tc-1",
		Question: "What do you work on?",
		Criteria: []Criterion{
			{Type: CriterionContains, Text: "go"},
			{Type: CriterionFirstPerson},
			{Type: CriterionTokenLimit, Limit: 100},
			{Type: CriterionMaxLength, Limit: 200},
		},
	})
	require.NoError(t, err)

	assert.True(t, result.Passed)
	assert.Empty(t, result.FailedCriteria)
	assert.Equal(t, "tc-1", result.TestID)
	assert.Equal(t, 40, result.TokenCount)
	assert.GreaterOrEqual(t, result.LatencyMS, int64(0))
}

// TestRunTest_AggregatesFailures tests that every failed criterion is reported
func TestRunTest_AggregatesFailures(t *testing.T) {
	client := &stubClient{responses: map[string]*llm.Completion{
		"Q": {Text: "The service handles requests.", TotalTokens: 500},
	}}
	runner := NewRunner(client)

	result, err := runner.RunTest(context.Background(), "persona", TestCase{
		ID:       "tc-2",
		Question: "Q",
		Criteria: []Criterion{
			{Type: CriterionContains, Text: "kubernetes"},
			{Type: CriterionFirstPerson},
			{Type: CriterionTokenLimit, Limit: 100},
		},
	})
	require.NoError(t, err)

	assert.False(t, result.Passed)
	require.Len(t, result.FailedCriteria, 3)
	assert.Equal(t, CriterionContains, result.FailedCriteria[0].Type)
	assert.Equal(t, "kubernetes", result.FailedCriteria[0].Value)
	assert.NotEmpty(t, result.FailedCriteria[0].Reason)
	// The invariant: passed iff no failed criteria.
	assert.Equal(t, result.Passed, len(result.FailedCriteria) == 0)
}

// TestRunTest_GenerationError tests LLM failures propagating with test context
func TestRunTest_GenerationError(t *testing.T) {
	client := &stubClient{err: fmt.Errorf("provider unavailable")}
	runner := NewRunner(client)

	_, err := runner.RunTest(context.Background(), "persona", TestCase{ID: "tc-3", Question: "Q"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tc-3")
	assert.Contains(t, err.Error(), "provider unavailable")
}

// TestRunTestSuite_SequentialOrder tests cases run one at a time, in order
func TestRunTestSuite_SequentialOrder(t *testing.T) {
	client := &stubClient{responses: map[string]*llm.Completion{}}
	runner := NewRunner(client)

	cases := []TestCase{
		{ID: "a", Question: "first"},
		{ID: "b", Question: "second"},
		{ID: "c", Question: "third"},
	}
	results, err := runner.RunTestSuite(context.Background(), "persona", cases)
	require.NoError(t, err)

	require.Len(t, results, 3)
	assert.Equal(t, []string{"first", "second", "third"}, client.calls)
	assert.Equal(t, "a", results[0].TestID)
	assert.Equal(t, "c", results[2].TestID)
}

// TestRunTestSuite_StopsOnError tests that a failing call returns completed results
func TestRunTestSuite_StopsOnError(t *testing.T) {
	client := &stubClient{}
	runner := NewRunner(client)

	results, err := runner.RunTestSuite(context.Background(), "persona", []TestCase{
		{ID: "ok", Question: "fine"},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)

	client.err = fmt.Errorf("quota exceeded")
	results, err = runner.RunTestSuite(context.Background(), "persona", []TestCase{
		{ID: "fails", Question: "boom"},
	})
	require.Error(t, err)
	assert.Empty(t, results)
}
