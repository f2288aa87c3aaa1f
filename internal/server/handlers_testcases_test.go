package server

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcus/portfolio-agent/internal/testrunner"
)

// adminToken logs in and returns an Authorization header map.
func adminToken(t *testing.T, s *Server) map[string]string {
	t.Helper()

	body := map[string]string{"password": testAdminPassword}
	w := doJSON(t, s.routes(), http.MethodPost, "/admin/login", body, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return map[string]string{"Authorization": "Bearer " + resp.Token}
}

func sampleCriteria() []testrunner.Criterion {
	return []testrunner.Criterion{
		{Type: testrunner.CriterionContains, Text: "Go"},
		{Type: testrunner.CriterionMaxLength, Limit: 500},
	}
}

func TestAdminRoutes_RequireAuth(t *testing.T) {
	s, _, _ := newTestServer(t)
	handler := s.routes()

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/admin/test-cases"},
		{http.MethodPost, "/admin/test-cases"},
		{http.MethodDelete, "/admin/test-cases/" + uuid.NewString()},
		{http.MethodPost, "/admin/test-runs"},
	}

	for _, route := range routes {
		w := doJSON(t, handler, route.method, route.path, nil, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", route.method, route.path)
	}
}

func TestCreateAndListTestCases(t *testing.T) {
	s, _, _ := newTestServer(t)
	headers := adminToken(t, s)
	handler := s.routes()

	createBody := CreateTestCaseRequest{
		Question: "What languages do you work with?",
		Criteria: sampleCriteria(),
	}
	w := doJSON(t, handler, http.MethodPost, "/admin/test-cases", createBody, headers)
	require.Equal(t, http.StatusCreated, w.Code)

	var created testrunner.TestCase
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "What languages do you work with?", created.Question)
	assert.Len(t, created.Criteria, 2)

	w = doJSON(t, handler, http.MethodGet, "/admin/test-cases", nil, headers)
	require.Equal(t, http.StatusOK, w.Code)

	var listed []testrunner.TestCase
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, created.ID, listed[0].ID)
}

func TestCreateTestCase_Validation(t *testing.T) {
	s, _, _ := newTestServer(t)
	headers := adminToken(t, s)
	handler := s.routes()

	w := doJSON(t, handler, http.MethodPost, "/admin/test-cases", CreateTestCaseRequest{
		Criteria: sampleCriteria(),
	}, headers)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, handler, http.MethodPost, "/admin/test-cases", CreateTestCaseRequest{
		Question: "What languages do you work with?",
	}, headers)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteTestCase(t *testing.T) {
	s, _, _ := newTestServer(t)
	headers := adminToken(t, s)
	handler := s.routes()

	w := doJSON(t, handler, http.MethodPost, "/admin/test-cases", CreateTestCaseRequest{
		Question: "What languages do you work with?",
		Criteria: sampleCriteria(),
	}, headers)
	require.Equal(t, http.StatusCreated, w.Code)

	var created testrunner.TestCase
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = doJSON(t, handler, http.MethodDelete, "/admin/test-cases/"+created.ID, nil, headers)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, handler, http.MethodDelete, "/admin/test-cases/"+created.ID, nil, headers)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteTestCase_InvalidID(t *testing.T) {
	s, _, _ := newTestServer(t)
	headers := adminToken(t, s)

	w := doJSON(t, s.routes(), http.MethodDelete, "/admin/test-cases/not-a-uuid", nil, headers)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRunTests(t *testing.T) {
	s, _, stub := newTestServer(t)
	stub.reply = "I mostly build Go services."
	stub.tokens = 12
	headers := adminToken(t, s)
	handler := s.routes()

	for _, question := range []string{"What languages do you work with?", "Describe your last project."} {
		w := doJSON(t, handler, http.MethodPost, "/admin/test-cases", CreateTestCaseRequest{
			Question: question,
			Criteria: sampleCriteria(),
		}, headers)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := doJSON(t, handler, http.MethodPost, "/admin/test-runs", nil, headers)
	require.Equal(t, http.StatusOK, w.Code)

	var resp TestRunResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, 2, resp.Passed)
	require.Len(t, resp.Results, 2)
	for _, result := range resp.Results {
		assert.True(t, result.Passed)
		assert.Empty(t, result.FailedCriteria)
		assert.Equal(t, "I mostly build Go services.", result.Response)
	}
}

func TestRunTests_CustomPromptAndFilter(t *testing.T) {
	s, _, stub := newTestServer(t)
	stub.reply = "I mostly build Go services."
	headers := adminToken(t, s)
	handler := s.routes()

	var ids []string
	for _, question := range []string{"What languages do you work with?", "Describe your last project."} {
		w := doJSON(t, handler, http.MethodPost, "/admin/test-cases", CreateTestCaseRequest{
			Question: question,
			Criteria: sampleCriteria(),
		}, headers)
		require.Equal(t, http.StatusCreated, w.Code)

		var created testrunner.TestCase
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
		ids = append(ids, created.ID)
	}

	w := doJSON(t, handler, http.MethodPost, "/admin/test-runs", TestRunRequest{
		SystemPrompt: "You are a terse assistant. Answer in one sentence.",
		TestCaseIDs:  ids[:1],
	}, headers)
	require.Equal(t, http.StatusOK, w.Code)

	var resp TestRunResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, ids[0], resp.Results[0].TestID)

	assert.Equal(t, 1, stub.contentCalls, "only the selected case runs")
	assert.Equal(t, "You are a terse assistant. Answer in one sentence.", stub.lastSystem)
}

func TestRunTests_EmptyFilterRunsNothing(t *testing.T) {
	s, _, stub := newTestServer(t)
	headers := adminToken(t, s)
	handler := s.routes()

	w := doJSON(t, handler, http.MethodPost, "/admin/test-cases", CreateTestCaseRequest{
		Question: "What languages do you work with?",
		Criteria: sampleCriteria(),
	}, headers)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, handler, http.MethodPost, "/admin/test-runs", TestRunRequest{
		TestCaseIDs: []string{},
	}, headers)
	require.Equal(t, http.StatusOK, w.Code)

	var resp TestRunResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Total)
	assert.Equal(t, 0, stub.contentCalls)
}

func TestRunTests_EmptySuite(t *testing.T) {
	s, _, stub := newTestServer(t)
	headers := adminToken(t, s)

	w := doJSON(t, s.routes(), http.MethodPost, "/admin/test-runs", nil, headers)
	require.Equal(t, http.StatusOK, w.Code)

	var resp TestRunResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Total)
	assert.Equal(t, 0, stub.contentCalls)
}
