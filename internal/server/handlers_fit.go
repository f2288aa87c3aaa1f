// Package server provides the HTTP API for the portfolio agent.
package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/marcus/portfolio-agent/internal/llm"
	"github.com/marcus/portfolio-agent/internal/prompts"
	"github.com/marcus/portfolio-agent/internal/sanitize"
	"github.com/marcus/portfolio-agent/internal/schemas"
	"github.com/marcus/portfolio-agent/internal/security"
)

// FitAssessmentRequest is the job-fit assessment request body.
type FitAssessmentRequest struct {
	JobDescription string `json:"job_description"`
}

// handleFitAssessment validates a pasted job description, asks the model for
// a structured assessment, and returns it only if it conforms to the response
// schema.
func (s *Server) handleFitAssessment(w http.ResponseWriter, r *http.Request) {
	var req FitAssessmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result := sanitize.ValidateJobDescription(req.JobDescription)
	if !result.Valid {
		if result.Severity == sanitize.SeverityHigh {
			s.securityLog.Log(security.FromValidation(result))
		}
		s.errorResponse(w, http.StatusBadRequest, result.Reason)
		return
	}

	if err := s.llmSem.Acquire(r.Context(), 1); err != nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "Server busy, please retry")
		return
	}
	defer s.llmSem.Release(1)

	ctx, cancel := context.WithTimeout(r.Context(), llmRequestTimeout)
	defer cancel()

	systemPrompt := prompts.MustGet("fit_assessment.json", "system")
	userPrompt := prompts.Format(prompts.MustGet("fit_assessment.json", "user"), map[string]string{
		"JobDescription": result.SanitizedInput,
	})

	raw, err := s.llm.GenerateJSON(ctx, systemPrompt, userPrompt, llm.TierStandard)
	if err != nil {
		s.logger.Error().Err(err).Msg("fit assessment generation failed")
		upstream := &ErrUpstream{Err: err}
		s.errorResponse(w, HTTPStatus(upstream), "Failed to generate an assessment")
		return
	}

	assessment, err := schemas.ParseFitAssessment(raw)
	if err != nil {
		// Model output that fails schema validation is never forwarded.
		s.logger.Error().Err(err).Msg("fit assessment failed schema validation")
		s.errorResponse(w, http.StatusInternalServerError, "Failed to generate an assessment")
		return
	}

	s.jsonResponse(w, http.StatusOK, assessment)
}
