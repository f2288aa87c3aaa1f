// Package server provides the HTTP API for the portfolio agent.
package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/marcus/portfolio-agent/internal/llm"
	"github.com/marcus/portfolio-agent/internal/prompts"
	"github.com/marcus/portfolio-agent/internal/sanitize"
	"github.com/marcus/portfolio-agent/internal/security"
)

// ChatRequest is the visitor chat request body.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse carries the assistant reply and token usage.
type ChatResponse struct {
	Reply  string `json:"reply"`
	Tokens int    `json:"tokens"`
}

// handleChat validates a visitor message and forwards the sanitized text to
// the model. Rejected input never reaches the provider.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result := sanitize.ValidateChatMessage(req.Message)
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

	systemPrompt := prompts.MustGet("chat.json", "system")
	userPrompt := prompts.Format(prompts.MustGet("chat.json", "user"), map[string]string{
		"Message": result.SanitizedInput,
	})

	completion, err := s.llm.GenerateContent(ctx, systemPrompt, userPrompt, llm.TierStandard)
	if err != nil {
		s.logger.Error().Err(err).Msg("chat generation failed")
		upstream := &ErrUpstream{Err: err}
		s.errorResponse(w, HTTPStatus(upstream), "Failed to generate a reply")
		return
	}

	s.jsonResponse(w, http.StatusOK, ChatResponse{
		Reply:  completion.Text,
		Tokens: completion.TotalTokens,
	})
}
