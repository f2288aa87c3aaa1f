// Package server provides the HTTP API for the portfolio agent.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/marcus/portfolio-agent/internal/config"
	"github.com/marcus/portfolio-agent/internal/llm"
	"github.com/marcus/portfolio-agent/internal/security"
	"github.com/marcus/portfolio-agent/internal/server/middleware"
	"github.com/marcus/portfolio-agent/internal/server/ratelimit"
	"github.com/marcus/portfolio-agent/internal/store"
	"github.com/marcus/portfolio-agent/internal/testrunner"
)

const (
	// maxConcurrentLLMCalls bounds in-flight model requests across all
	// handlers so a burst cannot exhaust the provider quota.
	maxConcurrentLLMCalls = 4

	// llmRequestTimeout caps a single model call.
	llmRequestTimeout = 60 * time.Second
)

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	db          *store.DB
	store       store.TestCaseStore
	llm         llm.Client
	runner      *testrunner.Runner
	rateLimiter *ratelimit.Limiter
	jwtService  *JWTService
	authHandler *AuthHandler
	securityLog *security.Logger
	logger      zerolog.Logger
	llmSem      *semaphore.Weighted
}

// New creates a new server instance
func New(cfg *config.Config) (*Server, error) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()

	database, err := store.Connect(context.Background(), cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	llmClient, err := llm.NewClient(context.Background(), llm.DefaultConfig(), cfg.GeminiAPIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	adminConfig, err := config.NewAdminConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to create admin config: %w", err)
	}

	jwtConfig, err := config.NewJWTConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT config: %w", err)
	}

	s := &Server{
		db:          database,
		store:       database,
		llm:         llmClient,
		runner:      testrunner.NewRunner(llmClient),
		jwtService:  NewJWTService(jwtConfig),
		securityLog: security.NewLogger(logger),
		logger:      logger,
		llmSem:      semaphore.NewWeighted(maxConcurrentLLMCalls),
	}
	s.authHandler = NewAuthHandler(adminConfig, s.jwtService)

	limiterConfig := ratelimit.DefaultConfig()
	if cfg.RateLimitPerMinute > 0 {
		limiterConfig.Limit = cfg.RateLimitPerMinute
	}
	s.rateLimiter = ratelimit.NewLimiter(limiterConfig)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second, // Model calls can run long
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// routes assembles the router and middleware chain. Rate limiting applies
// only to the public model-backed endpoints; admin routes are protected by
// bearer auth instead.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)

	// Public model-backed endpoints
	mux.Handle("POST /api/chat", s.withRateLimit(http.HandlerFunc(s.handleChat)))
	mux.Handle("POST /api/fit-assessment", s.withRateLimit(http.HandlerFunc(s.handleFitAssessment)))

	// Admin endpoints
	mux.HandleFunc("POST /admin/login", s.authHandler.Login)

	requireAuth := middleware.AuthMiddleware(s.jwtService.AsTokenValidator())
	mux.Handle("GET /admin/test-cases", requireAuth(http.HandlerFunc(s.handleListTestCases)))
	mux.Handle("POST /admin/test-cases", requireAuth(http.HandlerFunc(s.handleCreateTestCase)))
	mux.Handle("DELETE /admin/test-cases/{id}", requireAuth(http.HandlerFunc(s.handleDeleteTestCase)))
	mux.Handle("POST /admin/test-runs", requireAuth(http.HandlerFunc(s.handleRunTests)))

	return s.withLogging(s.withCORS(mux))
}

// Start begins listening for requests
func (s *Server) Start() error {
	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		s.logger.Info().Str("addr", s.httpServer.Addr).Msg("server starting")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Fatal().Err(err).Msg("server error")
		}
	}()

	<-stop
	s.logger.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
	if s.llm != nil {
		if err := s.llm.Close(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to close LLM client")
		}
	}
	if s.db != nil {
		s.db.Close()
	}

	s.logger.Info().Msg("server stopped")
	return nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit enforces the per-client request budget
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := s.extractClientID(r)

		allowed, info := s.rateLimiter.Allow(clientID)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, clientID, info)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error().Err(err).Msg("failed to encode JSON response")
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// extractClientID identifies the caller for rate limiting. The service is
// expected to run behind a reverse proxy, so proxy headers are consulted
// before the socket address.
func (s *Server) extractClientID(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		// First entry is the originating client
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	if ip, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && ip != "" {
		return ip
	}
	return "unknown"
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		if !info.ResetAt.IsZero() {
			w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetAt.Unix()))
		}
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, clientID string, info ratelimit.Info) {
	response := map[string]interface{}{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetAt.Format(time.RFC3339),
	}

	if info.RetryAfter > 0 {
		response["retry_after"] = int(info.RetryAfter.Seconds())
		w.Header().Set("Retry-After", fmt.Sprintf("%d", int(info.RetryAfter.Seconds())))
	}

	s.logger.Warn().
		Str("client_id", clientID).
		Int("limit", info.Limit).
		Time("reset_at", info.ResetAt).
		Msg("rate limit exceeded")

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
