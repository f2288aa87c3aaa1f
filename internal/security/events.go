// Package security records rejected or flagged input attempts for
// observability. Events are write-only from this subsystem's point of view
// and never include the content of the rejected input.
package security

import (
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/marcus/portfolio-agent/internal/sanitize"
)

// EventType identifies the kind of security event.
type EventType string

const (
	EventPromptInjection   EventType = "prompt_injection"
	EventSuspiciousPattern EventType = "suspicious_pattern"
	EventValidationFailure EventType = "validation_failure"
)

// Event is a single security observation. Pattern, when set, names the rule
// family that fired, never the matched text.
type Event struct {
	Type      EventType         `json:"type"`
	Severity  sanitize.Severity `json:"severity"`
	Pattern   string            `json:"pattern,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// Logger emits security events to a structured log sink. The zero value is
// not usable; construct with NewLogger.
type Logger struct {
	log zerolog.Logger
}

// NewLogger creates a security event logger writing to the given zerolog
// logger.
func NewLogger(log zerolog.Logger) *Logger {
	return &Logger{log: log}
}

// NewDefaultLogger creates a security event logger writing to stdout.
func NewDefaultLogger() *Logger {
	log := zerolog.New(os.Stdout).With().Timestamp().Logger()
	return &Logger{log: log}
}

// Log records a security event, stamping the time if the caller left it zero.
// Logging must never block or fail the request pipeline; there is no error
// return.
func (l *Logger) Log(event Event) {
	if l == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	entry := l.log.Warn().
		Str("event", string(event.Type)).
		Str("severity", string(event.Severity)).
		Time("occurred_at", event.Timestamp)
	if event.Pattern != "" {
		entry = entry.Str("pattern", event.Pattern)
	}
	entry.Msg("security event")
}

// FromValidation maps a rejected validation result to an event. High-severity
// rejections are classified by the reason branch that produced them; anything
// else is a generic validation failure.
func FromValidation(result sanitize.ValidationResult) Event {
	event := Event{
		Type:     EventValidationFailure,
		Severity: result.Severity,
	}
	if result.Severity == sanitize.SeverityHigh {
		switch result.Reason {
		case sanitize.InjectionReason:
			event.Type = EventPromptInjection
		default:
			event.Type = EventSuspiciousPattern
		}
	}
	return event
}
