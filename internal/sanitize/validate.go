package sanitize

import (
	"fmt"
	"strings"
)

// Severity is the qualitative risk tier attached to a rejected input.
type Severity string

const (
	// SeverityLow marks simple constraint violations (empty, too long).
	SeverityLow Severity = "low"
	// SeverityMedium marks structural or heuristic flags.
	SeverityMedium Severity = "medium"
	// SeverityHigh marks attack-signature matches.
	SeverityHigh Severity = "high"
)

// Input limits enforced before any classification runs.
const (
	MaxChatMessageLen    = 2000
	MaxJobDescriptionLen = 10000
	MaxLines             = 500
)

// Job-description heuristic boundaries. Text shorter than
// minJobDescriptionLen is never a job description; text of at least
// jobKeywordExemptLen gets the benefit of the doubt regardless of keywords.
const (
	minJobDescriptionLen = 100
	jobKeywordExemptLen  = 200
)

// ValidationResult is the outcome of validating one piece of untrusted text.
// Exactly one of SanitizedInput (valid) or Reason+Severity (invalid) is set.
// Results are constructed per call and never persisted.
type ValidationResult struct {
	Valid          bool     `json:"valid"`
	SanitizedInput string   `json:"sanitized_input,omitempty"`
	Reason         string   `json:"reason,omitempty"`
	Severity       Severity `json:"severity,omitempty"`
}

func valid(sanitized string) ValidationResult {
	return ValidationResult{Valid: true, SanitizedInput: sanitized}
}

func invalid(reason string, severity Severity) ValidationResult {
	return ValidationResult{Valid: false, Reason: reason, Severity: severity}
}

// ValidateChatMessage validates a single chat message. Rejections are returned
// as data, never as errors; the caller decides how to surface them.
func ValidateChatMessage(message string) ValidationResult {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return invalid("Message is empty", SeverityLow)
	}
	if len(trimmed) > MaxChatMessageLen {
		return invalid(fmt.Sprintf("Message exceeds the maximum length of %d characters", MaxChatMessageLen), SeverityLow)
	}

	if result := CheckPromptInjection(trimmed); !result.Valid {
		return result
	}
	if result := CheckSuspiciousPatterns(trimmed); !result.Valid {
		return result
	}

	if lineCount(trimmed) > MaxLines {
		return invalid("Message contains too many line breaks", SeverityMedium)
	}

	return valid(SanitizeHTML(trimmed))
}

// ValidateJobDescription validates a pasted job description. It applies the
// same pipeline as chat messages with the larger length limit, plus a
// permissive keyword heuristic: short text that shows none of the usual
// job-posting vocabulary is rejected, while anything of reasonable length is
// given the benefit of the doubt.
func ValidateJobDescription(description string) ValidationResult {
	trimmed := strings.TrimSpace(description)
	if trimmed == "" {
		return invalid("Job description is empty", SeverityLow)
	}
	if len(trimmed) > MaxJobDescriptionLen {
		return invalid(fmt.Sprintf("Job description exceeds the maximum length of %d characters", MaxJobDescriptionLen), SeverityLow)
	}

	if result := CheckPromptInjection(trimmed); !result.Valid {
		return result
	}
	if result := CheckSuspiciousPatterns(trimmed); !result.Valid {
		return result
	}

	if len(trimmed) < minJobDescriptionLen {
		return invalid("Input does not appear to be a job description", SeverityMedium)
	}
	if len(trimmed) < jobKeywordExemptLen && countKeywordFamilies(trimmed) == 0 {
		return invalid("Input does not appear to be a job description", SeverityMedium)
	}

	if lineCount(trimmed) > MaxLines {
		return invalid("Job description contains too many line breaks", SeverityMedium)
	}

	return valid(SanitizeHTML(trimmed))
}

// lineCount is newline count + 1.
func lineCount(text string) int {
	return strings.Count(text, "\n") + 1
}
