package sanitize

import (
	"regexp"
)

// allowedCharRe matches characters considered ordinary for prose: letters,
// digits, whitespace and common punctuation. Everything else counts toward
// the special-character ratio.
var allowedCharRe = regexp.MustCompile(`[a-zA-Z0-9\s.,!?;:()'"-]`)

// maxSpecialCharRatio is the fraction of out-of-allow-set characters above
// which input is rejected as likely obfuscation.
const maxSpecialCharRatio = 0.3

// CheckPromptInjection tests text against the injection rule table, then
// against the special-character-ratio heuristic. The first matching rule wins.
func CheckPromptInjection(text string) ValidationResult {
	for _, rule := range injectionRules {
		if rule.Matches(text) {
			return invalid(rule.Reason, SeverityHigh)
		}
	}

	if specialCharRatio(text) > maxSpecialCharRatio {
		return invalid("Input contains an excessive ratio of special characters", SeverityMedium)
	}

	return valid("")
}

// CheckSuspiciousPatterns tests text against the suspicious rule table
// (XSS, shell, SQL, path traversal, token stuffing). First match wins.
func CheckSuspiciousPatterns(text string) ValidationResult {
	for _, rule := range suspiciousRules {
		if rule.Matches(text) {
			return invalid(rule.Reason, SeverityHigh)
		}
	}
	return valid("")
}

// specialCharRatio returns the fraction of characters outside the allow-set.
func specialCharRatio(text string) float64 {
	if len(text) == 0 {
		return 0
	}
	allowed := len(allowedCharRe.FindAllString(text, -1))
	return float64(len(text)-allowed) / float64(len(text))
}
