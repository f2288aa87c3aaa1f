// Package sanitize provides heuristic validation and sanitization of untrusted
// free-text input before it is allowed to reach an LLM prompt.
//
// This is a best-effort defense-in-depth layer, not a guarantee: the rules are
// regex signatures and numeric heuristics, evaluated in order with first match
// winning. Ambiguous matches fail closed (the input is rejected, never cleaned
// and passed through).
package sanitize

import (
	"regexp"
)

// Rule is a single named detection rule. Rules are immutable after package
// initialization and safe for concurrent use.
type Rule struct {
	ID      string
	Matches func(text string) bool
	Reason  string
}

// ruleSpec is the data form a regex rule is declared in.
type ruleSpec struct {
	id      string
	pattern string
}

// Rejection reasons shared by all rules of a family. Exported so callers can
// attribute a high-severity rejection to the branch that produced it.
const (
	InjectionReason  = "Input contains patterns that attempt to override system instructions"
	SuspiciousReason = "Input contains suspicious or potentially malicious patterns"
)

// injectionSpecs are signatures of prompt-injection phrasing. All patterns are
// case-insensitive.
var injectionSpecs = []ruleSpec{
	{"instruction_override", `(?i)(ignore|disregard|forget)\s+(all\s+)?(the\s+)?(previous|prior|above|earlier)\s+(instructions?|prompts?|context|rules)`},
	{"system_prompt_extraction", `(?i)(show|print|repeat|reveal|output|display)\s+(me\s+)?(your|the)\s+(system\s+prompt|initial\s+instructions?|hidden\s+instructions?)`},
	{"instruction_probe", `(?i)what\s+are\s+your\s+(instructions|rules|guidelines)`},
	{"role_switch", `(?i)you\s+are\s+now\s+(a|an|the)\b`},
	{"act_as", `(?i)\bact\s+as\s+(a|an)\s+\w+`},
	{"persona_swap", `(?i)\b(pretend\s+(to\s+be|you)|simulate\s+(a|an|being)|roleplay\s+as)\b`},
	{"jailbreak_framing", `(?i)(for\s+educational\s+purposes|hypothetical\s+scenario|let'?s\s+imagine|what\s+if\s+you\s+could)`},
	{"mode_override", `(?i)(developer\s+mode|dan\s+mode|\bjailbreak\b|override\s+your\s+programming)`},
	{"delimiter_confusion", `(?i)(\[system\]|\[inst\]|\[/inst\]|<\|system\|>|<\|user\|>|<\|assistant\|>)`},
	{"encoding_marker", `(?i)\b(base64|rot13)\b`},
	{"escape_sequence", `(?i)(\\x[0-9a-f]{2}|\\u[0-9a-f]{4})`},
}

// suspiciousSpecs are signatures of XSS, command, SQL and path-traversal
// payloads that have no business inside a chat message or job posting.
var suspiciousSpecs = []ruleSpec{
	{"script_tag", `(?is)<script\b`},
	{"javascript_uri", `(?i)javascript\s*:`},
	{"event_handler", `(?i)\bon\w+\s*=\s*["']`},
	{"shell_chain", `(?i)(;\s*(rm\s+-rf|curl|wget)\b|\|\s*(ba)?sh\b)`},
	{"sql_injection", `(?i)('\s*or\s*'1'\s*=\s*'1|\bdrop\s+table\b|\bunion\s+select\b)`},
	{"path_traversal", `\.\./|\.\.\\`},
}

// keywordFamilies are the four keyword groups used by the job-description
// heuristic. A family counts once no matter how many of its words appear.
var keywordFamilies = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(responsibilit(y|ies)|requirements?|qualifications?|skills?|duties)\b`),
	regexp.MustCompile(`(?i)\b(role|position|job|opening|opportunity|candidate)\b`),
	regexp.MustCompile(`(?i)\b(years?|experience|degree|bachelor'?s?|master'?s?|phd)\b`),
	regexp.MustCompile(`(?i)\b(team|company|organization|department|culture|benefits)\b`),
}

var (
	injectionRules  = compileRules(injectionSpecs, InjectionReason)
	suspiciousRules = appendStuffingRule(compileRules(suspiciousSpecs, SuspiciousReason))
)

func compileRules(specs []ruleSpec, reason string) []Rule {
	rules := make([]Rule, 0, len(specs))
	for _, spec := range specs {
		re := regexp.MustCompile(spec.pattern)
		rules = append(rules, Rule{
			ID:      spec.id,
			Matches: re.MatchString,
			Reason:  reason,
		})
	}
	return rules
}

// appendStuffingRule adds the token-stuffing detector as the last suspicious
// rule. It cannot be a regex: matching "any substring of length >= 10 repeated
// >= 5 times" needs backreferences, which RE2 does not support.
func appendStuffingRule(rules []Rule) []Rule {
	return append(rules, Rule{
		ID:      "token_stuffing",
		Matches: hasRepeatedRun,
		Reason:  SuspiciousReason,
	})
}

const (
	stuffingMinLen  = 10
	stuffingRepeats = 5
)

// hasRepeatedRun reports whether text contains a substring of length at least
// stuffingMinLen repeated at least stuffingRepeats times contiguously.
//
// For each candidate period p, a run of p*(repeats-1) consecutive positions
// with text[i] == text[i+p] implies a period-p substring repeated `repeats`
// times. This is O(n^2/repeats) worst case, bounded by the input limits
// enforced before classification.
func hasRepeatedRun(text string) bool {
	n := len(text)
	for p := stuffingMinLen; p*stuffingRepeats <= n; p++ {
		need := p * (stuffingRepeats - 1)
		run := 0
		for i := 0; i+p < n; i++ {
			if text[i] == text[i+p] {
				run++
				if run >= need {
					return true
				}
			} else {
				run = 0
			}
		}
	}
	return false
}

// countKeywordFamilies returns how many of the job-description keyword
// families match the text.
func countKeywordFamilies(text string) int {
	count := 0
	for _, family := range keywordFamilies {
		if family.MatchString(text) {
			count++
		}
	}
	return count
}
