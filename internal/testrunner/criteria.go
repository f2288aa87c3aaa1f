// Package testrunner executes prompt test cases against an LLM system prompt
// and evaluates the responses with simple pass/fail criteria. It backs the
// admin workbench used to tune agent prompts.
package testrunner

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// CriterionType identifies a criterion variant.
type CriterionType string

const (
	// CriterionContains passes when the response contains a substring,
	// case-insensitively.
	CriterionContains CriterionType = "contains"
	// CriterionFirstPerson passes when the response speaks in the first
	// person.
	CriterionFirstPerson CriterionType = "first-person"
	// CriterionTokenLimit passes when total token usage stays at or under a
	// limit.
	CriterionTokenLimit CriterionType = "token-limit"
	// CriterionMaxLength passes when the response character count stays at or
	// under a limit.
	CriterionMaxLength CriterionType = "max-length"
)

// firstPersonRe matches first-person pronoun forms with word boundaries.
var firstPersonRe = regexp.MustCompile(`(?i)\b(i|i'm|i've|i'll|i'd|my|me|mine|myself)\b`)

// Criterion is one pass/fail check applied to an LLM response. Text carries
// the operand for contains; Limit carries it for token-limit and max-length.
type Criterion struct {
	Type  CriterionType
	Text  string
	Limit int
}

// criterionWire is the JSON form used by the admin API and the test-case
// store: {"type": ..., "value": string|number}.
type criterionWire struct {
	Type  CriterionType   `json:"type"`
	Value json.RawMessage `json:"value,omitempty"`
}

// UnmarshalJSON decodes the wire form, interpreting value by criterion type.
func (c *Criterion) UnmarshalJSON(data []byte) error {
	var wire criterionWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	criterion := Criterion{Type: wire.Type}
	switch wire.Type {
	case CriterionContains:
		if err := json.Unmarshal(wire.Value, &criterion.Text); err != nil {
			return fmt.Errorf("contains criterion requires a string value: %w", err)
		}
	case CriterionTokenLimit, CriterionMaxLength:
		if err := json.Unmarshal(wire.Value, &criterion.Limit); err != nil {
			return fmt.Errorf("%s criterion requires a numeric value: %w", wire.Type, err)
		}
	case CriterionFirstPerson:
		// No operand.
	default:
		return fmt.Errorf("unknown criterion type %q", wire.Type)
	}

	*c = criterion
	return nil
}

// MarshalJSON encodes the wire form.
func (c Criterion) MarshalJSON() ([]byte, error) {
	wire := criterionWire{Type: c.Type}
	switch c.Type {
	case CriterionContains:
		value, err := json.Marshal(c.Text)
		if err != nil {
			return nil, err
		}
		wire.Value = value
	case CriterionTokenLimit, CriterionMaxLength:
		value, err := json.Marshal(c.Limit)
		if err != nil {
			return nil, err
		}
		wire.Value = value
	}
	return json.Marshal(wire)
}

// ValueString renders the criterion operand for reporting.
func (c Criterion) ValueString() string {
	switch c.Type {
	case CriterionContains:
		return c.Text
	case CriterionTokenLimit, CriterionMaxLength:
		return strconv.Itoa(c.Limit)
	default:
		return ""
	}
}

// Evaluate applies the criterion to a response and its token count. Unknown
// criterion types fail closed.
func (c Criterion) Evaluate(response string, tokenCount int) (bool, string) {
	switch c.Type {
	case CriterionContains:
		if strings.Contains(strings.ToLower(response), strings.ToLower(c.Text)) {
			return true, ""
		}
		return false, fmt.Sprintf("response does not contain %q", c.Text)
	case CriterionFirstPerson:
		if firstPersonRe.MatchString(response) {
			return true, ""
		}
		return false, "response does not speak in the first person"
	case CriterionTokenLimit:
		if tokenCount <= c.Limit {
			return true, ""
		}
		return false, fmt.Sprintf("used %d tokens, limit is %d", tokenCount, c.Limit)
	case CriterionMaxLength:
		if len(response) <= c.Limit {
			return true, ""
		}
		return false, fmt.Sprintf("response is %d characters, limit is %d", len(response), c.Limit)
	default:
		return false, fmt.Sprintf("unknown criterion type %q", c.Type)
	}
}

// CriterionFailure records one failed criterion within a test result.
type CriterionFailure struct {
	Type   CriterionType `json:"type"`
	Value  string        `json:"value,omitempty"`
	Reason string        `json:"reason"`
}
