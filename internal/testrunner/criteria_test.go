package testrunner

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCriterionEvaluate_Contains tests case-insensitive substring matching
func TestCriterionEvaluate_Contains(t *testing.T) {
	criterion := Criterion{Type: CriterionContains, Text: "Golang"}

	passed, reason := criterion.Evaluate("I mostly write golang services.", 50)
	assert.True(t, passed)
	assert.Empty(t, reason)

	passed, reason = criterion.Evaluate("I mostly write Python.", 50)
	assert.False(t, passed)
	assert.Contains(t, reason, "Golang")
}

// TestCriterionEvaluate_FirstPerson tests the pronoun check with word boundaries
func TestCriterionEvaluate_FirstPerson(t *testing.T) {
	criterion := Criterion{Type: CriterionFirstPerson}

	for _, response := range []string{
		"I build APIs.",
		"That project was mine.",
		"It taught me a lot.",
		"I'm happy to elaborate.",
		"I've shipped three of those.",
	} {
		passed, _ := criterion.Evaluate(response, 0)
		assert.True(t, passed, "expected first person in %q", response)
	}

	// Pronoun letters embedded in other words must not count.
	passed, reason := criterion.Evaluate("The system responds immediately.", 0)
	assert.False(t, passed)
	assert.Contains(t, reason, "first person")
}

// TestCriterionEvaluate_TokenLimit tests the token boundary
func TestCriterionEvaluate_TokenLimit(t *testing.T) {
	criterion := Criterion{Type: CriterionTokenLimit, Limit: 100}

	passed, _ := criterion.Evaluate("anything", 100)
	assert.True(t, passed)

	passed, reason := criterion.Evaluate("anything", 101)
	assert.False(t, passed)
	assert.Contains(t, reason, "101")
}

// TestCriterionEvaluate_MaxLength tests the character boundary
func TestCriterionEvaluate_MaxLength(t *testing.T) {
	criterion := Criterion{Type: CriterionMaxLength, Limit: 10}

	passed, _ := criterion.Evaluate(strings.Repeat("x", 10), 0)
	assert.True(t, passed)

	passed, _ = criterion.Evaluate(strings.Repeat("x", 11), 0)
	assert.False(t, passed)
}

// TestCriterionEvaluate_UnknownTypeFailsClosed tests the default branch
func TestCriterionEvaluate_UnknownTypeFailsClosed(t *testing.T) {
	criterion := Criterion{Type: "sentiment"}
	passed, reason := criterion.Evaluate("anything", 0)
	assert.False(t, passed)
	assert.Contains(t, reason, "unknown criterion type")
}

// TestCriterionJSON_RoundTrip tests the wire form for each variant
func TestCriterionJSON_RoundTrip(t *testing.T) {
	cases := []Criterion{
		{Type: CriterionContains, Text: "backend"},
		{Type: CriterionFirstPerson},
		{Type: CriterionTokenLimit, Limit: 200},
		{Type: CriterionMaxLength, Limit: 800},
	}
	for _, original := range cases {
		data, err := json.Marshal(original)
		require.NoError(t, err)

		var decoded Criterion
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, original, decoded)
	}
}

// TestCriterionJSON_RejectsUnknownType tests decode failure for unknown tags
func TestCriterionJSON_RejectsUnknownType(t *testing.T) {
	var criterion Criterion
	err := json.Unmarshal([]byte(`{"type":"sentiment","value":"positive"}`), &criterion)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown criterion type")
}

// TestCriterionJSON_ValueTypeMismatch tests decode failure for wrong operand types
func TestCriterionJSON_ValueTypeMismatch(t *testing.T) {
	var criterion Criterion
	err := json.Unmarshal([]byte(`{"type":"token-limit","value":"lots"}`), &criterion)
	assert.Error(t, err)

	err = json.Unmarshal([]byte(`{"type":"contains","value":42}`), &criterion)
	assert.Error(t, err)
}
