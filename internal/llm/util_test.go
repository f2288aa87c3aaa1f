package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestCleanJSONBlock_JSONFence tests removal of ```json fences
func TestCleanJSONBlock_JSONFence(t *testing.T) {
	in := "```json\n{\"fit_level\": \"good\"}\n```"
	assert.Equal(t, `{"fit_level": "good"}`, CleanJSONBlock(in))
}

// TestCleanJSONBlock_GenericFence tests removal of bare fences with a language line
func TestCleanJSONBlock_GenericFence(t *testing.T) {
	in := "```\n{\"a\": 1}\n```"
	assert.Equal(t, `{"a": 1}`, CleanJSONBlock(in))

	in = "```javascript\n{\"a\": 1}\n```"
	assert.Equal(t, `{"a": 1}`, CleanJSONBlock(in))
}

// TestCleanJSONBlock_PassThrough tests unfenced input is only trimmed
func TestCleanJSONBlock_PassThrough(t *testing.T) {
	assert.Equal(t, `{"a": 1}`, CleanJSONBlock("  {\"a\": 1}\n"))
	assert.Equal(t, "", CleanJSONBlock("   "))
}
