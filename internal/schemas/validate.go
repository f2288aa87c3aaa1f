// Package schemas provides JSON Schema validation for structured LLM output.
// The LLM is asked for JSON matching a schema; nothing it returns is trusted
// until it validates.
package schemas

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed fit_assessment_schema.json
var fitAssessmentSchema string

// FitAssessment is the structured verdict returned by the fit-assessment
// agent.
type FitAssessment struct {
	FitLevel        string   `json:"fit_level"`
	Reasoning       []string `json:"reasoning"`
	Recommendations []string `json:"recommendations"`
}

// SchemaViolationError reports a document that failed schema validation.
type SchemaViolationError struct {
	Violations []string
}

func (e *SchemaViolationError) Error() string {
	return fmt.Sprintf("schema validation failed: %s", strings.Join(e.Violations, "; "))
}

// ParseFitAssessment validates the raw LLM JSON against the fit-assessment
// schema and decodes it. It returns a *SchemaViolationError when the document
// is well-formed JSON but out of contract.
func ParseFitAssessment(raw string) (*FitAssessment, error) {
	schemaLoader := gojsonschema.NewStringLoader(fitAssessmentSchema)
	documentLoader := gojsonschema.NewStringLoader(raw)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, fmt.Errorf("failed to validate fit assessment: %w", err)
	}

	if !result.Valid() {
		violation := &SchemaViolationError{}
		for _, desc := range result.Errors() {
			violation.Violations = append(violation.Violations, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
		}
		return nil, violation
	}

	var assessment FitAssessment
	if err := json.Unmarshal([]byte(raw), &assessment); err != nil {
		return nil, fmt.Errorf("failed to decode fit assessment: %w", err)
	}
	return &assessment, nil
}
