package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Validator holds a compiled JSON schema.
type Validator struct {
	schema *gojsonschema.Schema
}

// NewValidator compiles schemaJSON once so it can be reused across requests.
func NewValidator(schemaJSON string) (*Validator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	return &Validator{schema: schema}, nil
}

// MustValidator panics on an invalid schema. Use for package-level schemas.
func MustValidator(schemaJSON string) *Validator {
	v, err := NewValidator(schemaJSON)
	if err != nil {
		panic(err)
	}
	return v
}

// ValidateBytes validates a raw JSON document.
func (v *Validator) ValidateBytes(doc []byte) (*ValidationResult, error) {
	return v.validate(gojsonschema.NewBytesLoader(doc))
}

// ValidateDocument validates an already decoded Go value.
func (v *Validator) ValidateDocument(doc interface{}) (*ValidationResult, error) {
	return v.validate(gojsonschema.NewGoLoader(doc))
}

func (v *Validator) validate(loader gojsonschema.JSONLoader) (*ValidationResult, error) {
	result, err := v.schema.Validate(loader)
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	return out, nil
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// HasErrors checks if validation has errors for specific field
func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}

// GetErrorsForField returns errors for a specific field
func (vr *ValidationResult) GetErrorsForField(field string) []ValidationError {
	var fieldErrors []ValidationError
	for _, err := range vr.Errors {
		if err.Field == field || strings.HasPrefix(err.Field, field+".") {
			fieldErrors = append(fieldErrors, err)
		}
	}
	return fieldErrors
}
