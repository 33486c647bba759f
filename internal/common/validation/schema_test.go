package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const intentSchema = `{
	"type": "object",
	"required": ["intent", "confidence"],
	"properties": {
		"intent": {"type": "string", "minLength": 1},
		"confidence": {"type": "number", "minimum": 0, "maximum": 1}
	}
}`

func TestValidator_ValidateBytes(t *testing.T) {
	v := MustValidator(intentSchema)

	tests := []struct {
		name      string
		doc       string
		wantValid bool
		wantField string
	}{
		{"valid document", `{"intent":"balance.query","confidence":0.8}`, true, ""},
		{"missing confidence", `{"intent":"balance.query"}`, false, "(root)"},
		{"confidence out of range", `{"intent":"x","confidence":1.5}`, false, "confidence"},
		{"empty intent", `{"intent":"","confidence":0.2}`, false, "intent"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := v.ValidateBytes([]byte(tt.doc))
			require.NoError(t, err)
			assert.Equal(t, tt.wantValid, res.Valid)
			if tt.wantField != "" {
				assert.True(t, res.HasErrors(tt.wantField), res.GetErrorMessages())
			}
		})
	}
}

func TestValidator_ValidateDocument(t *testing.T) {
	v := MustValidator(intentSchema)

	res, err := v.ValidateDocument(map[string]interface{}{"intent": "greeting.hello", "confidence": 0.9})
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Empty(t, res.GetErrorMessages())
}

func TestValidator_MalformedJSON(t *testing.T) {
	v := MustValidator(intentSchema)

	_, err := v.ValidateBytes([]byte(`{not json`))
	assert.Error(t, err)
}

func TestNewValidator_BadSchema(t *testing.T) {
	_, err := NewValidator(`{"type": 12}`)
	assert.Error(t, err)
}
