package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"approval-console/internal/common/errors"
)

const testSchema = `{
	"type": "object",
	"properties": {
		"reason": {"type": "string", "minLength": 1}
	},
	"required": ["reason"],
	"additionalProperties": false
}`

func TestValidateJSON(t *testing.T) {
	tests := []struct {
		name     string
		document string
		valid    bool
	}{
		{"valid document", `{"reason": "Insufficient income"}`, true},
		{"missing required field", `{}`, false},
		{"empty string violates minLength", `{"reason": ""}`, false},
		{"wrong type", `{"reason": 42}`, false},
		{"unexpected field", `{"reason": "ok", "extra": 1}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateJSON(testSchema, []byte(tt.document))
			if tt.valid {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.True(t, errors.IsValidation(err))
			}
		})
	}
}

func TestValidateJSON_MalformedDocumentIsInternal(t *testing.T) {
	err := ValidateJSON(testSchema, []byte(`{not json`))
	require.Error(t, err)
	assert.False(t, errors.IsValidation(err), "a broken payload is not a field-level violation")
}

func TestValidateJSON_AggregatesAllViolations(t *testing.T) {
	err := ValidateJSON(testSchema, []byte(`{"reason": 42, "extra": 1}`))
	require.Error(t, err)

	var ve *errors.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Message, ";", "every failed constraint is reported at once")
}
