package utils

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testPayload struct {
	Name     string   `json:"name" validate:"required,max=10"`
	Email    string   `json:"email" validate:"omitempty,email"`
	Priority string   `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Minutes  *int     `json:"minutes" validate:"omitempty,gt=0,lte=1440"`
	Tags     []string `json:"tags" validate:"omitempty,dive,max=5"`
	Internal string   `json:"-" validate:"omitempty,min=2"`
}

func TestValidateStruct(t *testing.T) {
	zero := 0
	tests := []struct {
		name    string
		payload testPayload
		field   string
		message string
	}{
		{"valid", testPayload{Name: "Ana", Priority: "high"}, "", ""},
		{"missing required", testPayload{}, "name", "name is required"},
		{"too long", testPayload{Name: "Maria Fernanda"}, "name", "name must be at most 10"},
		{"bad email", testPayload{Name: "Ana", Email: "ana-at-example"}, "email", "email must be a valid email"},
		{"not in set", testPayload{Name: "Ana", Priority: "critical"}, "priority", "priority must be one of: low medium high urgent"},
		{"pointer bound", testPayload{Name: "Ana", Minutes: &zero}, "minutes", "minutes must be greater than 0"},
		{"dive", testPayload{Name: "Ana", Tags: []string{"housing"}}, "tags[0]", "tags[0] must be at most 5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.payload)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, IsValidationError(err))
			fields := GetValidationFields(err)
			assert.Equal(t, tt.message, fields[tt.field])
		})
	}
}

func TestGetValidationFields_OtherError(t *testing.T) {
	assert.Nil(t, GetValidationFields(assert.AnError))
	assert.False(t, IsValidationError(assert.AnError))
}

func TestParseUUID(t *testing.T) {
	id := uuid.New()
	got, err := ParseUUID(" "+id.String()+" ", "id")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = ParseUUID("42", "client_id")
	assert.EqualError(t, err, "client_id must be a valid UUID")
}
