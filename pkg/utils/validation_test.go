package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	Name  string  `validate:"required,max=8"`
	Theme string  `validate:"omitempty,oneof=light dark"`
	Body  *string `validate:"omitempty,max=4"`
}

func ptr(s string) *string { return &s }

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name    string
		input   sample
		wantErr string
	}{
		{"valid", sample{Name: "billing"}, ""},
		{"missing name", sample{}, "name is required"},
		{"body within cap", sample{Name: "ok", Body: ptr("abcd")}, ""},
		{"body over cap", sample{Name: "ok", Body: ptr("abcde")}, "body must be at most 4 characters"},
		{"too long", sample{Name: "much-too-long"}, "name must be at most 8 characters"},
		{"bad enum", sample{Name: "ok", Theme: "pink"}, "theme must be one of: light dark"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(tt.input)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}
