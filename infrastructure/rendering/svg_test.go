package rendering

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckSVG(t *testing.T) {
	tests := []struct {
		name  string
		input string
		valid bool
	}{
		{"plain svg", `<svg xmlns="http://www.w3.org/2000/svg"><g><rect/></g></svg>`, true},
		{"with prolog", `<?xml version="1.0" encoding="UTF-8" standalone="no"?><svg><text>a&nbsp;b</text></svg>`, true},
		{"empty", "", false},
		{"whitespace", " \n\t", false},
		{"not svg root", `<html><svg></svg></html>`, false},
		{"truncated", `<svg><g><rect/>`, false},
		{"malformed", `<svg><g></svg>`, false},
		{"plain text", "Error line 3 in file: syntax error", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkSVG([]byte(tt.input))
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
