package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseWindow(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected time.Duration
		wantErr  bool
	}{
		{name: "7 days", input: "7d", expected: 7 * 24 * time.Hour},
		{name: "2 weeks", input: "2w", expected: 14 * 24 * time.Hour},
		{name: "1 year", input: "1y", expected: 365 * 24 * time.Hour},
		{name: "6 hours", input: "6h", expected: 6 * time.Hour},
		{name: "90 minutes", input: "90m", expected: 90 * time.Minute},
		{name: "disabled", input: "0", expected: 0},
		{name: "empty string", input: "", wantErr: true},
		{name: "no unit", input: "7", wantErr: true},
		{name: "invalid unit", input: "7x", wantErr: true},
		{name: "negative", input: "-6h", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseWindow(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestFormatWindow(t *testing.T) {
	for _, d := range []time.Duration{0, 6 * time.Hour, 24 * time.Hour, 14 * 24 * time.Hour, 90 * time.Minute} {
		back, err := ParseWindow(FormatWindow(d))
		assert.NoError(t, err)
		assert.Equal(t, d, back)
	}
}
