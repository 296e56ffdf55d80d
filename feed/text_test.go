package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripHTML(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"  plain text  ", "plain text"},
		{"<p>This is the <b>first</b> entry.</p>", "This is the first entry."},
		{"Tom &amp; Jerry", "Tom & Jerry"},
		{`<img src="http://x/a.jpg"> caption`, "caption"},
		{"<div><p>unclosed", "unclosed"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, StripHTML(tt.in), "input %q", tt.in)
	}
}
