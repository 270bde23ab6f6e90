package md

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderReference(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
		{
			name:     "basic paragraph",
			input:    "Hello world",
			expected: "<p>Hello world</p>\n",
		},
		{
			name:     "h2 header",
			input:    "## Subtitle",
			expected: "<h2>Subtitle</h2>\n",
		},
		{
			name:     "bold and italic",
			input:    "**bold** and *italic*",
			expected: "<p><strong>bold</strong> and <em>italic</em></p>\n",
		},
		{
			name:     "strikethrough",
			input:    "~~deleted~~",
			expected: "<p><del>deleted</del></p>\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := RenderReference(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

// The engine and goldmark agree on plain CommonMark and GFM input.
func TestRender_MatchesReference(t *testing.T) {
	inputs := []string{
		"Hello world",
		"First paragraph.\n\nSecond paragraph.",
		"This is **bold** and *italic* text",
		"- Item 1\n- Item 2\n- Item 3",
		"1. First\n2. Second",
		"> This is a quote",
		"Use `code` here",
		"```\nplain code\n```",
		"```go\nfunc main() {}\n```",
		"[Google](https://google.com)",
		"[link](/url \"title\")",
		"Text\n\n---\n\nMore",
		"a  \nb",
		"~~deleted~~",
		"a < b & c",
		"![img](/a.png)",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			expected, err := RenderReference(input)
			require.NoError(t, err)
			assert.Equal(t, expected, ParseAndRender(input, RenderOptions{NoHighlight: true}))
		})
	}
}
