// reference.go renders Markdown through goldmark. The output is a CommonMark
// and GFM baseline for comparing the engine's own renderer; it knows nothing
// about Marco containers, which pass through as plain paragraphs.
package md

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	emoji "github.com/yuin/goldmark-emoji"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// referenceParser is a goldmark instance with the GFM, footnote, definition
// list and emoji extensions.
var referenceParser = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Footnote,
		extension.DefinitionList,
		emoji.Emoji,
	),
	goldmark.WithParserOptions(
		parser.WithAttribute(),
	),
	goldmark.WithRendererOptions(
		html.WithXHTML(),
		html.WithUnsafe(),
	),
)

// RenderReference converts markdown to HTML with goldmark.
func RenderReference(markdown string) (string, error) {
	if markdown == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := referenceParser.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("failed to render reference html: %w", err)
	}
	return buf.String(), nil
}
