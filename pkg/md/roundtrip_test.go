package md

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// roundtrip renders input, converts the HTML back to Markdown and parses it.
func roundtrip(t *testing.T, input string) *Document {
	t.Helper()
	html := ParseAndRender(input, RenderOptions{NoHighlight: true})
	md, err := FromHTML(html)
	require.NoError(t, err)
	return Parse(md)
}

func TestRoundtrip_Structure(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "heading and paragraph", input: "# Title\n\nSome **bold** text."},
		{name: "list", input: "- one\n- two"},
		{name: "admonition", input: ":::tip[Pro tip]\nUse it.\n:::"},
		{name: "tabs", input: ":::tab\n@tab Go\ngo run\n@tab Rust\ncargo run\n:::"},
		{name: "slides", input: "@slidestart\none\n---\ntwo\n--\nthree\n@slideend"},
		{name: "timed slides", input: "@slidestart:t5\none\n@slideend"},
		{name: "code", input: "```go\nx := 1\n```"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, blockTree(Parse(tt.input)), blockTree(roundtrip(t, tt.input)))
		})
	}
}

func TestRoundtrip_WidgetAttributes(t *testing.T) {
	doc := roundtrip(t, ":::warning[Mind the gap]\nbody\n:::\n\n@slidestart:t7\na\n--\nb\n@slideend")

	admonitions := find(doc, KindAdmonition)
	require.Len(t, admonitions, 1)
	a := doc.Node(admonitions[0]).Admonition
	assert.Equal(t, AdmonitionWarning, a.Kind)
	assert.Equal(t, "Mind the gap", a.Title)

	decks := find(doc, KindSlideDeck)
	require.Len(t, decks, 1)
	assert.Equal(t, 7, doc.Node(decks[0]).Timer)
	slides := doc.Children(decks[0])
	require.Len(t, slides, 2)
	assert.True(t, doc.Node(slides[1]).Vertical)
}

func TestRoundtrip_TabTitles(t *testing.T) {
	doc := roundtrip(t, ":::tab\n@tab macOS\nbrew\n@tab Linux\napt\n:::")

	groups := find(doc, KindTabGroup)
	require.Len(t, groups, 1)
	var titles []string
	for _, item := range doc.Children(groups[0]) {
		titles = append(titles, doc.Node(item).Title)
	}
	assert.Equal(t, []string{"macOS", "Linux"}, titles)
}

func TestRoundtrip_Math(t *testing.T) {
	doc := roundtrip(t, "Area is $\\pi r^2$.")

	math := find(doc, KindMath)
	require.Len(t, math, 1)
	assert.Equal(t, `\pi r^2`, doc.Node(math[0]).Literal)
}

func TestRoundtrip_Footnotes(t *testing.T) {
	doc := roundtrip(t, "Claim[^src].\n\n[^src]: Source text.")

	refs := find(doc, KindFootnoteRef)
	require.Len(t, refs, 1)
	def, ok := doc.Definitions().Footnote(doc.Node(refs[0]).Label)
	require.True(t, ok)
	assert.Equal(t, "Source text.", doc.PlainText(def.Node))
}
