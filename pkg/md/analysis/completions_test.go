package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-cli-collective/marco/pkg/md"
)

func complete(src string, line, col int) []Suggestion {
	return GetCompletions(md.Parse(src), md.Position{Line: line, Column: col})
}

func suggestionLabels(ss []Suggestion) []string {
	out := make([]string, 0, len(ss))
	for _, s := range ss {
		out = append(out, s.Label)
	}
	return out
}

func TestGetCompletions_Languages(t *testing.T) {
	t.Run("bare fence", func(t *testing.T) {
		got := complete("```", 0, 3)
		assert.Equal(t, commonLanguages, suggestionLabels(got))
		assert.Equal(t, SuggestLanguage, got[0].Kind)
		assert.Equal(t, md.Span{Start: 3, End: 3}, got[0].Replace)
	})

	t.Run("typed prefix", func(t *testing.T) {
		got := complete("```go", 0, 5)
		require.NotEmpty(t, got)
		assert.Equal(t, "go", got[0].Label)
		assert.Contains(t, suggestionLabels(got), "golang")
		assert.Equal(t, md.Span{Start: 3, End: 5}, got[0].Replace)
		assert.LessOrEqual(t, len(got), maxRanked)
	})

	t.Run("tilde fence", func(t *testing.T) {
		assert.NotEmpty(t, complete("~~~", 0, 3))
	})

	t.Run("closing fence", func(t *testing.T) {
		assert.Empty(t, complete("```go\nx\n```", 2, 3))
	})
}

func TestGetCompletions_InsideCode(t *testing.T) {
	tests := []struct {
		name      string
		src       string
		line, col int
	}{
		{name: "code block body", src: "```\ncode\n```", line: 1, col: 2},
		{name: "code span", src: "a `co de` b", line: 0, col: 5},
		{name: "math", src: "a $x + y$ b", line: 0, col: 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, complete(tt.src, tt.line, tt.col))
		})
	}
}

func TestGetCompletions_Dialect(t *testing.T) {
	tests := []struct {
		name      string
		src       string
		line, col int
		kind      SuggestionKind
		labels    []string
	}{
		{
			name: "container kinds", src: ":::", line: 0, col: 3, kind: SuggestAdmonition,
			labels: []string{"note", "tip", "important", "warning", "caution", "tab"},
		},
		{name: "container prefix", src: ":::w", line: 0, col: 4, kind: SuggestAdmonition, labels: []string{"warning"}},
		{name: "container tab", src: ":::ta", line: 0, col: 5, kind: SuggestDirective, labels: []string{"tab"}},
		{name: "directives", src: "@", line: 0, col: 1, kind: SuggestDirective, labels: []string{"@slidestart", "@slideend", "@tab"}},
		{name: "slide directives", src: "@sl", line: 0, col: 3, kind: SuggestDirective, labels: []string{"@slidestart", "@slideend"}},
		{name: "platform", src: "hi @bob[gi", line: 0, col: 10, kind: SuggestPlatform, labels: []string{"github", "gitlab"}},
		{name: "emoji", src: "party :ta", line: 0, col: 9, kind: SuggestEmoji, labels: []string{":tada:"}},
		{name: "emoji pair", src: ":thumbs", line: 0, col: 7, kind: SuggestEmoji, labels: []string{":thumbsdown:", ":thumbsup:"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := complete(tt.src, tt.line, tt.col)
			assert.Equal(t, tt.labels, suggestionLabels(got))
			require.NotEmpty(t, got)
			assert.Equal(t, tt.kind, got[0].Kind)
		})
	}
}

func TestGetCompletions_Inserts(t *testing.T) {
	got := complete(":::w", 0, 4)
	require.Len(t, got, 1)
	assert.Equal(t, "warning\n\n:::", got[0].Insert)
	assert.Equal(t, md.Span{Start: 3, End: 4}, got[0].Replace)

	got = complete("hi @bob[gith", 0, 12)
	require.Len(t, got, 1)
	assert.Equal(t, "github]", got[0].Insert)
	assert.Equal(t, md.Span{Start: 8, End: 12}, got[0].Replace)

	got = complete("party :ta", 0, 9)
	require.Len(t, got, 1)
	assert.Equal(t, "tada:", got[0].Insert)
	assert.Equal(t, "🎉", got[0].Detail)
}

func TestGetCompletions_TabDirectiveFirstInsideTabs(t *testing.T) {
	got := complete(":::tab\n@tab A\nx\n@\n:::", 3, 1)
	require.NotEmpty(t, got)
	assert.Equal(t, "@tab", got[0].Label)
}

func TestGetCompletions_References(t *testing.T) {
	t.Run("heading anchors", func(t *testing.T) {
		src := "# Intro\n\n## Getting Started\n\nsee [x](#"
		got := complete(src, 4, 9)
		assert.Equal(t, []string{"#intro", "#getting-started"}, suggestionLabels(got))
		assert.Equal(t, "Intro", got[0].Detail)
		assert.Equal(t, "intro)", got[0].Insert)
	})

	t.Run("ranked anchors", func(t *testing.T) {
		src := "# Intro\n\n## Getting Started\n\nsee [x](#get"
		got := complete(src, 4, 12)
		require.NotEmpty(t, got)
		assert.Equal(t, "#getting-started", got[0].Label)
	})

	t.Run("footnote labels", func(t *testing.T) {
		src := "a[^no\n\n[^note]: n\n\n[^other]: o"
		got := complete(src, 0, 5)
		assert.Equal(t, []string{"[^note]"}, suggestionLabels(got))
		assert.Equal(t, "note]", got[0].Insert)
	})

	t.Run("link labels", func(t *testing.T) {
		src := "[t][\n\n[docs]: /docs"
		got := complete(src, 0, 4)
		assert.Equal(t, []string{"docs"}, suggestionLabels(got))
		assert.Equal(t, "/docs", got[0].Detail)
		assert.Equal(t, SuggestLinkLabel, got[0].Kind)
	})
}

func TestGetCompletions_Syntax(t *testing.T) {
	t.Run("blank line", func(t *testing.T) {
		got := suggestionLabels(complete("", 0, 0))
		require.NotEmpty(t, got)
		assert.Equal(t, "Heading 1", got[0])
		assert.Contains(t, got, "Heading 6")
		assert.Contains(t, got, "Code Block (go)")
		assert.Contains(t, got, "Ordered list item")
		assert.Contains(t, got, "Thematic break (---)")
		assert.Contains(t, got, "Admonition")
		assert.Contains(t, got, "Slide deck")
	})

	tests := []struct {
		name     string
		src      string
		col      int
		contains []string
		excludes []string
	}{
		{name: "heading level", src: "##", col: 2, contains: []string{"Continue to Heading 3"}},
		{name: "blockquote", src: ">", col: 1, contains: []string{"Continue block quote"}},
		{name: "link", src: "see [", col: 5, contains: []string{"Link", "Complete link"}},
		{name: "image", src: "see ![", col: 6, contains: []string{"Image"}, excludes: []string{"Link"}},
		{name: "escaped bracket", src: `see \[`, col: 6, excludes: []string{"Link"}},
		{name: "autolink", src: "mail <", col: 6, contains: []string{"Autolink (Email)"}},
		{name: "entity", src: "a &", col: 3, contains: []string{"&copy; - Copyright (©)"}},
		{name: "emphasis", src: "a *", col: 3, contains: []string{"Emphasis (italic)"}},
		{name: "strong", src: "a __", col: 4, contains: []string{"Strong (bold)"}},
		{name: "code span", src: "a `", col: 3, contains: []string{"Code Span"}},
		{name: "line break at end", src: "text", col: 4, contains: []string{"Hard line break (backslash)"}},
		{name: "no line break mid line", src: "text", col: 2, excludes: []string{"Hard line break (backslash)"}},
		{name: "no line break after backslash", src: `text\`, col: 5, excludes: []string{"Hard line break (backslash)"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := suggestionLabels(complete(tt.src, 0, tt.col))
			for _, s := range tt.contains {
				assert.Contains(t, got, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, got, s)
			}
		})
	}
}

func TestGetCompletions_EntityInsert(t *testing.T) {
	for _, s := range complete("a &", 0, 3) {
		if s.Label == "&amp; - Ampersand (&)" {
			assert.Equal(t, "amp;", s.Insert)
			assert.Equal(t, md.Span{Start: 3, End: 3}, s.Replace)
			return
		}
	}
	t.Fatal("ampersand entity not suggested")
}

func TestGetCompletions_OutOfRange(t *testing.T) {
	assert.Nil(t, GetCompletions(nil, md.Position{}))
	assert.Nil(t, complete("a", 5, 0))
	assert.Nil(t, complete("a", -1, 0))
}

func TestNewCompleter(t *testing.T) {
	c := NewCompleter(md.NewEmojiTable())
	got := c.Complete(md.Parse(":rock"), md.Position{Line: 0, Column: 5})
	assert.Equal(t, []string{":rocket:"}, suggestionLabels(got))
}

func TestRank(t *testing.T) {
	assert.Equal(t, []string{"gh", "github"}, rank("gh", []string{"github", "gitlab", "gh", "bitbucket"}))
	assert.Equal(t, []string{"go", "gosu", "golang"}, rank("go", []string{"golang", "gosu", "go"}))
	assert.Empty(t, rank("zz", []string{"a", "b"}))
}
