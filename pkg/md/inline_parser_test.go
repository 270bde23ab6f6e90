package md

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInlines_Structure(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "plain", input: "hello", expected: "Text(hello)"},
		{name: "emphasis", input: "*a* _b_", expected: "Emphasis(Text(a)),Text( ),Emphasis(Text(b))"},
		{name: "strong", input: "**a** __b__", expected: "Strong(Text(a)),Text( ),Strong(Text(b))"},
		{name: "strong inside emphasis", input: "*a **b** c*", expected: "Emphasis(Text(a ),Strong(Text(b)),Text( c))"},
		{name: "triple", input: "***x***", expected: "Strong(Emphasis(Text(x)))"},
		{name: "intraword underscore", input: "snake_case_name", expected: "Text(snake_case_name)"},
		{name: "intraword star", input: "un*frigging*believable", expected: "Text(un),Emphasis(Text(frigging)),Text(believable)"},
		{name: "unmatched", input: "*a", expected: "Text(*a)"},
		{name: "strikethrough", input: "~~gone~~", expected: "Strikethrough(Text(gone))"},
		{name: "single tilde", input: "~x~", expected: "Strikethrough(Text(x))"},
		{name: "code span", input: "`a *b*`", expected: "CodeSpan"},
		{name: "unclosed code span", input: "``a`", expected: "Text(``a`)"},
		{name: "escape", input: `\*not\*`, expected: "Text(*not*)"},
		{name: "entity", input: "&copy;", expected: "Entity"},
		{name: "inline link", input: "[a](/b)", expected: "Link(Text(a))"},
		{name: "image", input: "![a](/b.png)", expected: "Image(Text(a))"},
		{name: "link with emphasis", input: "[*a*](/b)", expected: "Link(Emphasis(Text(a)))"},
		{name: "no nested links", input: "[a [b](/c)](/d)", expected: "Text([a ),Link(Text(b)),Text(](/d))"},
		{name: "uri autolink", input: "<https://x.io>", expected: "Autolink"},
		{name: "email autolink", input: "<a@b.io>", expected: "Autolink"},
		{name: "literal autolink", input: "see https://x.io.", expected: "Text(see ),Autolink,Text(.)"},
		{name: "www autolink", input: "www.x.io", expected: "Autolink"},
		{name: "raw html", input: "a <b>c</b>", expected: "Text(a ),RawHtml,Text(c),RawHtml"},
		{name: "inline math", input: "$a+b$", expected: "Math"},
		{name: "dollar amount", input: "costs $5 and $6", expected: "Text(costs $5 and $6)"},
		{name: "display math", input: "$$x$$", expected: "Math"},
		{name: "emoji", input: ":tada:", expected: "Emoji"},
		{name: "unknown emoji", input: ":notanemoji:", expected: "Text(:notanemoji:)"},
		{name: "mention", input: "hi @bob[github]", expected: "Text(hi ),Mention"},
		{name: "email is not a mention", input: "x@y[github]", expected: "Text(x@y[github])"},
		{name: "inline footnote", input: "a^[note]", expected: "Text(a),InlineFootnote(Text(note))"},
		{name: "soft break", input: "a\nb", expected: "Text(a),SoftBreak,Text(b)"},
		{name: "hard break", input: "a\\\nb", expected: "Text(a),HardBreak,Text(b)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, inlineTree(ParseInlines(tt.input, nil)))
		})
	}
}

func TestParseInlines_Attributes(t *testing.T) {
	t.Run("link destination and title", func(t *testing.T) {
		nodes := ParseInlines(`[a](</my url> "T")`, nil)
		require.Len(t, nodes, 1)
		assert.Equal(t, "/my url", nodes[0].Link.Dest)
		assert.Equal(t, "T", nodes[0].Link.Title)
		assert.Equal(t, LinkInline, nodes[0].Link.Form)
	})

	t.Run("entity decoding", func(t *testing.T) {
		nodes := ParseInlines("&amp;&#35;&#x41;", nil)
		var sb strings.Builder
		for _, n := range nodes {
			sb.WriteString(n.Literal)
		}
		assert.Equal(t, "&#A", sb.String())
	})

	t.Run("code span trims one space", func(t *testing.T) {
		nodes := ParseInlines("`` `a` ``", nil)
		require.Len(t, nodes, 1)
		assert.Equal(t, "`a`", nodes[0].Literal)
	})

	t.Run("mention display", func(t *testing.T) {
		nodes := ParseInlines("@jane[GitLab](Jane Doe)", nil)
		require.Len(t, nodes, 1)
		require.NotNil(t, nodes[0].Mention)
		assert.Equal(t, "jane", nodes[0].Mention.User)
		assert.Equal(t, "gitlab", nodes[0].Mention.Platform)
		assert.Equal(t, "Jane Doe", nodes[0].Mention.Display)
	})

	t.Run("emoji glyph", func(t *testing.T) {
		nodes := ParseInlines(":smile:", nil)
		require.Len(t, nodes, 1)
		assert.Equal(t, "😄", nodes[0].Literal)
		assert.Equal(t, "smile", nodes[0].Info)
	})

	t.Run("www autolink gains scheme", func(t *testing.T) {
		nodes := ParseInlines("www.example.com/path", nil)
		require.Len(t, nodes, 1)
		assert.Equal(t, "http://www.example.com/path", nodes[0].Link.Dest)
	})

	t.Run("display math", func(t *testing.T) {
		nodes := ParseInlines("$$ E = mc^2 $$", nil)
		require.Len(t, nodes, 1)
		assert.True(t, nodes[0].Display)
		assert.Equal(t, "E = mc^2", nodes[0].Literal)
	})
}

func TestParseInlines_References(t *testing.T) {
	defs := NewDefinitions()
	require.True(t, defs.AddLink("Foo Bar", "/foo", ""))

	tests := []struct {
		name  string
		input string
		form  LinkForm
	}{
		{name: "full", input: "[x][foo bar]", form: LinkFull},
		{name: "collapsed", input: "[Foo  Bar][]", form: LinkCollapsed},
		{name: "shortcut", input: "[FOO BAR]", form: LinkShortcut},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nodes := ParseInlines(tt.input, defs)
			require.Len(t, nodes, 1)
			require.Equal(t, KindLink, nodes[0].Kind)
			assert.Equal(t, "/foo", nodes[0].Link.Dest)
			assert.Equal(t, tt.form, nodes[0].Link.Form)
		})
	}
}

func TestParse_InlineDiagnostics(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		message string
	}{
		{name: "unresolved full reference", input: "[a][missing]", message: "unresolved link reference [missing]"},
		{name: "unresolved collapsed reference", input: "[gone][]", message: "unresolved link reference [gone]"},
		{name: "undefined footnote", input: "x[^nope]", message: "undefined footnote [^nope]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := Parse(tt.input)
			assert.Contains(t, messages(doc.Diagnostics()), tt.message)
			for _, d := range doc.Diagnostics() {
				assert.Equal(t, CategoryReference, d.Category)
			}
		})
	}
}

func TestParse_ShortcutReferenceNotFlagged(t *testing.T) {
	doc := Parse("[just brackets]")
	assert.Empty(t, doc.Diagnostics())
	assert.Equal(t, "Paragraph(Text([just brackets]))", blockTree(doc))
}

func TestParse_InlineSpans(t *testing.T) {
	src := "> a **bold** word"
	doc := Parse(src)

	strong := find(doc, KindStrong)
	require.Len(t, strong, 1)
	span := doc.Node(strong[0]).Span
	assert.Equal(t, "**bold**", src[span.Start:span.End])

	text := doc.Children(strong[0])[0]
	span = doc.Node(text).Span
	assert.Equal(t, "bold", src[span.Start:span.End])
}

func TestParse_InlineNestingLimit(t *testing.T) {
	e := NewEngine(WithMaxNesting(3))
	doc := e.Parse("*a **b *c **d** c* b** a*")

	var limited []string
	for _, d := range doc.Diagnostics() {
		if d.Category == CategoryLimitExceeded {
			limited = append(limited, d.Message)
		}
	}
	require.NotEmpty(t, limited)
	assert.Equal(t, "emphasis exceeds the nesting limit of 3; markers rendered as text", limited[0])
}

func TestMergeText(t *testing.T) {
	text := func(lit string, start, end int) *Inline {
		return &Inline{Kind: KindText, Literal: lit, Span: Span{start, end}}
	}
	code := &Inline{Kind: KindCodeSpan, Literal: "x", Span: Span{6, 9}}

	first := text("a", 0, 1)
	nodes := []*Inline{first, text("*", 2, 4), text("", 4, 4), text("b", 4, 5), code, text("", 9, 9), text("c", 9, 10)}
	got := mergeText(nodes)

	require.Len(t, got, 3)
	assert.Equal(t, "a*b", got[0].Literal)
	assert.Equal(t, Span{0, 5}, got[0].Span)
	assert.Equal(t, "a", first.Literal, "merging must not modify the original node")
	assert.Same(t, code, got[1])
	assert.Equal(t, "c", got[2].Literal)

	assert.Empty(t, mergeText([]*Inline{text("", 0, 0)}))
}

func TestParseInlines_EscapeRunIsOneText(t *testing.T) {
	nodes := ParseInlines(strings.Repeat(`\*`, 1000), NewDefinitions())
	require.Len(t, nodes, 1)
	assert.Equal(t, KindText, nodes[0].Kind)
	assert.Equal(t, strings.Repeat("*", 1000), nodes[0].Literal)
	assert.Equal(t, Span{0, 2000}, nodes[0].Span)
}
