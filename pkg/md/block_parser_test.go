package md

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_BlockStructure(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "atx heading", input: "### Three ###", expected: "Heading(Text(Three))"},
		{name: "setext heading", input: "Title\n=====", expected: "Heading(Text(Title))"},
		{name: "paragraphs", input: "one\n\ntwo", expected: "Paragraph(Text(one));Paragraph(Text(two))"},
		{name: "thematic break", input: "a\n\n---\n\nb", expected: "Paragraph(Text(a));ThematicBreak;Paragraph(Text(b))"},
		{name: "nested list", input: "- a\n  - b", expected: "List(ListItem(Paragraph(Text(a)),List(ListItem(Paragraph(Text(b))))))"},
		{name: "blockquote lazy continuation", input: "> a\nb", expected: "BlockQuote(Paragraph(Text(a),SoftBreak,Text(b)))"},
		{name: "fenced code", input: "~~~py\nprint()\n~~~", expected: "CodeBlock"},
		{name: "html block", input: "<div>\nhi\n</div>", expected: "HtmlBlock"},
		{name: "table", input: "| a |\n|---|\n| 1 |", expected: "Table(TableRow(TableCell(Text(a))),TableRow(TableCell(Text(1))))"},
		{name: "definition list", input: "Term\n: One\n: Two", expected: "DefinitionList(DefinitionTerm(Text(Term)),DefinitionDescription(Paragraph(Text(One))),DefinitionDescription(Paragraph(Text(Two))))"},
		{name: "front matter", input: "---\na: 1\n---\ntext", expected: "FrontMatter;Paragraph(Text(text))"},
		{name: "admonition", input: ":::note\nbody\n:::", expected: "Admonition(Paragraph(Text(body)))"},
		{name: "link definition removed", input: "[a]: /x\n\ntext", expected: "Paragraph(Text(text))"},
		{name: "footnote definition removed", input: "text\n\n[^a]: note", expected: "Paragraph(Text(text))"},
		{name: "tab group", input: ":::tab\n@tab A\na\n@tab B\nb\n:::", expected: "TabGroup(TabItem(Paragraph(Text(a))),TabItem(Paragraph(Text(b))))"},
		{name: "slide deck", input: "@slidestart\na\n---\nb\n@slideend", expected: "SlideDeck(Slide(Paragraph(Text(a))),Slide(Paragraph(Text(b))))"},
		{name: "tab group in admonition", input: ":::note\n:::tab\n@tab A\na\n:::\n:::", expected: "Admonition(TabGroup(TabItem(Paragraph(Text(a)))))"},
		{name: "double bang is literal", input: "!!! note\nbody", expected: "Paragraph(Text(!!! note),SoftBreak,Text(body))"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, blockTree(Parse(tt.input)))
		})
	}
}

func TestParse_BlockAttributes(t *testing.T) {
	t.Run("code block info", func(t *testing.T) {
		doc := Parse("```go title=main.go\nx\n```")
		code := doc.Node(doc.Blocks()[0])
		assert.Equal(t, "go title=main.go", code.Info)
		assert.True(t, code.Fenced)
		assert.Equal(t, "x", code.Literal)
	})

	t.Run("ordered list", func(t *testing.T) {
		doc := Parse("7) a\n8) b")
		list := doc.Node(doc.Blocks()[0])
		require.NotNil(t, list.List)
		assert.True(t, list.List.Ordered)
		assert.Equal(t, 7, list.List.Start)
		assert.True(t, list.List.Tight)
		assert.Equal(t, byte(')'), list.List.Marker)
	})

	t.Run("table alignment", func(t *testing.T) {
		doc := Parse("| a | b | c |\n|:-|:-:|-:|\n| 1 | 2 | 3 |")
		table := doc.Node(doc.Blocks()[0])
		require.NotNil(t, table.Table)
		assert.Equal(t, []Alignment{AlignLeft, AlignCenter, AlignRight}, table.Table.Align)
		assert.True(t, doc.Node(doc.Children(doc.Blocks()[0])[0]).Header)
	})

	t.Run("slide timer and vertical slides", func(t *testing.T) {
		doc := Parse("@slidestart:t30\na\n--\nb\n@slideend")
		deck := doc.Blocks()[0]
		assert.Equal(t, 30, doc.Node(deck).Timer)
		slides := doc.Children(deck)
		require.Len(t, slides, 2)
		assert.False(t, doc.Node(slides[0]).Vertical)
		assert.True(t, doc.Node(slides[1]).Vertical)
	})

	t.Run("tab titles", func(t *testing.T) {
		doc := Parse(":::tab Install\n@tab macOS\nbrew\n@tab  Linux \napt\n:::")
		group := doc.Blocks()[0]
		assert.Equal(t, "Install", doc.Node(group).Title)
		items := doc.Children(group)
		require.Len(t, items, 2)
		assert.Equal(t, "macOS", doc.Node(items[0]).Title)
		assert.Equal(t, "Linux", doc.Node(items[1]).Title)
	})

	t.Run("admonition kinds", func(t *testing.T) {
		tests := []struct {
			input string
			kind  AdmonitionKind
			title string
			style AdmonitionStyle
		}{
			{input: ":::note\nx\n:::", kind: AdmonitionNote, style: StyleFenced},
			{input: ":::caution Mind the gap\nx\n:::", kind: AdmonitionCaution, title: "Mind the gap", style: StyleFenced},
			{input: ":::details\nx\n:::", kind: AdmonitionCustom, title: "details", style: StyleFenced},
			{input: "> [!IMPORTANT]\n> x", kind: AdmonitionImportant, style: StyleAlert},
			{input: "> [!tip]\n> x", kind: AdmonitionTip, style: StyleAlert},
		}
		for _, tt := range tests {
			doc := Parse(tt.input)
			n := doc.Node(doc.Blocks()[0])
			require.Equal(t, KindAdmonition, n.Kind, tt.input)
			assert.Equal(t, tt.kind, n.Admonition.Kind, tt.input)
			assert.Equal(t, tt.title, n.Admonition.Title, tt.input)
			assert.Equal(t, tt.style, n.Admonition.Style, tt.input)
		}
	})

	t.Run("quote that is not an admonition", func(t *testing.T) {
		doc := Parse("> [!UNKNOWN]\n> x")
		assert.Equal(t, KindBlockQuote, doc.Kind(doc.Blocks()[0]))
	})
}

func TestParse_HeadingIDs(t *testing.T) {
	doc := Parse("# Intro\n\n# Intro\n\n## Setup {#custom}\n\n# Hello, World!")

	var ids []string
	var auto []bool
	for _, id := range doc.Blocks() {
		n := doc.Node(id)
		ids = append(ids, n.ID)
		auto = append(auto, n.AutoID)
	}
	assert.Equal(t, []string{"intro", "intro-1", "custom", "hello-world"}, ids)
	assert.Equal(t, []bool{true, true, false, true}, auto)
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Hello World", "hello-world"},
		{"  API_v2 ", "api_v2"},
		{"Ünïcode Tëxt", "ünïcode-tëxt"},
		{"a.b/c", "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Slugify(tt.input))
		})
	}
}

func TestParse_BlockDiagnostics(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		message  string
		severity Severity
		category Category
	}{
		{
			name:     "content before first tab",
			input:    ":::tab\nstray\n@tab A\na\n:::",
			message:  "content before the first @tab header",
			severity: SeverityWarning,
			category: CategoryStructural,
		},
		{
			name:     "no tab headers",
			input:    ":::tab\n:::",
			message:  "tab block has no @tab headers",
			severity: SeverityWarning,
			category: CategoryStructural,
		},
		{
			name:     "unterminated slide deck",
			input:    "@slidestart\na",
			message:  "unterminated slide deck",
			severity: SeverityWarning,
			category: CategoryStructural,
		},
		{
			name:     "unterminated admonition",
			input:    ":::note\na",
			message:  "unterminated admonition block",
			severity: SeverityWarning,
			category: CategoryStructural,
		},
		{
			name:     "malformed slide marker",
			input:    "@slidestart:t0\na\n@slideend",
			message:  "malformed @slidestart marker; expected @slidestart or @slidestart:tN with N > 0",
			severity: SeverityWarning,
			category: CategoryStructural,
		},
		{
			name:     "nested slide deck",
			input:    "@slidestart\n@slidestart\nx\n@slideend\n@slideend",
			message:  "nested slide deck is not supported; rendered as text",
			severity: SeverityWarning,
			category: CategoryStructural,
		},
		{
			name:     "double bang admonition",
			input:    "!!! note\nbody",
			message:  "\"!!!\" admonitions are not supported; use :::kind instead",
			severity: SeverityInfo,
			category: CategoryUnsupported,
		},
		{
			name:     "duplicate link definition",
			input:    "[a]: /one\n[a]: /two\n\n[a]",
			message:  "duplicate link reference definition [a]; the first definition is used",
			severity: SeverityInfo,
			category: CategoryReference,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var found *Diagnostic
			for _, d := range Parse(tt.input).Diagnostics() {
				if d.Message == tt.message {
					found = &d
					break
				}
			}
			require.NotNil(t, found, "missing %q", tt.message)
			assert.Equal(t, tt.severity, found.Severity)
			assert.Equal(t, tt.category, found.Category)
		})
	}
}

func TestParse_InvalidFrontMatter(t *testing.T) {
	doc := Parse("---\n: : bad\n  - [\n---\nbody")

	require.NotEmpty(t, doc.Diagnostics())
	assert.Contains(t, doc.Diagnostics()[0].Message, "invalid front matter")
	assert.Equal(t, KindFrontMatter, doc.Kind(doc.Blocks()[0]))
}

func TestParse_DuplicateLinkUsesFirst(t *testing.T) {
	doc := Parse("[a]: /one\n[a]: /two\n\n[a]")
	links := find(doc, KindLink)
	require.Len(t, links, 1)
	assert.Equal(t, "/one", doc.Node(links[0]).Link.Dest)
}

func TestParse_DiagnosticsOrdered(t *testing.T) {
	doc := Parse("[x][nope]\n\n:::tab\nstray\n@tab A\n:::\n\n[y][nope2]")

	diags := doc.Diagnostics()
	require.Len(t, diags, 3)
	for k := 1; k < len(diags); k++ {
		assert.LessOrEqual(t, diags[k-1].Span.Start, diags[k].Span.Start)
	}
}
