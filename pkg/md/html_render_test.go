package md

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_Blocks(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "heading and paragraph",
			input:    "# Hello\n\nThis is **bold** and *italic*.",
			expected: "<h1>Hello</h1>\n<p>This is <strong>bold</strong> and <em>italic</em>.</p>\n",
		},
		{
			name:     "explicit heading id",
			input:    "## Setup {#install}",
			expected: "<h2 id=\"install\">Setup</h2>\n",
		},
		{
			name:     "tight list",
			input:    "- a\n- b",
			expected: "<ul>\n<li>a</li>\n<li>b</li>\n</ul>\n",
		},
		{
			name:     "loose list",
			input:    "- a\n\n- b",
			expected: "<ul>\n<li>\n<p>a</p>\n</li>\n<li>\n<p>b</p>\n</li>\n</ul>\n",
		},
		{
			name:     "ordered list with start",
			input:    "3. three\n4. four",
			expected: "<ol start=\"3\">\n<li>three</li>\n<li>four</li>\n</ol>\n",
		},
		{
			name:     "blockquote",
			input:    "> quoted",
			expected: "<blockquote>\n<p>quoted</p>\n</blockquote>\n",
		},
		{
			name:     "thematic break",
			input:    "***",
			expected: "<hr />\n",
		},
		{
			name:     "definition list",
			input:    "Term\n: Definition",
			expected: "<dl>\n<dt>Term</dt>\n<dd>Definition</dd>\n</dl>\n",
		},
		{
			name:     "code block without language",
			input:    "```\n@tab X\n```",
			expected: "<pre><code>@tab X\n</code></pre>\n",
		},
		{
			name:     "code block with unknown language",
			input:    "```nosuchlang\na < b\n```",
			expected: "<pre><code class=\"language-nosuchlang\">a &lt; b\n</code></pre>\n",
		},
		{
			name:     "indented code",
			input:    "    code",
			expected: "<pre><code>code\n</code></pre>\n",
		},
		{
			name:     "front matter is not rendered",
			input:    "---\ntitle: x\n---\n\nbody",
			expected: "<p>body</p>\n",
		},
		{
			name:     "empty document",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseAndRender(tt.input, RenderOptions{}))
		})
	}
}

func TestRender_Inlines(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "triple emphasis",
			input:    "***word***",
			expected: "<p><strong><em>word</em></strong></p>\n",
		},
		{
			name:     "strikethrough and code",
			input:    "~~gone~~ `x < y`",
			expected: "<p><del>gone</del> <code>x &lt; y</code></p>\n",
		},
		{
			name:     "hard break",
			input:    "a  \nb",
			expected: "<p>a<br />\nb</p>\n",
		},
		{
			name:     "soft break",
			input:    "a\nb",
			expected: "<p>a\nb</p>\n",
		},
		{
			name:     "escaping",
			input:    `a < b & "c"`,
			expected: "<p>a &lt; b &amp; &quot;c&quot;</p>\n",
		},
		{
			name:     "link with title",
			input:    `[go](https://go.dev "Go")`,
			expected: "<p><a href=\"https://go.dev\" title=\"Go\">go</a></p>\n",
		},
		{
			name:     "image alt text is flattened",
			input:    `![alt *text*](/a.png "T")`,
			expected: "<p><img src=\"/a.png\" alt=\"alt text\" title=\"T\" /></p>\n",
		},
		{
			name:     "autolink",
			input:    "<https://example.com>",
			expected: "<p><a href=\"https://example.com\">https://example.com</a></p>\n",
		},
		{
			name:     "inline math",
			input:    "$x^2$",
			expected: "<p><span class=\"math math-inline\">x^2</span></p>\n",
		},
		{
			name:     "emoji",
			input:    ":smile:",
			expected: "<p><span class=\"emoji\" role=\"img\" aria-label=\"smile\">😄</span></p>\n",
		},
		{
			name:     "mention with profile",
			input:    "@octocat[github]",
			expected: "<p><a class=\"marco-mention\" href=\"https://github.com/octocat\" data-platform=\"github\">@octocat</a></p>\n",
		},
		{
			name:     "mention with display name",
			input:    "@someone[nowhere](Some One)",
			expected: "<p><span class=\"marco-mention\" data-platform=\"nowhere\">Some One</span></p>\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseAndRender(tt.input, RenderOptions{}))
		})
	}
}

func TestRender_HeadingIDs(t *testing.T) {
	doc := Parse("# A\n\n# A\n\n# A")

	assert.NotContains(t, Render(doc, RenderOptions{}), "id=")

	html := Render(doc, RenderOptions{HeadingIDs: true})
	assert.Contains(t, html, `<h1 id="a">A</h1>`)
	assert.Contains(t, html, `<h1 id="a-1">A</h1>`)
	assert.Contains(t, html, `<h1 id="a-2">A</h1>`)
}

func TestRender_TaskList(t *testing.T) {
	html := ParseAndRender("- [x] done\n- [ ] todo", RenderOptions{})

	dom := htmlDoc(t, html)
	boxes := dom.Find("li input[type=checkbox]")
	require.Equal(t, 2, boxes.Length())
	_, checked := boxes.Eq(0).Attr("checked")
	assert.True(t, checked)
	_, checked = boxes.Eq(1).Attr("checked")
	assert.False(t, checked)
	assert.Equal(t, "done", strings.TrimSpace(dom.Find("li").First().Text()))
}

func TestRender_Table(t *testing.T) {
	html := ParseAndRender("| a | b |\n|:--|--:|\n| 1 | 2 |\n| 3 | 4 |", RenderOptions{})

	dom := htmlDoc(t, html)
	assert.Equal(t, 2, dom.Find("thead th").Length())
	assert.Equal(t, 4, dom.Find("tbody td").Length())
	assert.Equal(t, "left", dom.Find("thead th").First().AttrOr("align", ""))
	assert.Equal(t, "right", dom.Find("tbody td").Eq(1).AttrOr("align", ""))
	assert.Equal(t, "4", dom.Find("tbody tr").Last().Find("td").Last().Text())
}

func TestRender_Admonitions(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		classes string
		title   string
		icon    string
		body    string
	}{
		{
			name:    "fenced with default title",
			input:   ":::warning\nCareful.\n:::",
			classes: "marco-admonition marco-admonition-warning",
			title:   "Warning",
			body:    "Careful.",
		},
		{
			name:    "fenced with title",
			input:   ":::tip[Pro tip]\nUse it.\n:::",
			classes: "marco-admonition marco-admonition-tip",
			title:   "Pro tip",
			body:    "Use it.",
		},
		{
			name:    "alert",
			input:   "> [!NOTE]\n> Read this.",
			classes: "marco-admonition marco-admonition-note",
			title:   "Note",
			body:    "Read this.",
		},
		{
			name:    "custom quote header",
			input:   "> [:joy: Happy]\n> Fun.",
			classes: "marco-admonition marco-admonition-custom marco-admonition-quote",
			title:   "Happy",
			icon:    "😂",
			body:    "Fun.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dom := htmlDoc(t, ParseAndRender(tt.input, RenderOptions{}))

			box := dom.Find("div.marco-admonition")
			require.Equal(t, 1, box.Length())
			assert.Equal(t, tt.classes, box.AttrOr("class", ""))
			assert.Equal(t, tt.icon, box.Find(".marco-admonition-icon").Text())
			title := box.Find(".marco-admonition-title")
			title.Find(".marco-admonition-icon").Remove()
			assert.Equal(t, tt.title, strings.TrimSpace(title.Text()))
			assert.Equal(t, tt.body, strings.TrimSpace(box.Find(".marco-admonition-content").Text()))
		})
	}
}

func TestRender_Tabs(t *testing.T) {
	html := ParseAndRender(":::tab Languages\n@tab Go\n`go run`\n@tab Rust\n`cargo run`\n:::", RenderOptions{})
	dom := htmlDoc(t, html)

	group := dom.Find("div.marco-tabs")
	require.Equal(t, 1, group.Length())
	assert.Equal(t, "marco-tabs-1", group.AttrOr("id", ""))
	assert.Equal(t, "Languages", group.AttrOr("aria-label", ""))

	radios := group.Find("input.marco-tabs__radio")
	require.Equal(t, 2, radios.Length())
	assert.Equal(t, "marco-tabs-1-1", radios.First().AttrOr("id", ""))
	_, checked := radios.First().Attr("checked")
	assert.True(t, checked)

	labels := group.Find("label.marco-tabs__tab")
	require.Equal(t, 2, labels.Length())
	assert.Equal(t, "Go", labels.First().Text())
	assert.Equal(t, "marco-tabs-1-2", labels.Last().AttrOr("for", ""))

	panels := group.Find(".marco-tabs__panels > .marco-tabs__panel")
	require.Equal(t, 2, panels.Length())
	assert.Equal(t, "cargo run", panels.Last().Find("code").Text())
}

func TestRender_Slides(t *testing.T) {
	html := ParseAndRender("@slidestart:t3\none\n---\ntwo\n--\nthree\n@slideend", RenderOptions{})
	dom := htmlDoc(t, html)

	deck := dom.Find("div.marco-sliders")
	require.Equal(t, 1, deck.Length())
	assert.Equal(t, "3", deck.AttrOr("data-timer", ""))

	slides := deck.Find(".marco-sliders__viewport > .marco-sliders__slide")
	require.Equal(t, 3, slides.Length())
	assert.False(t, slides.Eq(1).HasClass("marco-sliders__slide--vertical"))
	assert.True(t, slides.Eq(2).HasClass("marco-sliders__slide--vertical"))
	assert.Equal(t, "3", slides.Eq(2).AttrOr("data-index", ""))

	dots := deck.Find(".marco-sliders__dots label.marco-sliders__dot")
	require.Equal(t, 3, dots.Length())
	assert.Equal(t, "Slide 2", dots.Eq(1).AttrOr("aria-label", ""))
}

func TestRender_Footnotes(t *testing.T) {
	html := ParseAndRender("Text[^a] and ^[inline *note*].\n\n[^a]: Named.", RenderOptions{})
	dom := htmlDoc(t, html)

	refs := dom.Find("sup.footnote-ref a")
	require.Equal(t, 2, refs.Length())
	assert.Equal(t, "#fn-1", refs.First().AttrOr("href", ""))
	assert.Equal(t, "fnref-2", refs.Last().AttrOr("id", ""))

	items := dom.Find("section.footnotes ol > li")
	require.Equal(t, 2, items.Length())
	assert.Equal(t, "fn-1", items.First().AttrOr("id", ""))
	assert.Equal(t, "#fnref-1", items.First().Find("a.footnote-backref").AttrOr("href", ""))
	assert.Equal(t, "note", items.Last().Find("em").Text())
}

func TestRender_Sanitize(t *testing.T) {
	input := "<div onclick=\"x()\">hi</div>\n\n<script>alert(1)</script>\n\n[bad](javascript:alert(1))"

	raw := ParseAndRender(input, RenderOptions{})
	assert.Contains(t, raw, "onclick")
	assert.Contains(t, raw, "<script>")
	assert.Contains(t, raw, `href="javascript:alert(1)"`)

	clean := ParseAndRender(input, RenderOptions{Sanitize: true})
	assert.NotContains(t, clean, "onclick")
	assert.NotContains(t, clean, "<script>")
	assert.Contains(t, clean, `<a href="">bad</a>`)
}

func TestRender_SanitizeKeepsWidgets(t *testing.T) {
	html := ParseAndRender(":::tab\n@tab A\na\n:::", RenderOptions{Sanitize: true})
	assert.Contains(t, html, `<input type="radio" class="marco-tabs__radio"`)
}

func TestRender_Highlight(t *testing.T) {
	input := "```go\nfunc main() {}\n```"

	html := ParseAndRender(input, RenderOptions{})
	dom := htmlDoc(t, html)
	assert.Equal(t, 1, dom.Find("pre.chroma code.language-go").Length())
	assert.Greater(t, dom.Find("pre.chroma span").Length(), 0)
	assert.Equal(t, "func main() {}\n", dom.Find("pre code").Text())

	plain := ParseAndRender(input, RenderOptions{NoHighlight: true})
	assert.Equal(t, "<pre><code class=\"language-go\">func main() {}\n</code></pre>\n", plain)
}

func TestHighlightCSS(t *testing.T) {
	css, err := HighlightCSS("")
	require.NoError(t, err)
	assert.Contains(t, css, ".chroma")

	css, err = HighlightCSS("monokai")
	require.NoError(t, err)
	assert.NotEmpty(t, css)

	_, err = HighlightCSS("no-such-style")
	assert.Error(t, err)
}

func TestRender_Deterministic(t *testing.T) {
	input := ":::tab\n@tab A\na\n:::\n\n:::tab\n@tab B\nb\n:::"
	first := ParseAndRender(input, RenderOptions{})
	assert.Equal(t, first, ParseAndRender(input, RenderOptions{}))
	assert.Contains(t, first, `id="marco-tabs-2"`)

	unique := ParseAndRender(input, RenderOptions{UniqueIDs: true})
	assert.NotContains(t, unique, `id="marco-tabs-1"`)
}
