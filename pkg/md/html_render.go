// html_render.go renders an event stream to HTML. The renderer keeps a small
// frame stack for the context HTML needs (tight lists, table sections, image
// alt text, widget IDs) and never looks back at the Document.
package md

import (
	"fmt"
	"iter"
	"strconv"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/microcosm-cc/bluemonday"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultHighlightStyle is the chroma style used by HighlightCSS when none is
// configured.
const DefaultHighlightStyle = "github"

// RenderOptions configures HTML output.
type RenderOptions struct {
	// NoHighlight renders every code block as plain <pre><code>.
	NoHighlight bool
	// HighlightStyle names the chroma style. Highlighted code uses CSS
	// classes, so the style only matters to HighlightCSS.
	HighlightStyle string
	// Sanitize passes raw HTML through a UGC policy and drops script URLs.
	Sanitize bool
	// UniqueIDs derives widget IDs from random UUIDs. Output is then no
	// longer byte-identical between runs.
	UniqueIDs bool
	// HeadingIDs writes generated heading slugs as id attributes. Explicit
	// {#id} anchors are always written.
	HeadingIDs bool
	// Filters run over the event stream before rendering.
	Filters []Filter
}

// Render renders doc to HTML.
func Render(doc *Document, opts RenderOptions) string {
	return RenderEvents(Pipe(Emit(doc, EmitOptions{UniqueIDs: opts.UniqueIDs}), opts.Filters...), opts)
}

// RenderEvents renders an event stream to HTML. opts.Filters is ignored;
// filter the stream with Pipe first.
func RenderEvents(seq iter.Seq[Event], opts RenderOptions) string {
	w := &htmlWriter{opts: opts}
	for ev := range seq {
		w.event(ev)
	}
	return w.sb.String()
}

// HighlightCSS returns the stylesheet for the chroma classes used in
// highlighted code blocks.
func HighlightCSS(style string) (string, error) {
	if style == "" {
		style = DefaultHighlightStyle
	}
	s := styles.Get(style)
	if s == styles.Fallback && !strings.EqualFold(style, styles.Fallback.Name) {
		return "", fmt.Errorf("unknown highlight style %q", style)
	}
	var sb strings.Builder
	if err := codeFormatter.WriteCSS(&sb, s); err != nil {
		return "", fmt.Errorf("failed to write highlight css: %w", err)
	}
	return sb.String(), nil
}

var codeFormatter = chromahtml.New(chromahtml.WithClasses(true), chromahtml.PreventSurroundingPre(true))

var sanitizer = sync.OnceValue(bluemonday.UGCPolicy)

type frame struct {
	kind      Kind
	group     GroupType
	tight     bool
	children  int
	lastTight bool
	inBody    bool
	link      bool
	inline    bool
	header    bool
	ordered   bool
	level     int
	lang      string
	tag       string
	id        string
	count     int
}

type htmlWriter struct {
	sb    strings.Builder
	opts  RenderOptions
	stack []frame

	alt      int
	altTitle string
}

func (w *htmlWriter) top() *frame {
	if len(w.stack) == 0 {
		return nil
	}
	return &w.stack[len(w.stack)-1]
}

func (w *htmlWriter) push(f frame) {
	w.stack = append(w.stack, f)
}

func (w *htmlWriter) pop() frame {
	if len(w.stack) == 0 {
		return frame{}
	}
	f := w.stack[len(w.stack)-1]
	w.stack = w.stack[:len(w.stack)-1]
	return f
}

func (w *htmlWriter) write(s ...string) {
	for _, part := range s {
		w.sb.WriteString(part)
	}
}

func (w *htmlWriter) text(s string) {
	w.sb.Write(util.EscapeHTML([]byte(s)))
}

func escapeAttr(s string) string {
	return string(util.EscapeHTML([]byte(s)))
}

func (w *htmlWriter) url(dest string) string {
	if w.opts.Sanitize && gmhtml.IsDangerousURL([]byte(dest)) {
		return ""
	}
	return escapeAttr(string(util.URLEscape([]byte(dest), false)))
}

func (w *htmlWriter) event(ev Event) {
	if w.alt > 0 {
		w.altEvent(ev)
		return
	}
	switch ev.Kind {
	case EventStart:
		w.start(ev)
	case EventEnd:
		w.end(ev)
	case EventText:
		w.text(ev.Text)
	case EventCode:
		w.code(ev)
	case EventHTML:
		w.html(ev)
	case EventGroupStart:
		w.groupStart(ev)
	case EventGroupEnd:
		w.groupEnd(ev)
	}
}

// altEvent collects the plain text of an image description.
func (w *htmlWriter) altEvent(ev Event) {
	switch ev.Kind {
	case EventStart:
		switch ev.Tag {
		case KindImage:
			w.alt++
		case KindSoftBreak, KindHardBreak:
			w.write(" ")
		}
	case EventEnd:
		if ev.Tag != KindImage {
			return
		}
		w.alt--
		if w.alt == 0 {
			w.write(`"`)
			if w.altTitle != "" {
				w.write(` title="`, escapeAttr(w.altTitle), `"`)
			}
			w.write(" />")
		}
	case EventText, EventCode:
		w.text(ev.Text)
	}
}

// enterBlock separates a block from its predecessor inside list items and
// definition descriptions, whose tight paragraphs carry no newline.
func (w *htmlWriter) enterBlock(kind Kind) bool {
	f := w.top()
	if f == nil || (f.kind != KindListItem && f.kind != KindDefinitionDescription) {
		return false
	}
	tightPara := kind == KindParagraph && f.tight
	if f.children == 0 {
		if !tightPara {
			w.write("\n")
		}
	} else if f.lastTight {
		w.write("\n")
	}
	f.children++
	f.lastTight = tightPara
	return tightPara
}

func (w *htmlWriter) start(ev Event) {
	if ev.Tag.IsBlock() {
		tight := w.enterBlock(ev.Tag)
		w.blockStart(ev, tight)
		return
	}
	w.inlineStart(ev)
}

func (w *htmlWriter) blockStart(ev Event, tight bool) {
	a := ev.Attrs
	f := frame{kind: ev.Tag}
	switch ev.Tag {
	case KindHeading:
		f.level = max(1, min(6, a.Int(AttrLevel)))
		w.write("<h", strconv.Itoa(f.level))
		if id := a.Get(AttrID); id != "" && (!a.Bool(AttrAutoID) || w.opts.HeadingIDs) {
			w.write(` id="`, escapeAttr(id), `"`)
		}
		w.write(">")
	case KindParagraph:
		f.tight = tight
		if !tight {
			w.write("<p>")
		}
	case KindList:
		f.tight = a.Bool(AttrTight)
		if f.ordered = a.Bool(AttrOrdered); f.ordered {
			if start := a.Int(AttrStart); start != 1 {
				w.write(`<ol start="`, strconv.Itoa(start), `">`, "\n")
			} else {
				w.write("<ol>\n")
			}
		} else {
			w.write("<ul>\n")
		}
	case KindListItem:
		if parent := w.top(); parent != nil && parent.kind == KindList {
			f.tight = parent.tight
		}
		w.write("<li>")
	case KindBlockQuote:
		w.write("<blockquote>\n")
	case KindAdmonition:
		w.admonitionStart(a)
	case KindCodeBlock:
		f.lang = a.Get(AttrLang)
	case KindTable:
		w.write("<table>\n")
	case KindTableRow:
		f.header = a.Bool(AttrHeader)
		if t := w.top(); t != nil && t.kind == KindTable {
			if f.header {
				w.write("<thead>\n")
			} else if !t.inBody {
				t.inBody = true
				w.write("<tbody>\n")
			}
		}
		w.write("<tr>\n")
	case KindTableCell:
		f.tag = "td"
		if a.Bool(AttrHeader) {
			f.tag = "th"
		}
		w.write("<", f.tag)
		if align := a.Get(AttrAlign); align != "" {
			w.write(` align="`, align, `"`)
		}
		w.write(">")
	case KindThematicBreak:
		w.write("<hr />\n")
	case KindDefinitionList:
		w.write("<dl>\n")
	case KindDefinitionTerm:
		w.write("<dt>")
	case KindDefinitionDescription:
		f.tight = true
		w.write("<dd>")
	case KindTabItem:
		w.write(`<div class="marco-tabs__panel" role="tabpanel" data-index="`, strconv.Itoa(a.Int(AttrIndex)), `">`, "\n")
	case KindSlide:
		w.write(`<div class="marco-sliders__slide`)
		if a.Bool(AttrVertical) {
			w.write(` marco-sliders__slide--vertical`)
		}
		w.write(`" data-index="`, strconv.Itoa(a.Int(AttrIndex)), `">`, "\n")
	case KindFootnoteDef:
		f.inline = a.Bool(AttrInline)
		f.id = a.Get(AttrRefID)
		w.write(`<li id="`, escapeAttr(a.Get(AttrID)), `">`, "\n")
		if f.inline {
			w.write("<p>")
		}
	}
	w.push(f)
}

func (w *htmlWriter) admonitionStart(a Attributes) {
	kind := a.Get(AttrKind)
	style := a.Get(AttrStyle)
	w.write(`<div class="marco-admonition marco-admonition-`, escapeAttr(kind))
	if style == StyleQuote.String() {
		w.write(" marco-admonition-quote")
	}
	w.write(`">`, "\n", `<p class="marco-admonition-title">`)
	if icon := a.Get(AttrIcon); icon != "" {
		w.write(`<span class="marco-admonition-icon">`)
		w.text(icon)
		w.write("</span> ")
	}
	title := a.Get(AttrTitle)
	if title == "" {
		title = cases.Title(language.Und).String(kind)
	}
	w.text(title)
	w.write("</p>\n", `<div class="marco-admonition-content">`, "\n")
}

func (w *htmlWriter) inlineStart(ev Event) {
	a := ev.Attrs
	f := frame{kind: ev.Tag}
	switch ev.Tag {
	case KindEmphasis:
		w.write("<em>")
	case KindStrong:
		w.write("<strong>")
	case KindStrikethrough:
		w.write("<del>")
	case KindCodeSpan:
		w.write("<code>")
	case KindLink:
		w.write(`<a href="`, w.url(a.Get(AttrDest)), `"`)
		if title := a.Get(AttrTitle); title != "" {
			w.write(` title="`, escapeAttr(title), `"`)
		}
		w.write(">")
	case KindAutolink:
		w.write(`<a href="`, w.url(a.Get(AttrDest)), `">`)
	case KindImage:
		w.alt = 1
		w.altTitle = a.Get(AttrTitle)
		w.write(`<img src="`, w.url(a.Get(AttrDest)), `" alt="`)
		return
	case KindMath:
		if a.Bool(AttrDisplay) {
			w.write(`<span class="math math-display">`)
		} else {
			w.write(`<span class="math math-inline">`)
		}
	case KindMention:
		w.mention(a, &f)
	case KindEmoji:
		w.write(`<span class="emoji" role="img" aria-label="`, escapeAttr(a.Get(AttrName)), `">`)
	case KindTaskMarker:
		w.write(`<input `)
		if a.Bool(AttrChecked) {
			w.write(`checked="" `)
		}
		w.write(`disabled="" type="checkbox"> `)
	case KindFootnoteRef, KindInlineFootnote:
		num := a.Get(AttrNumber)
		w.write(`<sup class="footnote-ref"><a href="#`, escapeAttr(a.Get(AttrID)), `" id="`,
			escapeAttr(a.Get(AttrRefID)), `">`, num, "</a></sup>")
	case KindHardBreak:
		w.write("<br />\n")
	case KindSoftBreak:
		w.write("\n")
	}
	w.push(f)
}

func (w *htmlWriter) mention(a Attributes, f *frame) {
	label := a.Get(AttrDisplay)
	if label == "" {
		label = "@" + a.Get(AttrUser)
	}
	platform := escapeAttr(a.Get(AttrPlatform))
	if u := a.Get(AttrURL); u != "" {
		f.link = true
		w.write(`<a class="marco-mention" href="`, w.url(u), `" data-platform="`, platform, `">`)
	} else {
		w.write(`<span class="marco-mention" data-platform="`, platform, `">`)
	}
	w.text(label)
}

func (w *htmlWriter) end(ev Event) {
	f := w.pop()
	switch ev.Tag {
	case KindHeading:
		w.write("</h", strconv.Itoa(f.level), ">\n")
	case KindParagraph:
		if !f.tight {
			w.write("</p>\n")
		}
	case KindList:
		if f.ordered {
			w.write("</ol>\n")
		} else {
			w.write("</ul>\n")
		}
	case KindListItem:
		w.write("</li>\n")
	case KindBlockQuote:
		w.write("</blockquote>\n")
	case KindAdmonition:
		w.write("</div>\n</div>\n")
	case KindTable:
		if f.inBody {
			w.write("</tbody>\n")
		}
		w.write("</table>\n")
	case KindTableRow:
		w.write("</tr>\n")
		if f.header {
			w.write("</thead>\n")
		}
	case KindTableCell:
		w.write("</", f.tag, ">\n")
	case KindDefinitionList:
		w.write("</dl>\n")
	case KindDefinitionTerm:
		w.write("</dt>\n")
	case KindDefinitionDescription:
		w.write("</dd>\n")
	case KindTabItem, KindSlide:
		w.write("</div>\n")
	case KindFootnoteDef:
		if f.inline {
			w.write("</p>\n")
		}
		w.write(`<a href="#`, escapeAttr(f.id), `" class="footnote-backref">&#x21a9;&#xfe0e;</a>`, "\n</li>\n")
	case KindEmphasis:
		w.write("</em>")
	case KindStrong:
		w.write("</strong>")
	case KindStrikethrough:
		w.write("</del>")
	case KindCodeSpan:
		w.write("</code>")
	case KindLink, KindAutolink:
		w.write("</a>")
	case KindMath, KindEmoji:
		w.write("</span>")
	case KindMention:
		if f.link {
			w.write("</a>")
		} else {
			w.write("</span>")
		}
	}
}

func (w *htmlWriter) code(ev Event) {
	f := w.top()
	if f == nil {
		w.text(ev.Text)
		return
	}
	switch f.kind {
	case KindCodeBlock:
		w.codeBlock(f.lang, ev.Text)
	case KindFrontMatter:
	default:
		w.text(ev.Text)
	}
}

func (w *htmlWriter) codeBlock(lang, code string) {
	if code != "" && !strings.HasSuffix(code, "\n") {
		code += "\n"
	}
	if lang != "" && !w.opts.NoHighlight {
		if out, ok := highlight(lang, code); ok {
			w.write(`<pre class="chroma"><code class="language-`, escapeAttr(lang), `">`, out, "</code></pre>\n")
			return
		}
	}
	w.write("<pre><code")
	if lang != "" {
		w.write(` class="language-`, escapeAttr(lang), `"`)
	}
	w.write(">")
	w.text(code)
	w.write("</code></pre>\n")
}

// highlight runs code through the chroma lexer registered for lang. It
// reports false when no lexer knows the language.
func highlight(lang, code string) (string, bool) {
	lexer := lexers.Get(lang)
	if lexer == nil {
		return "", false
	}
	lexer = chroma.Coalesce(lexer)
	it, err := lexer.Tokenise(nil, code)
	if err != nil {
		return "", false
	}
	var sb strings.Builder
	if err := codeFormatter.Format(&sb, styles.Fallback, it); err != nil {
		return "", false
	}
	return sb.String(), true
}

func (w *htmlWriter) html(ev Event) {
	s := ev.Text
	if w.opts.Sanitize {
		s = sanitizer().Sanitize(s)
	}
	if ev.Tag == KindHTMLBlock {
		w.enterBlock(KindHTMLBlock)
		w.write(s)
		if !strings.HasSuffix(s, "\n") {
			w.write("\n")
		}
		return
	}
	w.write(s)
}

func (w *htmlWriter) groupStart(ev Event) {
	a := ev.Attrs
	if ev.Group != GroupFootnotes {
		w.enterBlock(KindTabGroup)
	}
	f := frame{group: ev.Group, id: a.Get(AttrID), count: a.Int(AttrCount)}
	switch ev.Group {
	case GroupTabs:
		id := escapeAttr(f.id)
		w.write(`<div class="marco-tabs" id="`, id, `"`)
		if title := a.Get(AttrTitle); title != "" {
			w.write(` aria-label="`, escapeAttr(title), `"`)
		}
		w.write(">\n")
		w.radios("marco-tabs__radio", id, f.count)
		w.write(`<div class="marco-tabs__tablist" role="tablist">`, "\n")
		for k, title := range a.All(AttrTab) {
			if title == "" {
				title = "Tab " + strconv.Itoa(k+1)
			}
			w.write(`<label class="marco-tabs__tab" for="`, id, "-", strconv.Itoa(k+1), `">`)
			w.text(title)
			w.write("</label>\n")
		}
		w.write("</div>\n", `<div class="marco-tabs__panels">`, "\n")
	case GroupSlides:
		id := escapeAttr(f.id)
		w.write(`<div class="marco-sliders" id="`, id, `"`)
		if timer := a.Get(AttrTimer); timer != "" {
			w.write(` data-timer="`, escapeAttr(timer), `"`)
		}
		w.write(">\n")
		w.radios("marco-sliders__radio", id, f.count)
		w.write(`<div class="marco-sliders__viewport">`, "\n")
	case GroupFootnotes:
		w.write(`<section class="footnotes" role="doc-endnotes">`, "\n<hr />\n<ol>\n")
	}
	w.push(f)
}

func (w *htmlWriter) radios(class, id string, count int) {
	for k := 1; k <= count; k++ {
		n := strconv.Itoa(k)
		w.write(`<input type="radio" class="`, class, `" name="`, id, `" id="`, id, "-", n, `"`)
		if k == 1 {
			w.write(` checked=""`)
		}
		w.write(">\n")
	}
}

func (w *htmlWriter) groupEnd(ev Event) {
	f := w.pop()
	switch ev.Group {
	case GroupTabs:
		w.write("</div>\n</div>\n")
	case GroupSlides:
		w.write("</div>\n", `<div class="marco-sliders__dots">`, "\n")
		id := escapeAttr(f.id)
		for k := 1; k <= f.count; k++ {
			n := strconv.Itoa(k)
			w.write(`<label class="marco-sliders__dot" for="`, id, "-", n, `" aria-label="Slide `, n, `"></label>`, "\n")
		}
		w.write("</div>\n</div>\n")
	case GroupFootnotes:
		w.write("</ol>\n</section>\n")
	}
}
