package md

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// marcoOpener is a recognized `:::tab`, `:::kind[title]` or `@slidestart`
// line.
type marcoOpener struct {
	kind  Kind
	name  string
	title string
	timer int
}

// parseMarcoOpener recognizes a Marco container opener in t, which must be
// stripped of leading indentation.
func parseMarcoOpener(t string) (marcoOpener, bool) {
	t = strings.TrimRight(t, " \t")
	if rest, ok := strings.CutPrefix(t, "@slidestart"); ok {
		timer, ok := parseSlideTimer(rest)
		if !ok {
			return marcoOpener{}, false
		}
		return marcoOpener{kind: KindSlideDeck, timer: timer}, true
	}
	rest, ok := strings.CutPrefix(t, ":::")
	if !ok {
		return marcoOpener{}, false
	}
	rest = strings.TrimLeft(rest, " \t")
	k := 0
	for k < len(rest) && (isLetterDigit(rest[k]) || rest[k] == '-' || rest[k] == '_') {
		k++
	}
	if k == 0 || !isLetter(rest[0]) {
		return marcoOpener{}, false
	}
	name, after := rest[:k], rest[k:]
	if name == "tab" {
		if after != "" && after[0] != ' ' && after[0] != '\t' {
			return marcoOpener{}, false
		}
		return marcoOpener{kind: KindTabGroup, name: name, title: strings.TrimSpace(after)}, true
	}
	o := marcoOpener{kind: KindAdmonition, name: name}
	switch {
	case after == "":
	case after[0] == '[':
		end := strings.LastIndexByte(after, ']')
		if end != len(after)-1 {
			return marcoOpener{}, false
		}
		o.title = strings.TrimSpace(after[1:end])
	case after[0] == ' ' || after[0] == '\t':
		o.title = strings.TrimSpace(after)
	default:
		return marcoOpener{}, false
	}
	return o, true
}

// parseSlideTimer parses the optional `:tN` suffix of `@slidestart`. N must
// be a positive number of seconds and nothing else may follow.
func parseSlideTimer(rest string) (int, bool) {
	if strings.TrimSpace(rest) == "" {
		return 0, true
	}
	if rest[0] != ':' {
		return 0, false
	}
	digits, ok := strings.CutPrefix(rest[1:], "t")
	if !ok || digits == "" {
		return 0, false
	}
	for i := 0; i < len(digits); i++ {
		if !isDigit(digits[i]) {
			return 0, false
		}
	}
	secs, err := strconv.Atoi(digits)
	if err != nil || secs <= 0 {
		return 0, false
	}
	return secs, true
}

func isMarcoOpener(t string) bool {
	_, ok := parseMarcoOpener(t)
	return ok
}

// markerScan tracks fences and nested Marco containers across a run of lines
// so that separators and closers are only honoured at the top level.
type markerScan struct {
	fences openFenceTracker
	colons int
	slides int
}

// step consumes l. It returns the trimmed marker text and whether the line
// sits at the top level, outside fences and nested containers.
func (m *markerScan) step(l line) (string, bool) {
	if m.fences.observe(l) {
		return "", false
	}
	top := m.colons == 0 && m.slides == 0
	cols, n := l.indent()
	if cols >= 4 {
		return "", top
	}
	t := strings.TrimRight(l.text[n:], " \t")
	switch {
	case t == ":::":
		if m.colons > 0 {
			m.colons--
			return t, false
		}
	case t == "@slideend":
		if m.slides > 0 {
			m.slides--
			return t, false
		}
	default:
		if o, ok := parseMarcoOpener(t); ok {
			if o.kind == KindSlideDeck {
				m.slides++
			} else {
				m.colons++
			}
			return t, false
		}
	}
	return t, top
}

// collectBody gathers the lines after the opener at s.i up to the matching
// closer. It returns the index of the closing line, or len(s.lines) when the
// block is unterminated.
func (s *blockScanner) collectBody(closer string) (body []line, closeIdx int, closed bool) {
	var ms markerScan
	for j := s.i + 1; j < len(s.lines); j++ {
		l := s.lines[j]
		if t, top := ms.step(l); top && t == closer {
			return body, j, true
		}
		body = append(body, l)
	}
	return body, len(s.lines), false
}

func (s *blockScanner) marcoBlock(l line) bool {
	_, n := l.indent()
	t := l.text[n:]
	o, ok := parseMarcoOpener(t)
	if !ok {
		if strings.HasPrefix(t, "!!! ") {
			s.p.diags.add(SeverityInfo, CategoryUnsupported, Span{l.start, l.end()},
				"\"!!!\" admonitions are not supported; use :::kind instead")
		}
		if strings.HasPrefix(t, "@slidestart") {
			s.p.diags.warn(CategoryStructural, Span{l.start, l.end()},
				"malformed @slidestart marker; expected @slidestart or @slidestart:tN with N > 0")
		}
		return false
	}
	closer := ":::"
	family := "tab block"
	switch o.kind {
	case KindSlideDeck:
		closer = "@slideend"
		family = "slide deck"
	case KindAdmonition:
		family = "admonition block"
	}

	body, closeIdx, closed := s.collectBody(closer)
	span := Span{l.start, l.end()}
	if len(body) > 0 {
		span.End = body[len(body)-1].end()
	}
	if closed {
		span.End = s.lines[closeIdx].end()
	}

	if (o.kind == KindTabGroup && s.ctx.inTab) || (o.kind == KindSlideDeck && s.ctx.inSlides) {
		last := closeIdx
		if !closed {
			last = len(s.lines) - 1
		}
		s.p.diags.warn(CategoryStructural, span, fmt.Sprintf("nested %s is not supported; rendered as text", family))
		s.emit(s.literalParagraph(s.lines[s.i : last+1]))
		s.i = last + 1
		return true
	}

	if !closed {
		eof := span.End
		if count := len(s.lines); count > 0 {
			eof = s.lines[count-1].end()
		}
		s.p.diags.warn(CategoryStructural, Span{eof, eof}, "unterminated "+family)
	}

	var b *RawBlock
	switch o.kind {
	case KindTabGroup:
		b = s.tabGroup(body, span)
		b.Title = o.title
	case KindSlideDeck:
		b = s.slideDeck(body, span, o.timer)
	default:
		b = s.admonition(body, span, o)
	}
	s.emit(b)
	s.i = closeIdx + 1
	return true
}

// tabHeader matches `@tab Title`.
func tabHeader(t string) (string, bool) {
	rest, ok := strings.CutPrefix(t, "@tab")
	if !ok || rest == "" || (rest[0] != ' ' && rest[0] != '\t') {
		return "", false
	}
	title := strings.TrimSpace(rest)
	return title, title != ""
}

func (s *blockScanner) tabGroup(body []line, span Span) *RawBlock {
	group := &RawBlock{Kind: KindTabGroup, Span: span}
	ctx := s.ctx.child()
	ctx.inTab = true

	type pending struct {
		title  string
		start  int
		lines  []line
		header bool
	}
	var cur *pending
	flush := func() {
		if cur == nil {
			return
		}
		if !cur.header && isBlankLines(cur.lines) {
			cur = nil
			return
		}
		end := cur.start
		if len(cur.lines) > 0 {
			end = cur.lines[len(cur.lines)-1].end()
		}
		itemSpan := Span{cur.start, end}
		if !cur.header {
			s.p.diags.warn(CategoryStructural, itemSpan, "content before the first @tab header")
		}
		children, _ := s.nested(cur.lines, itemSpan, ctx)
		group.Children = append(group.Children, &RawBlock{
			Kind:     KindTabItem,
			Span:     itemSpan,
			Title:    cur.title,
			Children: children,
		})
		cur = nil
	}

	var ms markerScan
	for _, l := range body {
		t, top := ms.step(l)
		if top {
			if title, ok := tabHeader(t); ok {
				flush()
				cur = &pending{title: title, start: l.start, header: true}
				continue
			}
		}
		if cur == nil {
			cur = &pending{start: l.start}
		}
		cur.lines = append(cur.lines, l)
	}
	flush()
	if len(group.Children) == 0 {
		s.p.diags.warn(CategoryStructural, span, "tab block has no @tab headers")
	}
	return group
}

func (s *blockScanner) slideDeck(body []line, span Span, timer int) *RawBlock {
	deck := &RawBlock{Kind: KindSlideDeck, Span: span, Timer: timer}
	ctx := s.ctx.child()
	ctx.inSlides = true

	var cur []line
	start := span.Start
	vertical := false
	flush := func(end int) {
		slideSpan := Span{start, end}
		children, _ := s.nested(cur, slideSpan, ctx)
		deck.Children = append(deck.Children, &RawBlock{
			Kind:     KindSlide,
			Span:     slideSpan,
			Vertical: vertical,
			Children: children,
		})
		cur = nil
	}

	var ms markerScan
	for _, l := range body {
		t, top := ms.step(l)
		if top && (t == "---" || t == "--") {
			flush(l.start)
			start = l.start
			vertical = t == "--"
			continue
		}
		if cur == nil {
			start = l.start
		}
		cur = append(cur, l)
	}
	end := span.End
	if len(cur) > 0 {
		end = cur[len(cur)-1].end()
	}
	flush(end)
	return deck
}

func (s *blockScanner) admonition(body []line, span Span, o marcoOpener) *RawBlock {
	kind, known := LookupAdmonitionKind(o.name)
	attrs := &AdmonitionAttrs{Kind: kind, Title: o.title, Style: StyleFenced}
	if !known && attrs.Title == "" {
		attrs.Title = o.name
	}
	children, _ := s.nested(body, span, s.ctx.child())
	return &RawBlock{Kind: KindAdmonition, Span: span, Admonition: attrs, Children: children}
}

func isBlankLines(lines []line) bool {
	for _, l := range lines {
		if !l.isBlank() {
			return false
		}
	}
	return true
}

// frontMatter recognizes a YAML block delimited by `---` at the very start of
// the document.
func (s *blockScanner) frontMatter() {
	if len(s.lines) < 3 || s.lines[0].start != 0 || strings.TrimRight(s.lines[0].text, " \t") != "---" {
		return
	}
	if isThematicBreak(s.lines[1].text) {
		return
	}
	for j := 2; j < len(s.lines); j++ {
		t := strings.TrimRight(s.lines[j].text, " \t")
		if t != "---" && t != "..." {
			continue
		}
		body := make([]string, 0, j-1)
		for _, l := range s.lines[1:j] {
			body = append(body, l.text)
		}
		literal := strings.Join(body, "\n")
		span := Span{0, s.lines[j].end()}
		var v any
		if err := yaml.Unmarshal([]byte(literal), &v); err != nil {
			s.p.diags.warn(CategoryStructural, span, fmt.Sprintf("invalid front matter: %v", err))
		}
		s.emit(&RawBlock{Kind: KindFrontMatter, Span: span, Literal: literal})
		s.i = j + 1
		return
	}
}
