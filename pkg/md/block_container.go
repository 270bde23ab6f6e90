package md

import (
	"fmt"
	"strconv"
)

// nested parses the lines of a container body one level deeper. Past the
// nesting limit the body is kept as literal paragraph text.
func (s *blockScanner) nested(inner []line, span Span, ctx blockContext) ([]*RawBlock, bool) {
	if ctx.depth > s.p.maxDepth {
		s.p.diags.warn(CategoryLimitExceeded, span,
			fmt.Sprintf("nesting depth limit of %d exceeded; content rendered as text", s.p.maxDepth))
		if b := s.literalParagraph(inner); b != nil {
			return []*RawBlock{b}, false
		}
		return nil, false
	}
	return s.p.parse(inner, ctx)
}

// lazyAllowed reports whether a paragraph continuation line may follow prev
// without repeating the container prefix.
func lazyAllowed(prev line) bool {
	cols, n := prev.indent()
	if cols >= 4 {
		return false
	}
	t := prev.text[n:]
	if t == "" || isThematicBreak(t) {
		return false
	}
	if _, ok := parseATXHeading(prev); ok {
		return false
	}
	return htmlBlockStart(t) == htmlNone
}

// stripQuoteMarker removes a `>` prefix and one optional following space.
func stripQuoteMarker(l line) (line, bool) {
	cols, n := l.indent()
	if cols > 3 || n >= len(l.text) || l.text[n] != '>' {
		return l, false
	}
	rest := l.advance(n + 1)
	if rest.text != "" && (rest.text[0] == ' ' || rest.text[0] == '\t') {
		rest = rest.stripCols(1)
	}
	return rest, true
}

func (s *blockScanner) blockQuote() {
	first := s.lines[s.i]
	var inner []line
	var fences openFenceTracker
	lastBlank := false
	j := s.i
	for ; j < len(s.lines); j++ {
		l := s.lines[j]
		if rest, ok := stripQuoteMarker(l); ok {
			inner = append(inner, rest)
			fences.observe(rest)
			lastBlank = rest.isBlank()
			continue
		}
		if l.isBlank() || lastBlank || fences.open() || s.interruptsParagraph(l) {
			break
		}
		if !lazyAllowed(inner[len(inner)-1]) {
			break
		}
		inner = append(inner, l)
	}
	span := Span{first.start, s.lines[j-1].end()}
	children, _ := s.nested(inner, span, s.ctx.child())
	s.emit(&RawBlock{Kind: KindBlockQuote, Span: span, Children: children})
	s.i = j
}

// listMarker is a recognized bullet or ordered list marker.
type listMarker struct {
	ordered bool
	char    byte // bullet character or ordered delimiter
	start   int
	end     int // byte index in the line text just past the marker
}

func parseListMarker(l line) (listMarker, bool) {
	cols, n := l.indent()
	if cols > 3 {
		return listMarker{}, false
	}
	t := l.text[n:]
	if t == "" {
		return listMarker{}, false
	}
	var m listMarker
	switch t[0] {
	case '-', '+', '*':
		m.char = t[0]
		m.end = n + 1
	default:
		k := 0
		for k < len(t) && k < 10 && isDigit(t[k]) {
			k++
		}
		if k == 0 || k > 9 || k >= len(t) || (t[k] != '.' && t[k] != ')') {
			return listMarker{}, false
		}
		m.ordered = true
		m.char = t[k]
		m.start, _ = strconv.Atoi(t[:k])
		m.end = n + k + 1
	}
	if m.end < len(l.text) && l.text[m.end] != ' ' && l.text[m.end] != '\t' {
		return listMarker{}, false
	}
	return m, true
}

func isListLine(l line) bool {
	_, ok := parseListMarker(l)
	return ok
}

func (s *blockScanner) listStart(l line) bool {
	m, ok := parseListMarker(l)
	if !ok {
		return false
	}
	list := &RawBlock{
		Kind: KindList,
		List: &ListAttrs{Ordered: m.ordered, Start: m.start, Marker: m.char},
	}
	loose := false
	for {
		item, itemLoose, end, next := s.listItem(m)
		list.Children = append(list.Children, item)
		loose = loose || itemLoose
		if next < len(s.lines) {
			nl := s.lines[next]
			_, n := nl.indent()
			if m2, ok := parseListMarker(nl); ok && m2.ordered == m.ordered && m2.char == m.char && !isThematicBreak(nl.text[n:]) {
				if next > end {
					loose = true
				}
				s.i = next
				m = m2
				continue
			}
		}
		s.i = end
		break
	}
	list.List.Tight = !loose
	first, last := list.Children[0], list.Children[len(list.Children)-1]
	list.Span = Span{first.Span.Start, last.Span.End}
	s.emit(list)
	return true
}

// listItem collects one item starting at s.i. end is the index just past its
// last non-blank line; next skips any trailing blank lines.
func (s *blockScanner) listItem(m listMarker) (item *RawBlock, loose bool, end, next int) {
	first := s.lines[s.i]
	rest := first.advance(m.end)
	width := rest.col - first.col
	spaces, _ := rest.indent()
	blankStart := rest.isBlank()
	var content line
	switch {
	case blankStart:
		content = line{start: rest.end(), col: rest.col}
		width++
	case spaces >= 5:
		content = rest.stripCols(1)
		width++
	default:
		content = rest.stripCols(spaces)
		width += spaces
	}

	inner := []line{content}
	var fences openFenceTracker
	if !blankStart {
		fences.observe(content)
	}
	end = s.i + 1
	lastBlank := blankStart
	j := s.i + 1
	for ; j < len(s.lines); j++ {
		l := s.lines[j]
		if l.isBlank() {
			if blankStart && len(inner) == 1 {
				break
			}
			inner = append(inner, l.stripCols(width))
			lastBlank = true
			continue
		}
		if cols, _ := l.indent(); cols >= width {
			c := l.stripCols(width)
			inner = append(inner, c)
			fences.observe(c)
			lastBlank = false
			end = j + 1
			continue
		}
		if lastBlank || fences.open() || (blankStart && len(inner) == 1) {
			break
		}
		if isListLine(l) || s.interruptsParagraph(l) || !lazyAllowed(inner[len(inner)-1]) {
			break
		}
		inner = append(inner, l)
		end = j + 1
	}
	next = j
	inner = inner[:end-s.i]

	span := Span{first.start, s.lines[end-1].end()}
	children, gap := s.nested(inner, span, s.ctx.child())
	item = &RawBlock{Kind: KindListItem, Span: span, Children: children}
	return item, gap, end, next
}

// parseFootnoteLabel matches `[^label]:` at the start of t.
func parseFootnoteLabel(t string) (label string, end int, ok bool) {
	if len(t) < 4 || t[0] != '[' || t[1] != '^' {
		return "", 0, false
	}
	k := 2
	for k < len(t) && t[k] != ']' {
		switch t[k] {
		case ' ', '\t', '[', '\n':
			return "", 0, false
		case '\\':
			k++
		}
		k++
	}
	if k >= len(t) || k == 2 || k-2 > maxLabelLength {
		return "", 0, false
	}
	return t[2:k], k + 1, true
}

func (s *blockScanner) footnoteDefinition(l line) bool {
	_, n := l.indent()
	label, end, ok := parseFootnoteLabel(l.text[n:])
	if !ok || n+end >= len(l.text) || l.text[n+end] != ':' {
		return false
	}
	inner := []line{l.advance(n + end + 1).trimLeft()}
	stop := s.i + 1
	lastBlank := false
	j := s.i + 1
	for ; j < len(s.lines); j++ {
		cl := s.lines[j]
		if cl.isBlank() {
			inner = append(inner, cl.stripCols(4))
			lastBlank = true
			continue
		}
		if cols, _ := cl.indent(); cols >= 4 {
			inner = append(inner, cl.stripCols(4))
			lastBlank = false
			stop = j + 1
			continue
		}
		if lastBlank || s.interruptsParagraph(cl) || !lazyAllowed(inner[len(inner)-1]) {
			break
		}
		if _, _, ok := parseFootnoteLabel(cl.trimLeft().text); ok {
			break
		}
		inner = append(inner, cl)
		stop = j + 1
	}
	inner = inner[:stop-s.i]
	span := Span{l.start, s.lines[stop-1].end()}
	children, _ := s.nested(inner, span, s.ctx.child())
	s.emit(&RawBlock{Kind: KindFootnoteDef, Span: span, Label: label, Children: children})
	s.i = stop
	return true
}

// isDefinitionMarker reports whether t opens a definition description.
func isDefinitionMarker(t string) bool {
	return len(t) >= 2 && t[0] == ':' && (t[1] == ' ' || t[1] == '\t')
}

func definitionLine(l line) bool {
	cols, n := l.indent()
	return cols < 4 && isDefinitionMarker(l.text[n:])
}

// definitionList turns the open paragraph into terms and consumes the
// `: description` lines that follow, along with further term groups.
func (s *blockScanner) definitionList() {
	defs, terms := s.extractDefinitions(s.para)
	if len(terms) == 0 {
		s.para = append(s.para, s.lines[s.i])
		s.i++
		return
	}
	s.para = nil
	for _, d := range defs {
		s.emit(d)
	}
	list := &RawBlock{Kind: KindDefinitionList}
	addTerms := func(ls []line) {
		for _, t := range ls {
			t = t.trimLeft().trimRight()
			list.Children = append(list.Children, &RawBlock{
				Kind:    KindDefinitionTerm,
				Span:    Span{t.start, t.end()},
				Content: newContent([]line{t}),
			})
		}
	}
	addTerms(terms)
	for s.i < len(s.lines) && definitionLine(s.lines[s.i]) {
		s.definitionDescription(list)
		k := s.i
		for k < len(s.lines) && s.lines[k].isBlank() {
			k++
		}
		if k >= len(s.lines) {
			break
		}
		if definitionLine(s.lines[k]) {
			s.i = k
			continue
		}
		if k+1 < len(s.lines) && definitionLine(s.lines[k+1]) && !s.interruptsParagraph(s.lines[k]) {
			if cols, _ := s.lines[k].indent(); cols < 4 {
				addTerms(s.lines[k : k+1])
				s.i = k + 1
			}
		}
	}
	first, last := list.Children[0], list.Children[len(list.Children)-1]
	list.Span = Span{first.Span.Start, last.Span.End}
	s.emit(list)
}

func (s *blockScanner) definitionDescription(list *RawBlock) {
	l := s.lines[s.i]
	_, n := l.indent()
	inner := []line{l.advance(n + 1).trimLeft()}
	stop := s.i + 1
	lastBlank := false
	j := s.i + 1
	for ; j < len(s.lines); j++ {
		cl := s.lines[j]
		if cl.isBlank() {
			inner = append(inner, cl.stripCols(2))
			lastBlank = true
			continue
		}
		if cols, _ := cl.indent(); cols >= 2 && !definitionLine(cl) {
			inner = append(inner, cl.stripCols(2))
			lastBlank = false
			stop = j + 1
			continue
		}
		if lastBlank || definitionLine(cl) || s.interruptsParagraph(cl) || !lazyAllowed(inner[len(inner)-1]) {
			break
		}
		inner = append(inner, cl)
		stop = j + 1
	}
	inner = inner[:stop-s.i]
	span := Span{l.start, s.lines[stop-1].end()}
	children, _ := s.nested(inner, span, s.ctx.child())
	list.Children = append(list.Children, &RawBlock{Kind: KindDefinitionDescription, Span: span, Children: children})
	s.i = stop
}
