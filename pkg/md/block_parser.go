// block_parser.go recognizes block constructs line by line. Container blocks
// collect their lines, strip their prefixes and recurse with a depth counter;
// leaf blocks keep a Content that maps back into the source.
package md

import (
	"strings"
)

// RawBlock is a block recognized by the block grammar whose inline content
// has not been parsed yet.
type RawBlock struct {
	Kind     Kind
	Span     Span
	Children []*RawBlock

	// Content is the unparsed inline text of Heading, Paragraph, TableCell and
	// DefinitionTerm blocks.
	Content Content
	// Literal is the verbatim text of CodeBlock, HtmlBlock and FrontMatter.
	Literal string

	Level    int
	ID       string
	Info     string
	Fenced   bool
	Title    string
	Vertical bool
	Timer    int
	Align    Alignment
	Header   bool

	// Label, Dest and LinkTitle describe LinkReferenceDef and FootnoteDef.
	Label     string
	Dest      string
	LinkTitle string

	List       *ListAttrs
	Table      *TableAttrs
	Admonition *AdmonitionAttrs
}

// blockContext describes where a run of lines sits in the container tree.
type blockContext struct {
	depth    int
	topLevel bool
	inTab    bool
	inSlides bool
}

func (c blockContext) child() blockContext {
	return blockContext{depth: c.depth + 1, inTab: c.inTab, inSlides: c.inSlides}
}

// blockParser holds the state shared by every container level of one parse.
type blockParser struct {
	src      string
	maxDepth int
	diags    *diagnostics
}

func newBlockParser(src string, maxDepth int, diags *diagnostics) *blockParser {
	if maxDepth < 1 {
		maxDepth = DefaultMaxNesting
	}
	return &blockParser{src: src, maxDepth: maxDepth, diags: diags}
}

// parseDocument parses the whole source.
func (p *blockParser) parseDocument() []*RawBlock {
	lines := splitLines(p.src)
	blocks, _ := p.parse(lines, blockContext{topLevel: true})
	return blocks
}

// parse runs the block grammar over lines. The second result reports whether
// a blank line separated two of the produced blocks, which makes an
// enclosing list item loose.
func (p *blockParser) parse(lines []line, ctx blockContext) ([]*RawBlock, bool) {
	s := &blockScanner{p: p, lines: lines, ctx: ctx}
	s.run()
	return s.out, s.gap
}

// blockScanner walks the lines of a single container level.
type blockScanner struct {
	p     *blockParser
	lines []line
	i     int
	ctx   blockContext
	out   []*RawBlock
	para  []line

	sawBlank bool
	gap      bool
}

func (s *blockScanner) emit(b *RawBlock) {
	if b == nil {
		return
	}
	if s.sawBlank && len(s.out) > 0 {
		s.gap = true
	}
	s.sawBlank = false
	s.out = append(s.out, b)
}

func (s *blockScanner) run() {
	if s.ctx.topLevel {
		s.frontMatter()
	}
	for s.i < len(s.lines) {
		l := s.lines[s.i]
		if l.isBlank() {
			s.closeParagraph()
			s.sawBlank = true
			s.i++
			continue
		}
		if s.para != nil {
			if s.continueParagraph(l) {
				continue
			}
		}
		s.startBlock(l)
	}
	s.closeParagraph()
}

// continueParagraph handles a non-blank line while a paragraph is open. It
// reports whether the line was consumed.
func (s *blockScanner) continueParagraph(l line) bool {
	cols, n := l.indent()
	if cols < 4 {
		t := l.text[n:]
		if level := setextLevel(t); level > 0 {
			if s.setextHeading(l, level) {
				return true
			}
		}
		if s.tableAfterParagraph() {
			return true
		}
		if isDefinitionMarker(t) {
			s.definitionList()
			return true
		}
	}
	if s.interruptsParagraph(l) {
		s.closeParagraph()
		return false
	}
	s.para = append(s.para, l)
	s.i++
	return true
}

// startBlock dispatches a line that is not a paragraph continuation. Starters
// are tried in a fixed priority order.
func (s *blockScanner) startBlock(l line) {
	cols, n := l.indent()
	if cols >= 4 {
		s.indentedCode()
		return
	}
	t := l.text[n:]
	switch {
	case isThematicBreak(t):
		s.emit(&RawBlock{Kind: KindThematicBreak, Span: Span{l.start, l.end()}})
		s.i++
	case s.atxHeading(l):
	case s.fencedCode(l):
	case t[0] == '>':
		s.blockQuote()
	case s.listStart(l):
	case s.tableStart():
	case s.htmlBlock(l):
	case s.footnoteDefinition(l):
	case s.marcoBlock(l):
	default:
		s.para = append(s.para, l)
		s.i++
	}
}

// interruptsParagraph reports whether l starts a block that may interrupt an
// open paragraph.
func (s *blockScanner) interruptsParagraph(l line) bool {
	cols, n := l.indent()
	if cols >= 4 {
		return false
	}
	t := l.text[n:]
	if t == "" {
		return true
	}
	if isThematicBreak(t) || t[0] == '>' {
		return true
	}
	if _, ok := parseATXHeading(l); ok {
		return true
	}
	if _, ok := parseFenceOpen(l); ok {
		return true
	}
	if m, ok := parseListMarker(l); ok {
		rest := l.advance(m.end)
		if !rest.isBlank() && (!m.ordered || m.start == 1) {
			return true
		}
	}
	if kind := htmlBlockStart(t); kind != htmlNone && kind != htmlCompleteTag {
		return true
	}
	return isMarcoOpener(t)
}

// closeParagraph turns the pending paragraph lines into blocks, peeling off
// any leading link reference definitions.
func (s *blockScanner) closeParagraph() {
	if s.para == nil {
		return
	}
	lines := s.para
	s.para = nil
	defs, rest := s.extractDefinitions(lines)
	for _, d := range defs {
		s.emit(d)
	}
	if len(rest) == 0 {
		return
	}
	s.emit(s.paragraphBlock(rest))
}

// paragraphBlock builds a paragraph from lines, stripping leading whitespace
// and the final line's trailing whitespace.
func (s *blockScanner) paragraphBlock(lines []line) *RawBlock {
	trimmed := make([]line, len(lines))
	for k, l := range lines {
		trimmed[k] = l.trimLeft()
	}
	last := len(trimmed) - 1
	trimmed[last] = trimmed[last].trimRight()
	return &RawBlock{
		Kind:    KindParagraph,
		Span:    Span{lines[0].start, lines[last].end()},
		Content: newContent(trimmed),
	}
}

// literalParagraph renders lines verbatim as paragraph text. It is the
// fallback for rejected or over-nested containers.
func (s *blockScanner) literalParagraph(lines []line) *RawBlock {
	var kept []line
	for _, l := range lines {
		if !l.isBlank() {
			kept = append(kept, l)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	b := s.paragraphBlock(kept)
	b.Span = Span{lines[0].start, lines[len(lines)-1].end()}
	return b
}

// setextLevel returns 1 for an `=` underline, 2 for a `-` underline and 0
// otherwise. t must already be stripped of leading indentation.
func setextLevel(t string) int {
	t = strings.TrimRight(t, " \t")
	if t == "" {
		return 0
	}
	c := t[0]
	if c != '=' && c != '-' {
		return 0
	}
	for i := 0; i < len(t); i++ {
		if t[i] != c {
			return 0
		}
	}
	if c == '=' {
		return 1
	}
	return 2
}

func (s *blockScanner) setextHeading(underline line, level int) bool {
	defs, rest := s.extractDefinitions(s.para)
	if len(rest) == 0 {
		return false
	}
	s.para = nil
	for _, d := range defs {
		s.emit(d)
	}
	b := s.paragraphBlock(rest)
	b.Kind = KindHeading
	b.Level = level
	b.Span.End = underline.end()
	b.Content, b.ID = splitHeadingID(b.Content)
	s.emit(b)
	s.i++
	return true
}

// isThematicBreak reports whether t is three or more matching `*`, `-` or
// `_` characters, optionally separated by spaces or tabs.
func isThematicBreak(t string) bool {
	if t == "" {
		return false
	}
	c := t[0]
	if c != '*' && c != '-' && c != '_' {
		return false
	}
	count := 0
	for i := 0; i < len(t); i++ {
		switch t[i] {
		case c:
			count++
		case ' ', '\t':
		default:
			return false
		}
	}
	return count >= 3
}

// atxMatch is a recognized `#` heading line; content holds the heading text
// with the closing sequence removed.
type atxMatch struct {
	level   int
	content line
}

func parseATXHeading(l line) (atxMatch, bool) {
	var res atxMatch
	cols, n := l.indent()
	if cols > 3 {
		return res, false
	}
	t := l.text[n:]
	level := 0
	for level < len(t) && t[level] == '#' {
		level++
	}
	if level == 0 || level > 6 {
		return res, false
	}
	if level < len(t) && t[level] != ' ' && t[level] != '\t' {
		return res, false
	}
	content := l.advance(n + level).trimLeft().trimRight()
	text := content.text
	k := len(text)
	for k > 0 && text[k-1] == '#' {
		k--
	}
	if k < len(text) && (k == 0 || text[k-1] == ' ' || text[k-1] == '\t') {
		content.text = text[:k]
		content = content.trimRight()
	}
	res.level = level
	res.content = content
	return res, true
}

func (s *blockScanner) atxHeading(l line) bool {
	h, ok := parseATXHeading(l)
	if !ok {
		return false
	}
	b := &RawBlock{
		Kind:    KindHeading,
		Level:   h.level,
		Span:    Span{l.start, l.end()},
		Content: newContent([]line{h.content}),
	}
	b.Content, b.ID = splitHeadingID(b.Content)
	s.emit(b)
	s.i++
	return true
}

// splitHeadingID removes a trailing `{#id}` attribute from heading text.
func splitHeadingID(c Content) (Content, string) {
	t := c.Text
	if !strings.HasSuffix(t, "}") {
		return c, ""
	}
	open := strings.LastIndex(t, "{#")
	if open < 0 {
		return c, ""
	}
	id := t[open+2 : len(t)-1]
	if id == "" {
		return c, ""
	}
	for i := 0; i < len(id); i++ {
		ch := id[i]
		if !isLetterDigit(ch) && ch != '-' && ch != '_' && ch != ':' && ch != '.' {
			return c, ""
		}
	}
	if open > 0 && t[open-1] != ' ' && t[open-1] != '\t' {
		return c, ""
	}
	return c.Slice(0, open).Trim(), id
}

// fence describes an opening code fence.
type fence struct {
	char   byte
	count  int
	indent int
	info   string
	after  line
}

func parseFenceOpen(l line) (fence, bool) {
	cols, n := l.indent()
	if cols > 3 {
		return fence{}, false
	}
	t := l.text[n:]
	if t == "" || (t[0] != '`' && t[0] != '~') {
		return fence{}, false
	}
	c := t[0]
	count := 0
	for count < len(t) && t[count] == c {
		count++
	}
	if count < 3 {
		return fence{}, false
	}
	info := strings.TrimSpace(t[count:])
	if c == '`' && strings.IndexByte(info, '`') >= 0 {
		return fence{}, false
	}
	return fence{char: c, count: count, indent: cols, info: info, after: l.advance(n + count)}, true
}

// closesFence reports whether l closes a fence opened with char repeated
// count times.
func closesFence(l line, char byte, count int) bool {
	cols, n := l.indent()
	if cols > 3 {
		return false
	}
	t := strings.TrimRight(l.text[n:], " \t")
	if len(t) < count {
		return false
	}
	for i := 0; i < len(t); i++ {
		if t[i] != char {
			return false
		}
	}
	return true
}

func (s *blockScanner) fencedCode(l line) bool {
	f, ok := parseFenceOpen(l)
	if !ok {
		return false
	}
	start := l.start
	end := l.end()
	var body []string
	j := s.i + 1
	for ; j < len(s.lines); j++ {
		cl := s.lines[j]
		if closesFence(cl, f.char, f.count) {
			end = cl.end()
			j++
			break
		}
		body = append(body, cl.stripCols(f.indent).text)
		end = cl.end()
	}
	s.emit(&RawBlock{
		Kind:    KindCodeBlock,
		Span:    Span{start, end},
		Fenced:  true,
		Info:    f.info,
		Literal: strings.Join(body, "\n"),
	})
	s.i = j
	return true
}

func (s *blockScanner) indentedCode() {
	first := s.lines[s.i]
	var body []line
	j := s.i
	lastContent := s.i
	for ; j < len(s.lines); j++ {
		l := s.lines[j]
		if l.isBlank() {
			body = append(body, l.stripCols(4))
			continue
		}
		cols, _ := l.indent()
		if cols < 4 {
			break
		}
		body = append(body, l.stripCols(4))
		lastContent = j
	}
	body = body[:lastContent-s.i+1]
	text := make([]string, len(body))
	for k, l := range body {
		text[k] = l.text
	}
	s.emit(&RawBlock{
		Kind:    KindCodeBlock,
		Span:    Span{first.start, s.lines[lastContent].end()},
		Literal: strings.Join(text, "\n"),
	})
	s.i = lastContent + 1
}

// openFenceTracker follows fenced code blocks across a run of lines so that
// container scanners can ignore markers inside them.
type openFenceTracker struct {
	char  byte
	count int
}

// observe updates the tracker with l and reports whether l lies inside a
// fence, including the opening and closing lines.
func (f *openFenceTracker) observe(l line) bool {
	if f.count > 0 {
		if closesFence(l, f.char, f.count) {
			f.count = 0
		}
		return true
	}
	if open, ok := parseFenceOpen(l); ok {
		f.char, f.count = open.char, open.count
		return true
	}
	return false
}

func (f *openFenceTracker) open() bool {
	return f.count > 0
}
