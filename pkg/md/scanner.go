// scanner.go provides the line, indentation and UTF-8 safe slicing primitives
// shared by the block and inline grammars.
package md

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

const tabStop = 4

// Span is a half-open byte range [Start, End) into Document.Source.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int {
	return s.End - s.Start
}

// Contains reports whether off falls inside the span. The end offset is
// included so that a cursor placed just after a construct still belongs to it.
func (s Span) Contains(off int) bool {
	return off >= s.Start && off <= s.End
}

// Cover returns the smallest span containing both s and o.
func (s Span) Cover(o Span) Span {
	if o.Start < s.Start {
		s.Start = o.Start
	}
	if o.End > s.End {
		s.End = o.End
	}
	return s
}

// Position is a resolved source location. Line and Column are zero based;
// Column counts runes, not bytes.
type Position struct {
	Offset int `json:"offset"`
	Line   int `json:"line"`
	Column int `json:"column"`
}

// LineIndex maps byte offsets to line/column positions and back.
type LineIndex struct {
	src    string
	starts []int
}

// NewLineIndex builds a line index over src. Lines are terminated by "\n",
// "\r\n" or a lone "\r".
func NewLineIndex(src string) *LineIndex {
	starts := []int{0}
	for i := 0; i < len(src); i++ {
		switch src[i] {
		case '\n':
			starts = append(starts, i+1)
		case '\r':
			if i+1 < len(src) && src[i+1] == '\n' {
				i++
			}
			starts = append(starts, i+1)
		}
	}
	return &LineIndex{src: src, starts: starts}
}

// LineCount returns the number of lines, counting a trailing empty line.
func (li *LineIndex) LineCount() int {
	return len(li.starts)
}

// Position resolves a byte offset. Offsets outside the source are clamped.
func (li *LineIndex) Position(off int) Position {
	if off < 0 {
		off = 0
	}
	if off > len(li.src) {
		off = len(li.src)
	}
	line := sort.Search(len(li.starts), func(i int) bool { return li.starts[i] > off }) - 1
	if line < 0 {
		line = 0
	}
	col := utf8.RuneCountInString(li.src[li.starts[line]:off])
	return Position{Offset: off, Line: line, Column: col}
}

// Offset converts a zero based line and rune column to a byte offset. Columns
// past the end of the line resolve to the end of the line.
func (li *LineIndex) Offset(line, col int) int {
	if line < 0 {
		return 0
	}
	if line >= len(li.starts) {
		return len(li.src)
	}
	text := li.Line(line)
	off := li.starts[line]
	for i := range text {
		if col == 0 {
			return off + i
		}
		col--
	}
	return off + len(text)
}

// Line returns the text of line n without its terminator.
func (li *LineIndex) Line(n int) string {
	if n < 0 || n >= len(li.starts) {
		return ""
	}
	end := len(li.src)
	if n+1 < len(li.starts) {
		end = li.starts[n+1]
	}
	return strings.TrimRight(li.src[li.starts[n]:end], "\r\n")
}

// normalizeSource replaces invalid UTF-8 sequences and NUL bytes with U+FFFD.
// It reports whether anything was replaced.
func normalizeSource(src string) (string, bool) {
	if utf8.ValidString(src) && !strings.ContainsRune(src, 0) {
		return src, false
	}
	src = strings.ToValidUTF8(src, "�")
	src = strings.ReplaceAll(src, "\x00", "�")
	return src, true
}

// line is one physical source line, possibly with container prefixes already
// removed. text may begin with pad virtual spaces produced by splitting a tab;
// those spaces map back to start.
type line struct {
	text  string
	start int
	pad   int
	col   int
}

// splitLines cuts src into lines, dropping terminators.
func splitLines(src string) []line {
	var lines []line
	begin := 0
	for i := 0; i < len(src); i++ {
		switch src[i] {
		case '\n':
			lines = append(lines, line{text: src[begin:i], start: begin})
			begin = i + 1
		case '\r':
			lines = append(lines, line{text: src[begin:i], start: begin})
			if i+1 < len(src) && src[i+1] == '\n' {
				i++
			}
			begin = i + 1
		}
	}
	if begin < len(src) {
		lines = append(lines, line{text: src[begin:], start: begin})
	}
	return lines
}

// sourceOffset maps a byte index into l.text back to the source.
func (l line) sourceOffset(i int) int {
	if i <= l.pad {
		return l.start
	}
	return l.start + i - l.pad
}

// end returns the source offset just past the line text.
func (l line) end() int {
	return l.sourceOffset(len(l.text))
}

func (l line) isBlank() bool {
	return isBlankString(l.text)
}

// indent returns the visual width and byte length of the leading whitespace.
func (l line) indent() (cols, n int) {
	col := l.col
	for n < len(l.text) {
		switch l.text[n] {
		case ' ':
			col++
		case '\t':
			col += tabStop - col%tabStop
		default:
			return col - l.col, n
		}
		n++
	}
	return col - l.col, n
}

// advance drops n bytes from the front of the line.
func (l line) advance(n int) line {
	if n <= 0 {
		return l
	}
	if n > len(l.text) {
		n = len(l.text)
	}
	consumed := l.text[:n]
	col := l.col
	for _, c := range []byte(consumed) {
		if c == '\t' {
			col += tabStop - col%tabStop
		} else {
			col++
		}
	}
	start := l.start
	pad := l.pad - n
	if pad < 0 {
		start += -pad
		pad = 0
	}
	return line{text: l.text[n:], start: start, pad: pad, col: col}
}

// stripCols removes up to n columns of leading whitespace. A tab that is only
// partly consumed leaves its remaining columns behind as virtual spaces.
func (l line) stripCols(n int) line {
	col := l.col
	i := 0
	for i < len(l.text) && col-l.col < n {
		c := l.text[i]
		if c == ' ' {
			col++
			i++
			continue
		}
		if c != '\t' {
			break
		}
		w := tabStop - col%tabStop
		if col-l.col+w > n {
			remain := col - l.col + w - n
			rest := l.advance(i + 1)
			return line{
				text:  strings.Repeat(" ", remain) + rest.text,
				start: rest.start,
				pad:   remain + rest.pad,
				col:   l.col + n,
			}
		}
		col += w
		i++
	}
	return l.advance(i)
}

// trimLeft removes all leading spaces and tabs.
func (l line) trimLeft() line {
	_, n := l.indent()
	return l.advance(n)
}

// trimRight removes trailing spaces and tabs.
func (l line) trimRight() line {
	l.text = strings.TrimRight(l.text, " \t")
	if len(l.text) < l.pad {
		l.pad = len(l.text)
	}
	return l
}

// Content is inline text assembled from one or more lines together with the
// information needed to map offsets back into the document source.
type Content struct {
	Text  string
	marks []contentMark
}

type contentMark struct {
	off int
	src int
	pad int
}

// newContent joins lines with "\n" and records their source offsets.
func newContent(lines []line) Content {
	var b strings.Builder
	marks := make([]contentMark, 0, len(lines))
	for i, l := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		marks = append(marks, contentMark{off: b.Len(), src: l.start, pad: l.pad})
		b.WriteString(l.text)
	}
	return Content{Text: b.String(), marks: marks}
}

// contentOf wraps a single string found at src.
func contentOf(text string, src int) Content {
	return Content{Text: text, marks: []contentMark{{off: 0, src: src}}}
}

// Source maps an index into c.Text to a byte offset in the document source.
func (c Content) Source(i int) int {
	if len(c.marks) == 0 {
		return i
	}
	k := sort.Search(len(c.marks), func(j int) bool { return c.marks[j].off > i }) - 1
	if k < 0 {
		k = 0
	}
	m := c.marks[k]
	rel := i - m.off
	if rel <= m.pad {
		return m.src
	}
	return m.src + rel - m.pad
}

// Slice returns the sub-content c.Text[from:to] with adjusted marks.
func (c Content) Slice(from, to int) Content {
	if from < 0 {
		from = 0
	}
	if to > len(c.Text) {
		to = len(c.Text)
	}
	if from >= to {
		return Content{marks: []contentMark{{src: c.Source(from)}}}
	}
	out := Content{Text: c.Text[from:to]}
	out.marks = append(out.marks, contentMark{off: 0, src: c.Source(from)})
	for _, m := range c.marks {
		if m.off > from && m.off < to {
			out.marks = append(out.marks, contentMark{off: m.off - from, src: m.src, pad: m.pad})
		}
	}
	return out
}

// Trim removes leading and trailing spaces, tabs and newlines.
func (c Content) Trim() Content {
	from, to := 0, len(c.Text)
	for from < to && isSpaceTabNewline(c.Text[from]) {
		from++
	}
	for to > from && isSpaceTabNewline(c.Text[to-1]) {
		to--
	}
	return c.Slice(from, to)
}

func isBlankString(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] != ' ' && s[i] != '\t' {
			return false
		}
	}
	return true
}

func isSpaceTabNewline(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isASCIIPunct(c byte) bool {
	return '!' <= c && c <= '/' || ':' <= c && c <= '@' || '[' <= c && c <= '`' || '{' <= c && c <= '~'
}

func isLetter(c byte) bool {
	return 'A' <= c && c <= 'Z' || 'a' <= c && c <= 'z'
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func isLetterDigit(c byte) bool {
	return isLetter(c) || isDigit(c)
}

func isHexDigit(c byte) bool {
	return isDigit(c) || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

// isUnicodeWhitespace follows the CommonMark definition of Unicode whitespace.
func isUnicodeWhitespace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\f' || r == '\r' || unicode.Is(unicode.Zs, r)
}

// isUnicodePunct follows the CommonMark definition of Unicode punctuation.
func isUnicodePunct(r rune) bool {
	if r < utf8.RuneSelf {
		return isASCIIPunct(byte(r))
	}
	return unicode.IsPunct(r) || unicode.IsSymbol(r)
}

// runeBefore returns the rune ending at s[i], or '\n' at the start of s.
func runeBefore(s string, i int) rune {
	if i <= 0 {
		return '\n'
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return r
}

// runeAt returns the rune starting at s[i], or '\n' at the end of s.
func runeAt(s string, i int) rune {
	if i >= len(s) {
		return '\n'
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return r
}
