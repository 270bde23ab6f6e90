// inline_parser.go recognizes span-level constructs. A single left-to-right
// scan produces a list of nodes plus a delimiter stack for emphasis markers
// and a bracket stack for links; both stacks are resolved as the scan goes.
package md

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// maxOpenBrackets bounds the link bracket stack.
const maxOpenBrackets = 512

// Inline is a node of the inline tree returned by ParseInlines. Spans are
// byte offsets into the parsed text.
type Inline struct {
	Kind     Kind
	Span     Span
	Literal  string
	Info     string
	Label    string
	Display  bool
	Checked  bool
	Link     *LinkAttrs
	Mention  *MentionAttrs
	Children []*Inline

	depth    int
	fromText bool // autolink literal found in running text
}

// inode links an Inline into the parser's working list.
type inode struct {
	in         *Inline
	prev, next *inode
}

// inlineOptions carries the per-document context of an inline parse.
type inlineOptions struct {
	defs     *Definitions
	emoji    *EmojiTable
	diags    *diagnostics
	maxDepth int
}

type inlineParser struct {
	c    Content
	text string
	opts inlineOptions

	head, tail *inode
	delims     *delim
	brackets   []*bracket
	pending    int

	backticks    map[int][]int
	mathClosers  []int
	htmlEnds     map[string]int
	bracketPairs map[int]int
	noDisplay    int
	warnedLimit  bool
	level        int
}

// parseInlineContent parses c and returns its inline nodes.
func parseInlineContent(c Content, opts inlineOptions) []*Inline {
	return parseInlineLevel(c, opts, 0)
}

func parseInlineLevel(c Content, opts inlineOptions, level int) []*Inline {
	if opts.maxDepth < 1 {
		opts.maxDepth = DefaultMaxNesting
	}
	p := &inlineParser{c: c, text: c.Text, opts: opts, noDisplay: -1, level: level}
	return p.parse()
}

func (p *inlineParser) parse() []*Inline {
	i := 0
	for i < len(p.text) {
		next := -1
		switch c := p.text[i]; c {
		case '\\':
			next = p.escape(i)
		case '`':
			next = p.codeSpan(i)
		case '$':
			next = p.math(i)
		case '&':
			next = p.entity(i)
		case '<':
			next = p.angle(i)
		case '*', '_', '~':
			next = p.delimiterRun(i)
		case '[':
			next = p.openBracket(i)
		case '!':
			if i+1 < len(p.text) && p.text[i+1] == '[' {
				next = p.openBracket(i)
			}
		case ']':
			next = p.closeBracket(i)
		case '\n':
			next = p.lineBreak(i)
		case ':':
			next = p.emojiShortcode(i)
		case '@':
			next = p.mention(i)
		case '^':
			next = p.inlineFootnote(i)
		case 'h', 'w':
			next = p.autolinkLiteral(i)
		}
		if next < 0 {
			i++
			continue
		}
		i = next
	}
	p.flushText(len(p.text))
	p.processEmphasis(nil)
	var out []*Inline
	for n := p.head; n != nil; n = n.next {
		out = append(out, n.in)
	}
	return mergeText(out)
}

// append adds a node to the end of the working list.
func (p *inlineParser) append(in *Inline) *inode {
	n := &inode{in: in, prev: p.tail}
	if p.tail != nil {
		p.tail.next = n
	} else {
		p.head = n
	}
	p.tail = n
	return n
}

// unlink removes n from the working list.
func (p *inlineParser) unlink(n *inode) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		p.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		p.tail = n.prev
	}
	n.prev, n.next = nil, nil
}

// flushText emits pending plain text up to end.
func (p *inlineParser) flushText(end int) {
	if end > p.pending {
		p.append(&Inline{Kind: KindText, Literal: p.text[p.pending:end], Span: Span{p.pending, end}})
	}
	if end > p.pending {
		p.pending = end
	}
}

// emit flushes pending text before start and appends in, which ends at end.
func (p *inlineParser) emit(start, end int, in *Inline) int {
	p.flushText(start)
	in.Span = Span{start, end}
	p.append(in)
	p.pending = end
	return end
}

func (p *inlineParser) warn(cat Category, start, end int, msg string) {
	if p.opts.diags == nil {
		return
	}
	p.opts.diags.warn(cat, Span{p.c.Source(start), p.c.Source(end)}, msg)
}

func (p *inlineParser) limitExceeded(start, end int, what string) {
	if p.warnedLimit {
		return
	}
	p.warnedLimit = true
	p.warn(CategoryLimitExceeded, start, end, fmt.Sprintf("%s exceeds the nesting limit of %d; markers rendered as text", what, p.opts.maxDepth))
}

func (p *inlineParser) escape(i int) int {
	if i+1 >= len(p.text) {
		return -1
	}
	c := p.text[i+1]
	if c == '\n' {
		p.flushText(i)
		return p.emit(i, i+2, &Inline{Kind: KindHardBreak})
	}
	if !isASCIIPunct(c) {
		return -1
	}
	return p.emit(i, i+2, &Inline{Kind: KindText, Literal: string(c)})
}

// lineBreak turns a line ending into a hard break when preceded by two or
// more spaces, and into a soft break otherwise. Trailing spaces are dropped.
func (p *inlineParser) lineBreak(i int) int {
	spaces := 0
	for i-spaces-1 >= p.pending && p.text[i-spaces-1] == ' ' {
		spaces++
	}
	p.flushText(i - spaces)
	kind := KindSoftBreak
	if spaces >= 2 {
		kind = KindHardBreak
	}
	return p.emit(i-spaces, i+1, &Inline{Kind: kind})
}

// codeSpan matches a backtick run against the next run of equal length.
// Closing positions are indexed once per parse, so the search is linear.
func (p *inlineParser) codeSpan(i int) int {
	n := runLength(p.text, i, '`')
	if p.backticks == nil {
		p.backticks = make(map[int][]int)
		for k := 0; k < len(p.text); {
			if p.text[k] != '`' {
				k++
				continue
			}
			m := runLength(p.text, k, '`')
			p.backticks[m] = append(p.backticks[m], k)
			k += m
		}
	}
	runs := p.backticks[n]
	k := sort.SearchInts(runs, i+n)
	if k >= len(runs) {
		return i + n
	}
	end := runs[k]
	body := strings.ReplaceAll(p.text[i+n:end], "\n", " ")
	if len(body) >= 2 && body[0] == ' ' && body[len(body)-1] == ' ' && strings.Trim(body, " ") != "" {
		body = body[1 : len(body)-1]
	}
	return p.emit(i, end+n, &Inline{Kind: KindCodeSpan, Literal: body})
}

func runLength(s string, i int, c byte) int {
	n := 0
	for i+n < len(s) && s[i+n] == c {
		n++
	}
	return n
}

// entity decodes an HTML entity or numeric character reference.
func (p *inlineParser) entity(i int) int {
	decoded, end, ok := decodeEntity(p.text, i)
	if !ok {
		return -1
	}
	return p.emit(i, end, &Inline{Kind: KindEntity, Literal: decoded, Info: p.text[i:end]})
}

// decodeEntity matches `&name;`, `&#123;` or `&#x1F;` at s[i].
func decodeEntity(s string, i int) (string, int, bool) {
	if i+2 >= len(s) || s[i] != '&' {
		return "", 0, false
	}
	semi := strings.IndexByte(s[i:min(len(s), i+40)], ';')
	if semi < 0 {
		return "", 0, false
	}
	body := s[i+1 : i+semi]
	end := i + semi + 1
	if body == "" {
		return "", 0, false
	}
	if body[0] == '#' {
		digits := body[1:]
		base := 10
		if digits != "" && (digits[0] == 'x' || digits[0] == 'X') {
			digits = digits[1:]
			base = 16
		}
		if digits == "" || (base == 10 && len(digits) > 7) || (base == 16 && len(digits) > 6) {
			return "", 0, false
		}
		for k := 0; k < len(digits); k++ {
			if (base == 10 && !isDigit(digits[k])) || (base == 16 && !isHexDigit(digits[k])) {
				return "", 0, false
			}
		}
		v, err := strconv.ParseUint(digits, base, 32)
		r := rune(v)
		if err != nil || v == 0 || !utf8.ValidRune(r) {
			r = utf8.RuneError
		}
		return string(r), end, true
	}
	if !isLetter(body[0]) {
		return "", 0, false
	}
	for k := 1; k < len(body); k++ {
		if !isLetterDigit(body[k]) {
			return "", 0, false
		}
	}
	raw := s[i:end]
	decoded := html.UnescapeString(raw)
	if decoded == raw || (decoded != ";" && strings.HasSuffix(decoded, ";")) {
		return "", 0, false
	}
	return decoded, end, true
}

// unescapeString resolves backslash escapes and entities in link
// destinations, titles and info strings.
func unescapeString(s string) string {
	if strings.IndexByte(s, '\\') < 0 && strings.IndexByte(s, '&') < 0 {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\':
			if i+1 < len(s) && isASCIIPunct(s[i+1]) {
				b.WriteByte(s[i+1])
				i++
				continue
			}
		case '&':
			if decoded, end, ok := decodeEntity(s, i); ok {
				b.WriteString(decoded)
				i = end - 1
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// mergeText joins adjacent Text nodes. Each run is joined once so the work
// stays linear in the number of fragments.
func mergeText(nodes []*Inline) []*Inline {
	out := nodes[:0]
	for i := 0; i < len(nodes); {
		n := nodes[i]
		if n.Kind != KindText {
			out = append(out, n)
			i++
			continue
		}
		j := i
		for j < len(nodes) && nodes[j].Kind == KindText {
			j++
		}
		if merged := joinText(nodes[i:j]); merged != nil {
			out = append(out, merged)
		}
		i = j
	}
	return out
}

// joinText merges a run of Text nodes into one, skipping empty literals.
// It returns nil when every literal is empty.
func joinText(run []*Inline) *Inline {
	var first *Inline
	size, count := 0, 0
	for _, n := range run {
		if n.Literal == "" {
			continue
		}
		if first == nil {
			first = n
		}
		size += len(n.Literal)
		count++
	}
	if count <= 1 {
		return first
	}

	var b strings.Builder
	b.Grow(size)
	merged := *first
	for _, n := range run {
		if n.Literal == "" {
			continue
		}
		b.WriteString(n.Literal)
		merged.Span = merged.Span.Cover(n.Span)
	}
	merged.Literal = b.String()
	return &merged
}

// nodeDepth is the nesting depth of a container built from children.
func nodeDepth(children []*Inline) int {
	d := 0
	for _, c := range children {
		if c.depth > d {
			d = c.depth
		}
	}
	return d + 1
}

// shiftSpans moves every span in the tree by off.
func shiftSpans(nodes []*Inline, off int) {
	for _, n := range nodes {
		n.Span.Start += off
		n.Span.End += off
		shiftSpans(n.Children, off)
	}
}
