package md

import (
	"fmt"
	"regexp"
	"strings"
)

// bracket is an entry of the link opener stack.
type bracket struct {
	node      *inode
	image     bool
	active    bool
	prevDelim *delim
	start     int // index of `[` or `![`
	after     int // index just past the opener
}

func (p *inlineParser) openBracket(i int) int {
	image := p.text[i] == '!'
	after := i + 1
	if image {
		after = i + 2
	}
	if !image && after < len(p.text) && p.text[after] == '^' {
		if end := p.footnoteRef(i); end > 0 {
			return end
		}
	}
	if len(p.brackets) >= maxOpenBrackets {
		p.limitExceeded(i, after, "link nesting")
		return after
	}
	p.flushText(i)
	node := p.append(&Inline{Kind: KindText, Literal: p.text[i:after], Span: Span{i, after}})
	p.pending = after
	p.brackets = append(p.brackets, &bracket{
		node:      node,
		image:     image,
		active:    true,
		prevDelim: p.delims,
		start:     i,
		after:     after,
	})
	return after
}

// footnoteRef matches `[^label]` at i. Undefined labels are reported and left
// to the ordinary bracket rules.
func (p *inlineParser) footnoteRef(i int) int {
	label, end, ok := parseFootnoteLabel(p.text[i:])
	if !ok {
		return -1
	}
	if _, defined := p.opts.defs.Footnote(label); !defined {
		if p.opts.defs != nil {
			p.warn(CategoryReference, i, i+end, fmt.Sprintf("undefined footnote [^%s]", label))
		}
		return -1
	}
	return p.emit(i, i+end, &Inline{Kind: KindFootnoteRef, Label: label})
}

// closeBracket resolves `]` against the innermost opener, trying the inline
// form first and then the full, collapsed and shortcut reference forms.
func (p *inlineParser) closeBracket(i int) int {
	if len(p.brackets) == 0 {
		return -1
	}
	b := p.brackets[len(p.brackets)-1]
	if !b.active {
		p.brackets = p.brackets[:len(p.brackets)-1]
		return -1
	}

	attrs, end, ok := p.linkTail(b, i)
	if !ok {
		p.brackets = p.brackets[:len(p.brackets)-1]
		return -1
	}

	p.flushText(i)
	p.processEmphasis(b.prevDelim)
	var children []*Inline
	for n := b.node.next; n != nil; n = n.next {
		children = append(children, n.in)
	}
	children = textifyAutolinks(mergeText(children))
	depth := nodeDepth(children)
	if depth > p.opts.maxDepth {
		p.limitExceeded(b.start, end, "link")
		p.brackets = p.brackets[:len(p.brackets)-1]
		return -1
	}

	kind := KindLink
	if b.image {
		kind = KindImage
	}
	for n := b.node; n != nil; {
		next := n.next
		p.unlink(n)
		n = next
	}
	p.append(&Inline{
		Kind:     kind,
		Span:     Span{b.start, end},
		Link:     attrs,
		Children: children,
		depth:    depth,
	})
	p.pending = end
	p.brackets = p.brackets[:len(p.brackets)-1]
	if !b.image {
		for _, o := range p.brackets {
			if !o.image {
				o.active = false
			}
		}
	}
	return end
}

// linkTail parses what follows the `]` at i.
func (p *inlineParser) linkTail(b *bracket, i int) (*LinkAttrs, int, bool) {
	next := i + 1
	if next < len(p.text) && p.text[next] == '(' {
		if dest, title, end, ok := p.inlineDestination(next); ok {
			return &LinkAttrs{Dest: dest, Title: title, Form: LinkInline}, end, true
		}
	}

	if label, end, ok := parseLinkLabel(p.text, next); ok {
		if def, found := p.opts.defs.Link(label); found {
			return &LinkAttrs{Dest: def.Dest, Title: def.Title, Form: LinkFull, Label: label}, end, true
		}
		p.unresolved(b.start, end, label)
		return nil, 0, false
	}

	form := LinkShortcut
	end := next
	if strings.HasPrefix(p.text[next:], "[]") {
		form = LinkCollapsed
		end = next + 2
	}
	label := p.text[b.after:i]
	if !validShortcutLabel(label) {
		return nil, 0, false
	}
	if def, found := p.opts.defs.Link(label); found && normalizeLabel(label) != "" {
		return &LinkAttrs{Dest: def.Dest, Title: def.Title, Form: form, Label: label}, end, true
	}
	if form == LinkCollapsed {
		p.unresolved(b.start, end, label)
	}
	return nil, 0, false
}

// validShortcutLabel rejects labels that are too long or contain unescaped
// brackets.
func validShortcutLabel(label string) bool {
	if len(label) > maxLabelLength {
		return false
	}
	for k := 0; k < len(label); k++ {
		switch label[k] {
		case '\\':
			k++
		case '[', ']':
			return false
		}
	}
	return true
}

func (p *inlineParser) unresolved(start, end int, label string) {
	if p.opts.defs == nil || normalizeLabel(label) == "" {
		return
	}
	p.warn(CategoryReference, start, end, fmt.Sprintf("unresolved link reference [%s]", label))
}

// inlineDestination parses `(dest "title")` at i.
func (p *inlineParser) inlineDestination(i int) (dest, title string, end int, ok bool) {
	s := p.text
	j, _ := skipSpaceNewline(s, i+1)
	if j < len(s) && s[j] == ')' {
		return "", "", j + 1, true
	}
	raw, k, ok := parseLinkDestination(s, j)
	if !ok {
		return "", "", 0, false
	}
	dest = unescapeString(raw)
	k2, spaced := skipSpaceNewline(s, k)
	if spaced {
		if t, k3, found := parseLinkTitle(s, k2); found {
			title = unescapeString(t)
			k2, _ = skipSpaceNewline(s, k3)
		}
	}
	if k2 >= len(s) || s[k2] != ')' {
		return "", "", 0, false
	}
	return dest, title, k2 + 1, true
}

// textifyAutolinks turns autolink literals found inside link text back into
// plain text; links never nest.
func textifyAutolinks(nodes []*Inline) []*Inline {
	for k, n := range nodes {
		if n.Kind == KindAutolink && n.fromText {
			nodes[k] = &Inline{Kind: KindText, Literal: n.Literal, Span: n.Span}
			continue
		}
		if len(n.Children) > 0 {
			n.Children = textifyAutolinks(n.Children)
		}
	}
	return nodes
}

var emailAutolink = regexp.MustCompile(`^[a-zA-Z0-9.!#$%&'*+/=?^_` + "`" + `{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)

// angle resolves `<...>`. URI and email autolinks are tried before raw HTML
// so that ordinary tags are never mistaken for links.
func (p *inlineParser) angle(i int) int {
	s := p.text
	k := i + 1
	for k < len(s) && s[k] > ' ' && s[k] != '<' && s[k] != '>' {
		k++
	}
	if k < len(s) && s[k] == '>' {
		body := s[i+1 : k]
		if isURIAutolink(body) {
			return p.emit(i, k+1, &Inline{Kind: KindAutolink, Literal: body, Link: &LinkAttrs{Dest: body}})
		}
		if emailAutolink.MatchString(body) {
			return p.emit(i, k+1, &Inline{Kind: KindAutolink, Literal: body, Link: &LinkAttrs{Dest: "mailto:" + body}})
		}
	}
	if !p.rawHTMLPossible(i) {
		return -1
	}
	if end := scanHTMLTag(s, i); end > 0 {
		return p.emit(i, end, &Inline{Kind: KindRawHTML, Literal: s[i:end]})
	}
	return -1
}

// rawHTMLPossible reports whether the terminator of the construct at i occurs
// anywhere after it. The last position of each terminator is found once per
// parse, so unclosed constructs cost constant time.
func (p *inlineParser) rawHTMLPossible(i int) bool {
	rest := p.text[i:]
	closer := ">"
	switch {
	case strings.HasPrefix(rest, "<!--"):
		closer = "-->"
	case strings.HasPrefix(rest, "<?"):
		closer = "?>"
	case strings.HasPrefix(rest, "<![CDATA["):
		closer = "]]>"
	}
	if p.htmlEnds == nil {
		p.htmlEnds = make(map[string]int)
	}
	last, ok := p.htmlEnds[closer]
	if !ok {
		last = strings.LastIndex(p.text, closer)
		p.htmlEnds[closer] = last
	}
	return last > i
}

// isURIAutolink matches `scheme:rest` with a 2 to 32 character scheme and no
// spaces, controls or angle brackets.
func isURIAutolink(s string) bool {
	colon := strings.IndexByte(s, ':')
	if colon < 2 || colon > 32 || !isLetter(s[0]) {
		return false
	}
	for k := 1; k < colon; k++ {
		c := s[k]
		if !isLetterDigit(c) && c != '+' && c != '.' && c != '-' {
			return false
		}
	}
	for k := colon + 1; k < len(s); k++ {
		c := s[k]
		if c <= ' ' || c == '<' || c == '>' || c == 0x7f {
			return false
		}
	}
	return true
}

// autolinkLiteral recognizes bare `http://`, `https://` and `www.` links in
// running text.
func (p *inlineParser) autolinkLiteral(i int) int {
	s := p.text
	var prefix string
	switch {
	case strings.HasPrefix(s[i:], "https://"):
		prefix = "https://"
	case strings.HasPrefix(s[i:], "http://"):
		prefix = "http://"
	case strings.HasPrefix(s[i:], "www."):
		prefix = "www."
	default:
		return -1
	}
	if before := runeBefore(s, i); !isUnicodeWhitespace(before) && !strings.ContainsRune("*_~(", before) {
		return -1
	}
	end := i + len(prefix)
	for end < len(s) && s[end] > ' ' && s[end] != '<' {
		end++
	}
	end = trimAutolinkEnd(s, i, end)
	if !validAutolinkDomain(s[i+len(prefix):end], prefix == "www.") {
		return -1
	}
	text := s[i:end]
	dest := text
	if prefix == "www." {
		dest = "http://" + text
	}
	return p.emit(i, end, &Inline{Kind: KindAutolink, Literal: text, Link: &LinkAttrs{Dest: dest}, fromText: true})
}

// trimAutolinkEnd drops trailing punctuation, unbalanced closing parentheses
// and a trailing entity-like suffix from s[start:end].
func trimAutolinkEnd(s string, start, end int) int {
	for end > start {
		c := s[end-1]
		switch {
		case strings.IndexByte("?!.,:*_~'\"", c) >= 0:
			end--
			continue
		case c == ')':
			link := s[start:end]
			if strings.Count(link, ")") > strings.Count(link, "(") {
				end--
				continue
			}
		case c == ';':
			k := end - 2
			for k > start && isLetterDigit(s[k]) {
				k--
			}
			if k > start && s[k] == '&' && k < end-2 {
				end = k
				continue
			}
		}
		break
	}
	return end
}

// validAutolinkDomain checks the host part of an autolink literal: segments of
// letters, digits, `-` and `_`, with no underscore in the last two.
func validAutolinkDomain(rest string, needDot bool) bool {
	host := rest
	if k := strings.IndexAny(rest, "/?#:"); k >= 0 {
		host = rest[:k]
	}
	if host == "" {
		return false
	}
	segments := strings.Split(host, ".")
	if needDot && len(segments) < 2 {
		return false
	}
	for k, seg := range segments {
		if seg == "" && k != len(segments)-1 {
			return false
		}
		for j := 0; j < len(seg); j++ {
			c := seg[j]
			if !isLetterDigit(c) && c != '-' && c != '_' && c < 0x80 {
				return false
			}
			if c == '_' && k >= len(segments)-2 {
				return false
			}
		}
	}
	return true
}
