package md

import "strings"

// delim is an entry of the emphasis delimiter stack.
type delim struct {
	node     *inode
	char     byte
	count    int // markers still available
	orig     int // length of the original run
	canOpen  bool
	canClose bool
	prev     *delim
	next     *delim
}

// delimiterRun scans a run of `*`, `_` or `~` and pushes it on the
// delimiter stack when it can open or close. Flanking is decided from the
// characters around the run.
func (p *inlineParser) delimiterRun(i int) int {
	c := p.text[i]
	n := runLength(p.text, i, c)
	end := i + n
	if c == '~' && n > 2 {
		return end
	}
	before := runeBefore(p.text, i)
	after := runeAt(p.text, end)
	afterSpace, afterPunct := isUnicodeWhitespace(after), isUnicodePunct(after)
	beforeSpace, beforePunct := isUnicodeWhitespace(before), isUnicodePunct(before)
	left := !afterSpace && (!afterPunct || beforeSpace || beforePunct)
	right := !beforeSpace && (!beforePunct || afterSpace || afterPunct)

	canOpen, canClose := left, right
	if c == '_' {
		canOpen = left && (!right || beforePunct)
		canClose = right && (!left || afterPunct)
	}

	p.flushText(i)
	node := p.append(&Inline{Kind: KindText, Literal: p.text[i:end], Span: Span{i, end}})
	p.pending = end
	if canOpen || canClose {
		d := &delim{node: node, char: c, count: n, orig: n, canOpen: canOpen, canClose: canClose, prev: p.delims}
		if p.delims != nil {
			p.delims.next = d
		}
		p.delims = d
	}
	return end
}

func (p *inlineParser) removeDelim(d *delim) {
	if d.prev != nil {
		d.prev.next = d.next
	}
	if d.next != nil {
		d.next.prev = d.prev
	} else {
		p.delims = d.prev
	}
}

type openerKey struct {
	char    byte
	canOpen bool
	mod     int
}

// processEmphasis pairs closers with the nearest compatible opener above
// bottom. openersBottom remembers, per closer shape, where the previous
// failed search stopped so that no opener is examined twice.
func (p *inlineParser) processEmphasis(bottom *delim) {
	var first *delim
	for d := p.delims; d != nil && d != bottom; d = d.prev {
		first = d
	}
	openersBottom := make(map[openerKey]*delim)

	closer := first
	for closer != nil {
		if !closer.canClose {
			closer = closer.next
			continue
		}
		key := openerKey{closer.char, closer.canOpen, closer.orig % 3}
		limit, seen := openersBottom[key]
		if !seen {
			limit = bottom
		}
		var opener *delim
		for o := closer.prev; o != nil && o != bottom && o != limit; o = o.prev {
			if o.char != closer.char || !o.canOpen {
				continue
			}
			if closer.char == '~' {
				if o.count == closer.count {
					opener = o
					break
				}
				continue
			}
			if (o.canClose || closer.canOpen) && (o.orig+closer.orig)%3 == 0 && !(o.orig%3 == 0 && closer.orig%3 == 0) {
				continue
			}
			opener = o
			break
		}

		if opener == nil {
			openersBottom[key] = closer.prev
			next := closer.next
			if !closer.canOpen {
				p.removeDelim(closer)
			}
			closer = next
			continue
		}

		n := 1
		kind := KindEmphasis
		switch {
		case closer.char == '~':
			n = closer.count
			kind = KindStrikethrough
		case opener.count == 3 && closer.count == 3:
			// `***x***` nests emphasis inside strong.
		case opener.count >= 2 && closer.count >= 2:
			n = 2
			kind = KindStrong
		}

		if !p.wrapEmphasis(opener, closer, n, kind) {
			openersBottom[key] = closer.prev
			next := closer.next
			p.removeDelim(closer)
			closer = next
			continue
		}

		for d := opener.next; d != nil && d != closer; d = d.next {
			p.removeDelim(d)
		}
		if opener.count == 0 {
			p.unlink(opener.node)
			p.removeDelim(opener)
		}
		if closer.count == 0 {
			next := closer.next
			p.unlink(closer.node)
			p.removeDelim(closer)
			closer = next
		}
	}

	for p.delims != nil && p.delims != bottom {
		p.removeDelim(p.delims)
	}
}

// wrapEmphasis moves the nodes between opener and closer into a new node of
// the given kind, consuming n markers from each side. It reports false when
// the result would exceed the nesting limit.
func (p *inlineParser) wrapEmphasis(opener, closer *delim, n int, kind Kind) bool {
	var children []*Inline
	for c := opener.node.next; c != nil && c != closer.node; c = c.next {
		children = append(children, c.in)
	}
	children = mergeText(children)
	depth := nodeDepth(children)
	if depth > p.opts.maxDepth {
		o, c := opener.node.in.Span, closer.node.in.Span
		p.limitExceeded(o.Start, c.End, "emphasis")
		return false
	}

	on, cn := opener.node.in, closer.node.in
	opener.count -= n
	closer.count -= n
	on.Span.End -= n
	on.Literal = strings.Repeat(string(opener.char), opener.count)
	cn.Span.Start += n
	cn.Literal = strings.Repeat(string(closer.char), closer.count)

	em := &Inline{
		Kind:     kind,
		Span:     Span{on.Span.End, cn.Span.Start},
		Children: children,
		depth:    depth,
	}
	for c := opener.node.next; c != nil && c != closer.node; {
		next := c.next
		p.unlink(c)
		c = next
	}
	emNode := &inode{in: em, prev: opener.node, next: closer.node}
	opener.node.next = emNode
	closer.node.prev = emNode
	return true
}
