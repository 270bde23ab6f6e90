package md

import (
	"sort"
	"strings"
)

const (
	maxMentionUser     = 128
	maxMentionPlatform = 64
	maxMentionDisplay  = 256
	maxShortcodeLength = 64
)

// emojiShortcode resolves `:name:` against the engine's emoji table.
func (p *inlineParser) emojiShortcode(i int) int {
	if p.opts.emoji == nil {
		return -1
	}
	s := p.text
	k := i + 1
	for k < len(s) && k-i <= maxShortcodeLength {
		c := s[k]
		if !isLetterDigit(c) && c != '_' && c != '+' && c != '-' {
			break
		}
		k++
	}
	if k == i+1 || k >= len(s) || s[k] != ':' {
		return -1
	}
	name := s[i+1 : k]
	glyph, ok := p.opts.emoji.Lookup(name)
	if !ok {
		return -1
	}
	return p.emit(i, k+1, &Inline{Kind: KindEmoji, Literal: glyph, Info: name})
}

// mention recognizes `@user[platform]` with an optional `(Display name)`.
func (p *inlineParser) mention(i int) int {
	s := p.text
	if i > 0 && (isLetterDigit(s[i-1]) || s[i-1] == '_' || s[i-1] == '.') {
		return -1
	}
	k := i + 1
	for k < len(s) && (isLetterDigit(s[k]) || s[k] == '_' || s[k] == '-' || s[k] == '.') {
		k++
	}
	user := s[i+1 : k]
	if user == "" || len(user) > maxMentionUser || k >= len(s) || s[k] != '[' {
		return -1
	}
	j := k + 1
	for j < len(s) && (isLetterDigit(s[j]) || s[j] == '_' || s[j] == '-') {
		j++
	}
	platform := s[k+1 : j]
	if platform == "" || len(platform) > maxMentionPlatform || j >= len(s) || s[j] != ']' {
		return -1
	}
	end := j + 1
	attrs := &MentionAttrs{User: user, Platform: strings.ToLower(platform)}
	if end < len(s) && s[end] == '(' {
		if rp := strings.IndexByte(s[end:], ')'); rp > 0 {
			display := s[end+1 : end+rp]
			if len(display) <= maxMentionDisplay && !strings.ContainsAny(display, "\n(") {
				attrs.Display = strings.TrimSpace(display)
				end += rp + 1
			}
		}
	}
	return p.emit(i, end, &Inline{Kind: KindMention, Mention: attrs})
}

// math recognizes `$inline$` and `$$display$$`. Like code spans, math content
// is opaque to every other inline rule.
func (p *inlineParser) math(i int) int {
	s := p.text
	if strings.HasPrefix(s[i:], "$$") {
		if p.noDisplay >= 0 && i+2 >= p.noDisplay {
			return i + 2
		}
		rel := strings.Index(s[i+2:], "$$")
		if rel < 0 {
			p.noDisplay = i + 2
			return i + 2
		}
		body := s[i+2 : i+2+rel]
		if isBlankString(strings.ReplaceAll(body, "\n", "")) || strings.Contains(body, "\n\n") {
			return i + 2
		}
		return p.emit(i, i+2+rel+2, &Inline{Kind: KindMath, Display: true, Literal: strings.TrimSpace(body)})
	}

	if i+1 >= len(s) || s[i+1] == ' ' || s[i+1] == '\t' || s[i+1] == '\n' {
		return -1
	}
	if p.mathClosers == nil {
		p.mathClosers = []int{}
		for k := 1; k < len(s); k++ {
			if s[k] != '$' || isSpaceTabNewline(s[k-1]) || s[k-1] == '\\' {
				continue
			}
			if k+1 < len(s) && isDigit(s[k+1]) {
				continue
			}
			p.mathClosers = append(p.mathClosers, k)
		}
	}
	k := sort.SearchInts(p.mathClosers, i+2)
	if k >= len(p.mathClosers) {
		return -1
	}
	end := p.mathClosers[k]
	body := s[i+1 : end]
	if strings.Contains(body, "\n\n") || strings.IndexByte(body, '`') >= 0 {
		return -1
	}
	return p.emit(i, end+1, &Inline{Kind: KindMath, Literal: body})
}

// inlineFootnote recognizes `^[note text]` on a single line. The note is
// parsed as inline content one level deeper.
func (p *inlineParser) inlineFootnote(i int) int {
	s := p.text
	if i+1 >= len(s) || s[i+1] != '[' {
		return -1
	}
	if p.bracketPairs == nil {
		p.bracketPairs = matchBrackets(s)
	}
	last, ok := p.bracketPairs[i+1]
	if !ok || last == i+2 {
		return -1
	}
	if p.level+1 >= p.opts.maxDepth {
		p.limitExceeded(i, last+1, "inline footnote")
		return -1
	}
	children := parseInlineLevel(p.c.Slice(i+2, last), p.opts, p.level+1)
	shiftSpans(children, i+2)
	return p.emit(i, last+1, &Inline{Kind: KindInlineFootnote, Children: children, depth: nodeDepth(children)})
}

// matchBrackets pairs every `[` with its balancing `]` on the same line.
// Escaped brackets are skipped.
func matchBrackets(s string) map[int]int {
	pairs := make(map[int]int)
	var open []int
	for k := 0; k < len(s); k++ {
		switch s[k] {
		case '\\':
			k++
		case '\n':
			open = open[:0]
		case '[':
			open = append(open, k)
		case ']':
			if n := len(open); n > 0 {
				pairs[open[n-1]] = k
				open = open[:n-1]
			}
		}
	}
	return pairs
}
