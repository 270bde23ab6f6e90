package md

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// maxLabelLength bounds link and footnote labels.
const maxLabelLength = 999

// maxDestinationParens bounds parenthesis nesting in a bare link destination.
const maxDestinationParens = 32

// normalizeLabel folds a link label for matching: surrounding whitespace is
// trimmed, inner runs of whitespace collapse to one space and letters are
// Unicode case folded.
func normalizeLabel(label string) string {
	label = strings.Join(strings.Fields(label), " ")
	ascii := true
	for i := 0; i < len(label); i++ {
		if label[i] >= utf8.RuneSelf {
			ascii = false
			break
		}
	}
	if ascii {
		return strings.ToLower(label)
	}
	return cases.Fold().String(label)
}

// parseLinkLabel matches `[label]` at s[i]. It returns the raw label text and
// the index just past the closing bracket.
func parseLinkLabel(s string, i int) (string, int, bool) {
	if i >= len(s) || s[i] != '[' {
		return "", 0, false
	}
	j := i + 1
	for j < len(s) {
		switch s[j] {
		case '\\':
			j++
		case '[':
			return "", 0, false
		case ']':
			label := s[i+1 : j]
			if len(label) > maxLabelLength || isBlankString(strings.ReplaceAll(label, "\n", "")) {
				return "", 0, false
			}
			return label, j + 1, true
		}
		j++
		if j-i > maxLabelLength+2 {
			return "", 0, false
		}
	}
	return "", 0, false
}

// parseLinkDestination matches a destination at s[i], either `<...>` or a
// bare run with balanced parentheses. The result is still escaped.
func parseLinkDestination(s string, i int) (string, int, bool) {
	if i >= len(s) {
		return "", 0, false
	}
	if s[i] == '<' {
		for j := i + 1; j < len(s); j++ {
			switch s[j] {
			case '\\':
				j++
			case '\n', '<':
				return "", 0, false
			case '>':
				return s[i+1 : j], j + 1, true
			}
		}
		return "", 0, false
	}
	depth := 0
	j := i
	for j < len(s) {
		c := s[j]
		if c == '\\' && j+1 < len(s) && isASCIIPunct(s[j+1]) {
			j += 2
			continue
		}
		if c <= ' ' || c == 0x7f {
			break
		}
		if c == '(' {
			depth++
			if depth > maxDestinationParens {
				return "", 0, false
			}
		}
		if c == ')' {
			if depth == 0 {
				break
			}
			depth--
		}
		j++
	}
	if j == i || depth != 0 {
		return "", 0, false
	}
	return s[i:j], j, true
}

// parseLinkTitle matches a `"title"`, `'title'` or `(title)` at s[i]. A title
// may span lines but not contain a blank line.
func parseLinkTitle(s string, i int) (string, int, bool) {
	if i >= len(s) {
		return "", 0, false
	}
	closer := s[i]
	switch closer {
	case '"', '\'':
	case '(':
		closer = ')'
	default:
		return "", 0, false
	}
	for j := i + 1; j < len(s); j++ {
		switch c := s[j]; {
		case c == '\\':
			j++
		case c == closer:
			return s[i+1 : j], j + 1, true
		case c == '(' && closer == ')':
			return "", 0, false
		case c == '\n':
			k := j + 1
			for k < len(s) && (s[k] == ' ' || s[k] == '\t') {
				k++
			}
			if k >= len(s) || s[k] == '\n' {
				return "", 0, false
			}
		}
	}
	return "", 0, false
}

// skipSpaceNewline skips spaces and tabs with at most one line ending. It
// reports whether anything was skipped.
func skipSpaceNewline(s string, i int) (int, bool) {
	start := i
	seenNewline := false
	for i < len(s) {
		switch s[i] {
		case ' ', '\t':
		case '\n':
			if seenNewline {
				return i, i > start
			}
			seenNewline = true
		default:
			return i, i > start
		}
		i++
	}
	return i, i > start
}

// lineRestBlank reports where the current line ends if only spaces and tabs
// remain on it.
func lineRestBlank(s string, i int) (int, bool) {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	if i == len(s) {
		return i, true
	}
	if s[i] == '\n' {
		return i + 1, true
	}
	return 0, false
}

// refDef is a link reference definition recognized in paragraph text.
type refDef struct {
	label string
	dest  string
	title string
	start int
	end   int
}

// parseRefDef matches `[label]: dest "title"` at s[i]. end is just past the
// definition's final line ending.
func parseRefDef(s string, i int) (refDef, bool) {
	label, j, ok := parseLinkLabel(s, i)
	if !ok || strings.HasPrefix(label, "^") || j >= len(s) || s[j] != ':' {
		return refDef{}, false
	}
	if normalizeLabel(label) == "" {
		return refDef{}, false
	}
	j, _ = skipSpaceNewline(s, j+1)
	dest, j, ok := parseLinkDestination(s, j)
	if !ok {
		return refDef{}, false
	}
	def := refDef{label: label, dest: unescapeString(dest), start: i}
	if t, spaced := skipSpaceNewline(s, j); spaced {
		if title, k, ok := parseLinkTitle(s, t); ok {
			if end, ok := lineRestBlank(s, k); ok {
				def.title = unescapeString(title)
				def.end = end
				return def, true
			}
		}
	}
	end, ok := lineRestBlank(s, j)
	if !ok {
		return refDef{}, false
	}
	def.end = end
	return def, true
}

// extractDefinitions peels link reference definitions off the start of a
// paragraph. It returns the definitions and the remaining lines.
func (s *blockScanner) extractDefinitions(lines []line) ([]*RawBlock, []line) {
	if len(lines) == 0 {
		return nil, lines
	}
	_, n := lines[0].indent()
	if n >= len(lines[0].text) || lines[0].text[n] != '[' {
		return nil, lines
	}
	trimmed := make([]line, len(lines))
	for k, l := range lines {
		trimmed[k] = l.trimLeft()
	}
	c := newContent(trimmed)
	var defs []*RawBlock
	pos := 0
	for pos < len(c.Text) {
		d, ok := parseRefDef(c.Text, pos)
		if !ok {
			break
		}
		end := d.end
		if end > 0 && end <= len(c.Text) && c.Text[end-1] == '\n' {
			end--
		}
		defs = append(defs, &RawBlock{
			Kind:      KindLinkReferenceDef,
			Span:      Span{c.Source(d.start), c.Source(end)},
			Label:     d.label,
			Dest:      d.dest,
			LinkTitle: d.title,
		})
		pos = d.end
	}
	if len(defs) == 0 {
		return nil, lines
	}
	if pos >= len(c.Text) {
		return defs, nil
	}
	consumed := strings.Count(c.Text[:pos], "\n")
	return defs, lines[consumed:]
}
