package md

import (
	"strings"

	"golang.org/x/net/html/atom"
)

// htmlBlockKind numbers the seven HTML block start conditions.
type htmlBlockKind int

const (
	htmlNone         htmlBlockKind = iota
	htmlRawBlock                   // <pre>, <script>, <style>, <textarea>
	htmlCommentBlock               // <!-- ... -->
	htmlPIBlock                    // <? ... ?>
	htmlDeclBlock                  // <!X ... >
	htmlCDATABlock                 // <![CDATA[ ... ]]>
	htmlBlockTag                   // known block-level tag, ends at a blank line
	htmlCompleteTag                // any complete tag alone on its line
)

var rawBlockTags = []string{"pre", "script", "style", "textarea"}

var blockTagNames = []string{
	"address", "article", "aside", "base", "basefont", "blockquote", "body",
	"caption", "center", "col", "colgroup", "dd", "details", "dialog", "dir",
	"div", "dl", "dt", "fieldset", "figcaption", "figure", "footer", "form",
	"frame", "frameset", "h1", "h2", "h3", "h4", "h5", "h6", "head", "header",
	"hr", "html", "iframe", "legend", "li", "link", "main", "menu", "menuitem",
	"nav", "noframes", "ol", "optgroup", "option", "p", "param", "search",
	"section", "summary", "table", "tbody", "td", "tfoot", "th", "thead",
	"title", "tr", "track", "ul",
}

// blockTags indexes block-level tag names by atom. Names the atom table does
// not know are kept in blockTagsExtra.
var blockTags, blockTagsExtra = func() (map[atom.Atom]bool, map[string]bool) {
	known := make(map[atom.Atom]bool, len(blockTagNames))
	extra := make(map[string]bool)
	for _, name := range blockTagNames {
		if a := atom.Lookup([]byte(name)); a != 0 {
			known[a] = true
		} else {
			extra[name] = true
		}
	}
	return known, extra
}()

func isBlockTag(name string) bool {
	name = strings.ToLower(name)
	if a := atom.Lookup([]byte(name)); a != 0 {
		return blockTags[a]
	}
	return blockTagsExtra[name]
}

// htmlBlockStart classifies t, a line stripped of its indentation.
func htmlBlockStart(t string) htmlBlockKind {
	if len(t) < 2 || t[0] != '<' {
		return htmlNone
	}
	lower := strings.ToLower(t)
	for _, name := range rawBlockTags {
		if rest, ok := strings.CutPrefix(lower, "<"+name); ok {
			if rest == "" || rest[0] == ' ' || rest[0] == '\t' || rest[0] == '>' {
				return htmlRawBlock
			}
		}
	}
	switch {
	case strings.HasPrefix(t, "<!--"):
		return htmlCommentBlock
	case strings.HasPrefix(t, "<?"):
		return htmlPIBlock
	case strings.HasPrefix(t, "<![CDATA["):
		return htmlCDATABlock
	case len(t) > 2 && t[1] == '!' && isLetter(t[2]):
		return htmlDeclBlock
	}

	i := 1
	if t[i] == '/' {
		i++
	}
	k := i
	for k < len(t) && (isLetterDigit(t[k]) || t[k] == '-') {
		k++
	}
	if k > i && isLetter(t[i]) && isBlockTag(t[i:k]) {
		if k == len(t) || t[k] == ' ' || t[k] == '\t' || t[k] == '>' || strings.HasPrefix(t[k:], "/>") {
			return htmlBlockTag
		}
	}

	end := scanOpenTag(t, 0)
	if end < 0 {
		end = scanClosingTag(t, 0)
	}
	if end > 0 && isBlankString(t[end:]) {
		name := t[i:k]
		for _, raw := range rawBlockTags {
			if strings.EqualFold(name, raw) {
				return htmlNone
			}
		}
		return htmlCompleteTag
	}
	return htmlNone
}

// htmlBlockEnds reports whether text contains the end condition of a block of
// the given kind. Kinds 6 and 7 end at a blank line instead.
func htmlBlockEnds(kind htmlBlockKind, text string) bool {
	switch kind {
	case htmlRawBlock:
		lower := strings.ToLower(text)
		for _, name := range rawBlockTags {
			if strings.Contains(lower, "</"+name+">") {
				return true
			}
		}
	case htmlCommentBlock:
		return strings.Contains(text, "-->")
	case htmlPIBlock:
		return strings.Contains(text, "?>")
	case htmlDeclBlock:
		return strings.Contains(text, ">")
	case htmlCDATABlock:
		return strings.Contains(text, "]]>")
	}
	return false
}

func (s *blockScanner) htmlBlock(l line) bool {
	_, n := l.indent()
	kind := htmlBlockStart(l.text[n:])
	if kind == htmlNone {
		return false
	}
	var text []string
	j := s.i
	for ; j < len(s.lines); j++ {
		cl := s.lines[j]
		if kind >= htmlBlockTag && cl.isBlank() {
			break
		}
		text = append(text, cl.text)
		if kind < htmlBlockTag && htmlBlockEnds(kind, cl.text) {
			j++
			break
		}
	}
	s.emit(&RawBlock{
		Kind:    KindHTMLBlock,
		Span:    Span{l.start, s.lines[j-1].end()},
		Literal: strings.Join(text, "\n"),
	})
	s.i = j
	return true
}

// scanHTMLTag matches any inline raw HTML construct at s[i], which must be
// '<'. It returns the index just past the construct or -1.
func scanHTMLTag(s string, i int) int {
	if i+1 >= len(s) || s[i] != '<' {
		return -1
	}
	switch s[i+1] {
	case '/':
		return scanClosingTag(s, i)
	case '?':
		if k := strings.Index(s[i+2:], "?>"); k >= 0 {
			return i + 2 + k + 2
		}
		return -1
	case '!':
		rest := s[i+2:]
		switch {
		case strings.HasPrefix(rest, "-->"):
			return i + 5
		case strings.HasPrefix(rest, "--->"):
			return i + 6
		case strings.HasPrefix(rest, "--"):
			if k := strings.Index(rest[2:], "-->"); k >= 0 {
				return i + 4 + k + 3
			}
			return -1
		case strings.HasPrefix(rest, "[CDATA["):
			if k := strings.Index(rest[7:], "]]>"); k >= 0 {
				return i + 9 + k + 3
			}
			return -1
		case rest != "" && isLetter(rest[0]):
			if k := strings.IndexByte(rest, '>'); k >= 0 {
				return i + 2 + k + 1
			}
			return -1
		}
		return -1
	}
	return scanOpenTag(s, i)
}

// scanTagName matches an HTML tag name at s[i].
func scanTagName(s string, i int) int {
	if i >= len(s) || !isLetter(s[i]) {
		return -1
	}
	i++
	for i < len(s) && (isLetterDigit(s[i]) || s[i] == '-') {
		i++
	}
	return i
}

// skipTagSpace skips spaces, tabs and at most one line ending.
func skipTagSpace(s string, i int) int {
	newlines := 0
	for i < len(s) {
		switch s[i] {
		case ' ', '\t':
		case '\n':
			newlines++
			if newlines > 1 {
				return i
			}
		default:
			return i
		}
		i++
	}
	return i
}

func scanOpenTag(s string, i int) int {
	if i >= len(s) || s[i] != '<' {
		return -1
	}
	j := scanTagName(s, i+1)
	if j < 0 {
		return -1
	}
	for {
		k := skipTagSpace(s, j)
		if k >= len(s) {
			return -1
		}
		if s[k] == '>' {
			return k + 1
		}
		if s[k] == '/' {
			if k+1 < len(s) && s[k+1] == '>' {
				return k + 2
			}
			return -1
		}
		if k == j {
			return -1
		}
		a := scanAttribute(s, k)
		if a < 0 {
			return -1
		}
		j = a
	}
}

// scanAttribute matches `name` or `name = value` at s[i].
func scanAttribute(s string, i int) int {
	if i >= len(s) {
		return -1
	}
	c := s[i]
	if !isLetter(c) && c != '_' && c != ':' {
		return -1
	}
	i++
	for i < len(s) && (isLetterDigit(s[i]) || strings.IndexByte("_.:-", s[i]) >= 0) {
		i++
	}
	k := skipTagSpace(s, i)
	if k >= len(s) || s[k] != '=' {
		return i
	}
	k = skipTagSpace(s, k+1)
	if k >= len(s) {
		return -1
	}
	switch s[k] {
	case '"', '\'':
		end := strings.IndexByte(s[k+1:], s[k])
		if end < 0 {
			return -1
		}
		return k + 1 + end + 1
	}
	start := k
	for k < len(s) && strings.IndexByte(" \t\n\"'=<>`", s[k]) < 0 {
		k++
	}
	if k == start {
		return -1
	}
	return k
}

func scanClosingTag(s string, i int) int {
	if i+1 >= len(s) || s[i] != '<' || s[i+1] != '/' {
		return -1
	}
	j := scanTagName(s, i+2)
	if j < 0 {
		return -1
	}
	j = skipTagSpace(s, j)
	if j >= len(s) || s[j] != '>' {
		return -1
	}
	return j + 1
}
