package analysis

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/derekparker/trie"
	"github.com/sahilm/fuzzy"

	"github.com/open-cli-collective/marco/pkg/md"
)

// SuggestionKind groups completions for display.
type SuggestionKind uint8

const (
	SuggestSyntax SuggestionKind = iota
	SuggestLanguage
	SuggestEmoji
	SuggestPlatform
	SuggestAnchor
	SuggestLinkLabel
	SuggestFootnote
	SuggestAdmonition
	SuggestDirective
)

var suggestionKindNames = [...]string{
	SuggestSyntax:     "syntax",
	SuggestLanguage:   "language",
	SuggestEmoji:      "emoji",
	SuggestPlatform:   "platform",
	SuggestAnchor:     "anchor",
	SuggestLinkLabel:  "link-label",
	SuggestFootnote:   "footnote",
	SuggestAdmonition: "admonition",
	SuggestDirective:  "directive",
}

func (k SuggestionKind) String() string {
	if int(k) < len(suggestionKindNames) {
		return suggestionKindNames[k]
	}
	return "unknown"
}

// MarshalText encodes the kind by name.
func (k SuggestionKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Suggestion is one completion candidate. Insert replaces the source bytes
// covered by Replace, which is empty when nothing has been typed yet.
type Suggestion struct {
	Label   string         `json:"label"`
	Kind    SuggestionKind `json:"kind"`
	Detail  string         `json:"detail,omitempty"`
	Insert  string         `json:"insert"`
	Replace md.Span        `json:"replace"`
}

// maxRanked caps fuzzy-ranked candidate lists.
const maxRanked = 20

// commonLanguages are offered on a bare code fence.
var commonLanguages = []string{
	"rust", "python", "javascript", "typescript", "java", "c", "cpp", "go",
	"bash", "shell", "json", "yaml", "toml", "html", "css", "sql",
}

var entities = []struct{ name, detail string }{
	{"&amp;", "Ampersand (&)"},
	{"&lt;", "Less than (<)"},
	{"&gt;", "Greater than (>)"},
	{"&quot;", `Double quote (")`},
	{"&apos;", "Apostrophe (')"},
	{"&nbsp;", "Non-breaking space"},
	{"&copy;", "Copyright (©)"},
	{"&reg;", "Registered (®)"},
	{"&trade;", "Trademark (™)"},
	{"&euro;", "Euro (€)"},
	{"&hellip;", "Ellipsis (…)"},
	{"&mdash;", "Em dash"},
	{"&ndash;", "En dash"},
}

var (
	fenceRe     = regexp.MustCompile("^ {0,3}(`{3,}|~{3,})([A-Za-z0-9_+#.-]*)$")
	containerRe = regexp.MustCompile(`^\s*:::([A-Za-z]*)$`)
	directiveRe = regexp.MustCompile(`^\s*@([a-z]*)$`)
	platformRe  = regexp.MustCompile(`(?:^|[^\w@])@[\w.-]+\[([A-Za-z]*)$`)
	anchorRe    = regexp.MustCompile(`\]\(#([^\s)]*)$`)
	footnoteRe  = regexp.MustCompile(`\[\^([^\]\s]*)$`)
	refLabelRe  = regexp.MustCompile(`\]\[([^\]]*)$`)
	emojiRe     = regexp.MustCompile(`(?:^|\s):([a-z0-9_+-]+)$`)
)

// Completer answers completion requests. It indexes an emoji table and the
// mention platforms once and is safe for concurrent use.
type Completer struct {
	emoji     *md.EmojiTable
	emojiIdx  *trie.Trie
	platforms *trie.Trie
	languages []string
}

// NewCompleter returns a completer offering shortcodes from table. A nil
// table selects md.DefaultEmojiTable().
func NewCompleter(table *md.EmojiTable) *Completer {
	if table == nil {
		table = md.DefaultEmojiTable()
	}
	c := &Completer{emoji: table, emojiIdx: trie.New(), platforms: trie.New()}
	for _, name := range table.Names() {
		c.emojiIdx.Add(name, nil)
	}
	for _, name := range md.Platforms() {
		c.platforms.Add(name, nil)
	}
	seen := make(map[string]bool)
	for _, name := range lexers.Names(true) {
		if isInfoWord(name) && !seen[name] {
			seen[name] = true
			c.languages = append(c.languages, name)
		}
	}
	return c
}

var defaultCompleter = sync.OnceValue(func() *Completer {
	return NewCompleter(nil)
})

// GetCompletions returns suggestions for the cursor at pos using the
// default completer.
func GetCompletions(doc *md.Document, pos md.Position) []Suggestion {
	return defaultCompleter().Complete(doc, pos)
}

// request is the cursor context of one completion call.
type request struct {
	doc       *md.Document
	off       int
	lineStart int
	before    string
	atEOL     bool
}

// replace returns the span of the n bytes typed before the cursor.
func (r *request) replace(n int) md.Span {
	return md.Span{Start: r.off - n, End: r.off}
}

// Complete returns suggestions for the cursor at pos. Line and Column of pos
// select the cursor; Offset is ignored. Dialect contexts (fences, containers,
// directives, mentions, references, emoji) are specific and answered alone;
// otherwise the generic Markdown syntax suggestions for the line apply.
// Nothing is suggested inside code or math.
func (c *Completer) Complete(doc *md.Document, pos md.Position) []Suggestion {
	if doc == nil || pos.Line < 0 || pos.Line >= doc.Lines().LineCount() || pos.Column < 0 {
		return nil
	}
	r := &request{
		doc:       doc,
		off:       doc.Offset(pos.Line, pos.Column),
		lineStart: doc.Offset(pos.Line, 0),
	}
	r.before = doc.Source[r.lineStart:r.off]
	r.atEOL = r.off == r.lineStart+len(doc.Lines().Line(pos.Line))

	if m := fenceRe.FindStringSubmatch(r.before); m != nil {
		if r.insideCode(true) {
			return nil
		}
		return c.languageSuggestions(r, m[2])
	}
	if r.insideCode(false) {
		return nil
	}

	for _, fn := range []func(*request) []Suggestion{
		c.containerSuggestions,
		c.directiveSuggestions,
		c.platformSuggestions,
		c.anchorSuggestions,
		c.footnoteSuggestions,
		c.refLabelSuggestions,
		c.emojiSuggestions,
	} {
		if out := fn(r); out != nil {
			return out
		}
	}
	return syntaxSuggestions(r)
}

// insideCode reports whether the cursor sits inside code or math. With
// fenceLine set only a block opened on an earlier line counts, so the
// opening fence being typed is not mistaken for code.
func (r *request) insideCode(fenceLine bool) bool {
	doc := r.doc
	for _, id := range doc.Ancestors(doc.NodeAt(r.off)) {
		n := doc.Node(id)
		switch n.Kind {
		case md.KindCodeBlock, md.KindHTMLBlock, md.KindFrontMatter:
			if fenceLine {
				// A fence closing an earlier block is not an opener.
				if n.Span.Start < r.lineStart && r.off <= n.Span.End {
					return true
				}
				continue
			}
			if n.Span.Start < r.off && r.off < n.Span.End {
				return true
			}
		case md.KindCodeSpan, md.KindMath:
			if n.Span.Start < r.off && r.off < n.Span.End {
				return true
			}
		}
	}
	return false
}

func (c *Completer) languageSuggestions(r *request, typed string) []Suggestion {
	names := commonLanguages
	if typed != "" {
		names = rank(strings.ToLower(typed), c.languages)
	}
	out := make([]Suggestion, 0, len(names))
	for _, name := range names {
		out = append(out, Suggestion{
			Label:   name,
			Kind:    SuggestLanguage,
			Detail:  "Code block language",
			Insert:  name,
			Replace: r.replace(len(typed)),
		})
	}
	return out
}

func (c *Completer) containerSuggestions(r *request) []Suggestion {
	m := containerRe.FindStringSubmatch(r.before)
	if m == nil {
		return nil
	}
	typed := strings.ToLower(m[1])
	var out []Suggestion
	for _, kind := range []md.AdmonitionKind{md.AdmonitionNote, md.AdmonitionTip, md.AdmonitionImportant, md.AdmonitionWarning, md.AdmonitionCaution} {
		name := kind.String()
		if strings.HasPrefix(name, typed) {
			out = append(out, Suggestion{
				Label:   name,
				Kind:    SuggestAdmonition,
				Detail:  "Admonition",
				Insert:  name + "\n\n:::",
				Replace: r.replace(len(m[1])),
			})
		}
	}
	if strings.HasPrefix("tab", typed) {
		out = append(out, Suggestion{
			Label:   "tab",
			Kind:    SuggestDirective,
			Detail:  "Tab group",
			Insert:  "tab\n@tab Title\n\n:::",
			Replace: r.replace(len(m[1])),
		})
	}
	return emptyAsMatched(out)
}

func (c *Completer) directiveSuggestions(r *request) []Suggestion {
	m := directiveRe.FindStringSubmatch(r.before)
	if m == nil {
		return nil
	}
	inTabs := false
	for _, id := range r.doc.Ancestors(r.doc.NodeAt(r.off)) {
		if r.doc.Kind(id) == md.KindTabGroup {
			inTabs = true
			break
		}
	}

	type directive struct{ name, detail, insert string }
	directives := []directive{
		{"slidestart", "Start a slide deck", "slidestart\n\n@slideend"},
		{"slideend", "End a slide deck", "slideend"},
	}
	tab := directive{"tab", "Start a tab", "tab "}
	if inTabs {
		directives = append([]directive{tab}, directives...)
	} else {
		directives = append(directives, tab)
	}

	var out []Suggestion
	for _, d := range directives {
		if strings.HasPrefix(d.name, m[1]) {
			out = append(out, Suggestion{
				Label:   "@" + d.name,
				Kind:    SuggestDirective,
				Detail:  d.detail,
				Insert:  d.insert,
				Replace: r.replace(len(m[1])),
			})
		}
	}
	return emptyAsMatched(out)
}

func (c *Completer) platformSuggestions(r *request) []Suggestion {
	m := platformRe.FindStringSubmatch(r.before)
	if m == nil {
		return nil
	}
	names := sortedPrefix(c.platforms, strings.ToLower(m[1]))
	out := make([]Suggestion, 0, len(names))
	for _, name := range names {
		out = append(out, Suggestion{
			Label:   name,
			Kind:    SuggestPlatform,
			Detail:  "Mention platform",
			Insert:  name + "]",
			Replace: r.replace(len(m[1])),
		})
	}
	return emptyAsMatched(out)
}

func (c *Completer) anchorSuggestions(r *request) []Suggestion {
	m := anchorRe.FindStringSubmatch(r.before)
	if m == nil {
		return nil
	}
	var ids []string
	titles := make(map[string]string)
	r.doc.Walk(r.doc.Root(), func(id md.NodeID, entering bool) md.WalkStatus {
		if n := r.doc.Node(id); entering && n.Kind == md.KindHeading && n.ID != "" {
			if _, dup := titles[n.ID]; !dup {
				ids = append(ids, n.ID)
				titles[n.ID] = r.doc.PlainText(id)
			}
		}
		return md.WalkContinue
	})
	if m[1] != "" {
		ids = rank(m[1], ids)
	}
	out := make([]Suggestion, 0, len(ids))
	for _, id := range ids {
		out = append(out, Suggestion{
			Label:   "#" + id,
			Kind:    SuggestAnchor,
			Detail:  titles[id],
			Insert:  id + ")",
			Replace: r.replace(len(m[1])),
		})
	}
	return emptyAsMatched(out)
}

func (c *Completer) footnoteSuggestions(r *request) []Suggestion {
	m := footnoteRe.FindStringSubmatch(r.before)
	if m == nil {
		return nil
	}
	var labels []string
	for _, def := range r.doc.Definitions().Footnotes() {
		labels = append(labels, def.Label)
	}
	if m[1] != "" {
		labels = rank(m[1], labels)
	}
	out := make([]Suggestion, 0, len(labels))
	for _, label := range labels {
		out = append(out, Suggestion{
			Label:   "[^" + label + "]",
			Kind:    SuggestFootnote,
			Detail:  "Footnote",
			Insert:  label + "]",
			Replace: r.replace(len(m[1])),
		})
	}
	return emptyAsMatched(out)
}

func (c *Completer) refLabelSuggestions(r *request) []Suggestion {
	m := refLabelRe.FindStringSubmatch(r.before)
	if m == nil {
		return nil
	}
	var labels []string
	dests := make(map[string]string)
	for _, def := range r.doc.Definitions().Links() {
		labels = append(labels, def.Label)
		dests[def.Label] = def.Dest
	}
	if m[1] != "" {
		labels = rank(m[1], labels)
	}
	out := make([]Suggestion, 0, len(labels))
	for _, label := range labels {
		out = append(out, Suggestion{
			Label:   label,
			Kind:    SuggestLinkLabel,
			Detail:  dests[label],
			Insert:  label + "]",
			Replace: r.replace(len(m[1])),
		})
	}
	return emptyAsMatched(out)
}

func (c *Completer) emojiSuggestions(r *request) []Suggestion {
	m := emojiRe.FindStringSubmatch(r.before)
	if m == nil {
		return nil
	}
	names := sortedPrefix(c.emojiIdx, m[1])
	out := make([]Suggestion, 0, len(names))
	for _, name := range names {
		glyph, _ := c.emoji.Lookup(name)
		out = append(out, Suggestion{
			Label:   ":" + name + ":",
			Kind:    SuggestEmoji,
			Detail:  glyph,
			Insert:  name + ":",
			Replace: r.replace(len(m[1])),
		})
	}
	return emptyAsMatched(out)
}

// emptyAsMatched keeps a matched context with no candidates from falling
// through to the generic suggestions.
func emptyAsMatched(out []Suggestion) []Suggestion {
	if out == nil {
		return []Suggestion{}
	}
	return out
}

func sortedPrefix(t *trie.Trie, prefix string) []string {
	names := t.PrefixSearch(prefix)
	sort.Strings(names)
	return names
}

// rank orders candidates for pattern: an exact match first, then prefix
// matches by length, then the remaining fuzzy matches by score.
func rank(pattern string, candidates []string) []string {
	var exact, prefix, rest []string
	taken := make(map[string]bool)
	lower := strings.ToLower(pattern)
	for _, c := range candidates {
		switch lc := strings.ToLower(c); {
		case lc == lower:
			exact = append(exact, c)
			taken[c] = true
		case strings.HasPrefix(lc, lower):
			prefix = append(prefix, c)
			taken[c] = true
		}
	}
	sort.SliceStable(prefix, func(i, j int) bool {
		if len(prefix[i]) != len(prefix[j]) {
			return len(prefix[i]) < len(prefix[j])
		}
		return prefix[i] < prefix[j]
	})
	for _, match := range fuzzy.Find(pattern, candidates) {
		if !taken[match.Str] {
			rest = append(rest, match.Str)
			taken[match.Str] = true
		}
	}

	out := append(append(exact, prefix...), rest...)
	if len(out) > maxRanked {
		out = out[:maxRanked]
	}
	return out
}

func isInfoWord(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '+', r == '#', r == '.', r == '-':
		default:
			return false
		}
	}
	return true
}

// syntaxSuggestions returns the generic Markdown snippets for the text
// before the cursor.
func syntaxSuggestions(r *request) []Suggestion {
	b := &suggestionList{seen: make(map[string]bool), at: r.replace(0)}
	before := r.before
	trimmed := strings.TrimSpace(before)

	if trimmed == "" {
		for level := 1; level <= 6; level++ {
			b.add("Heading "+strconv.Itoa(level), strings.Repeat("#", level)+" ")
		}
		for _, lang := range commonLanguages {
			b.add("Code Block ("+lang+")", "```"+lang+"\n\n```")
		}
		b.add("Code Block (no language)", "```\n\n```")
		addListSuggestions(b)
		b.add("Block quote", "> ")
		b.add("Nested block quote", "> > ")
		b.add("Thematic break (---)", "---")
		b.add("Thematic break (***)", "***")
		b.add("Thematic break (___)", "___")
		b.add("Admonition", ":::note\n\n:::")
		b.add("Tab group", ":::tab\n@tab Title\n\n:::")
		b.add("Slide deck", "@slidestart\n\n@slideend")
		return b.out
	}

	left := strings.TrimLeft(before, " \t")
	if strings.HasPrefix(left, ">") && strings.TrimLeft(left, "> ") == "" {
		b.add("Continue block quote", "\n> ")
	}
	if strings.HasPrefix(left, "#") && strings.Trim(left, "#") == "" && len(left) < 6 {
		b.add("Continue to Heading "+strconv.Itoa(len(left)+1), "# ")
	}

	escaped := func(suffix string) bool {
		return strings.HasSuffix(before, `\`+suffix)
	}
	switch {
	case strings.HasSuffix(before, "!["):
		b.add("Image", "alt text](image.png)")
		b.add("Image with title", `alt text](image.png "title")`)
	case strings.HasSuffix(before, "[") && !escaped("["):
		b.add("Link", "text](url)")
		b.add("Link with title", `text](url "title")`)
	case strings.HasSuffix(before, "<") && !escaped("<"):
		b.add("Autolink (URL)", "https://example.com>")
		b.add("Autolink (Email)", "user@example.com>")
	case strings.HasSuffix(before, "&") && !escaped("&"):
		for _, e := range entities {
			b.add(e.name+" - "+e.detail, e.name[1:])
		}
	case strings.HasSuffix(before, "`") && !escaped("`"):
		if n := trailing(before, '`'); n == 1 || n == 3 {
			b.add("Code Span", "code"+strings.Repeat("`", n))
		}
	case strings.HasSuffix(before, "*") && !escaped("*"):
		addEmphasisSuggestion(b, '*', trailing(before, '*'))
	case strings.HasSuffix(before, "_") && !escaped("_"):
		addEmphasisSuggestion(b, '_', trailing(before, '_'))
	}

	if i := strings.LastIndexByte(before, '['); i >= 0 && !strings.Contains(before[i:], "]") {
		b.add("Complete link", "](url)")
		b.add("Complete link with title", `](url "title")`)
	}
	if r.atEOL && !strings.HasSuffix(before, `\`) {
		b.add("Hard line break (two spaces)", "  \n")
		b.add("Hard line break (backslash)", "\\\n")
	}
	return b.out
}

func addListSuggestions(b *suggestionList) {
	b.add("Unordered list item (-)", "- ")
	b.add("Unordered list item (*)", "* ")
	b.add("Unordered list item (+)", "+ ")
	b.add("Ordered list item", "1. ")
	b.add("Task list item", "- [ ] ")
}

func addEmphasisSuggestion(b *suggestionList, delim byte, n int) {
	switch n {
	case 1:
		b.add("Emphasis (italic)", "text"+string(delim))
	case 2:
		b.add("Strong (bold)", "text"+strings.Repeat(string(delim), 2))
	}
}

func trailing(s string, c byte) int {
	n := 0
	for i := len(s) - 1; i >= 0 && s[i] == c; i-- {
		n++
	}
	return n
}

type suggestionList struct {
	out  []Suggestion
	seen map[string]bool
	at   md.Span
}

func (b *suggestionList) add(label, insert string) {
	if b.seen[label] {
		return
	}
	b.seen[label] = true
	b.out = append(b.out, Suggestion{Label: label, Kind: SuggestSyntax, Insert: insert, Replace: b.at})
}

