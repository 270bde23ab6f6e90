// builder.go turns raw blocks into the Document arena. The first pass collects
// link and footnote definitions; the second converts blocks and parses their
// inline content against the complete definition set.
package md

import (
	"fmt"
	"strings"
	"unicode"
)

type builder struct {
	doc    *Document
	defs   *Definitions
	diags  *diagnostics
	inline inlineOptions
	slugs  map[string]int
}

// build assembles a Document from the output of the block grammar.
func build(src string, blocks []*RawBlock, diags *diagnostics, emoji *EmojiTable, maxDepth int) *Document {
	defs := NewDefinitions()
	b := &builder{
		doc:   &Document{Source: src, defs: defs, lines: NewLineIndex(src)},
		defs:  defs,
		diags: diags,
		inline: inlineOptions{
			defs:     defs,
			emoji:    emoji,
			diags:    diags,
			maxDepth: maxDepth,
		},
		slugs: make(map[string]int),
	}
	b.collectDefinitions(blocks)
	root := b.add(NoNode, Node{Kind: KindDocument, Span: Span{0, len(src)}})
	for _, rb := range blocks {
		b.block(root, rb, true)
	}
	b.doc.diagnostics = diags.sorted()
	return b.doc
}

// collectDefinitions walks the raw tree and records every definition. The
// first definition of a label wins.
func (b *builder) collectDefinitions(blocks []*RawBlock) {
	stack := make([]*RawBlock, 0, len(blocks))
	for k := len(blocks) - 1; k >= 0; k-- {
		stack = append(stack, blocks[k])
	}
	for len(stack) > 0 {
		rb := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		switch rb.Kind {
		case KindLinkReferenceDef:
			if !b.defs.addLink(LinkDefinition{Label: rb.Label, Dest: rb.Dest, Title: rb.LinkTitle, Span: rb.Span}) {
				b.diags.add(SeverityInfo, CategoryReference, rb.Span,
					fmt.Sprintf("duplicate link reference definition [%s]; the first definition is used", rb.Label))
			}
		case KindFootnoteDef:
			if !b.defs.addFootnote(FootnoteDefinition{Label: rb.Label, Span: rb.Span, Node: NoNode}) {
				b.diags.add(SeverityInfo, CategoryReference, rb.Span,
					fmt.Sprintf("duplicate footnote definition [^%s]; the first definition is used", rb.Label))
			}
		}
		for k := len(rb.Children) - 1; k >= 0; k-- {
			stack = append(stack, rb.Children[k])
		}
	}
}

// add appends n to the arena under parent.
func (b *builder) add(parent NodeID, n Node) NodeID {
	id := NodeID(len(b.doc.nodes))
	n.Parent = parent
	b.doc.nodes = append(b.doc.nodes, n)
	if parent >= 0 {
		b.doc.nodes[parent].Children = append(b.doc.nodes[parent].Children, id)
	}
	return id
}

func (b *builder) blocks(parent NodeID, children []*RawBlock) {
	for _, c := range children {
		b.block(parent, c, false)
	}
}

func (b *builder) block(parent NodeID, rb *RawBlock, topLevel bool) {
	n := Node{Kind: rb.Kind, Span: rb.Span}
	switch rb.Kind {
	case KindLinkReferenceDef:
		return

	case KindFootnoteDef:
		def, ok := b.defs.Footnote(rb.Label)
		if !ok || def.Node != NoNode || def.Span != rb.Span {
			return
		}
		n.Label = rb.Label
		id := b.add(NoNode, n)
		b.blocks(id, rb.Children)
		def.Node = id
		b.defs.footnotes.Put(normalizeLabel(rb.Label), def)

	case KindHeading:
		n.Level = rb.Level
		n.ID, n.AutoID = b.headingID(rb)
		id := b.add(parent, n)
		b.inlines(id, rb.Content)

	case KindParagraph:
		id := b.add(parent, n)
		c := rb.Content
		if b.doc.nodes[parent].Kind == KindListItem && len(b.doc.nodes[parent].Children) == 1 {
			c = b.taskMarker(id, c)
		}
		b.inlines(id, c)

	case KindCodeBlock:
		n.Literal = rb.Literal
		n.Info = unescapeString(rb.Info)
		n.Fenced = rb.Fenced
		b.add(parent, n)

	case KindHTMLBlock, KindFrontMatter:
		n.Literal = rb.Literal
		b.add(parent, n)

	case KindThematicBreak:
		b.add(parent, n)

	case KindList:
		attrs := *rb.List
		n.List = &attrs
		id := b.add(parent, n)
		b.blocks(id, rb.Children)

	case KindBlockQuote:
		if topLevel && b.quoteAdmonition(parent, rb) {
			return
		}
		id := b.add(parent, n)
		b.blocks(id, rb.Children)

	case KindAdmonition:
		attrs := *rb.Admonition
		n.Admonition = &attrs
		id := b.add(parent, n)
		b.blocks(id, rb.Children)

	case KindTable:
		attrs := TableAttrs{Align: append([]Alignment(nil), rb.Table.Align...), HasHeader: rb.Table.HasHeader}
		n.Table = &attrs
		id := b.add(parent, n)
		b.blocks(id, rb.Children)

	case KindTableRow:
		n.Header = rb.Header
		id := b.add(parent, n)
		b.blocks(id, rb.Children)

	case KindTableCell:
		n.Align = rb.Align
		id := b.add(parent, n)
		b.inlines(id, rb.Content)

	case KindDefinitionTerm:
		id := b.add(parent, n)
		b.inlines(id, rb.Content)

	case KindTabGroup, KindTabItem:
		n.Title = rb.Title
		id := b.add(parent, n)
		b.blocks(id, rb.Children)

	case KindSlideDeck:
		n.Timer = rb.Timer
		id := b.add(parent, n)
		b.blocks(id, rb.Children)

	case KindSlide:
		n.Vertical = rb.Vertical
		id := b.add(parent, n)
		b.blocks(id, rb.Children)

	default:
		id := b.add(parent, n)
		b.blocks(id, rb.Children)
	}
}

// inlines parses c and attaches the result under parent.
func (b *builder) inlines(parent NodeID, c Content) {
	for _, in := range parseInlineContent(c, b.inline) {
		b.inline1(parent, in, c)
	}
}

func (b *builder) inline1(parent NodeID, in *Inline, c Content) {
	n := Node{
		Kind:    in.Kind,
		Span:    Span{c.Source(in.Span.Start), c.Source(in.Span.End)},
		Literal: in.Literal,
		Info:    in.Info,
		Label:   in.Label,
		Display: in.Display,
		Checked: in.Checked,
		Link:    in.Link,
		Mention: in.Mention,
	}
	id := b.add(parent, n)
	for _, child := range in.Children {
		b.inline1(id, child, c)
	}
}

// taskMarker splits a leading `[ ]` or `[x]` off the first paragraph of a
// list item.
func (b *builder) taskMarker(para NodeID, c Content) Content {
	t := c.Text
	if len(t) < 3 || t[0] != '[' || t[2] != ']' {
		return c
	}
	mark := t[1]
	if mark != ' ' && mark != 'x' && mark != 'X' {
		return c
	}
	if len(t) > 3 && t[3] != ' ' && t[3] != '\t' && t[3] != '\n' {
		return c
	}
	b.add(para, Node{
		Kind:    KindTaskMarker,
		Span:    Span{c.Source(0), c.Source(3)},
		Checked: mark != ' ',
	})
	k := 3
	for k < len(t) && (t[k] == ' ' || t[k] == '\t') {
		k++
	}
	return c.Slice(k, len(t))
}

// quoteAdmonition converts a top-level blockquote that opens with an alert
// marker (`[!NOTE]`) or a custom header (`[icon Title]`) into an Admonition.
// The alert form is checked first.
func (b *builder) quoteAdmonition(parent NodeID, rb *RawBlock) bool {
	if len(rb.Children) == 0 || rb.Children[0].Kind != KindParagraph {
		return false
	}
	para := rb.Children[0]
	text := para.Content.Text
	lineEnd := strings.IndexByte(text, '\n')
	if lineEnd < 0 {
		lineEnd = len(text)
	}
	marker := strings.TrimSpace(text[:lineEnd])
	if len(marker) < 3 || marker[0] != '[' || marker[len(marker)-1] != ']' {
		return false
	}
	inner := marker[1 : len(marker)-1]

	var attrs *AdmonitionAttrs
	if name, ok := strings.CutPrefix(inner, "!"); ok {
		kind, known := LookupAdmonitionKind(name)
		if !known {
			return false
		}
		attrs = &AdmonitionAttrs{Kind: kind, Style: StyleAlert}
	} else {
		if _, isLink := b.defs.Link(inner); isLink {
			return false
		}
		icon, title, found := strings.Cut(strings.TrimSpace(inner), " ")
		title = strings.TrimSpace(title)
		if !found || icon == "" || title == "" {
			return false
		}
		if name, ok := strings.CutPrefix(icon, ":"); ok && strings.HasSuffix(name, ":") && len(name) > 1 {
			if glyph, ok := b.inline.emoji.Lookup(strings.TrimSuffix(name, ":")); ok {
				icon = glyph
			}
		}
		attrs = &AdmonitionAttrs{Kind: AdmonitionCustom, Title: title, Icon: icon, Style: StyleQuote}
	}

	id := b.add(parent, Node{Kind: KindAdmonition, Span: rb.Span, Admonition: attrs})
	if lineEnd < len(text) {
		rest := para.Content.Slice(lineEnd+1, len(text))
		if strings.TrimSpace(rest.Text) != "" {
			restSpan := Span{rest.Source(0), para.Span.End}
			pid := b.add(id, Node{Kind: KindParagraph, Span: restSpan})
			b.inlines(pid, rest)
		}
	}
	b.blocks(id, rb.Children[1:])
	return true
}

// headingID returns the explicit `{#id}` of a heading or a GitHub style slug
// of its text, made unique with a numeric suffix. The second result reports
// a generated slug.
func (b *builder) headingID(rb *RawBlock) (string, bool) {
	if rb.ID != "" {
		b.slugs[rb.ID]++
		return rb.ID, false
	}
	base := Slugify(rb.Content.Text)
	if base == "" {
		base = "section"
	}
	slug := base
	for n := b.slugs[base]; b.slugs[slug] > 0; n++ {
		slug = fmt.Sprintf("%s-%d", base, n)
	}
	b.slugs[base]++
	if slug != base {
		b.slugs[slug]++
	}
	return slug, true
}

// Slugify lowercases text, keeps letters, digits, `-` and `_`, and turns
// spaces into hyphens. Markup characters are dropped.
func Slugify(text string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(text)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_':
			sb.WriteRune(r)
		case r == ' ' || r == '\t' || r == '\n':
			sb.WriteByte('-')
		}
	}
	return sb.String()
}
