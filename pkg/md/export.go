package md

import (
	"encoding/json"
	"strings"
)

// TreeDocument is a portable JSON form of a Document. Inline formatting is
// flattened into marks on text nodes, so consumers without a Markdown model
// can display it.
type TreeDocument struct {
	Type        string       `json:"type"`
	Version     int          `json:"version"`
	Content     []*TreeNode  `json:"content"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// TreeNode is a node of a TreeDocument.
type TreeNode struct {
	Type    string         `json:"type"`
	Attrs   map[string]any `json:"attrs,omitempty"`
	Content []*TreeNode    `json:"content,omitempty"`
	Text    string         `json:"text,omitempty"`
	Marks   []*TreeMark    `json:"marks,omitempty"`
	Span    *Span          `json:"span,omitempty"`
}

// TreeMark is a formatting mark on a text node.
type TreeMark struct {
	Type  string         `json:"type"`
	Attrs map[string]any `json:"attrs,omitempty"`
}

// ExportOptions configures Export.
type ExportOptions struct {
	// Spans records the source range of every block node.
	Spans bool
}

// Export converts doc to its portable tree form.
func Export(doc *Document, opts ExportOptions) *TreeDocument {
	out := &TreeDocument{Type: "doc", Version: 1, Content: []*TreeNode{}}
	if doc == nil || doc.Len() == 0 {
		return out
	}
	x := &exporter{doc: doc, opts: opts}
	out.Content = x.blocks(doc.Root())
	if notes := x.footnotes(); notes != nil {
		out.Content = append(out.Content, notes)
	}
	out.Diagnostics = doc.Diagnostics()
	return out
}

// ExportJSON returns the portable tree of doc as indented JSON.
func ExportJSON(doc *Document, opts ExportOptions) (string, error) {
	b, err := json.MarshalIndent(Export(doc, opts), "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

type exporter struct {
	doc  *Document
	opts ExportOptions
	refs []string
	seen map[string]int
}

func (x *exporter) blocks(parent NodeID) []*TreeNode {
	var nodes []*TreeNode
	for _, c := range x.doc.Children(parent) {
		if node := x.block(c); node != nil {
			nodes = append(nodes, node)
		}
	}
	return nodes
}

func (x *exporter) block(id NodeID) *TreeNode {
	n := &x.doc.nodes[id]
	var node *TreeNode
	switch n.Kind {
	case KindParagraph, KindDefinitionTerm:
		content := x.inlines(id)
		if len(content) == 0 {
			return nil
		}
		typ := "paragraph"
		if n.Kind == KindDefinitionTerm {
			typ = "definitionTerm"
		}
		node = &TreeNode{Type: typ, Content: content}
	case KindHeading:
		attrs := map[string]any{"level": n.Level}
		if n.ID != "" {
			attrs["id"] = n.ID
		}
		node = &TreeNode{Type: "heading", Attrs: attrs, Content: x.inlines(id)}
	case KindList:
		node = &TreeNode{Type: "bulletList", Content: x.blocks(id)}
		if n.List.Ordered {
			node.Type = "orderedList"
			node.Attrs = map[string]any{"order": n.List.Start}
		}
	case KindListItem:
		node = &TreeNode{Type: "listItem", Content: x.blocks(id)}
		if marker, ok := x.taskMarker(id); ok {
			node.Type = "taskItem"
			node.Attrs = map[string]any{"state": marker}
		}
	case KindCodeBlock:
		node = &TreeNode{Type: "codeBlock", Content: []*TreeNode{{Type: "text", Text: n.Literal}}}
		if lang, _, _ := strings.Cut(n.Info, " "); lang != "" {
			node.Attrs = map[string]any{"language": lang}
		}
	case KindBlockQuote:
		node = &TreeNode{Type: "blockquote", Content: x.blocks(id)}
	case KindAdmonition:
		attrs := map[string]any{"panelType": n.Admonition.Kind.String(), "style": n.Admonition.Style.String()}
		if n.Admonition.Title != "" {
			attrs["title"] = n.Admonition.Title
		}
		if n.Admonition.Icon != "" {
			attrs["icon"] = n.Admonition.Icon
		}
		node = &TreeNode{Type: "panel", Attrs: attrs, Content: x.blocks(id)}
	case KindThematicBreak:
		node = &TreeNode{Type: "rule"}
	case KindTable:
		node = &TreeNode{Type: "table", Content: x.blocks(id)}
	case KindTableRow:
		node = &TreeNode{Type: "tableRow", Content: x.blocks(id)}
	case KindTableCell:
		typ := "tableCell"
		if x.doc.nodes[n.Parent].Header {
			typ = "tableHeader"
		}
		para := &TreeNode{Type: "paragraph", Content: x.inlines(id)}
		node = &TreeNode{Type: typ, Content: []*TreeNode{para}}
		if n.Align != AlignNone {
			node.Attrs = map[string]any{"align": n.Align.String()}
		}
	case KindHTMLBlock:
		node = &TreeNode{Type: "html", Text: n.Literal}
	case KindDefinitionList:
		node = &TreeNode{Type: "definitionList", Content: x.blocks(id)}
	case KindDefinitionDescription:
		node = &TreeNode{Type: "definitionDescription", Content: x.blocks(id)}
	case KindTabGroup:
		node = &TreeNode{Type: "tabs", Content: x.blocks(id)}
		if n.Title != "" {
			node.Attrs = map[string]any{"title": n.Title}
		}
	case KindTabItem:
		node = &TreeNode{Type: "tab", Attrs: map[string]any{"title": n.Title}, Content: x.blocks(id)}
	case KindSlideDeck:
		node = &TreeNode{Type: "slides", Content: x.blocks(id)}
		if n.Timer > 0 {
			node.Attrs = map[string]any{"timer": n.Timer}
		}
	case KindSlide:
		node = &TreeNode{Type: "slide", Content: x.blocks(id)}
		if n.Vertical {
			node.Attrs = map[string]any{"vertical": true}
		}
	case KindFrontMatter:
		node = &TreeNode{Type: "frontMatter", Text: n.Literal}
	default:
		return nil
	}
	if x.opts.Spans {
		span := n.Span
		node.Span = &span
	}
	return node
}

func (x *exporter) taskMarker(item NodeID) (string, bool) {
	children := x.doc.Children(item)
	if len(children) == 0 || x.doc.Kind(children[0]) != KindParagraph {
		return "", false
	}
	inl := x.doc.Children(children[0])
	if len(inl) == 0 || x.doc.Kind(inl[0]) != KindTaskMarker {
		return "", false
	}
	if x.doc.nodes[inl[0]].Checked {
		return "DONE", true
	}
	return "TODO", true
}

// inlines flattens the inline children of id into marked text nodes.
func (x *exporter) inlines(id NodeID) []*TreeNode {
	var nodes []*TreeNode
	for _, c := range x.doc.Children(id) {
		nodes = append(nodes, x.inline(c, nil)...)
	}
	return nodes
}

func (x *exporter) text(s string, marks []*TreeMark) []*TreeNode {
	if s == "" {
		return nil
	}
	node := &TreeNode{Type: "text", Text: s}
	if len(marks) > 0 {
		node.Marks = marks
	}
	return []*TreeNode{node}
}

func (x *exporter) marked(id NodeID, marks []*TreeMark, mark *TreeMark) []*TreeNode {
	next := append(copyMarks(marks), mark)
	var nodes []*TreeNode
	for _, c := range x.doc.Children(id) {
		nodes = append(nodes, x.inline(c, next)...)
	}
	return nodes
}

func (x *exporter) inline(id NodeID, marks []*TreeMark) []*TreeNode {
	n := &x.doc.nodes[id]
	switch n.Kind {
	case KindText, KindEntity:
		return x.text(n.Literal, marks)
	case KindEmphasis:
		return x.marked(id, marks, &TreeMark{Type: "em"})
	case KindStrong:
		return x.marked(id, marks, &TreeMark{Type: "strong"})
	case KindStrikethrough:
		return x.marked(id, marks, &TreeMark{Type: "strike"})
	case KindCodeSpan:
		return x.text(n.Literal, append(copyMarks(marks), &TreeMark{Type: "code"}))
	case KindLink:
		attrs := map[string]any{"href": n.Link.Dest}
		if n.Link.Title != "" {
			attrs["title"] = n.Link.Title
		}
		return x.marked(id, marks, &TreeMark{Type: "link", Attrs: attrs})
	case KindAutolink:
		return x.text(n.Literal, append(copyMarks(marks), &TreeMark{Type: "link", Attrs: map[string]any{"href": n.Link.Dest}}))
	case KindImage:
		attrs := map[string]any{"src": n.Link.Dest, "alt": x.doc.PlainText(id)}
		if n.Link.Title != "" {
			attrs["title"] = n.Link.Title
		}
		return []*TreeNode{{Type: "image", Attrs: attrs}}
	case KindMention:
		attrs := map[string]any{"user": n.Mention.User, "platform": n.Mention.Platform}
		if n.Mention.Display != "" {
			attrs["text"] = n.Mention.Display
		}
		if u, ok := ProfileURL(n.Mention.Platform, n.Mention.User); ok {
			attrs["url"] = u
		}
		return []*TreeNode{{Type: "mention", Attrs: attrs}}
	case KindEmoji:
		return []*TreeNode{{Type: "emoji", Attrs: map[string]any{"shortName": ":" + n.Info + ":", "text": n.Literal}}}
	case KindMath:
		typ := "inlineMath"
		if n.Display {
			typ = "displayMath"
		}
		return []*TreeNode{{Type: typ, Text: n.Literal}}
	case KindFootnoteRef:
		return []*TreeNode{{Type: "footnoteRef", Attrs: map[string]any{"number": x.footnoteNumber(n.Label)}}}
	case KindInlineFootnote:
		return []*TreeNode{{Type: "inlineFootnote", Content: x.inlines(id)}}
	case KindHardBreak:
		return []*TreeNode{{Type: "hardBreak"}}
	case KindSoftBreak:
		return x.text("\n", marks)
	case KindRawHTML:
		return []*TreeNode{{Type: "html", Text: n.Literal}}
	}
	return nil
}

func (x *exporter) footnoteNumber(label string) int {
	key := normalizeLabel(label)
	if x.seen == nil {
		x.seen = make(map[string]int)
	}
	if num, ok := x.seen[key]; ok {
		return num
	}
	x.refs = append(x.refs, label)
	x.seen[key] = len(x.refs)
	return len(x.refs)
}

// footnotes exports the referenced definitions in first-reference order.
func (x *exporter) footnotes() *TreeNode {
	if len(x.refs) == 0 {
		return nil
	}
	list := &TreeNode{Type: "footnotes"}
	for k := 0; k < len(x.refs); k++ {
		def, ok := x.doc.defs.Footnote(x.refs[k])
		if !ok || def.Node == NoNode {
			continue
		}
		list.Content = append(list.Content, &TreeNode{
			Type:    "footnote",
			Attrs:   map[string]any{"label": def.Label, "number": k + 1},
			Content: x.blocks(def.Node),
		})
	}
	return list
}

func copyMarks(marks []*TreeMark) []*TreeMark {
	if marks == nil {
		return nil
	}
	out := make([]*TreeMark, len(marks))
	copy(out, marks)
	return out
}
