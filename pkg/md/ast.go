// ast.go defines the typed syntax tree produced by the builder.
package md

import (
	"strings"

	"github.com/emirpasic/gods/maps/linkedhashmap"
)

// Kind identifies the variant of a Node. The set is closed: every switch
// over Kind in this package handles all variants.
type Kind uint8

const (
	KindDocument Kind = iota

	// Block kinds.
	KindHeading
	KindParagraph
	KindList
	KindListItem
	KindBlockQuote
	KindAdmonition
	KindCodeBlock
	KindTable
	KindTableRow
	KindTableCell
	KindThematicBreak
	KindHTMLBlock
	KindDefinitionList
	KindDefinitionTerm
	KindDefinitionDescription
	KindTabGroup
	KindTabItem
	KindSlideDeck
	KindSlide
	KindFrontMatter
	KindLinkReferenceDef // consumed by the builder, never in the tree
	KindFootnoteDef      // consumed by the builder, stored on the Document

	// Inline kinds.
	KindText
	KindEmphasis
	KindStrong
	KindStrikethrough
	KindCodeSpan
	KindLink
	KindImage
	KindAutolink
	KindRawHTML
	KindFootnoteRef
	KindInlineFootnote
	KindMention
	KindEmoji
	KindMath
	KindTaskMarker
	KindHardBreak
	KindSoftBreak
	KindEntity

	kindCount
)

var kindNames = [kindCount]string{
	KindDocument:              "Document",
	KindHeading:               "Heading",
	KindParagraph:             "Paragraph",
	KindList:                  "List",
	KindListItem:              "ListItem",
	KindBlockQuote:            "BlockQuote",
	KindAdmonition:            "Admonition",
	KindCodeBlock:             "CodeBlock",
	KindTable:                 "Table",
	KindTableRow:              "TableRow",
	KindTableCell:             "TableCell",
	KindThematicBreak:         "ThematicBreak",
	KindHTMLBlock:             "HtmlBlock",
	KindDefinitionList:        "DefinitionList",
	KindDefinitionTerm:        "DefinitionTerm",
	KindDefinitionDescription: "DefinitionDescription",
	KindTabGroup:              "TabGroup",
	KindTabItem:               "TabItem",
	KindSlideDeck:             "SlideDeck",
	KindSlide:                 "Slide",
	KindFrontMatter:           "FrontMatter",
	KindLinkReferenceDef:      "LinkReferenceDef",
	KindFootnoteDef:           "FootnoteDef",
	KindText:                  "Text",
	KindEmphasis:              "Emphasis",
	KindStrong:                "Strong",
	KindStrikethrough:         "Strikethrough",
	KindCodeSpan:              "CodeSpan",
	KindLink:                  "Link",
	KindImage:                 "Image",
	KindAutolink:              "Autolink",
	KindRawHTML:               "RawHtml",
	KindFootnoteRef:           "FootnoteRef",
	KindInlineFootnote:        "InlineFootnote",
	KindMention:               "Mention",
	KindEmoji:                 "Emoji",
	KindMath:                  "Math",
	KindTaskMarker:            "TaskMarker",
	KindHardBreak:             "HardBreak",
	KindSoftBreak:             "SoftBreak",
	KindEntity:                "Entity",
}

func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return "Unknown"
}

// IsBlock reports whether k is a block-level kind.
func (k Kind) IsBlock() bool {
	return k > KindDocument && k < KindText
}

// IsInline reports whether k is an inline kind.
func (k Kind) IsInline() bool {
	return k >= KindText && k < kindCount
}

// NodeID addresses a node inside a Document's arena.
type NodeID int32

// NoNode is the parent of the document root.
const NoNode NodeID = -1

// LinkForm records how a link or image was written.
type LinkForm uint8

const (
	LinkInline    LinkForm = iota // [text](dest "title")
	LinkFull                      // [text][label]
	LinkCollapsed                 // [text][]
	LinkShortcut                  // [text]
)

var linkFormNames = []string{"inline", "full", "collapsed", "shortcut"}

func (f LinkForm) String() string {
	if int(f) < len(linkFormNames) {
		return linkFormNames[f]
	}
	return "unknown"
}

// Alignment is a table column alignment.
type Alignment uint8

const (
	AlignNone Alignment = iota
	AlignLeft
	AlignCenter
	AlignRight
)

func (a Alignment) String() string {
	switch a {
	case AlignLeft:
		return "left"
	case AlignCenter:
		return "center"
	case AlignRight:
		return "right"
	}
	return ""
}

// AdmonitionKind is the semantic flavour of an admonition.
type AdmonitionKind uint8

const (
	AdmonitionNote AdmonitionKind = iota
	AdmonitionTip
	AdmonitionImportant
	AdmonitionWarning
	AdmonitionCaution
	AdmonitionCustom // unknown kind: blockquote styling, literal kind as title
)

var admonitionNames = []string{"note", "tip", "important", "warning", "caution", "custom"}

func (k AdmonitionKind) String() string {
	if int(k) < len(admonitionNames) {
		return admonitionNames[k]
	}
	return "custom"
}

// LookupAdmonitionKind resolves a kind name case-insensitively.
func LookupAdmonitionKind(name string) (AdmonitionKind, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range admonitionNames[:AdmonitionCustom] {
		if n == name {
			return AdmonitionKind(i), true
		}
	}
	return AdmonitionCustom, false
}

// AdmonitionStyle records which syntax produced the admonition.
type AdmonitionStyle uint8

const (
	StyleAlert  AdmonitionStyle = iota // > [!NOTE]
	StyleFenced                        // :::note[title]
	StyleQuote                         // > [:icon: Title]
)

func (s AdmonitionStyle) String() string {
	switch s {
	case StyleFenced:
		return "fenced"
	case StyleQuote:
		return "quote"
	}
	return "alert"
}

// LinkAttrs carries link and image destinations.
type LinkAttrs struct {
	Dest  string   `json:"dest"`
	Title string   `json:"title,omitempty"`
	Form  LinkForm `json:"form"`
	Label string   `json:"label,omitempty"`
}

// ListAttrs carries list metadata.
type ListAttrs struct {
	Ordered bool `json:"ordered"`
	Start   int  `json:"start,omitempty"`
	Tight   bool `json:"tight"`
	Marker  byte `json:"marker"`
}

// TableAttrs carries table metadata.
type TableAttrs struct {
	Align     []Alignment `json:"align"`
	HasHeader bool        `json:"hasHeader"`
}

// AdmonitionAttrs carries admonition metadata.
type AdmonitionAttrs struct {
	Kind  AdmonitionKind  `json:"kind"`
	Title string          `json:"title,omitempty"`
	Icon  string          `json:"icon,omitempty"`
	Style AdmonitionStyle `json:"style"`
}

// MentionAttrs carries a platform mention.
type MentionAttrs struct {
	User     string `json:"user"`
	Platform string `json:"platform"`
	Display  string `json:"display,omitempty"`
}

// Node is one element of the syntax tree. Only the fields relevant to Kind
// are populated.
type Node struct {
	Kind     Kind     `json:"kind"`
	Span     Span     `json:"span"`
	Parent   NodeID   `json:"-"`
	Children []NodeID `json:"-"`

	// Literal is the text of Text, CodeSpan, CodeBlock, HtmlBlock, RawHtml,
	// Math and FrontMatter nodes, the glyph of an Emoji and the decoded
	// value of an Entity.
	Literal string `json:"literal,omitempty"`

	Level   int    `json:"level,omitempty"`   // Heading
	ID      string `json:"id,omitempty"`      // Heading anchor
	AutoID  bool   `json:"autoId,omitempty"`  // ID is a generated slug
	Info    string `json:"info,omitempty"`    // CodeBlock info, Emoji shortcode, Entity source
	Fenced  bool   `json:"fenced,omitempty"`  // CodeBlock
	Display bool   `json:"display,omitempty"` // Math
	Title   string `json:"title,omitempty"`   // TabGroup, TabItem
	Label   string `json:"label,omitempty"`   // FootnoteRef, FootnoteDef

	Vertical bool      `json:"vertical,omitempty"` // Slide
	Timer    int       `json:"timer,omitempty"`    // SlideDeck seconds
	Checked  bool      `json:"checked,omitempty"`  // TaskMarker
	Align    Alignment `json:"align,omitempty"`    // TableCell
	Header   bool      `json:"header,omitempty"`   // TableRow

	Link       *LinkAttrs       `json:"link,omitempty"`
	List       *ListAttrs       `json:"list,omitempty"`
	Table      *TableAttrs      `json:"table,omitempty"`
	Admonition *AdmonitionAttrs `json:"admonition,omitempty"`
	Mention    *MentionAttrs    `json:"mention,omitempty"`
}

// LinkDefinition is a resolved `[label]: dest "title"` definition.
type LinkDefinition struct {
	Label string `json:"label"`
	Dest  string `json:"dest"`
	Title string `json:"title,omitempty"`
	Span  Span   `json:"span"`
}

// FootnoteDefinition is a `[^label]: content` definition. Node is a
// FootnoteDef node kept outside the document tree; its children are the
// definition's blocks.
type FootnoteDefinition struct {
	Label string `json:"label"`
	Span  Span   `json:"span"`
	Node  NodeID `json:"-"`
}

// Definitions holds the link and footnote definitions collected in the
// builder's first pass. Keys are normalized labels; iteration order is
// definition order.
type Definitions struct {
	links     *linkedhashmap.Map
	footnotes *linkedhashmap.Map
}

// NewDefinitions returns an empty definition set.
func NewDefinitions() *Definitions {
	return &Definitions{links: linkedhashmap.New(), footnotes: linkedhashmap.New()}
}

// addLink stores def unless the label is already defined. It reports whether
// def was stored.
func (d *Definitions) addLink(def LinkDefinition) bool {
	key := normalizeLabel(def.Label)
	if key == "" {
		return false
	}
	if _, found := d.links.Get(key); found {
		return false
	}
	d.links.Put(key, def)
	return true
}

func (d *Definitions) addFootnote(def FootnoteDefinition) bool {
	key := normalizeLabel(def.Label)
	if key == "" {
		return false
	}
	if _, found := d.footnotes.Get(key); found {
		return false
	}
	d.footnotes.Put(key, def)
	return true
}

// AddLink defines label unless it is already defined; the first definition
// wins. It reports whether the definition was stored.
func (d *Definitions) AddLink(label, dest, title string) bool {
	return d.addLink(LinkDefinition{Label: label, Dest: dest, Title: title})
}

// Link looks up a link definition by label.
func (d *Definitions) Link(label string) (LinkDefinition, bool) {
	if d == nil {
		return LinkDefinition{}, false
	}
	v, found := d.links.Get(normalizeLabel(label))
	if !found {
		return LinkDefinition{}, false
	}
	return v.(LinkDefinition), true
}

// Footnote looks up a footnote definition by label.
func (d *Definitions) Footnote(label string) (FootnoteDefinition, bool) {
	if d == nil {
		return FootnoteDefinition{}, false
	}
	v, found := d.footnotes.Get(normalizeLabel(label))
	if !found {
		return FootnoteDefinition{}, false
	}
	return v.(FootnoteDefinition), true
}

// Links returns all link definitions in definition order.
func (d *Definitions) Links() []LinkDefinition {
	out := make([]LinkDefinition, 0, d.links.Size())
	for _, v := range d.links.Values() {
		out = append(out, v.(LinkDefinition))
	}
	return out
}

// Footnotes returns all footnote definitions in definition order.
func (d *Definitions) Footnotes() []FootnoteDefinition {
	out := make([]FootnoteDefinition, 0, d.footnotes.Size())
	for _, v := range d.footnotes.Values() {
		out = append(out, v.(FootnoteDefinition))
	}
	return out
}

// Document is the root of a parsed source. It is immutable once returned by
// the builder and may be shared between goroutines; callers must not modify
// anything reachable from it.
type Document struct {
	// Source is the normalized text the document was built from.
	Source string

	nodes       []Node
	defs        *Definitions
	diagnostics []Diagnostic
	lines       *LineIndex
}

// Root returns the handle of the document node.
func (d *Document) Root() NodeID {
	return 0
}

// Len returns the number of nodes in the arena.
func (d *Document) Len() int {
	return len(d.nodes)
}

// Node returns a copy of the node addressed by id.
func (d *Document) Node(id NodeID) Node {
	if id < 0 || int(id) >= len(d.nodes) {
		return Node{Parent: NoNode}
	}
	return d.nodes[id]
}

// Kind returns the kind of node id.
func (d *Document) Kind(id NodeID) Kind {
	if id < 0 || int(id) >= len(d.nodes) {
		return KindDocument
	}
	return d.nodes[id].Kind
}

// Children returns the children of id. The slice must not be modified.
func (d *Document) Children(id NodeID) []NodeID {
	if id < 0 || int(id) >= len(d.nodes) {
		return nil
	}
	return d.nodes[id].Children
}

// Blocks returns the top-level blocks in source order.
func (d *Document) Blocks() []NodeID {
	return d.Children(d.Root())
}

// Definitions returns the document's link and footnote definitions.
func (d *Document) Definitions() *Definitions {
	return d.defs
}

// Diagnostics returns the diagnostics recorded while parsing, ordered by
// source offset.
func (d *Document) Diagnostics() []Diagnostic {
	out := make([]Diagnostic, len(d.diagnostics))
	copy(out, d.diagnostics)
	return out
}

// Position resolves a byte offset in Source.
func (d *Document) Position(off int) Position {
	return d.lines.Position(off)
}

// Offset converts a line/column position into a byte offset in Source.
func (d *Document) Offset(line, col int) int {
	return d.lines.Offset(line, col)
}

// Lines returns the document's line index.
func (d *Document) Lines() *LineIndex {
	return d.lines
}

// WalkStatus steers Walk.
type WalkStatus int

const (
	WalkContinue WalkStatus = iota
	WalkSkipChildren
	WalkStop
)

// Walk visits the tree rooted at id depth first, calling fn on entry and on
// exit of every node. It uses an explicit stack, so arbitrarily deep trees do
// not grow the call stack.
func (d *Document) Walk(id NodeID, fn func(id NodeID, entering bool) WalkStatus) {
	type frame struct {
		id   NodeID
		next int
	}
	if id < 0 || int(id) >= len(d.nodes) {
		return
	}
	switch fn(id, true) {
	case WalkStop:
		return
	case WalkSkipChildren:
		fn(id, false)
		return
	}
	stack := []frame{{id: id}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		children := d.nodes[top.id].Children
		if top.next >= len(children) {
			if fn(top.id, false) == WalkStop {
				return
			}
			stack = stack[:len(stack)-1]
			continue
		}
		child := children[top.next]
		top.next++
		switch fn(child, true) {
		case WalkStop:
			return
		case WalkSkipChildren:
			if fn(child, false) == WalkStop {
				return
			}
			continue
		}
		stack = append(stack, frame{id: child})
	}
}

// NodeAt returns the deepest node whose span contains off, or the root.
func (d *Document) NodeAt(off int) NodeID {
	found := d.Root()
	d.Walk(d.Root(), func(id NodeID, entering bool) WalkStatus {
		if !entering || id == d.Root() {
			return WalkContinue
		}
		if !d.nodes[id].Span.Contains(off) {
			return WalkSkipChildren
		}
		found = id
		return WalkContinue
	})
	return found
}

// Ancestors returns the chain from id up to, but excluding, the root.
func (d *Document) Ancestors(id NodeID) []NodeID {
	var out []NodeID
	for id > 0 && int(id) < len(d.nodes) {
		out = append(out, id)
		id = d.nodes[id].Parent
	}
	return out
}

// PlainText returns the concatenated text content below id, the way it
// would appear with all markup removed.
func (d *Document) PlainText(id NodeID) string {
	var b strings.Builder
	d.Walk(id, func(n NodeID, entering bool) WalkStatus {
		if !entering {
			return WalkContinue
		}
		node := d.nodes[n]
		switch node.Kind {
		case KindText, KindCodeSpan, KindMath, KindEmoji, KindEntity, KindRawHTML:
			b.WriteString(node.Literal)
		case KindAutolink:
			b.WriteString(node.Literal)
		case KindMention:
			if node.Mention.Display != "" {
				b.WriteString(node.Mention.Display)
			} else {
				b.WriteString("@" + node.Mention.User)
			}
		case KindSoftBreak, KindHardBreak:
			b.WriteByte(' ')
		case KindInlineFootnote, KindFootnoteRef:
			return WalkSkipChildren
		}
		return WalkContinue
	})
	return b.String()
}
