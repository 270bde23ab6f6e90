// emitter.go streams a Document as events. Nodes are visited with an explicit
// stack and diagnostics are interleaved by source offset, so the stream is
// produced lazily and never materialized.
package md

import (
	"fmt"
	"iter"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// EmitOptions configures Emit.
type EmitOptions struct {
	// UniqueIDs derives widget IDs from random UUIDs instead of a per
	// document sequence. Output is then no longer reproducible.
	UniqueIDs bool
	// Profile appends Profile events with node and timing counters.
	Profile bool
}

// Emit returns the event stream of doc. The sequence may be iterated more
// than once; each iteration walks the document again.
func Emit(doc *Document, opts EmitOptions) iter.Seq[Event] {
	return func(yield func(Event) bool) {
		if doc == nil || doc.Len() == 0 {
			return
		}
		e := &emitter{
			doc:     doc,
			opts:    opts,
			yield:   yield,
			numbers: make(map[string]int),
			refs:    make(map[int]int),
		}
		e.run()
	}
}

type footnoteEntry struct {
	label  string
	node   NodeID
	number int
	inline bool
}

type emitter struct {
	doc     *Document
	opts    EmitOptions
	yield   func(Event) bool
	stopped bool

	nextDiag  int
	footnotes []footnoteEntry
	numbers   map[string]int
	refs      map[int]int
	tabs      int
	decks     int
}

func (e *emitter) send(ev Event) bool {
	if e.stopped {
		return false
	}
	if !e.yield(ev) {
		e.stopped = true
	}
	return !e.stopped
}

func (e *emitter) run() {
	started := time.Now()
	root := e.doc.Root()
	rn := &e.doc.nodes[root]
	if !e.send(Event{Kind: EventStart, Tag: KindDocument, Node: root, Span: rn.Span}) {
		return
	}
	for _, c := range rn.Children {
		e.doc.Walk(c, e.visit)
		if e.stopped {
			return
		}
	}
	e.flushDiagnostics(math.MaxInt)
	e.footnoteSection()
	if e.opts.Profile {
		e.profile(started)
	}
	e.send(Event{Kind: EventEnd, Tag: KindDocument, Node: root, Span: rn.Span})
}

func (e *emitter) visit(id NodeID, entering bool) WalkStatus {
	if e.stopped {
		return WalkStop
	}
	n := &e.doc.nodes[id]
	if !entering {
		e.exit(id, n)
	} else {
		e.flushDiagnostics(n.Span.Start)
		if e.enter(id, n) == WalkSkipChildren {
			return WalkSkipChildren
		}
	}
	if e.stopped {
		return WalkStop
	}
	return WalkContinue
}

// enter emits the opening events of n. Leaves are emitted completely and
// report WalkSkipChildren.
func (e *emitter) enter(id NodeID, n *Node) WalkStatus {
	ev := Event{Tag: n.Kind, Node: id, Span: n.Span}
	switch n.Kind {
	case KindText, KindEntity:
		ev.Kind = EventText
		ev.Text = n.Literal
		e.send(ev)
		return WalkSkipChildren

	case KindHTMLBlock, KindRawHTML:
		ev.Kind = EventHTML
		ev.Text = n.Literal
		e.send(ev)
		return WalkSkipChildren

	case KindCodeSpan, KindCodeBlock, KindMath, KindFrontMatter:
		e.leaf(ev, e.attrs(id, n), EventCode, n.Literal)
		return WalkSkipChildren

	case KindAutolink:
		e.leaf(ev, e.attrs(id, n), EventText, n.Literal)
		return WalkSkipChildren

	case KindEmoji:
		e.leaf(ev, e.attrs(id, n), EventText, n.Literal)
		return WalkSkipChildren

	case KindFootnoteRef:
		num := e.footnoteNumber(n.Label, NoNode)
		e.leaf(ev, e.refAttrs(num, n.Label), 0, "")
		return WalkSkipChildren

	case KindInlineFootnote:
		num := e.footnoteNumber("", id)
		e.leaf(ev, e.refAttrs(num, ""), 0, "")
		return WalkSkipChildren

	case KindTabGroup:
		e.tabs++
		ev.Kind = EventGroupStart
		ev.Group = GroupTabs
		ev.Attrs = Attributes{{AttrID, e.widgetID("marco-tabs", e.tabs)}}
		if n.Title != "" {
			ev.Attrs = append(ev.Attrs, Attr{AttrTitle, n.Title})
		}
		ev.Attrs = append(ev.Attrs, Attr{AttrCount, strconv.Itoa(len(n.Children))})
		for _, c := range n.Children {
			ev.Attrs = append(ev.Attrs, Attr{AttrTab, e.doc.nodes[c].Title})
		}
		e.send(ev)
		return WalkContinue

	case KindSlideDeck:
		e.decks++
		ev.Kind = EventGroupStart
		ev.Group = GroupSlides
		ev.Attrs = Attributes{
			{AttrID, e.widgetID("marco-sliders", e.decks)},
			{AttrCount, strconv.Itoa(len(n.Children))},
		}
		if n.Timer > 0 {
			ev.Attrs = append(ev.Attrs, Attr{AttrTimer, strconv.Itoa(n.Timer)})
		}
		e.send(ev)
		return WalkContinue
	}
	ev.Kind = EventStart
	ev.Attrs = e.attrs(id, n)
	e.send(ev)
	return WalkContinue
}

// leaf emits Start, an optional payload event and End.
func (e *emitter) leaf(ev Event, attrs Attributes, payload EventKind, text string) {
	ev.Kind = EventStart
	ev.Attrs = attrs
	if !e.send(ev) {
		return
	}
	if text != "" || payload == EventCode {
		p := Event{Kind: payload, Tag: ev.Tag, Node: ev.Node, Span: ev.Span, Text: text}
		if !e.send(p) {
			return
		}
	}
	ev.Kind = EventEnd
	e.send(ev)
}

func (e *emitter) exit(id NodeID, n *Node) {
	ev := Event{Tag: n.Kind, Node: id, Span: n.Span}
	switch n.Kind {
	case KindText, KindEntity, KindHTMLBlock, KindRawHTML, KindCodeSpan, KindCodeBlock,
		KindMath, KindFrontMatter, KindAutolink, KindEmoji, KindFootnoteRef, KindInlineFootnote:
		return
	case KindTabGroup:
		ev.Kind = EventGroupEnd
		ev.Group = GroupTabs
	case KindSlideDeck:
		ev.Kind = EventGroupEnd
		ev.Group = GroupSlides
	default:
		ev.Kind = EventEnd
	}
	e.send(ev)
}

// attrs describes n for a Start event.
func (e *emitter) attrs(id NodeID, n *Node) Attributes {
	switch n.Kind {
	case KindHeading:
		a := Attributes{{AttrLevel, strconv.Itoa(n.Level)}, {AttrID, n.ID}}
		if n.AutoID {
			a = append(a, Attr{AttrAutoID, "true"})
		}
		return a
	case KindList:
		return Attributes{
			{AttrOrdered, strconv.FormatBool(n.List.Ordered)},
			{AttrStart, strconv.Itoa(n.List.Start)},
			{AttrTight, strconv.FormatBool(n.List.Tight)},
		}
	case KindCodeBlock:
		lang, _, _ := strings.Cut(n.Info, " ")
		return Attributes{{AttrInfo, n.Info}, {AttrLang, lang}}
	case KindMath:
		return Attributes{{AttrDisplay, strconv.FormatBool(n.Display)}}
	case KindLink, KindImage, KindAutolink:
		return Attributes{
			{AttrDest, n.Link.Dest},
			{AttrTitle, n.Link.Title},
			{AttrForm, n.Link.Form.String()},
		}
	case KindTable:
		align := make([]string, len(n.Table.Align))
		for k, a := range n.Table.Align {
			align[k] = a.String()
		}
		return Attributes{{AttrAlign, strings.Join(align, ",")}}
	case KindTableRow:
		return Attributes{{AttrHeader, strconv.FormatBool(n.Header)}}
	case KindTableCell:
		header := n.Parent >= 0 && e.doc.nodes[n.Parent].Header
		return Attributes{{AttrAlign, n.Align.String()}, {AttrHeader, strconv.FormatBool(header)}}
	case KindAdmonition:
		return Attributes{
			{AttrKind, n.Admonition.Kind.String()},
			{AttrTitle, n.Admonition.Title},
			{AttrIcon, n.Admonition.Icon},
			{AttrStyle, n.Admonition.Style.String()},
		}
	case KindTabItem:
		return Attributes{{AttrTitle, n.Title}, {AttrIndex, strconv.Itoa(e.indexInParent(id) + 1)}}
	case KindSlide:
		return Attributes{{AttrIndex, strconv.Itoa(e.indexInParent(id) + 1)}, {AttrVertical, strconv.FormatBool(n.Vertical)}}
	case KindMention:
		a := Attributes{{AttrUser, n.Mention.User}, {AttrPlatform, n.Mention.Platform}, {AttrDisplay, n.Mention.Display}}
		if u, ok := ProfileURL(n.Mention.Platform, n.Mention.User); ok {
			a = append(a, Attr{AttrURL, u})
		}
		return a
	case KindEmoji:
		return Attributes{{AttrName, n.Info}}
	case KindTaskMarker:
		return Attributes{{AttrChecked, strconv.FormatBool(n.Checked)}}
	}
	return nil
}

func (e *emitter) indexInParent(id NodeID) int {
	parent := e.doc.nodes[id].Parent
	if parent < 0 {
		return 0
	}
	for k, c := range e.doc.nodes[parent].Children {
		if c == id {
			return k
		}
	}
	return 0
}

// widgetID names the n-th widget of a kind.
func (e *emitter) widgetID(prefix string, n int) string {
	if e.opts.UniqueIDs {
		return prefix + "-" + uuid.NewString()
	}
	return prefix + "-" + strconv.Itoa(n)
}

// footnoteNumber returns the number of a footnote, assigning the next one on
// first reference. Inline footnotes are keyed by node.
func (e *emitter) footnoteNumber(label string, inline NodeID) int {
	key := "^" + strconv.Itoa(int(inline))
	if inline == NoNode {
		key = normalizeLabel(label)
	}
	if num, ok := e.numbers[key]; ok {
		return num
	}
	num := len(e.footnotes) + 1
	e.numbers[key] = num
	entry := footnoteEntry{label: label, node: inline, number: num, inline: inline != NoNode}
	if !entry.inline {
		def, _ := e.doc.defs.Footnote(label)
		entry.node = def.Node
	}
	e.footnotes = append(e.footnotes, entry)
	return num
}

func (e *emitter) refAttrs(num int, label string) Attributes {
	e.refs[num]++
	refID := fmt.Sprintf("fnref-%d", num)
	if e.refs[num] > 1 {
		refID = fmt.Sprintf("fnref-%d-%d", num, e.refs[num])
	}
	return Attributes{
		{AttrLabel, label},
		{AttrNumber, strconv.Itoa(num)},
		{AttrID, fmt.Sprintf("fn-%d", num)},
		{AttrRefID, refID},
	}
}

// footnoteSection emits referenced footnotes in first-reference order.
// References found inside footnotes extend the list while it is emitted.
func (e *emitter) footnoteSection() {
	if len(e.footnotes) == 0 || e.stopped {
		return
	}
	if !e.send(Event{Kind: EventGroupStart, Group: GroupFootnotes, Node: NoNode}) {
		return
	}
	for k := 0; k < len(e.footnotes); k++ {
		f := e.footnotes[k]
		var span Span
		var children []NodeID
		if f.node >= 0 {
			span = e.doc.nodes[f.node].Span
			children = e.doc.nodes[f.node].Children
		}
		attrs := Attributes{
			{AttrLabel, f.label},
			{AttrNumber, strconv.Itoa(f.number)},
			{AttrID, fmt.Sprintf("fn-%d", f.number)},
			{AttrRefID, fmt.Sprintf("fnref-%d", f.number)},
			{AttrInline, strconv.FormatBool(f.inline)},
		}
		ev := Event{Kind: EventStart, Tag: KindFootnoteDef, Node: f.node, Span: span, Attrs: attrs}
		if !e.send(ev) {
			return
		}
		for _, c := range children {
			e.doc.Walk(c, e.visit)
			if e.stopped {
				return
			}
		}
		ev.Kind = EventEnd
		if !e.send(ev) {
			return
		}
	}
	e.send(Event{Kind: EventGroupEnd, Group: GroupFootnotes, Node: NoNode})
}

// flushDiagnostics emits the diagnostics that start at or before upto.
func (e *emitter) flushDiagnostics(upto int) {
	diags := e.doc.diagnostics
	for e.nextDiag < len(diags) && diags[e.nextDiag].Span.Start <= upto {
		d := diags[e.nextDiag]
		e.nextDiag++
		kind := EventWarning
		switch {
		case d.Category == CategoryUnsupported:
			kind = EventUnsupported
		case d.Severity == SeverityError:
			kind = EventError
		}
		if !e.send(Event{Kind: kind, Node: NoNode, Span: d.Span, Diagnostic: &d}) {
			return
		}
	}
}

func (e *emitter) profile(started time.Time) {
	now := time.Now()
	samples := []ProfileSample{
		{Kind: "nodes", Value: float64(e.doc.Len()), Time: now},
		{Kind: "diagnostics", Value: float64(len(e.doc.diagnostics)), Time: now},
		{Kind: "footnotes", Value: float64(len(e.footnotes)), Time: now},
		{Kind: "emit-duration-us", Value: float64(now.Sub(started).Microseconds()), Time: now},
	}
	for k := range samples {
		if !e.send(Event{Kind: EventProfile, Node: NoNode, Profile: &samples[k]}) {
			return
		}
	}
}
