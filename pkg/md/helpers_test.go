package md

import (
	"iter"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

// tree renders the subtree at id as Kind(child,...), with text literals in
// place of Text nodes. Used to compare document shapes compactly.
func tree(doc *Document, id NodeID) string {
	n := doc.Node(id)
	if n.Kind == KindText {
		return "Text(" + n.Literal + ")"
	}
	var sb strings.Builder
	sb.WriteString(n.Kind.String())
	children := doc.Children(id)
	if len(children) > 0 {
		sb.WriteString("(")
		for k, c := range children {
			if k > 0 {
				sb.WriteString(",")
			}
			sb.WriteString(tree(doc, c))
		}
		sb.WriteString(")")
	}
	return sb.String()
}

// blockTree renders the top-level blocks of doc joined by ";".
func blockTree(doc *Document) string {
	parts := make([]string, 0, len(doc.Blocks()))
	for _, b := range doc.Blocks() {
		parts = append(parts, tree(doc, b))
	}
	return strings.Join(parts, ";")
}

// inlineTree is tree for the result of ParseInlines.
func inlineTree(nodes []*Inline) string {
	parts := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if n.Kind == KindText {
			parts = append(parts, "Text("+n.Literal+")")
			continue
		}
		s := n.Kind.String()
		if len(n.Children) > 0 {
			s += "(" + inlineTree(n.Children) + ")"
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, ",")
}

// find returns every node of kind in document order.
func find(doc *Document, kind Kind) []NodeID {
	var out []NodeID
	doc.Walk(doc.Root(), func(id NodeID, entering bool) WalkStatus {
		if entering && doc.Kind(id) == kind {
			out = append(out, id)
		}
		return WalkContinue
	})
	return out
}

// messages returns the diagnostic messages of doc.
func messages(diags []Diagnostic) []string {
	out := make([]string, 0, len(diags))
	for _, d := range diags {
		out = append(out, d.Message)
	}
	return out
}

// trace flattens an event stream into short strings.
func trace(seq iter.Seq[Event]) []string {
	var out []string
	for ev := range seq {
		switch ev.Kind {
		case EventStart, EventEnd:
			out = append(out, ev.Kind.String()+" "+ev.Tag.String())
		case EventText, EventCode, EventHTML:
			out = append(out, ev.Kind.String()+" "+ev.Text)
		case EventGroupStart, EventGroupEnd:
			out = append(out, ev.Kind.String()+" "+ev.Group.String())
		default:
			out = append(out, ev.Kind.String())
		}
	}
	return out
}

func htmlDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}
