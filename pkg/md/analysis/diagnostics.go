package analysis

import (
	"fmt"
	"sort"

	"github.com/open-cli-collective/marco/pkg/md"
)

// MaxTabs is the number of tabs the rendered tab widget is styled for.
const MaxTabs = 12

// Diagnostic is a parse or analysis finding with resolved positions.
type Diagnostic struct {
	md.Diagnostic
	Start md.Position `json:"start"`
	End   md.Position `json:"end"`
}

// ComputeDiagnostics returns the parse diagnostics of doc together with the
// structural checks that need the whole tree: duplicate explicit heading IDs,
// skipped heading levels, unused link and footnote definitions and
// oversized tab groups. The result is ordered by source offset.
func ComputeDiagnostics(doc *md.Document) []Diagnostic {
	if doc == nil {
		return nil
	}

	c := &checker{doc: doc, seen: make(map[seenKey]bool)}
	for _, d := range doc.Diagnostics() {
		c.add(d)
	}
	c.checkTree()
	c.checkDefinitions()

	sort.SliceStable(c.out, func(i, j int) bool {
		return c.out[i].Span.Start < c.out[j].Span.Start
	})
	return c.out
}

type seenKey struct {
	msg   string
	start int
}

type checker struct {
	doc  *md.Document
	out  []Diagnostic
	seen map[seenKey]bool

	usedLinks     map[string]bool
	usedFootnotes map[string]bool
}

func (c *checker) add(d md.Diagnostic) {
	key := seenKey{msg: d.Message, start: d.Span.Start}
	if c.seen[key] {
		return
	}
	c.seen[key] = true
	c.out = append(c.out, Diagnostic{
		Diagnostic: d,
		Start:      c.doc.Position(d.Span.Start),
		End:        c.doc.Position(d.Span.End),
	})
}

func (c *checker) report(sev md.Severity, cat md.Category, span md.Span, format string, args ...any) {
	c.add(md.Diagnostic{Severity: sev, Category: cat, Message: fmt.Sprintf(format, args...), Span: span})
}

func (c *checker) checkTree() {
	doc := c.doc
	defs := doc.Definitions()
	c.usedLinks = make(map[string]bool)
	c.usedFootnotes = make(map[string]bool)

	ids := make(map[string]bool)
	lastLevel := 0

	visit := func(id md.NodeID, entering bool) md.WalkStatus {
		if !entering {
			return md.WalkContinue
		}
		n := doc.Node(id)
		switch n.Kind {
		case md.KindHeading:
			if n.ID != "" {
				if ids[n.ID] && !n.AutoID {
					c.report(md.SeverityWarning, md.CategoryReference, n.Span, "duplicate heading id %q", n.ID)
				}
				ids[n.ID] = true
			}
			if lastLevel > 0 && n.Level > lastLevel+1 {
				c.report(md.SeverityHint, md.CategoryStructural, n.Span,
					"heading level jumps from %d to %d", lastLevel, n.Level)
			}
			lastLevel = n.Level
		case md.KindTabGroup:
			if tabs := len(doc.Children(id)); tabs > MaxTabs {
				c.report(md.SeverityHint, md.CategoryStructural, n.Span,
					"tab group has %d tabs; only the first %d are styled", tabs, MaxTabs)
			}
		case md.KindLink, md.KindImage:
			if n.Link != nil && n.Link.Form != md.LinkInline {
				if def, ok := defs.Link(n.Link.Label); ok {
					c.usedLinks[def.Label] = true
				}
			}
		case md.KindFootnoteRef:
			if def, ok := defs.Footnote(n.Label); ok {
				c.usedFootnotes[def.Label] = true
			}
		}
		return md.WalkContinue
	}

	doc.Walk(doc.Root(), visit)
	for _, def := range defs.Footnotes() {
		doc.Walk(def.Node, visit)
	}
}

func (c *checker) checkDefinitions() {
	defs := c.doc.Definitions()
	for _, def := range defs.Links() {
		if !c.usedLinks[def.Label] {
			c.report(md.SeverityHint, md.CategoryReference, def.Span, "link definition [%s] is never used", def.Label)
		}
	}
	for _, def := range defs.Footnotes() {
		if !c.usedFootnotes[def.Label] {
			c.report(md.SeverityHint, md.CategoryReference, def.Span, "footnote [^%s] is never referenced", def.Label)
		}
	}
}
