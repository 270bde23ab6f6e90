package md

import (
	"sort"

	"github.com/rs/zerolog"
)

// Severity ranks a diagnostic.
type Severity uint8

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
	SeverityHint
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	}
	return "hint"
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Category classifies the defect behind a diagnostic.
type Category uint8

const (
	// CategoryStructural marks an unparseable construct recovered as literal text.
	CategoryStructural Category = iota
	// CategoryReference marks an unresolved or duplicate label.
	CategoryReference
	// CategoryLimitExceeded marks a nesting or backtracking bound that truncated a subtree.
	CategoryLimitExceeded
	// CategoryUnsupported marks recognized syntax that is passed through literally.
	CategoryUnsupported
	// CategoryEncoding marks replaced invalid UTF-8 or NUL bytes.
	CategoryEncoding
)

var categoryNames = []string{"structural", "reference", "limit-exceeded", "unsupported", "encoding"}

func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Diagnostic describes a local defect found while parsing. Diagnostics never
// abort a parse.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Category Category `json:"category"`
	Message  string   `json:"message"`
	Span     Span     `json:"span"`
}

// diagnostics collects diagnostics for one parse and mirrors them to the
// engine logger.
type diagnostics struct {
	list []Diagnostic
	log  zerolog.Logger
	seen map[diagKey]bool
}

type diagKey struct {
	msg   string
	start int
}

func newDiagnostics(log zerolog.Logger) *diagnostics {
	return &diagnostics{log: log, seen: make(map[diagKey]bool)}
}

func (d *diagnostics) add(sev Severity, cat Category, span Span, msg string) {
	key := diagKey{msg: msg, start: span.Start}
	if d.seen[key] {
		return
	}
	d.seen[key] = true
	d.list = append(d.list, Diagnostic{Severity: sev, Category: cat, Message: msg, Span: span})
	d.log.Debug().
		Str("severity", sev.String()).
		Str("category", cat.String()).
		Int("offset", span.Start).
		Msg(msg)
}

func (d *diagnostics) warn(cat Category, span Span, msg string) {
	d.add(SeverityWarning, cat, span, msg)
}

func (d *diagnostics) merge(other []Diagnostic) {
	for _, diag := range other {
		d.add(diag.Severity, diag.Category, diag.Span, diag.Message)
	}
}

// sorted returns the diagnostics ordered by source offset. Diagnostics at the
// same offset keep their recording order.
func (d *diagnostics) sorted() []Diagnostic {
	out := make([]Diagnostic, len(d.list))
	copy(out, d.list)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Span.Start < out[j].Span.Start
	})
	return out
}
