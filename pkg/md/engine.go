// engine.go holds the parse context and the public entry points. An Engine
// owns no mutable state, so one value may serve any number of goroutines.
package md

import (
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

// DefaultMaxNesting bounds container and inline nesting unless an Engine is
// configured otherwise.
const DefaultMaxNesting = 32

// Engine parses and renders Markdown with a fixed configuration.
type Engine struct {
	log        zerolog.Logger
	maxNesting int
	emoji      *EmojiTable
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger that receives parse summaries and diagnostics
// at debug level.
func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

// WithMaxNesting bounds block and inline nesting. Values below 1 select
// DefaultMaxNesting.
func WithMaxNesting(n int) Option {
	return func(e *Engine) {
		if n < 1 {
			n = DefaultMaxNesting
		}
		e.maxNesting = n
	}
}

// WithEmojiTable replaces the shortcode table.
func WithEmojiTable(t *EmojiTable) Option {
	return func(e *Engine) {
		if t != nil {
			e.emoji = t
		}
	}
}

// NewEngine returns an Engine with the given options applied.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		log:        zerolog.Nop(),
		maxNesting: DefaultMaxNesting,
		emoji:      DefaultEmojiTable(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MaxNesting returns the configured nesting bound.
func (e *Engine) MaxNesting() int {
	return e.maxNesting
}

// Emoji returns the engine's shortcode table.
func (e *Engine) Emoji() *EmojiTable {
	return e.emoji
}

// Parse parses source into a Document. It never fails: defects are reported
// as diagnostics on the returned Document.
func (e *Engine) Parse(source string) (doc *Document) {
	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			e.log.Error().Interface("panic", r).Msg("parser failed; returning literal document")
			doc = literalDocument(source, fmt.Sprintf("internal parser error: %v", r))
		}
	}()

	src, diags := e.prepare(source)
	blocks := newBlockParser(src, e.maxNesting, diags).parseDocument()
	doc = build(src, blocks, diags, e.emoji, e.maxNesting)

	e.log.Debug().
		Int("bytes", len(src)).
		Int("nodes", doc.Len()).
		Int("diagnostics", len(doc.diagnostics)).
		Dur("elapsed", time.Since(started)).
		Msg("parsed document")
	return doc
}

// ParseBlocks runs only the block grammar. Inline content of the returned
// blocks is left unparsed.
func (e *Engine) ParseBlocks(source string) ([]*RawBlock, []Diagnostic) {
	src, diags := e.prepare(source)
	blocks := newBlockParser(src, e.maxNesting, diags).parseDocument()
	return blocks, diags.sorted()
}

// ParseInlines parses text as the content of a single paragraph. References
// resolve against defs, which may be nil.
func (e *Engine) ParseInlines(text string, defs *Definitions) []*Inline {
	text, _ = normalizeSource(text)
	return parseInlineContent(contentOf(text, 0), inlineOptions{
		defs:     defs,
		emoji:    e.emoji,
		diags:    newDiagnostics(e.log),
		maxDepth: e.maxNesting,
	})
}

// Render renders doc to HTML.
func (e *Engine) Render(doc *Document, opts RenderOptions) string {
	return Render(doc, opts)
}

// ParseAndRender parses source and renders the result.
func (e *Engine) ParseAndRender(source string, opts RenderOptions) string {
	return Render(e.Parse(source), opts)
}

// prepare normalizes source and opens the diagnostic list for one parse.
func (e *Engine) prepare(source string) (string, *diagnostics) {
	diags := newDiagnostics(e.log)
	src, replaced := normalizeSource(source)
	if replaced {
		off := firstInvalid(source)
		diags.warn(CategoryEncoding, Span{off, off + utf8.RuneLen(utf8.RuneError)},
			"invalid UTF-8 or NUL bytes replaced with U+FFFD")
	}
	return src, diags
}

// firstInvalid returns the offset of the first byte normalizeSource replaces.
func firstInvalid(s string) int {
	for i, r := range s {
		if r == 0 {
			return i
		}
		if r == utf8.RuneError {
			if _, size := utf8.DecodeRuneInString(s[i:]); size == 1 {
				return i
			}
		}
	}
	return 0
}

// literalDocument wraps source in a single paragraph of text.
func literalDocument(source, msg string) *Document {
	src, _ := normalizeSource(source)
	span := Span{0, len(src)}
	doc := &Document{
		Source: src,
		defs:   NewDefinitions(),
		lines:  NewLineIndex(src),
		nodes: []Node{
			{Kind: KindDocument, Span: span, Parent: NoNode, Children: []NodeID{1}},
			{Kind: KindParagraph, Span: span, Parent: 0, Children: []NodeID{2}},
			{Kind: KindText, Span: span, Parent: 1, Literal: src},
		},
		diagnostics: []Diagnostic{{Severity: SeverityError, Category: CategoryStructural, Message: msg, Span: Span{0, 0}}},
	}
	return doc
}

var defaultEngine = sync.OnceValue(func() *Engine {
	return NewEngine()
})

// Parse parses source with the default Engine.
func Parse(source string) *Document {
	return defaultEngine().Parse(source)
}

// ParseAndRender parses and renders source with the default Engine.
func ParseAndRender(source string, opts RenderOptions) string {
	return defaultEngine().ParseAndRender(source, opts)
}

// ParseBlocks runs the block grammar of the default Engine.
func ParseBlocks(source string) ([]*RawBlock, []Diagnostic) {
	return defaultEngine().ParseBlocks(source)
}

// ParseInlines parses text as paragraph content with the default Engine.
func ParseInlines(text string, defs *Definitions) []*Inline {
	return defaultEngine().ParseInlines(text, defs)
}
