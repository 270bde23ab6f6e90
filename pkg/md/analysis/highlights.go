// Package analysis derives editor artifacts from a parsed Document:
// syntax highlight ranges, diagnostics and completions. Every function is
// pure and safe to call from any goroutine.
package analysis

import (
	"sort"

	"github.com/open-cli-collective/marco/pkg/md"
)

// Tag classifies a highlighted range.
type Tag uint8

const (
	TagHeading1 Tag = iota
	TagHeading2
	TagHeading3
	TagHeading4
	TagHeading5
	TagHeading6
	TagBlockquote
	TagAdmonition
	TagCodeBlock
	TagHTMLBlock
	TagList
	TagListItem
	TagThematicBreak
	TagTable
	TagDefinitionList
	TagDefinitionTerm
	TagTabGroup
	TagTabItem
	TagSlideDeck
	TagSlide
	TagFrontMatter
	TagFootnoteDef
	TagEmphasis
	TagStrong
	TagStrikethrough
	TagCodeSpan
	TagLink
	TagImage
	TagAutolink
	TagInlineHTML
	TagFootnoteRef
	TagMention
	TagEmoji
	TagMath
	TagTaskMarker
	TagEntity
	TagHardBreak
	TagSoftBreak
)

var tagNames = [...]string{
	TagHeading1:       "heading-1",
	TagHeading2:       "heading-2",
	TagHeading3:       "heading-3",
	TagHeading4:       "heading-4",
	TagHeading5:       "heading-5",
	TagHeading6:       "heading-6",
	TagBlockquote:     "blockquote",
	TagAdmonition:     "admonition",
	TagCodeBlock:      "code-block",
	TagHTMLBlock:      "html-block",
	TagList:           "list",
	TagListItem:       "list-item",
	TagThematicBreak:  "thematic-break",
	TagTable:          "table",
	TagDefinitionList: "definition-list",
	TagDefinitionTerm: "definition-term",
	TagTabGroup:       "tab-group",
	TagTabItem:        "tab-item",
	TagSlideDeck:      "slide-deck",
	TagSlide:          "slide",
	TagFrontMatter:    "front-matter",
	TagFootnoteDef:    "footnote-def",
	TagEmphasis:       "emphasis",
	TagStrong:         "strong",
	TagStrikethrough:  "strikethrough",
	TagCodeSpan:       "code-span",
	TagLink:           "link",
	TagImage:          "image",
	TagAutolink:       "autolink",
	TagInlineHTML:     "inline-html",
	TagFootnoteRef:    "footnote-ref",
	TagMention:        "mention",
	TagEmoji:          "emoji",
	TagMath:           "math",
	TagTaskMarker:     "task-marker",
	TagEntity:         "entity",
	TagHardBreak:      "hard-break",
	TagSoftBreak:      "soft-break",
}

func (t Tag) String() string {
	if int(t) < len(tagNames) {
		return tagNames[t]
	}
	return "unknown"
}

// TagNames returns every tag name in declaration order.
func TagNames() []string {
	out := make([]string, len(tagNames))
	copy(out, tagNames[:])
	return out
}

// MarshalText encodes the tag by name.
func (t Tag) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// kindTags maps node kinds to tags. Kinds without an entry (documents,
// paragraphs, plain text, table rows and cells) are not highlighted.
var kindTags = map[md.Kind]Tag{
	md.KindBlockQuote:     TagBlockquote,
	md.KindAdmonition:     TagAdmonition,
	md.KindCodeBlock:      TagCodeBlock,
	md.KindHTMLBlock:      TagHTMLBlock,
	md.KindList:           TagList,
	md.KindListItem:       TagListItem,
	md.KindThematicBreak:  TagThematicBreak,
	md.KindTable:          TagTable,
	md.KindDefinitionList: TagDefinitionList,
	md.KindDefinitionTerm: TagDefinitionTerm,
	md.KindTabGroup:       TagTabGroup,
	md.KindTabItem:        TagTabItem,
	md.KindSlideDeck:      TagSlideDeck,
	md.KindSlide:          TagSlide,
	md.KindFrontMatter:    TagFrontMatter,
	md.KindFootnoteDef:    TagFootnoteDef,
	md.KindEmphasis:       TagEmphasis,
	md.KindStrong:         TagStrong,
	md.KindStrikethrough:  TagStrikethrough,
	md.KindCodeSpan:       TagCodeSpan,
	md.KindLink:           TagLink,
	md.KindImage:          TagImage,
	md.KindAutolink:       TagAutolink,
	md.KindRawHTML:        TagInlineHTML,
	md.KindFootnoteRef:    TagFootnoteRef,
	md.KindInlineFootnote: TagFootnoteRef,
	md.KindMention:        TagMention,
	md.KindEmoji:          TagEmoji,
	md.KindMath:           TagMath,
	md.KindTaskMarker:     TagTaskMarker,
	md.KindEntity:         TagEntity,
	md.KindHardBreak:      TagHardBreak,
	md.KindSoftBreak:      TagSoftBreak,
}

func tagFor(n md.Node) (Tag, bool) {
	if n.Kind == md.KindHeading {
		level := max(1, min(6, n.Level))
		return TagHeading1 + Tag(level-1), true
	}
	t, ok := kindTags[n.Kind]
	return t, ok
}

// Highlight is one highlighted range of the source.
type Highlight struct {
	Span  md.Span     `json:"span"`
	Start md.Position `json:"start"`
	End   md.Position `json:"end"`
	Tag   Tag         `json:"tag"`
}

// ComputeHighlights returns the highlight ranges of doc ordered by start
// offset, outer ranges before the ranges they enclose. Identical ranges with
// the same tag appear once. Footnote definitions, which live outside the
// block tree, are included.
func ComputeHighlights(doc *md.Document) []Highlight {
	if doc == nil {
		return nil
	}

	var out []Highlight
	collect := func(root md.NodeID) {
		doc.Walk(root, func(id md.NodeID, entering bool) md.WalkStatus {
			if !entering {
				return md.WalkContinue
			}
			n := doc.Node(id)
			tag, ok := tagFor(n)
			if !ok || n.Span.Len() <= 0 {
				return md.WalkContinue
			}
			out = append(out, Highlight{
				Span:  n.Span,
				Start: doc.Position(n.Span.Start),
				End:   doc.Position(n.Span.End),
				Tag:   tag,
			})
			return md.WalkContinue
		})
	}
	collect(doc.Root())
	for _, def := range doc.Definitions().Footnotes() {
		collect(def.Node)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Span.Start != b.Span.Start {
			return a.Span.Start < b.Span.Start
		}
		if a.Span.End != b.Span.End {
			return a.Span.End > b.Span.End
		}
		return a.Tag < b.Tag
	})

	deduped := out[:0]
	for _, h := range out {
		if n := len(deduped); n > 0 && h.Span == deduped[n-1].Span && h.Tag == deduped[n-1].Tag {
			continue
		}
		deduped = append(deduped, h)
	}
	return deduped
}
