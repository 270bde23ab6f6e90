package md

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmit_Footnotes(t *testing.T) {
	doc := Parse("Hi[^1]\n\n[^1]: note")

	assert.Equal(t, []string{
		"start Document",
		"start Paragraph",
		"text Hi",
		"start FootnoteRef",
		"end FootnoteRef",
		"end Paragraph",
		"group-start footnotes",
		"start FootnoteDef",
		"start Paragraph",
		"text note",
		"end Paragraph",
		"end FootnoteDef",
		"group-end footnotes",
		"end Document",
	}, trace(Emit(doc, EmitOptions{})))
}

func TestEmit_FootnoteNumbering(t *testing.T) {
	doc := Parse("b[^b] a[^a] b again[^b] ^[inline]\n\n[^a]: A\n\n[^b]: B\n\n[^unused]: U")

	var numbers, refIDs, defIDs []string
	for ev := range Emit(doc, EmitOptions{}) {
		if ev.Kind != EventStart {
			continue
		}
		switch ev.Tag {
		case KindFootnoteRef, KindInlineFootnote:
			numbers = append(numbers, ev.Attrs.Get(AttrNumber))
			refIDs = append(refIDs, ev.Attrs.Get(AttrRefID))
		case KindFootnoteDef:
			defIDs = append(defIDs, ev.Attrs.Get(AttrID))
		}
	}

	assert.Equal(t, []string{"1", "2", "1", "3"}, numbers)
	assert.Equal(t, []string{"fnref-1", "fnref-2", "fnref-1-2", "fnref-3"}, refIDs)
	assert.Equal(t, []string{"fn-1", "fn-2", "fn-3"}, defIDs)
}

func TestEmit_WidgetGroups(t *testing.T) {
	doc := Parse(":::tab Languages\n@tab Go\ngo\n@tab Rust\nrust\n:::\n\n@slidestart:t5\none\n--\ntwo\n@slideend")

	var groups []Event
	for ev := range Emit(doc, EmitOptions{}) {
		if ev.Kind == EventGroupStart {
			groups = append(groups, ev)
		}
	}
	require.Len(t, groups, 2)

	tabs := groups[0]
	assert.Equal(t, GroupTabs, tabs.Group)
	assert.Equal(t, "marco-tabs-1", tabs.Attrs.Get(AttrID))
	assert.Equal(t, "Languages", tabs.Attrs.Get(AttrTitle))
	assert.Equal(t, 2, tabs.Attrs.Int(AttrCount))
	assert.Equal(t, []string{"Go", "Rust"}, tabs.Attrs.All(AttrTab))

	slides := groups[1]
	assert.Equal(t, GroupSlides, slides.Group)
	assert.Equal(t, "marco-sliders-1", slides.Attrs.Get(AttrID))
	assert.Equal(t, "5", slides.Attrs.Get(AttrTimer))
	assert.Equal(t, 2, slides.Attrs.Int(AttrCount))
}

func TestEmit_UniqueIDs(t *testing.T) {
	doc := Parse(":::tab\n@tab A\na\n:::")

	ids := make(map[string]bool)
	for k := 0; k < 2; k++ {
		for ev := range Emit(doc, EmitOptions{UniqueIDs: true}) {
			if ev.Kind == EventGroupStart {
				id := ev.Attrs.Get(AttrID)
				assert.True(t, strings.HasPrefix(id, "marco-tabs-"))
				ids[id] = true
			}
		}
	}
	assert.Len(t, ids, 2)
}

func TestEmit_DiagnosticsInterleaved(t *testing.T) {
	doc := Parse("first\n\n[missing][nope]\n\nlast")

	events := trace(Emit(doc, EmitOptions{}))
	idx := func(s string) int {
		for k, e := range events {
			if e == s {
				return k
			}
		}
		return -1
	}
	warn := idx("warning")
	require.NotEqual(t, -1, warn)
	assert.Less(t, idx("text first"), warn)
	assert.Less(t, warn, idx("text last"))
}

func TestEmit_Profile(t *testing.T) {
	doc := Parse("text")

	var kinds []string
	for ev := range Emit(doc, EmitOptions{Profile: true}) {
		if ev.Kind == EventProfile {
			kinds = append(kinds, ev.Profile.Kind)
		}
	}
	assert.Equal(t, []string{"nodes", "diagnostics", "footnotes", "emit-duration-us"}, kinds)
}

func TestEmit_StopsEarly(t *testing.T) {
	doc := Parse("# A\n\nB\n\nC")

	count := 0
	for range Emit(doc, EmitOptions{}) {
		count++
		if count == 3 {
			break
		}
	}
	assert.Equal(t, 3, count)
}

func TestEmit_Reiterable(t *testing.T) {
	seq := Emit(Parse("- a\n- b"), EmitOptions{})
	assert.Equal(t, trace(seq), trace(seq))
}

func TestEmit_NilDocument(t *testing.T) {
	assert.Empty(t, trace(Emit(nil, EmitOptions{})))
}
