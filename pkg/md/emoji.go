package md

import (
	"sort"
	"sync"

	"github.com/yuin/goldmark-emoji/definition"
)

// commonShortcodes are offered for completion. Lookup accepts every GitHub
// shortcode, not just these.
var commonShortcodes = []string{
	"+1", "-1", "100", "alarm_clock", "bangbang", "bell", "book", "bookmark",
	"boom", "bug", "bulb", "calendar", "check", "clap", "clipboard", "construction",
	"coffee", "cry", "dart", "eyes", "fire", "gear", "gift", "grin", "grinning",
	"heart", "heavy_check_mark", "hammer", "hourglass", "information_source",
	"joy", "key", "laughing", "link", "lock", "loudspeaker", "mag", "memo",
	"no_entry", "ok_hand", "package", "paperclip", "pencil2", "pushpin", "question",
	"raised_hands", "recycle", "rocket", "rotating_light", "see_no_evil", "smile",
	"smiley", "sparkles", "star", "sunglasses", "tada", "thinking", "thumbsdown",
	"thumbsup", "tools", "trophy", "warning", "wave", "white_check_mark",
	"wink", "wrench", "x", "zap",
}

// EmojiTable maps shortcodes to glyphs. It is read-only after construction
// and may be shared by concurrent parses.
type EmojiTable struct {
	defs  definition.Emojis
	names []string
}

// NewEmojiTable builds a table from the GitHub shortcode set plus extra.
func NewEmojiTable(extra ...definition.Emoji) *EmojiTable {
	defs := definition.Github().Clone()
	if len(extra) > 0 {
		defs.Add(definition.NewEmojis(extra...))
	}
	seen := make(map[string]bool)
	t := &EmojiTable{defs: defs}
	add := func(name string) {
		if seen[name] {
			return
		}
		if _, ok := defs.Get(name); ok {
			seen[name] = true
			t.names = append(t.names, name)
		}
	}
	for _, name := range commonShortcodes {
		add(name)
	}
	for _, e := range extra {
		for _, name := range e.ShortNames {
			add(name)
		}
	}
	sort.Strings(t.names)
	return t
}

var defaultEmojiTable = sync.OnceValue(func() *EmojiTable {
	return NewEmojiTable()
})

// DefaultEmojiTable returns the shared GitHub shortcode table.
func DefaultEmojiTable() *EmojiTable {
	return defaultEmojiTable()
}

// Lookup returns the glyph for a shortcode without its colons.
func (t *EmojiTable) Lookup(name string) (string, bool) {
	if t == nil || name == "" {
		return "", false
	}
	e, ok := t.defs.Get(name)
	if !ok || len(e.Unicode) == 0 {
		return "", false
	}
	return string(e.Unicode), true
}

// Names returns the completion candidates in sorted order.
func (t *EmojiTable) Names() []string {
	if t == nil {
		return nil
	}
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}
