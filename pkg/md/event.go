package md

import (
	"strconv"
	"time"
)

// EventKind identifies the variant of an Event.
type EventKind uint8

const (
	EventStart EventKind = iota
	EventEnd
	EventText
	EventCode
	EventHTML
	EventGroupStart
	EventGroupEnd
	EventError
	EventWarning
	EventUnsupported
	EventProfile
)

var eventKindNames = []string{
	"start", "end", "text", "code", "html", "group-start", "group-end",
	"error", "warning", "unsupported", "profile",
}

func (k EventKind) String() string {
	if int(k) < len(eventKindNames) {
		return eventKindNames[k]
	}
	return "unknown"
}

// IsDiagnostic reports whether k carries a Diagnostic.
func (k EventKind) IsDiagnostic() bool {
	return k == EventError || k == EventWarning || k == EventUnsupported
}

// GroupType names the widget a group of events belongs to.
type GroupType uint8

const (
	GroupTabs GroupType = iota + 1
	GroupSlides
	GroupFootnotes
)

func (g GroupType) String() string {
	switch g {
	case GroupTabs:
		return "tabs"
	case GroupSlides:
		return "slides"
	case GroupFootnotes:
		return "footnotes"
	}
	return ""
}

// Attribute keys set by Emit.
const (
	AttrLevel    = "level"
	AttrID       = "id"
	AttrAutoID   = "auto-id"
	AttrOrdered  = "ordered"
	AttrStart    = "start"
	AttrTight    = "tight"
	AttrInfo     = "info"
	AttrLang     = "lang"
	AttrDest     = "dest"
	AttrTitle    = "title"
	AttrForm     = "form"
	AttrAlign    = "align"
	AttrHeader   = "header"
	AttrKind     = "kind"
	AttrIcon     = "icon"
	AttrStyle    = "style"
	AttrIndex    = "index"
	AttrCount    = "count"
	AttrTab      = "tab"
	AttrTimer    = "timer"
	AttrVertical = "vertical"
	AttrUser     = "user"
	AttrPlatform = "platform"
	AttrDisplay  = "display"
	AttrURL      = "url"
	AttrName     = "name"
	AttrChecked  = "checked"
	AttrLabel    = "label"
	AttrNumber   = "number"
	AttrRefID    = "ref-id"
	AttrInline   = "inline"
)

// Attr is one key/value attribute of an event.
type Attr struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Attributes is an ordered attribute list. Keys may repeat.
type Attributes []Attr

// Get returns the first value stored under key.
func (a Attributes) Get(key string) string {
	for _, kv := range a {
		if kv.Key == key {
			return kv.Value
		}
	}
	return ""
}

// Bool reports whether key holds "true".
func (a Attributes) Bool(key string) bool {
	return a.Get(key) == "true"
}

// Int returns the integer stored under key, or 0.
func (a Attributes) Int(key string) int {
	n, _ := strconv.Atoi(a.Get(key))
	return n
}

// All returns every value stored under key in order.
func (a Attributes) All(key string) []string {
	var out []string
	for _, kv := range a {
		if kv.Key == key {
			out = append(out, kv.Value)
		}
	}
	return out
}

// With returns a copy of a with key set to value.
func (a Attributes) With(key, value string) Attributes {
	out := make(Attributes, 0, len(a)+1)
	replaced := false
	for _, kv := range a {
		if kv.Key == key && !replaced {
			out = append(out, Attr{Key: key, Value: value})
			replaced = true
			continue
		}
		out = append(out, kv)
	}
	if !replaced {
		out = append(out, Attr{Key: key, Value: value})
	}
	return out
}

// ProfileSample is the payload of an EventProfile.
type ProfileSample struct {
	Kind  string    `json:"kind"`
	Value float64   `json:"value"`
	Time  time.Time `json:"time"`
}

// Event is one element of the stream produced by Emit. Tag is the node kind
// for Start and End, Group the widget for GroupStart and GroupEnd; Text holds
// the payload of Text, Code and HTML events.
type Event struct {
	Kind       EventKind      `json:"kind"`
	Tag        Kind           `json:"tag"`
	Group      GroupType      `json:"group,omitempty"`
	Node       NodeID         `json:"node"`
	Span       Span           `json:"span"`
	Attrs      Attributes     `json:"attrs,omitempty"`
	Text       string         `json:"text,omitempty"`
	Diagnostic *Diagnostic    `json:"diagnostic,omitempty"`
	Profile    *ProfileSample `json:"profile,omitempty"`
}
