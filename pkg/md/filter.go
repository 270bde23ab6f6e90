package md

import (
	"iter"
	"strconv"
)

// Filter maps one event to another. Returning false drops the event. Filters
// must not keep state between calls, so a pipeline may run on any goroutine.
type Filter func(Event) (Event, bool)

// Pipe applies filters in order to every event of seq.
func Pipe(seq iter.Seq[Event], filters ...Filter) iter.Seq[Event] {
	if len(filters) == 0 {
		return seq
	}
	return func(yield func(Event) bool) {
		for ev := range seq {
			keep := true
			for _, f := range filters {
				if ev, keep = f(ev); !keep {
					break
				}
			}
			if keep && !yield(ev) {
				return
			}
		}
	}
}

// DropDiagnostics removes Error, Warning and Unsupported events.
func DropDiagnostics() Filter {
	return func(ev Event) (Event, bool) {
		return ev, !ev.Kind.IsDiagnostic()
	}
}

// DropProfile removes Profile events.
func DropProfile() Filter {
	return func(ev Event) (Event, bool) {
		return ev, ev.Kind != EventProfile
	}
}

// RewriteLinks passes every link, image and autolink destination through fn.
func RewriteLinks(fn func(dest string) string) Filter {
	return func(ev Event) (Event, bool) {
		if ev.Kind != EventStart {
			return ev, true
		}
		switch ev.Tag {
		case KindLink, KindImage, KindAutolink:
			ev.Attrs = ev.Attrs.With(AttrDest, fn(ev.Attrs.Get(AttrDest)))
		}
		return ev, true
	}
}

// ShiftHeadings moves every heading by delta levels, clamped to 1..6.
func ShiftHeadings(delta int) Filter {
	return func(ev Event) (Event, bool) {
		if ev.Kind != EventStart || ev.Tag != KindHeading {
			return ev, true
		}
		level := max(1, min(6, ev.Attrs.Int(AttrLevel)+delta))
		ev.Attrs = ev.Attrs.With(AttrLevel, strconv.Itoa(level))
		return ev, true
	}
}
