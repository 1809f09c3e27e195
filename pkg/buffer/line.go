package buffer

import "github.com/vigna-ne/ne/pkg/pool"

// HighlightState is the DFA state + call-stack handle + saved delimiter
// string that suffices to resume syntax parsing at the start of a line
// (spec.md glossary). It is stored on the line *following* the one it was
// computed for. Valid is false for a freshly allocated descriptor so the
// first paint always recomputes it (spec.md 4.2).
type HighlightState struct {
	Valid     bool
	State     int32
	CallStack []int32
	Saved     []byte
}

// Equal compares two highlight states field-wise, per the Design Note in
// spec.md 9 explicitly rejecting a padding-inclusive memcmp-style compare.
func (h *HighlightState) Equal(o *HighlightState) bool {
	if h == nil || o == nil {
		return h == o
	}
	if h.Valid != o.Valid || h.State != o.State {
		return false
	}
	if len(h.CallStack) != len(o.CallStack) || len(h.Saved) != len(o.Saved) {
		return false
	}
	for i := range h.CallStack {
		if h.CallStack[i] != o.CallStack[i] {
			return false
		}
	}
	for i := range h.Saved {
		if h.Saved[i] != o.Saved[i] {
			return false
		}
	}
	return true
}

// Line is a line descriptor (component D): a slice into a character pool,
// a byte length, and an optional highlight snapshot. A length-0 line
// carries a nil pool ref. Lines form a doubly-linked list owned by a
// Buffer; the backing slab/idx pair lets the buffer return the descriptor
// to its line-descriptor pool's free list on deletion.
type Line struct {
	ref pool.Ref
	Hl  *HighlightState

	Next, Prev *Line

	slab *pool.Slab[Line]
	idx  int32
}

// Len is the byte length of the line's text.
func (l *Line) Len() int { return l.ref.Len }

// Bytes returns the line's live text. Never retained past the next
// mutation of the owning buffer: pools are reused in place.
func (l *Line) Bytes() []byte {
	if l.ref.Len == 0 {
		return nil
	}
	return l.ref.Bytes()
}

// Empty reports whether the line carries no text (ref.Pool == nil).
func (l *Line) Empty() bool { return l.ref.Len == 0 }
