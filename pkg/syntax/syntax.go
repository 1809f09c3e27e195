// Package syntax implements the DFA-driven highlighter (component K):
// byte-at-a-time state machine parsing grounded on syntax.c's parse()
// loop, adapted to return a value-comparable state snapshot instead of
// the original's shared, never-freed call-frame tree.
package syntax

import (
	"github.com/vigna-ne/ne/pkg/buffer"
)

// Edge is one entry in a state's 256-entry character table (or its
// delimiter/keyword-redirect slots), grounded on syntax.h's high_cmd.
type Edge struct {
	Target int // state index to move to; ignored for Return/Reset

	Noeat       bool
	StartBuffer bool
	StopBuffer  bool
	SaveC       bool
	SaveS       bool
	IgnoreCase  bool
	StartMark   bool
	StopMark    bool
	RecolorMark bool
	Return      bool
	Reset       bool
	Call        bool

	Recolor  int              // negative count: repaint the last -Recolor chars (this one included)
	Delim    *Edge            // string-delimiter redirect: fires when the buffered name equals the saved string
	Keywords map[string]*Edge
}

// State is one named DFA state: a full byte-indexed transition table plus
// an optional single-character delimiter shortcut, grounded on syntax.h's
// high_state.
type State struct {
	Name  string
	Color int
	Edges [256]*Edge
	Delim *Edge // fires instead of Edges[c] when the 1-byte saved string equals c
}

// Syntax is a loaded highlighter definition: a flat table of states (the
// root syntax and any "subroutines" all share one table, addressed by
// index) plus the entry state for the root and for each named subroutine.
//
// The original engine loads subroutines as distinct high_syntax objects and
// caches call frames so that repeated calls from the same site share one
// frame pointer, because its equality test (eq_state) compares frames by
// pointer identity. This port's HighlightState.Equal compares the call
// stack by value, so the cache is unneeded for correctness; it is not
// reproduced here, trading a little allocation for a materially simpler
// call/return/reset implementation (see DESIGN.md).
type Syntax struct {
	Name      string
	States    []*State
	RootState int
}

// bracketMate maps an opening delimiter to the character save_c actually
// remembers, per syntax.c's save_c handling.
var bracketMate = map[byte]byte{
	'<': '>', '(': ')', '[': ']', '{': '}', '`': '\'',
}

// ParseLine runs the DFA over one line's bytes, implementing
// buffer.Highlighter. prev is the line's initial highlight state, which
// is stored on the line's own descriptor by the parse of the line before
// it (nil/Invalid at the start of the buffer or whenever the caller wants
// a fresh parse).
func (s *Syntax) ParseLine(prev *buffer.HighlightState, line []byte) ([]byte, *buffer.HighlightState) {
	state := int32(s.RootState)
	var callStack []int32
	var saved []byte
	if prev != nil && prev.Valid {
		state = prev.State
		callStack = append([]int32(nil), prev.CallStack...)
		saved = append([]byte(nil), prev.Saved...)
	}

	// The original parses a trailing virtual '\n' so that an edge can fire
	// on end-of-line (e.g. a line comment closing at EOL); attrs only
	// covers the real bytes, so that final step's color write is kept but
	// its consuming advance is not.
	attrs := make([]byte, len(line))

	var buf []byte
	buffering := false
	markStart, markEnd := -1, -1
	marking := false

	i := 0
	for i <= len(line) {
		atEOL := i == len(line)
		var c byte
		if !atEOL {
			c = line[i]
		} else {
			c = '\n'
		}

		// A chain of noeat edges can hop through several states on one
		// byte before one finally consumes it; bound the hop count so a
		// malformed table (a noeat cycle) cannot spin forever.
		for hops := 0; hops <= len(s.States); hops++ {
			st := s.States[state]
			if !atEOL {
				attrs[i] = byte(st.Color)
			}
			var e *Edge
			if st.Delim != nil && len(saved) == 1 && saved[0] == c {
				e = st.Delim
			} else {
				e = st.Edges[c]
			}
			if e == nil {
				break
			}

			cmpName := buf
			cmpSaved := saved
			if e.IgnoreCase {
				cmpName = toLower(buf)
				cmpSaved = toLower(saved)
			}

			redirected := false
			if e.Delim != nil && string(cmpSaved) == string(cmpName) {
				e = e.Delim
				redirected = true
			} else if e.Keywords != nil {
				if kw, ok := e.Keywords[string(cmpName)]; ok {
					e = kw
					redirected = true
				}
			}

			switch {
			case e.Call:
				callStack = append(callStack, int32(e.Target))
				state = int32(e.Target)
			case e.Return:
				if len(callStack) > 0 {
					state = callStack[len(callStack)-1]
					callStack = callStack[:len(callStack)-1]
				}
			case e.Reset:
				callStack = callStack[:0]
				state = int32(s.RootState)
			default:
				state = int32(e.Target)
			}
			newColor := s.States[state].Color

			if redirected && !atEOL {
				// repaint the buffered name (excluding the current byte)
				n := len(buf)
				for k := i - n; k < i && k >= 0; k++ {
					attrs[k] = byte(newColor)
				}
			}
			if e.Recolor < 0 && !atEOL {
				from := i + e.Recolor + 1
				if from < 0 {
					from = 0
				}
				for k := from; k <= i && k < len(attrs); k++ {
					attrs[k] = byte(newColor)
				}
			}
			if e.RecolorMark && markStart >= 0 && markEnd >= 0 {
				for k := markStart; k < markEnd && k < len(attrs); k++ {
					attrs[k] = byte(newColor)
				}
			}

			if e.SaveS {
				saved = append([]byte(nil), buf...)
			}
			if e.SaveC {
				mate, ok := bracketMate[c]
				if ok {
					saved = []byte{mate}
				} else {
					saved = []byte{c}
				}
			}
			if e.StartBuffer {
				buf = buf[:0]
			}
			if e.StopBuffer {
				buffering = false
			} else if e.StartBuffer {
				buffering = true
			}
			if e.StartMark {
				markStart = i
				marking = true
			}
			if e.StopMark {
				marking = false
				markEnd = i
			}

			if !e.Noeat {
				break
			}
		}

		if !atEOL {
			if buffering {
				buf = append(buf, c)
			}
			if marking {
				markEnd = i + 1
			}
		}
		i++
	}

	next := &buffer.HighlightState{Valid: true, State: state, CallStack: callStack, Saved: saved}
	return attrs, next
}

func toLower(b []byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return out
}

// ParseVisible recomputes the attribute array for lineNum using the stored
// initial state on that line's descriptor, for on-demand rendering of one
// visible row.
func ParseVisible(s *Syntax, b *buffer.Buffer, lineNum int64) []byte {
	prev := b.NthLineDesc(lineNum).Hl
	attrs, _ := s.ParseLine(prev, b.NthLineDesc(lineNum).Bytes())
	return attrs
}

// RepaintFrom re-parses lines starting at fromLine, propagating the
// resulting highlight state forward and stopping as soon as a line's
// newly computed initial state matches what is already stored there —
// the incremental-repaint invariant of spec.md 4.9.
func RepaintFrom(s *Syntax, b *buffer.Buffer, fromLine int64) {
	prev := b.NthLineDesc(fromLine).Hl
	line := fromLine
	for line < b.NumLines {
		ld := b.NthLineDesc(line)
		_, next := s.ParseLine(prev, ld.Bytes())
		if ld.Next == nil {
			return
		}
		if ld.Next.Hl != nil && ld.Next.Hl.Equal(next) {
			return
		}
		ld.Next.Hl = next
		prev = next
		line++
	}
}
