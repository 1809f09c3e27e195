// Package macro implements the recording stream and player (component L):
// a flat list of command lines, an optimizer that coalesces runs of typed
// characters, and a basename-keyed, fsnotify-invalidated cache for macros
// loaded from disk.
package macro

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vigna-ne/ne/pkg/status"
)

// MaxDepth bounds macro-playing-macro recursion, surfaced as
// MAX_MACRO_DEPTH_EXCEEDED rather than a stack overflow.
const MaxDepth = 16

// Macro is a named, ordered list of command lines, one per recorded or
// file-loaded action.
type Macro struct {
	Name  string
	Lines []string
}

// Recorder implements buffer.MacroSink: every dispatched, recordable
// action is appended as one command line.
type Recorder struct {
	lines []string
}

// NewRecorder returns an empty recording stream.
func NewRecorder() *Recorder { return &Recorder{} }

// Record appends one action to the stream, formatted the way a macro file
// on disk represents a command: the action name, then its argument if one
// was given.
func (r *Recorder) Record(action string, intArg int, strArg string) {
	r.lines = append(r.lines, formatCommand(action, intArg, strArg))
}

func formatCommand(action string, intArg int, strArg string) string {
	switch {
	case strArg != "":
		return fmt.Sprintf("%s %q", action, strArg)
	case intArg >= 0:
		return fmt.Sprintf("%s %d", action, intArg)
	default:
		return action
	}
}

// Lines returns a snapshot of the recorded stream.
func (r *Recorder) Lines() []string { return append([]string(nil), r.lines...) }

// Reset clears the recording stream, e.g. when a new recording starts.
func (r *Recorder) Reset() { r.lines = nil }

// Len reports how many commands have been recorded so far.
func (r *Recorder) Len() int { return len(r.lines) }

// Optimize coalesces consecutive InsertChar commands whose argument is a
// printable ASCII code point into a single InsertString, stopping a run at
// any Undo command or any line Optimize cannot positively identify as
// InsertChar — a line it doesn't recognize might be a user macro's own
// command spelled InsertChar-like, or might itself be (or follow) an Undo,
// so the safe choice is to flatten the run rather than guess.
func Optimize(lines []string) []string {
	out := make([]string, 0, len(lines))
	var run []byte

	flatten := func() {
		if len(run) == 0 {
			return
		}
		out = append(out, fmt.Sprintf("InsertString %q", string(run)))
		run = nil
	}

	for _, ln := range lines {
		if c, ok := printableInsertChar(ln); ok {
			run = append(run, c)
			continue
		}
		flatten()
		out = append(out, ln)
	}
	flatten()
	return out
}

func printableInsertChar(line string) (byte, bool) {
	fields := strings.Fields(line)
	if len(fields) != 2 || fields[0] != "InsertChar" {
		return 0, false
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil || n < 32 || n > 126 {
		return 0, false
	}
	return byte(n), true
}

// ParseText splits macro file contents into a Macro's command lines,
// skipping blank lines and '#'-comment lines, per spec.md 6.
func ParseText(name, text string) *Macro {
	m := &Macro{Name: name}
	for _, ln := range strings.Split(text, "\n") {
		ln = strings.TrimRight(ln, "\r")
		trimmed := strings.TrimSpace(ln)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		m.Lines = append(m.Lines, ln)
	}
	return m
}

// Dispatcher is implemented by whatever runs one parsed command line
// (normally the dispatch package's do_action wrapper).
type Dispatcher interface {
	Dispatch(line string) status.Status
}

// Player plays a macro's command stream, duplicating it first so that a
// command inside the stream which closes documents or unloads macros
// cannot free the stream out from under the iteration that is still
// walking it (spec.md 4.11).
type Player struct {
	Dispatch func(line string) status.Status
	depth    int
}

// Play runs lines in order, stopping early (with STOPPED) if stop is
// non-nil and becomes true between commands, or if Dispatch returns a
// non-OK status. Nested Play calls beyond MaxDepth fail fast.
func (p *Player) Play(lines []string, stop *bool) (int, status.Status) {
	if p.depth >= MaxDepth {
		return 0, status.MAX_MACRO_DEPTH_EXCEEDED
	}
	p.depth++
	defer func() { p.depth-- }()

	snapshot := append([]string(nil), lines...)
	count := 0
	for _, ln := range snapshot {
		if stop != nil && *stop {
			return count, status.STOPPED
		}
		if st := p.Dispatch(ln); !st.OK() {
			return count, st
		}
		count++
	}
	return count, status.OK
}
