// Package buffer implements the line model and buffer aggregate (components
// D and E of the spec) plus the editing primitives that are the only
// mutators of buffer content (component F).
package buffer

import (
	"sync"

	"github.com/vigna-ne/ne/pkg/encoding"
	"github.com/vigna-ne/ne/pkg/pool"
	"github.com/vigna-ne/ne/pkg/undo"
)

// Mark is the anchor end of a selection; the cursor is the other end.
type Mark struct {
	Active   bool
	Vertical bool
	Line     int64
	Pos      int
}

// Bookmark is a saved (line, pos) pair. Slot 10 is the automatic bookmark
// pushed on every long jump; slots 0-9 are user bookmarks.
type Bookmark struct {
	Set  bool
	Line int64
	Pos  int
}

const (
	NumUserBookmarks = 10
	AutoBookmark     = NumUserBookmarks
	NumBookmarks     = NumUserBookmarks + 1
)

// Options is the flat record of per-buffer editing options (spec.md 3).
type Options struct {
	TabSize     int
	RightMargin int
	Insert      bool
	AutoIndent  bool
	WordWrap    bool
	PreserveCR  bool
	Binary      bool
	DelTabs     bool
	ShiftTabs   bool
	AutoMatch   bool
	VisualBell  bool
	DoUndo      bool
	AutoPrefs   bool
	NoFileReq   bool
	UTF8Auto    bool
	FreeForm    bool
	CurClip     int
}

// DefaultOptions mirrors ne's factory defaults.
func DefaultOptions() Options {
	return Options{
		TabSize:    8,
		Insert:     true,
		AutoIndent: false,
		DoUndo:     true,
		UTF8Auto:   true,
		CurClip:    0,
	}
}

// Highlighter is implemented by the syntax package's DFA. Kept as an
// interface here so this package never imports syntax (which itself reads
// buffer lines), avoiding an import cycle.
type Highlighter interface {
	ParseLine(prev *HighlightState, line []byte) (attrs []byte, next *HighlightState)
}

// MacroSink is implemented by the macro package's recording stream.
type MacroSink interface {
	Record(action string, intArg int, strArg string)
}

// Buffer aggregates everything spec.md 3 assigns to component E.
type Buffer struct {
	mu sync.Mutex

	ID         string
	SourcePath string

	Chars   pool.CharList
	ldPools pool.SlabList[Line]

	Head, Tail *Line
	NumLines   int64

	CurLine     *Line
	CurLineNum  int64
	CurPosBytes int
	CurCharIdx  int
	CurX, CurY  int
	WinX, WinY  int

	// ScreenWidth is the front end's last-reported terminal column count,
	// used as word-wrap's right_margin fallback when the option is 0
	// (spec.md 4.4). Updated via SetScreenWidth on resize; 0 until then.
	ScreenWidth int

	WantedX  int
	XWanted  bool
	WantedY  int
	YWanted  bool

	Mark      Mark
	Bookmarks [NumBookmarks]Bookmark

	Enc          encoding.Encoding
	CRLFOnSave   bool
	IsModified   bool
	ReadOnly     bool

	FindString         string
	ReplaceString       string
	LastWasRegex        bool
	LastWasReplace      bool
	SearchBack          bool
	CaseSensitive       bool
	FindStringChanged   bool

	Undo *undo.Log

	Options Options

	Syntax  Highlighter
	AttrBuf []byte

	Macro     MacroSink
	Recording bool

	Undoing, Redoing bool
}

// New creates a buffer with a single empty line, matching the invariant
// that even an empty file has num_lines == 1.
func New(enc encoding.Encoding, doUndo bool) *Buffer {
	b := &Buffer{
		Enc:     enc,
		Options: DefaultOptions(),
		Undo:    undo.NewLog(),
	}
	b.Options.DoUndo = doUndo
	first, _, _ := b.ldPools.Alloc()
	b.Head, b.Tail = first, first
	b.CurLine = first
	b.NumLines = 1
	return b
}

// Lock/Unlock expose the buffer's mutex directly: this is the Go
// realization of the signal-masked critical section of spec.md 5. The
// stream primitives do not take it themselves; callers that read or move
// a buffer from outside the dispatcher (ExtractAll, the renderhub
// snapshot, cmd/ne's jump) bracket their work between Lock and Unlock.
func (b *Buffer) Lock()   { b.mu.Lock() }
func (b *Buffer) Unlock() { b.mu.Unlock() }

// SetScreenWidth records the front end's current terminal width, consulted
// by word-wrap when right_margin is 0 (spec.md 4.4: "or screen width when
// margin == 0").
func (b *Buffer) SetScreenWidth(cols int) { b.ScreenWidth = cols }

func (b *Buffer) newLine() *Line {
	l, s, idx := b.ldPools.Alloc()
	l.slab, l.idx = s, idx
	return l
}

func (b *Buffer) freeLine(l *Line) {
	b.ldPools.Free(l.slab, l.idx)
}

// NthLineDesc returns the n-th (0-based) line descriptor, choosing the
// cheapest of three traversals: from the head, from the tail, or from the
// current cursor line, bounding cost at min(n, N-n, |n-cur_line|) as
// specified in spec.md 4.3. It is the only sanctioned way to reach a line
// by number.
func (b *Buffer) NthLineDesc(n int64) *Line {
	if n < 0 || n >= b.NumLines {
		return nil
	}
	fromHead := n
	fromTail := b.NumLines - 1 - n
	fromCur := n - b.CurLineNum
	if fromCur < 0 {
		fromCur = -fromCur
	}

	best := fromHead
	mode := 0
	if fromTail < best {
		best = fromTail
		mode = 1
	}
	if fromCur < best {
		mode = 2
	}

	switch mode {
	case 0:
		l := b.Head
		for i := int64(0); i < n; i++ {
			l = l.Next
		}
		return l
	case 1:
		l := b.Tail
		for i := int64(0); i < fromTail; i++ {
			l = l.Prev
		}
		return l
	default:
		l := b.CurLine
		if n >= b.CurLineNum {
			for i := b.CurLineNum; i < n; i++ {
				l = l.Next
			}
		} else {
			for i := b.CurLineNum; i > n; i-- {
				l = l.Prev
			}
		}
		return l
	}
}

// LineNumberOf walks from the cursor to find l's 0-based line number. Used
// by callers that hold a *Line from an earlier lookup and need its index
// again (e.g. after the cursor has moved elsewhere).
func (b *Buffer) LineNumberOf(l *Line) int64 {
	if l == b.CurLine {
		return b.CurLineNum
	}
	n := int64(0)
	for cur := b.Head; cur != nil; cur = cur.Next {
		if cur == l {
			return n
		}
		n++
	}
	return -1
}
