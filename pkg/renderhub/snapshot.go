// Package renderhub realizes the "N" request/UI contract (spec.md §5, 6)
// over a websocket wire, streaming line text plus syntax attribute
// arrays to a decoupled external renderer. It is strictly additive and
// loopback-only: the core dispatcher never depends on anything in this
// package, grounded on the teacher's pkg/termsocket/manager.go (dirty
// tracking / subscriber fan-out) and pkg/api/raw_websocket.go (the
// gorilla/websocket transport).
package renderhub

import (
	"encoding/binary"

	"github.com/vigna-ne/ne/pkg/buffer"
	"github.com/vigna-ne/ne/pkg/syntax"
)

// Line is one rendered row: the raw line bytes plus its syntax
// attribute array (nil if the document has no syntax highlighter).
type Line struct {
	Index int64
	Text  []byte
	Attrs []byte
}

// Snapshot is what one websocket push carries for a document: either the
// full visible viewport (Full) or only the rows that changed since the
// last push, mirroring the teacher's BufferSnapshot/ChangedLines scheme.
type Snapshot struct {
	DocID       string
	NumLines    int64
	ViewportTop int64
	CursorLine  int64
	CursorPos   int
	Lines       []Line
	Full        bool
	SequenceID  uint64
}

// buildSnapshot renders rows [viewportTop, viewportTop+height) of b,
// limited to the rows named by dirtyLines when full is false.
func buildSnapshot(docID string, b *buffer.Buffer, viewportTop, height int64, full bool, dirtyLines map[int64]bool, seq uint64) *Snapshot {
	b.Lock()
	defer b.Unlock()

	bottom := viewportTop + height
	if bottom > b.NumLines {
		bottom = b.NumLines
	}

	hl, _ := b.Syntax.(*syntax.Syntax)

	s := &Snapshot{
		DocID:       docID,
		NumLines:    b.NumLines,
		ViewportTop: viewportTop,
		CursorLine:  b.CurLineNum,
		CursorPos:   b.CurPosBytes,
		Full:        full,
		SequenceID:  seq,
	}
	for i := viewportTop; i < bottom; i++ {
		if !full && !dirtyLines[i] {
			continue
		}
		ld := b.NthLineDesc(i)
		line := Line{Index: i, Text: append([]byte(nil), ld.Bytes()...)}
		if hl != nil {
			line.Attrs = syntax.ParseVisible(hl, b, i)
		}
		s.Lines = append(s.Lines, line)
	}
	return s
}

const (
	wireMagic   uint16 = 0x4e45 // "NE"
	wireVersion byte   = 1

	rowMarker      byte = 0xfd
	emptyRowMarker byte = 0xfe
)

// SerializeToBinary encodes s as a compact binary frame for the bulk
// line/attr payload, the same length-prefixed-rows shape as the
// teacher's BufferSnapshot.SerializeToBinary, adapted from terminal
// cells to (text, attrs) line pairs. Control messages (subscribe,
// viewport, ping/pong) travel as JSON instead; only this bulk payload
// uses the binary frame.
func (s *Snapshot) SerializeToBinary() []byte {
	size := 2 + 1 + 1 + 8 + 8 + 8 + 4 + 2 // magic, version, flags, numLines, viewportTop, cursorLine, cursorPos, lineCount
	for _, l := range s.Lines {
		if len(l.Text) == 0 && len(l.Attrs) == 0 {
			size += 1 + 8 // emptyRowMarker + index
			continue
		}
		size += 1 + 8 + 4 + len(l.Text) + 4 + len(l.Attrs)
	}

	out := make([]byte, size)
	off := 0
	binary.LittleEndian.PutUint16(out[off:], wireMagic)
	off += 2
	out[off] = wireVersion
	off++
	flags := byte(0)
	if s.Full {
		flags = 1
	}
	out[off] = flags
	off++
	binary.LittleEndian.PutUint64(out[off:], uint64(s.NumLines))
	off += 8
	binary.LittleEndian.PutUint64(out[off:], uint64(s.ViewportTop))
	off += 8
	binary.LittleEndian.PutUint64(out[off:], uint64(s.CursorLine))
	off += 8
	binary.LittleEndian.PutUint32(out[off:], uint32(s.CursorPos))
	off += 4
	binary.LittleEndian.PutUint16(out[off:], uint16(len(s.Lines)))
	off += 2

	for _, l := range s.Lines {
		if len(l.Text) == 0 && len(l.Attrs) == 0 {
			out[off] = emptyRowMarker
			off++
			binary.LittleEndian.PutUint64(out[off:], uint64(l.Index))
			off += 8
			continue
		}
		out[off] = rowMarker
		off++
		binary.LittleEndian.PutUint64(out[off:], uint64(l.Index))
		off += 8
		binary.LittleEndian.PutUint32(out[off:], uint32(len(l.Text)))
		off += 4
		off += copy(out[off:], l.Text)
		binary.LittleEndian.PutUint32(out[off:], uint32(len(l.Attrs)))
		off += 4
		off += copy(out[off:], l.Attrs)
	}
	return out[:off]
}
