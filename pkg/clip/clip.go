// Package clip implements the clip registry (component J): linear and
// vertical cut/copy/paste, plus disk persistence for named clips.
package clip

import (
	"bytes"

	"github.com/vigna-ne/ne/pkg/buffer"
	"github.com/vigna-ne/ne/pkg/encoding"
	"github.com/vigna-ne/ne/pkg/status"
)

// Clip holds one cut/copied region. Data uses the same NUL-as-line-break
// convention as insert_stream/delete_stream; for a Vertical clip, each
// row is instead a NUL-terminated entry (spec.md 4.8).
type Clip struct {
	ID       int
	Enc      encoding.Encoding
	Data     []byte
	Vertical bool
}

// Registry holds the clips keyed by integer id (an unordered map).
type Registry struct {
	clips map[int]*Clip
}

// NewRegistry returns an empty clip registry.
func NewRegistry() *Registry { return &Registry{clips: make(map[int]*Clip)} }

func (r *Registry) Get(id int) (*Clip, bool) {
	c, ok := r.clips[id]
	return c, ok
}

func (r *Registry) Set(id int, c *Clip) { r.clips[id] = c }
func (r *Registry) Delete(id int)       { delete(r.clips, id) }

// orderLinear returns the mark and cursor ordered (from, to) by document
// position.
func orderLinear(b *buffer.Buffer) (fromLine int64, fromPos int, toLine int64, toPos int) {
	cl, cp := b.CurLineNum, b.CurPosBytes
	ml, mp := b.Mark.Line, b.Mark.Pos
	if ml < cl || (ml == cl && mp <= cp) {
		return ml, mp, cl, cp
	}
	return cl, cp, ml, mp
}

// linearSpan is the byte count delete_stream would remove to eliminate
// everything from (fromLine,fromPos) to (toLine,toPos), counting each
// line break crossed as one byte (delete_stream's NUL-placeholder
// convention).
func linearSpan(b *buffer.Buffer, fromLine int64, fromPos int, toLine int64, toPos int) int64 {
	if fromLine == toLine {
		return int64(toPos - fromPos)
	}
	n := int64(b.NthLineDesc(fromLine).Len()-fromPos) + 1
	for line := fromLine + 1; line < toLine; line++ {
		n += int64(b.NthLineDesc(line).Len()) + 1
	}
	n += int64(toPos)
	return n
}

// snapshotLinear reads n bytes starting at (line,pos) without leaving any
// visible trace: it reuses the two sanctioned mutators (delete then
// re-insert the same bytes) with undo recording and the modified flag
// both suspended, rather than hand-rolling a second line-walking reader.
func snapshotLinear(b *buffer.Buffer, line int64, pos int, n int64) []byte {
	saveUndo, saveModified := b.Options.DoUndo, b.IsModified
	saveMark, saveBookmarks := b.Mark, b.Bookmarks
	b.Options.DoUndo = false
	data, _ := b.DeleteStream(line, pos, n)
	b.InsertStream(line, pos, data)
	b.Options.DoUndo = saveUndo
	b.IsModified = saveModified
	b.Mark, b.Bookmarks = saveMark, saveBookmarks
	return data
}

// CopyToClip copies (or, if cut, also removes) the linear region between
// mark and cursor into clip id.
func CopyToClip(b *buffer.Buffer, reg *Registry, id int, cut bool) status.Status {
	if !b.Mark.Active {
		return status.MARK_BLOCK_FIRST
	}
	if b.Mark.Vertical {
		return CopyVertToClip(b, reg, id, cut)
	}
	fl, fp, tl, tp := orderLinear(b)
	n := linearSpan(b, fl, fp, tl, tp)
	data := snapshotLinear(b, fl, fp, n)
	reg.Set(id, &Clip{ID: id, Enc: b.Enc, Data: data})

	if cut {
		newLine := b.NthLineDesc(fl)
		b.CurLineNum = fl
		b.CurLine = newLine
		b.CurPosBytes = fp
		if _, st := b.DeleteStream(fl, fp, n); !st.OK() {
			return st
		}
	}
	return status.OK
}

// CopyVertToClip copies (or cuts) the rectangle spanned by mark and
// cursor's lines and byte columns, one NUL-terminated row per line.
func CopyVertToClip(b *buffer.Buffer, reg *Registry, id int, cut bool) status.Status {
	if !b.Mark.Active {
		return status.MARK_BLOCK_FIRST
	}
	loLine, hiLine := b.Mark.Line, b.CurLineNum
	if hiLine < loLine {
		loLine, hiLine = hiLine, loLine
	}
	loCol, hiCol := b.Mark.Pos, b.CurPosBytes
	if hiCol < loCol {
		loCol, hiCol = hiCol, loCol
	}

	var data []byte
	for line := loLine; line <= hiLine; line++ {
		ld := b.NthLineDesc(line)
		start, end := clampCol(loCol, ld.Len()), clampCol(hiCol, ld.Len())
		if end < start {
			end = start
		}
		data = append(data, ld.Bytes()[start:end]...)
		data = append(data, 0)
	}
	reg.Set(id, &Clip{ID: id, Enc: b.Enc, Data: data, Vertical: true})

	if cut {
		b.Undo.StartChain()
		defer b.Undo.EndChain()
		for line := loLine; line <= hiLine; line++ {
			ld := b.NthLineDesc(line)
			start, end := clampCol(loCol, ld.Len()), clampCol(hiCol, ld.Len())
			if end <= start {
				continue
			}
			if _, st := b.DeleteStream(line, start, int64(end-start)); !st.OK() {
				return st
			}
		}
	}
	return status.OK
}

func clampCol(col, lineLen int) int {
	if col > lineLen {
		return lineLen
	}
	return col
}

// Paste inserts clip id at the cursor: a linear clip as one stream, a
// vertical clip row-by-row at the stored column, padding short lines
// with spaces.
func Paste(b *buffer.Buffer, reg *Registry, id int) status.Status {
	c, ok := reg.Get(id)
	if !ok {
		return status.CLIP_DOESNT_EXIST
	}
	next, st := encoding.Promote(b.Enc, c.Enc)
	if !st.OK() {
		return st
	}
	b.Enc = next

	if c.Vertical {
		return pasteVertical(b, c)
	}
	return b.InsertStream(b.CurLineNum, b.CurPosBytes, c.Data)
}

func pasteVertical(b *buffer.Buffer, c *Clip) status.Status {
	b.Undo.StartChain()
	defer b.Undo.EndChain()

	col := b.CurPosBytes
	for i, row := range splitRows(c.Data) {
		line := b.CurLineNum + int64(i)
		if line >= b.NumLines {
			last := b.NumLines - 1
			lastLd := b.NthLineDesc(last)
			if st := b.InsertStream(last, lastLd.Len(), []byte{0}); !st.OK() {
				return st
			}
		}
		ld := b.NthLineDesc(line)
		if pad := col - ld.Len(); pad > 0 {
			if st := b.InsertStream(line, ld.Len(), bytes.Repeat([]byte{' '}, pad)); !st.OK() {
				return st
			}
			ld = b.NthLineDesc(line)
		}
		if st := b.InsertStream(line, col, row); !st.OK() {
			return st
		}
	}
	return status.OK
}

func splitRows(data []byte) [][]byte {
	var rows [][]byte
	start := 0
	for i, c := range data {
		if c == 0 {
			rows = append(rows, data[start:i])
			start = i + 1
		}
	}
	if start < len(data) {
		rows = append(rows, data[start:])
	}
	return rows
}
