package buffer

import (
	"bytes"

	"github.com/vigna-ne/ne/pkg/pool"
	"github.com/vigna-ne/ne/pkg/status"
)

// growLine widens ld's byte range by inserting data at byte offset atPos,
// preferring to grow in place using whichever side of the line's existing
// pool allocation has adjacent free bytes (pool.AllocAround), and falling
// back to a fresh allocation plus copy only when neither side fits. This
// is alloc_chars_around's caller-side half: the pool just tells us which
// side has room, the buffer does the actual byte shuffling since only it
// knows where inside the line the new bytes land.
func (b *Buffer) growLine(ld *Line, atPos int, data []byte) {
	n := len(data)
	if n == 0 {
		return
	}
	oldLen := ld.Len()
	if oldLen == 0 {
		ref := b.Chars.Alloc(n)
		copy(ref.Bytes(), data)
		ld.ref = ref
		return
	}

	preferBefore := atPos < oldLen/2
	if after, ok := pool.AllocAround(ld.ref.Pool, ld.ref.Offset, oldLen, n, preferBefore); ok {
		buf := ld.ref.Pool.Bytes
		newLen := oldLen + n
		var newOff int
		if after == n {
			newOff = ld.ref.Offset
			copy(buf[newOff+atPos+n:newOff+newLen], buf[newOff+atPos:newOff+oldLen])
		} else {
			newOff = ld.ref.Offset - n
			copy(buf[newOff:newOff+atPos], buf[newOff+n:newOff+n+atPos])
		}
		copy(buf[newOff+atPos:newOff+atPos+n], data)
		ld.ref = pool.Ref{Pool: ld.ref.Pool, Offset: newOff, Len: newLen}
		return
	}

	newRef := b.Chars.Alloc(oldLen + n)
	dst := newRef.Bytes()
	old := ld.ref.Bytes()
	copy(dst[:atPos], old[:atPos])
	copy(dst[atPos:atPos+n], data)
	copy(dst[atPos+n:], old[atPos:])
	b.Chars.Free(ld.ref)
	ld.ref = newRef
}

// shrinkLine removes the n bytes at offset atPos from ld, consolidating
// the freed span at the end of the line's old extent and returning it to
// the pool via FreeRange.
func (b *Buffer) shrinkLine(ld *Line, atPos, n int) {
	oldLen := ld.Len()
	newLen := oldLen - n
	if newLen == 0 {
		b.Chars.Free(ld.ref)
		ld.ref = pool.Ref{}
		return
	}
	off := ld.ref.Offset
	buf := ld.ref.Pool.Bytes
	copy(buf[off+atPos:off+newLen], buf[off+atPos+n:off+oldLen])
	ld.ref.Pool.FreeRange(off+newLen, n)
	ld.ref = pool.Ref{Pool: ld.ref.Pool, Offset: off, Len: newLen}
}

// splitLine cuts ld at byte offset atPos, moving the tail into a freshly
// allocated line descriptor inserted right after ld, and returns it.
func (b *Buffer) splitLine(ld *Line, atPos int) *Line {
	newld := b.newLine()
	tailLen := ld.Len() - atPos
	if tailLen > 0 {
		tail := append([]byte(nil), ld.Bytes()[atPos:]...)
		ref := b.Chars.Alloc(tailLen)
		copy(ref.Bytes(), tail)
		newld.ref = ref
		b.shrinkLine(ld, atPos, tailLen)
	}
	newld.Next = ld.Next
	newld.Prev = ld
	if ld.Next != nil {
		ld.Next.Prev = newld
	} else {
		b.Tail = newld
	}
	ld.Next = newld
	b.NumLines++
	return newld
}

// joinLines appends next's bytes onto ld and unlinks next, returning its
// line descriptor to the free list.
func (b *Buffer) joinLines(ld, next *Line) {
	if next.Len() > 0 {
		data := append([]byte(nil), next.Bytes()...)
		b.growLine(ld, ld.Len(), data)
	}
	ld.Next = next.Next
	if next.Next != nil {
		next.Next.Prev = ld
	} else {
		b.Tail = ld
	}
	next.ref = pool.Ref{}
	b.freeLine(next)
	b.NumLines--
}

// insertRaw performs the physical insertion with no undo bookkeeping: the
// sole mutator of buffer content on the insert side. data uses NUL bytes
// as line-break markers (the buffer's line list, not embedded newlines,
// carries line structure) — every NUL splits the current line in two.
func (b *Buffer) insertRaw(line int64, pos int, data []byte) {
	if len(data) == 0 {
		return
	}
	ld := b.NthLineDesc(line)
	curLine, curPos, rest := line, pos, data
	for {
		nul := bytes.IndexByte(rest, 0)
		seg := rest
		if nul >= 0 {
			seg = rest[:nul]
		}
		if len(seg) > 0 {
			b.growLine(ld, curPos, seg)
			b.adjustMarksOnInsertInLine(curLine, curPos, len(seg))
			curPos += len(seg)
		}
		if nul < 0 {
			return
		}
		b.adjustMarksOnSplit(curLine, curPos)
		ld = b.splitLine(ld, curPos)
		curLine++
		curPos = 0
		rest = rest[nul+1:]
	}
}

// deleteRaw performs the physical deletion of n bytes starting at (line,
// pos) with no undo bookkeeping, returning the exact bytes removed
// (joined lines contribute a NUL placeholder for the line break, mirror
// of insertRaw's NUL-as-line-break convention) so the caller can hand them
// to the undo log.
func (b *Buffer) deleteRaw(line int64, pos int, n int64) []byte {
	collected := make([]byte, 0, n)
	curLine, curPos, remaining := line, pos, n
	for remaining > 0 {
		ld := b.NthLineDesc(curLine)
		lineLen := int64(ld.Len())
		if int64(curPos) == lineLen {
			next := ld.Next
			if next == nil {
				break
			}
			b.adjustMarksOnJoin(curLine, int(lineLen))
			b.joinLines(ld, next)
			collected = append(collected, 0)
			remaining--
			continue
		}
		toDelete := remaining
		if int64(curPos)+toDelete > lineLen {
			toDelete = lineLen - int64(curPos)
		}
		b.adjustMarksOnDelete(curLine, curPos, int(toDelete))
		deleted := append([]byte(nil), ld.Bytes()[curPos:curPos+int(toDelete)]...)
		collected = append(collected, deleted...)
		b.shrinkLine(ld, curPos, int(toDelete))
		remaining -= toDelete
	}
	return collected
}

// InsertStream is the sole mutator for inserting text (component F):
// records an undo step (negative length, per ne's undo.c convention — an
// insertion is reversed by deleting what it added) unless this call is
// itself a replay inside Undo/Redo, then performs the insertion.
func (b *Buffer) InsertStream(line int64, pos int, data []byte) status.Status {
	if len(data) == 0 {
		return status.OK
	}
	if !b.Undoing && !b.Redoing && b.Options.DoUndo {
		b.Undo.RecordInsert(line, int64(pos), int64(len(data)))
	}
	b.insertRaw(line, pos, data)
	b.IsModified = true
	return status.OK
}

// DeleteStream is the sole mutator for removing text. It records a
// positive-length undo step carrying the exact bytes removed, so a
// subsequent undo can re-insert them verbatim.
func (b *Buffer) DeleteStream(line int64, pos int, n int64) ([]byte, status.Status) {
	if n <= 0 {
		return nil, status.OK
	}
	deleted := b.deleteRaw(line, pos, n)
	if !b.Undoing && !b.Redoing && b.Options.DoUndo {
		b.Undo.RecordDelete(line, int64(pos), deleted)
	}
	b.IsModified = true
	return deleted, status.OK
}

// GotoStep, DeleteStep and InsertStep implement undo.Applier: the undo log
// drives the buffer directly through the raw primitives, bypassing the
// recording wrappers above (replay must never itself be recorded).
func (b *Buffer) GotoStep(line, pos int64) {
	newLine := b.NthLineDesc(line)
	b.CurLineNum = line
	b.CurLine = newLine
	b.CurPosBytes = int(pos)
}

func (b *Buffer) DeleteStep(line, pos, n int64) []byte {
	deleted := b.deleteRaw(line, int(pos), n)
	b.IsModified = true
	return deleted
}

func (b *Buffer) InsertStep(line, pos int64, data []byte) {
	b.insertRaw(line, int(pos), data)
	b.IsModified = true
}

// PerformUndo reverses the most recent (chain of) edit(s). is_modified is
// re-derived from the undo log's own position afterward, per spec.md 4.7
// ("is_modified follows undo.cur_step != undo.last_save_step") — DeleteStep/
// InsertStep only know a byte range changed, not whether that landed back on
// the saved point.
func (b *Buffer) PerformUndo() status.Status {
	b.Undoing = true
	defer func() { b.Undoing = false }()
	st := b.Undo.Undo(b)
	b.IsModified = b.Undo.IsModified()
	return st
}

// PerformRedo re-applies the most recently undone (chain of) edit(s), then
// reconciles is_modified the same way PerformUndo does.
func (b *Buffer) PerformRedo() status.Status {
	b.Redoing = true
	defer func() { b.Redoing = false }()
	st := b.Undo.Redo(b)
	b.IsModified = b.Undo.IsModified()
	return st
}
