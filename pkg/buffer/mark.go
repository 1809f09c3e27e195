package buffer

// forEachMarkPos visits the (line, pos) of every active mark/bookmark so
// the stream primitives can keep them consistent across edits, mirroring
// buffer.c's inline adjustment of b->block and b->bookmark on every
// insertion, join, and deletion.
func (b *Buffer) forEachMarkPos(f func(line *int64, pos *int)) {
	if b.Mark.Active {
		f(&b.Mark.Line, &b.Mark.Pos)
	}
	for i := range b.Bookmarks {
		if b.Bookmarks[i].Set {
			f(&b.Bookmarks[i].Line, &b.Bookmarks[i].Pos)
		}
	}
}

// adjustMarksOnInsertInLine shifts marks on the affected line that sit at
// or past the insertion point.
func (b *Buffer) adjustMarksOnInsertInLine(line int64, pos, n int) {
	b.forEachMarkPos(func(l *int64, p *int) {
		if *l == line && *p >= pos {
			*p += n
		}
	})
}

// adjustMarksOnSplit moves marks past a newly introduced line break: those
// on the split line at or past splitPos move to the new line (their
// position rebased to it); those on any later line shift down by one.
func (b *Buffer) adjustMarksOnSplit(line int64, splitPos int) {
	b.forEachMarkPos(func(l *int64, p *int) {
		switch {
		case *l == line && *p >= splitPos:
			*l++
			*p -= splitPos
		case *l > line:
			*l++
		}
	})
}

// adjustMarksOnJoin is the inverse of adjustMarksOnSplit, applied when
// line and line+1 are merged into one: marks on line+1 move onto line,
// rebased past the original content of line; marks further down shift up
// by one.
func (b *Buffer) adjustMarksOnJoin(line int64, joinedLineLen int) {
	b.forEachMarkPos(func(l *int64, p *int) {
		switch {
		case *l == line+1:
			*l--
			*p += joinedLineLen
		case *l > line:
			*l--
		}
	})
}

// adjustMarksOnDelete collapses marks inside a deleted in-line byte range
// to the deletion point and shifts marks past it left by n.
func (b *Buffer) adjustMarksOnDelete(line int64, pos, n int) {
	b.forEachMarkPos(func(l *int64, p *int) {
		if *l != line {
			return
		}
		switch {
		case *p >= pos && *p < pos+n:
			*p = pos
		case *p >= pos+n:
			*p -= n
		}
	})
}
