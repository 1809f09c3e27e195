package buffer

import (
	"bytes"
	"unicode"
	"unicode/utf8"

	"github.com/vigna-ne/ne/pkg/encoding"
	"github.com/vigna-ne/ne/pkg/status"
)

// InsertBytes inserts data at the cursor and advances the cursor past it,
// widening the buffer's encoding tag if the inserted text demands it.
func (b *Buffer) InsertBytes(data []byte) status.Status {
	if len(data) == 0 {
		return status.OK
	}
	if st := b.widenEncoding(data); !st.OK() {
		return st
	}
	st := b.InsertStream(b.CurLineNum, b.CurPosBytes, data)
	if !st.OK() {
		return st
	}
	nuls := bytes.Count(data, []byte{0})
	if nuls == 0 {
		b.CurPosBytes += len(data)
		return status.OK
	}
	last := bytes.LastIndexByte(data, 0)
	newLineNum := b.CurLineNum + int64(nuls)
	newLine := b.NthLineDesc(newLineNum)
	b.CurLineNum = newLineNum
	b.CurLine = newLine
	b.CurPosBytes = len(data) - last - 1
	return status.OK
}

// widenEncoding promotes the buffer's encoding tag to accommodate data,
// per spec.md 4.4's promotion policy (ASCII < {UTF8,BYTE8}, UTF8 and
// BYTE8 mutually exclusive).
func (b *Buffer) widenEncoding(data []byte) status.Status {
	enc := b.Enc
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		next, st := encoding.PromoteForRune(enc, r, b.Options.UTF8Auto)
		if !st.OK() {
			return st
		}
		enc = next
		data = data[size:]
	}
	b.Enc = enc
	return status.OK
}

// InsertChar inserts a single character at the cursor, expanding it per
// the buffer's tab/auto-indent options when it is a control character, and
// then applies margin-triggered word wrap (spec.md 4.4). Word wrap is
// hooked here rather than in InsertBytes because InsertBytes is also used
// internally by NewLine (the NUL line-break and auto-indent carry-down)
// and by bulk file loading, neither of which should ever reflow a line.
func (b *Buffer) InsertChar(r rune) status.Status {
	if r == '\t' && b.Options.DelTabs {
		width := b.Options.TabSize - b.CurPosBytes%b.Options.TabSize
		if st := b.InsertBytes(bytes.Repeat([]byte{' '}, width)); !st.OK() {
			return st
		}
		return b.wordWrap()
	}
	if r == '\n' {
		return b.NewLine()
	}
	buf := make([]byte, utf8.RuneLen(r))
	utf8.EncodeRune(buf, r)
	if st := b.InsertBytes(buf); !st.OK() {
		return st
	}
	return b.wordWrap()
}

// NewLine splits the current line at the cursor, optionally carrying
// leading whitespace down to the new line when AutoIndent is set.
func (b *Buffer) NewLine() status.Status {
	b.Undo.StartChain()
	defer b.Undo.EndChain()

	if st := b.InsertStream(b.CurLineNum, b.CurPosBytes, []byte{0}); !st.OK() {
		return st
	}
	newLine := b.NthLineDesc(b.CurLineNum + 1)
	b.CurLineNum++
	b.CurLine = newLine
	b.CurPosBytes = 0

	if b.Options.AutoIndent {
		prev := b.NthLineDesc(b.CurLineNum - 1)
		indent := leadingWhitespace(prev.Bytes())
		if len(indent) > 0 {
			return b.InsertBytes(indent)
		}
	}
	return status.OK
}

func leadingWhitespace(line []byte) []byte {
	i := 0
	for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
		i++
	}
	return append([]byte(nil), line[:i]...)
}

// DeleteForward removes n bytes starting at the cursor (the "Delete" key).
func (b *Buffer) DeleteForward(n int64) status.Status {
	_, st := b.DeleteStream(b.CurLineNum, b.CurPosBytes, n)
	return st
}

// Backspace removes one character (rune) before the cursor, joining into
// the previous line when the cursor sits at column 0.
func (b *Buffer) Backspace() status.Status {
	if b.CurPosBytes == 0 {
		if b.CurLineNum == 0 {
			return status.NOTHING_TO_UNDO
		}
		prevLen := b.NthLineDesc(b.CurLineNum - 1).Len()
		_, st := b.DeleteStream(b.CurLineNum-1, prevLen, 1)
		if !st.OK() {
			return st
		}
		newLine := b.NthLineDesc(b.CurLineNum - 1)
		b.CurLineNum--
		b.CurLine = newLine
		b.CurPosBytes = prevLen
		return status.OK
	}
	line := b.CurLine.Bytes()
	start := b.CurPosBytes
	for start > 0 {
		start--
		if utf8.RuneStart(line[start]) {
			break
		}
	}
	n := int64(b.CurPosBytes - start)
	_, st := b.DeleteStream(b.CurLineNum, start, n)
	if !st.OK() {
		return st
	}
	b.CurPosBytes = start
	return status.OK
}

// DeleteLine removes the entire current line, joining its neighbors.
func (b *Buffer) DeleteLine() status.Status {
	b.Undo.StartChain()
	defer b.Undo.EndChain()

	ld := b.CurLine
	n := int64(ld.Len())
	if b.CurLineNum < b.NumLines-1 {
		n++ // also swallow the line break joining into the next line
	}
	_, st := b.DeleteStream(b.CurLineNum, 0, n)
	return st
}

// ShiftLines indents (delta>0) or outdents (delta<0) every line in
// [from,to] by abs(delta) tab stops, expressed as InsertStream/DeleteStream
// calls so the whole operation undoes atomically.
func (b *Buffer) ShiftLines(from, to int64, delta int) status.Status {
	b.Undo.StartChain()
	defer b.Undo.EndChain()

	unit := []byte{'\t'}
	if b.Options.ShiftTabs {
		unit = bytes.Repeat([]byte{' '}, b.Options.TabSize)
	}
	for line := from; line <= to; line++ {
		if delta > 0 {
			for i := 0; i < delta; i++ {
				if st := b.InsertStream(line, 0, unit); !st.OK() {
					return st
				}
			}
			continue
		}
		ld := b.NthLineDesc(line)
		removed := 0
		for removed < -delta && ld.Len() > 0 {
			lead := ld.Bytes()[0]
			n := 1
			if lead == '\t' {
				n = 1
			} else if lead == ' ' {
				n = 1
				for n < ld.Len() && n < b.Options.TabSize && ld.Bytes()[n] == ' ' {
					n++
				}
			} else {
				break
			}
			if _, st := b.DeleteStream(line, 0, int64(n)); !st.OK() {
				return st
			}
			ld = b.NthLineDesc(line)
			removed++
		}
	}
	return status.OK
}

// ChangeCase rewrites [fromLine,fromPos) .. [toLine,toPos) in place
// according to mode: 'u' upper, 'l' lower, 't' title/capitalize.
func (b *Buffer) ChangeCase(fromLine int64, fromPos int, toLine int64, toPos int, mode byte) status.Status {
	b.Undo.StartChain()
	defer b.Undo.EndChain()

	atWordStart := true
	for line := fromLine; line <= toLine; line++ {
		ld := b.NthLineDesc(line)
		start, end := 0, ld.Len()
		if line == fromLine {
			start = fromPos
		}
		if line == toLine {
			end = toPos
		}
		if start >= end {
			continue
		}
		src := append([]byte(nil), ld.Bytes()[start:end]...)
		dst := make([]byte, 0, len(src))
		for _, r := range string(src) {
			switch mode {
			case 'u':
				r = unicode.ToUpper(r)
			case 'l':
				r = unicode.ToLower(r)
			case 't':
				if atWordStart {
					r = unicode.ToUpper(r)
				} else {
					r = unicode.ToLower(r)
				}
			}
			atWordStart = unicode.IsSpace(r)
			enc := make([]byte, utf8.RuneLen(r))
			utf8.EncodeRune(enc, r)
			dst = append(dst, enc...)
		}
		if _, st := b.DeleteStream(line, start, int64(end-start)); !st.OK() {
			return st
		}
		if st := b.InsertStream(line, start, dst); !st.OK() {
			return st
		}
	}
	return status.OK
}
