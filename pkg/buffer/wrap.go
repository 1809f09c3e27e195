package buffer

import (
	"unicode/utf8"

	"github.com/mattn/go-runewidth"

	"github.com/vigna-ne/ne/pkg/status"
)

// visibleWidth is navigation.runeDisplayWidth's buffer-side twin: buffer
// can't import navigation (navigation already imports buffer), so this
// tiny column-accounting helper is duplicated rather than shared.
func visibleWidth(line []byte, tabSize int) int {
	col := 0
	for pos := 0; pos < len(line); {
		r, size := utf8.DecodeRune(line[pos:])
		if r == '\t' {
			col += tabSize - col%tabSize
		} else if w := runewidth.RuneWidth(r); w > 0 {
			col += w
		} else {
			col++
		}
		pos += size
	}
	return col
}

func isSpaceByte(c byte) bool { return c == ' ' || c == '\t' }

// wordWrap implements spec.md 4.4's margin-triggered wrap: once the visible
// column of the cursor exceeds right_margin (or ScreenWidth when the
// option is 0), the line is split at the nearest whitespace run before the
// word that just overflowed, carrying that word (and anything typed after
// it, including the separator that triggered the wrap) onto a new line,
// re-indented when auto_indent is set. Grounded on edit.c's word_wrap(),
// adapted from its cursor-relative scan to one expressed over line bytes
// directly, since Go's slices make the scan simpler to write without the
// original's prev_pos/get_char pointer dance.
func (b *Buffer) wordWrap() status.Status {
	if !b.Options.WordWrap {
		return status.OK
	}
	margin := b.Options.RightMargin
	if margin == 0 {
		margin = b.ScreenWidth
	}
	if margin <= 0 {
		return status.OK
	}

	line := b.CurLine.Bytes()
	if visibleWidth(line[:b.CurPosBytes], b.Options.TabSize) <= margin {
		return status.OK
	}

	q := b.CurPosBytes
	for q > 0 && isSpaceByte(line[q-1]) {
		q--
	}
	for q > 0 && !isSpaceByte(line[q-1]) {
		q--
	}
	wordStart := q
	for q > 0 && isSpaceByte(line[q-1]) {
		q--
	}
	breakStart := q
	if breakStart == 0 || breakStart == wordStart {
		return status.OK // no earlier word boundary to break the line on
	}

	b.Undo.StartChain()
	defer b.Undo.EndChain()

	lineNum := b.CurLineNum
	cursorAfterBreak := b.CurPosBytes
	if _, st := b.DeleteStream(lineNum, breakStart, int64(wordStart-breakStart)); !st.OK() {
		return st
	}
	cursorAfterBreak -= wordStart - breakStart

	if st := b.InsertStream(lineNum, breakStart, []byte{0}); !st.OK() {
		return st
	}

	newLine := b.NthLineDesc(lineNum + 1)
	b.CurLineNum = lineNum + 1
	b.CurLine = newLine
	b.CurPosBytes = cursorAfterBreak - breakStart

	if b.Options.AutoIndent {
		indent := leadingWhitespace(b.NthLineDesc(lineNum).Bytes())
		if len(indent) > 0 {
			if st := b.InsertStream(b.CurLineNum, 0, indent); !st.OK() {
				return st
			}
			b.CurPosBytes += len(indent)
		}
	}
	return status.OK
}
