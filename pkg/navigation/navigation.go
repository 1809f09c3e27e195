// Package navigation implements cursor and viewport motion (component H):
// resync_pos, line/character motion, absolute jumps, view repositioning,
// word motion and bracket matching. It operates on a *buffer.Buffer
// directly rather than importing it back, since buffer exports every
// field navigation needs (CurLine, CurPosBytes, WinX/WinY, ...).
package navigation

import (
	"unicode"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"

	"github.com/vigna-ne/ne/pkg/buffer"
	"github.com/vigna-ne/ne/pkg/status"
)

func runeDisplayWidth(r rune, tabSize, col int) int {
	if r == '\t' {
		return tabSize - col%tabSize
	}
	if w := runewidth.RuneWidth(r); w > 0 {
		return w
	}
	return 1
}

// ResyncPos recomputes cur_pos/cur_char from the sticky wanted_x column
// after a vertical move, per spec.md 4.5: scan forward from column 0
// accumulating display width until the wanted column is reached or
// passed.
func ResyncPos(b *buffer.Buffer) {
	line := b.CurLine.Bytes()
	col, pos := 0, 0
	for pos < len(line) {
		r, size := utf8.DecodeRune(line[pos:])
		w := runeDisplayWidth(r, b.Options.TabSize, col)
		if col+w > b.WantedX {
			break
		}
		col += w
		pos += size
	}
	if col < b.WantedX {
		pos = len(line)
		if b.Options.FreeForm {
			b.XWanted = true
		}
	}
	b.CurPosBytes = pos
	b.CurX = col
}

// LineUp/LineDown move the cursor by one line, preserving the sticky
// wanted_x column across the move.
func LineUp(b *buffer.Buffer) status.Status {
	if b.CurLineNum == 0 {
		return status.ERROR
	}
	if !b.XWanted {
		b.WantedX = b.CurX
	}
	newLine := b.NthLineDesc(b.CurLineNum - 1)
	b.CurLineNum--
	b.CurLine = newLine
	ResyncPos(b)
	return status.OK
}

func LineDown(b *buffer.Buffer) status.Status {
	if b.CurLineNum >= b.NumLines-1 {
		return status.ERROR
	}
	if !b.XWanted {
		b.WantedX = b.CurX
	}
	newLine := b.NthLineDesc(b.CurLineNum + 1)
	b.CurLineNum++
	b.CurLine = newLine
	ResyncPos(b)
	return status.OK
}

// PageUp/PageDown move by rows lines, maintaining a sticky wanted_y so
// repeated paging keeps the cursor's screen row stable across a final
// short page.
func PageUp(b *buffer.Buffer, rows int) status.Status {
	return page(b, rows, -1)
}

func PageDown(b *buffer.Buffer, rows int) status.Status {
	return page(b, rows, 1)
}

func page(b *buffer.Buffer, rows, dir int) status.Status {
	if !b.YWanted {
		b.WantedY = b.CurY
		b.YWanted = true
	}
	target := b.CurLineNum + int64(dir*rows)
	if target < 0 {
		target = 0
	}
	if target >= b.NumLines {
		target = b.NumLines - 1
	}
	newLine := b.NthLineDesc(target)
	b.CurLineNum = target
	b.CurLine = newLine
	ResyncPos(b)
	return status.OK
}

// CharLeft/CharRight move by one rune, honoring UTF-8 boundaries and
// wrapping across line breaks unless free_form is set.
func CharRight(b *buffer.Buffer) status.Status {
	line := b.CurLine.Bytes()
	if b.CurPosBytes < len(line) {
		_, size := utf8.DecodeRune(line[b.CurPosBytes:])
		b.CurPosBytes += size
		b.XWanted = false
		return status.OK
	}
	if b.Options.FreeForm {
		return status.OK
	}
	if b.CurLineNum >= b.NumLines-1 {
		return status.ERROR
	}
	newLine := b.NthLineDesc(b.CurLineNum + 1)
	b.CurLineNum++
	b.CurLine = newLine
	b.CurPosBytes = 0
	b.XWanted = false
	return status.OK
}

func CharLeft(b *buffer.Buffer) status.Status {
	if b.CurPosBytes > 0 {
		line := b.CurLine.Bytes()
		p := b.CurPosBytes - 1
		for p > 0 && !utf8.RuneStart(line[p]) {
			p--
		}
		b.CurPosBytes = p
		b.XWanted = false
		return status.OK
	}
	if b.Options.FreeForm {
		return status.OK
	}
	if b.CurLineNum == 0 {
		return status.ERROR
	}
	newLine := b.NthLineDesc(b.CurLineNum - 1)
	b.CurLineNum--
	b.CurLine = newLine
	b.CurPosBytes = b.CurLine.Len()
	b.XWanted = false
	return status.OK
}

// GotoLine, GotoColumn and GotoPos perform absolute jumps.
func GotoLine(b *buffer.Buffer, n int64) status.Status {
	if n < 0 || n >= b.NumLines {
		return status.ERROR
	}
	newLine := b.NthLineDesc(n)
	b.CurLineNum = n
	b.CurLine = newLine
	if b.CurPosBytes > b.CurLine.Len() {
		b.CurPosBytes = b.CurLine.Len()
	}
	return status.OK
}

func GotoColumn(b *buffer.Buffer, col int) status.Status {
	b.WantedX = col
	b.XWanted = false
	ResyncPos(b)
	return status.OK
}

func GotoPos(b *buffer.Buffer, offset int64) status.Status {
	if offset < 0 {
		return status.ERROR
	}
	remaining := offset
	line := int64(0)
	for ld := b.Head; ld != nil; ld = ld.Next {
		ln := int64(ld.Len())
		if remaining <= ln {
			b.CurLineNum = line
			b.CurLine = ld
			b.CurPosBytes = int(remaining)
			return status.OK
		}
		remaining -= ln + 1
		line++
	}
	return status.ERROR
}

// AdjustView repositions win_x/win_y without moving the cursor, per one
// or more single-character directives (T/B/M/C/L/R), each optionally
// followed by a decimal magnitude applied as an additional offset.
func AdjustView(b *buffer.Buffer, spec string, rows, cols int) status.Status {
	i := 0
	for i < len(spec) {
		d := spec[i]
		i++
		mag, hasMag := 0, false
		for i < len(spec) && spec[i] >= '0' && spec[i] <= '9' {
			hasMag = true
			mag = mag*10 + int(spec[i]-'0')
			i++
		}
		switch d {
		case 'T':
			b.WinY = int(b.CurLineNum)
		case 'B':
			b.WinY = int(b.CurLineNum) - rows + 1
		case 'M', 'C':
			b.WinY = int(b.CurLineNum) - rows/2
		case 'L':
			b.WinX = 0
		case 'R':
			b.WinX = b.CurX - cols + 1
		default:
			return status.INVALID_SHIFT_SPECIFIED
		}
		if hasMag {
			switch d {
			case 'T', 'B', 'M', 'C':
				b.WinY += mag
			case 'L', 'R':
				b.WinX += mag
			}
		}
	}
	if b.WinY < 0 {
		b.WinY = 0
	}
	if b.WinX < 0 {
		b.WinX = 0
	}
	return status.OK
}

// isWordChar matches spec.md 4.5: '_' or any locale character that is
// neither whitespace nor punctuation.
func isWordChar(r rune) bool {
	if r == '_' {
		return true
	}
	return !unicode.IsSpace(r) && !unicode.IsPunct(r)
}

// SearchWord moves the cursor to the start of the next (forward=true) or
// previous word, crossing line breaks as needed.
func SearchWord(b *buffer.Buffer, forward bool) status.Status {
	if forward {
		return searchWordForward(b)
	}
	return searchWordBackward(b)
}

func searchWordForward(b *buffer.Buffer) status.Status {
	lineNum, line, pos := b.CurLineNum, b.CurLine, b.CurPosBytes
	advance := func() (ok, crossedLine bool) {
		bytesLine := line.Bytes()
		if pos < len(bytesLine) {
			return true, false
		}
		if lineNum >= b.NumLines-1 {
			return false, false
		}
		lineNum++
		line = b.NthLineDesc(lineNum)
		pos = 0
		return true, true
	}
	// skip consumes characters matching want; a line crossing always
	// counts as an implicit separator (a word never spans a line break),
	// so it only continues the scan transparently while want is false.
	skip := func(want bool) bool {
		for {
			ok, crossedLine := advance()
			if !ok {
				return false
			}
			if crossedLine && want {
				return true
			}
			bytesLine := line.Bytes()
			if pos >= len(bytesLine) {
				continue
			}
			r, size := utf8.DecodeRune(bytesLine[pos:])
			if isWordChar(r) != want {
				return true
			}
			pos += size
		}
	}
	if !skip(true) { // skip current word chars
		b.CurLineNum, b.CurLine, b.CurPosBytes = lineNum, line, pos
		return status.NOT_FOUND
	}
	if !skip(false) { // skip separators until next word
		b.CurLineNum, b.CurLine, b.CurPosBytes = lineNum, line, pos
		return status.NOT_FOUND
	}
	b.CurLineNum, b.CurLine, b.CurPosBytes = lineNum, line, pos
	return status.OK
}

func searchWordBackward(b *buffer.Buffer) status.Status {
	lineNum, line, pos := b.CurLineNum, b.CurLine, b.CurPosBytes
	retreat := func() bool {
		if pos > 0 {
			return true
		}
		if lineNum == 0 {
			return false
		}
		lineNum--
		line = b.NthLineDesc(lineNum)
		pos = line.Len()
		return true
	}
	prevRune := func() (rune, int) {
		return utf8.DecodeLastRune(line.Bytes()[:pos])
	}
	skip := func(want bool) bool {
		for {
			if !retreat() {
				return false
			}
			if pos == 0 {
				continue
			}
			r, size := prevRune()
			if isWordChar(r) != want {
				return true
			}
			pos -= size
		}
	}
	if !skip(false) {
		b.CurLineNum, b.CurLine, b.CurPosBytes = lineNum, line, pos
		return status.NOT_FOUND
	}
	for pos > 0 {
		r, size := prevRune()
		if !isWordChar(r) {
			break
		}
		pos -= size
	}
	b.CurLineNum, b.CurLine, b.CurPosBytes = lineNum, line, pos
	return status.OK
}

// MoveToEOW advances the cursor to the end of the word it sits in.
func MoveToEOW(b *buffer.Buffer) status.Status {
	line := b.CurLine.Bytes()
	pos := b.CurPosBytes
	for pos < len(line) {
		r, size := utf8.DecodeRune(line[pos:])
		if !isWordChar(r) {
			break
		}
		pos += size
	}
	b.CurPosBytes = pos
	return status.OK
}

var closeOf = map[rune]rune{'(': ')', '[': ']', '{': '}'}
var openOf = map[rune]rune{')': '(', ']': '[', '}': '{'}

// MatchBracket scans from the bracket under (or immediately before) the
// cursor for its match, skipping nested same-direction brackets,
// grounded on edit.c's bracket table.
func MatchBracket(b *buffer.Buffer) status.Status {
	line := b.CurLine.Bytes()
	pos := b.CurPosBytes

	var open rune
	var forward bool
	if pos < len(line) {
		r, _ := utf8.DecodeRune(line[pos:])
		if _, ok := closeOf[r]; ok {
			open, forward = r, true
		}
	}
	if open == 0 && pos > 0 {
		r, size := utf8.DecodeLastRune(line[:pos])
		if o, ok := openOf[r]; ok {
			open, forward = o, false
			pos -= size
		}
	}
	if open == 0 {
		return status.NOT_ON_A_BRACKET
	}
	closeCh := closeOf[open]

	lineNum, cur := b.CurLineNum, b.CurLine
	depth := 0
	if forward {
		_, size := utf8.DecodeRune(line[pos:]) // step past the opening bracket itself
		pos += size
		for {
			lb := cur.Bytes()
			for pos < len(lb) {
				r, size := utf8.DecodeRune(lb[pos:])
				switch r {
				case open:
					depth++
				case closeCh:
					if depth == 0 {
						b.CurLineNum, b.CurLine, b.CurPosBytes = lineNum, cur, pos
						return status.OK
					}
					depth--
				}
				pos += size
			}
			if lineNum >= b.NumLines-1 {
				return status.CANT_FIND_BRACKET
			}
			lineNum++
			cur = b.NthLineDesc(lineNum)
			pos = 0
		}
	}
	for {
		lb := cur.Bytes()
		for pos > 0 {
			r, size := utf8.DecodeLastRune(lb[:pos])
			pos -= size
			switch r {
			case closeCh:
				depth++
			case open:
				if depth == 0 {
					b.CurLineNum, b.CurLine, b.CurPosBytes = lineNum, cur, pos
					return status.OK
				}
				depth--
			}
		}
		if lineNum == 0 {
			return status.CANT_FIND_BRACKET
		}
		lineNum--
		cur = b.NthLineDesc(lineNum)
		pos = cur.Len()
	}
}
