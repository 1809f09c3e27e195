package buffer

import (
	"bytes"

	"github.com/vigna-ne/ne/pkg/status"
)

// isBlankLine reports whether line holds only whitespace, the paragraph
// separator edit.c's is_part_of_paragraph() stops at.
func isBlankLine(line []byte) bool {
	for _, c := range line {
		if !isSpaceByte(c) {
			return false
		}
	}
	return true
}

// trimTrailingSpace drops trailing spaces/tabs, mirroring edit.c's
// trim_trailing_space(): reflow never keeps a dangling run of blanks at
// the end of a rebuilt line.
func trimTrailingSpace(line []byte) []byte {
	i := len(line)
	for i > 0 && isSpaceByte(line[i-1]) {
		i--
	}
	return line[:i]
}

// paragraphBounds walks outward from the cursor line to the first and last
// line of its paragraph: a maximal run of non-blank lines sharing the same
// leading-whitespace prefix as the cursor's own line, grounded on edit.c's
// is_part_of_paragraph() (a blank line, or a change of indent, ends it).
func (b *Buffer) paragraphBounds() (start, end int64, indent []byte) {
	cur := b.CurLine.Bytes()
	if isBlankLine(cur) {
		return b.CurLineNum, b.CurLineNum, nil
	}
	indent = leadingWhitespace(cur)

	start = b.CurLineNum
	for start > 0 {
		ld := b.NthLineDesc(start - 1)
		line := ld.Bytes()
		if isBlankLine(line) || !bytes.Equal(leadingWhitespace(line), indent) {
			break
		}
		start--
	}

	end = b.CurLineNum
	for end < b.NumLines-1 {
		ld := b.NthLineDesc(end + 1)
		line := ld.Bytes()
		if isBlankLine(line) || !bytes.Equal(leadingWhitespace(line), indent) {
			break
		}
		end++
	}
	return start, end, indent
}

// greedyWrap splits words (already trimmed of the shared indent) across
// lines no wider than margin columns, packing as many words per line as
// fit before breaking — a simplification of edit.c's paragraph(), which
// tracks the break column incrementally as it scans; see DESIGN.md for why
// that's equivalent here.
func greedyWrap(words [][]byte, margin, tabSize int, indent []byte) [][]byte {
	indentWidth := visibleWidth(indent, tabSize)
	var lines [][]byte
	var cur []byte
	curWidth := indentWidth

	flush := func() {
		if cur == nil {
			return
		}
		line := append([]byte(nil), indent...)
		line = append(line, cur...)
		lines = append(lines, line)
		cur = nil
		curWidth = indentWidth
	}

	for _, w := range words {
		wWidth := visibleWidth(w, tabSize)
		addWidth := wWidth
		if cur != nil {
			addWidth++ // the joining space
		}
		if cur != nil && curWidth+addWidth > margin {
			flush()
		}
		if cur != nil {
			cur = append(cur, ' ')
			curWidth++
		}
		cur = append(cur, w...)
		curWidth += wWidth
	}
	flush()
	if len(lines) == 0 {
		lines = [][]byte{append([]byte(nil), indent...)}
	}
	return lines
}

// Paragraph reflows the paragraph containing the cursor: every line is
// joined into one word stream and re-wrapped at right_margin (or
// ScreenWidth when the option is 0), carrying the paragraph's own leading
// whitespace onto every rebuilt line whether or not AutoIndent is set. Grounded on
// edit.c's paragraph()/save_space()/trim_trailing_space()/
// is_part_of_paragraph(); stop is checked between lines the same way
// search.Driver.ReplaceAll checks its own stop flag, since reflowing a
// large paragraph is itself a potentially long-running, interruptible
// operation per spec.md 5.
func (b *Buffer) Paragraph(screenWidth int, stop *bool) status.Status {
	margin := b.Options.RightMargin
	if margin == 0 {
		margin = screenWidth
	}
	if margin <= 0 {
		return status.OK
	}

	startLine, endLine, indent := b.paragraphBounds()
	if startLine == endLine && isBlankLine(b.NthLineDesc(startLine).Bytes()) {
		return status.OK
	}

	var words [][]byte
	for ln := startLine; ln <= endLine; ln++ {
		if stop != nil && *stop {
			return status.STOPPED
		}
		line := trimTrailingSpace(b.NthLineDesc(ln).Bytes())
		body := bytes.TrimLeft(line, " \t")
		for _, w := range bytes.Fields(body) {
			words = append(words, append([]byte(nil), w...))
		}
	}

	newLines := greedyWrap(words, margin, b.Options.TabSize, indent)

	b.Undo.StartChain()
	defer b.Undo.EndChain()

	var total int64
	for ln := startLine; ln <= endLine; ln++ {
		total += int64(b.NthLineDesc(ln).Len())
		if ln < endLine {
			total++ // the line-break swallowed between this line and the next
		}
	}
	if _, st := b.DeleteStream(startLine, 0, total); !st.OK() {
		return st
	}

	replacement := bytes.Join(newLines, []byte{0})
	if st := b.InsertStream(startLine, 0, replacement); !st.OK() {
		return st
	}

	lastLine := startLine + int64(len(newLines)) - 1
	b.CurLineNum = lastLine
	b.CurLine = b.NthLineDesc(lastLine)
	b.CurPosBytes = b.CurLine.Len()
	return status.OK
}
