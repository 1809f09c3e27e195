package search

import (
	"regexp"

	"github.com/vigna-ne/ne/pkg/buffer"
	"github.com/vigna-ne/ne/pkg/encoding"
	"github.com/vigna-ne/ne/pkg/status"
)

// Match is one located occurrence.
type Match struct {
	Line int64
	Pos  int
	Len  int
}

// Driver walks a buffer's lines looking for literal or regex matches, and
// performs the bracketed delete+insert that realizes a replacement.
type Driver struct {
	Buf *buffer.Buffer

	bm *BoyerMoore
	re *regexp.Regexp

	serial uint64

	// wrapArmed decays over dispatcher calls, per spec.md 4.6: a search
	// that finds nothing without wrapping arms a one-shot wraparound for
	// the next call, which disarms it whether or not it finds a match; a
	// wrapped search that also misses does not re-arm it.
	wrapArmed int
}

// New returns a driver bound to b.
func New(b *buffer.Buffer) *Driver { return &Driver{Buf: b} }

func (d *Driver) ensureCompiled(pattern string, isRegex, caseSensitive bool) status.Status {
	b := d.Buf
	changed := b.FindStringChanged || pattern != b.FindString ||
		isRegex != b.LastWasRegex || caseSensitive != b.CaseSensitive ||
		(isRegex && d.re == nil) || (!isRegex && d.bm == nil)
	if !changed {
		return status.OK
	}
	b.FindString = pattern
	b.LastWasRegex = isRegex
	b.CaseSensitive = caseSensitive
	b.FindStringChanged = false
	d.serial++

	if isRegex {
		re, st := CompileUTF8Regex(pattern, b.Enc == encoding.UTF8)
		if !st.OK() {
			return st
		}
		d.re, d.bm = re, nil
		return status.OK
	}
	d.bm = NewBoyerMoore([]byte(pattern), caseSensitive, d.serial)
	d.re = nil
	return status.OK
}

func (d *Driver) findInLine(line []byte, from int) (pos, length int, ok bool) {
	if from < 0 || from > len(line) {
		return 0, 0, false
	}
	if d.re != nil {
		loc := d.re.FindIndex(line[from:])
		if loc == nil {
			return 0, 0, false
		}
		return from + loc[0], loc[1] - loc[0], true
	}
	p, ok := d.bm.FindForward(line, from)
	if !ok {
		return 0, 0, false
	}
	return p, d.bm.Len(), true
}

func (d *Driver) findLastInLine(line []byte, upto int) (pos, length int, ok bool) {
	if upto < 0 {
		return 0, 0, false
	}
	if upto >= len(line) {
		upto = len(line) - 1
	}
	if d.re != nil {
		matches := d.re.FindAllIndex(line, -1)
		for i := len(matches) - 1; i >= 0; i-- {
			if matches[i][0] <= upto {
				return matches[i][0], matches[i][1] - matches[i][0], true
			}
		}
		return 0, 0, false
	}
	p, ok := d.bm.FindLastBefore(line, upto)
	if !ok {
		return 0, 0, false
	}
	return p, d.bm.Len(), true
}

func (d *Driver) scanForward(fromLine int64, fromPos int) (Match, bool) {
	ld := d.Buf.NthLineDesc(fromLine)
	pos := fromPos
	for line := fromLine; line < d.Buf.NumLines; line++ {
		if p, n, ok := d.findInLine(ld.Bytes(), pos); ok {
			return Match{Line: line, Pos: p, Len: n}, true
		}
		pos = 0
		ld = ld.Next
	}
	return Match{}, false
}

func (d *Driver) scanBackward(fromLine int64, fromPos int) (Match, bool) {
	ld := d.Buf.NthLineDesc(fromLine)
	upto := fromPos
	for line := fromLine; line >= 0; line-- {
		if p, n, ok := d.findLastInLine(ld.Bytes(), upto); ok {
			return Match{Line: line, Pos: p, Len: n}, true
		}
		ld = ld.Prev
		if ld != nil {
			upto = ld.Len() - 1
		}
	}
	return Match{}, false
}

func (d *Driver) applyMatch(m Match) {
	newLine := d.Buf.NthLineDesc(m.Line)
	d.Buf.CurLineNum = m.Line
	d.Buf.CurLine = newLine
	d.Buf.CurPosBytes = m.Pos
}

// Find walks from the cursor in the requested direction, wrapping once
// around the buffer boundary if the previous call armed the wrap flag by
// returning NOT_FOUND.
func (d *Driver) Find(pattern string, isRegex, caseSensitive, forward bool) (Match, bool, status.Status) {
	if st := d.ensureCompiled(pattern, isRegex, caseSensitive); !st.OK() {
		return Match{}, false, st
	}
	b := d.Buf
	wrapAllowed := d.wrapArmed > 0
	if d.wrapArmed > 0 {
		d.wrapArmed--
	}

	var m Match
	var found bool
	if forward {
		m, found = d.scanForward(b.CurLineNum, b.CurPosBytes+1)
	} else {
		m, found = d.scanBackward(b.CurLineNum, b.CurPosBytes-1)
	}
	if found {
		d.applyMatch(m)
		return m, false, status.OK
	}

	if wrapAllowed {
		if forward {
			m, found = d.scanForward(0, 0)
		} else {
			lastLine := b.NumLines - 1
			m, found = d.scanBackward(lastLine, b.NthLineDesc(lastLine).Len()-1)
		}
		if found {
			d.applyMatch(m)
			return m, true, status.OK
		}
	}

	if !wrapAllowed {
		d.wrapArmed = 1
	}
	return Match{}, false, status.NOT_FOUND
}

// Replace deletes m's matched bytes and inserts replacement (with regex
// backreferences expanded via Go's native $N group substitution, in place
// of the original's virtual-to-real group remapping table), bracketed as
// one undo atom. An empty match nudges the cursor forward one byte so a
// ReplaceAll loop cannot spin forever on a zero-width regex.
func (d *Driver) Replace(m Match, replacement string) status.Status {
	b := d.Buf
	b.Undo.StartChain()
	defer b.Undo.EndChain()

	repl := []byte(replacement)
	if d.re != nil {
		ld := b.NthLineDesc(m.Line)
		matched := ld.Bytes()[m.Pos : m.Pos+m.Len]
		if loc := d.re.FindSubmatchIndex(matched); loc != nil {
			repl = d.re.ExpandString(nil, replacement, string(matched), loc)
		}
	}

	if _, st := b.DeleteStream(m.Line, m.Pos, int64(m.Len)); !st.OK() {
		return st
	}
	if st := b.InsertStream(m.Line, m.Pos, repl); !st.OK() {
		return st
	}

	newPos := m.Pos + len(repl)
	if m.Len == 0 {
		newPos++
	}
	newLine := b.NthLineDesc(m.Line)
	b.CurLineNum = m.Line
	b.CurLine = newLine
	b.CurPosBytes = newPos
	return status.OK
}

// ReplaceAll repeats Find(forward)+Replace from the top of the buffer
// until no further match is found, as one undo chain. stop, when
// non-nil, is polled between iterations so a long run can be
// interrupted cooperatively (spec.md 5).
func (d *Driver) ReplaceAll(pattern string, isRegex, caseSensitive bool, replacement string, stop *bool) (int, status.Status) {
	if st := d.ensureCompiled(pattern, isRegex, caseSensitive); !st.OK() {
		return 0, st
	}
	b := d.Buf
	b.Undo.StartChain()
	defer b.Undo.EndChain()

	b.CurLineNum, b.CurLine, b.CurPosBytes = 0, b.Head, 0
	count := 0
	for {
		if stop != nil && *stop {
			return count, status.STOPPED
		}
		m, found := d.scanForward(b.CurLineNum, b.CurPosBytes)
		if !found {
			break
		}
		if st := d.Replace(m, replacement); !st.OK() {
			return count, st
		}
		count++
	}
	return count, status.OK
}
