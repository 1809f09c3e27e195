// Package search implements literal and regex search/replace (component
// I): a Boyer-Moore literal matcher with a bad-character table cached per
// (pattern, case-sensitivity) pair, a UTF-8-adapting regex compiler, and
// the search/replace driver that walks a buffer's lines.
package search

// BoyerMoore is a bad-character-rule literal matcher. It is rebuilt only
// when the pattern, case sensitivity, or the owning buffer's
// find_string_changed tag changes (see Driver.ensureCompiled), mirroring
// spec.md 4.6's "built once per (pattern, case_sense) pair" cache.
type BoyerMoore struct {
	pattern       []byte
	caseSensitive bool
	bad           [256]int
	Serial        uint64
}

func upperByte(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - ('a' - 'A')
	}
	return c
}

// NewBoyerMoore builds the bad-character table for pattern.
func NewBoyerMoore(pattern []byte, caseSensitive bool, serial uint64) *BoyerMoore {
	bm := &BoyerMoore{
		pattern:       append([]byte(nil), pattern...),
		caseSensitive: caseSensitive,
		Serial:        serial,
	}
	for i := range bm.bad {
		bm.bad[i] = -1
	}
	for i, c := range bm.pattern {
		if !caseSensitive {
			c = upperByte(c)
		}
		bm.bad[c] = i
	}
	return bm
}

func (bm *BoyerMoore) eq(a, b byte) bool {
	if bm.caseSensitive {
		return a == b
	}
	return upperByte(a) == upperByte(b)
}

// Len is the byte length of the compiled pattern.
func (bm *BoyerMoore) Len() int { return len(bm.pattern) }

// FindForward returns the first occurrence of the pattern in text at or
// after byte offset from.
func (bm *BoyerMoore) FindForward(text []byte, from int) (int, bool) {
	m, n := len(bm.pattern), len(text)
	if m == 0 {
		if from <= n {
			return from, true
		}
		return 0, false
	}
	i := from
	for i+m <= n {
		j := m - 1
		for j >= 0 && bm.eq(text[i+j], bm.pattern[j]) {
			j--
		}
		if j < 0 {
			return i, true
		}
		c := text[i+j]
		if !bm.caseSensitive {
			c = upperByte(c)
		}
		shift := j - bm.bad[c]
		if shift < 1 {
			shift = 1
		}
		i += shift
	}
	return 0, false
}

// FindLastBefore returns the last occurrence of the pattern in text that
// starts at or before byte offset upto, by repeated forward scans. This
// trades worst-case re-scanning for simplicity: backward search is not
// the hot path that makes Boyer-Moore's skip table worth complicating
// with a mirrored bad-character rule.
func (bm *BoyerMoore) FindLastBefore(text []byte, upto int) (int, bool) {
	best, found := 0, false
	for i := 0; ; {
		pos, ok := bm.FindForward(text, i)
		if !ok || pos > upto {
			break
		}
		best, found = pos, true
		i = pos + 1
	}
	return best, found
}
