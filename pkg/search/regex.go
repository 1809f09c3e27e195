package search

import (
	"regexp"
	"strings"

	"github.com/vigna-ne/ne/pkg/status"
)

// dotUTF8 and nonWordUTF8 are the UTF-8-safe replacements for `.` and
// `\W` from spec.md 4.6. Go's regexp decodes UTF-8 and its character
// classes range over code points, so each form matches exactly one whole
// character (ASCII byte, or lead byte plus its continuation bytes) and a
// multibyte character is never split across two matches.
const dotUTF8 = `(?:[^\x00])`
const nonWordUTF8 = `(?:[^0-9A-Za-z_])`

// CompileUTF8Regex rewrites pattern per spec.md 4.6's UTF-8 adaptation
// (only meaningful when the target buffer is UTF8-encoded) and compiles
// it. Where the original ne engine's synthetic wrapper groups forced a
// virtual-group -> real-group remapping table for backreferences, this
// port uses Go regexp's native non-capturing groups for the synthetic
// wrappers instead, so the user's own capture groups keep their natural
// numbering and no remapping table is needed.
func CompileUTF8Regex(pattern string, utf8Mode bool) (*regexp.Regexp, status.Status) {
	rewritten := pattern
	if utf8Mode {
		r, st := rewriteUTF8(pattern)
		if !st.OK() {
			return nil, st
		}
		rewritten = r
	}
	re, err := regexp.Compile(rewritten)
	if err != nil {
		return nil, status.SYNTAX_ERROR
	}
	return re, status.OK
}

func rewriteUTF8(pattern string) (string, status.Status) {
	var out strings.Builder
	i := 0
	for i < len(pattern) {
		c := pattern[i]
		switch {
		case c == '\\' && i+1 < len(pattern):
			if pattern[i+1] == 'W' {
				out.WriteString(nonWordUTF8)
				i += 2
				continue
			}
			out.WriteByte(c)
			out.WriteByte(pattern[i+1])
			i += 2
		case c == '.':
			out.WriteString(dotUTF8)
			i++
		case c == '[':
			seg, consumed, st := scanClass(pattern[i:])
			if !st.OK() {
				return "", st
			}
			out.WriteString(seg)
			i += consumed
		default:
			out.WriteByte(c)
			i++
		}
	}
	return out.String(), status.OK
}

// scanClass consumes a bracket expression starting at s[0]=='[' and
// returns its (possibly rewritten) replacement text and the number of
// input bytes consumed. A complemented class [^...] already matches a
// complete multibyte UTF-8 sequence as one unit, since Go's regexp
// decodes runes, so it is passed through inside a non-capturing group;
// any class (complemented or not) containing a raw byte
// ≥0x80 is rejected, since such a byte cannot be a meaningful class
// member once the buffer is interpreted as UTF-8.
func scanClass(s string) (string, int, status.Status) {
	i := 1
	complemented := false
	if i < len(s) && s[i] == '^' {
		complemented = true
		i++
	}
	start := i
	if i < len(s) && s[i] == ']' {
		i++ // a leading ']' is a literal member, not the closer
	}
	for i < len(s) && s[i] != ']' {
		if s[i] == '\\' && i+1 < len(s) {
			i += 2
			continue
		}
		i++
	}
	if i >= len(s) {
		return "", 0, status.SYNTAX_ERROR
	}
	body := s[start:i]
	for j := 0; j < len(body); j++ {
		if body[j] >= 0x80 {
			if complemented {
				return "", 0, status.UTF8_REGEXP_COMP_CHARACTER_CLASS_NOT_SUPPORTED
			}
			return "", 0, status.UTF8_REGEXP_CHARACTER_CLASS_NOT_SUPPORTED
		}
	}
	whole := s[:i+1] // the original "[...]" or "[^...]", unchanged
	if !complemented {
		return whole, i + 1, status.OK
	}
	wrapped := "(?:" + whole + ")"
	return wrapped, i + 1, status.OK
}
