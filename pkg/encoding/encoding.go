// Package encoding defines the three-way encoding tag carried by every
// buffer, line, clip and stream in the editor, and the promotion/mixing
// rules between them.
package encoding

import "github.com/vigna-ne/ne/pkg/status"

// Encoding is the tag a buffer, clip or stream carries.
type Encoding int

const (
	// ASCII is a subset promoted lazily to UTF8 or BYTE8 on first
	// non-ASCII write.
	ASCII Encoding = iota
	UTF8
	BYTE8
)

func (e Encoding) String() string {
	switch e {
	case ASCII:
		return "ASCII"
	case UTF8:
		return "UTF8"
	case BYTE8:
		return "BYTE8"
	default:
		return "UNKNOWN"
	}
}

// Compatible reports whether a and b may coexist on either side of an
// operation (e.g. pasting a clip into a buffer). ASCII is a universal
// subset of both other encodings; UTF8 and BYTE8 never mix.
func Compatible(a, b Encoding) bool {
	if a == b {
		return true
	}
	return a == ASCII || b == ASCII
}

// Promote returns the encoding that results from combining a base encoding
// with an incoming one, per Compatible's rule: the non-ASCII side wins.
func Promote(base, incoming Encoding) (Encoding, status.Status) {
	if !Compatible(base, incoming) {
		return base, status.INCOMPATIBLE_CLIP_ENCODING
	}
	if base == ASCII {
		return incoming, status.OK
	}
	return base, status.OK
}

// PromoteForRune decides what encoding a buffer currently tagged enc must
// become to accept code point r, honoring the utf8Auto preference for
// codes in [128,255] (spec.md 4.4 edge policy).
func PromoteForRune(enc Encoding, r rune, utf8Auto bool) (Encoding, status.Status) {
	switch enc {
	case UTF8:
		return UTF8, status.OK
	case BYTE8:
		if r > 255 {
			return BYTE8, status.INVALID_CHARACTER
		}
		return BYTE8, status.OK
	case ASCII:
		if r <= 127 {
			return ASCII, status.OK
		}
		if r > 255 || utf8Auto {
			return UTF8, status.OK
		}
		return BYTE8, status.OK
	default:
		return enc, status.OK
	}
}
