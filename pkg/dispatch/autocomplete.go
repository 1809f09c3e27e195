package dispatch

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/vigna-ne/ne/pkg/buffer"
	"github.com/vigna-ne/ne/pkg/status"
)

// isWordRune mirrors autocomp.c's ne_isword check used by search_buff.
func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// wordsOf splits line into its word tokens, treating an apostrophe
// followed by another word character as part of the word (autocomp.c's
// "don't" rule) rather than a separator.
func wordsOf(line []byte) []string {
	runes := []rune(string(line))
	var words []string
	for i := 0; i < len(runes); {
		if !isWordRune(runes[i]) {
			i++
			continue
		}
		j := i
		for j < len(runes) {
			if isWordRune(runes[j]) {
				j++
				continue
			}
			if runes[j] == '\'' && j+1 < len(runes) && isWordRune(runes[j+1]) {
				j++
				continue
			}
			break
		}
		words = append(words, string(runes[i:j]))
		i = j
	}
	return words
}

func commonPrefix(ss []string) string {
	if len(ss) == 0 {
		return ""
	}
	p := ss[0]
	for _, s := range ss[1:] {
		n := 0
		for n < len(p) && n < len(s) && p[n] == s[n] {
			n++
		}
		p = p[:n]
	}
	return p
}

func allSameLength(ss []string) bool {
	for _, s := range ss[1:] {
		if len(s) != len(ss[0]) {
			return false
		}
	}
	return true
}

// Autocomplete implements the AUTOCOMPLETE action (spec.md 4.4, grounded
// on autocomp.c's autocomplete()): the word prefix immediately before the
// cursor is scanned backward, every buffer (current one first, then
// ctx.OpenBuffers) is searched for a longer word sharing that prefix, and
// the result is completed directly when every candidate agrees past the
// prefix, or offered through ctx.RequestString when they don't. The
// simplification from the original: rather than a dedicated requester
// list, candidates are joined into one RequestString prompt and matched
// back by exact text — there's no separate requester-list collaborator in
// this port (see DESIGN.md).
func Autocomplete(ctx *Context) status.Status {
	b := ctx.Buf
	line := b.CurLine.Bytes()

	start := b.CurPosBytes
	for start > 0 {
		r, size := utf8.DecodeLastRune(line[:start])
		if !isWordRune(r) {
			break
		}
		start -= size
	}
	prefix := string(line[start:b.CurPosBytes])
	if prefix == "" {
		ctx.notify(status.AUTOCOMPLETE_NO_MATCH)
		return status.OK
	}

	seen := map[string]bool{prefix: true}
	var candidates []string
	scan := func(buf *buffer.Buffer) {
		for ld := buf.Head; ld != nil; ld = ld.Next {
			for _, w := range wordsOf(ld.Bytes()) {
				if len(w) > len(prefix) && strings.HasPrefix(w, prefix) && !seen[w] {
					seen[w] = true
					candidates = append(candidates, w)
				}
			}
		}
	}
	scan(b)
	for _, ob := range ctx.OpenBuffers {
		if ob != b {
			scan(ob)
		}
	}

	if len(candidates) == 0 {
		ctx.notify(status.AUTOCOMPLETE_NO_MATCH)
		return status.OK
	}
	sort.Strings(candidates)

	common := commonPrefix(candidates)
	if len(common) > len(prefix) {
		extra := common[len(prefix):]
		if st := b.InsertBytes([]byte(extra)); !st.OK() {
			return st
		}
		if len(candidates) == 1 || allSameLength(candidates) {
			ctx.notify(status.AUTOCOMPLETE_COMPLETED)
		} else {
			ctx.notify(status.AUTOCOMPLETE_PARTIAL)
		}
		return status.OK
	}

	if ctx.RequestString == nil {
		ctx.notify(status.AUTOCOMPLETE_PARTIAL)
		return status.OK
	}
	chosen, ok := ctx.RequestString(strings.Join(candidates, " "))
	if !ok {
		ctx.notify(status.AUTOCOMPLETE_CANCELLED)
		return status.OK
	}
	for _, c := range candidates {
		if c == chosen {
			if st := b.InsertBytes([]byte(c[len(prefix):])); !st.OK() {
				return st
			}
			ctx.notify(status.AUTOCOMPLETE_COMPLETED)
			return status.OK
		}
	}
	ctx.notify(status.AUTOCOMPLETE_NO_MATCH)
	return status.OK
}
