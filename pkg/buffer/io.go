package buffer

import (
	"bytes"

	"github.com/vigna-ne/ne/pkg/status"
)

// ExtractAll renders every line back into the save-file byte stream,
// undoing the NUL-as-line-separator convention the pool uses internally
// (spec.md 3: the original editor does the same conversion in the other
// direction when a file is first read). CRLFOnSave controls whether the
// separator written back out is "\r\n" or plain "\n"; PreserveCR leaves
// any CR already embedded in a line's own text untouched either way,
// since that CR belongs to the line's content, not to the separator.
func (b *Buffer) ExtractAll() []byte {
	b.Lock()
	defer b.Unlock()

	sep := []byte("\n")
	if b.CRLFOnSave {
		sep = []byte("\r\n")
	}

	var out bytes.Buffer
	for l := b.Head; l != nil; l = l.Next {
		out.Write(l.Bytes())
		if l != b.Tail {
			out.Write(sep)
		}
	}
	return out.Bytes()
}

// LoadFile seeds an empty buffer from a save-file byte stream: CRLF line
// endings are detected and recorded on CRLFOnSave so a later ExtractAll
// round-trips them, then every "\r\n" or "\n" is rewritten to the pool's
// internal NUL separator before the whole stream is inserted in one call.
// b must be freshly created (a single empty line, unmodified) for the
// insertion to land at the start of the buffer.
func (b *Buffer) LoadFile(data []byte) status.Status {
	hasCRLF := bytes.Contains(data, []byte("\r\n"))
	b.CRLFOnSave = hasCRLF

	if hasCRLF {
		data = bytes.ReplaceAll(data, []byte("\r\n"), []byte{0})
	} else {
		data = bytes.ReplaceAll(data, []byte("\n"), []byte{0})
	}

	if st := b.InsertBytes(data); !st.OK() {
		return st
	}
	b.IsModified = false
	b.CurLineNum, b.CurPosBytes, b.CurLine = 0, 0, b.Head
	return status.OK
}
