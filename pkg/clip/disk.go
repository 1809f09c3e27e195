package clip

import (
	"os"

	"github.com/vigna-ne/ne/pkg/encoding"
	"github.com/vigna-ne/ne/pkg/status"
)

// fileMagic tags a clip file so LoadClip can reject a non-clip file early
// rather than mis-parsing it as an empty clip, grounded on clips.c's
// save_clip/load_clip raw-byte layout.
const fileMagic = "NECLIP01"

// SaveClip writes clip c to path as: an 8-byte magic, one encoding-tag
// byte, one vertical-flag byte, and the raw (possibly NUL-delimited)
// payload — the same "just the bytes" format documents are stored in.
func SaveClip(c *Clip, path string) status.Status {
	f, err := os.Create(path)
	if err != nil {
		return status.CANT_OPEN_FILE
	}
	defer f.Close()

	header := make([]byte, 0, len(fileMagic)+2)
	header = append(header, fileMagic...)
	header = append(header, byte(c.Enc))
	vflag := byte(0)
	if c.Vertical {
		vflag = 1
	}
	header = append(header, vflag)
	if _, err := f.Write(header); err != nil {
		return status.ERROR_WHILE_WRITING
	}
	if _, err := f.Write(c.Data); err != nil {
		return status.ERROR_WHILE_WRITING
	}
	return status.OK
}

// LoadClip reads a clip file written by SaveClip.
func LoadClip(path string, id int) (*Clip, status.Status) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, status.FILE_DOES_NOT_EXIST
		}
		return nil, status.CANT_OPEN_FILE
	}
	if len(raw) < len(fileMagic)+2 || string(raw[:len(fileMagic)]) != fileMagic {
		return nil, status.SYNTAX_ERROR
	}
	enc := encoding.Encoding(raw[len(fileMagic)])
	vertical := raw[len(fileMagic)+1] == 1
	data := raw[len(fileMagic)+2:]
	return &Clip{ID: id, Enc: enc, Data: append([]byte(nil), data...), Vertical: vertical}, status.OK
}
