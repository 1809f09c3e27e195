// Package recovery implements the out-of-band autosave manifest
// (SPEC_FULL.md §3/§7): a YAML sidecar written beside each buffer's
// "#basename" autosave payload so a restart can offer to recover a
// crashed session, grounded on clips.c/prefs.c's raw-byte-file
// conventions (pkg/clip/disk.go) and serialized with gopkg.in/yaml.v3.
package recovery

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/vigna-ne/ne/pkg/buffer"
	"github.com/vigna-ne/ne/pkg/status"
)

// Cursor is a (line, pos) pair, the document-coordinate form of
// Buffer.CurLineNum/CurPosBytes.
type Cursor struct {
	Line int64 `yaml:"line"`
	Pos  int   `yaml:"pos"`
}

// BookmarkEntry is one set bookmark slot, recorded by index so an empty
// manifest need not list all NumBookmarks slots.
type BookmarkEntry struct {
	Slot int64  `yaml:"slot"`
	Line int64  `yaml:"line"`
	Pos  int    `yaml:"pos"`
}

// Manifest is the per-buffer recovery record, written by Autosave (which
// cmd/ne calls for each modified document when it receives SIGINT,
// SIGTERM or SIGHUP), per SPEC_FULL.md §3. A clean EXIT does not write it.
type Manifest struct {
	BufferID       string          `yaml:"buffer_id"`
	SourcePath     string          `yaml:"source_path"`
	Encoding       string          `yaml:"encoding"`
	CRLFOnSave     bool            `yaml:"crlf_on_save"`
	Cursor         Cursor          `yaml:"cursor"`
	Bookmarks      []BookmarkEntry `yaml:"bookmarks"`
	UndoHighWater  int             `yaml:"undo_high_water"`
	Modified       bool            `yaml:"modified"`
}

// BuildManifest snapshots b's recovery-relevant state.
func BuildManifest(b *buffer.Buffer) Manifest {
	m := Manifest{
		BufferID:      b.ID,
		SourcePath:    b.SourcePath,
		Encoding:      b.Enc.String(),
		CRLFOnSave:    b.CRLFOnSave,
		Cursor:        Cursor{Line: b.CurLineNum, Pos: b.CurPosBytes},
		UndoHighWater: b.Undo.CurStep,
		Modified:      b.IsModified,
	}
	for slot, bm := range b.Bookmarks {
		if !bm.Set {
			continue
		}
		m.Bookmarks = append(m.Bookmarks, BookmarkEntry{Slot: int64(slot), Line: bm.Line, Pos: bm.Pos})
	}
	return m
}

// payloadPath and manifestPath derive the two sidecar paths an autosave
// writes for a document living at dir/basename: dir/#basename holds the
// raw bytes (component: stream, spec.md §6 — this package never touches
// that file's contents), dir/#basename.recovery.yaml holds the Manifest.
func payloadPath(dir, basename string) string {
	return filepath.Join(dir, "#"+basename)
}

func manifestPath(dir, basename string) string {
	return filepath.Join(dir, "#"+basename+".recovery.yaml")
}

// Autosave writes payload (the buffer's raw content, per spec.md §6) to
// its "#basename" path and m to the matching ".recovery.yaml" sidecar.
// dir/basename are derived from b.SourcePath; an unnamed buffer (no
// SourcePath) has nothing to autosave under and returns OK without
// writing anything.
func Autosave(b *buffer.Buffer, payload []byte) status.Status {
	if b.SourcePath == "" {
		return status.OK
	}
	dir, basename := filepath.Split(b.SourcePath)
	if dir == "" {
		dir = "."
	}

	if err := os.WriteFile(payloadPath(dir, basename), payload, 0o600); err != nil {
		return status.ERROR_WHILE_WRITING
	}

	m := BuildManifest(b)
	data, err := yaml.Marshal(m)
	if err != nil {
		return status.ERROR_WHILE_WRITING
	}
	if err := os.WriteFile(manifestPath(dir, basename), data, 0o600); err != nil {
		return status.ERROR_WHILE_WRITING
	}
	return status.OK
}

// DiscardAutosave removes both sidecar files for sourcePath. Nothing in
// cmd/ne or pkg/dispatch calls it, so a clean EXIT leaves any earlier
// autosave on disk.
func DiscardAutosave(sourcePath string) status.Status {
	if sourcePath == "" {
		return status.OK
	}
	dir, basename := filepath.Split(sourcePath)
	if dir == "" {
		dir = "."
	}
	for _, p := range []string{payloadPath(dir, basename), manifestPath(dir, basename)} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return status.ERROR_WHILE_WRITING
		}
	}
	return status.OK
}

// LoadManifest reads the recovery manifest for sourcePath, if one
// exists. A missing manifest means there is nothing to recover, not an
// error.
func LoadManifest(sourcePath string) (*Manifest, bool, status.Status) {
	if sourcePath == "" {
		return nil, false, status.OK
	}
	dir, basename := filepath.Split(sourcePath)
	if dir == "" {
		dir = "."
	}
	data, err := os.ReadFile(manifestPath(dir, basename))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, status.OK
		}
		return nil, false, status.CANT_OPEN_FILE
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, false, status.SYNTAX_ERROR
	}
	return &m, true, status.OK
}

// LoadPayload reads the raw autosaved bytes for sourcePath, if present.
func LoadPayload(sourcePath string) ([]byte, bool, status.Status) {
	if sourcePath == "" {
		return nil, false, status.OK
	}
	dir, basename := filepath.Split(sourcePath)
	if dir == "" {
		dir = "."
	}
	data, err := os.ReadFile(payloadPath(dir, basename))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, status.OK
		}
		return nil, false, status.CANT_OPEN_FILE
	}
	return data, true, status.OK
}
