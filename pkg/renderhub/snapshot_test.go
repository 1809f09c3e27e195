package renderhub

import (
	"encoding/binary"
	"testing"

	"github.com/vigna-ne/ne/pkg/buffer"
	"github.com/vigna-ne/ne/pkg/encoding"
)

func TestBuildSnapshotFullCopiesEveryVisibleLine(t *testing.T) {
	b := buffer.New(encoding.ASCII, true)
	b.InsertBytes([]byte("one\x00two\x00three\x00"))

	s := buildSnapshot("doc", b, 0, 10, true, nil, 1)
	if int64(len(s.Lines)) != b.NumLines {
		t.Fatalf("got %d lines, want %d", len(s.Lines), b.NumLines)
	}
	if string(s.Lines[0].Text) != "one" {
		t.Errorf("Lines[0].Text = %q, want %q", s.Lines[0].Text, "one")
	}
}

func TestBuildSnapshotIncrementalOnlyIncludesDirtyLines(t *testing.T) {
	b := buffer.New(encoding.ASCII, true)
	b.InsertBytes([]byte("one\x00two\x00three\x00"))

	dirty := map[int64]bool{1: true}
	s := buildSnapshot("doc", b, 0, 10, false, dirty, 2)
	if len(s.Lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(s.Lines))
	}
	if s.Lines[0].Index != 1 || string(s.Lines[0].Text) != "two" {
		t.Errorf("Lines[0] = %+v, want index 1 text \"two\"", s.Lines[0])
	}
}

func TestBuildSnapshotRespectsViewportWindow(t *testing.T) {
	b := buffer.New(encoding.ASCII, true)
	b.InsertBytes([]byte("a\x00b\x00c\x00d\x00e\x00"))

	s := buildSnapshot("doc", b, 2, 2, true, nil, 1)
	if len(s.Lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(s.Lines))
	}
	if s.Lines[0].Index != 2 || s.Lines[1].Index != 3 {
		t.Errorf("got indices %d,%d, want 2,3", s.Lines[0].Index, s.Lines[1].Index)
	}
}

func TestSerializeToBinaryHeaderFields(t *testing.T) {
	b := buffer.New(encoding.ASCII, true)
	b.InsertBytes([]byte("hi"))
	s := buildSnapshot("doc", b, 0, 10, true, nil, 7)

	data := s.SerializeToBinary()
	if len(data) < 33 {
		t.Fatalf("frame too short: %d bytes", len(data))
	}
	if magic := binary.LittleEndian.Uint16(data[0:2]); magic != wireMagic {
		t.Errorf("magic = %#x, want %#x", magic, wireMagic)
	}
	if data[2] != wireVersion {
		t.Errorf("version = %d, want %d", data[2], wireVersion)
	}
	if flags := data[3]; flags != 1 {
		t.Errorf("flags = %d, want 1 (full)", flags)
	}
	numLines := binary.LittleEndian.Uint64(data[4:12])
	if int64(numLines) != b.NumLines {
		t.Errorf("numLines = %d, want %d", numLines, b.NumLines)
	}
}

func TestSerializeToBinaryEmptyLineUsesEmptyMarker(t *testing.T) {
	b := buffer.New(encoding.ASCII, true)
	b.InsertBytes([]byte("\x00"))
	s := buildSnapshot("doc", b, 0, 10, true, nil, 1)

	data := s.SerializeToBinary()

	off := 2 + 1 + 1 + 8 + 8 + 8 + 4 + 2
	if off >= len(data) {
		t.Fatalf("frame too short to hold a row marker: %d bytes", len(data))
	}
	if data[off] != emptyRowMarker {
		t.Errorf("row marker byte = %#x, want emptyRowMarker %#x", data[off], emptyRowMarker)
	}
}
