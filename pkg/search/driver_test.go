package search

import (
	"testing"

	"github.com/vigna-ne/ne/pkg/buffer"
	"github.com/vigna-ne/ne/pkg/encoding"
)

func newTestBuffer(lines string) *buffer.Buffer {
	b := buffer.New(encoding.ASCII, true)
	b.InsertBytes([]byte(lines))
	b.CurLineNum, b.CurPosBytes, b.CurLine = 0, 0, b.Head
	return b
}

func TestFindForwardLiteral(t *testing.T) {
	b := newTestBuffer("one\x00two\x00three")
	d := New(b)
	m, wrapped, st := d.Find("two", false, true, true)
	if !st.OK() {
		t.Fatalf("Find = %v", st)
	}
	if wrapped {
		t.Errorf("first forward find from the top should not need a wrap")
	}
	if m.Line != 1 || m.Pos != 0 {
		t.Errorf("match = (%d,%d), want (1,0)", m.Line, m.Pos)
	}
	if b.CurLineNum != 1 || b.CurPosBytes != 0 {
		t.Errorf("cursor after find = (%d,%d), want (1,0)", b.CurLineNum, b.CurPosBytes)
	}
}

func TestFindForwardWrapsAfterArming(t *testing.T) {
	b := newTestBuffer("xx needle yy\x00nothing")
	d := New(b)
	if _, wrapped, st := d.Find("needle", false, true, true); !st.OK() || wrapped {
		t.Fatalf("first Find = (wrapped=%v, %v), want a clean match", wrapped, st)
	}
	if _, _, st := d.Find("needle", false, true, true); st.OK() {
		t.Fatalf("second Find past the only match should miss, got %v", st)
	}
	m, wrapped, st := d.Find("needle", false, true, true)
	if !st.OK() {
		t.Fatalf("wrapped Find = %v", st)
	}
	if !wrapped {
		t.Errorf("Find should report wrapped=true once it re-finds the match from the top")
	}
	if m.Line != 0 || m.Pos != 3 {
		t.Errorf("match = (%d,%d), want (0,3)", m.Line, m.Pos)
	}
}

func TestFindBackward(t *testing.T) {
	b := newTestBuffer("one\x00two\x00one")
	d := New(b)
	b.CurLineNum, b.CurPosBytes, b.CurLine = 2, 3, b.NthLineDesc(2)
	m, _, st := d.Find("one", false, true, false)
	if !st.OK() {
		t.Fatalf("Find(backward) = %v", st)
	}
	if m.Line != 2 || m.Pos != 0 {
		t.Errorf("match = (%d,%d), want (2,0)", m.Line, m.Pos)
	}
}

func TestFindCaseInsensitive(t *testing.T) {
	b := newTestBuffer("Hello World")
	d := New(b)
	m, _, st := d.Find("world", false, false, true)
	if !st.OK() {
		t.Fatalf("Find = %v", st)
	}
	if m.Pos != 6 {
		t.Errorf("Pos = %d, want 6", m.Pos)
	}
}

func TestFindRegex(t *testing.T) {
	b := newTestBuffer("abc123def")
	d := New(b)
	m, _, st := d.Find(`[0-9]+`, true, true, true)
	if !st.OK() {
		t.Fatalf("Find(regex) = %v", st)
	}
	if m.Pos != 3 || m.Len != 3 {
		t.Errorf("match = (pos %d, len %d), want (3,3)", m.Pos, m.Len)
	}
}

func TestReplaceSubstitutesMatch(t *testing.T) {
	b := newTestBuffer("hello world")
	d := New(b)
	m, _, st := d.Find("world", false, true, true)
	if !st.OK() {
		t.Fatalf("Find = %v", st)
	}
	if st := d.Replace(m, "there"); !st.OK() {
		t.Fatalf("Replace = %v", st)
	}
	if got := string(b.Head.Bytes()); got != "hello there" {
		t.Errorf("line = %q, want %q", got, "hello there")
	}
}

func TestReplaceAllCountsEveryMatch(t *testing.T) {
	b := newTestBuffer("foo foo foo")
	d := New(b)
	n, st := d.ReplaceAll("foo", false, true, "bar", nil)
	if !st.OK() {
		t.Fatalf("ReplaceAll = %v", st)
	}
	if n != 3 {
		t.Errorf("replacement count = %d, want 3", n)
	}
	if got := string(b.Head.Bytes()); got != "bar bar bar" {
		t.Errorf("line = %q, want %q", got, "bar bar bar")
	}
}

func TestReplaceAllHonorsStopFlag(t *testing.T) {
	b := newTestBuffer("foo foo foo")
	d := New(b)
	stop := true
	n, st := d.ReplaceAll("foo", false, true, "bar", &stop)
	if st.OK() {
		t.Fatalf("ReplaceAll with stop already set should report STOPPED, got %v", st)
	}
	if n != 0 {
		t.Errorf("replacement count = %d, want 0 when stopped immediately", n)
	}
}

func TestFindNotFoundArmsWrap(t *testing.T) {
	b := newTestBuffer("abc")
	d := New(b)
	_, _, st := d.Find("zzz", false, true, true)
	if st.OK() {
		t.Errorf("Find for an absent pattern should report NOT_FOUND")
	}
}
