package undo

import "testing"

// fakeBuffer is a minimal Applier that keeps a single flat byte slice
// instead of a real line list, just enough to exercise Log's replay
// sequencing without depending on pkg/buffer.
type fakeBuffer struct {
	data       []byte
	gotoLine   int64
	gotoPos    int64
	gotoCalled int
}

func (f *fakeBuffer) GotoStep(line, pos int64) {
	f.gotoLine, f.gotoPos = line, pos
	f.gotoCalled++
}

func (f *fakeBuffer) DeleteStep(line, pos, n int64) []byte {
	deleted := append([]byte(nil), f.data[pos:pos+n]...)
	f.data = append(f.data[:pos], f.data[pos+n:]...)
	return deleted
}

func (f *fakeBuffer) InsertStep(line, pos int64, data []byte) {
	f.data = append(f.data[:pos:pos], append(append([]byte(nil), data...), f.data[pos:]...)...)
}

func TestRecordInsertThenUndoDeletes(t *testing.T) {
	l := NewLog()
	f := &fakeBuffer{data: []byte("hello")}
	l.RecordInsert(0, 2, 3) // simulates "he" + inserted "llo" already applied

	if !l.CanUndo() {
		t.Fatalf("CanUndo() = false after a recorded insert")
	}
	if st := l.Undo(f); !st.OK() {
		t.Fatalf("Undo = %v", st)
	}
	if string(f.data) != "he" {
		t.Errorf("data = %q, want %q", f.data, "he")
	}
	if l.CanUndo() {
		t.Errorf("CanUndo() = true, want false after undoing the only step")
	}
	if !l.CanRedo() {
		t.Errorf("CanRedo() = false, want true right after an undo")
	}
}

func TestRecordDeleteThenUndoReinserts(t *testing.T) {
	l := NewLog()
	f := &fakeBuffer{data: []byte("ac")}
	l.RecordDelete(0, 1, []byte("b")) // simulates deleting "b" from "abc"

	if st := l.Undo(f); !st.OK() {
		t.Fatalf("Undo = %v", st)
	}
	if string(f.data) != "abc" {
		t.Errorf("data = %q, want %q", f.data, "abc")
	}
}

func TestRedoReplaysAfterUndo(t *testing.T) {
	l := NewLog()
	f := &fakeBuffer{data: []byte("ac")}
	l.RecordDelete(0, 1, []byte("b"))
	l.Undo(f)
	if string(f.data) != "abc" {
		t.Fatalf("setup: data = %q, want %q", f.data, "abc")
	}
	if st := l.Redo(f); !st.OK() {
		t.Fatalf("Redo = %v", st)
	}
	if string(f.data) != "ac" {
		t.Errorf("data = %q, want %q after redo", f.data, "ac")
	}
	if l.CanRedo() {
		t.Errorf("CanRedo() = true, want false right after replaying the only step")
	}
}

func TestChainUndoesAsOneUnit(t *testing.T) {
	l := NewLog()
	f := &fakeBuffer{data: []byte("XY")}

	l.StartChain()
	l.RecordDelete(0, 0, []byte("a")) // pretend "aXY" -> "XY"
	l.RecordDelete(0, 2, []byte("b")) // pretend "XYb" -> "XY"
	l.EndChain()

	if !l.Steps[0].chained() {
		t.Fatalf("first step of an open chain should carry the chained bias before EndChain's final unbias")
	}

	undos := 0
	for l.CanUndo() {
		l.Undo(f)
		undos++
	}
	if undos != 1 {
		t.Errorf("Undo() calls to unwind the chain = %d, want 1 (chain undoes as a single unit)", undos)
	}
}

func TestRecordingTruncatesRedoBranch(t *testing.T) {
	l := NewLog()
	f := &fakeBuffer{data: []byte("ac")}
	l.RecordDelete(0, 1, []byte("b"))
	l.Undo(f)
	if !l.CanRedo() {
		t.Fatalf("setup: expected a pending redo")
	}

	l.RecordInsert(0, 0, 1) // a fresh edit after an undo discards the redo branch
	if l.CanRedo() {
		t.Errorf("CanRedo() = true, want false after recording a new step past an undo point")
	}
}

func TestMarkSavedAndIsModified(t *testing.T) {
	l := NewLog()
	f := &fakeBuffer{data: []byte("ac")}
	if l.IsModified() {
		t.Fatalf("a fresh log should not be modified")
	}
	l.RecordDelete(0, 1, []byte("b"))
	if !l.IsModified() {
		t.Errorf("IsModified() = false after recording a step")
	}
	l.MarkSaved()
	if l.IsModified() {
		t.Errorf("IsModified() = true right after MarkSaved")
	}
	l.Undo(f)
	if !l.IsModified() {
		t.Errorf("IsModified() = false after undoing past the saved point")
	}
}

func TestResetDiscardsHistory(t *testing.T) {
	l := NewLog()
	l.RecordDelete(0, 1, []byte("b"))
	l.Reset()
	if l.CanUndo() || l.CanRedo() {
		t.Errorf("Reset left undo/redo state behind")
	}
	if len(l.Steps) != 0 || len(l.Data) != 0 || len(l.RedoData) != 0 {
		t.Errorf("Reset left step/data slices non-empty")
	}
}

func TestGotoStepIsCalledWithStepPosition(t *testing.T) {
	l := NewLog()
	f := &fakeBuffer{data: []byte("ac")}
	l.RecordDelete(3, 1, []byte("b"))
	l.Undo(f)
	if f.gotoLine != 3 || f.gotoPos != 1 {
		t.Errorf("GotoStep got (%d,%d), want (3,1)", f.gotoLine, f.gotoPos)
	}
}
