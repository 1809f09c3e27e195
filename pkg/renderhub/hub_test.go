package renderhub

import (
	"testing"
	"time"

	"github.com/vigna-ne/ne/pkg/editor"
	"github.com/vigna-ne/ne/pkg/macro"
)

func newTestEditor(t *testing.T) *editor.Editor {
	t.Helper()
	cache, err := macro.NewCache("", "", "")
	if err != nil {
		t.Fatalf("macro.NewCache: %v", err)
	}
	t.Cleanup(func() { cache.Close() })
	return editor.New(cache)
}

func TestSubscribeReturnsFullInitialSnapshot(t *testing.T) {
	ed := newTestEditor(t)
	doc := ed.NewDocument("scratch.txt")
	doc.Buf.InsertBytes([]byte("hello"))

	hub := New(ed)
	_, initial, cancel, ok := hub.Subscribe(doc.ID)
	if !ok {
		t.Fatal("Subscribe returned ok=false for an open document")
	}
	defer cancel()

	if !initial.Full {
		t.Errorf("initial snapshot should be Full")
	}
	if initial.NumLines != doc.Buf.NumLines {
		t.Errorf("NumLines = %d, want %d", initial.NumLines, doc.Buf.NumLines)
	}
	if len(initial.Lines) == 0 {
		t.Errorf("initial snapshot carries no lines")
	}
}

func TestSubscribeUnknownDocument(t *testing.T) {
	ed := newTestEditor(t)
	hub := New(ed)
	_, _, _, ok := hub.Subscribe("nope")
	if ok {
		t.Errorf("Subscribe should fail for an unknown document")
	}
}

func TestDispatchTriggersDebouncedBroadcast(t *testing.T) {
	ed := newTestEditor(t)
	doc := ed.NewDocument("scratch.txt")

	hub := New(ed)
	ch, _, cancel, ok := hub.Subscribe(doc.ID)
	if !ok {
		t.Fatal("Subscribe failed")
	}
	defer cancel()

	if st := ed.Dispatch(doc.ID, "AutoIndent", 1, ""); !st.OK() {
		t.Fatalf("Dispatch = %v", st)
	}

	select {
	case snap := <-ch:
		if snap.DocID != doc.ID {
			t.Errorf("snap.DocID = %q, want %q", snap.DocID, doc.ID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a debounced broadcast")
	}
}

func TestCancelRemovesSubscriber(t *testing.T) {
	ed := newTestEditor(t)
	doc := ed.NewDocument("scratch.txt")

	hub := New(ed)
	_, _, cancel, ok := hub.Subscribe(doc.ID)
	if !ok {
		t.Fatal("Subscribe failed")
	}

	hub.subMu.RLock()
	n := len(hub.subscribers[doc.ID])
	hub.subMu.RUnlock()
	if n != 1 {
		t.Fatalf("got %d subscribers, want 1", n)
	}

	cancel()

	hub.subMu.RLock()
	n = len(hub.subscribers[doc.ID])
	hub.subMu.RUnlock()
	if n != 0 {
		t.Fatalf("got %d subscribers after cancel, want 0", n)
	}
}

func TestSetViewportNarrowsSnapshotWindow(t *testing.T) {
	ed := newTestEditor(t)
	doc := ed.NewDocument("scratch.txt")
	for i := 0; i < 5; i++ {
		doc.Buf.InsertBytes([]byte("line\x00"))
	}

	hub := New(ed)
	hub.SetViewport(doc.ID, 1, 2)

	_, initial, cancel, ok := hub.Subscribe(doc.ID)
	if !ok {
		t.Fatal("Subscribe failed")
	}
	defer cancel()

	if initial.ViewportTop != 1 {
		t.Errorf("ViewportTop = %d, want 1", initial.ViewportTop)
	}
	if len(initial.Lines) > 2 {
		t.Errorf("got %d lines, want at most 2 within the viewport window", len(initial.Lines))
	}
}
