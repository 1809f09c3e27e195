// Package editor implements the process-wide registry of open documents
// (spec.md 5's "process-wide state": the buffer list, the clip list, the
// macro cache, the interrupt-pending flag) plus the "N" request/UI
// contract a terminal front end satisfies. It adapts the teacher's
// mutex-guarded session registry and output-notification callbacks
// (pkg/session.Manager) to a document registry and buffer-change
// notifications instead of PTY output.
package editor

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/vigna-ne/ne/pkg/buffer"
	"github.com/vigna-ne/ne/pkg/clip"
	"github.com/vigna-ne/ne/pkg/dispatch"
	"github.com/vigna-ne/ne/pkg/encoding"
	"github.com/vigna-ne/ne/pkg/macro"
	"github.com/vigna-ne/ne/pkg/status"
)

// ChangeCallback is notified whenever a document's content or cursor
// changes, the hook a renderhub transport subscribes to in order to push
// incremental screen updates (the "N" interface of spec.md 6).
type ChangeCallback func(docID string)

// Document pairs one editing buffer with the dispatch context that acts
// on it; every user-visible command for this document funnels through
// Dispatch.
type Document struct {
	ID      string
	Path    string
	Buf     *buffer.Buffer
	Dispatch *dispatch.Context
}

// Editor is the process-wide registry: every open document, the shared
// clip registry (clips are shared across documents, per spec.md 5), the
// macro file cache, and the single cooperative interrupt flag every
// multi-iteration action polls.
type Editor struct {
	mu        sync.RWMutex
	documents map[string]*Document

	Clips      *clip.Registry
	MacroCache *macro.Cache
	Registry   *dispatch.Registry

	// Stop is the process-wide cooperative interrupt flag (spec.md 5):
	// set by the terminal front end's interrupt collaborator, polled by
	// every multi-iteration dispatch action, cleared once the aborted
	// action returns STOPPED.
	Stop bool

	// ResizePending is set by the terminal front end on a window-resize
	// signal and polled at the top of every Dispatch call.
	ResizePending bool

	callbackMu sync.RWMutex
	callbacks  []ChangeCallback
}

// New creates an editor with no open documents, sharing one clip
// registry and macro cache across whatever documents are opened in it.
func New(macroCache *macro.Cache) *Editor {
	return &Editor{
		documents:  make(map[string]*Document),
		Clips:      clip.NewRegistry(),
		MacroCache: macroCache,
		Registry:   dispatch.DefaultRegistry(),
	}
}

// OpenBuffers returns every open document's buffer, for EXIT's
// across-all-documents unsaved-changes check.
func (e *Editor) OpenBuffers() []*buffer.Buffer {
	e.mu.RLock()
	defer e.mu.RUnlock()
	bufs := make([]*buffer.Buffer, 0, len(e.documents))
	for _, d := range e.documents {
		bufs = append(bufs, d.Buf)
	}
	return bufs
}

// NewDocument opens a new, empty document with its own buffer and
// dispatch context wired against this editor's shared registry, clip
// registry, and interrupt flag.
func (e *Editor) NewDocument(path string) *Document {
	b := buffer.New(encoding.ASCII, true)
	d := &Document{
		ID:   uuid.NewString(),
		Path: path,
		Buf:  b,
	}
	d.Dispatch = &dispatch.Context{
		Buf:           b,
		Clips:         e.Clips,
		Registry:      e.Registry,
		Stop:          &e.Stop,
		ResizePending: &e.ResizePending,
		OpenBuffers:   nil, // resolved lazily via e.OpenBuffers at EXIT time
	}

	e.mu.Lock()
	e.documents[d.ID] = d
	e.mu.Unlock()
	return d
}

// Document returns the open document with the given id.
func (e *Editor) Document(id string) (*Document, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	d, ok := e.documents[id]
	return d, ok
}

// Documents returns a snapshot of every open document.
func (e *Editor) Documents() []*Document {
	e.mu.RLock()
	defer e.mu.RUnlock()
	docs := make([]*Document, 0, len(e.documents))
	for _, d := range e.documents {
		docs = append(docs, d)
	}
	return docs
}

// CloseDocument implements CLOSEDOC: drops the document from the
// registry. The caller is responsible for any unsaved-changes
// confirmation before calling this (EXIT's gate covers process exit;
// closing one document among several is the front end's call).
func (e *Editor) CloseDocument(id string) status.Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.documents[id]; !ok {
		return status.NOT_FOUND
	}
	delete(e.documents, id)
	return status.OK
}

// Dispatch runs one action against the named document, first resolving
// its Context.OpenBuffers against the current registry so EXIT always
// sees every open document, not a stale snapshot.
func (e *Editor) Dispatch(docID, action string, intArg int64, strArg string) status.Status {
	d, ok := e.Document(docID)
	if !ok {
		return status.NOT_FOUND
	}
	d.Dispatch.OpenBuffers = e.OpenBuffers()
	st := dispatch.Dispatch(d.Dispatch, action, intArg, strArg)
	if st == status.STOPPED {
		e.Stop = false
	}
	e.notify(docID)
	return st
}

// RegisterChangeCallback subscribes to buffer-change notifications
// (spec.md 6's "N" interface), mirroring the teacher's
// RegisterDirectOutputCallback/NotifyDirectOutput pattern for PTY output.
func (e *Editor) RegisterChangeCallback(cb ChangeCallback) {
	e.callbackMu.Lock()
	defer e.callbackMu.Unlock()
	e.callbacks = append(e.callbacks, cb)
}

func (e *Editor) notify(docID string) {
	e.callbackMu.RLock()
	cbs := append([]ChangeCallback(nil), e.callbacks...)
	e.callbackMu.RUnlock()
	for _, cb := range cbs {
		cb(docID)
	}
}

// Summary is a lightweight, front-end-facing description of one open
// document, analogous to the teacher's session Info record.
type Summary struct {
	ID       string
	Path     string
	Modified bool
	ReadOnly bool
	Lines    int64
}

// Summaries lists every open document as a Summary, ordered by ID for a
// stable front-end listing.
func (e *Editor) Summaries() []Summary {
	docs := e.Documents()
	out := make([]Summary, 0, len(docs))
	for _, d := range docs {
		out = append(out, Summary{
			ID:       d.ID,
			Path:     d.Path,
			Modified: d.Buf.IsModified,
			ReadOnly: d.Buf.ReadOnly,
			Lines:    d.Buf.NumLines,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s Summary) String() string {
	mark := " "
	if s.Modified {
		mark = "*"
	}
	return fmt.Sprintf("%s%s (%d lines) %s", mark, s.Path, s.Lines, s.ID)
}
