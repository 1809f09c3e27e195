package renderhub

import (
	"sync"
	"time"

	"github.com/vigna-ne/ne/pkg/editor"
)

const debounceInterval = 50 * time.Millisecond

// docState is the per-document dirty-tracking and fan-out bookkeeping,
// adapted from the teacher's SessionBuffer/subscriber-map pair in
// pkg/termsocket/manager.go.
type docState struct {
	mu             sync.RWMutex
	dirty          map[int64]bool
	anydirty       bool
	sequenceID     uint64
	lastSnapshot   *Snapshot
	viewportTop    int64
	viewportHeight int64
}

func newDocState() *docState {
	return &docState{dirty: make(map[int64]bool), viewportHeight: 24}
}

func (d *docState) markAllDirty(numLines int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.anydirty = true
	for i := d.viewportTop; i < d.viewportTop+d.viewportHeight && i < numLines; i++ {
		d.dirty[i] = true
	}
}

// Hub manages renderhub subscribers for every open document, fanning
// out debounced snapshots on every editor change notification — the
// same shape as the teacher's Manager: a map guarded by sync.RWMutex,
// subscriber channels keyed by id, time.AfterFunc debouncing, and a
// shutdownCh/sync.WaitGroup pair for graceful shutdown.
type Hub struct {
	ed *editor.Editor

	mu   sync.RWMutex
	docs map[string]*docState

	subMu       sync.RWMutex
	subscribers map[string][]chan *Snapshot

	timerMu            sync.RWMutex
	notificationTimers map[string]*time.Timer

	shutdownCh chan struct{}
	wg         sync.WaitGroup
}

// New creates a Hub bound to ed, subscribing to ed's change
// notifications for the lifetime of the hub.
func New(ed *editor.Editor) *Hub {
	h := &Hub{
		ed:                 ed,
		docs:               make(map[string]*docState),
		subscribers:        make(map[string][]chan *Snapshot),
		notificationTimers: make(map[string]*time.Timer),
		shutdownCh:         make(chan struct{}),
	}
	ed.RegisterChangeCallback(h.onChange)
	return h
}

func (h *Hub) state(docID string) *docState {
	h.mu.Lock()
	defer h.mu.Unlock()
	ds, ok := h.docs[docID]
	if !ok {
		ds = newDocState()
		h.docs[docID] = ds
	}
	return ds
}

// SetViewport records the visible row window a subscriber's renderer is
// currently showing for docID, so subsequent incremental snapshots only
// cover rows that could actually be on screen.
func (h *Hub) SetViewport(docID string, top, height int64) {
	ds := h.state(docID)
	ds.mu.Lock()
	ds.viewportTop, ds.viewportHeight = top, height
	ds.mu.Unlock()
}

// onChange is the editor.ChangeCallback: it marks docID's current
// viewport dirty and schedules a debounced broadcast, the same
// debounce-then-flush pattern as the teacher's notificationTimers.
func (h *Hub) onChange(docID string) {
	doc, ok := h.ed.Document(docID)
	if !ok {
		return
	}
	h.state(docID).markAllDirty(doc.Buf.NumLines)

	h.timerMu.Lock()
	if t, ok := h.notificationTimers[docID]; ok {
		t.Stop()
	}
	h.notificationTimers[docID] = time.AfterFunc(debounceInterval, func() {
		h.flush(docID)
	})
	h.timerMu.Unlock()
}

func (h *Hub) flush(docID string) {
	doc, ok := h.ed.Document(docID)
	if !ok {
		return
	}
	ds := h.state(docID)

	ds.mu.Lock()
	if !ds.anydirty {
		ds.mu.Unlock()
		return
	}
	ds.sequenceID++
	full := ds.lastSnapshot == nil
	dirty := ds.dirty
	ds.dirty = make(map[int64]bool)
	ds.anydirty = false
	top, height, seq := ds.viewportTop, ds.viewportHeight, ds.sequenceID
	ds.mu.Unlock()

	snap := buildSnapshot(docID, doc.Buf, top, height, full, dirty, seq)

	ds.mu.Lock()
	ds.lastSnapshot = snap
	ds.mu.Unlock()

	h.broadcast(docID, snap)
}

func (h *Hub) broadcast(docID string, snap *Snapshot) {
	h.subMu.RLock()
	defer h.subMu.RUnlock()
	for _, ch := range h.subscribers[docID] {
		select {
		case ch <- snap:
		default:
			// a slow subscriber drops an intermediate frame rather than
			// blocking the whole hub; the next debounced flush carries a
			// fresh full-or-incremental snapshot anyway.
		}
	}
}

// Subscribe registers a new listener for docID's snapshots and returns
// an initial full snapshot plus a cancel function.
func (h *Hub) Subscribe(docID string) (<-chan *Snapshot, *Snapshot, func(), bool) {
	doc, ok := h.ed.Document(docID)
	if !ok {
		return nil, nil, nil, false
	}
	ds := h.state(docID)
	ds.mu.Lock()
	top, height := ds.viewportTop, ds.viewportHeight
	ds.sequenceID++
	seq := ds.sequenceID
	ds.mu.Unlock()

	initial := buildSnapshot(docID, doc.Buf, top, height, true, nil, seq)

	ch := make(chan *Snapshot, 16)
	h.subMu.Lock()
	h.subscribers[docID] = append(h.subscribers[docID], ch)
	h.subMu.Unlock()

	cancel := func() {
		h.subMu.Lock()
		defer h.subMu.Unlock()
		subs := h.subscribers[docID]
		for i, c := range subs {
			if c == ch {
				h.subscribers[docID] = append(subs[:i], subs[i+1:]...)
				close(ch)
				break
			}
		}
	}
	return ch, initial, cancel, true
}

// Shutdown stops every pending debounce timer. It does not close
// subscriber channels directly; each connection's own goroutine exits
// when its websocket closes and calls its Subscribe cancel func.
func (h *Hub) Shutdown() {
	close(h.shutdownCh)
	h.timerMu.Lock()
	for _, t := range h.notificationTimers {
		t.Stop()
	}
	h.timerMu.Unlock()
	h.wg.Wait()
}
