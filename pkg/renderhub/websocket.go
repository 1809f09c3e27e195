package renderhub

import (
	"encoding/json"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

// Wire timing constants, carried over unchanged from the teacher's
// pkg/api/raw_websocket.go: a generous read deadline refreshed by pong
// frames, pings sent well within it, and a bounded write deadline.
const (
	maxMessageSize = 32 * 1024
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	writeWait      = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The renderhub transport is explicitly loopback-only (SPEC_FULL.md
	// §2): no browser-style cross-origin caller is ever legitimate here,
	// so CheckOrigin always allows the handshake and isLoopback (applied
	// in ServeHTTP) is what actually gates access.
	CheckOrigin: func(r *http.Request) bool { return true },
}

func isLoopback(remoteAddr string) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// Handler upgrades a connection and streams one document's snapshots to
// it, mirroring the teacher's RawTerminalWebSocketHandler: a writer
// goroutine draining a send channel, ping/pong keepalive, and a small
// JSON control protocol over the same connection.
type Handler struct {
	hub *Hub
}

// NewRouter builds a gorilla/mux router exposing the renderhub
// websocket endpoint at /ws.
func NewRouter(hub *Hub) *mux.Router {
	r := mux.NewRouter()
	h := &Handler{hub: hub}
	r.Handle("/ws", h)
	return r
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !isLoopback(r.RemoteAddr) {
		http.Error(w, "renderhub is loopback-only", http.StatusForbidden)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[renderhub] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	send := make(chan []byte, 256)
	done := make(chan struct{})
	var closeOnce sync.Once
	closeFunc := func() { closeOnce.Do(func() { close(done) }) }

	go h.writer(conn, send, ticker, done)

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[renderhub] read error: %v", err)
			}
			closeFunc()
			return
		}
		h.handleMessage(message, send, done, closeFunc)
	}
}

type controlMessage struct {
	Type   string `json:"type"`
	DocID  string `json:"docId"`
	Top    int64  `json:"top"`
	Height int64  `json:"height"`
}

func (h *Handler) handleMessage(raw []byte, send chan []byte, done chan struct{}, closeFunc func()) {
	var msg controlMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		log.Printf("[renderhub] bad control message: %v", err)
		return
	}

	switch msg.Type {
	case "ping":
		pong, _ := json.Marshal(map[string]string{"type": "pong"})
		safeSend(send, pong, done)

	case "subscribe":
		go h.streamDocument(msg.DocID, send, done)

	case "setViewport":
		if msg.Height > 0 {
			h.hub.SetViewport(msg.DocID, msg.Top, msg.Height)
		}

	case "unsubscribe":
		closeFunc()
	}
}

func (h *Handler) streamDocument(docID string, send chan []byte, done chan struct{}) {
	ch, initial, cancel, ok := h.hub.Subscribe(docID)
	if !ok {
		return
	}
	defer cancel()

	if !safeSend(send, initial.SerializeToBinary(), done) {
		return
	}
	for {
		select {
		case snap, ok := <-ch:
			if !ok {
				return
			}
			if !safeSend(send, snap.SerializeToBinary(), done) {
				return
			}
		case <-done:
			return
		}
	}
}

func safeSend(send chan []byte, data []byte, done chan struct{}) bool {
	select {
	case send <- data:
		return true
	case <-done:
		return false
	}
}

func (h *Handler) writer(conn *websocket.Conn, send chan []byte, ticker *time.Ticker, done chan struct{}) {
	defer close(send)
	for {
		select {
		case message, ok := <-send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.BinaryMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
