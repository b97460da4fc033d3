// Package monitor tees pushed frames to websocket clients so a strip can be
// watched remotely, and streams mode-change diagnostics.
package monitor

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	diag "github.com/coreman2200/npdrv/internal/diagnostics"
	"github.com/coreman2200/npdrv/internal/frame"
	"github.com/coreman2200/npdrv/internal/led"
)

const (
	writeWait  = 200 * time.Millisecond
	sendBuffer = 16
)

// client is one websocket watcher. Only its writer goroutine touches conn
// for writes; messages that do not fit in send are dropped.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Monitor wraps a driver. Every frame pushed through it goes to the inner
// driver first, then to connected /ws clients. Fan-out never blocks on a
// client.
type Monitor struct {
	inner led.Driver
	log   zerolog.Logger

	mu          sync.RWMutex
	frameID     uint64
	mode        string
	startTime   time.Time
	clients     map[*client]bool
	diagClients map[*client]bool
	upgrader    websocket.Upgrader

	dropped atomic.Uint64
}

func New(inner led.Driver, logger zerolog.Logger) *Monitor {
	return &Monitor{
		inner:       inner,
		log:         logger.With().Str("component", "monitor").Logger(),
		mode:        "idle",
		startTime:   time.Now(),
		clients:     map[*client]bool{},
		diagClients: map[*client]bool{},
		upgrader:    websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
}

type framePayload struct {
	T       int64    `json:"t"`
	FrameID uint64   `json:"frame_id"`
	GRB     []uint32 `json:"grb"`
}

func (m *Monitor) PushFrame(f frame.Frame) error {
	if err := m.inner.PushFrame(f); err != nil {
		m.pushDiag(diag.PushFailed(err))
		return err
	}
	m.mu.Lock()
	m.frameID++
	id := m.frameID
	m.mu.Unlock()

	p := framePayload{T: time.Now().UnixNano(), FrameID: id, GRB: make([]uint32, len(f))}
	for i, px := range f {
		p.GRB[i] = uint32(px)
	}
	b, _ := json.Marshal(p)
	m.broadcast(m.clients, b)
	return nil
}

func (m *Monitor) Close() error { return m.inner.Close() }

// ObserveTransition records a mode change and forwards it to /diag clients.
func (m *Monitor) ObserveTransition(from, to string) {
	m.mu.Lock()
	m.mode = to
	m.mu.Unlock()
	m.pushDiag(diag.ModeChange(from, to))
}

// Handler serves /ws (frames), /diag (diagnostics) and /health.
func (m *Monitor) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", m.HandleFramesWS)
	mux.HandleFunc("/diag", m.HandleDiagWS)
	mux.HandleFunc("/health", m.HandleHealth)
	return mux
}

func (m *Monitor) HandleFramesWS(w http.ResponseWriter, r *http.Request) {
	m.serveWS(w, r, m.clients)
}

func (m *Monitor) HandleDiagWS(w http.ResponseWriter, r *http.Request) {
	m.serveWS(w, r, m.diagClients)
}

func (m *Monitor) serveWS(w http.ResponseWriter, r *http.Request, set map[*client]bool) {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		m.log.Debug().Err(err).Msg("upgrade")
		return
	}
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	m.mu.Lock()
	set[c] = true
	m.mu.Unlock()

	go m.writePump(c)
	go m.readPump(c, set)
}

// readPump drains the peer until it goes away, then unregisters c. send is
// closed under the write lock so no broadcast can race with it.
func (m *Monitor) readPump(c *client, set map[*client]bool) {
	defer func() {
		m.mu.Lock()
		delete(set, c)
		close(c.send)
		m.mu.Unlock()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (m *Monitor) writePump(c *client) {
	defer c.conn.Close()
	for b := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
			m.log.Debug().Err(err).Msg("write")
			return
		}
	}
}

func (m *Monitor) HandleHealth(w http.ResponseWriter, r *http.Request) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	resp := map[string]any{
		"frame_id": m.frameID,
		"uptime_s": time.Since(m.startTime).Seconds(),
		"count":    frame.Size,
		"mode":     m.mode,
		"clients":  len(m.clients),
		"dropped":  m.dropped.Load(),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// Clients is the number of connected frame watchers.
func (m *Monitor) Clients() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

// DiagClients is the number of connected diagnostics watchers.
func (m *Monitor) DiagClients() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.diagClients)
}

func (m *Monitor) pushDiag(d diag.Diagnostic) {
	b, _ := json.Marshal(d)
	m.broadcast(m.diagClients, b)
}

// broadcast queues b for every client in set, dropping it for clients
// whose buffer is full.
func (m *Monitor) broadcast(set map[*client]bool, b []byte) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for c := range set {
		select {
		case c.send <- b:
		default:
			m.dropped.Add(1)
		}
	}
}

// Dropped is the number of messages not delivered to slow clients.
func (m *Monitor) Dropped() uint64 { return m.dropped.Load() }
