package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/talgya/mini-city/internal/city"
	"github.com/talgya/mini-city/internal/engine"
)

const maxStreamConns = 16

// Frame is one websocket message to a renderer. "init" frames carry the whole
// grid; "tick" frames carry only the rows that changed since the last frame.
type Frame struct {
	Type     string              `json:"type"`
	Calendar engine.Calendar     `json:"calendar"`
	Stats    engine.Stats        `json:"stats"`
	Report   *engine.Report      `json:"report,omitempty"`
	Size     int                 `json:"size"`
	Rows     map[int][]city.Tile `json:"rows,omitempty"`
}

// Hub fans tick frames out to websocket subscribers.
type Hub struct {
	mu       sync.Mutex
	subs     map[uint64]chan []byte
	nextID   uint64
	lastGrid *city.Grid
	conns    atomic.Int32

	upgrader websocket.Upgrader
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		subs: make(map[uint64]chan []byte),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Count returns the number of live subscribers.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Publish sends the rows changed since the previous publish to every
// subscriber. Slow subscribers miss frames rather than stall the engine.
func (h *Hub) Publish(s *engine.State, rep *engine.Report) {
	h.mu.Lock()
	defer h.mu.Unlock()

	changed := city.ChangedRows(h.lastGrid, s.Grid)
	h.lastGrid = s.Grid
	if len(h.subs) == 0 {
		return
	}

	f := Frame{Type: "tick", Calendar: s.Calendar, Stats: s.Stats, Report: rep, Size: s.GridSize}
	if len(changed) > 0 {
		f.Rows = make(map[int][]city.Tile, len(changed))
		for _, y := range changed {
			f.Rows[y] = s.Grid.Rows[y]
		}
	}
	b, err := json.Marshal(f)
	if err != nil {
		slog.Error("encode frame", "error", err)
		return
	}
	for _, ch := range h.subs {
		select {
		case ch <- b:
		default:
		}
	}
}

func (h *Hub) subscribe() (uint64, chan []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	ch := make(chan []byte, 32)
	h.subs[h.nextID] = ch
	return h.nextID, ch
}

func (h *Hub) unsubscribe(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, id)
}

// ServeWS upgrades a request to a websocket that receives an init frame with
// the whole grid, then tick frames.
func (h *Hub) ServeWS(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.conns.Add(1) > maxStreamConns {
			h.conns.Add(-1)
			http.Error(w, "too many stream connections", http.StatusServiceUnavailable)
			return
		}
		defer h.conns.Add(-1)

		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		id, ch := h.subscribe()
		defer h.unsubscribe(id)
		slog.Info("stream client connected", "sub_id", id, "client", clientIP(r))

		st := eng.State()
		rows := make(map[int][]city.Tile, st.GridSize)
		for y, row := range st.Grid.Rows {
			rows[y] = row
		}
		initFrame, err := json.Marshal(Frame{
			Type: "init", Calendar: st.Calendar, Stats: st.Stats, Size: st.GridSize, Rows: rows,
		})
		if err != nil {
			return
		}
		_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, initFrame); err != nil {
			return
		}

		// Reader: only control frames are expected; a read error means the
		// client went away.
		gone := make(chan struct{})
		go func() {
			defer close(gone)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ping := time.NewTicker(30 * time.Second)
		defer ping.Stop()
		for {
			select {
			case b := <-ch:
				_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
				if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
					return
				}
			case <-ping.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
					return
				}
			case <-gone:
				slog.Info("stream client disconnected", "sub_id", id)
				return
			case <-r.Context().Done():
				return
			}
		}
	}
}
