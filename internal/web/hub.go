package web

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/tomz197/snackdrop/internal/poll"
)

// ConnectionConfig holds configuration for poll websocket connections.
type ConnectionConfig struct {
	WriteTimeout   time.Duration
	ReadTimeout    time.Duration
	PingInterval   time.Duration
	MaxMessageSize int64
	SendBuffer     int
}

// DefaultConnectionConfig returns the default websocket configuration.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:   10 * time.Second,
		ReadTimeout:    60 * time.Second,
		PingInterval:   30 * time.Second,
		MaxMessageSize: 512,
		SendBuffer:     16,
	}
}

// pollHub fans tally updates out to websocket subscribers.
type pollHub struct {
	mu       sync.RWMutex
	conns    map[*pollConn]struct{}
	upgrader websocket.Upgrader
	config   ConnectionConfig
}

type pollConn struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	hub  *pollHub
}

func newPollHub(cfg ConnectionConfig) *pollHub {
	return &pollHub{
		conns: make(map[*pollConn]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		config: cfg,
	}
}

// Upgrade turns the request into a subscriber and sends it the current tally.
// On failure the upgrader has already replied to the request.
func (h *pollHub) Upgrade(w http.ResponseWriter, r *http.Request, current poll.Tally) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("failed to upgrade poll websocket")
		return
	}
	pc := &pollConn{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, h.config.SendBuffer),
		hub:  h,
	}
	if data, err := json.Marshal(current); err == nil {
		pc.send <- data
	}

	h.mu.Lock()
	h.conns[pc] = struct{}{}
	total := len(h.conns)
	h.mu.Unlock()

	go pc.writePump()
	go pc.readPump()

	log.Debug().Str("connection_id", pc.id).Int("connections", total).Msg("poll websocket connected")
}

// Broadcast sends t to every subscriber. Slow subscribers are dropped.
// Sends happen under the read lock so remove cannot close a channel mid-send.
func (h *pollHub) Broadcast(t poll.Tally) {
	data, err := json.Marshal(t)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal tally")
		return
	}

	var slow []*pollConn
	h.mu.RLock()
	for pc := range h.conns {
		select {
		case pc.send <- data:
		default:
			slow = append(slow, pc)
		}
	}
	h.mu.RUnlock()

	for _, pc := range slow {
		log.Warn().Str("connection_id", pc.id).Msg("poll websocket send buffer full, closing")
		h.remove(pc)
	}
}

// Count returns the number of subscribers.
func (h *pollHub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// CloseAll disconnects every subscriber.
func (h *pollHub) CloseAll() {
	h.mu.RLock()
	targets := make([]*pollConn, 0, len(h.conns))
	for pc := range h.conns {
		targets = append(targets, pc)
	}
	h.mu.RUnlock()
	for _, pc := range targets {
		h.remove(pc)
	}
}

// remove unregisters pc once and closes send, which ends its write pump.
// It takes the write lock, so it never overlaps a Broadcast send.
func (h *pollHub) remove(pc *pollConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[pc]; !ok {
		return
	}
	delete(h.conns, pc)
	close(pc.send)
}

func (pc *pollConn) writePump() {
	cfg := pc.hub.config
	ticker := time.NewTicker(cfg.PingInterval)
	defer func() {
		ticker.Stop()
		pc.conn.Close()
		pc.hub.remove(pc)
	}()

	for {
		select {
		case message, ok := <-pc.send:
			pc.conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			if !ok {
				pc.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := pc.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Debug().Err(err).Str("connection_id", pc.id).Msg("poll websocket write failed")
				return
			}
		case <-ticker.C:
			pc.conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			if err := pc.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards client messages and notices when the peer goes away.
func (pc *pollConn) readPump() {
	cfg := pc.hub.config
	defer func() {
		pc.hub.remove(pc)
		pc.conn.Close()
	}()

	pc.conn.SetReadLimit(cfg.MaxMessageSize)
	pc.conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
	pc.conn.SetPongHandler(func(string) error {
		pc.conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
		return nil
	})

	for {
		if _, _, err := pc.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Debug().Err(err).Str("connection_id", pc.id).Msg("poll websocket closed unexpectedly")
			}
			return
		}
	}
}
