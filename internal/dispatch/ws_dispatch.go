package dispatch

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/example/ride-assistant/internal/logging"
	"github.com/example/ride-assistant/internal/observability"
)

const (
	sendBuffer = 16
	writeWait  = 5 * time.Second
)

var ErrNoSession = errors.New("no ws session")

// WSSession is one connected browser.
type WSSession struct {
	ID   string
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (s *WSSession) close() {
	s.once.Do(func() {
		close(s.send)
	})
}

func (s *WSSession) writeLoop(onDone func()) {
	defer onDone()
	for msg := range s.send {
		_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			break
		}
	}
	_ = s.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
	_ = s.conn.Close()
}

// WSRegistry fans state snapshots out to connected sessions. Broadcast never
// blocks; a session whose buffer is full is disconnected.
type WSRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*WSSession
	logger   *slog.Logger
}

func NewWSRegistry(logger *slog.Logger) *WSRegistry {
	return &WSRegistry{sessions: make(map[string]*WSSession), logger: logging.Component(logger, "dispatch")}
}

// Add registers conn and starts its writer. initial, when non-nil, is the
// first message the session receives.
func (r *WSRegistry) Add(conn *websocket.Conn, initial any) (*WSSession, error) {
	s := &WSSession{ID: uuid.NewString(), conn: conn, send: make(chan []byte, sendBuffer)}
	if initial != nil {
		b, err := json.Marshal(initial)
		if err != nil {
			return nil, err
		}
		s.send <- b
	}
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	observability.WSSessions.Inc()

	go s.writeLoop(func() { r.Remove(s.ID) })
	go r.readLoop(s)
	return s, nil
}

// readLoop discards client frames and notices disconnects.
func (r *WSRegistry) readLoop(s *WSSession) {
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			r.Remove(s.ID)
			return
		}
	}
}

func (r *WSRegistry) Remove(id string) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	r.mu.Unlock()
	if ok {
		observability.WSSessions.Dec()
		s.close()
	}
}

func (r *WSRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Broadcast sends v as JSON to every session.
func (r *WSRegistry) Broadcast(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		r.logger.Error("ws encode error", "error", err)
		return
	}
	var slow []string
	r.mu.RLock()
	for id, s := range r.sessions {
		select {
		case s.send <- b:
		default:
			slow = append(slow, id)
		}
	}
	r.mu.RUnlock()
	for _, id := range slow {
		r.logger.Warn("ws session too slow, disconnecting", "session_id", id)
		r.Remove(id)
	}
}

// Send delivers v to a single session.
func (r *WSRegistry) Send(id string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	r.mu.RLock()
	s, ok := r.sessions[id]
	sent := false
	if ok {
		select {
		case s.send <- b:
			sent = true
		default:
		}
	}
	r.mu.RUnlock()
	if !ok {
		return ErrNoSession
	}
	if !sent {
		r.Remove(id)
		return ErrNoSession
	}
	return nil
}
