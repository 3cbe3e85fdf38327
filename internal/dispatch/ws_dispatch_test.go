package dispatch

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/example/ride-assistant/internal/logging"
)

func newHub(t *testing.T) (*WSRegistry, string) {
	t.Helper()
	reg := NewWSRegistry(logging.Discard())
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		if _, err := reg.Add(conn, map[string]string{"type": "hello"}); err != nil {
			t.Errorf("Add: %v", err)
		}
	}))
	t.Cleanup(srv.Close)
	return reg, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestBroadcastReachesAllSessions(t *testing.T) {
	reg, url := newHub(t)
	a := dial(t, url)
	b := dial(t, url)
	waitFor(t, func() bool { return reg.Len() == 2 })

	reg.Broadcast(map[string]string{"type": "state"})

	for _, conn := range []*websocket.Conn{a, b} {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var hello, state map[string]string
		if err := conn.ReadJSON(&hello); err != nil || hello["type"] != "hello" {
			t.Fatalf("first message = %v, %v", hello, err)
		}
		if err := conn.ReadJSON(&state); err != nil || state["type"] != "state" {
			t.Fatalf("broadcast message = %v, %v", state, err)
		}
	}
}

func TestDisconnectRemovesSession(t *testing.T) {
	reg, url := newHub(t)
	conn := dial(t, url)
	waitFor(t, func() bool { return reg.Len() == 1 })

	_ = conn.Close()
	waitFor(t, func() bool { return reg.Len() == 0 })
}

func TestSendUnknownSession(t *testing.T) {
	reg := NewWSRegistry(logging.Discard())
	if err := reg.Send("missing", struct{}{}); err != ErrNoSession {
		t.Fatalf("Send = %v, want ErrNoSession", err)
	}
}
