package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/ride-assistant/internal/apperr"
	"github.com/example/ride-assistant/internal/assistant"
	"github.com/example/ride-assistant/internal/dispatch"
	"github.com/example/ride-assistant/internal/logging"
	"github.com/example/ride-assistant/internal/mapview"
	"github.com/example/ride-assistant/internal/models"
	"github.com/example/ride-assistant/internal/ride"
	"github.com/example/ride-assistant/internal/suggest"
)

const maxBodyBytes = 16 << 10

// Executor runs fn on the client loop and waits for it.
type Executor interface {
	Do(ctx context.Context, fn func()) error
}

// HealthChecker reports backend health.
type HealthChecker interface {
	Health(ctx context.Context) (string, error)
}

// Server is the web host of the client: a browser drives the fields and
// submissions, and receives state over a websocket.
type Server struct {
	client *assistant.Assistant
	loop   Executor
	hub    *dispatch.WSRegistry
	health HealthChecker
	logger *slog.Logger
	mux    *mux.Router
}

// NewServer wires the routes and subscribes the hub to client state. It must
// be called before the loop starts running.
func NewServer(client *assistant.Assistant, loop Executor, hub *dispatch.WSRegistry, health HealthChecker, logger *slog.Logger) *Server {
	s := &Server{
		client: client,
		loop:   loop,
		hub:    hub,
		health: health,
		logger: logging.Component(logger, "http"),
		mux:    mux.NewRouter(),
	}
	client.OnChange(func(st assistant.State) { hub.Broadcast(stateEvent(st)) })
	s.registerMiddleware()
	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.mux.PathPrefix("/api").Subrouter()
	api.HandleFunc("/fields/{field}/text", s.handleText).Methods(http.MethodPost)
	api.HandleFunc("/fields/{field}/select", s.handleSelect).Methods(http.MethodPost)
	api.HandleFunc("/fields/{field}/focus", s.handleFocus).Methods(http.MethodPost)
	api.HandleFunc("/rides", s.handleRideRequest).Methods(http.MethodPost)
	api.HandleFunc("/state", s.handleState).Methods(http.MethodGet)

	s.mux.HandleFunc("/map", s.handleMap).Methods(http.MethodGet)
	s.mux.HandleFunc("/ws", s.handleWS)
	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	s.mux.HandleFunc("/ready", s.handleReady).Methods(http.MethodGet)
	s.mux.Handle("/metrics", promhttp.Handler())
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

// Event is the envelope pushed to websocket sessions.
type Event struct {
	Type    string           `json:"type"`
	State   *assistant.State `json:"state,omitempty"`
	Kind    string           `json:"kind,omitempty"`
	Message string           `json:"message,omitempty"`
}

func stateEvent(st assistant.State) Event { return Event{Type: "state", State: &st} }

// NewAlertSink pushes user-visible errors to every connected session.
func NewAlertSink(hub *dispatch.WSRegistry) ride.AlertSink {
	return ride.AlertFunc(func(err error) {
		hub.Broadcast(Event{Type: "alert", Kind: apperr.GetKind(err).String(), Message: apperr.UserMessage(err)})
	})
}

type textRequest struct {
	Text string `json:"text"`
}

func (s *Server) fieldController(w http.ResponseWriter, r *http.Request) *suggest.Controller {
	f := models.Field(mux.Vars(r)["field"])
	c := s.client.Field(f)
	if c == nil {
		writeError(w, http.StatusNotFound, "unknown field "+string(f))
	}
	return c
}

func decodeText(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req textRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return "", false
	}
	return req.Text, true
}

func (s *Server) handleText(w http.ResponseWriter, r *http.Request) {
	c := s.fieldController(w, r)
	if c == nil {
		return
	}
	text, ok := decodeText(w, r)
	if !ok {
		return
	}
	if !s.onLoop(w, r, func() { c.OnTextChanged(text) }) {
		return
	}
	writeJSON(w, http.StatusAccepted, c.Snapshot())
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	c := s.fieldController(w, r)
	if c == nil {
		return
	}
	text, ok := decodeText(w, r)
	if !ok {
		return
	}
	if !s.onLoop(w, r, func() { c.SelectSuggestion(text) }) {
		return
	}
	writeJSON(w, http.StatusOK, c.Snapshot())
}

func (s *Server) handleFocus(w http.ResponseWriter, r *http.Request) {
	c := s.fieldController(w, r)
	if c == nil {
		return
	}
	if !s.onLoop(w, r, c.Focus) {
		return
	}
	writeJSON(w, http.StatusOK, c.Snapshot())
}

func (s *Server) handleRideRequest(w http.ResponseWriter, r *http.Request) {
	var err error
	if !s.onLoop(w, r, func() { err = s.client.Submit() }) {
		return
	}
	if err != nil {
		if apperr.Is(err, apperr.KindValidation) {
			writeError(w, http.StatusUnprocessableEntity, apperr.UserMessage(err))
			return
		}
		writeError(w, http.StatusInternalServerError, apperr.UserMessage(err))
		return
	}
	writeJSON(w, http.StatusAccepted, s.client.Rides().Snapshot())
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.client.State())
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	st := s.client.State()
	page := mapview.Page{Title: "Route"}
	if st.Map != nil {
		page.View = *st.Map
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := mapview.WritePage(w, page); err != nil {
		s.logger.Error("map page render failed", "error", err)
	}
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()
	status, err := s.health.Health(ctx)
	if err != nil {
		s.logger.Warn("backend not ready", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready", "backend": status})
}

var upgrader = websocket.Upgrader{}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("ws upgrade failed", "error", err)
		return
	}
	session, err := s.hub.Add(conn, stateEvent(s.client.State()))
	if err != nil {
		s.logger.Error("ws register failed", "error", err)
		_ = conn.Close()
		return
	}
	s.logger.Info("ws session connected", "session_id", session.ID, "request_id", requestIDFromContext(r.Context()))
}

// onLoop runs fn on the client loop, writing an error response on failure.
func (s *Server) onLoop(w http.ResponseWriter, r *http.Request, fn func()) bool {
	if err := s.loop.Do(r.Context(), fn); err != nil {
		status := http.StatusServiceUnavailable
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		writeError(w, status, "client loop unavailable")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
