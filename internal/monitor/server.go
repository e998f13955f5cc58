package monitor

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/stblassitude/xpressnet/internal/logging"
	"github.com/stblassitude/xpressnet/internal/protocol"
)

const (
	// writeWait bounds how long a single WebSocket write may take.
	writeWait = 10 * time.Second

	// sendBuffer is the per-subscriber event queue. A subscriber that
	// falls this far behind is dropped rather than stalling the feed.
	sendBuffer = 32
)

// Event is one feed entry as delivered to WebSocket subscribers.
type Event struct {
	Time       time.Time `json:"time"`
	Kind       string    `json:"kind"`    // message type, e.g. "TrackStatus"
	Summary    string    `json:"summary"` // human-readable rendition
	TrackPower string    `json:"track_power"`
}

// Status is the JSON snapshot answered on /status.
type Status struct {
	TrackPower    string    `json:"track_power"`
	LastBroadcast string    `json:"last_broadcast,omitempty"`
	Subscribers   int       `json:"subscribers"`
	Since         time.Time `json:"since"`
}

// Server fans published messages out to WebSocket subscribers.
type Server struct {
	upgrader websocket.Upgrader
	started  time.Time

	mu            sync.Mutex
	subscribers   map[chan Event]struct{}
	trackPower    protocol.TrackState
	lastBroadcast string
}

// NewServer creates a monitor server with no subscribers.
func NewServer() *Server {
	return &Server{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The feed is read-only telemetry on a hobbyist LAN.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		started:     time.Now(),
		subscribers: make(map[chan Event]struct{}),
	}
}

// Publish records a message and delivers it to every subscriber.
// Subscribers whose queue is full are dropped.
func (s *Server) Publish(msg protocol.Message) {
	s.mu.Lock()
	s.lastBroadcast = msg.String()
	if status, ok := msg.(*protocol.TrackStatus); ok {
		s.trackPower = status.State
	}

	event := Event{
		Time:       time.Now(),
		Kind:       messageKind(msg),
		Summary:    msg.String(),
		TrackPower: s.trackPower.String(),
	}

	for ch := range s.subscribers {
		select {
		case ch <- event:
		default:
			delete(s.subscribers, ch)
			close(ch)
			logging.Warn("Dropping slow monitor subscriber")
		}
	}
	s.mu.Unlock()
}

// Handler returns the HTTP handler serving /status and /events.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/events", s.handleEvents)
	return mux
}

// ListenAndServe serves the monitor endpoints on addr until ctx is
// cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logging.Info("Monitor listening", zap.String("addr", addr))
	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	status := Status{
		TrackPower:    s.trackPower.String(),
		LastBroadcast: s.lastBroadcast,
		Subscribers:   len(s.subscribers),
		Since:         s.started,
	}
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(status); err != nil {
		logging.Error("Failed to encode status", zap.Error(err))
	}
}

// Subscribe registers a new event feed. The caller must drain the channel
// promptly or Publish will drop it, and must hand it back to Unsubscribe
// when done.
func (s *Server) Subscribe() chan Event {
	ch := make(chan Event, sendBuffer)
	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()
	return ch
}

// Unsubscribe removes a feed and closes its channel.
func (s *Server) Unsubscribe(ch chan Event) {
	s.mu.Lock()
	if _, ok := s.subscribers[ch]; ok {
		delete(s.subscribers, ch)
		close(ch)
	}
	s.mu.Unlock()
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn("WebSocket upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}
	logging.LogConnection(r.RemoteAddr, "monitor_subscribed")

	ch := s.Subscribe()
	defer func() {
		s.Unsubscribe(ch)
		conn.Close()
		logging.LogConnection(r.RemoteAddr, "monitor_unsubscribed")
	}()

	// Discard inbound frames so close handshakes and pings are processed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for event := range ch {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(event); err != nil {
			return
		}
	}
	// Channel closed by Publish: we were too slow, tell the client.
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "subscriber too slow"))
}

func messageKind(msg protocol.Message) string {
	switch msg.(type) {
	case *protocol.TrackStatus:
		return "TrackStatus"
	case *protocol.AccessoryState:
		return "AccessoryState"
	case *protocol.ProgrammingResult:
		return "ProgrammingResult"
	case *protocol.CommandResult:
		return "CommandResult"
	default:
		return "Message"
	}
}
