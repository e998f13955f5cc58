package monitor

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/stblassitude/xpressnet/internal/protocol"
)

func TestStatusEndpoint(t *testing.T) {
	server := NewServer()
	server.Publish(&protocol.TrackStatus{State: protocol.TrackOn})

	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/status")
	if err != nil {
		t.Fatalf("GET /status error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", got)
	}

	var status Status
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("decoding status: %v", err)
	}
	if status.TrackPower != "on" {
		t.Errorf("TrackPower = %q, want on", status.TrackPower)
	}
	if status.LastBroadcast == "" {
		t.Error("LastBroadcast is empty after a publish")
	}
	if status.Subscribers != 0 {
		t.Errorf("Subscribers = %d, want 0", status.Subscribers)
	}
}

func TestEventsFeed(t *testing.T) {
	server := NewServer()
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial error = %v", err)
	}
	defer conn.Close()

	// The subscription is registered during the upgrade; the publish below
	// must land in the subscriber's queue.
	waitForSubscribers(t, server, 1)
	server.Publish(&protocol.TrackStatus{State: protocol.TrackOff})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event Event
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("reading event: %v", err)
	}

	if event.Kind != "TrackStatus" {
		t.Errorf("event.Kind = %q, want TrackStatus", event.Kind)
	}
	if event.TrackPower != "off" {
		t.Errorf("event.TrackPower = %q, want off", event.TrackPower)
	}
	if !strings.Contains(event.Summary, "off") {
		t.Errorf("event.Summary = %q, should mention the power state", event.Summary)
	}
}

func TestSlowSubscriberIsDropped(t *testing.T) {
	server := NewServer()

	// Subscribe directly and never drain the channel.
	ch := server.Subscribe()

	for i := 0; i < sendBuffer+1; i++ {
		server.Publish(&protocol.TrackStatus{State: protocol.TrackOn})
	}

	server.mu.Lock()
	remaining := len(server.subscribers)
	server.mu.Unlock()
	if remaining != 0 {
		t.Fatalf("%d subscribers left, want 0 after overflow", remaining)
	}

	// The channel must be closed so the writer goroutine unblocks.
	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("subscriber channel never closed")
		}
	}
}

func TestPublishTracksPowerState(t *testing.T) {
	server := NewServer()

	server.Publish(&protocol.TrackStatus{State: protocol.TrackProgramming})
	server.Publish(&protocol.AccessoryState{Address: 5})

	server.mu.Lock()
	power := server.trackPower
	server.mu.Unlock()

	// Non-status messages must not disturb the cached power state.
	if power != protocol.TrackProgramming {
		t.Errorf("trackPower = %s, want programming", power)
	}
}

func waitForSubscribers(t *testing.T, server *Server, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		server.mu.Lock()
		count := len(server.subscribers)
		server.mu.Unlock()
		if count >= n {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("never saw %d subscribers", n)
}
