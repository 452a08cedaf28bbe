package websocket

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"trafficcounter/internal/logger"
)

func TestBroadcast_DropsWhenFull(t *testing.T) {
	hub := NewHubService(logger.NewWithWriter(io.Discard))

	for i := 0; i < broadcastBuffer; i++ {
		if !hub.Broadcast([]byte("frame")) {
			t.Fatalf("Broadcast %d should be queued", i)
		}
	}
	if hub.Broadcast([]byte("frame")) {
		t.Error("Broadcast should drop when the buffer is full")
	}
}

func TestHub_DeliversToViewer(t *testing.T) {
	hub := NewHubService(logger.NewWithWriter(io.Discard))
	go hub.Run()
	defer hub.Stop()

	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Register(conn)
	}))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer client.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.GetClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("Viewer was not registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	hub.Broadcast([]byte(`{"vehicles":3}`))

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := client.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage failed: %v", err)
	}
	if string(msg) != `{"vehicles":3}` {
		t.Errorf("Unexpected message %s", msg)
	}
}

func TestHub_StopIsIdempotent(t *testing.T) {
	hub := NewHubService(logger.NewWithWriter(io.Discard))
	done := make(chan struct{})
	go func() {
		hub.Run()
		close(done)
	}()

	hub.Stop()
	hub.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Stop")
	}
}
