package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"chromastudio/internal/calc"
)

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWS(hub, w, r)
	}))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.Clients() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, have %d", n, hub.Clients())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read websocket message: %v", err)
	}
	var evt Event
	if err := json.Unmarshal(data, &evt); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	return evt
}

func TestCalcEventsReachSubscribers(t *testing.T) {
	t.Parallel()

	hub, srv := startHub(t)
	all := dial(t, srv, "")
	filtered := dial(t, srv, "?code=C-002")
	waitForClients(t, hub, 2)

	store := calc.NewStore(nil)
	store.OnChange(hub.CalcListener())
	store.State("C-001", "钛白 5g 群青 3滴")
	store.ApplyScale("C-001", 0, "10")
	store.State("C-002", "黑 1g")
	store.ApplyScale("C-002", 0, "4")

	first := readEvent(t, all)
	if first.Type != "calc.scaled" || first.Code != "C-001" || first.CreatedAt == 0 {
		t.Fatalf("unexpected first event: %+v", first)
	}
	second := readEvent(t, all)
	if second.Code != "C-002" {
		t.Fatalf("unexpected second event: %+v", second)
	}

	only := readEvent(t, filtered)
	if only.Code != "C-002" {
		t.Fatalf("filtered client received %+v", only)
	}
}

func TestClientDisconnectUnregisters(t *testing.T) {
	t.Parallel()

	hub, srv := startHub(t)
	conn := dial(t, srv, "")
	waitForClients(t, hub, 1)

	_ = conn.Close()
	waitForClients(t, hub, 0)
}

func TestBroadcastAfterStopDoesNotBlock(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			hub.BroadcastEvent(Event{Type: "calc.cleared"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("BroadcastEvent blocked after hub stopped")
	}
}
