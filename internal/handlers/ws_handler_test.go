package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/anonto42/findit/backend/internal/ws"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

func TestWSHandler_DeliversEvents(t *testing.T) {
	t.Parallel()

	hub := ws.NewHub()
	e, g := newTestEcho()
	g.GET("/ws", NewWSHandler(hub, nil).Connect)

	srv := httptest.NewServer(e)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws"
	header := http.Header{testUserHeader: []string{"alice"}}
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	read := func() ws.Event {
		t.Helper()
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, raw, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var ev ws.Event
		if err := json.Unmarshal(raw, &ev); err != nil {
			t.Fatalf("decode %s: %v", raw, err)
		}
		return ev
	}

	if ev := read(); ev.Type != ws.EventConnected {
		t.Fatalf("first event = %q, want %q", ev.Type, ws.EventConnected)
	}

	if n := hub.SendToUser("alice", ws.Event{Type: ws.EventNotification, Data: map[string]string{"title": "hi"}}); n != 1 {
		t.Fatalf("delivered to %d connections, want 1", n)
	}
	if ev := read(); ev.Type != ws.EventNotification {
		t.Errorf("event = %q, want %q", ev.Type, ws.EventNotification)
	}
}

func TestWSHandler_RejectsAnonymous(t *testing.T) {
	t.Parallel()

	e, g := newTestEcho()
	g.GET("/ws", NewWSHandler(ws.NewHub(), nil).Connect)
	srv := httptest.NewServer(e)
	defer srv.Close()

	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/api/v1/ws", nil)
	if err == nil {
		t.Fatal("anonymous dial succeeded")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("response = %v, want 401", resp)
	}
}

func TestWSHandler_OriginCheck(t *testing.T) {
	t.Parallel()

	h := NewWSHandler(ws.NewHub(), []string{"https://findit.example"})
	tests := []struct {
		origin string
		want   bool
	}{
		{origin: "https://findit.example", want: true},
		{origin: "https://evil.example", want: false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/ws", nil)
		req.Header.Set("Origin", tt.origin)
		if got := h.upgrader.CheckOrigin(req); got != tt.want {
			t.Errorf("CheckOrigin(%q) = %v, want %v", tt.origin, got, tt.want)
		}
	}
}

func TestChatHandler_RejectsBadParams(t *testing.T) {
	t.Parallel()

	// parameter checks run before the service is touched
	e, g := newTestEcho()
	NewChatHandler(nil).RegisterChatRoutes(g)

	tests := []struct {
		name string
		path string
	}{
		{name: "non numeric room", path: "/api/v1/chats/abc/messages"},
		{name: "zero room", path: "/api/v1/chats/0/messages"},
		{name: "bad cursor", path: "/api/v1/chats/3/messages?before=yesterday"},
	}
	for _, tt := range tests {
		rec := doRequest(t, e, http.MethodGet, tt.path, "alice", nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", tt.name, rec.Code)
		}
	}
}
