package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
)

func dialNotifications(t *testing.T, s *Server, ts *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	before := s.Hub().ClientCount()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?token=" + url.QueryEscape(token)
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.CloseNow() })

	// Registration happens after the handshake completes server side.
	deadline := time.Now().Add(2 * time.Second)
	for s.Hub().ClientCount() == before {
		if time.Now().After(deadline) {
			t.Fatal("client never registered with the hub")
		}
		time.Sleep(10 * time.Millisecond)
	}
	return conn
}

func TestWebSocketRequiresAuth(t *testing.T) {
	_, h := newTestServer(t, Options{})
	ts := httptest.NewServer(h)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, resp, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err == nil {
		t.Fatal("expected dial without token to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("response = %+v, want 401", resp)
	}
}

func TestWebSocketReceivesOwnChanges(t *testing.T) {
	s, h := newTestServer(t, Options{})
	ts := httptest.NewServer(h)
	defer ts.Close()

	u := register(t, h, "u@example.com")
	conn := dialNotifications(t, s, ts, u)

	rec := do(t, h, "POST", "/todo-lists/", u, map[string]any{"description": "water plants"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d", rec.Code)
	}
	created := decodeBody[todoBody](t, rec)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg struct {
		Type   string `json:"type"`
		Entity string `json:"entity"`
		Action string `json:"action"`
		ID     int64  `json:"id"`
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode message %q: %v", data, err)
	}
	if msg.Type != "todo_created" || msg.ID != created.ID {
		t.Errorf("message = %+v, want todo_created for %d", msg, created.ID)
	}
}

func TestWebSocketClosedWhenAccountDeleted(t *testing.T) {
	s, h := newTestServer(t, Options{})
	ts := httptest.NewServer(h)
	defer ts.Close()

	u := register(t, h, "u@example.com")
	me := decodeBody[userBody](t, do(t, h, "GET", "/auth/user/", u, nil))
	conn := dialNotifications(t, s, ts, u)

	if _, err := s.AuthService().CreateAccount(context.Background(), "admin@example.com", "adminpass1", true); err != nil {
		t.Fatal(err)
	}
	rec := do(t, h, "POST", "/auth/login/", "", map[string]string{"email": "admin@example.com", "password": "adminpass1"})
	admin := decodeBody[map[string]string](t, rec)["key"]

	rec = do(t, h, "DELETE", "/users/"+itoa(me.ID)+"/", admin, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: status = %d", rec.Code)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, _, err := conn.Read(ctx)
	var ce websocket.CloseError
	if !errors.As(err, &ce) || ce.Code != websocket.StatusGoingAway {
		t.Errorf("read err = %v, want close with StatusGoingAway", err)
	}
}
