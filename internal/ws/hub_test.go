package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"storefront/internal/structs"

	"github.com/gorilla/websocket"
)

func receive(t *testing.T, c *Client) structs.Event {
	t.Helper()
	select {
	case b, ok := <-c.send:
		if !ok {
			t.Fatal("client queue closed")
		}
		var evt structs.Event
		if err := json.Unmarshal(b, &evt); err != nil {
			t.Fatal(err)
		}
		return evt
	case <-time.After(time.Second):
		t.Fatal("no event")
	}
	return structs.Event{}
}

func TestHub_PublishReachesOnlySessionWatchers(t *testing.T) {
	h := NewHub()
	a, b := NewClient("s1", nil, h), NewClient("s2", nil, h)
	h.Register("s1", a)
	h.Register("s2", b)

	h.Publish(structs.Event{Type: structs.EventCheckoutUpdated, SessionID: "s1", Payload: map[string]string{"step": "placed"}})

	evt := receive(t, a)
	if evt.Type != structs.EventCheckoutUpdated || evt.SessionID != "s1" || evt.TS.IsZero() {
		t.Fatalf("unexpected event %+v", evt)
	}
	if len(b.send) != 0 {
		t.Fatal("watcher of another session got the event")
	}
}

func TestHub_UnregisterDropsEmptySessions(t *testing.T) {
	h := NewHub()
	c := NewClient("s1", nil, h)
	h.Register("s1", c)
	if h.Watchers("s1") != 1 {
		t.Fatal("expected one watcher")
	}

	h.Unregister("s1", c)
	h.Unregister("s1", c)
	if h.Watchers("s1") != 0 || len(h.sessions) != 0 {
		t.Fatalf("session set not cleaned: %v", h.sessions)
	}
}

func TestHub_CloseSession(t *testing.T) {
	h := NewHub()
	c := NewClient("s1", nil, h)
	h.Register("s1", c)

	h.CloseSession("s1")

	if evt := receive(t, c); evt.Type != structs.EventCheckoutClosed {
		t.Fatalf("expected closed event, got %+v", evt)
	}
	if _, ok := <-c.send; ok {
		t.Fatal("queue must be closed after the closed event")
	}
	if h.Watchers("s1") != 0 {
		t.Fatal("closed session still has watchers")
	}

	// late publishes are dropped instead of panicking on the closed queue
	c.SendRaw([]byte("late"))
}

func TestClient_SlowConsumerIsDisconnected(t *testing.T) {
	c := NewClient("s1", nil, NewHub())
	for i := 0; i < sendQueue+1; i++ {
		c.SendRaw([]byte("x"))
	}

	drained := 0
	for range c.send {
		drained++
	}
	if drained != sendQueue {
		t.Fatalf("drained %d messages, want %d", drained, sendQueue)
	}
}

func TestClient_OverWebsocket(t *testing.T) {
	h := NewHub()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		c := NewClient("s1", conn, h)
		h.Register("s1", c)
		c.Send(structs.Event{Type: structs.EventCheckoutSnapshot, SessionID: "s1"})
		c.Run()
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var evt structs.Event
	if err := conn.ReadJSON(&evt); err != nil || evt.Type != structs.EventCheckoutSnapshot {
		t.Fatalf("snapshot: %+v, %v", evt, err)
	}

	h.Publish(structs.Event{Type: structs.EventCheckoutUpdated, SessionID: "s1"})
	if err := conn.ReadJSON(&evt); err != nil || evt.Type != structs.EventCheckoutUpdated {
		t.Fatalf("update: %+v, %v", evt, err)
	}

	h.CloseSession("s1")
	if err := conn.ReadJSON(&evt); err != nil || evt.Type != structs.EventCheckoutClosed {
		t.Fatalf("closed: %+v, %v", evt, err)
	}
	if _, _, err := conn.ReadMessage(); !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Fatalf("expected a normal close, got %v", err)
	}
}
