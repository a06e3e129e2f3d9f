package ws

import (
	"encoding/json"
	"sync"
	"time"

	"storefront/internal/structs"

	"go.uber.org/fx"
)

var Module = fx.Provide(NewHub)

// Hub fans checkout events out to every websocket watching a session, so a
// second device (the one that scanned the payment QR, say) sees the result.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]map[*Client]struct{} // session id -> set(client)
}

func NewHub() *Hub {
	return &Hub{
		sessions: make(map[string]map[*Client]struct{}),
	}
}

func (h *Hub) Register(sessionID string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.sessions[sessionID]
	if !ok {
		set = make(map[*Client]struct{})
		h.sessions[sessionID] = set
	}
	set[c] = struct{}{}
}

func (h *Hub) Unregister(sessionID string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.sessions[sessionID]
	if !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.sessions, sessionID)
	}
}

func (h *Hub) Watchers(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[sessionID])
}

func (h *Hub) Publish(evt structs.Event) {
	clients := h.clients(evt.SessionID)
	if len(clients) == 0 {
		return
	}

	b, err := encode(evt)
	if err != nil {
		return
	}
	for _, c := range clients {
		c.SendRaw(b)
	}
}

// CloseSession tells the watchers the session is gone and disconnects them.
func (h *Hub) CloseSession(sessionID string) {
	h.Publish(structs.Event{Type: structs.EventCheckoutClosed, SessionID: sessionID})

	h.mu.Lock()
	set := h.sessions[sessionID]
	delete(h.sessions, sessionID)
	h.mu.Unlock()

	for c := range set {
		c.Close()
	}
}

func (h *Hub) clients(sessionID string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	set := h.sessions[sessionID]
	clients := make([]*Client, 0, len(set))
	for c := range set {
		clients = append(clients, c)
	}
	return clients
}

func encode(evt structs.Event) ([]byte, error) {
	evt.TS = time.Now().UTC()
	return json.Marshal(evt)
}
