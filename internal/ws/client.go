package ws

import (
	"sync"
	"time"

	"storefront/internal/structs"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 25 * time.Second
	maxMsgSize = 16 * 1024
	sendQueue  = 64
)

type Client struct {
	sessionID string
	conn      *websocket.Conn
	hub       *Hub
	send      chan []byte

	mu     sync.Mutex
	closed bool
}

func NewClient(sessionID string, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		sessionID: sessionID,
		conn:      conn,
		hub:       hub,
		send:      make(chan []byte, sendQueue),
	}
}

// Send queues a single event for this client only.
func (c *Client) Send(evt structs.Event) {
	b, err := encode(evt)
	if err != nil {
		return
	}
	c.SendRaw(b)
}

// SendRaw never blocks; a client that cannot keep up is disconnected.
func (c *Client) SendRaw(b []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	select {
	case c.send <- b:
	default:
		c.closed = true
		close(c.send)
	}
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c.sessionID, c)
		c.Close()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMsgSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// inbound messages are ignored; reading keeps pongs flowing
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Run blocks until the connection drops.
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}
