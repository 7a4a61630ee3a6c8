package realtime

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

// Client is one WebSocket connection bound to an authenticated user.
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	userID    string
	companyID string
	name      string
}

func newClient(hub *Hub, conn *websocket.Conn, userID, companyID, name string) *Client {
	return &Client{
		hub:       hub,
		conn:      conn,
		send:      make(chan []byte, sendBuffer),
		userID:    userID,
		companyID: companyID,
		name:      name,
	}
}

// Event types clients may send up: typing indicators only. Everything else
// arrives over the REST API.
const (
	inboundTyping     = "typing"
	inboundStopTyping = "stop_typing"
)

type inbound struct {
	Type        string `json:"type"`
	RecipientID string `json:"recipient_id,omitempty"`
}

// handleInbound relays a typing indicator. With a recipient it goes to that
// user's connections only (direct-message threads); without one it goes to
// the company room, excluding the sender.
func (c *Client) handleInbound(data []byte) {
	var msg inbound
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}

	var out string
	switch msg.Type {
	case inboundTyping:
		out = EventUserTyping
	case inboundStopTyping:
		out = EventUserStopTyping
	default:
		return
	}

	ev := Event{
		Type: out,
		Data: map[string]string{"user_id": c.userID, "name": c.name},
	}
	if msg.RecipientID != "" {
		c.hub.sendToUserHex(msg.RecipientID, ev)
		return
	}
	c.hub.broadcastRoom(c.companyID, ev, c.userID)
}

// readPump consumes client frames until the connection dies, relaying typing
// events to their targets.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Debug("websocket read error",
					zap.String("user_id", c.userID),
					zap.Error(err))
			}
			return
		}

		c.handleInbound(data)
	}
}

// writePump flushes queued events and keeps the connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
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
