// Package realtime fans events out to connected WebSocket clients. Delivery
// is best-effort: a slow or absent client misses events, and the durable
// state (notifications, messages) remains in MongoDB.
package realtime

import (
	"encoding/json"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Event types pushed to clients.
const (
	EventUserOnline      = "user_online"
	EventUserOffline     = "user_offline"
	EventOnlineUsers     = "online_users"
	EventUserTyping      = "user_typing"
	EventUserStopTyping  = "user_stop_typing"
	EventNewNotification = "new_notification"
	EventTaskUpdated     = "task_updated"
	EventNewMessage      = "new_message"
)

// Event is the wire format for pushed events.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// Presence answers who is currently connected. Backed by this process's hub;
// with several instances each answers for its own connections.
type Presence interface {
	IsOnline(userID primitive.ObjectID) bool
	OnlineUsers(companyID primitive.ObjectID) []string
}

// Hub tracks connections per user and groups users into company rooms.
// A user may hold several connections (tabs); presence transitions fire on
// the first and last.
type Hub struct {
	mu     sync.RWMutex
	byUser map[string]map[*Client]struct{}
	byRoom map[string]map[string]struct{} // companyID hex -> set of userID hex
	log    *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		byUser: make(map[string]map[*Client]struct{}),
		byRoom: make(map[string]map[string]struct{}),
		log:    log,
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	first := false
	conns, ok := h.byUser[c.userID]
	if !ok {
		conns = make(map[*Client]struct{})
		h.byUser[c.userID] = conns
		first = true
	}
	conns[c] = struct{}{}

	room, ok := h.byRoom[c.companyID]
	if !ok {
		room = make(map[string]struct{})
		h.byRoom[c.companyID] = room
	}
	room[c.userID] = struct{}{}
	h.mu.Unlock()

	if first {
		h.broadcastRoom(c.companyID, Event{
			Type: EventUserOnline,
			Data: map[string]string{"user_id": c.userID, "name": c.name},
		}, c.userID)
	}
	h.log.Debug("client connected",
		zap.String("user_id", c.userID),
		zap.Bool("first_connection", first))
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	last := false
	if conns, ok := h.byUser[c.userID]; ok {
		if _, present := conns[c]; present {
			delete(conns, c)
			close(c.send)
		}
		if len(conns) == 0 {
			delete(h.byUser, c.userID)
			last = true
			if room, ok := h.byRoom[c.companyID]; ok {
				delete(room, c.userID)
				if len(room) == 0 {
					delete(h.byRoom, c.companyID)
				}
			}
		}
	}
	h.mu.Unlock()

	if last {
		h.broadcastRoom(c.companyID, Event{
			Type: EventUserOffline,
			Data: map[string]string{"user_id": c.userID, "name": c.name},
		}, c.userID)
	}
	h.log.Debug("client disconnected",
		zap.String("user_id", c.userID),
		zap.Bool("last_connection", last))
}

// SendToUser pushes an event to every connection the user holds. Returns
// whether any connection received it.
func (h *Hub) SendToUser(userID primitive.ObjectID, ev Event) bool {
	return h.sendToUserHex(userID.Hex(), ev)
}

func (h *Hub) sendToUserHex(userID string, ev Event) bool {
	payload, err := json.Marshal(ev)
	if err != nil {
		h.log.Error("marshaling event", zap.String("type", ev.Type), zap.Error(err))
		return false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	conns, ok := h.byUser[userID]
	if !ok {
		return false
	}
	delivered := false
	for c := range conns {
		select {
		case c.send <- payload:
			delivered = true
		default:
			// Slow client; the event is dropped for this connection.
		}
	}
	return delivered
}

// BroadcastToCompany pushes an event to every online member of the company,
// excluding the given user IDs (hex).
func (h *Hub) BroadcastToCompany(companyID primitive.ObjectID, ev Event, exclude ...string) {
	h.broadcastRoom(companyID.Hex(), ev, exclude...)
}

func (h *Hub) broadcastRoom(companyID string, ev Event, exclude ...string) {
	payload, err := json.Marshal(ev)
	if err != nil {
		h.log.Error("marshaling event", zap.String("type", ev.Type), zap.Error(err))
		return
	}
	skip := make(map[string]bool, len(exclude))
	for _, id := range exclude {
		skip[id] = true
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	room, ok := h.byRoom[companyID]
	if !ok {
		return
	}
	for userID := range room {
		if skip[userID] {
			continue
		}
		for c := range h.byUser[userID] {
			select {
			case c.send <- payload:
			default:
			}
		}
	}
}

// IsOnline reports whether the user has at least one live connection.
func (h *Hub) IsOnline(userID primitive.ObjectID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.byUser[userID.Hex()]
	return ok
}

// OnlineUsers returns the hex IDs of the company's connected users.
func (h *Hub) OnlineUsers(companyID primitive.ObjectID) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	room, ok := h.byRoom[companyID.Hex()]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(room))
	for id := range room {
		out = append(out, id)
	}
	return out
}
