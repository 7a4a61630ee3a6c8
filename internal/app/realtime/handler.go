package realtime

import (
	"net/http"

	"github.com/crewdesk/crewdesk/internal/app/system/auth"
	"github.com/crewdesk/crewdesk/internal/app/system/respond"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origins are enforced by the CORS layer on the REST API; the socket
	// carries a bearer token, which is the actual credential.
	CheckOrigin: func(*http.Request) bool { return true },
}

// Handler upgrades authenticated requests to WebSocket connections and hands
// them to the hub.
func Handler(gate *auth.Gate, hub *Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Browsers cannot set headers on WebSocket requests, so the gate
		// also accepts the token query parameter here.
		p, status, msg := gate.Authenticate(r)
		if status != 0 {
			respond.Err(w, status, msg)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade has already written its own error response.
			log.Debug("websocket upgrade failed", zap.Error(err))
			return
		}

		c := newClient(hub, conn, p.UserID.Hex(), p.CompanyID.Hex(), p.Name)
		hub.register(c)

		go c.writePump()
		go c.readPump()

		// Snapshot of who is already here, queued as the first event.
		hub.SendToUser(p.UserID, Event{
			Type: EventOnlineUsers,
			Data: map[string]interface{}{"user_ids": hub.OnlineUsers(p.CompanyID)},
		})
	}
}
