// Package notifier delivers notifications: a durable MongoDB record first,
// then a best-effort socket push. Callers fire and forget; failures are
// logged, never returned into the request path.
package notifier

import (
	"context"

	"github.com/crewdesk/crewdesk/internal/app/realtime"
	notificationstore "github.com/crewdesk/crewdesk/internal/app/store/notifications"
	"github.com/crewdesk/crewdesk/internal/app/system/outbox"
	"github.com/crewdesk/crewdesk/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type Notifier struct {
	store *notificationstore.Store
	hub   *realtime.Hub
	out   *outbox.Dispatcher
	log   *zap.Logger
}

func New(store *notificationstore.Store, hub *realtime.Hub, out *outbox.Dispatcher, log *zap.Logger) *Notifier {
	return &Notifier{store: store, hub: hub, out: out, log: log}
}

// Notify queues a notification for the user. The document write is the
// source of truth; the socket event only nudges connected clients.
func (n *Notifier) Notify(userID primitive.ObjectID, title, body, kind string, related *primitive.ObjectID, onModel string) {
	if n == nil {
		return
	}
	notif := models.Notification{
		UserID:    userID,
		Title:     title,
		Body:      body,
		Type:      kind,
		RelatedID: related,
		OnModel:   onModel,
	}
	n.out.Submit("notify:"+kind, func(ctx context.Context) error {
		created, err := n.store.Create(ctx, notif)
		if err != nil {
			return err
		}
		n.hub.SendToUser(userID, realtime.Event{
			Type: realtime.EventNewNotification,
			Data: created,
		})
		return nil
	})
}

// TaskAssigned tells a user they have a new task.
func (n *Notifier) TaskAssigned(userID primitive.ObjectID, taskID primitive.ObjectID, taskTitle string) {
	n.Notify(userID, "New task assigned", "You have been assigned: "+taskTitle, models.NotifyTask, &taskID, "Task")
}

// TaskUpdated tells a user a task of theirs changed.
func (n *Notifier) TaskUpdated(userID primitive.ObjectID, taskID primitive.ObjectID, taskTitle string) {
	n.Notify(userID, "Task updated", "Task updated: "+taskTitle, models.NotifyTask, &taskID, "Task")
}

// DirectMessage tells a user someone messaged them.
func (n *Notifier) DirectMessage(userID primitive.ObjectID, msgID primitive.ObjectID, senderName string) {
	n.Notify(userID, "New message", "New message from "+senderName, models.NotifyMessage, &msgID, "Message")
}
