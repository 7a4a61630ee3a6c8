// internal/domain/models/notification.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification types.
const (
	NotifyTask     = "task"
	NotifyMessage  = "message"
	NotifyReminder = "reminder"
	NotifySystem   = "system"
)

// ValidNotificationType reports whether t is a known notification type.
func ValidNotificationType(t string) bool {
	switch t {
	case NotifyTask, NotifyMessage, NotifyReminder, NotifySystem:
		return true
	}
	return false
}

// Notification is the durable record of an event for one user. The socket
// push is a best-effort nudge; this document is the source of truth.
// Read transitions one way: unread → read.
type Notification struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID primitive.ObjectID `bson:"user_id" json:"user_id"`
	Title  string             `bson:"title" json:"title"`
	Body   string             `bson:"body" json:"body"`
	Type   string             `bson:"type" json:"type"`
	Read   bool               `bson:"read" json:"read"`

	// Optional polymorphic pointer to the task or message that caused this.
	RelatedID *primitive.ObjectID `bson:"related_id,omitempty" json:"related_id,omitempty"`
	OnModel   string              `bson:"on_model,omitempty" json:"on_model,omitempty"` // "Task" | "Message"

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
