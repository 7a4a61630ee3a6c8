// internal/domain/models/activitylog.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ActivityLog is an append-only audit record. Write-once, queried only for
// admin activity views.
type ActivityLog struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	Action    string             `bson:"action" json:"action"` // e.g. "logged in", "task created"
	Details   string             `bson:"details,omitempty" json:"details,omitempty"`
	IPAddress string             `bson:"ip_address,omitempty" json:"ip_address,omitempty"`
	UserAgent string             `bson:"user_agent,omitempty" json:"user_agent,omitempty"`
	CompanyID primitive.ObjectID `bson:"company_id" json:"company_id"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
