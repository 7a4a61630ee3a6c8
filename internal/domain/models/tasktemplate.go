// internal/domain/models/tasktemplate.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TaskTemplate is a company-scoped reusable task skeleton.
// Deletion is soft: IsActive flips to false.
type TaskTemplate struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name           string             `bson:"name" json:"name"`
	Title          string             `bson:"title" json:"title"`
	Description    string             `bson:"description,omitempty" json:"description,omitempty"`
	Priority       string             `bson:"priority" json:"priority"`
	EstimatedHours float64            `bson:"estimated_hours,omitempty" json:"estimated_hours,omitempty"`
	CreatedBy      primitive.ObjectID `bson:"created_by" json:"created_by"`
	CompanyID      primitive.ObjectID `bson:"company_id" json:"company_id"`
	IsActive       bool               `bson:"is_active" json:"is_active"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
