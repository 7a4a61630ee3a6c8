// internal/domain/models/taskfile.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TaskFile links a task to a stored blob. Created once, never mutated.
type TaskFile struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TaskID      primitive.ObjectID `bson:"task_id" json:"task_id"`
	CompanyID   primitive.ObjectID `bson:"company_id" json:"company_id"`
	Filename    string             `bson:"filename" json:"filename"`
	URL         string             `bson:"url" json:"url"`
	Size        int64              `bson:"size" json:"size"`
	ContentType string             `bson:"content_type,omitempty" json:"content_type,omitempty"`
	UploadedBy  primitive.ObjectID `bson:"uploaded_by" json:"uploaded_by"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
