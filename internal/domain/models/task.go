// internal/domain/models/task.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Task statuses.
const (
	TaskPending    = "pending"
	TaskInProgress = "in-progress"
	TaskCompleted  = "completed"
	TaskOverdue    = "overdue"
)

// Task priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// ValidTaskStatus reports whether s is one of the four task statuses.
func ValidTaskStatus(s string) bool {
	switch s {
	case TaskPending, TaskInProgress, TaskCompleted, TaskOverdue:
		return true
	}
	return false
}

// ValidPriority reports whether p is one of the three priorities.
func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task belongs to exactly one company. Tasks are never hard-deleted.
type Task struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title         string             `bson:"title" json:"title"`
	Description   string             `bson:"description,omitempty" json:"description,omitempty"`
	Status        string             `bson:"status" json:"status"`
	Priority      string             `bson:"priority" json:"priority"`
	DueDate       *time.Time         `bson:"due_date,omitempty" json:"due_date,omitempty"`
	SubmissionURL string             `bson:"submission_url,omitempty" json:"submission_url,omitempty"`
	SubmittedAt   *time.Time         `bson:"submitted_at,omitempty" json:"submitted_at,omitempty"`
	AssignedTo    primitive.ObjectID `bson:"assigned_to" json:"assigned_to"`
	CreatedBy     primitive.ObjectID `bson:"created_by" json:"created_by"`
	CompanyID     primitive.ObjectID `bson:"company_id" json:"company_id"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
