package testutil

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/crewdesk/crewdesk/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
// Calls stack: an existing route context keeps its earlier parameters.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok || rctx == nil {
		rctx = chi.NewRouteContext()
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}
	rctx.URLParams.Add(key, value)
	return r
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateCompany creates a test company with default settings.
func (f *Fixtures) CreateCompany(ctx context.Context, name string) models.Company {
	f.t.Helper()

	now := time.Now().UTC()
	company := models.Company{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		Settings:  models.DefaultCompanySettings(),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("companies").InsertOne(ctx, company); err != nil {
		f.t.Fatalf("failed to create test company: %v", err)
	}
	return company
}

// CreateUser creates a test user with an active membership in the given
// company, with that company set as current.
func (f *Fixtures) CreateUser(ctx context.Context, name, email, role string, companyID primitive.ObjectID) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:     primitive.NewObjectID(),
		Name:   name,
		NameCI: text.Fold(name),
		Email:  strings.ToLower(email),
		Companies: []models.CompanyMembership{
			{CompanyID: companyID, Role: role, IsActive: true, JoinedAt: now},
		},
		CurrentCompany: &companyID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateAdmin creates a test admin in the given company.
func (f *Fixtures) CreateAdmin(ctx context.Context, name, email string, companyID primitive.ObjectID) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, name, email, "admin", companyID)
}

// CreateManager creates a test manager in the given company.
func (f *Fixtures) CreateManager(ctx context.Context, name, email string, companyID primitive.ObjectID) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, name, email, "manager", companyID)
}

// CreateEmployee creates a test employee in the given company.
func (f *Fixtures) CreateEmployee(ctx context.Context, name, email string, companyID primitive.ObjectID) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, name, email, "employee", companyID)
}

// CreateTask creates a pending medium-priority task.
func (f *Fixtures) CreateTask(ctx context.Context, title string, companyID, assignedTo, createdBy primitive.ObjectID) models.Task {
	f.t.Helper()

	now := time.Now().UTC()
	task := models.Task{
		ID:         primitive.NewObjectID(),
		Title:      title,
		Status:     models.TaskPending,
		Priority:   models.PriorityMedium,
		AssignedTo: assignedTo,
		CreatedBy:  createdBy,
		CompanyID:  companyID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if _, err := f.db.Collection("tasks").InsertOne(ctx, task); err != nil {
		f.t.Fatalf("failed to create test task: %v", err)
	}
	return task
}

// CreateTaskWithStatus creates a task with the given status. Completed tasks
// get an UpdatedAt one hour after CreatedAt so duration metrics are non-zero.
func (f *Fixtures) CreateTaskWithStatus(ctx context.Context, title, status string, companyID, assignedTo, createdBy primitive.ObjectID) models.Task {
	f.t.Helper()

	now := time.Now().UTC()
	task := models.Task{
		ID:         primitive.NewObjectID(),
		Title:      title,
		Status:     status,
		Priority:   models.PriorityMedium,
		AssignedTo: assignedTo,
		CreatedBy:  createdBy,
		CompanyID:  companyID,
		CreatedAt:  now.Add(-time.Hour),
		UpdatedAt:  now.Add(-time.Hour),
	}
	if status == models.TaskCompleted {
		task.UpdatedAt = now
	}

	if _, err := f.db.Collection("tasks").InsertOne(ctx, task); err != nil {
		f.t.Fatalf("failed to create test task: %v", err)
	}
	return task
}

// CreateMessage creates a group chat message (recipient nil) in the company.
func (f *Fixtures) CreateMessage(ctx context.Context, body string, companyID, senderID primitive.ObjectID) models.Message {
	f.t.Helper()

	now := time.Now().UTC()
	msg := models.Message{
		ID:        primitive.NewObjectID(),
		SenderID:  senderID,
		Body:      body,
		CompanyID: companyID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("messages").InsertOne(ctx, msg); err != nil {
		f.t.Fatalf("failed to create test message: %v", err)
	}
	return msg
}

// CreateNotification creates an unread notification for the user.
func (f *Fixtures) CreateNotification(ctx context.Context, userID primitive.ObjectID, title string) models.Notification {
	f.t.Helper()

	now := time.Now().UTC()
	n := models.Notification{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Title:     title,
		Body:      "test notification body",
		Type:      models.NotifySystem,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("notifications").InsertOne(ctx, n); err != nil {
		f.t.Fatalf("failed to create test notification: %v", err)
	}
	return n
}
