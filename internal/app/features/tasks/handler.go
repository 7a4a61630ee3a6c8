// Package tasks implements task listing, creation, updates, and file
// attachments. Employees see and touch only tasks assigned to them; managers
// and admins operate on the whole company.
package tasks

import (
	"github.com/crewdesk/crewdesk/internal/app/realtime"
	taskfilestore "github.com/crewdesk/crewdesk/internal/app/store/taskfiles"
	taskstore "github.com/crewdesk/crewdesk/internal/app/store/tasks"
	userstore "github.com/crewdesk/crewdesk/internal/app/store/users"
	"github.com/crewdesk/crewdesk/internal/app/system/activitylog"
	"github.com/crewdesk/crewdesk/internal/app/system/notifier"
	"github.com/crewdesk/crewdesk/internal/app/system/storage"
	"go.uber.org/zap"
)

// Handler is the shared dependency container for the tasks feature.
type Handler struct {
	Tasks    *taskstore.Store
	Files    *taskfilestore.Store
	Users    *userstore.Store
	Blobs    storage.BlobStore
	Notify   *notifier.Notifier
	Hub      *realtime.Hub
	Activity *activitylog.Recorder
	Log      *zap.Logger
}

func NewHandler(
	tasks *taskstore.Store,
	files *taskfilestore.Store,
	users *userstore.Store,
	blobs storage.BlobStore,
	notify *notifier.Notifier,
	hub *realtime.Hub,
	activity *activitylog.Recorder,
	log *zap.Logger,
) *Handler {
	return &Handler{
		Tasks:    tasks,
		Files:    files,
		Users:    users,
		Blobs:    blobs,
		Notify:   notify,
		Hub:      hub,
		Activity: activity,
		Log:      log,
	}
}
