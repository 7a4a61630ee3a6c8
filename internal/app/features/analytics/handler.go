// Package analytics serves task metrics for managers: completion times,
// weekly velocity, workload distribution, and daily trends. All numbers come
// from tenant-scoped MongoDB aggregations.
package analytics

import (
	taskstore "github.com/crewdesk/crewdesk/internal/app/store/tasks"
	userstore "github.com/crewdesk/crewdesk/internal/app/store/users"
	"go.uber.org/zap"
)

// Handler is the shared dependency container for the analytics feature.
type Handler struct {
	Tasks *taskstore.Store
	Users *userstore.Store
	Log   *zap.Logger
}

func NewHandler(tasks *taskstore.Store, users *userstore.Store, log *zap.Logger) *Handler {
	return &Handler{Tasks: tasks, Users: users, Log: log}
}
