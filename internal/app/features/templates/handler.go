// Package templates implements reusable task skeletons: managers define
// them once and stamp out tasks from them.
package templates

import (
	taskstore "github.com/crewdesk/crewdesk/internal/app/store/tasks"
	templatestore "github.com/crewdesk/crewdesk/internal/app/store/templates"
	userstore "github.com/crewdesk/crewdesk/internal/app/store/users"
	"github.com/crewdesk/crewdesk/internal/app/system/activitylog"
	"github.com/crewdesk/crewdesk/internal/app/system/notifier"
	"go.uber.org/zap"
)

// Handler is the shared dependency container for the templates feature.
type Handler struct {
	Templates *templatestore.Store
	Tasks     *taskstore.Store
	Users     *userstore.Store
	Notify    *notifier.Notifier
	Activity  *activitylog.Recorder
	Log       *zap.Logger
}

func NewHandler(
	templates *templatestore.Store,
	tasks *taskstore.Store,
	users *userstore.Store,
	notify *notifier.Notifier,
	activity *activitylog.Recorder,
	log *zap.Logger,
) *Handler {
	return &Handler{
		Templates: templates,
		Tasks:     tasks,
		Users:     users,
		Notify:    notify,
		Activity:  activity,
		Log:       log,
	}
}
