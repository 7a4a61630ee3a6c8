// Package team implements member management for managers and admins:
// listing employees with their workload, inviting and removing members,
// role changes, task assignment, and meeting announcements.
package team

import (
	"context"

	"github.com/crewdesk/crewdesk/internal/app/realtime"
	companystore "github.com/crewdesk/crewdesk/internal/app/store/companies"
	taskstore "github.com/crewdesk/crewdesk/internal/app/store/tasks"
	userstore "github.com/crewdesk/crewdesk/internal/app/store/users"
	"github.com/crewdesk/crewdesk/internal/app/system/activitylog"
	"github.com/crewdesk/crewdesk/internal/app/system/mailer"
	"github.com/crewdesk/crewdesk/internal/app/system/notifier"
	"github.com/crewdesk/crewdesk/internal/app/system/outbox"
	"go.uber.org/zap"
)

// Handler is the shared dependency container for the team feature.
type Handler struct {
	Users     *userstore.Store
	Tasks     *taskstore.Store
	Companies *companystore.Store
	Notify    *notifier.Notifier
	Hub       *realtime.Hub
	Mail      mailer.Sender
	Templates mailer.Templates
	Outbox    *outbox.Dispatcher
	Activity  *activitylog.Recorder
	Log       *zap.Logger
}

func NewHandler(
	users *userstore.Store,
	tasks *taskstore.Store,
	companies *companystore.Store,
	notify *notifier.Notifier,
	hub *realtime.Hub,
	mail mailer.Sender,
	templates mailer.Templates,
	out *outbox.Dispatcher,
	activity *activitylog.Recorder,
	log *zap.Logger,
) *Handler {
	return &Handler{
		Users:     users,
		Tasks:     tasks,
		Companies: companies,
		Notify:    notify,
		Hub:       hub,
		Mail:      mail,
		Templates: templates,
		Outbox:    out,
		Activity:  activity,
		Log:       log,
	}
}

// sendMail queues an email through the outbox.
func (h *Handler) sendMail(to string, e mailer.Email) {
	e.To = to
	h.Outbox.Submit("mail:"+e.Subject, func(ctx context.Context) error {
		return h.Mail.Send(e)
	})
}
