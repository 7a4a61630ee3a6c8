// Package notifications exposes a user's notification feed and lets admins
// push system notifications to the company.
package notifications

import (
	notificationstore "github.com/crewdesk/crewdesk/internal/app/store/notifications"
	userstore "github.com/crewdesk/crewdesk/internal/app/store/users"
	"github.com/crewdesk/crewdesk/internal/app/system/notifier"
	"go.uber.org/zap"
)

// Handler is the shared dependency container for the notifications feature.
type Handler struct {
	Notifications *notificationstore.Store
	Users         *userstore.Store
	Notify        *notifier.Notifier
	Log           *zap.Logger
}

func NewHandler(
	notifications *notificationstore.Store,
	users *userstore.Store,
	notify *notifier.Notifier,
	log *zap.Logger,
) *Handler {
	return &Handler{
		Notifications: notifications,
		Users:         users,
		Notify:        notify,
		Log:           log,
	}
}
