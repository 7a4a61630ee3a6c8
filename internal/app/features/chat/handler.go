// Package chat implements company messaging: the group thread, direct
// messages, read receipts, reactions, editing, pinning, and search.
package chat

import (
	"github.com/crewdesk/crewdesk/internal/app/realtime"
	messagestore "github.com/crewdesk/crewdesk/internal/app/store/messages"
	userstore "github.com/crewdesk/crewdesk/internal/app/store/users"
	"github.com/crewdesk/crewdesk/internal/app/system/activitylog"
	"github.com/crewdesk/crewdesk/internal/app/system/notifier"
	"go.uber.org/zap"
)

// Handler is the shared dependency container for the chat feature.
type Handler struct {
	Messages *messagestore.Store
	Users    *userstore.Store
	Notify   *notifier.Notifier
	Hub      *realtime.Hub
	Activity *activitylog.Recorder
	Log      *zap.Logger
}

func NewHandler(
	messages *messagestore.Store,
	users *userstore.Store,
	notify *notifier.Notifier,
	hub *realtime.Hub,
	activity *activitylog.Recorder,
	log *zap.Logger,
) *Handler {
	return &Handler{
		Messages: messages,
		Users:    users,
		Notify:   notify,
		Hub:      hub,
		Activity: activity,
		Log:      log,
	}
}
