// Package profile is the self-service account surface: viewing and editing
// your own profile and changing your password.
package profile

import (
	userstore "github.com/crewdesk/crewdesk/internal/app/store/users"
	"github.com/crewdesk/crewdesk/internal/app/system/activitylog"
	"go.uber.org/zap"
)

type Handler struct {
	Users    *userstore.Store
	Activity *activitylog.Recorder
	Log      *zap.Logger
}

func NewHandler(users *userstore.Store, activity *activitylog.Recorder, log *zap.Logger) *Handler {
	return &Handler{Users: users, Activity: activity, Log: log}
}
