// Package logs exposes the company audit trail to admins.
package logs

import (
	activitystore "github.com/crewdesk/crewdesk/internal/app/store/activity"
	"go.uber.org/zap"
)

type Handler struct {
	Activity *activitystore.Store
	Log      *zap.Logger
}

func NewHandler(activity *activitystore.Store, log *zap.Logger) *Handler {
	return &Handler{Activity: activity, Log: log}
}
