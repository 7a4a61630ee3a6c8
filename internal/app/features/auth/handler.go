// Package auth implements signup, login, and the emailed link flows
// (password reset, magic login).
package auth

import (
	"time"

	companystore "github.com/crewdesk/crewdesk/internal/app/store/companies"
	userstore "github.com/crewdesk/crewdesk/internal/app/store/users"
	"github.com/crewdesk/crewdesk/internal/app/system/activitylog"
	sysauth "github.com/crewdesk/crewdesk/internal/app/system/auth"
	"github.com/crewdesk/crewdesk/internal/app/system/mailer"
	"github.com/crewdesk/crewdesk/internal/app/system/outbox"
	"go.uber.org/zap"
)

// Handler is the shared dependency container for the auth feature.
type Handler struct {
	Users     *userstore.Store
	Companies *companystore.Store
	Tokens    *sysauth.TokenManager
	Mail      mailer.Sender
	Templates mailer.Templates
	Outbox    *outbox.Dispatcher
	Activity  *activitylog.Recorder
	Log       *zap.Logger
	LinkTTL   time.Duration
}

func NewHandler(
	users *userstore.Store,
	companies *companystore.Store,
	tokens *sysauth.TokenManager,
	mail mailer.Sender,
	templates mailer.Templates,
	out *outbox.Dispatcher,
	activity *activitylog.Recorder,
	log *zap.Logger,
	linkTTL time.Duration,
) *Handler {
	return &Handler{
		Users:     users,
		Companies: companies,
		Tokens:    tokens,
		Mail:      mail,
		Templates: templates,
		Outbox:    out,
		Activity:  activity,
		Log:       log,
		LinkTTL:   linkTTL,
	}
}
