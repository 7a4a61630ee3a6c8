package team

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	sysauth "github.com/crewdesk/crewdesk/internal/app/system/auth"
	"github.com/crewdesk/crewdesk/internal/app/system/inputval"
	"github.com/crewdesk/crewdesk/internal/app/system/respond"
	"github.com/crewdesk/crewdesk/internal/app/system/timeouts"
	"github.com/crewdesk/crewdesk/internal/domain/models"
)

type meetingRequest struct {
	Title       string    `json:"title" validate:"required,min=2,max=200"`
	Datetime    time.Time `json:"datetime" validate:"required"`
	Description string    `json:"description" validate:"max=2000"`
}

// HandleNotifyMeeting sends a reminder notification and an email to every
// member of the company about an upcoming meeting.
func (h *Handler) HandleNotifyMeeting(w http.ResponseWriter, r *http.Request) {
	p := sysauth.MustFromContext(r.Context())

	var req meetingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, "Invalid request body")
		return
	}
	if err := inputval.Struct(req); err != nil {
		respond.BadRequest(w, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	members, err := h.Users.ListByCompany(ctx, p.CompanyID)
	if err != nil {
		respond.ServerError(w, h.Log, "meeting member list", err)
		return
	}

	body := fmt.Sprintf("%q is scheduled for %s", req.Title, req.Datetime.Format("Monday, Jan 2 at 15:04 MST"))
	for _, m := range members {
		h.Notify.Notify(m.ID, "Meeting: "+req.Title, body, models.NotifyReminder, nil, "")
		if m.ID != p.UserID {
			h.sendMail(m.Email, h.Templates.Meeting(m.Name, p.Name, req.Title, req.Description, req.Datetime))
		}
	}

	h.Activity.Record(p, "announced meeting", req.Title, r)
	respond.Message(w, http.StatusOK, fmt.Sprintf("Meeting notification sent to %d members", len(members)))
}
