package chat

import (
	"context"
	"net/http"

	sysauth "github.com/crewdesk/crewdesk/internal/app/system/auth"
	"github.com/crewdesk/crewdesk/internal/app/system/respond"
	"github.com/crewdesk/crewdesk/internal/app/system/timeouts"
	"github.com/crewdesk/crewdesk/internal/domain/models"
)

type chatMember struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Role           string `json:"role"`
	Department     string `json:"department,omitempty"`
	ProfilePicture string `json:"profile_picture,omitempty"`
	Online         bool   `json:"online"`
}

// HandleTeamMembers lists everyone in the company with their live presence,
// for the conversation picker.
func (h *Handler) HandleTeamMembers(w http.ResponseWriter, r *http.Request) {
	p := sysauth.MustFromContext(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	users, err := h.Users.ListByCompany(ctx, p.CompanyID)
	if err != nil {
		respond.ServerError(w, h.Log, "chat member list", err)
		return
	}

	out := make([]chatMember, 0, len(users))
	for _, u := range users {
		if u.ID == p.UserID {
			continue
		}
		role := ""
		if m, ok := u.MembershipFor(p.CompanyID); ok {
			role = m.Role
		}
		out = append(out, chatMember{
			ID:             u.ID.Hex(),
			Name:           u.Name,
			Email:          u.Email,
			Role:           role,
			Department:     u.Department,
			ProfilePicture: u.ProfilePicture,
			Online:         h.Hub.IsOnline(u.ID),
		})
	}
	respond.JSON(w, http.StatusOK, out)
}

// HandleSearch matches message bodies within the company.
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	p := sysauth.MustFromContext(r.Context())

	query := r.URL.Query().Get("q")
	if query == "" {
		respond.BadRequest(w, "Missing search query")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	msgs, err := h.Messages.Search(ctx, p.CompanyID, query, 0)
	if err != nil {
		respond.ServerError(w, h.Log, "search messages", err)
		return
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	respond.JSON(w, http.StatusOK, msgs)
}
