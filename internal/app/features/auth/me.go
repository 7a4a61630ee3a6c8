package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	sysauth "github.com/crewdesk/crewdesk/internal/app/system/auth"
	"github.com/crewdesk/crewdesk/internal/app/system/respond"
	"github.com/crewdesk/crewdesk/internal/app/system/timeouts"
	"github.com/crewdesk/crewdesk/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type meResponse struct {
	User    *models.User    `json:"user"`
	Company *models.Company `json:"company"`
	Role    string          `json:"role"`
}

// HandleMe returns the caller's profile, active company, and role.
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	p := sysauth.MustFromContext(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	user, err := h.Users.GetByID(ctx, p.UserID)
	if err != nil {
		respond.ServerError(w, h.Log, "me load user", err)
		return
	}
	company, err := h.Companies.GetByID(ctx, p.CompanyID)
	if err != nil {
		respond.ServerError(w, h.Log, "me load company", err)
		return
	}

	respond.JSON(w, http.StatusOK, meResponse{
		User:    user,
		Company: company,
		Role:    p.Role,
	})
}

type switchCompanyRequest struct {
	CompanyID string `json:"company_id" validate:"required"`
}

// HandleSwitchCompany moves the caller's active company to another one they
// hold an active membership in, and returns a fresh token for it.
func (h *Handler) HandleSwitchCompany(w http.ResponseWriter, r *http.Request) {
	p := sysauth.MustFromContext(r.Context())

	var req switchCompanyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, "Invalid request body")
		return
	}
	companyID, err := primitive.ObjectIDFromHex(req.CompanyID)
	if err != nil {
		respond.BadRequest(w, "Invalid company id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Users.SetCurrentCompany(ctx, p.UserID, companyID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			respond.BadRequest(w, "Not an active member of that company")
			return
		}
		respond.ServerError(w, h.Log, "switch company", err)
		return
	}

	user, err := h.Users.GetByID(ctx, p.UserID)
	if err != nil {
		respond.ServerError(w, h.Log, "switch company reload", err)
		return
	}
	m, _ := user.MembershipFor(companyID)

	token, err := h.Tokens.IssueSession(user.ID, user.Email, m.Role, companyID)
	if err != nil {
		respond.ServerError(w, h.Log, "switch company token", err)
		return
	}

	respond.JSON(w, http.StatusOK, sessionResponse{
		Token: token,
		User: userSummary{
			ID:      user.ID.Hex(),
			Name:    user.Name,
			Email:   user.Email,
			Role:    m.Role,
			Company: companyID.Hex(),
		},
	})
}
