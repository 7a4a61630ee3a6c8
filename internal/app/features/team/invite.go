package team

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	sysauth "github.com/crewdesk/crewdesk/internal/app/system/auth"
	"github.com/crewdesk/crewdesk/internal/app/system/inputval"
	"github.com/crewdesk/crewdesk/internal/app/system/respond"
	"github.com/crewdesk/crewdesk/internal/app/system/tenant"
	"github.com/crewdesk/crewdesk/internal/app/system/timeouts"
	"github.com/crewdesk/crewdesk/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type inviteRequest struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"omitempty,min=2,max=100"`
	Role  string `json:"role" validate:"omitempty,oneof=admin manager employee"`
}

type inviteResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Existing bool   `json:"existing"` // true when an existing account joined
}

// HandleInvite adds someone to the company. An unknown email gets a fresh
// account with a generated temporary password and an invite email; a known
// one just gains a membership.
func (h *Handler) HandleInvite(w http.ResponseWriter, r *http.Request) {
	p := sysauth.MustFromContext(r.Context())

	var req inviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, "Invalid request body")
		return
	}
	if err := inputval.Struct(req); err != nil {
		respond.BadRequest(w, err.Error())
		return
	}
	role := req.Role
	if role == "" {
		role = tenant.RoleEmployee
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	company, err := h.Companies.GetByID(ctx, p.CompanyID)
	if err != nil {
		respond.ServerError(w, h.Log, "invite company lookup", err)
		return
	}

	existing, err := h.Users.GetByEmail(ctx, req.Email)
	switch {
	case err == nil:
		if m, ok := existing.MembershipFor(p.CompanyID); ok && m.IsActive {
			respond.BadRequest(w, "User is already a member of this company")
			return
		}
		if err := h.Users.AddMembership(ctx, existing.ID, p.CompanyID, role); err != nil {
			respond.ServerError(w, h.Log, "invite add membership", err)
			return
		}
		h.sendMail(existing.Email, h.Templates.Welcome(existing.Name, company.Name))
		h.Activity.Record(p, "invited member", existing.Email, r)
		respond.JSON(w, http.StatusOK, inviteResponse{
			ID:       existing.ID.Hex(),
			Name:     existing.Name,
			Email:    existing.Email,
			Role:     role,
			Existing: true,
		})
		return

	case !errors.Is(err, mongo.ErrNoDocuments):
		respond.ServerError(w, h.Log, "invite lookup", err)
		return
	}

	name := req.Name
	if name == "" {
		name = strings.SplitN(req.Email, "@", 2)[0]
	}
	tempPassword := uuid.NewString()

	user, err := h.Users.Create(ctx, models.User{Name: name, Email: req.Email}, tempPassword, role, p.CompanyID)
	if err != nil {
		respond.ServerError(w, h.Log, "invite create user", err)
		return
	}

	h.sendMail(user.Email, h.Templates.Invite(user.Name, company.Name, p.Name, tempPassword))
	h.Activity.Record(p, "invited member", user.Email, r)
	h.Log.Info("member invited",
		zap.String("user_id", user.ID.Hex()),
		zap.String("company_id", p.CompanyID.Hex()))

	respond.JSON(w, http.StatusCreated, inviteResponse{
		ID:    user.ID.Hex(),
		Name:  user.Name,
		Email: user.Email,
		Role:  role,
	})
}
