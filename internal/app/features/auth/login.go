package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	sysauth "github.com/crewdesk/crewdesk/internal/app/system/auth"
	"github.com/crewdesk/crewdesk/internal/app/system/inputval"
	"github.com/crewdesk/crewdesk/internal/app/system/respond"
	"github.com/crewdesk/crewdesk/internal/app/system/tenant"
	"github.com/crewdesk/crewdesk/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// HandleLogin authenticates with email and password. Wrong email and wrong
// password produce the same response. A user without an active company
// membership cannot log in at all.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, "Invalid request body")
		return
	}
	if err := inputval.Struct(req); err != nil {
		respond.BadRequest(w, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	user, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			respond.BadRequest(w, "Invalid credentials")
			return
		}
		respond.ServerError(w, h.Log, "login lookup", err)
		return
	}
	if !h.Users.VerifyPassword(user, req.Password) {
		respond.BadRequest(w, "Invalid credentials")
		return
	}

	tc, err := tenant.Resolve(user)
	if err != nil {
		if errors.Is(err, tenant.ErrNoActiveCompany) {
			respond.BadRequest(w, "User has no active company")
			return
		}
		respond.ServerError(w, h.Log, "login tenant", err)
		return
	}

	token, err := h.Tokens.IssueSession(user.ID, user.Email, tc.Role, tc.CompanyID)
	if err != nil {
		respond.ServerError(w, h.Log, "login issue token", err)
		return
	}

	h.Log.Info("user logged in", zap.String("user_id", user.ID.Hex()))
	h.Activity.Record(sysauth.Principal{Context: tc, Name: user.Name, Email: user.Email}, "logged in", "", r)

	respond.JSON(w, http.StatusOK, sessionResponse{
		Token: token,
		User: userSummary{
			ID:      user.ID.Hex(),
			Name:    user.Name,
			Email:   user.Email,
			Role:    tc.Role,
			Company: tc.CompanyID.Hex(),
		},
	})
}
