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
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type magicLinkRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// HandleRequestMagicLink emails a one-click sign-in link. Like the reset
// flow, the response never reveals whether the address exists.
func (h *Handler) HandleRequestMagicLink(w http.ResponseWriter, r *http.Request) {
	var req magicLinkRequest
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
	if err == nil {
		token, terr := h.Tokens.IssueLink(sysauth.PurposeMagic, user.ID, user.Email)
		if terr != nil {
			respond.ServerError(w, h.Log, "magic link token", terr)
			return
		}
		h.sendMail(user.Email, h.Templates.MagicLink(user.Name, token, h.LinkTTL))
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		respond.ServerError(w, h.Log, "magic link lookup", err)
		return
	}

	respond.Message(w, http.StatusOK, "If that email is registered, a sign-in link is on its way")
}

type magicLoginRequest struct {
	Token string `json:"token" validate:"required"`
}

// HandleMagicLogin redeems a magic-link token for a session.
func (h *Handler) HandleMagicLogin(w http.ResponseWriter, r *http.Request) {
	var req magicLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, "Invalid request body")
		return
	}
	if err := inputval.Struct(req); err != nil {
		respond.BadRequest(w, err.Error())
		return
	}

	claims, err := h.Tokens.Verify(req.Token, sysauth.PurposeMagic)
	if err != nil {
		respond.BadRequest(w, "Invalid or expired sign-in link")
		return
	}
	userID, _ := primitive.ObjectIDFromHex(claims.UserID)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	user, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		respond.BadRequest(w, "Invalid or expired sign-in link")
		return
	}
	tc, err := tenant.Resolve(user)
	if err != nil {
		if errors.Is(err, tenant.ErrNoActiveCompany) {
			respond.BadRequest(w, "User has no active company")
			return
		}
		respond.ServerError(w, h.Log, "magic login tenant", err)
		return
	}

	token, err := h.Tokens.IssueSession(user.ID, user.Email, tc.Role, tc.CompanyID)
	if err != nil {
		respond.ServerError(w, h.Log, "magic login token", err)
		return
	}

	h.Log.Info("magic login", zap.String("user_id", user.ID.Hex()))

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
