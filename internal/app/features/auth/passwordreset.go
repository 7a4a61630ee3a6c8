package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	sysauth "github.com/crewdesk/crewdesk/internal/app/system/auth"
	"github.com/crewdesk/crewdesk/internal/app/system/inputval"
	"github.com/crewdesk/crewdesk/internal/app/system/respond"
	"github.com/crewdesk/crewdesk/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// HandleForgotPassword emails a reset link. The response is identical whether
// or not the address has an account.
func (h *Handler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
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
		token, terr := h.Tokens.IssueLink(sysauth.PurposeReset, user.ID, user.Email)
		if terr != nil {
			respond.ServerError(w, h.Log, "forgot password token", terr)
			return
		}
		h.sendMail(user.Email, h.Templates.PasswordReset(user.Name, token, h.LinkTTL))
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		respond.ServerError(w, h.Log, "forgot password lookup", err)
		return
	}

	respond.Message(w, http.StatusOK, "If that email is registered, a reset link is on its way")
}

type resetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

// HandleResetPassword redeems a reset token and sets the new password.
func (h *Handler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, "Invalid request body")
		return
	}
	if err := inputval.Struct(req); err != nil {
		respond.BadRequest(w, err.Error())
		return
	}

	claims, err := h.Tokens.Verify(req.Token, sysauth.PurposeReset)
	if err != nil {
		respond.BadRequest(w, "Invalid or expired reset link")
		return
	}
	userID, _ := primitive.ObjectIDFromHex(claims.UserID)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	user, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		respond.BadRequest(w, "Invalid or expired reset link")
		return
	}
	if err := h.Users.SetPassword(ctx, user.ID, req.Password); err != nil {
		respond.ServerError(w, h.Log, "reset password", err)
		return
	}

	h.sendMail(user.Email, h.Templates.PasswordResetConfirmation(user.Name))
	h.Log.Info("password reset", zap.String("user_id", user.ID.Hex()))

	respond.Message(w, http.StatusOK, "Password updated")
}
