package profile

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	userstore "github.com/crewdesk/crewdesk/internal/app/store/users"
	sysauth "github.com/crewdesk/crewdesk/internal/app/system/auth"
	"github.com/crewdesk/crewdesk/internal/app/system/inputval"
	"github.com/crewdesk/crewdesk/internal/app/system/respond"
	"github.com/crewdesk/crewdesk/internal/app/system/timeouts"
	"github.com/crewdesk/crewdesk/internal/domain/models"
)

type profileResponse struct {
	*models.User
	Role string `json:"role"`
}

// HandleGet returns the caller's own account.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	p := sysauth.MustFromContext(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	user, err := h.Users.GetByID(ctx, p.UserID)
	if err != nil {
		respond.ServerError(w, h.Log, "profile load", err)
		return
	}
	respond.JSON(w, http.StatusOK, profileResponse{User: user, Role: p.Role})
}

type updateRequest struct {
	Name           string `json:"name" validate:"required,min=1,max=100"`
	Email          string `json:"email" validate:"omitempty,email"`
	Phone          string `json:"phone" validate:"max=30"`
	Department     string `json:"department" validate:"max=100"`
	ProfilePicture string `json:"profile_picture" validate:"max=500"`
}

// HandleUpdate edits the caller's own profile. An email change is rejected
// with 400 when another account already uses the address.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	p := sysauth.MustFromContext(r.Context())

	var req updateRequest
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

	if req.Email != "" {
		taken, err := h.Users.EmailExistsForOther(ctx, req.Email, p.UserID)
		if err != nil {
			respond.ServerError(w, h.Log, "profile email check", err)
			return
		}
		if taken {
			respond.BadRequest(w, "Email is already in use")
			return
		}
	}

	user, err := h.Users.UpdateProfile(ctx, p.UserID, userstore.ProfileUpdate{
		Name:           req.Name,
		Phone:          req.Phone,
		Department:     req.Department,
		ProfilePicture: req.ProfilePicture,
	})
	if err != nil {
		respond.ServerError(w, h.Log, "profile update", err)
		return
	}

	// The uniqueness check above is advisory; the unique index settles races.
	if req.Email != "" && !strings.EqualFold(req.Email, user.Email) {
		user, err = h.Users.UpdateEmail(ctx, p.UserID, req.Email)
		if err != nil {
			if errors.Is(err, userstore.ErrDuplicateEmail) {
				respond.BadRequest(w, "Email is already in use")
				return
			}
			respond.ServerError(w, h.Log, "profile email update", err)
			return
		}
	}

	h.Activity.Record(p, "updated profile", "", r)
	respond.JSON(w, http.StatusOK, profileResponse{User: user, Role: p.Role})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=128"`
}

// HandleChangePassword rehashes the caller's password after verifying the
// current one.
func (h *Handler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	p := sysauth.MustFromContext(r.Context())

	var req changePasswordRequest
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

	user, err := h.Users.GetByID(ctx, p.UserID)
	if err != nil {
		respond.ServerError(w, h.Log, "change password load", err)
		return
	}
	if !h.Users.VerifyPassword(user, req.CurrentPassword) {
		respond.BadRequest(w, "Current password is incorrect")
		return
	}
	if err := h.Users.SetPassword(ctx, p.UserID, req.NewPassword); err != nil {
		respond.ServerError(w, h.Log, "change password set", err)
		return
	}

	h.Activity.Record(p, "changed password", "", r)
	respond.Message(w, http.StatusOK, "Password updated")
}
