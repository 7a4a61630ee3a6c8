package team

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	userstore "github.com/crewdesk/crewdesk/internal/app/store/users"
	sysauth "github.com/crewdesk/crewdesk/internal/app/system/auth"
	"github.com/crewdesk/crewdesk/internal/app/system/inputval"
	"github.com/crewdesk/crewdesk/internal/app/system/respond"
	"github.com/crewdesk/crewdesk/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type updateMemberRequest struct {
	Role       *string `json:"role" validate:"omitempty,oneof=admin manager employee"`
	Department *string `json:"department" validate:"omitempty,max=100"`
}

// HandleUpdateMember changes a member's role within this company and/or their
// department. Role changes take effect on the member's next request.
func (h *Handler) HandleUpdateMember(w http.ResponseWriter, r *http.Request) {
	p := sysauth.MustFromContext(r.Context())

	userID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respond.BadRequest(w, "Invalid user id")
		return
	}

	var req updateMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, "Invalid request body")
		return
	}
	if err := inputval.Struct(req); err != nil {
		respond.BadRequest(w, err.Error())
		return
	}
	if req.Role == nil && req.Department == nil {
		respond.BadRequest(w, "Nothing to update")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, err := h.Users.GetCompanyMember(ctx, p.CompanyID, userID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			respond.NotFound(w, "User")
			return
		}
		respond.ServerError(w, h.Log, "update member lookup", err)
		return
	}

	if req.Role != nil {
		if err := h.Users.UpdateMemberRole(ctx, p.CompanyID, userID, *req.Role); err != nil {
			respond.ServerError(w, h.Log, "update member role", err)
			return
		}
	}
	if req.Department != nil {
		if _, err := h.Users.UpdateProfile(ctx, userID, userstore.ProfileUpdate{Department: *req.Department}); err != nil {
			respond.ServerError(w, h.Log, "update member department", err)
			return
		}
	}

	member, err := h.Users.GetCompanyMember(ctx, p.CompanyID, userID)
	if err != nil {
		respond.ServerError(w, h.Log, "update member reload", err)
		return
	}
	m, _ := member.MembershipFor(p.CompanyID)

	h.Activity.Record(p, "updated member", member.Email, r)
	respond.JSON(w, http.StatusOK, memberSummary{
		ID:         member.ID.Hex(),
		Name:       member.Name,
		Email:      member.Email,
		Role:       m.Role,
		Department: member.Department,
		JoinedAt:   m.JoinedAt,
	})
}

// HandleDeleteMember removes a member from the company by deactivating their
// membership. Their account and memberships elsewhere survive. Removing
// yourself is forbidden.
func (h *Handler) HandleDeleteMember(w http.ResponseWriter, r *http.Request) {
	p := sysauth.MustFromContext(r.Context())

	userID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respond.BadRequest(w, "Invalid user id")
		return
	}
	if userID == p.UserID {
		respond.Forbidden(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	member, err := h.Users.GetCompanyMember(ctx, p.CompanyID, userID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			respond.NotFound(w, "User")
			return
		}
		respond.ServerError(w, h.Log, "delete member lookup", err)
		return
	}

	if err := h.Users.DeactivateMembership(ctx, p.CompanyID, userID); err != nil {
		respond.ServerError(w, h.Log, "delete member", err)
		return
	}

	h.Activity.Record(p, "removed member", member.Email, r)
	respond.Message(w, http.StatusOK, "Member removed")
}
