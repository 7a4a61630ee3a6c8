package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	messagestore "github.com/crewdesk/crewdesk/internal/app/store/messages"
	sysauth "github.com/crewdesk/crewdesk/internal/app/system/auth"
	"github.com/crewdesk/crewdesk/internal/app/system/inputval"
	"github.com/crewdesk/crewdesk/internal/app/system/respond"
	"github.com/crewdesk/crewdesk/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type editRequest struct {
	Message string `json:"message" validate:"required,min=1,max=5000"`
}

// HandleEdit rewrites the caller's own message. The original body survives
// the first edit for the audit trail.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	p := sysauth.MustFromContext(r.Context())

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respond.BadRequest(w, "Invalid message id")
		return
	}
	var req editRequest
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

	msg, err := h.Messages.Edit(ctx, p.CompanyID, id, p.UserID, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, messagestore.ErrNotSender):
			respond.Forbidden(w)
		case errors.Is(err, mongo.ErrNoDocuments):
			respond.NotFound(w, "Message")
		default:
			respond.ServerError(w, h.Log, "edit message", err)
		}
		return
	}
	respond.JSON(w, http.StatusOK, msg)
}

// HandleDelete tombstones a message. Senders can delete their own; managers
// and admins can delete anyone's.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	p := sysauth.MustFromContext(r.Context())

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respond.BadRequest(w, "Invalid message id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Messages.SoftDelete(ctx, p.CompanyID, id, p.UserID, p.Elevated()); err != nil {
		switch {
		case errors.Is(err, messagestore.ErrNotSender):
			respond.Forbidden(w)
		case errors.Is(err, mongo.ErrNoDocuments):
			respond.NotFound(w, "Message")
		default:
			respond.ServerError(w, h.Log, "delete message", err)
		}
		return
	}
	respond.Message(w, http.StatusOK, "Message deleted")
}
