package chat

import (
	"context"
	"errors"
	"net/http"

	sysauth "github.com/crewdesk/crewdesk/internal/app/system/auth"
	"github.com/crewdesk/crewdesk/internal/app/system/respond"
	"github.com/crewdesk/crewdesk/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// HandleMarkRead records a read receipt. Marking an already-read message
// succeeds again.
func (h *Handler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	p := sysauth.MustFromContext(r.Context())

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respond.BadRequest(w, "Invalid message id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Messages.MarkRead(ctx, p.CompanyID, id, p.UserID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			respond.NotFound(w, "Message")
			return
		}
		respond.ServerError(w, h.Log, "mark message read", err)
		return
	}
	respond.Message(w, http.StatusOK, "Marked as read")
}

// HandleReadAll marks everything visible and unread as read.
func (h *Handler) HandleReadAll(w http.ResponseWriter, r *http.Request) {
	p := sysauth.MustFromContext(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	marked, err := h.Messages.MarkAllRead(ctx, p.CompanyID, p.UserID)
	if err != nil {
		respond.ServerError(w, h.Log, "mark all messages read", err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]int64{"marked": marked})
}

// HandleUnreadCount returns how many visible messages the caller has not
// read yet.
func (h *Handler) HandleUnreadCount(w http.ResponseWriter, r *http.Request) {
	p := sysauth.MustFromContext(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	n, err := h.Messages.UnreadCount(ctx, p.CompanyID, p.UserID)
	if err != nil {
		respond.ServerError(w, h.Log, "message unread count", err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]int64{"unread": n})
}
