package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	sysauth "github.com/crewdesk/crewdesk/internal/app/system/auth"
	"github.com/crewdesk/crewdesk/internal/app/system/respond"
	"github.com/crewdesk/crewdesk/internal/app/system/timeouts"
	"github.com/crewdesk/crewdesk/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type pinRequest struct {
	Pinned *bool `json:"pinned"`
}

// HandlePin pins a message, or unpins it when the body says {"pinned": false}.
// An empty body pins.
func (h *Handler) HandlePin(w http.ResponseWriter, r *http.Request) {
	p := sysauth.MustFromContext(r.Context())

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respond.BadRequest(w, "Invalid message id")
		return
	}

	pinned := true
	var req pinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil && req.Pinned != nil {
		pinned = *req.Pinned
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	msg, err := h.Messages.SetPinned(ctx, p.CompanyID, id, p.UserID, pinned)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			respond.NotFound(w, "Message")
			return
		}
		respond.ServerError(w, h.Log, "pin message", err)
		return
	}
	respond.JSON(w, http.StatusOK, msg)
}

// HandlePinned lists the company's pinned messages, most recently pinned
// first.
func (h *Handler) HandlePinned(w http.ResponseWriter, r *http.Request) {
	p := sysauth.MustFromContext(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	msgs, err := h.Messages.ListPinned(ctx, p.CompanyID)
	if err != nil {
		respond.ServerError(w, h.Log, "list pinned messages", err)
		return
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	respond.JSON(w, http.StatusOK, msgs)
}
