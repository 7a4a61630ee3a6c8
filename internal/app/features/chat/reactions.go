package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	sysauth "github.com/crewdesk/crewdesk/internal/app/system/auth"
	"github.com/crewdesk/crewdesk/internal/app/system/inputval"
	"github.com/crewdesk/crewdesk/internal/app/system/respond"
	"github.com/crewdesk/crewdesk/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type reactionRequest struct {
	Emoji string `json:"emoji" validate:"required,max=16"`
}

// HandleAddReaction toggles the caller's reaction: reacting again with the
// same emoji removes it.
func (h *Handler) HandleAddReaction(w http.ResponseWriter, r *http.Request) {
	p := sysauth.MustFromContext(r.Context())

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respond.BadRequest(w, "Invalid message id")
		return
	}
	var req reactionRequest
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

	msg, err := h.Messages.ToggleReaction(ctx, p.CompanyID, id, p.UserID, req.Emoji)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			respond.NotFound(w, "Message")
			return
		}
		respond.ServerError(w, h.Log, "toggle reaction", err)
		return
	}
	respond.JSON(w, http.StatusOK, msg)
}

// HandleRemoveReaction drops the caller's reaction with the emoji from the
// URL. Removing a reaction that is not there still succeeds.
func (h *Handler) HandleRemoveReaction(w http.ResponseWriter, r *http.Request) {
	p := sysauth.MustFromContext(r.Context())

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respond.BadRequest(w, "Invalid message id")
		return
	}
	emoji := chi.URLParam(r, "emoji")
	if emoji == "" {
		respond.BadRequest(w, "Missing emoji")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	msg, err := h.Messages.RemoveReaction(ctx, p.CompanyID, id, p.UserID, emoji)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			respond.NotFound(w, "Message")
			return
		}
		respond.ServerError(w, h.Log, "remove reaction", err)
		return
	}
	respond.JSON(w, http.StatusOK, msg)
}
