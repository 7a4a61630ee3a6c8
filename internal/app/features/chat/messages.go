package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/crewdesk/crewdesk/internal/app/realtime"
	messagestore "github.com/crewdesk/crewdesk/internal/app/store/messages"
	sysauth "github.com/crewdesk/crewdesk/internal/app/system/auth"
	"github.com/crewdesk/crewdesk/internal/app/system/inputval"
	"github.com/crewdesk/crewdesk/internal/app/system/respond"
	"github.com/crewdesk/crewdesk/internal/app/system/timeouts"
	"github.com/crewdesk/crewdesk/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// HandleList returns a conversation slice, newest first. Without
// recipient_id it is the company group thread; with it, the direct thread
// between the caller and that user.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	p := sysauth.MustFromContext(r.Context())
	q := r.URL.Query()

	f := messagestore.ListFilter{Viewer: p.UserID}
	if s := q.Get("recipient_id"); s != "" {
		other, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			respond.BadRequest(w, "Invalid recipient_id")
			return
		}
		f.Direct = true
		f.Other = other
	}
	if s := q.Get("before"); s != "" {
		before, err := time.Parse(time.RFC3339, s)
		if err != nil {
			respond.BadRequest(w, "Invalid before timestamp")
			return
		}
		f.Before = &before
	}
	f.Limit, _ = strconv.Atoi(q.Get("limit"))

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	msgs, err := h.Messages.List(ctx, p.CompanyID, f)
	if err != nil {
		respond.ServerError(w, h.Log, "list messages", err)
		return
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	respond.JSON(w, http.StatusOK, msgs)
}

type sendRequest struct {
	Message     string              `json:"message" validate:"required,min=1,max=5000"`
	RecipientID string              `json:"recipient_id"`
	ReplyTo     string              `json:"reply_to"`
	Attachments []models.Attachment `json:"attachments" validate:"max=10"`
}

// HandleSend posts a message. A direct message notifies and pushes to the
// recipient; a group message is broadcast to everyone else in the company.
func (h *Handler) HandleSend(w http.ResponseWriter, r *http.Request) {
	p := sysauth.MustFromContext(r.Context())

	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, "Invalid request body")
		return
	}
	if err := inputval.Struct(req); err != nil {
		respond.BadRequest(w, err.Error())
		return
	}

	msg := models.Message{
		SenderID:    p.UserID,
		Body:        req.Message,
		CompanyID:   p.CompanyID,
		Attachments: req.Attachments,
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if req.RecipientID != "" {
		recipient, err := primitive.ObjectIDFromHex(req.RecipientID)
		if err != nil {
			respond.BadRequest(w, "Invalid recipient_id")
			return
		}
		if recipient == p.UserID {
			respond.BadRequest(w, "Cannot message yourself")
			return
		}
		if _, err := h.Users.GetCompanyMember(ctx, p.CompanyID, recipient); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				respond.BadRequest(w, "Recipient is not a member of this company")
				return
			}
			respond.ServerError(w, h.Log, "send message recipient lookup", err)
			return
		}
		msg.RecipientID = &recipient
	}
	if req.ReplyTo != "" {
		parent, err := primitive.ObjectIDFromHex(req.ReplyTo)
		if err != nil {
			respond.BadRequest(w, "Invalid reply_to")
			return
		}
		if _, err := h.Messages.Get(ctx, p.CompanyID, parent); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				respond.BadRequest(w, "Replied-to message does not exist")
				return
			}
			respond.ServerError(w, h.Log, "send message reply lookup", err)
			return
		}
		msg.ReplyTo = &parent
	}

	created, err := h.Messages.Create(ctx, msg)
	if err != nil {
		respond.ServerError(w, h.Log, "send message", err)
		return
	}

	ev := realtime.Event{Type: realtime.EventNewMessage, Data: created}
	if created.RecipientID != nil {
		h.Hub.SendToUser(*created.RecipientID, ev)
		h.Notify.DirectMessage(*created.RecipientID, created.ID, p.Name)
	} else {
		h.Hub.BroadcastToCompany(p.CompanyID, ev, p.UserID.Hex())
	}

	respond.JSON(w, http.StatusCreated, created)
}
