package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	sysauth "github.com/crewdesk/crewdesk/internal/app/system/auth"
	"github.com/crewdesk/crewdesk/internal/app/system/inputval"
	"github.com/crewdesk/crewdesk/internal/app/system/respond"
	"github.com/crewdesk/crewdesk/internal/app/system/timeouts"
	"github.com/crewdesk/crewdesk/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// HandleList returns the caller's notifications, newest first.
// ?unread=true narrows to unread ones.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	p := sysauth.MustFromContext(r.Context())
	q := r.URL.Query()

	unreadOnly := q.Get("unread") == "true"
	limit, _ := strconv.Atoi(q.Get("limit"))

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	items, err := h.Notifications.List(ctx, p.UserID, unreadOnly, limit)
	if err != nil {
		respond.ServerError(w, h.Log, "list notifications", err)
		return
	}
	if items == nil {
		items = []models.Notification{}
	}
	respond.JSON(w, http.StatusOK, items)
}

// HandleUnreadCount returns the caller's unread notification count.
func (h *Handler) HandleUnreadCount(w http.ResponseWriter, r *http.Request) {
	p := sysauth.MustFromContext(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	n, err := h.Notifications.UnreadCount(ctx, p.UserID)
	if err != nil {
		respond.ServerError(w, h.Log, "notification unread count", err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]int64{"unread": n})
}

// HandleMarkRead marks one notification read. Re-marking succeeds again.
func (h *Handler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	p := sysauth.MustFromContext(r.Context())

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respond.BadRequest(w, "Invalid notification id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Notifications.MarkRead(ctx, p.UserID, id); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			respond.NotFound(w, "Notification")
			return
		}
		respond.ServerError(w, h.Log, "mark notification read", err)
		return
	}
	respond.Message(w, http.StatusOK, "Marked as read")
}

// HandleMarkAllRead marks every unread notification read.
func (h *Handler) HandleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	p := sysauth.MustFromContext(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	marked, err := h.Notifications.MarkAllRead(ctx, p.UserID)
	if err != nil {
		respond.ServerError(w, h.Log, "mark all notifications read", err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]int64{"marked": marked})
}

// HandleDelete removes one of the caller's notifications.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	p := sysauth.MustFromContext(r.Context())

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respond.BadRequest(w, "Invalid notification id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Notifications.Delete(ctx, p.UserID, id); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			respond.NotFound(w, "Notification")
			return
		}
		respond.ServerError(w, h.Log, "delete notification", err)
		return
	}
	respond.Message(w, http.StatusOK, "Notification deleted")
}

type createRequest struct {
	UserID string `json:"user_id"`
	Title  string `json:"title" validate:"required,min=1,max=200"`
	Body   string `json:"body" validate:"required,min=1,max=2000"`
	Type   string `json:"type" validate:"omitempty,oneof=task message reminder system"`
}

// HandleCreate lets an admin push a notification to one member, or to the
// whole company when user_id is omitted. Delivery is durable first, live
// second, like every other notification.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	p := sysauth.MustFromContext(r.Context())

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, "Invalid request body")
		return
	}
	if err := inputval.Struct(req); err != nil {
		respond.BadRequest(w, err.Error())
		return
	}
	kind := req.Type
	if kind == "" {
		kind = models.NotifySystem
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var targets []primitive.ObjectID
	if req.UserID != "" {
		userID, err := primitive.ObjectIDFromHex(req.UserID)
		if err != nil {
			respond.BadRequest(w, "Invalid user_id")
			return
		}
		if _, err := h.Users.GetCompanyMember(ctx, p.CompanyID, userID); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				respond.BadRequest(w, "User is not a member of this company")
				return
			}
			respond.ServerError(w, h.Log, "create notification member lookup", err)
			return
		}
		targets = []primitive.ObjectID{userID}
	} else {
		members, err := h.Users.ListByCompany(ctx, p.CompanyID)
		if err != nil {
			respond.ServerError(w, h.Log, "create notification member list", err)
			return
		}
		for _, m := range members {
			if m.ID != p.UserID {
				targets = append(targets, m.ID)
			}
		}
	}

	for _, userID := range targets {
		h.Notify.Notify(userID, req.Title, req.Body, kind, nil, "")
	}
	respond.JSON(w, http.StatusCreated, map[string]int{"recipients": len(targets)})
}
