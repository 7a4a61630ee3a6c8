package logs

import (
	"context"
	"net/http"
	"strconv"
	"time"

	activitystore "github.com/crewdesk/crewdesk/internal/app/store/activity"
	sysauth "github.com/crewdesk/crewdesk/internal/app/system/auth"
	"github.com/crewdesk/crewdesk/internal/app/system/respond"
	"github.com/crewdesk/crewdesk/internal/app/system/timeouts"
	"github.com/crewdesk/crewdesk/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type listResponse struct {
	Logs  []models.ActivityLog `json:"logs"`
	Total int64                `json:"total"`
	Page  int                  `json:"page"`
	Limit int                  `json:"limit"`
}

// HandleList pages through the company's activity log, newest first.
// Filters: ?user_id, ?action, ?since (RFC 3339), ?page, ?limit.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	p := sysauth.MustFromContext(r.Context())
	q := r.URL.Query()

	var filter activitystore.ListFilter
	if raw := q.Get("user_id"); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			respond.BadRequest(w, "Invalid user_id")
			return
		}
		filter.UserID = &id
	}
	filter.Action = q.Get("action")
	if raw := q.Get("since"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respond.BadRequest(w, "Invalid since timestamp")
			return
		}
		filter.Since = &ts
	}
	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respond.BadRequest(w, "Invalid page")
			return
		}
		filter.Page = n
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 200 {
			respond.BadRequest(w, "Invalid limit")
			return
		}
		filter.Limit = n
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	items, total, err := h.Activity.List(ctx, p.CompanyID, filter)
	if err != nil {
		respond.ServerError(w, h.Log, "list activity", err)
		return
	}
	if items == nil {
		items = []models.ActivityLog{}
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 50
	}
	respond.JSON(w, http.StatusOK, listResponse{Logs: items, Total: total, Page: page, Limit: limit})
}
