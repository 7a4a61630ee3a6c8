package tasks

import (
	"context"
	"net/http"
	"strconv"
	"time"

	taskstore "github.com/crewdesk/crewdesk/internal/app/store/tasks"
	sysauth "github.com/crewdesk/crewdesk/internal/app/system/auth"
	"github.com/crewdesk/crewdesk/internal/app/system/authz"
	"github.com/crewdesk/crewdesk/internal/app/system/respond"
	"github.com/crewdesk/crewdesk/internal/app/system/timeouts"
	"github.com/crewdesk/crewdesk/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type listResponse struct {
	Tasks []models.Task `json:"tasks"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

// HandleList returns a page of tasks. Employees see only tasks assigned to
// them, whatever the filter says.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	p := sysauth.MustFromContext(r.Context())
	q := r.URL.Query()

	f := taskstore.ListFilter{
		Status:   q.Get("status"),
		Priority: q.Get("priority"),
		Search:   q.Get("search"),
	}
	if f.Status != "" && !models.ValidTaskStatus(f.Status) {
		respond.BadRequest(w, "Invalid status filter")
		return
	}
	if f.Priority != "" && !models.ValidPriority(f.Priority) {
		respond.BadRequest(w, "Invalid priority filter")
		return
	}
	if s := q.Get("assigned_to"); s != "" {
		id, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			respond.BadRequest(w, "Invalid assigned_to")
			return
		}
		f.AssignedTo = &id
	}
	if q.Get("tab") == "today" {
		// Tasks due today, UTC day boundaries.
		start := time.Now().UTC().Truncate(24 * time.Hour)
		end := start.Add(24 * time.Hour)
		f.DueAfter = &start
		f.DueBefore = &end
	}
	f.Page, _ = strconv.Atoi(q.Get("page"))
	f.Limit, _ = strconv.Atoi(q.Get("limit"))

	var restrictTo *primitive.ObjectID
	if !authz.CanViewAllTasks(p) {
		restrictTo = &p.UserID
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	tasks, total, err := h.Tasks.List(ctx, p.CompanyID, f, restrictTo)
	if err != nil {
		respond.ServerError(w, h.Log, "list tasks", err)
		return
	}
	if tasks == nil {
		tasks = []models.Task{}
	}

	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	page := f.Page
	if page < 1 {
		page = 1
	}
	respond.JSON(w, http.StatusOK, listResponse{Tasks: tasks, Total: total, Page: page, Limit: limit})
}
