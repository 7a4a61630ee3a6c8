package analytics

import (
	"context"
	"net/http"
	"strconv"

	taskstore "github.com/crewdesk/crewdesk/internal/app/store/tasks"
	sysauth "github.com/crewdesk/crewdesk/internal/app/system/auth"
	"github.com/crewdesk/crewdesk/internal/app/system/respond"
	"github.com/crewdesk/crewdesk/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// HandleCompletionTime reports completion duration stats for the company,
// optionally narrowed to one assignee via ?assignee=<id>.
func (h *Handler) HandleCompletionTime(w http.ResponseWriter, r *http.Request) {
	p := sysauth.MustFromContext(r.Context())

	var assignee *primitive.ObjectID
	if raw := r.URL.Query().Get("assignee"); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			respond.BadRequest(w, "Invalid assignee")
			return
		}
		assignee = &id
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	stats, err := h.Tasks.CompletionTimes(ctx, p.CompanyID, assignee)
	if err != nil {
		respond.ServerError(w, h.Log, "completion time stats", err)
		return
	}
	respond.JSON(w, http.StatusOK, stats)
}

// HandleVelocity returns tasks completed per week for the trailing window.
// ?weeks controls the window, capped at two years.
func (h *Handler) HandleVelocity(w http.ResponseWriter, r *http.Request) {
	p := sysauth.MustFromContext(r.Context())

	weeks := 8
	if raw := r.URL.Query().Get("weeks"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 104 {
			respond.BadRequest(w, "Invalid weeks")
			return
		}
		weeks = n
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	buckets, err := h.Tasks.Velocity(ctx, p.CompanyID, weeks)
	if err != nil {
		respond.ServerError(w, h.Log, "velocity stats", err)
		return
	}
	respond.JSON(w, http.StatusOK, buckets)
}

type workloadEntry struct {
	taskstore.AssigneeLoad
	Name  string `json:"name"`
	Email string `json:"email"`
}

// HandleWorkload breaks tasks down by assignee and status, joined with member
// names. Loads for users no longer in the company are kept with empty names
// so the totals still add up.
func (h *Handler) HandleWorkload(w http.ResponseWriter, r *http.Request) {
	p := sysauth.MustFromContext(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	loads, err := h.Tasks.Workload(ctx, p.CompanyID)
	if err != nil {
		respond.ServerError(w, h.Log, "workload stats", err)
		return
	}
	members, err := h.Users.ListByCompany(ctx, p.CompanyID)
	if err != nil {
		respond.ServerError(w, h.Log, "workload members", err)
		return
	}
	names := make(map[primitive.ObjectID][2]string, len(members))
	for _, m := range members {
		names[m.ID] = [2]string{m.Name, m.Email}
	}

	out := make([]workloadEntry, 0, len(loads))
	for _, l := range loads {
		e := workloadEntry{AssigneeLoad: l}
		if n, ok := names[l.UserID]; ok {
			e.Name, e.Email = n[0], n[1]
		}
		out = append(out, e)
	}
	respond.JSON(w, http.StatusOK, out)
}

// HandleTrends returns daily created/completed counts. ?days controls the
// window, capped at one year.
func (h *Handler) HandleTrends(w http.ResponseWriter, r *http.Request) {
	p := sysauth.MustFromContext(r.Context())

	days := 30
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 365 {
			respond.BadRequest(w, "Invalid days")
			return
		}
		days = n
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	buckets, err := h.Tasks.Trends(ctx, p.CompanyID, days)
	if err != nil {
		respond.ServerError(w, h.Log, "trend stats", err)
		return
	}
	respond.JSON(w, http.StatusOK, buckets)
}
