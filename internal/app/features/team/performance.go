package team

import (
	"context"
	"net/http"

	sysauth "github.com/crewdesk/crewdesk/internal/app/system/auth"
	"github.com/crewdesk/crewdesk/internal/app/system/respond"
	"github.com/crewdesk/crewdesk/internal/app/system/timeouts"
)

type performanceResponse struct {
	Pending        int64   `json:"pending"`
	InProgress     int64   `json:"in_progress"`
	Completed      int64   `json:"completed"`
	Overdue        int64   `json:"overdue"`
	Total          int64   `json:"total"`
	CompletionRate float64 `json:"completion_rate"`
}

// HandlePerformance returns company-wide task counts by status plus the
// overall completion rate.
func (h *Handler) HandlePerformance(w http.ResponseWriter, r *http.Request) {
	p := sysauth.MustFromContext(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	loads, err := h.Tasks.Workload(ctx, p.CompanyID)
	if err != nil {
		respond.ServerError(w, h.Log, "team performance", err)
		return
	}

	var resp performanceResponse
	for _, l := range loads {
		resp.Pending += l.Pending
		resp.InProgress += l.InProgress
		resp.Completed += l.Completed
		resp.Overdue += l.Overdue
		resp.Total += l.Total
	}
	if resp.Total > 0 {
		resp.CompletionRate = float64(resp.Completed) / float64(resp.Total)
	}
	respond.JSON(w, http.StatusOK, resp)
}
