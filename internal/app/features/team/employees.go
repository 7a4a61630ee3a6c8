package team

import (
	"context"
	"net/http"
	"time"

	taskstore "github.com/crewdesk/crewdesk/internal/app/store/tasks"
	sysauth "github.com/crewdesk/crewdesk/internal/app/system/auth"
	"github.com/crewdesk/crewdesk/internal/app/system/respond"
	"github.com/crewdesk/crewdesk/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memberSummary struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Role           string    `json:"role"`
	Department     string    `json:"department,omitempty"`
	ProfilePicture string    `json:"profile_picture,omitempty"`
	JoinedAt       time.Time `json:"joined_at"`

	OpenTasks      int64   `json:"open_tasks"`
	CompletedTasks int64   `json:"completed_tasks"`
	TotalTasks     int64   `json:"total_tasks"`
	CompletionRate float64 `json:"completion_rate"`
	Grade          string  `json:"grade"`
}

// HandleEmployees lists every active member of the company with their task
// counts and a performance grade derived from completion rate.
func (h *Handler) HandleEmployees(w http.ResponseWriter, r *http.Request) {
	p := sysauth.MustFromContext(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	users, err := h.Users.ListByCompany(ctx, p.CompanyID)
	if err != nil {
		respond.ServerError(w, h.Log, "list members", err)
		return
	}
	loads, err := h.Tasks.Workload(ctx, p.CompanyID)
	if err != nil {
		respond.ServerError(w, h.Log, "member workload", err)
		return
	}
	byUser := make(map[primitive.ObjectID]taskstore.AssigneeLoad, len(loads))
	for _, l := range loads {
		byUser[l.UserID] = l
	}

	out := make([]memberSummary, 0, len(users))
	for _, u := range users {
		m, _ := u.MembershipFor(p.CompanyID)
		load := byUser[u.ID]
		rate := completionRate(load)
		out = append(out, memberSummary{
			ID:             u.ID.Hex(),
			Name:           u.Name,
			Email:          u.Email,
			Role:           m.Role,
			Department:     u.Department,
			ProfilePicture: u.ProfilePicture,
			JoinedAt:       m.JoinedAt,
			OpenTasks:      load.Total - load.Completed,
			CompletedTasks: load.Completed,
			TotalTasks:     load.Total,
			CompletionRate: rate,
			Grade:          grade(load.Total, rate),
		})
	}
	respond.JSON(w, http.StatusOK, out)
}

func completionRate(l taskstore.AssigneeLoad) float64 {
	if l.Total == 0 {
		return 0
	}
	return float64(l.Completed) / float64(l.Total)
}

// grade maps a completion rate to a letter. Members with no tasks yet are
// ungraded.
func grade(total int64, rate float64) string {
	switch {
	case total == 0:
		return "n/a"
	case rate >= 0.9:
		return "A"
	case rate >= 0.75:
		return "B"
	case rate >= 0.5:
		return "C"
	default:
		return "D"
	}
}
