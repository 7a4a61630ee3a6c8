package tasks

import (
	"context"
	"errors"
	"net/http"

	sysauth "github.com/crewdesk/crewdesk/internal/app/system/auth"
	"github.com/crewdesk/crewdesk/internal/app/system/authz"
	"github.com/crewdesk/crewdesk/internal/app/system/respond"
	"github.com/crewdesk/crewdesk/internal/app/system/timeouts"
	"github.com/crewdesk/crewdesk/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// HandleGet returns one task. Tasks in other companies look like missing
// tasks; a company task assigned to someone else is a 403 for employees.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	p := sysauth.MustFromContext(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	task, ok := h.loadVisible(ctx, w, r, p)
	if !ok {
		return
	}
	respond.JSON(w, http.StatusOK, task)
}

// loadVisible loads the {id} task within the caller's company and enforces
// employee self-scope. On failure it writes the response and returns false.
func (h *Handler) loadVisible(ctx context.Context, w http.ResponseWriter, r *http.Request, p sysauth.Principal) (*models.Task, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respond.BadRequest(w, "Invalid task id")
		return nil, false
	}

	task, err := h.Tasks.Get(ctx, p.CompanyID, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			respond.NotFound(w, "Task")
			return nil, false
		}
		respond.ServerError(w, h.Log, "load task", err)
		return nil, false
	}
	if !authz.CanViewAllTasks(p) && task.AssignedTo != p.UserID {
		respond.Forbidden(w)
		return nil, false
	}
	return task, true
}
