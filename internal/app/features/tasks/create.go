package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	sysauth "github.com/crewdesk/crewdesk/internal/app/system/auth"
	"github.com/crewdesk/crewdesk/internal/app/system/authz"
	"github.com/crewdesk/crewdesk/internal/app/system/inputval"
	"github.com/crewdesk/crewdesk/internal/app/system/respond"
	"github.com/crewdesk/crewdesk/internal/app/system/timeouts"
	"github.com/crewdesk/crewdesk/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type createRequest struct {
	Title       string     `json:"title" validate:"required,min=1,max=200"`
	Description string     `json:"description" validate:"max=5000"`
	Priority    string     `json:"priority" validate:"omitempty,oneof=low medium high"`
	DueDate     *time.Time `json:"due_date"`
	AssignedTo  string     `json:"assigned_to"`
}

// HandleCreate creates a task. Employees may only create tasks for
// themselves; managers and admins may assign to any member of the company.
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

	assignee := p.UserID
	if req.AssignedTo != "" {
		id, err := primitive.ObjectIDFromHex(req.AssignedTo)
		if err != nil {
			respond.BadRequest(w, "Invalid assigned_to")
			return
		}
		assignee = id
	}
	if assignee != p.UserID && !authz.CanAssignTasks(p) {
		respond.Forbidden(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	// The assignee must be an active member of this company.
	if assignee != p.UserID {
		if _, err := h.Users.GetCompanyMember(ctx, p.CompanyID, assignee); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				respond.BadRequest(w, "Assignee is not a member of this company")
				return
			}
			respond.ServerError(w, h.Log, "create task assignee lookup", err)
			return
		}
	}

	task, err := h.Tasks.Create(ctx, models.Task{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		AssignedTo:  assignee,
		CreatedBy:   p.UserID,
		CompanyID:   p.CompanyID,
	})
	if err != nil {
		respond.ServerError(w, h.Log, "create task", err)
		return
	}

	if assignee != p.UserID {
		h.Notify.TaskAssigned(assignee, task.ID, task.Title)
	}
	h.Activity.Record(p, "created task", task.Title, r)
	h.Log.Info("task created",
		zap.String("task_id", task.ID.Hex()),
		zap.String("company_id", p.CompanyID.Hex()))

	respond.JSON(w, http.StatusCreated, task)
}
