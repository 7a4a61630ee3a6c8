package templates

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	sysauth "github.com/crewdesk/crewdesk/internal/app/system/auth"
	"github.com/crewdesk/crewdesk/internal/app/system/inputval"
	"github.com/crewdesk/crewdesk/internal/app/system/respond"
	"github.com/crewdesk/crewdesk/internal/app/system/timeouts"
	"github.com/crewdesk/crewdesk/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type createTaskRequest struct {
	TemplateID string     `json:"template_id" validate:"required"`
	AssignedTo string     `json:"assigned_to" validate:"required"`
	DueDate    *time.Time `json:"due_date"`
}

// HandleCreateTask stamps a task out of a template. Template title,
// description, and priority carry over; assignee and due date come from the
// request.
func (h *Handler) HandleCreateTask(w http.ResponseWriter, r *http.Request) {
	p := sysauth.MustFromContext(r.Context())

	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, "Invalid request body")
		return
	}
	if err := inputval.Struct(req); err != nil {
		respond.BadRequest(w, err.Error())
		return
	}
	templateID, err := primitive.ObjectIDFromHex(req.TemplateID)
	if err != nil {
		respond.BadRequest(w, "Invalid template_id")
		return
	}
	assignee, err := primitive.ObjectIDFromHex(req.AssignedTo)
	if err != nil {
		respond.BadRequest(w, "Invalid assigned_to")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	tmpl, err := h.Templates.Get(ctx, p.CompanyID, templateID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			respond.NotFound(w, "Template")
			return
		}
		respond.ServerError(w, h.Log, "template task load", err)
		return
	}
	if _, err := h.Users.GetCompanyMember(ctx, p.CompanyID, assignee); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			respond.BadRequest(w, "Assignee is not a member of this company")
			return
		}
		respond.ServerError(w, h.Log, "template task assignee lookup", err)
		return
	}

	task, err := h.Tasks.Create(ctx, models.Task{
		Title:       tmpl.Title,
		Description: tmpl.Description,
		Priority:    tmpl.Priority,
		DueDate:     req.DueDate,
		AssignedTo:  assignee,
		CreatedBy:   p.UserID,
		CompanyID:   p.CompanyID,
	})
	if err != nil {
		respond.ServerError(w, h.Log, "template task create", err)
		return
	}

	if assignee != p.UserID {
		h.Notify.TaskAssigned(assignee, task.ID, task.Title)
	}
	h.Activity.Record(p, "created task from template", tmpl.Name, r)
	respond.JSON(w, http.StatusCreated, task)
}
