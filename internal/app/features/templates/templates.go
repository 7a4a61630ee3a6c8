package templates

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	templatestore "github.com/crewdesk/crewdesk/internal/app/store/templates"
	sysauth "github.com/crewdesk/crewdesk/internal/app/system/auth"
	"github.com/crewdesk/crewdesk/internal/app/system/inputval"
	"github.com/crewdesk/crewdesk/internal/app/system/respond"
	"github.com/crewdesk/crewdesk/internal/app/system/timeouts"
	"github.com/crewdesk/crewdesk/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// HandleList returns the company's active templates.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	p := sysauth.MustFromContext(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	items, err := h.Templates.List(ctx, p.CompanyID)
	if err != nil {
		respond.ServerError(w, h.Log, "list templates", err)
		return
	}
	if items == nil {
		items = []models.TaskTemplate{}
	}
	respond.JSON(w, http.StatusOK, items)
}

type createRequest struct {
	Name           string  `json:"name" validate:"required,min=2,max=100"`
	Title          string  `json:"title" validate:"required,min=1,max=200"`
	Description    string  `json:"description" validate:"max=5000"`
	Priority       string  `json:"priority" validate:"omitempty,oneof=low medium high"`
	EstimatedHours float64 `json:"estimated_hours" validate:"omitempty,gt=0,lte=1000"`
}

// HandleCreate defines a new template.
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

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	tmpl, err := h.Templates.Create(ctx, models.TaskTemplate{
		Name:           req.Name,
		Title:          req.Title,
		Description:    req.Description,
		Priority:       req.Priority,
		EstimatedHours: req.EstimatedHours,
		CreatedBy:      p.UserID,
		CompanyID:      p.CompanyID,
	})
	if err != nil {
		respond.ServerError(w, h.Log, "create template", err)
		return
	}

	h.Activity.Record(p, "created template", tmpl.Name, r)
	respond.JSON(w, http.StatusCreated, tmpl)
}

type updateRequest struct {
	Name           *string  `json:"name"`
	Title          *string  `json:"title"`
	Description    *string  `json:"description"`
	Priority       *string  `json:"priority"`
	EstimatedHours *float64 `json:"estimated_hours"`
}

// HandleUpdate applies a partial template update.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	p := sysauth.MustFromContext(r.Context())

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respond.BadRequest(w, "Invalid template id")
		return
	}
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, "Invalid request body")
		return
	}
	if req.Priority != nil && !models.ValidPriority(*req.Priority) {
		respond.BadRequest(w, "Invalid priority")
		return
	}
	if req.Name != nil && *req.Name == "" {
		respond.BadRequest(w, "Name cannot be empty")
		return
	}
	if req.Title != nil && *req.Title == "" {
		respond.BadRequest(w, "Title cannot be empty")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	tmpl, err := h.Templates.Apply(ctx, p.CompanyID, id, templatestore.Update{
		Name:           req.Name,
		Title:          req.Title,
		Description:    req.Description,
		Priority:       req.Priority,
		EstimatedHours: req.EstimatedHours,
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			respond.NotFound(w, "Template")
			return
		}
		respond.ServerError(w, h.Log, "update template", err)
		return
	}
	respond.JSON(w, http.StatusOK, tmpl)
}

// HandleDelete deactivates a template. Tasks created from it stay as they
// are.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	p := sysauth.MustFromContext(r.Context())

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respond.BadRequest(w, "Invalid template id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Templates.Deactivate(ctx, p.CompanyID, id); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			respond.NotFound(w, "Template")
			return
		}
		respond.ServerError(w, h.Log, "delete template", err)
		return
	}
	respond.Message(w, http.StatusOK, "Template deleted")
}
