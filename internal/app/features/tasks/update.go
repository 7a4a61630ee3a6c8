package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/crewdesk/crewdesk/internal/app/realtime"
	taskstore "github.com/crewdesk/crewdesk/internal/app/store/tasks"
	sysauth "github.com/crewdesk/crewdesk/internal/app/system/auth"
	"github.com/crewdesk/crewdesk/internal/app/system/authz"
	"github.com/crewdesk/crewdesk/internal/app/system/respond"
	"github.com/crewdesk/crewdesk/internal/app/system/timeouts"
	"github.com/crewdesk/crewdesk/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type updateRequest struct {
	Title         *string    `json:"title"`
	Description   *string    `json:"description"`
	Status        *string    `json:"status"`
	Priority      *string    `json:"priority"`
	DueDate       *time.Time `json:"due_date"`
	AssignedTo    *string    `json:"assigned_to"`
	SubmissionURL *string    `json:"submission_url"`
}

// HandleUpdate applies a partial update. Managers and admins may change any
// field; the assignee of a task may only move its status and attach a
// submission URL.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	p := sysauth.MustFromContext(r.Context())

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, "Invalid request body")
		return
	}
	if req.Status != nil && !models.ValidTaskStatus(*req.Status) {
		respond.BadRequest(w, "Invalid status")
		return
	}
	if req.Priority != nil && !models.ValidPriority(*req.Priority) {
		respond.BadRequest(w, "Invalid priority")
		return
	}
	if req.Title != nil && *req.Title == "" {
		respond.BadRequest(w, "Title cannot be empty")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	// loadVisible already distinguishes missing (404) from not-yours (403).
	before, ok := h.loadVisible(ctx, w, r, p)
	if !ok {
		return
	}

	upd := taskstore.Update{
		Title:         req.Title,
		Description:   req.Description,
		Status:        req.Status,
		Priority:      req.Priority,
		DueDate:       req.DueDate,
		SubmissionURL: req.SubmissionURL,
	}

	var restrictTo *primitive.ObjectID
	if !authz.CanViewAllTasks(p) {
		if req.Title != nil || req.Description != nil || req.Priority != nil ||
			req.DueDate != nil || req.AssignedTo != nil {
			respond.Forbidden(w)
			return
		}
		restrictTo = &p.UserID
	} else if req.AssignedTo != nil {
		assignee, err := primitive.ObjectIDFromHex(*req.AssignedTo)
		if err != nil {
			respond.BadRequest(w, "Invalid assigned_to")
			return
		}
		if _, err := h.Users.GetCompanyMember(ctx, p.CompanyID, assignee); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				respond.BadRequest(w, "Assignee is not a member of this company")
				return
			}
			respond.ServerError(w, h.Log, "update task assignee lookup", err)
			return
		}
		upd.AssignedTo = &assignee
	}

	task, err := h.Tasks.Apply(ctx, p.CompanyID, before.ID, upd, restrictTo)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// The task moved between the read and the write.
			respond.NotFound(w, "Task")
			return
		}
		respond.ServerError(w, h.Log, "update task", err)
		return
	}

	h.notifyUpdate(p, before, task)
	h.Hub.BroadcastToCompany(p.CompanyID, realtime.Event{
		Type: realtime.EventTaskUpdated,
		Data: task,
	}, p.UserID.Hex())
	h.Activity.Record(p, "updated task", task.Title, r)

	respond.JSON(w, http.StatusOK, task)
}

// notifyUpdate routes update notifications: a change by someone else tells
// the assignee; a status change by the assignee tells the creator. Newly
// assigned users get an assignment notice instead.
func (h *Handler) notifyUpdate(p sysauth.Principal, before, after *models.Task) {
	if after.AssignedTo != before.AssignedTo && after.AssignedTo != p.UserID {
		h.Notify.TaskAssigned(after.AssignedTo, after.ID, after.Title)
		return
	}
	if after.AssignedTo != p.UserID {
		h.Notify.TaskUpdated(after.AssignedTo, after.ID, after.Title)
		return
	}
	if after.Status != before.Status && after.CreatedBy != p.UserID {
		h.Notify.TaskUpdated(after.CreatedBy, after.ID, after.Title)
	}
}
