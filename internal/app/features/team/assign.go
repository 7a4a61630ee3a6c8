package team

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/crewdesk/crewdesk/internal/app/realtime"
	taskstore "github.com/crewdesk/crewdesk/internal/app/store/tasks"
	sysauth "github.com/crewdesk/crewdesk/internal/app/system/auth"
	"github.com/crewdesk/crewdesk/internal/app/system/inputval"
	"github.com/crewdesk/crewdesk/internal/app/system/respond"
	"github.com/crewdesk/crewdesk/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type assignRequest struct {
	TaskID     string `json:"task_id" validate:"required"`
	AssignedTo string `json:"assigned_to" validate:"required"`
}

// HandleAssignTask hands a task to another member of the company.
func (h *Handler) HandleAssignTask(w http.ResponseWriter, r *http.Request) {
	p := sysauth.MustFromContext(r.Context())

	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, "Invalid request body")
		return
	}
	if err := inputval.Struct(req); err != nil {
		respond.BadRequest(w, err.Error())
		return
	}
	taskID, err := primitive.ObjectIDFromHex(req.TaskID)
	if err != nil {
		respond.BadRequest(w, "Invalid task_id")
		return
	}
	assignee, err := primitive.ObjectIDFromHex(req.AssignedTo)
	if err != nil {
		respond.BadRequest(w, "Invalid assigned_to")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, err := h.Users.GetCompanyMember(ctx, p.CompanyID, assignee); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			respond.BadRequest(w, "Assignee is not a member of this company")
			return
		}
		respond.ServerError(w, h.Log, "assign task member lookup", err)
		return
	}

	task, err := h.Tasks.Apply(ctx, p.CompanyID, taskID, taskstore.Update{AssignedTo: &assignee}, nil)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			respond.NotFound(w, "Task")
			return
		}
		respond.ServerError(w, h.Log, "assign task", err)
		return
	}

	if assignee != p.UserID {
		h.Notify.TaskAssigned(assignee, task.ID, task.Title)
	}
	h.Hub.BroadcastToCompany(p.CompanyID, realtime.Event{
		Type: realtime.EventTaskUpdated,
		Data: task,
	}, p.UserID.Hex())
	h.Activity.Record(p, "assigned task", task.Title, r)

	respond.JSON(w, http.StatusOK, task)
}
