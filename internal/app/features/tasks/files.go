package tasks

import (
	"context"
	"net/http"

	sysauth "github.com/crewdesk/crewdesk/internal/app/system/auth"
	"github.com/crewdesk/crewdesk/internal/app/system/respond"
	"github.com/crewdesk/crewdesk/internal/app/system/timeouts"
	"github.com/crewdesk/crewdesk/internal/domain/models"
	"go.uber.org/zap"
)

// maxUploadBytes caps a single attachment at 10 MiB.
const maxUploadBytes = 10 << 20

// HandleUploadFile attaches a multipart file (field "file") to a task. The
// blob lands in storage first; only then is the task_files record written.
func (h *Handler) HandleUploadFile(w http.ResponseWriter, r *http.Request) {
	p := sysauth.MustFromContext(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	task, ok := h.loadVisible(ctx, w, r, p)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respond.BadRequest(w, "File too large or malformed upload")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		respond.BadRequest(w, "Missing file field")
		return
	}
	defer file.Close()

	stored, err := h.Blobs.Save(ctx, header.Filename, file)
	if err != nil {
		respond.ServerError(w, h.Log, "store upload", err)
		return
	}

	rec, err := h.Files.Create(ctx, models.TaskFile{
		TaskID:      task.ID,
		CompanyID:   p.CompanyID,
		Filename:    header.Filename,
		URL:         stored.URL,
		Size:        stored.Size,
		ContentType: header.Header.Get("Content-Type"),
		UploadedBy:  p.UserID,
	})
	if err != nil {
		// The record failed; do not leave an orphan blob behind.
		if rmErr := h.Blobs.Remove(ctx, stored.Key); rmErr != nil {
			h.Log.Warn("removing orphan blob", zap.String("key", stored.Key), zap.Error(rmErr))
		}
		respond.ServerError(w, h.Log, "record upload", err)
		return
	}

	h.Activity.Record(p, "uploaded file", header.Filename+" to "+task.Title, r)
	respond.JSON(w, http.StatusCreated, rec)
}

// HandleListFiles returns a task's attachments, newest first.
func (h *Handler) HandleListFiles(w http.ResponseWriter, r *http.Request) {
	p := sysauth.MustFromContext(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	task, ok := h.loadVisible(ctx, w, r, p)
	if !ok {
		return
	}

	files, err := h.Files.ListByTask(ctx, p.CompanyID, task.ID)
	if err != nil {
		respond.ServerError(w, h.Log, "list task files", err)
		return
	}
	if files == nil {
		files = []models.TaskFile{}
	}
	respond.JSON(w, http.StatusOK, files)
}
