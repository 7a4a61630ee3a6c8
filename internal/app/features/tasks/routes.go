package tasks

import (
	sysauth "github.com/crewdesk/crewdesk/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, gate *sysauth.Gate) chi.Router {
	r := chi.NewRouter()
	r.Use(gate.RequireAuth)

	r.Get("/", h.HandleList)
	r.Post("/", h.HandleCreate)
	r.Get("/{id}", h.HandleGet)
	r.Put("/{id}", h.HandleUpdate)
	r.Get("/{id}/files", h.HandleListFiles)
	r.Post("/{id}/files", h.HandleUploadFile)

	return r
}
