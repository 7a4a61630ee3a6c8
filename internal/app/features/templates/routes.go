package templates

import (
	sysauth "github.com/crewdesk/crewdesk/internal/app/system/auth"
	"github.com/crewdesk/crewdesk/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, gate *sysauth.Gate) chi.Router {
	r := chi.NewRouter()
	r.Use(gate.RequireAuth)

	// Anyone can browse templates; changing them takes a manager or admin.
	r.Get("/", h.HandleList)
	r.Group(func(pr chi.Router) {
		pr.Use(authz.RequireElevated)
		pr.Post("/", h.HandleCreate)
		pr.Post("/create-task", h.HandleCreateTask)
		pr.Put("/{id}", h.HandleUpdate)
		pr.Delete("/{id}", h.HandleDelete)
	})

	return r
}
