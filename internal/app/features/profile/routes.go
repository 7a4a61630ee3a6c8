package profile

import (
	sysauth "github.com/crewdesk/crewdesk/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, gate *sysauth.Gate) chi.Router {
	r := chi.NewRouter()
	r.Use(gate.RequireAuth)

	r.Get("/profile", h.HandleGet)
	r.Put("/profile", h.HandleUpdate)
	r.Put("/change-password", h.HandleChangePassword)

	return r
}
