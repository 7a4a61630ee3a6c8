package analytics

import (
	sysauth "github.com/crewdesk/crewdesk/internal/app/system/auth"
	"github.com/crewdesk/crewdesk/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, gate *sysauth.Gate) chi.Router {
	r := chi.NewRouter()
	r.Use(gate.RequireAuth)
	r.Use(authz.RequireElevated)

	r.Get("/completion-time", h.HandleCompletionTime)
	r.Get("/velocity", h.HandleVelocity)
	r.Get("/workload", h.HandleWorkload)
	r.Get("/trends", h.HandleTrends)

	return r
}
