package logs

import (
	sysauth "github.com/crewdesk/crewdesk/internal/app/system/auth"
	"github.com/crewdesk/crewdesk/internal/app/system/authz"
	"github.com/crewdesk/crewdesk/internal/app/system/tenant"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, gate *sysauth.Gate) chi.Router {
	r := chi.NewRouter()
	r.Use(gate.RequireAuth)
	r.Use(authz.RequireRole(tenant.RoleAdmin))

	r.Get("/", h.HandleList)

	return r
}
