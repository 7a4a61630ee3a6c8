package notifications

import (
	sysauth "github.com/crewdesk/crewdesk/internal/app/system/auth"
	"github.com/crewdesk/crewdesk/internal/app/system/authz"
	"github.com/crewdesk/crewdesk/internal/app/system/tenant"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, gate *sysauth.Gate) chi.Router {
	r := chi.NewRouter()
	r.Use(gate.RequireAuth)

	r.Get("/", h.HandleList)
	r.Get("/unread-count", h.HandleUnreadCount)
	r.Put("/mark-all-read", h.HandleMarkAllRead)
	r.Put("/{id}/read", h.HandleMarkRead)
	r.Delete("/{id}", h.HandleDelete)
	r.With(authz.RequireRole(tenant.RoleAdmin)).Post("/", h.HandleCreate)

	return r
}
