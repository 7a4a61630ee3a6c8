package team

import (
	sysauth "github.com/crewdesk/crewdesk/internal/app/system/auth"
	"github.com/crewdesk/crewdesk/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, gate *sysauth.Gate) chi.Router {
	r := chi.NewRouter()
	r.Use(gate.RequireAuth)
	r.Use(authz.RequireElevated)

	r.Get("/employees", h.HandleEmployees)
	r.Get("/performance", h.HandlePerformance)
	r.Post("/assign-task", h.HandleAssignTask)
	r.Post("/invite", h.HandleInvite)
	r.Put("/users/{id}", h.HandleUpdateMember)
	r.Delete("/users/{id}", h.HandleDeleteMember)
	r.Post("/notify-meeting", h.HandleNotifyMeeting)

	return r
}
