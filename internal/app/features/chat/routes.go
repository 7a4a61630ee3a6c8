package chat

import (
	sysauth "github.com/crewdesk/crewdesk/internal/app/system/auth"
	"github.com/crewdesk/crewdesk/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, gate *sysauth.Gate) chi.Router {
	r := chi.NewRouter()
	r.Use(gate.RequireAuth)

	r.Get("/messages", h.HandleList)
	r.Post("/messages", h.HandleSend)
	r.Get("/messages/unread-count", h.HandleUnreadCount)
	r.Get("/messages/search", h.HandleSearch)
	r.Get("/messages/pinned", h.HandlePinned)
	r.Put("/messages/read-all", h.HandleReadAll)

	r.Put("/messages/{id}", h.HandleEdit)
	r.Delete("/messages/{id}", h.HandleDelete)
	r.Put("/messages/{id}/read", h.HandleMarkRead)
	r.Post("/messages/{id}/reactions", h.HandleAddReaction)
	r.Delete("/messages/{id}/reactions/{emoji}", h.HandleRemoveReaction)
	r.With(authz.RequireElevated).Put("/messages/{id}/pin", h.HandlePin)

	r.Get("/team-members", h.HandleTeamMembers)

	return r
}
