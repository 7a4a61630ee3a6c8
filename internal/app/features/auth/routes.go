package auth

import (
	sysauth "github.com/crewdesk/crewdesk/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, gate *sysauth.Gate) chi.Router {
	r := chi.NewRouter()

	// Public endpoints.
	r.Post("/signup", h.HandleSignup)
	r.Post("/login", h.HandleLogin)
	r.Post("/forgot-password", h.HandleForgotPassword)
	r.Post("/reset-password", h.HandleResetPassword)
	r.Post("/magic-link", h.HandleRequestMagicLink)
	r.Post("/magic-login", h.HandleMagicLogin)

	// Authenticated.
	r.Group(func(pr chi.Router) {
		pr.Use(gate.RequireAuth)
		pr.Get("/me", h.HandleMe)
		pr.Post("/switch-company", h.HandleSwitchCompany)
	})

	return r
}
