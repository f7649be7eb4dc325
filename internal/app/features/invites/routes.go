// internal/app/features/invites/routes.go
package invites

import "github.com/go-chi/chi/v5"

// Routes returns the admin invite subrouter, mounted under /invites.
// The caller wraps it with RequireRole(founder, admin).
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ServeList)
	r.Post("/", h.ServeCreate)
	r.Get("/{id}", h.ServeGet)
	r.Post("/{id}/resend", h.ServeResend)
	r.Post("/{id}/revoke", h.ServeRevoke)

	return r
}
