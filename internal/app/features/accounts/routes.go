// internal/app/features/accounts/routes.go
package accounts

import "github.com/go-chi/chi/v5"

// Routes returns the account-management subrouter, mounted under /accounts.
// The caller wraps it with RequireRole(founder, admin).
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ServeList)
	r.Get("/{uid}", h.ServeGet)
	r.Post("/{uid}/role", h.ServeUpdateRole)
	r.Post("/{uid}/projects", h.ServeAssignProjects)
	r.Post("/{uid}/deactivate", h.ServeDeactivate)

	return r
}
