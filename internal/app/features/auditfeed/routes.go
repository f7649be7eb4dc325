// internal/app/features/auditfeed/routes.go
package auditfeed

import "github.com/go-chi/chi/v5"

// Routes returns the audit trail subrouter, mounted under /audit.
// The caller wraps it with RequireRole(founder, admin).
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeList)
	return r
}
