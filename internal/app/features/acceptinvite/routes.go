// internal/app/features/acceptinvite/routes.go
package acceptinvite

import "github.com/go-chi/chi/v5"

// Routes returns the magic-link subrouter, mounted under /invite.
// Resolution is public; acceptance requires a signed-in session.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/{token}", h.ServeResolve)
	r.With(h.Sessions.RequireSignedIn).Post("/{token}/accept", h.ServeAccept)

	return r
}
