// internal/app/features/acceptinvite/handler.go
package acceptinvite

import (
	"context"
	"net/http"
	"time"

	"github.com/dalemusser/gatehouse/internal/app/features/apierr"
	"github.com/dalemusser/gatehouse/internal/app/lifecycle"
	"github.com/dalemusser/gatehouse/internal/app/system/auditlog"
	"github.com/dalemusser/gatehouse/internal/app/system/auth"
	"github.com/dalemusser/gatehouse/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler serves the invitee-facing magic-link endpoints.
type Handler struct {
	Log       *zap.Logger
	Lifecycle *lifecycle.Manager
	Sessions  *auth.Manager
	ErrLog    *apierr.ErrorLogger
}

// NewHandler constructs an acceptinvite Handler.
func NewHandler(lc *lifecycle.Manager, sessions *auth.Manager, errLog *apierr.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Log: logger, Lifecycle: lc, Sessions: sessions, ErrLog: errLog}
}

// resolveResponse is what the invite landing page renders from: enough to
// tell the visitor who the invite is for and what it grants. No ids, no
// token echo.
type resolveResponse struct {
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	ProjectName string    `json:"project_name,omitempty"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// acceptResponse reports the provisioned account after acceptance.
type acceptResponse struct {
	UID              string   `json:"uid"`
	Email            string   `json:"email"`
	Role             string   `json:"role"`
	Status           string   `json:"status"`
	AssignedProjects []string `json:"assigned_projects"`
}

// ServeResolve handles GET /invite/{token}. Public: the token itself is the
// credential.
func (h *Handler) ServeResolve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	inv, err := h.Lifecycle.ResolveByToken(ctx, chi.URLParam(r, "token"))
	if err != nil {
		h.ErrLog.Lifecycle(w, err)
		return
	}

	apierr.JSON(w, http.StatusOK, resolveResponse{
		Email:       inv.Email,
		Role:        inv.Role,
		ProjectName: inv.ProjectName,
		ExpiresAt:   inv.ExpiresAt,
	})
}

// ServeAccept handles POST /invite/{token}/accept. The caller must be
// signed in (a guest session from the OAuth flow is enough); the signed-in
// email must match the invited email.
func (h *Handler) ServeAccept(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r) // RequireSignedIn guarantees presence

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	user, err := h.Lifecycle.AcceptInvite(ctx, auditlog.Meta(r), chi.URLParam(r, "token"), lifecycle.AcceptIdentity{
		UID:         u.UID,
		Email:       u.Email,
		DisplayName: u.Name,
	})
	if err != nil {
		h.ErrLog.Lifecycle(w, err)
		return
	}

	// Upgrade the guest session in place so the new role applies without a
	// second sign-in.
	if err := h.Sessions.SignIn(w, r, &auth.SessionUser{
		UID:   user.UID,
		Name:  user.DisplayName,
		Email: user.Email,
		Role:  user.Role,
	}); err != nil {
		h.Log.Error("session upgrade after accept failed",
			zap.String("uid", user.UID),
			zap.Error(err))
	}

	apierr.JSON(w, http.StatusOK, acceptResponse{
		UID:              user.UID,
		Email:            user.Email,
		Role:             user.Role,
		Status:           user.Status,
		AssignedProjects: user.AssignedProjects,
	})
}
