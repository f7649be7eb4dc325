// internal/app/features/accounts/handler.go
package accounts

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/dalemusser/gatehouse/internal/app/features/apierr"
	"github.com/dalemusser/gatehouse/internal/app/lifecycle"
	"github.com/dalemusser/gatehouse/internal/app/system/auditlog"
	"github.com/dalemusser/gatehouse/internal/app/system/auth"
	"github.com/dalemusser/gatehouse/internal/app/system/timeouts"
	"github.com/dalemusser/gatehouse/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler serves the guarded account-management endpoints. Routes are
// mounted behind RequireRole(founder, admin).
type Handler struct {
	Log       *zap.Logger
	Lifecycle *lifecycle.Manager
	ErrLog    *apierr.ErrorLogger
}

// NewHandler constructs an accounts Handler.
func NewHandler(lc *lifecycle.Manager, errLog *apierr.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Log: logger, Lifecycle: lc, ErrLog: errLog}
}

type userResponse struct {
	UID              string    `json:"uid"`
	Email            string    `json:"email"`
	DisplayName      string    `json:"display_name,omitempty"`
	Role             string    `json:"role"`
	Status           string    `json:"status"`
	AssignedProjects []string  `json:"assigned_projects"`
	CreatedAt        time.Time `json:"created_at"`
}

func toResponse(u models.User) userResponse {
	projects := u.AssignedProjects
	if projects == nil {
		projects = []string{}
	}
	return userResponse{
		UID:              u.UID,
		Email:            u.Email,
		DisplayName:      u.DisplayName,
		Role:             u.Role,
		Status:           u.Status,
		AssignedProjects: projects,
		CreatedAt:        u.CreatedAt,
	}
}

// ServeList handles GET /accounts.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	limit := int64(100)
	if v, err := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64); err == nil && v > 0 && v <= 500 {
		limit = v
	}
	var offset int64
	if v, err := strconv.ParseInt(r.URL.Query().Get("offset"), 10, 64); err == nil && v > 0 {
		offset = v
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	users, err := h.Lifecycle.ListUsers(ctx, limit, offset)
	if err != nil {
		h.ErrLog.Internal(w, "list accounts failed", err)
		return
	}

	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toResponse(u))
	}
	apierr.JSON(w, http.StatusOK, map[string]any{"accounts": out})
}

// ServeGet handles GET /accounts/{uid}.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Lifecycle.GetUser(ctx, chi.URLParam(r, "uid"))
	if err != nil {
		h.ErrLog.Lifecycle(w, err)
		return
	}
	apierr.JSON(w, http.StatusOK, toResponse(*u))
}

// ServeUpdateRole handles POST /accounts/{uid}/role.
func (h *Handler) ServeUpdateRole(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Role string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	actor, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Lifecycle.UpdateUserRole(ctx, auditlog.Meta(r), actor.UID, chi.URLParam(r, "uid"), req.Role); err != nil {
		h.ErrLog.Lifecycle(w, err)
		return
	}
	apierr.JSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// ServeAssignProjects handles POST /accounts/{uid}/projects.
func (h *Handler) ServeAssignProjects(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Projects []string `json:"projects"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	actor, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Lifecycle.AssignProjects(ctx, auditlog.Meta(r), actor.UID, chi.URLParam(r, "uid"), req.Projects); err != nil {
		h.ErrLog.Lifecycle(w, err)
		return
	}
	apierr.JSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// ServeDeactivate handles POST /accounts/{uid}/deactivate.
func (h *Handler) ServeDeactivate(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Lifecycle.DeactivateUser(ctx, auditlog.Meta(r), actor.UID, chi.URLParam(r, "uid")); err != nil {
		h.ErrLog.Lifecycle(w, err)
		return
	}
	apierr.JSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}
