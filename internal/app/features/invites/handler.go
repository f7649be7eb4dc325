// internal/app/features/invites/handler.go
package invites

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/dalemusser/gatehouse/internal/app/features/apierr"
	"github.com/dalemusser/gatehouse/internal/app/lifecycle"
	"github.com/dalemusser/gatehouse/internal/app/system/auditlog"
	"github.com/dalemusser/gatehouse/internal/app/system/auth"
	"github.com/dalemusser/gatehouse/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler serves the admin invite endpoints. Routes are mounted behind
// RequireRole(founder, admin); handlers trust the session user is present.
type Handler struct {
	Log       *zap.Logger
	Lifecycle *lifecycle.Manager
	ErrLog    *apierr.ErrorLogger
}

// NewHandler constructs an invites Handler.
func NewHandler(lc *lifecycle.Manager, errLog *apierr.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Log: logger, Lifecycle: lc, ErrLog: errLog}
}

// ServeCreate handles POST /invites.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	actor, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	inv, err := h.Lifecycle.CreateInvite(ctx, auditlog.Meta(r), actor.UID, lifecycle.CreateInviteParams{
		Email:       req.Email,
		Role:        req.Role,
		ProjectID:   req.ProjectID,
		ProjectName: req.ProjectName,
	})
	if err != nil {
		h.ErrLog.Lifecycle(w, err)
		return
	}

	apierr.JSON(w, http.StatusCreated, toResponse(inv))
}

// ServeList handles GET /invites.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	invites, err := h.Lifecycle.ListInvites(ctx, limit, offset)
	if err != nil {
		h.ErrLog.Internal(w, "list invites failed", err)
		return
	}

	out := make([]inviteResponse, 0, len(invites))
	for _, inv := range invites {
		out = append(out, toResponse(inv))
	}
	apierr.JSON(w, http.StatusOK, map[string]any{"invites": out})
}

// ServeGet handles GET /invites/{id}.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	id, ok := inviteID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	inv, err := h.Lifecycle.GetInvite(ctx, id)
	if err != nil {
		h.ErrLog.Lifecycle(w, err)
		return
	}
	apierr.JSON(w, http.StatusOK, toResponse(*inv))
}

// ServeResend handles POST /invites/{id}/resend.
func (h *Handler) ServeResend(w http.ResponseWriter, r *http.Request) {
	id, ok := inviteID(w, r)
	if !ok {
		return
	}
	actor, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	inv, err := h.Lifecycle.ResendInvite(ctx, auditlog.Meta(r), actor.UID, id)
	if err != nil {
		h.ErrLog.Lifecycle(w, err)
		return
	}
	apierr.JSON(w, http.StatusOK, toResponse(inv))
}

// ServeRevoke handles POST /invites/{id}/revoke.
func (h *Handler) ServeRevoke(w http.ResponseWriter, r *http.Request) {
	id, ok := inviteID(w, r)
	if !ok {
		return
	}
	actor, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Lifecycle.RevokeInvite(ctx, auditlog.Meta(r), actor.UID, id); err != nil {
		h.ErrLog.Lifecycle(w, err)
		return
	}
	apierr.JSON(w, http.StatusOK, map[string]string{"status": "revoked"})
}

// inviteID parses the {id} route parameter, responding 404 on garbage so
// malformed ids and unknown ids look the same to the caller.
func inviteID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		apierr.Error(w, http.StatusNotFound, "invite not found")
		return primitive.NilObjectID, false
	}
	return id, true
}

func pagination(r *http.Request) (limit, offset int64) {
	limit = 100
	if v, err := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64); err == nil && v > 0 && v <= 500 {
		limit = v
	}
	if v, err := strconv.ParseInt(r.URL.Query().Get("offset"), 10, 64); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}
