// internal/app/features/auditfeed/handler.go
package auditfeed

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/dalemusser/gatehouse/internal/app/features/apierr"
	"github.com/dalemusser/gatehouse/internal/app/store/audit"
	"github.com/dalemusser/gatehouse/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"go.uber.org/zap"
)

// Handler serves the audit trail endpoint for administrators.
type Handler struct {
	Log    *zap.Logger
	Store  *audit.Store
	ErrLog *apierr.ErrorLogger
}

// NewHandler constructs an auditfeed Handler.
func NewHandler(store *audit.Store, errLog *apierr.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Log: logger, Store: store, ErrLog: errLog}
}

type eventResponse struct {
	ID            string            `json:"id"`
	Timestamp     time.Time         `json:"timestamp"`
	Category      string            `json:"category"`
	EventType     string            `json:"event_type"`
	ActorUID      string            `json:"actor_uid,omitempty"`
	SubjectUID    string            `json:"subject_uid,omitempty"`
	InviteID      string            `json:"invite_id,omitempty"`
	IP            string            `json:"ip,omitempty"`
	Success       bool              `json:"success"`
	FailureReason string            `json:"failure_reason,omitempty"`
	Details       map[string]string `json:"details,omitempty"`
}

// ServeList handles GET /audit.
//
// Filters: category, event_type, actor, subject, start, end (RFC 3339),
// limit, offset. Results are newest first with a total for pagination.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	filter := audit.QueryFilter{
		Category:   query.Get(r, "category"),
		EventType:  query.Get(r, "event_type"),
		ActorUID:   query.Get(r, "actor"),
		SubjectUID: query.Get(r, "subject"),
		Limit:      100,
	}
	if v, err := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64); err == nil && v > 0 && v <= 500 {
		filter.Limit = v
	}
	if v, err := strconv.ParseInt(r.URL.Query().Get("offset"), 10, 64); err == nil && v > 0 {
		filter.Offset = v
	}
	if s := query.Get(r, "start"); s != "" {
		ts, err := time.Parse(time.RFC3339, s)
		if err != nil {
			apierr.Error(w, http.StatusBadRequest, "start must be RFC 3339")
			return
		}
		filter.StartTime = &ts
	}
	if s := query.Get(r, "end"); s != "" {
		ts, err := time.Parse(time.RFC3339, s)
		if err != nil {
			apierr.Error(w, http.StatusBadRequest, "end must be RFC 3339")
			return
		}
		filter.EndTime = &ts
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	events, err := h.Store.Query(ctx, filter)
	if err != nil {
		h.ErrLog.Internal(w, "audit query failed", err)
		return
	}
	total, err := h.Store.CountByFilter(ctx, filter)
	if err != nil {
		h.ErrLog.Internal(w, "audit count failed", err)
		return
	}

	out := make([]eventResponse, 0, len(events))
	for _, e := range events {
		resp := eventResponse{
			ID:            e.ID.Hex(),
			Timestamp:     e.Timestamp,
			Category:      e.Category,
			EventType:     e.EventType,
			ActorUID:      e.ActorUID,
			SubjectUID:    e.SubjectUID,
			IP:            e.IP,
			Success:       e.Success,
			FailureReason: e.FailureReason,
			Details:       e.Details,
		}
		if e.InviteID != nil {
			resp.InviteID = e.InviteID.Hex()
		}
		out = append(out, resp)
	}

	apierr.JSON(w, http.StatusOK, map[string]any{
		"events": out,
		"total":  total,
	})
}
