// internal/app/features/apierr/apierr.go
//
// Package apierr is the single place HTTP handlers turn errors and payloads
// into JSON responses, so status mapping stays consistent across features.
package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dalemusser/gatehouse/internal/app/lifecycle"
	"go.uber.org/zap"
)

// ErrorLogger pairs error responses with structured logging so internal
// failures are never silently swallowed.
type ErrorLogger struct {
	log *zap.Logger
}

// NewErrorLogger creates an ErrorLogger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{log: logger}
}

// JSON writes payload with the given status.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// Error writes a JSON error body with the given status.
func Error(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, map[string]string{"error": msg})
}

// Internal logs err and responds 500 without leaking details to the caller.
func (e *ErrorLogger) Internal(w http.ResponseWriter, msg string, err error, fields ...zap.Field) {
	e.log.Error(msg, append(fields, zap.Error(err))...)
	Error(w, http.StatusInternalServerError, "internal error")
}

// Lifecycle maps a lifecycle error onto its HTTP status. Unrecognized
// errors are treated as internal.
func (e *ErrorLogger) Lifecycle(w http.ResponseWriter, err error) {
	var mismatch *lifecycle.EmailMismatchError

	switch {
	case errors.Is(err, lifecycle.ErrInvalidEmail),
		errors.Is(err, lifecycle.ErrInvalidRole):
		Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, lifecycle.ErrPendingInvite),
		errors.Is(err, lifecycle.ErrAlreadyMember),
		errors.Is(err, lifecycle.ErrInviteNotPending):
		Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, lifecycle.ErrInviteNotFound),
		errors.Is(err, lifecycle.ErrUserNotFound):
		Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, lifecycle.ErrInviteExpired):
		Error(w, http.StatusGone, err.Error())
	case errors.Is(err, lifecycle.ErrFounderImmutable):
		Error(w, http.StatusForbidden, err.Error())
	case errors.As(err, &mismatch):
		Error(w, http.StatusForbidden, mismatch.Error())
	default:
		e.log.Error("unhandled lifecycle error", zap.Error(err))
		Error(w, http.StatusInternalServerError, "internal error")
	}
}
