// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/gatehouse/internal/app/store/audit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Config holds audit logging configuration. Each setting controls one event
// category and takes "all" (MongoDB + zap), "db" (MongoDB only), "log"
// (zap only), or "off" (disabled).
type Config struct {
	// Invite controls logging for invite lifecycle events.
	Invite string
	// Account controls logging for guarded account mutations.
	Account string
	// Auth controls logging for sign-in and sign-out events.
	Auth string
}

// Logger provides convenience methods for logging audit events.
// It logs to both MongoDB (via audit.Store) and structured logs (via zap).
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

// RequestMeta captures the per-request context attached to events. Handlers
// build one with Meta(r); non-HTTP callers pass the zero value.
type RequestMeta struct {
	IP        string
	UserAgent string
}

// Meta extracts request metadata for audit events.
func Meta(r *http.Request) RequestMeta {
	return RequestMeta{IP: clientIP(r), UserAgent: r.UserAgent()}
}

// clientIP extracts the client IP from the request.
func clientIP(r *http.Request) string {
	// X-Forwarded-For first (for reverse proxies)
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}

	if event.ActorUID != "" {
		fields = append(fields, zap.String("actor_uid", event.ActorUID))
	}
	if event.SubjectUID != "" {
		fields = append(fields, zap.String("subject_uid", event.SubjectUID))
	}
	if event.InviteID != nil {
		fields = append(fields, zap.String("invite_id", event.InviteID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// If the logger is nil, this is a no-op (allows tests to use nil audit logger).
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryInvite:
		setting = l.config.Invite
	case audit.CategoryAccount:
		setting = l.config.Account
	case audit.CategoryAuth:
		setting = l.config.Auth
	default:
		setting = "all" // log everything for unknown categories
	}

	if setting == "off" {
		return
	}

	if setting == "all" || setting == "log" {
		l.logToZap(event)
	}

	if setting == "all" || setting == "db" {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

// --- Invite events ---

// InviteCreated logs a new invite being issued.
func (l *Logger) InviteCreated(ctx context.Context, meta RequestMeta, actorUID string, inviteID primitive.ObjectID, email, role string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryInvite,
		EventType: audit.EventInviteCreated,
		ActorUID:  actorUID,
		InviteID:  &inviteID,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
		Success:   true,
		Details:   map[string]string{"email": email, "role": role},
	})
}

// InviteResent logs a token rotation triggered by resend.
func (l *Logger) InviteResent(ctx context.Context, meta RequestMeta, actorUID string, inviteID primitive.ObjectID, email string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryInvite,
		EventType: audit.EventInviteResent,
		ActorUID:  actorUID,
		InviteID:  &inviteID,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
		Success:   true,
		Details:   map[string]string{"email": email},
	})
}

// InviteRevoked logs an administrative revocation.
func (l *Logger) InviteRevoked(ctx context.Context, meta RequestMeta, actorUID string, inviteID primitive.ObjectID, email string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryInvite,
		EventType: audit.EventInviteRevoked,
		ActorUID:  actorUID,
		InviteID:  &inviteID,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
		Success:   true,
		Details:   map[string]string{"email": email},
	})
}

// InviteExpired logs a lazy expiry observed during resolution.
func (l *Logger) InviteExpired(ctx context.Context, inviteID primitive.ObjectID, email string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryInvite,
		EventType: audit.EventInviteExpired,
		InviteID:  &inviteID,
		Success:   true,
		Details:   map[string]string{"email": email},
	})
}

// InviteAccepted logs a successful acceptance.
func (l *Logger) InviteAccepted(ctx context.Context, meta RequestMeta, uid string, inviteID primitive.ObjectID, email, role string) {
	l.Log(ctx, audit.Event{
		Category:   audit.CategoryInvite,
		EventType:  audit.EventInviteAccepted,
		ActorUID:   uid,
		SubjectUID: uid,
		InviteID:   &inviteID,
		IP:         meta.IP,
		UserAgent:  meta.UserAgent,
		Success:    true,
		Details:    map[string]string{"email": email, "role": role},
	})
}

// InviteAcceptDenied logs a rejected acceptance attempt (email mismatch,
// dead token, and similar).
func (l *Logger) InviteAcceptDenied(ctx context.Context, meta RequestMeta, uid string, inviteID *primitive.ObjectID, reason string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryInvite,
		EventType:     audit.EventInviteAccepted,
		ActorUID:      uid,
		InviteID:      inviteID,
		IP:            meta.IP,
		UserAgent:     meta.UserAgent,
		Success:       false,
		FailureReason: reason,
	})
}

// --- Account events ---

// RoleUpdated logs a guarded role change.
func (l *Logger) RoleUpdated(ctx context.Context, meta RequestMeta, actorUID, subjectUID, oldRole, newRole string) {
	l.Log(ctx, audit.Event{
		Category:   audit.CategoryAccount,
		EventType:  audit.EventRoleUpdated,
		ActorUID:   actorUID,
		SubjectUID: subjectUID,
		IP:         meta.IP,
		UserAgent:  meta.UserAgent,
		Success:    true,
		Details:    map[string]string{"old_role": oldRole, "new_role": newRole},
	})
}

// ProjectsAssigned logs a project assignment replacement.
func (l *Logger) ProjectsAssigned(ctx context.Context, meta RequestMeta, actorUID, subjectUID string, projects []string) {
	l.Log(ctx, audit.Event{
		Category:   audit.CategoryAccount,
		EventType:  audit.EventProjectsAssigned,
		ActorUID:   actorUID,
		SubjectUID: subjectUID,
		IP:         meta.IP,
		UserAgent:  meta.UserAgent,
		Success:    true,
		Details:    map[string]string{"projects": strings.Join(projects, ",")},
	})
}

// AccountDeactivated logs a guarded deactivation.
func (l *Logger) AccountDeactivated(ctx context.Context, meta RequestMeta, actorUID, subjectUID string) {
	l.Log(ctx, audit.Event{
		Category:   audit.CategoryAccount,
		EventType:  audit.EventAccountDeactivated,
		ActorUID:   actorUID,
		SubjectUID: subjectUID,
		IP:         meta.IP,
		UserAgent:  meta.UserAgent,
		Success:    true,
	})
}

// --- Auth events ---

// LoginSuccess logs a completed OAuth sign-in.
func (l *Logger) LoginSuccess(ctx context.Context, meta RequestMeta, uid, email string) {
	l.Log(ctx, audit.Event{
		Category:   audit.CategoryAuth,
		EventType:  audit.EventLoginSuccess,
		ActorUID:   uid,
		SubjectUID: uid,
		IP:         meta.IP,
		UserAgent:  meta.UserAgent,
		Success:    true,
		Details:    map[string]string{"email": email},
	})
}

// LoginDenied logs a failed OAuth sign-in (bad state, provider error).
func (l *Logger) LoginDenied(ctx context.Context, meta RequestMeta, reason string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginDenied,
		IP:            meta.IP,
		UserAgent:     meta.UserAgent,
		Success:       false,
		FailureReason: reason,
	})
}

// Logout logs a sign-out.
func (l *Logger) Logout(ctx context.Context, meta RequestMeta, uid string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLogout,
		ActorUID:  uid,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
		Success:   true,
	})
}
