// internal/app/lifecycle/manager.go
//
// Package lifecycle implements invite provisioning and the guarded account
// mutations around it. Handlers stay thin: every state transition, guard,
// and side effect (email, audit, identity claims) lives here.
package lifecycle

import (
	"context"

	invitestore "github.com/dalemusser/gatehouse/internal/app/store/invites"
	userstore "github.com/dalemusser/gatehouse/internal/app/store/users"
	"github.com/dalemusser/gatehouse/internal/app/system/auditlog"
	"github.com/dalemusser/gatehouse/internal/app/system/identity"
	"github.com/dalemusser/gatehouse/internal/app/system/token"
	"github.com/dalemusser/gatehouse/internal/domain/models"
	"go.uber.org/zap"
)

// Notifier delivers invite email. Delivery is best-effort: the lifecycle
// records and logs failures but never rolls back state because an email
// bounced.
type Notifier interface {
	SendInvite(ctx context.Context, inv models.Invite) error
}

// Deps wires a Manager. Audit may be nil (no-op); Notifier and Identity may
// be nil in tests that don't exercise those side effects.
type Deps struct {
	Invites    *invitestore.Store
	Users      *userstore.Store
	Identity   identity.Provider
	Audit      *auditlog.Logger
	Notifier   Notifier
	Tokens     *token.Issuer
	FounderUID string
	Logger     *zap.Logger
}

// Manager owns the invite state machine and the guarded account mutations.
type Manager struct {
	invites    *invitestore.Store
	users      *userstore.Store
	idp        identity.Provider
	audit      *auditlog.Logger
	notifier   Notifier
	tokens     *token.Issuer
	founderUID string
	log        *zap.Logger
}

// New creates a Manager from deps.
func New(deps Deps) *Manager {
	tokens := deps.Tokens
	if tokens == nil {
		tokens = token.NewIssuer(0)
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		invites:    deps.Invites,
		users:      deps.Users,
		idp:        deps.Identity,
		audit:      deps.Audit,
		notifier:   deps.Notifier,
		tokens:     tokens,
		founderUID: deps.FounderUID,
		log:        logger,
	}
}

// notifyInvite sends the invite email without letting delivery failures
// surface to the caller.
func (m *Manager) notifyInvite(ctx context.Context, inv models.Invite) {
	if m.notifier == nil {
		return
	}
	if err := m.notifier.SendInvite(ctx, inv); err != nil {
		m.log.Warn("invite email delivery failed",
			zap.String("invite_id", inv.ID.Hex()),
			zap.String("email", inv.Email),
			zap.Error(err))
	}
}

// setRoleClaim mirrors a role into the identity provider. The users
// collection is the source of truth; a failed claim write is logged and the
// operation proceeds, since sessions read role from the database anyway.
func (m *Manager) setRoleClaim(ctx context.Context, uid, role string) {
	if m.idp == nil {
		return
	}
	if err := m.idp.SetRoleClaim(ctx, uid, role); err != nil {
		m.log.Error("role claim sync failed",
			zap.String("uid", uid),
			zap.String("role", role),
			zap.Error(err))
	}
}
