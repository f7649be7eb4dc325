// internal/app/lifecycle/invites.go
package lifecycle

import (
	"context"
	"errors"
	"strings"
	"time"

	invitestore "github.com/dalemusser/gatehouse/internal/app/store/invites"
	userstore "github.com/dalemusser/gatehouse/internal/app/store/users"
	"github.com/dalemusser/gatehouse/internal/app/system/auditlog"
	"github.com/dalemusser/gatehouse/internal/app/system/normalize"
	"github.com/dalemusser/gatehouse/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// CreateInviteParams carries the inputs for a new invite.
type CreateInviteParams struct {
	Email       string
	Role        string
	ProjectID   string
	ProjectName string
}

// CreateInvite issues a pending invite with a fresh single-use token and
// dispatches the invite email.
//
// Rejections, in order: malformed email, ungrantable role, an existing
// account for the email, an existing pending invite for the email. The
// pending-invite check is enforced by the store's partial unique index, so
// concurrent creates cannot slip past it.
func (m *Manager) CreateInvite(ctx context.Context, meta auditlog.RequestMeta, actorUID string, p CreateInviteParams) (models.Invite, error) {
	email := normalize.Email(p.Email)
	if email == "" || !strings.Contains(email, "@") {
		return models.Invite{}, ErrInvalidEmail
	}
	role := normalize.Role(p.Role)
	if !models.ValidInviteRole(role) {
		return models.Invite{}, ErrInvalidRole
	}

	if _, err := m.users.GetByEmail(ctx, email); err == nil {
		return models.Invite{}, ErrAlreadyMember
	} else if !errors.Is(err, userstore.ErrNotFound) {
		return models.Invite{}, err
	}

	tok, expiresAt := m.tokens.Issue()
	inv, err := m.invites.Create(ctx, models.Invite{
		Email:       email,
		Role:        role,
		Token:       tok,
		ExpiresAt:   expiresAt,
		InvitedBy:   actorUID,
		ProjectID:   p.ProjectID,
		ProjectName: p.ProjectName,
	})
	if err != nil {
		if errors.Is(err, invitestore.ErrPendingExists) {
			return models.Invite{}, ErrPendingInvite
		}
		return models.Invite{}, err
	}

	m.audit.InviteCreated(ctx, meta, actorUID, inv.ID, inv.Email, inv.Role)
	m.notifyInvite(ctx, inv)
	return inv, nil
}

// ResolveByToken loads the invite a magic link points at.
//
// Expiry is evaluated lazily here: a pending invite whose deadline has
// passed is flipped to expired on this read, and the caller sees
// ErrInviteExpired. Tokens that don't match a pending invite (unknown,
// rotated away, accepted, revoked) all report ErrInviteNotFound.
func (m *Manager) ResolveByToken(ctx context.Context, tok string) (*models.Invite, error) {
	inv, err := m.invites.GetPendingByToken(ctx, tok)
	if err != nil {
		if errors.Is(err, invitestore.ErrNotFound) {
			return nil, ErrInviteNotFound
		}
		return nil, err
	}

	if !inv.Usable(time.Now().UTC()) {
		if err := m.invites.MarkExpired(ctx, inv.ID); err != nil {
			m.log.Error("lazy expiry write failed",
				zap.String("invite_id", inv.ID.Hex()),
				zap.Error(err))
		} else {
			m.audit.InviteExpired(ctx, inv.ID, inv.Email)
		}
		return nil, ErrInviteExpired
	}
	return inv, nil
}

// AcceptIdentity is the authenticated principal accepting an invite.
type AcceptIdentity struct {
	UID         string
	Email       string
	DisplayName string
	PhotoURL    string
}

// AcceptInvite provisions the account a pending invite promises, then
// consumes the invite.
//
// The signed-in identity's email must match the invited email
// (case-insensitively); otherwise acceptance is denied without consuming the
// invite. The account and claim writes come first and are merge-idempotent,
// so a failure between steps leaves the invite pending and the whole
// operation safe to retry. The pending→accepted transition is the last step
// and the single-use gate: exactly one concurrent acceptance wins it, and
// losers see ErrInviteNotFound (their account writes are identical to the
// winner's, so state has already converged).
func (m *Manager) AcceptInvite(ctx context.Context, meta auditlog.RequestMeta, tok string, who AcceptIdentity) (*models.User, error) {
	inv, err := m.ResolveByToken(ctx, tok)
	if err != nil {
		m.audit.InviteAcceptDenied(ctx, meta, who.UID, nil, err.Error())
		return nil, err
	}

	if normalize.Email(who.Email) != inv.Email {
		mismatch := &EmailMismatchError{
			InviteEmail:  inv.Email,
			AccountEmail: normalize.Email(who.Email),
		}
		m.audit.InviteAcceptDenied(ctx, meta, who.UID, &inv.ID, "email mismatch")
		return nil, mismatch
	}

	var projects []string
	if inv.ProjectID != "" {
		projects = []string{inv.ProjectID}
	}
	user, err := m.users.UpsertFromInvite(ctx, userstore.UpsertFromInviteParams{
		UID:         who.UID,
		Email:       inv.Email,
		DisplayName: who.DisplayName,
		PhotoURL:    who.PhotoURL,
		Role:        inv.Role,
		InviteID:    inv.ID,
		Projects:    projects,
	})
	if err != nil {
		return nil, err
	}
	m.setRoleClaim(ctx, who.UID, inv.Role)

	if err := m.invites.MarkAccepted(ctx, inv.ID, who.UID, time.Now().UTC()); err != nil {
		if errors.Is(err, invitestore.ErrNotPending) {
			m.audit.InviteAcceptDenied(ctx, meta, who.UID, &inv.ID, "invite no longer pending")
			return nil, ErrInviteNotFound
		}
		return nil, err
	}

	m.audit.InviteAccepted(ctx, meta, who.UID, inv.ID, inv.Email, inv.Role)
	return user, nil
}

// RevokeInvite marks a pending or expired invite revoked. Revoking an
// already revoked invite is an idempotent success (without a second audit
// entry); an accepted invite is immutable and reports ErrInviteNotPending —
// the account it provisioned is removed with DeactivateUser, not by
// rewriting the invite's history.
func (m *Manager) RevokeInvite(ctx context.Context, meta auditlog.RequestMeta, actorUID string, id primitive.ObjectID) error {
	inv, err := m.invites.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, invitestore.ErrNotFound) {
			return ErrInviteNotFound
		}
		return err
	}

	revoked, err := m.invites.Revoke(ctx, id)
	if err != nil {
		if errors.Is(err, invitestore.ErrNotPending) {
			return ErrInviteNotPending
		}
		return err
	}
	if revoked {
		m.audit.InviteRevoked(ctx, meta, actorUID, id, inv.Email)
	}
	return nil
}

// ResendInvite rotates the token of a pending invite, restarts its expiry
// window, and re-dispatches the invite email. The previous link dies the
// moment the rotation lands. Pending invites past their deadline can still
// be resent; the fresh deadline supersedes the missed one.
func (m *Manager) ResendInvite(ctx context.Context, meta auditlog.RequestMeta, actorUID string, id primitive.ObjectID) (models.Invite, error) {
	inv, err := m.invites.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, invitestore.ErrNotFound) {
			return models.Invite{}, ErrInviteNotFound
		}
		return models.Invite{}, err
	}
	if inv.Status != models.InvitePending {
		return models.Invite{}, ErrInviteNotPending
	}

	tok, expiresAt := m.tokens.Issue()
	if err := m.invites.ReplaceToken(ctx, id, tok, expiresAt); err != nil {
		if errors.Is(err, invitestore.ErrNotPending) {
			return models.Invite{}, ErrInviteNotPending
		}
		return models.Invite{}, err
	}
	inv.Token = tok
	inv.ExpiresAt = expiresAt

	m.audit.InviteResent(ctx, meta, actorUID, id, inv.Email)
	m.notifyInvite(ctx, *inv)
	return *inv, nil
}

// GetInvite loads an invite by id.
func (m *Manager) GetInvite(ctx context.Context, id primitive.ObjectID) (*models.Invite, error) {
	inv, err := m.invites.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, invitestore.ErrNotFound) {
			return nil, ErrInviteNotFound
		}
		return nil, err
	}
	return inv, nil
}

// ListInvites returns invites newest first. Pending invites whose deadline
// has passed are reported as expired without writing; the store record
// flips the next time the token is resolved.
func (m *Manager) ListInvites(ctx context.Context, limit, offset int64) ([]models.Invite, error) {
	invites, err := m.invites.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	for i := range invites {
		if invites[i].Status == models.InvitePending && !invites[i].Usable(now) {
			invites[i].Status = models.InviteExpired
		}
	}
	return invites, nil
}
