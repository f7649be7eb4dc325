// internal/app/lifecycle/accounts.go
package lifecycle

import (
	"context"
	"errors"
	"strings"

	userstore "github.com/dalemusser/gatehouse/internal/app/store/users"
	"github.com/dalemusser/gatehouse/internal/app/system/auditlog"
	"github.com/dalemusser/gatehouse/internal/app/system/normalize"
	"github.com/dalemusser/gatehouse/internal/domain/models"
)

// guardSubject enforces the founder protection shared by every account
// mutation: the founder account is immutable through this API, no matter
// who the actor is.
func (m *Manager) guardSubject(subjectUID string) error {
	if m.founderUID != "" && subjectUID == m.founderUID {
		return ErrFounderImmutable
	}
	return nil
}

// UpdateUserRole changes an account's role and mirrors the change into the
// identity provider's role claim. The founder role is not grantable here,
// and the founder account is not a valid subject.
func (m *Manager) UpdateUserRole(ctx context.Context, meta auditlog.RequestMeta, actorUID, subjectUID, role string) error {
	if err := m.guardSubject(subjectUID); err != nil {
		return err
	}
	role = normalize.Role(role)
	if !models.ValidInviteRole(role) {
		return ErrInvalidRole
	}

	u, err := m.users.GetByUID(ctx, subjectUID)
	if err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if u.Role == models.RoleFounder {
		return ErrFounderImmutable
	}

	if err := m.users.UpdateRole(ctx, subjectUID, role); err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	m.setRoleClaim(ctx, subjectUID, role)
	m.audit.RoleUpdated(ctx, meta, actorUID, subjectUID, u.Role, role)
	return nil
}

// AssignProjects replaces an account's project assignment set. Slugs are
// trimmed, lowercased, and de-duplicated; an empty list clears all
// assignments.
func (m *Manager) AssignProjects(ctx context.Context, meta auditlog.RequestMeta, actorUID, subjectUID string, projects []string) error {
	if err := m.guardSubject(subjectUID); err != nil {
		return err
	}

	u, err := m.users.GetByUID(ctx, subjectUID)
	if err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if u.Role == models.RoleFounder {
		return ErrFounderImmutable
	}

	cleaned := cleanSlugs(projects)
	if err := m.users.AssignProjects(ctx, subjectUID, cleaned); err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	m.audit.ProjectsAssigned(ctx, meta, actorUID, subjectUID, cleaned)
	return nil
}

// DeactivateUser marks an account inactive. Session refresh picks the
// change up on the account's next request, so access ends without waiting
// for cookie expiry.
func (m *Manager) DeactivateUser(ctx context.Context, meta auditlog.RequestMeta, actorUID, subjectUID string) error {
	if err := m.guardSubject(subjectUID); err != nil {
		return err
	}

	u, err := m.users.GetByUID(ctx, subjectUID)
	if err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if u.Role == models.RoleFounder {
		return ErrFounderImmutable
	}

	if err := m.users.Deactivate(ctx, subjectUID); err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	m.audit.AccountDeactivated(ctx, meta, actorUID, subjectUID)
	return nil
}

// ListUsers returns provisioned accounts newest first.
func (m *Manager) ListUsers(ctx context.Context, limit, offset int64) ([]models.User, error) {
	return m.users.List(ctx, limit, offset)
}

// GetUser loads an account by uid.
func (m *Manager) GetUser(ctx context.Context, uid string) (*models.User, error) {
	u, err := m.users.GetByUID(ctx, uid)
	if err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

func cleanSlugs(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
