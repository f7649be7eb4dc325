// internal/app/system/normalize/normalize.go
package normalize

import (
	"strings"

	"github.com/dalemusser/gatehouse/internal/domain/models"
)

// Email lowercases and trims an email address. Invite emails and account
// emails are always stored normalized so matches are case-insensitive.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims a display name, preserving case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// Role lowercases and trims a role value. It does not validate; use
// models.ValidInviteRole for that.
func Role(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Status lowercases and trims a status value, defaulting to active when
// empty.
func Status(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return models.StatusActive
	}
	return s
}
