// internal/app/lifecycle/errors.go
package lifecycle

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidEmail is returned when the invite email is empty or malformed.
	ErrInvalidEmail = errors.New("invalid email address")
	// ErrInvalidRole is returned when the requested role is not grantable
	// through provisioning (unknown roles and the founder role).
	ErrInvalidRole = errors.New("invalid role")
	// ErrPendingInvite is returned when a pending invite already exists for
	// the email.
	ErrPendingInvite = errors.New("a pending invite already exists for this email")
	// ErrAlreadyMember is returned when an account already exists for the
	// email.
	ErrAlreadyMember = errors.New("an account already exists for this email")
	// ErrInviteNotFound is returned for unknown ids and dead tokens
	// (never issued, rotated away, accepted, or revoked).
	ErrInviteNotFound = errors.New("invite not found")
	// ErrInviteExpired is returned when the invite's deadline has passed.
	ErrInviteExpired = errors.New("invite has expired")
	// ErrInviteNotPending is returned by resend when the invite has already
	// reached a terminal state.
	ErrInviteNotPending = errors.New("invite is no longer pending")
	// ErrUserNotFound is returned by account mutations targeting an unknown
	// uid.
	ErrUserNotFound = errors.New("user not found")
	// ErrFounderImmutable is returned by account mutations targeting the
	// founder account.
	ErrFounderImmutable = errors.New("the founder account cannot be modified")
)

// EmailMismatchError is returned when the signed-in identity's email does
// not match the invited email. Both values are normalized before comparing.
type EmailMismatchError struct {
	InviteEmail  string
	AccountEmail string
}

func (e *EmailMismatchError) Error() string {
	return fmt.Sprintf("invite was issued to %s; you are signed in as %s", e.InviteEmail, e.AccountEmail)
}
