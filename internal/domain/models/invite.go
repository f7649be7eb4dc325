// internal/domain/models/invite.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Invite statuses. Transitions are monotonic: pending may move to any of
// the other three; nothing ever re-enters pending. Expired and revoked are
// kept distinct so the audit trail can tell "time ran out" from
// "administrator cancelled it".
const (
	InvitePending  = "pending"
	InviteAccepted = "accepted"
	InviteExpired  = "expired"
	InviteRevoked  = "revoked"
)

// Invite is a persisted offer for a specific email to join with a specific
// role, identified by a single-use token. At most one pending invite may
// exist per email (enforced by a partial unique index).
type Invite struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email  string             `bson:"email" json:"email"` // lowercase
	Role   string             `bson:"role" json:"role"`   // admin | partner | employee
	Status string             `bson:"status" json:"status"`

	// Token is the sole credential used to resolve the invite from an
	// unauthenticated context. Replaced wholesale on resend.
	Token     string    `bson:"token" json:"-"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`

	InvitedBy string `bson:"invited_by" json:"invited_by"` // actor uid

	// Optional project assignment context, meaningful when Role is partner.
	ProjectID   string `bson:"project_id,omitempty" json:"project_id,omitempty"`
	ProjectName string `bson:"project_name,omitempty" json:"project_name,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`

	// Write-once acceptance provenance.
	AcceptedAt *time.Time `bson:"accepted_at,omitempty" json:"accepted_at,omitempty"`
	AcceptedBy string     `bson:"accepted_by,omitempty" json:"accepted_by,omitempty"`
}

// Usable reports whether the invite can still be resolved at the given
// instant: pending status and deadline not yet passed.
func (i *Invite) Usable(now time.Time) bool {
	return i.Status == InvitePending && now.Before(i.ExpiresAt)
}
