// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles an account can hold. RoleFounder is assigned only by the startup
// bootstrap; it is never a valid invite target and the founder account is
// exempt from role/status mutation through the lifecycle manager.
const (
	RoleFounder  = "founder"
	RoleAdmin    = "admin"
	RolePartner  = "partner"
	RoleEmployee = "employee"
)

// Account statuses.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// ValidInviteRole reports whether role is one of the roles an invite may
// carry. Founder is deliberately excluded.
func ValidInviteRole(role string) bool {
	switch role {
	case RoleAdmin, RolePartner, RoleEmployee:
		return true
	}
	return false
}

// User represents a provisioned account. The UID is the identity
// provider's subject for the account, not the Mongo _id.
//
// NOTE:
//   - Role, Status, and AssignedProjects are mutated only through the
//     lifecycle manager's guarded operations, never directly.
type User struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UID         string             `bson:"uid" json:"uid"`
	Email       string             `bson:"email" json:"email"` // lowercase
	DisplayName string             `bson:"display_name,omitempty" json:"display_name,omitempty"`
	PhotoURL    string             `bson:"photo_url,omitempty" json:"photo_url,omitempty"`
	Role        string             `bson:"role" json:"role"`     // founder | admin | partner | employee
	Status      string             `bson:"status" json:"status"` // active | inactive

	AssignedProjects []string `bson:"assigned_projects,omitempty" json:"assigned_projects,omitempty"`
	Permissions      []string `bson:"permissions,omitempty" json:"permissions,omitempty"`

	// InviteID links back to the invite that provisioned this account.
	InviteID *primitive.ObjectID `bson:"invite_id,omitempty" json:"invite_id,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
