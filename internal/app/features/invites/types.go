// internal/app/features/invites/types.go
package invites

import (
	"time"

	"github.com/dalemusser/gatehouse/internal/domain/models"
)

// createRequest is the body for POST /invites.
type createRequest struct {
	Email       string `json:"email"`
	Role        string `json:"role"`
	ProjectID   string `json:"project_id,omitempty"`
	ProjectName string `json:"project_name,omitempty"`
}

// inviteResponse is the admin view of an invite. The token never appears
// here; the magic link travels only in the invite email.
type inviteResponse struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Role        string     `json:"role"`
	Status      string     `json:"status"`
	InvitedBy   string     `json:"invited_by"`
	ProjectID   string     `json:"project_id,omitempty"`
	ProjectName string     `json:"project_name,omitempty"`
	ExpiresAt   time.Time  `json:"expires_at"`
	CreatedAt   time.Time  `json:"created_at"`
	AcceptedAt  *time.Time `json:"accepted_at,omitempty"`
	AcceptedBy  string     `json:"accepted_by,omitempty"`
}

func toResponse(inv models.Invite) inviteResponse {
	return inviteResponse{
		ID:          inv.ID.Hex(),
		Email:       inv.Email,
		Role:        inv.Role,
		Status:      inv.Status,
		InvitedBy:   inv.InvitedBy,
		ProjectID:   inv.ProjectID,
		ProjectName: inv.ProjectName,
		ExpiresAt:   inv.ExpiresAt,
		CreatedAt:   inv.CreatedAt,
		AcceptedAt:  inv.AcceptedAt,
		AcceptedBy:  inv.AcceptedBy,
	}
}
