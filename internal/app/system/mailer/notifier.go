// internal/app/system/mailer/notifier.go
package mailer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/gatehouse/internal/app/system/htmlsanitize"
	"github.com/dalemusser/gatehouse/internal/domain/models"
	"go.uber.org/zap"
)

// InviteNotifier dispatches invite email for the provisioning lifecycle.
type InviteNotifier struct {
	mailer   *Mailer
	baseURL  string
	siteName string
	log      *zap.Logger
}

// NewInviteNotifier creates a notifier that builds magic links under
// baseURL (e.g., https://gatehouse.example).
func NewInviteNotifier(m *Mailer, baseURL, siteName string, logger *zap.Logger) *InviteNotifier {
	return &InviteNotifier{
		mailer:   m,
		baseURL:  strings.TrimRight(baseURL, "/"),
		siteName: siteName,
		log:      logger,
	}
}

// SendInvite emails the magic link for inv to the invited address.
func (n *InviteNotifier) SendInvite(ctx context.Context, inv models.Invite) error {
	e := BuildInviteEmail(InviteEmailData{
		SiteName: n.siteName,
		Role:     inv.Role,
		// Project names are operator input; strip any markup before they
		// reach an email body.
		ProjectName: htmlsanitize.Strip(inv.ProjectName),
		InviteLink:  fmt.Sprintf("%s/invite/%s", n.baseURL, inv.Token),
		ExpiresIn:   expiresInText(time.Until(inv.ExpiresAt)),
	})
	e.To = inv.Email

	if err := n.mailer.Send(ctx, e); err != nil {
		return err
	}
	n.log.Info("invite email dispatched",
		zap.String("invite_id", inv.ID.Hex()),
		zap.String("email", inv.Email))
	return nil
}

// expiresInText renders a duration the way a human reads it: whole days
// when possible, hours otherwise.
func expiresInText(d time.Duration) string {
	if d <= 0 {
		return "0 hours"
	}
	if days := int(d.Hours() / 24); days >= 1 {
		if days == 1 {
			return "1 day"
		}
		return fmt.Sprintf("%d days", days)
	}
	hours := int(d.Hours())
	if hours <= 1 {
		return "1 hour"
	}
	return fmt.Sprintf("%d hours", hours)
}
