// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/gatehouse/internal/app/store/audit"
	invitestore "github.com/dalemusser/gatehouse/internal/app/store/invites"
	"github.com/dalemusser/gatehouse/internal/app/store/oauthstate"
	userstore "github.com/dalemusser/gatehouse/internal/app/store/users"
	"github.com/dalemusser/gatehouse/internal/app/system/identity"
	"go.mongodb.org/mongo-driver/mongo"
)

/*
EnsureAll is called at startup. Each store's EnsureIndexes is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	if err := invitestore.New(db).EnsureIndexes(ctx); err != nil {
		problems = append(problems, "invites: "+err.Error())
	}
	if err := userstore.New(db).EnsureIndexes(ctx); err != nil {
		problems = append(problems, "users: "+err.Error())
	}
	if err := audit.New(db).EnsureIndexes(ctx); err != nil {
		problems = append(problems, "audit_events: "+err.Error())
	}
	if err := oauthstate.New(db).EnsureIndexes(ctx); err != nil {
		problems = append(problems, "oauth_states: "+err.Error())
	}
	if err := identity.NewDirectory(db).EnsureIndexes(ctx); err != nil {
		problems = append(problems, "identity_claims: "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}
