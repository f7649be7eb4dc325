// internal/app/store/users/fetcher.go
package userstore

import (
	"context"

	"github.com/dalemusser/gatehouse/internal/app/system/auth"
	"github.com/dalemusser/gatehouse/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fetcher adapts the user store to auth.UserFetcher so session middleware
// can refresh role and status from the database on each request.
type Fetcher struct {
	store *Store
}

// NewFetcher creates a Fetcher backed by the users collection.
func NewFetcher(db *mongo.Database) *Fetcher {
	return &Fetcher{store: New(db)}
}

// FetchSessionUser loads the current account state for uid. Accounts that do
// not exist or are inactive report ok=false, which signs the session out.
func (f *Fetcher) FetchSessionUser(ctx context.Context, uid string) (*auth.SessionUser, bool, error) {
	u, err := f.store.GetByUID(ctx, uid)
	if err != nil {
		if err == ErrNotFound {
			return nil, false, nil
		}
		return nil, false, err
	}
	if u.Status != models.StatusActive {
		return nil, false, nil
	}
	return &auth.SessionUser{
		UID:   u.UID,
		Name:  u.DisplayName,
		Email: u.Email,
		Role:  u.Role,
	}, true, nil
}
