// internal/app/system/identity/identity.go
//
// Package identity mirrors provisioning decisions into the identity
// provider's view of an account. Role claims written here are what token
// consumers downstream of the provider see; the local users collection
// stays the source of truth and claims follow it.
package identity

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrUnknownAccount is returned when the provider has never seen the uid.
var ErrUnknownAccount = errors.New("identity: unknown account")

// Account is the provider's record of an authenticated principal.
type Account struct {
	UID         string    `bson:"uid"`
	Email       string    `bson:"email"`
	DisplayName string    `bson:"display_name,omitempty"`
	PhotoURL    string    `bson:"photo_url,omitempty"`
	RoleClaim   string    `bson:"role_claim,omitempty"`
	LastLoginAt time.Time `bson:"last_login_at"`
}

// Provider is the surface the provisioning lifecycle needs from the
// identity layer. Writes must be idempotent: setting a claim the account
// already holds is success, not an error.
type Provider interface {
	SetRoleClaim(ctx context.Context, uid, role string) error
	GetAccount(ctx context.Context, uid string) (*Account, error)
}

// Directory is a Mongo-backed Provider over the identity_claims collection.
// It doubles as the login bookkeeper: the OAuth callback records each
// authenticated profile here, so claims always attach to a known account.
type Directory struct {
	c *mongo.Collection
}

// NewDirectory creates a Directory over db.
func NewDirectory(db *mongo.Database) *Directory {
	return &Directory{c: db.Collection("identity_claims")}
}

// EnsureIndexes creates the unique uid index.
func (d *Directory) EnsureIndexes(ctx context.Context) error {
	_, err := d.c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "uid", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("idx_identity_uid"),
	})
	return err
}

// RecordLogin upserts the profile captured at sign-in.
func (d *Directory) RecordLogin(ctx context.Context, a Account) error {
	set := bson.M{
		"email":         a.Email,
		"last_login_at": time.Now().UTC(),
	}
	if a.DisplayName != "" {
		set["display_name"] = a.DisplayName
	}
	if a.PhotoURL != "" {
		set["photo_url"] = a.PhotoURL
	}
	_, err := d.c.UpdateOne(ctx,
		bson.M{"uid": a.UID},
		bson.M{
			"$set":         set,
			"$setOnInsert": bson.M{"uid": a.UID},
		},
		options.Update().SetUpsert(true))
	return err
}

// SetRoleClaim writes the role claim for uid. The upsert makes the write
// idempotent and tolerates claims arriving before the first recorded login.
func (d *Directory) SetRoleClaim(ctx context.Context, uid, role string) error {
	_, err := d.c.UpdateOne(ctx,
		bson.M{"uid": uid},
		bson.M{
			"$set":         bson.M{"role_claim": role},
			"$setOnInsert": bson.M{"uid": uid},
		},
		options.Update().SetUpsert(true))
	return err
}

// GetAccount loads the provider's record for uid. Returns ErrUnknownAccount
// if the uid has never logged in or received a claim.
func (d *Directory) GetAccount(ctx context.Context, uid string) (*Account, error) {
	var a Account
	if err := d.c.FindOne(ctx, bson.M{"uid": uid}).Decode(&a); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrUnknownAccount
		}
		return nil, err
	}
	return &a, nil
}
