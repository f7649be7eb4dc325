// internal/app/store/invites/invitestore.go
package invitestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/gatehouse/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotFound is returned when no invite matches the lookup.
	ErrNotFound = errors.New("invite not found")
	// ErrPendingExists is returned when an insert would create a second
	// pending invite for the same email (partial unique index violation).
	ErrPendingExists = errors.New("a pending invite already exists for this email")
	// ErrNotPending is returned by conditional updates that require the
	// invite to still be pending.
	ErrNotPending = errors.New("invite is not pending")
)

// Store manages invite records.
type Store struct {
	c *mongo.Collection
}

// New creates a new invite Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("invites")}
}

// EnsureIndexes creates the indexes the invite workflow relies on.
//
// The partial unique index on email (filtered to pending status) is what
// closes the check-then-write race between concurrent creators: two inserts
// for the same email cannot both land while one is pending.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "token", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_invites_token"),
		},
		{
			Keys: bson.D{{Key: "email", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetName("idx_invites_email_pending").
				SetPartialFilterExpression(bson.M{"status": models.InvitePending}),
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_invites_created"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Create inserts a new pending invite. Email must already be normalized.
// Returns ErrPendingExists if a pending invite for the email already exists.
func (s *Store) Create(ctx context.Context, inv models.Invite) (models.Invite, error) {
	inv.ID = primitive.NewObjectID()
	inv.Status = models.InvitePending
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = time.Now().UTC()
	}

	if _, err := s.c.InsertOne(ctx, inv); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Invite{}, ErrPendingExists
		}
		return models.Invite{}, fmt.Errorf("insert invite: %w", err)
	}
	return inv, nil
}

// GetByID loads an invite by id. Returns ErrNotFound if missing.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Invite, error) {
	var inv models.Invite
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&inv); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &inv, nil
}

// GetPendingByToken loads the unique pending invite carrying token.
// Expiry is NOT evaluated here; the lifecycle manager owns lazy expiry.
// Returns ErrNotFound when no pending invite matches.
func (s *Store) GetPendingByToken(ctx context.Context, token string) (*models.Invite, error) {
	var inv models.Invite
	err := s.c.FindOne(ctx, bson.M{
		"token":  token,
		"status": models.InvitePending,
	}).Decode(&inv)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &inv, nil
}

// GetPendingByEmail loads the pending invite for a normalized email, if any.
// Returns ErrNotFound when none exists.
func (s *Store) GetPendingByEmail(ctx context.Context, email string) (*models.Invite, error) {
	var inv models.Invite
	err := s.c.FindOne(ctx, bson.M{
		"email":  email,
		"status": models.InvitePending,
	}).Decode(&inv)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &inv, nil
}

// MarkExpired transitions a pending invite to expired. The update is
// conditional on the current status, so concurrent callers converge on the
// same terminal state; a no-match result is not an error.
func (s *Store) MarkExpired(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.InvitePending},
		bson.M{"$set": bson.M{"status": models.InviteExpired}})
	return err
}

// MarkAccepted transitions a pending invite to accepted and writes the
// write-once acceptance provenance. Returns ErrNotPending if the invite is
// no longer pending (already accepted, revoked, or expired).
func (s *Store) MarkAccepted(ctx context.Context, id primitive.ObjectID, uid string, at time.Time) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.InvitePending},
		bson.M{"$set": bson.M{
			"status":      models.InviteAccepted,
			"accepted_by": uid,
			"accepted_at": at,
		}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotPending
	}
	return nil
}

// Revoke transitions a pending or expired invite to revoked. Accepted
// invites are immutable; revoking one returns ErrNotPending and leaves the
// record unchanged. Revoking an already revoked invite succeeds without a
// write; the returned bool reports whether this call performed the
// transition, so callers can record exactly one revocation.
func (s *Store) Revoke(ctx context.Context, id primitive.ObjectID) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": bson.M{"$in": []string{
			models.InvitePending, models.InviteExpired, models.InviteRevoked,
		}}},
		bson.M{"$set": bson.M{"status": models.InviteRevoked}})
	if err != nil {
		return false, err
	}
	if res.MatchedCount == 0 {
		return false, ErrNotPending
	}
	return res.ModifiedCount > 0, nil
}

// ReplaceToken overwrites the token and expiry of a pending invite. The old
// token becomes permanently unusable the moment this write lands, because
// token resolution matches on the stored value. Returns ErrNotPending if the
// invite is not pending.
func (s *Store) ReplaceToken(ctx context.Context, id primitive.ObjectID, token string, expiresAt time.Time) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.InvitePending},
		bson.M{"$set": bson.M{
			"token":      token,
			"expires_at": expiresAt,
		}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotPending
	}
	return nil
}

// List returns invites ordered by creation time descending.
func (s *Store) List(ctx context.Context, limit, offset int64) ([]models.Invite, error) {
	if limit <= 0 {
		limit = 100
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit).
		SetSkip(offset)

	cursor, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var invites []models.Invite
	if err := cursor.All(ctx, &invites); err != nil {
		return nil, err
	}
	return invites, nil
}

// CountByEmail returns the number of invite records for a normalized email,
// across all statuses.
func (s *Store) CountByEmail(ctx context.Context, email string) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"email": email})
}

// SetExpiresAt force-sets the deadline of an invite. Intended for tests and
// operator tooling; it does not change status (lazy expiry handles that on
// the next read).
func (s *Store) SetExpiresAt(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"expires_at": at}})
	return err
}
