// internal/app/store/users/userstore.go
package userstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/gatehouse/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when no user matches the lookup.
var ErrNotFound = errors.New("user not found")

// Store manages provisioned user accounts.
type Store struct {
	c *mongo.Collection
}

// New creates a new user Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// EnsureIndexes creates unique indexes on uid and email.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "uid", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_users_uid"),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_users_email"),
		},
		{
			Keys:    bson.D{{Key: "role", Value: 1}},
			Options: options.Index().SetName("idx_users_role"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// GetByUID loads a user by identity-provider subject. Returns ErrNotFound
// if no account exists.
func (s *Store) GetByUID(ctx context.Context, uid string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"uid": uid}).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetByEmail loads a user by normalized email. Returns ErrNotFound if no
// account exists.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": email}).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// UpsertFromInviteParams carries the fields an accepted invite contributes
// to the account document.
type UpsertFromInviteParams struct {
	UID         string
	Email       string // normalized
	DisplayName string
	PhotoURL    string
	Role        string
	InviteID    primitive.ObjectID
	Projects    []string // project slugs to union into the assignment set
}

// UpsertFromInvite creates or updates the account for an accepted invite.
//
// The write is a merge, not a replace: the invite's fields (role, status,
// provenance) are $set, creation-only fields are $setOnInsert, and project
// slugs are unioned with $addToSet so repeated acceptance attempts and
// pre-existing assignments are both preserved. The updated document is
// returned.
func (s *Store) UpsertFromInvite(ctx context.Context, p UpsertFromInviteParams) (*models.User, error) {
	now := time.Now().UTC()

	set := bson.M{
		"email":      p.Email,
		"role":       p.Role,
		"status":     models.StatusActive,
		"invite_id":  p.InviteID,
		"updated_at": now,
	}
	if p.DisplayName != "" {
		set["display_name"] = p.DisplayName
	}
	if p.PhotoURL != "" {
		set["photo_url"] = p.PhotoURL
	}

	update := bson.M{
		"$set": set,
		"$setOnInsert": bson.M{
			"_id":         primitive.NewObjectID(),
			"uid":         p.UID,
			"permissions": []string{},
			"created_at":  now,
		},
	}
	if len(p.Projects) > 0 {
		update["$addToSet"] = bson.M{"assigned_projects": bson.M{"$each": p.Projects}}
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var u models.User
	if err := s.c.FindOneAndUpdate(ctx, bson.M{"uid": p.UID}, update, opts).Decode(&u); err != nil {
		return nil, fmt.Errorf("upsert user from invite: %w", err)
	}
	return &u, nil
}

// UpdateRole sets the role of an existing account. Returns ErrNotFound if
// no account matches uid.
func (s *Store) UpdateRole(ctx context.Context, uid, role string) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"uid": uid},
		bson.M{"$set": bson.M{
			"role":       role,
			"updated_at": time.Now().UTC(),
		}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// AssignProjects replaces the account's project assignment set. Passing an
// empty slice clears all assignments. Returns ErrNotFound if no account
// matches uid.
func (s *Store) AssignProjects(ctx context.Context, uid string, projects []string) error {
	if projects == nil {
		projects = []string{}
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"uid": uid},
		bson.M{"$set": bson.M{
			"assigned_projects": projects,
			"updated_at":        time.Now().UTC(),
		}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Deactivate marks the account inactive. Returns ErrNotFound if no account
// matches uid.
func (s *Store) Deactivate(ctx context.Context, uid string) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"uid": uid},
		bson.M{"$set": bson.M{
			"status":     models.StatusInactive,
			"updated_at": time.Now().UTC(),
		}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// PromoteFounder sets the account's role to founder and reactivates it.
// Only the startup bootstrap calls this; the lifecycle manager never
// escalates an account to founder. Returns ErrNotFound if no account
// matches uid.
func (s *Store) PromoteFounder(ctx context.Context, uid string) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"uid": uid},
		bson.M{"$set": bson.M{
			"role":       models.RoleFounder,
			"status":     models.StatusActive,
			"updated_at": time.Now().UTC(),
		}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns accounts ordered by creation time descending.
func (s *Store) List(ctx context.Context, limit, offset int64) ([]models.User, error) {
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

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// CountByRole returns the number of accounts holding role, regardless of
// status. Used by the founder bootstrap to decide whether seeding is needed.
func (s *Store) CountByRole(ctx context.Context, role string) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"role": role})
}

// Insert adds a fully-formed account document. Used by the founder
// bootstrap; invite acceptance goes through UpsertFromInvite.
func (s *Store) Insert(ctx context.Context, u models.User) (models.User, error) {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, u); err != nil {
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}
