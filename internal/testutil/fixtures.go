// internal/testutil/fixtures.go
package testutil

import (
	"testing"
	"time"

	"github.com/dalemusser/gatehouse/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// UserOpts describes a provisioned account to seed for a test.
// Zero-value fields fall back to sensible defaults in CreateUser.
type UserOpts struct {
	UID      string
	Email    string
	Name     string
	Role     string
	Projects []string
}

// CreateUser inserts an active account directly into the users collection,
// bypassing the invite flow. Returns the inserted document.
func CreateUser(t *testing.T, db *mongo.Database, opts UserOpts) models.User {
	t.Helper()

	if opts.UID == "" {
		opts.UID = "uid-" + primitive.NewObjectID().Hex()
	}
	if opts.Email == "" {
		opts.Email = opts.UID + "@test.example"
	}
	if opts.Role == "" {
		opts.Role = models.RoleEmployee
	}

	now := time.Now().UTC()
	u := models.User{
		ID:               primitive.NewObjectID(),
		UID:              opts.UID,
		Email:            opts.Email,
		DisplayName:      opts.Name,
		Role:             opts.Role,
		Status:           models.StatusActive,
		AssignedProjects: opts.Projects,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	ctx, cancel := TestContext()
	defer cancel()
	if _, err := db.Collection("users").InsertOne(ctx, u); err != nil {
		t.Fatalf("failed to create test user %s: %v", opts.UID, err)
	}

	return u
}
