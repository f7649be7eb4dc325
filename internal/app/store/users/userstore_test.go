package userstore_test

import (
	"testing"

	userstore "github.com/dalemusser/gatehouse/internal/app/store/users"
	"github.com/dalemusser/gatehouse/internal/domain/models"
	"github.com/dalemusser/gatehouse/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_UpsertFromInvite_CreatesAccount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	inviteID := primitive.NewObjectID()
	u, err := store.UpsertFromInvite(ctx, userstore.UpsertFromInviteParams{
		UID:         "uid-alice",
		Email:       "alice@example.com",
		DisplayName: "Alice",
		Role:        models.RolePartner,
		InviteID:    inviteID,
		Projects:    []string{"launch"},
	})
	if err != nil {
		t.Fatalf("UpsertFromInvite failed: %v", err)
	}

	if u.UID != "uid-alice" {
		t.Errorf("expected uid uid-alice, got %q", u.UID)
	}
	if u.Role != models.RolePartner {
		t.Errorf("expected role partner, got %q", u.Role)
	}
	if u.Status != models.StatusActive {
		t.Errorf("expected status active, got %q", u.Status)
	}
	if u.InviteID == nil || *u.InviteID != inviteID {
		t.Error("expected invite provenance to be recorded")
	}
	if len(u.AssignedProjects) != 1 || u.AssignedProjects[0] != "launch" {
		t.Errorf("expected assigned_projects [launch], got %v", u.AssignedProjects)
	}
	if u.CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}
}

func TestStore_UpsertFromInvite_MergesExisting(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	first, err := store.UpsertFromInvite(ctx, userstore.UpsertFromInviteParams{
		UID:      "uid-bob",
		Email:    "bob@example.com",
		Role:     models.RoleEmployee,
		InviteID: primitive.NewObjectID(),
		Projects: []string{"alpha"},
	})
	if err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}

	// A later invite for the same account updates role and unions projects
	// without clobbering creation fields.
	second, err := store.UpsertFromInvite(ctx, userstore.UpsertFromInviteParams{
		UID:      "uid-bob",
		Email:    "bob@example.com",
		Role:     models.RoleAdmin,
		InviteID: primitive.NewObjectID(),
		Projects: []string{"alpha", "beta"},
	})
	if err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	if second.ID != first.ID {
		t.Error("upsert should reuse the existing document")
	}
	if second.Role != models.RoleAdmin {
		t.Errorf("expected role admin, got %q", second.Role)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Error("created_at should not change on merge")
	}
	if len(second.AssignedProjects) != 2 {
		t.Errorf("expected projects unioned to [alpha beta], got %v", second.AssignedProjects)
	}
}

func TestStore_UpdateRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	testutil.CreateUser(t, db, testutil.UserOpts{UID: "uid-carol", Email: "carol@example.com", Role: models.RolePartner})

	if err := store.UpdateRole(ctx, "uid-carol", models.RoleAdmin); err != nil {
		t.Fatalf("UpdateRole failed: %v", err)
	}
	u, err := store.GetByUID(ctx, "uid-carol")
	if err != nil {
		t.Fatalf("GetByUID failed: %v", err)
	}
	if u.Role != models.RoleAdmin {
		t.Errorf("expected role admin, got %q", u.Role)
	}

	if err := store.UpdateRole(ctx, "uid-nobody", models.RoleAdmin); err != userstore.ErrNotFound {
		t.Errorf("expected ErrNotFound for unknown uid, got %v", err)
	}
}

func TestStore_AssignProjects_Replaces(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	testutil.CreateUser(t, db, testutil.UserOpts{
		UID:      "uid-dave",
		Email:    "dave@example.com",
		Role:     models.RoleEmployee,
		Projects: []string{"old-project"},
	})

	if err := store.AssignProjects(ctx, "uid-dave", []string{"new-one", "new-two"}); err != nil {
		t.Fatalf("AssignProjects failed: %v", err)
	}
	u, _ := store.GetByUID(ctx, "uid-dave")
	if len(u.AssignedProjects) != 2 || u.AssignedProjects[0] != "new-one" {
		t.Errorf("expected replacement set, got %v", u.AssignedProjects)
	}

	// Empty slice clears assignments rather than leaving them untouched.
	if err := store.AssignProjects(ctx, "uid-dave", nil); err != nil {
		t.Fatalf("AssignProjects with nil failed: %v", err)
	}
	u, _ = store.GetByUID(ctx, "uid-dave")
	if len(u.AssignedProjects) != 0 {
		t.Errorf("expected cleared assignments, got %v", u.AssignedProjects)
	}
}

func TestStore_Deactivate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	testutil.CreateUser(t, db, testutil.UserOpts{UID: "uid-erin", Email: "erin@example.com", Role: models.RolePartner})

	if err := store.Deactivate(ctx, "uid-erin"); err != nil {
		t.Fatalf("Deactivate failed: %v", err)
	}
	u, _ := store.GetByUID(ctx, "uid-erin")
	if u.Status != models.StatusInactive {
		t.Errorf("expected status inactive, got %q", u.Status)
	}
}

func TestFetcher_FetchSessionUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fetcher := userstore.NewFetcher(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	testutil.CreateUser(t, db, testutil.UserOpts{
		UID:   "uid-frank",
		Email: "frank@example.com",
		Name:  "Frank",
		Role:  models.RoleAdmin,
	})

	su, ok, err := fetcher.FetchSessionUser(ctx, "uid-frank")
	if err != nil {
		t.Fatalf("FetchSessionUser failed: %v", err)
	}
	if !ok {
		t.Fatal("expected active account to be found")
	}
	if su.Role != models.RoleAdmin || su.Email != "frank@example.com" {
		t.Errorf("unexpected session user: %+v", su)
	}

	// Deactivated accounts stop resolving, which invalidates live sessions.
	if err := userstore.New(db).Deactivate(ctx, "uid-frank"); err != nil {
		t.Fatalf("Deactivate failed: %v", err)
	}
	_, ok, err = fetcher.FetchSessionUser(ctx, "uid-frank")
	if err != nil {
		t.Fatalf("FetchSessionUser after deactivate failed: %v", err)
	}
	if ok {
		t.Error("inactive account should not resolve to a session user")
	}

	_, ok, err = fetcher.FetchSessionUser(ctx, "uid-ghost")
	if err != nil || ok {
		t.Errorf("unknown uid should report ok=false, nil error; got ok=%v err=%v", ok, err)
	}
}
