package identity_test

import (
	"testing"

	"github.com/dalemusser/gatehouse/internal/app/system/identity"
	"github.com/dalemusser/gatehouse/internal/testutil"
)

func TestDirectory_RecordLoginAndGet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	dir := identity.NewDirectory(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := dir.RecordLogin(ctx, identity.Account{
		UID:         "uid-alice",
		Email:       "alice@example.com",
		DisplayName: "Alice",
	})
	if err != nil {
		t.Fatalf("RecordLogin failed: %v", err)
	}

	a, err := dir.GetAccount(ctx, "uid-alice")
	if err != nil {
		t.Fatalf("GetAccount failed: %v", err)
	}
	if a.Email != "alice@example.com" || a.DisplayName != "Alice" {
		t.Errorf("unexpected account: %+v", a)
	}
	if a.LastLoginAt.IsZero() {
		t.Error("expected last_login_at to be set")
	}

	if _, err := dir.GetAccount(ctx, "uid-ghost"); err != identity.ErrUnknownAccount {
		t.Errorf("expected ErrUnknownAccount, got %v", err)
	}
}

func TestDirectory_SetRoleClaim_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	dir := identity.NewDirectory(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := dir.RecordLogin(ctx, identity.Account{UID: "uid-bob", Email: "bob@example.com"}); err != nil {
		t.Fatalf("RecordLogin failed: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := dir.SetRoleClaim(ctx, "uid-bob", "partner"); err != nil {
			t.Fatalf("SetRoleClaim attempt %d failed: %v", i+1, err)
		}
	}

	a, err := dir.GetAccount(ctx, "uid-bob")
	if err != nil {
		t.Fatalf("GetAccount failed: %v", err)
	}
	if a.RoleClaim != "partner" {
		t.Errorf("expected role claim partner, got %q", a.RoleClaim)
	}
	if a.Email != "bob@example.com" {
		t.Errorf("claim write should not clobber profile, got %+v", a)
	}
}

func TestDirectory_SetRoleClaim_BeforeFirstLogin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	dir := identity.NewDirectory(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// Role changes can target accounts that predate the claims directory.
	if err := dir.SetRoleClaim(ctx, "uid-carol", "admin"); err != nil {
		t.Fatalf("SetRoleClaim failed: %v", err)
	}

	a, err := dir.GetAccount(ctx, "uid-carol")
	if err != nil {
		t.Fatalf("GetAccount failed: %v", err)
	}
	if a.RoleClaim != "admin" {
		t.Errorf("expected role claim admin, got %q", a.RoleClaim)
	}
}
