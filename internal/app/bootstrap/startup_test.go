package bootstrap

import (
	"testing"

	userstore "github.com/dalemusser/gatehouse/internal/app/store/users"
	"github.com/dalemusser/gatehouse/internal/domain/models"
	"github.com/dalemusser/gatehouse/internal/testutil"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func TestEnsureFounder_CreatesNew(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	deps := DBDeps{MongoDatabase: db}

	if err := ensureFounder(ctx, deps, "uid-founder", "Founder@Example.com", testLogger()); err != nil {
		t.Fatalf("ensureFounder failed: %v", err)
	}

	u, err := userstore.New(db).GetByUID(ctx, "uid-founder")
	if err != nil {
		t.Fatalf("failed to find created founder: %v", err)
	}
	if u.Role != models.RoleFounder {
		t.Errorf("expected role founder, got %q", u.Role)
	}
	if u.Status != models.StatusActive {
		t.Errorf("expected status active, got %q", u.Status)
	}
	if u.Email != "founder@example.com" {
		t.Errorf("expected normalized email, got %q", u.Email)
	}
}

func TestEnsureFounder_PromotesExisting(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	testutil.CreateUser(t, db, testutil.UserOpts{
		UID:   "uid-existing",
		Email: "existing@example.com",
		Role:  models.RoleAdmin,
	})

	deps := DBDeps{MongoDatabase: db}

	if err := ensureFounder(ctx, deps, "uid-existing", "", testLogger()); err != nil {
		t.Fatalf("ensureFounder failed: %v", err)
	}

	u, err := userstore.New(db).GetByUID(ctx, "uid-existing")
	if err != nil {
		t.Fatalf("GetByUID failed: %v", err)
	}
	if u.Role != models.RoleFounder {
		t.Errorf("expected promotion to founder, got %q", u.Role)
	}
	if u.Email != "existing@example.com" {
		t.Errorf("existing email should be untouched, got %q", u.Email)
	}
}

func TestEnsureFounder_MissingWithoutEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	deps := DBDeps{MongoDatabase: db}

	// No account and no email to create one from: warn and carry on.
	if err := ensureFounder(ctx, deps, "uid-ghost", "", testLogger()); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	if _, err := userstore.New(db).GetByUID(ctx, "uid-ghost"); err != userstore.ErrNotFound {
		t.Errorf("expected no account to be created, got err=%v", err)
	}
}

func TestEnsureFounder_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	deps := DBDeps{MongoDatabase: db}

	for i := 0; i < 2; i++ {
		if err := ensureFounder(ctx, deps, "uid-founder", "founder@example.com", testLogger()); err != nil {
			t.Fatalf("run %d: ensureFounder failed: %v", i, err)
		}
	}

	n, err := userstore.New(db).CountByRole(ctx, models.RoleFounder)
	if err != nil {
		t.Fatalf("CountByRole failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected exactly one founder account, got %d", n)
	}
}
