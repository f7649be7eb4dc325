package accounts_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/gatehouse/internal/app/features/accounts"
	"github.com/dalemusser/gatehouse/internal/app/features/apierr"
	"github.com/dalemusser/gatehouse/internal/app/lifecycle"
	invitestore "github.com/dalemusser/gatehouse/internal/app/store/invites"
	userstore "github.com/dalemusser/gatehouse/internal/app/store/users"
	"github.com/dalemusser/gatehouse/internal/app/system/auth"
	"github.com/dalemusser/gatehouse/internal/domain/models"
	"github.com/dalemusser/gatehouse/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const founderUID = "uid-founder"

func newHandler(t *testing.T, db *mongo.Database) *accounts.Handler {
	t.Helper()
	mgr := lifecycle.New(lifecycle.Deps{
		Invites:    invitestore.New(db),
		Users:      userstore.New(db),
		FounderUID: founderUID,
		Logger:     zap.NewNop(),
	})
	return accounts.NewHandler(mgr, apierr.NewErrorLogger(zap.NewNop()), zap.NewNop())
}

func asFounder(r *http.Request) *http.Request {
	return auth.WithUser(r, &auth.SessionUser{UID: founderUID, Role: "founder"})
}

func TestServeUpdateRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(t, db)
	testutil.CreateUser(t, db, testutil.UserOpts{UID: "uid-a", Email: "a@example.com", Role: models.RolePartner})

	req := asFounder(httptest.NewRequest("POST", "/accounts/uid-a/role", strings.NewReader(`{"role":"admin"}`)))
	req = testutil.WithChiURLParam(req, "uid", "uid-a")
	rec := httptest.NewRecorder()
	h.ServeUpdateRole(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	u, err := userstore.New(db).GetByUID(ctx, "uid-a")
	if err != nil {
		t.Fatalf("GetByUID failed: %v", err)
	}
	if u.Role != models.RoleAdmin {
		t.Errorf("expected role admin, got %q", u.Role)
	}
}

func TestServeUpdateRole_FounderProtected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(t, db)
	testutil.CreateUser(t, db, testutil.UserOpts{UID: founderUID, Email: "f@example.com", Role: models.RoleFounder})

	req := asFounder(httptest.NewRequest("POST", "/accounts/"+founderUID+"/role", strings.NewReader(`{"role":"partner"}`)))
	req = testutil.WithChiURLParam(req, "uid", founderUID)
	rec := httptest.NewRecorder()
	h.ServeUpdateRole(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for founder mutation, got %d", rec.Code)
	}
}

func TestServeAssignProjects(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(t, db)
	testutil.CreateUser(t, db, testutil.UserOpts{UID: "uid-b", Email: "b@example.com", Role: models.RoleEmployee})

	req := asFounder(httptest.NewRequest("POST", "/accounts/uid-b/projects", strings.NewReader(`{"projects":["Alpha","beta"]}`)))
	req = testutil.WithChiURLParam(req, "uid", "uid-b")
	rec := httptest.NewRecorder()
	h.ServeAssignProjects(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	u, _ := userstore.New(db).GetByUID(ctx, "uid-b")
	if len(u.AssignedProjects) != 2 || u.AssignedProjects[0] != "alpha" {
		t.Errorf("expected normalized projects, got %v", u.AssignedProjects)
	}
}

func TestServeDeactivate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(t, db)
	testutil.CreateUser(t, db, testutil.UserOpts{UID: "uid-c", Email: "c@example.com", Role: models.RolePartner})

	req := asFounder(httptest.NewRequest("POST", "/accounts/uid-c/deactivate", nil))
	req = testutil.WithChiURLParam(req, "uid", "uid-c")
	rec := httptest.NewRecorder()
	h.ServeDeactivate(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	u, _ := userstore.New(db).GetByUID(ctx, "uid-c")
	if u.Status != models.StatusInactive {
		t.Errorf("expected inactive, got %q", u.Status)
	}
}

func TestServeDeactivate_UnknownUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(t, db)

	req := asFounder(httptest.NewRequest("POST", "/accounts/uid-ghost/deactivate", nil))
	req = testutil.WithChiURLParam(req, "uid", "uid-ghost")
	rec := httptest.NewRecorder()
	h.ServeDeactivate(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}
