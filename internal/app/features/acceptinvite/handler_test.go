package acceptinvite_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/gatehouse/internal/app/features/acceptinvite"
	"github.com/dalemusser/gatehouse/internal/app/features/apierr"
	"github.com/dalemusser/gatehouse/internal/app/lifecycle"
	invitestore "github.com/dalemusser/gatehouse/internal/app/store/invites"
	userstore "github.com/dalemusser/gatehouse/internal/app/store/users"
	"github.com/dalemusser/gatehouse/internal/app/system/auditlog"
	"github.com/dalemusser/gatehouse/internal/app/system/auth"
	"github.com/dalemusser/gatehouse/internal/domain/models"
	"github.com/dalemusser/gatehouse/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type fixture struct {
	handler *acceptinvite.Handler
	mgr     *lifecycle.Manager
}

func newFixture(t *testing.T, db *mongo.Database) *fixture {
	t.Helper()
	sessions, err := auth.NewManager("test-session-key-must-be-32-chars-long", "test-session", "", false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	mgr := lifecycle.New(lifecycle.Deps{
		Invites:    invitestore.New(db),
		Users:      userstore.New(db),
		FounderUID: "uid-founder",
		Logger:     zap.NewNop(),
	})
	h := acceptinvite.NewHandler(mgr, sessions, apierr.NewErrorLogger(zap.NewNop()), zap.NewNop())
	return &fixture{handler: h, mgr: mgr}
}

func createInvite(t *testing.T, mgr *lifecycle.Manager, email string) models.Invite {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	inv, err := mgr.CreateInvite(ctx, auditlog.RequestMeta{}, "uid-founder", lifecycle.CreateInviteParams{
		Email: email, Role: "partner", ProjectName: "Acme Launch",
	})
	if err != nil {
		t.Fatalf("CreateInvite failed: %v", err)
	}
	return inv
}

func TestServeResolve(t *testing.T) {
	db := testutil.SetupTestDB(t)
	f := newFixture(t, db)
	inv := createInvite(t, f.mgr, "alice@example.com")

	rec := httptest.NewRecorder()
	req := testutil.WithChiURLParam(httptest.NewRequest("GET", "/invite/"+inv.Token, nil), "token", inv.Token)
	f.handler.ServeResolve(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Email       string `json:"email"`
		Role        string `json:"role"`
		ProjectName string `json:"project_name"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Email != "alice@example.com" || resp.Role != "partner" || resp.ProjectName != "Acme Launch" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestServeResolve_UnknownToken(t *testing.T) {
	db := testutil.SetupTestDB(t)
	f := newFixture(t, db)

	rec := httptest.NewRecorder()
	req := testutil.WithChiURLParam(httptest.NewRequest("GET", "/invite/bogus", nil), "token", "bogus")
	f.handler.ServeResolve(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestServeAccept(t *testing.T) {
	db := testutil.SetupTestDB(t)
	f := newFixture(t, db)
	inv := createInvite(t, f.mgr, "bob@example.com")

	req := httptest.NewRequest("POST", "/invite/"+inv.Token+"/accept", nil)
	req = testutil.WithChiURLParam(req, "token", inv.Token)
	req = auth.WithUser(req, &auth.SessionUser{
		UID:   "uid-bob",
		Name:  "Bob",
		Email: "Bob@Example.com", // case differs; match is case-insensitive
	})
	rec := httptest.NewRecorder()
	f.handler.ServeAccept(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		UID    string `json:"uid"`
		Role   string `json:"role"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.UID != "uid-bob" || resp.Role != "partner" || resp.Status != "active" {
		t.Errorf("unexpected response: %+v", resp)
	}

	// The session cookie was rewritten with the new role.
	upgraded := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == "test-session" && c.Value != "" {
			upgraded = true
		}
	}
	if !upgraded {
		t.Error("expected session cookie to be rewritten after accept")
	}
}

func TestServeAccept_EmailMismatch(t *testing.T) {
	db := testutil.SetupTestDB(t)
	f := newFixture(t, db)
	inv := createInvite(t, f.mgr, "carol@example.com")

	req := httptest.NewRequest("POST", "/invite/"+inv.Token+"/accept", nil)
	req = testutil.WithChiURLParam(req, "token", inv.Token)
	req = auth.WithUser(req, &auth.SessionUser{UID: "uid-mallory", Email: "mallory@example.com"})
	rec := httptest.NewRecorder()
	f.handler.ServeAccept(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for mismatched email, got %d", rec.Code)
	}
}

func TestServeAccept_Reuse(t *testing.T) {
	db := testutil.SetupTestDB(t)
	f := newFixture(t, db)
	inv := createInvite(t, f.mgr, "dave@example.com")

	accept := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", "/invite/"+inv.Token+"/accept", nil)
		req = testutil.WithChiURLParam(req, "token", inv.Token)
		req = auth.WithUser(req, &auth.SessionUser{UID: "uid-dave", Email: "dave@example.com"})
		rec := httptest.NewRecorder()
		f.handler.ServeAccept(rec, req)
		return rec
	}

	if rec := accept(); rec.Code != http.StatusOK {
		t.Fatalf("first accept failed: %d", rec.Code)
	}
	if rec := accept(); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 on token reuse, got %d", rec.Code)
	}
}
