package auth_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/gatehouse/internal/app/system/auth"
	"go.uber.org/zap"
)

func newTestManager(t *testing.T) *auth.Manager {
	t.Helper()
	m, err := auth.NewManager(
		"test-session-key-must-be-32-chars-long",
		"test-session",
		"",
		false,
		zap.NewNop(),
	)
	if err != nil {
		t.Fatalf("failed to create session manager: %v", err)
	}
	return m
}

type fakeFetcher struct {
	user *auth.SessionUser
	ok   bool
	err  error
}

func (f *fakeFetcher) FetchSessionUser(ctx context.Context, uid string) (*auth.SessionUser, bool, error) {
	return f.user, f.ok, f.err
}

func TestNewManager_EmptyKey(t *testing.T) {
	if _, err := auth.NewManager("", "s", "", false, zap.NewNop()); err == nil {
		t.Error("expected error for empty session key")
	}
}

func TestRequireSignedIn_NoUser_Returns401(t *testing.T) {
	m := newTestManager(t)

	handler := m.RequireSignedIn(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/invites", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected JSON error body, got content type %q", ct)
	}
}

func TestRequireSignedIn_WithUser_PassesThrough(t *testing.T) {
	m := newTestManager(t)

	handler := m.RequireSignedIn(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/invites", nil)
	req = auth.WithUser(req, &auth.SessionUser{UID: "uid-1", Role: "admin"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	m := newTestManager(t)
	protected := m.RequireRole("founder", "admin")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name string
		user *auth.SessionUser
		want int
	}{
		{"not signed in", nil, http.StatusUnauthorized},
		{"wrong role", &auth.SessionUser{UID: "u", Role: "partner"}, http.StatusForbidden},
		{"admin allowed", &auth.SessionUser{UID: "u", Role: "admin"}, http.StatusOK},
		{"founder allowed", &auth.SessionUser{UID: "u", Role: "founder"}, http.StatusOK},
		{"case insensitive", &auth.SessionUser{UID: "u", Role: "Admin"}, http.StatusOK},
		{"guest session", &auth.SessionUser{UID: "u", Role: ""}, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/invites", nil)
			if tt.user != nil {
				req = auth.WithUser(req, tt.user)
			}
			rec := httptest.NewRecorder()
			protected.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestSignIn_ThenLoadSessionUser(t *testing.T) {
	m := newTestManager(t)

	// Sign in and capture the cookie.
	signInRec := httptest.NewRecorder()
	signInReq := httptest.NewRequest("POST", "/auth/callback", nil)
	err := m.SignIn(signInRec, signInReq, &auth.SessionUser{
		UID:   "uid-alice",
		Name:  "Alice",
		Email: "alice@example.com",
		Role:  "partner",
	})
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	cookies := signInRec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected a session cookie to be set")
	}

	// Replay the cookie through the middleware.
	var got *auth.SessionUser
	handler := m.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.CurrentUser(r)
	}))
	req := httptest.NewRequest("GET", "/invites", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got == nil {
		t.Fatal("expected user in context")
	}
	if got.UID != "uid-alice" || got.Role != "partner" {
		t.Errorf("unexpected session user: %+v", got)
	}
}

func TestLoadSessionUser_RefreshesRole(t *testing.T) {
	m := newTestManager(t)
	m.SetUserFetcher(&fakeFetcher{
		user: &auth.SessionUser{UID: "uid-alice", Email: "alice@example.com", Role: "admin"},
		ok:   true,
	})

	cookies := signIn(t, m, &auth.SessionUser{UID: "uid-alice", Email: "alice@example.com", Role: "partner"})

	var got *auth.SessionUser
	handler := m.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.CurrentUser(r)
	}))
	req := httptest.NewRequest("GET", "/invites", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got == nil {
		t.Fatal("expected user in context")
	}
	if got.Role != "admin" {
		t.Errorf("expected refreshed role admin, got %q", got.Role)
	}
}

func TestLoadSessionUser_DeactivatedAccountGoesDark(t *testing.T) {
	m := newTestManager(t)
	m.SetUserFetcher(&fakeFetcher{ok: false})

	cookies := signIn(t, m, &auth.SessionUser{UID: "uid-bob", Role: "partner"})

	var found bool
	handler := m.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, found = auth.CurrentUser(r)
	}))
	req := httptest.NewRequest("GET", "/invites", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if found {
		t.Error("expected deactivated account's session to stop resolving")
	}
}

func TestLoadSessionUser_GuestSessionSkipsRefresh(t *testing.T) {
	m := newTestManager(t)
	// A fetcher that would kill the session if consulted.
	m.SetUserFetcher(&fakeFetcher{ok: false})

	// Invitee session: authenticated identity with no provisioned account.
	cookies := signIn(t, m, &auth.SessionUser{UID: "uid-new", Email: "new@example.com", Role: ""})

	var got *auth.SessionUser
	handler := m.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.CurrentUser(r)
	}))
	req := httptest.NewRequest("GET", "/invite/token/accept", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got == nil {
		t.Fatal("expected guest session to survive")
	}
	if got.Email != "new@example.com" {
		t.Errorf("unexpected session user: %+v", got)
	}
}

func TestLoadSessionUser_FetchErrorKeepsStaleUser(t *testing.T) {
	m := newTestManager(t)
	m.SetUserFetcher(&fakeFetcher{err: errors.New("db down")})

	cookies := signIn(t, m, &auth.SessionUser{UID: "uid-carol", Role: "admin"})

	var got *auth.SessionUser
	handler := m.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.CurrentUser(r)
	}))
	req := httptest.NewRequest("GET", "/invites", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got == nil || got.Role != "admin" {
		t.Errorf("expected stale session user to be kept on fetch error, got %+v", got)
	}
}

func TestSignOut_ClearsSession(t *testing.T) {
	m := newTestManager(t)
	cookies := signIn(t, m, &auth.SessionUser{UID: "uid-dave", Role: "partner"})

	outRec := httptest.NewRecorder()
	outReq := httptest.NewRequest("POST", "/auth/logout", nil)
	for _, c := range cookies {
		outReq.AddCookie(c)
	}
	if err := m.SignOut(outRec, outReq); err != nil {
		t.Fatalf("SignOut failed: %v", err)
	}

	var maxAge int
	for _, c := range outRec.Result().Cookies() {
		if strings.Contains(c.Name, "test-session") {
			maxAge = c.MaxAge
		}
	}
	if maxAge != -1 {
		t.Errorf("expected cookie MaxAge -1, got %d", maxAge)
	}
}

func signIn(t *testing.T, m *auth.Manager, u *auth.SessionUser) []*http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/auth/callback", nil)
	if err := m.SignIn(rec, req, u); err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected session cookie")
	}
	return cookies
}
