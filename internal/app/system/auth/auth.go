// internal/app/system/auth/auth.go
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dalemusser/gatehouse/internal/app/system/timeouts"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const (
	isAuthKey    = "is_authenticated"
	userUIDKey   = "user_uid"
	userNameKey  = "user_name"
	userEmailKey = "user_email"
	userRoleKey  = "user_role"
)

// SessionUser is what we cache in the session and inject into r.Context().
// Role is empty for invitee sessions that have authenticated but hold no
// provisioned account yet.
type SessionUser struct {
	UID   string
	Name  string
	Email string
	Role  string
}

// UserFetcher loads the live account state for a session's uid so role
// changes and deactivation take effect without waiting for cookie expiry.
type UserFetcher interface {
	FetchSessionUser(ctx context.Context, uid string) (*SessionUser, bool, error)
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user & "found?" flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok
}

// WithUser returns a request whose context carries u. Handler tests use this
// to simulate a signed-in caller without running the middleware.
func WithUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

// Manager owns the cookie session store and the middleware around it.
type Manager struct {
	store   *sessions.CookieStore
	name    string
	fetcher UserFetcher
	log     *zap.Logger
}

// NewManager builds a session Manager from the configured session key and
// cookie settings. The `secure` flag controls whether cookies are marked
// Secure and which SameSite mode is used: in production (secure=true)
// cookies are Secure + SameSite=None; over http://localhost use
// secure=false so cookies are accepted.
func NewManager(sessionKey, name, domain string, secure bool, logger *zap.Logger) (*Manager, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("session key is empty; provide ≥32 random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	opts := &sessions.Options{
		Domain:   domain,
		Path:     "/",
		Secure:   secure,
		HttpOnly: true,
	}
	if secure {
		opts.SameSite = http.SameSiteNoneMode
	} else {
		opts.SameSite = http.SameSiteLaxMode
	}
	store.Options = opts

	logger.Info("session store initialized",
		zap.Bool("secure", secure),
		zap.String("domain", domain))

	return &Manager{store: store, name: name, log: logger}, nil
}

// SetUserFetcher enables per-request refresh of the session user from the
// database. Without a fetcher, sessions carry whatever was written at
// sign-in until they expire.
func (m *Manager) SetUserFetcher(f UserFetcher) {
	m.fetcher = f
}

// SignIn writes u into the session cookie.
func (m *Manager) SignIn(w http.ResponseWriter, r *http.Request, u *SessionUser) error {
	sess, _ := m.store.Get(r, m.name)
	sess.Values[isAuthKey] = true
	sess.Values[userUIDKey] = u.UID
	sess.Values[userNameKey] = u.Name
	sess.Values[userEmailKey] = u.Email
	sess.Values[userRoleKey] = u.Role
	return sess.Save(r, w)
}

// SignOut clears the session cookie.
func (m *Manager) SignOut(w http.ResponseWriter, r *http.Request) error {
	sess, _ := m.store.Get(r, m.name)
	sess.Values = map[interface{}]interface{}{}
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// LoadSessionUser injects the user into context if they are signed in.
//
// For sessions belonging to a provisioned account (Role non-empty), the
// fetcher re-reads the account on each request: a changed role is reflected
// immediately and a deactivated or deleted account stops resolving, so the
// session goes dark without waiting for cookie expiry. Invitee sessions
// (Role empty) have no account to refresh and pass through as written.
func (m *Manager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := m.store.Get(r, m.name)
		if err != nil {
			var scErr securecookie.Error
			if errors.As(err, &scErr) && scErr.IsDecode() {
				m.log.Warn("session cookie rejected", zap.Error(err))
			}
			// store.Get returns a fresh session alongside the error, so we
			// continue as a guest.
		}

		if isAuth, _ := sess.Values[isAuthKey].(bool); isAuth {
			u := &SessionUser{
				UID:   getString(sess, userUIDKey),
				Name:  getString(sess, userNameKey),
				Email: getString(sess, userEmailKey),
				Role:  getString(sess, userRoleKey),
			}
			if u.Role != "" && m.fetcher != nil {
				fresh, ok := m.refresh(r.Context(), u)
				if !ok {
					next.ServeHTTP(w, r)
					return
				}
				u = fresh
			}
			r = WithUser(r, u)
		}
		next.ServeHTTP(w, r)
	})
}

// refresh loads the live account state. On fetch error the stale session
// copy is kept rather than failing the request.
func (m *Manager) refresh(ctx context.Context, stale *SessionUser) (*SessionUser, bool) {
	fctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	fresh, ok, err := m.fetcher.FetchSessionUser(fctx, stale.UID)
	if err != nil {
		m.log.Error("session user refresh failed",
			zap.String("uid", stale.UID),
			zap.Error(err))
		return stale, true
	}
	if !ok {
		return nil, false
	}
	return fresh, true
}

// RequireSignedIn ensures there is a user in context (set by
// LoadSessionUser) and responds 401 otherwise.
func (m *Manager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); !ok {
			writeJSONError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole ensures there is a user in context holding one of the allowed
// roles. Not signed in → 401; signed in with the wrong role → 403.
func (m *Manager) RequireRole(allowed ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		set[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if _, has := set[strings.ToLower(u.Role)]; !has {
				writeJSONError(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"error":%q}`, msg)
}

// getString safely extracts a string from a session value.
func getString(s *sessions.Session, key string) string {
	if v, ok := s.Values[key].(string); ok {
		return v
	}
	return ""
}
