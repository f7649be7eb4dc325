// internal/app/features/login/handler.go
package login

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dalemusser/gatehouse/internal/app/store/oauthstate"
	userstore "github.com/dalemusser/gatehouse/internal/app/store/users"
	"github.com/dalemusser/gatehouse/internal/app/system/auditlog"
	"github.com/dalemusser/gatehouse/internal/app/system/auth"
	"github.com/dalemusser/gatehouse/internal/app/system/identity"
	"github.com/dalemusser/gatehouse/internal/app/system/normalize"
	"github.com/dalemusser/gatehouse/internal/app/system/timeouts"
	"github.com/dalemusser/gatehouse/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Handler handles Google OAuth authentication.
//
// Unlike a members-only login, an unrecognized Google account is not an
// error here: invitees authenticate before they hold an account, so the
// callback issues a guest session (empty role) for them. The accept flow
// upgrades the session once the invite is consumed.
type Handler struct {
	Log       *zap.Logger
	Sessions  *auth.Manager
	Audit     *auditlog.Logger
	States    *oauthstate.Store
	Users     *userstore.Store
	Directory *identity.Directory

	// OAuth configuration
	ClientID     string
	ClientSecret string
	RedirectURL  string // e.g., "https://gatehouse.example/auth/google/callback"
}

// NewHandler creates a new Google OAuth handler.
func NewHandler(
	sessions *auth.Manager,
	audit *auditlog.Logger,
	states *oauthstate.Store,
	users *userstore.Store,
	directory *identity.Directory,
	clientID, clientSecret, baseURL string,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Log:          logger,
		Sessions:     sessions,
		Audit:        audit,
		States:       states,
		Users:        users,
		Directory:    directory,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  baseURL + "/auth/google/callback",
	}
}

// oauth2Config returns the Google OAuth2 configuration.
func (h *Handler) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.ClientID,
		ClientSecret: h.ClientSecret,
		RedirectURL:  h.RedirectURL,
		Scopes: []string{
			"openid",
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}
}

// IsConfigured returns true if Google OAuth is configured.
func (h *Handler) IsConfigured() bool {
	return h.ClientID != "" && h.ClientSecret != ""
}

// ServeLogin handles GET /auth/google.
// Initiates the OAuth flow by redirecting to Google's consent screen.
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if !h.IsConfigured() {
		h.Log.Warn("Google OAuth not configured")
		http.Error(w, "sign-in is not configured", http.StatusServiceUnavailable)
		return
	}

	state := oauthstate.NewState()
	returnURL := query.Get(r, "return")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	expiresAt := time.Now().UTC().Add(oauthstate.DefaultTTL)
	if err := h.States.Save(ctx, state, returnURL, expiresAt); err != nil {
		h.Log.Error("failed to save OAuth state", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	url := h.oauth2Config().AuthCodeURL(state)
	h.Log.Debug("initiating Google OAuth flow",
		zap.String("return_url", returnURL))

	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// ServeCallback handles GET /auth/google/callback.
// Validates the state, exchanges the code, records the identity, and signs
// the browser in: role session for provisioned accounts, guest session for
// everyone else.
func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	meta := auditlog.Meta(r)

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.Log.Warn("Google OAuth error",
			zap.String("error", errParam),
			zap.String("description", r.URL.Query().Get("error_description")))
		h.Audit.LoginDenied(ctx, meta, "provider: "+errParam)
		h.redirectWithError(w, r, "google_denied")
		return
	}

	state := r.URL.Query().Get("state")
	if state == "" {
		h.Audit.LoginDenied(ctx, meta, "missing state")
		h.redirectWithError(w, r, "invalid_state")
		return
	}

	sctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	returnURL, valid, err := h.States.Validate(sctx, state)
	if err != nil {
		h.Log.Error("failed to validate OAuth state", zap.Error(err))
		h.redirectWithError(w, r, "internal")
		return
	}
	if !valid {
		h.Audit.LoginDenied(ctx, meta, "invalid or expired state")
		h.redirectWithError(w, r, "invalid_state")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		h.Audit.LoginDenied(ctx, meta, "missing code")
		h.redirectWithError(w, r, "invalid_code")
		return
	}

	token, err := h.oauth2Config().Exchange(ctx, code)
	if err != nil {
		h.Log.Error("failed to exchange OAuth code", zap.Error(err))
		h.redirectWithError(w, r, "token_exchange")
		return
	}

	googleUser, err := fetchGoogleUserInfo(ctx, token)
	if err != nil {
		h.Log.Error("failed to fetch Google user info", zap.Error(err))
		h.redirectWithError(w, r, "user_info")
		return
	}

	email := normalize.Email(googleUser.Email)
	h.Log.Debug("Google user info fetched",
		zap.String("google_id", googleUser.ID),
		zap.String("email", email))

	if err := h.Directory.RecordLogin(sctx, identity.Account{
		UID:         googleUser.ID,
		Email:       email,
		DisplayName: googleUser.Name,
		PhotoURL:    googleUser.Picture,
	}); err != nil {
		h.Log.Warn("failed to record login in identity directory", zap.Error(err))
	}

	sessionUser, err := h.resolveSessionUser(sctx, googleUser, email)
	if err != nil {
		if errors.Is(err, errAccountDisabled) {
			h.Audit.LoginDenied(ctx, meta, "account disabled")
			h.redirectWithError(w, r, "account_disabled")
			return
		}
		h.Log.Error("failed to look up account", zap.Error(err))
		h.redirectWithError(w, r, "internal")
		return
	}

	if err := h.Sessions.SignIn(w, r, sessionUser); err != nil {
		h.Log.Error("save session failed", zap.Error(err), zap.String("uid", sessionUser.UID))
		h.redirectWithError(w, r, "session")
		return
	}

	h.Audit.LoginSuccess(ctx, meta, sessionUser.UID, sessionUser.Email)
	h.Log.Info("user logged in via Google OAuth",
		zap.String("uid", sessionUser.UID),
		zap.String("role", sessionUser.Role))

	http.Redirect(w, r, urlutil.SafeReturn(returnURL, "", "/"), http.StatusSeeOther)
}

var errAccountDisabled = errors.New("account disabled")

// resolveSessionUser maps an authenticated Google identity to a session
// user. Provisioned active accounts carry their role; identities with no
// account get a guest session so they can reach the accept flow.
func (h *Handler) resolveSessionUser(ctx context.Context, g *googleUserInfo, email string) (*auth.SessionUser, error) {
	u, err := h.Users.GetByUID(ctx, g.ID)
	if err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			return &auth.SessionUser{
				UID:   g.ID,
				Name:  g.Name,
				Email: email,
				Role:  "",
			}, nil
		}
		return nil, err
	}
	if u.Status != models.StatusActive {
		return nil, errAccountDisabled
	}
	return &auth.SessionUser{
		UID:   u.UID,
		Name:  u.DisplayName,
		Email: u.Email,
		Role:  u.Role,
	}, nil
}

// ServeLogout handles POST /logout.
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	if u, ok := auth.CurrentUser(r); ok {
		h.Audit.Logout(r.Context(), auditlog.Meta(r), u.UID)
	}
	if err := h.Sessions.SignOut(w, r); err != nil {
		h.Log.Error("logout: save session", zap.Error(err))
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "signed_out"})
}

// redirectWithError sends the browser back to the app root with an error
// code the frontend can surface.
func (h *Handler) redirectWithError(w http.ResponseWriter, r *http.Request, code string) {
	http.Redirect(w, r, "/?error="+code, http.StatusSeeOther)
}

// googleUserInfo represents user info returned from Google.
type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// fetchGoogleUserInfo retrieves user information from Google's userinfo endpoint.
func fetchGoogleUserInfo(ctx context.Context, token *oauth2.Token) (*googleUserInfo, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))

	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}
	return &info, nil
}
