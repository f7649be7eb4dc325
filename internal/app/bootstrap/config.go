// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/gatehouse/internal/app/system/token"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for Gatehouse.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: GATEHOUSE_MONGO_URI, GATEHOUSE_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "gatehouse", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size"},

	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "gatehouse-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},

	{Name: "base_url", Default: "http://localhost:3000", Desc: "Base URL for invite links and OAuth callbacks"},
	{Name: "site_name", Default: "Gatehouse", Desc: "Site name used in invite emails"},

	// Email/SMTP configuration
	{Name: "mail_smtp_host", Default: "localhost", Desc: "SMTP server host"},
	{Name: "mail_smtp_port", Default: 1025, Desc: "SMTP server port"},
	{Name: "mail_smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "mail_smtp_pass", Default: "", Desc: "SMTP password"},
	{Name: "mail_from", Default: "noreply@gatehouse.example", Desc: "From email address"},
	{Name: "mail_from_name", Default: "Gatehouse", Desc: "From display name"},

	// Invite policy
	{Name: "invite_expiry", Default: "168h", Desc: "Invite acceptance window (e.g., 168h, 72h)"},

	// Audit logging settings
	{Name: "audit_log_invite", Default: "all", Desc: "Invite event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_account", Default: "all", Desc: "Account event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Google OAuth configuration
	{Name: "google_client_id", Default: "", Desc: "Google OAuth2 client ID"},
	{Name: "google_client_secret", Default: "", Desc: "Google OAuth2 client secret"},

	// Founder bootstrap
	{Name: "founder_uid", Default: "", Desc: "Identity UID of the protected founder account"},
	{Name: "founder_email", Default: "", Desc: "Email for the founder account (created on startup if missing)"},

	// Database operation timeouts (blank keeps defaults)
	{Name: "db_ping_timeout", Default: "", Desc: "Timeout for health-check pings (e.g., 2s)"},
	{Name: "db_short_timeout", Default: "", Desc: "Timeout for single-document operations (e.g., 5s)"},
	{Name: "db_medium_timeout", Default: "", Desc: "Timeout for list queries (e.g., 10s)"},
	{Name: "db_long_timeout", Default: "", Desc: "Timeout for index builds and migrations (e.g., 30s)"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, GATEHOUSE_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "GATEHOUSE", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),

		BaseURL:  appValues.String("base_url"),
		SiteName: appValues.String("site_name"),

		MailSMTPHost: appValues.String("mail_smtp_host"),
		MailSMTPPort: appValues.Int("mail_smtp_port"),
		MailSMTPUser: appValues.String("mail_smtp_user"),
		MailSMTPPass: appValues.String("mail_smtp_pass"),
		MailFrom:     appValues.String("mail_from"),
		MailFromName: appValues.String("mail_from_name"),

		InviteExpiry: appValues.Duration("invite_expiry", token.DefaultTTL),

		AuditLogInvite:  appValues.String("audit_log_invite"),
		AuditLogAccount: appValues.String("audit_log_account"),
		AuditLogAuth:    appValues.String("audit_log_auth"),

		GoogleClientID:     appValues.String("google_client_id"),
		GoogleClientSecret: appValues.String("google_client_secret"),

		FounderUID:   appValues.String("founder_uid"),
		FounderEmail: appValues.String("founder_email"),

		DBPingTimeout:   appValues.Duration("db_ping_timeout", 0),
		DBShortTimeout:  appValues.Duration("db_short_timeout", 0),
		DBMediumTimeout: appValues.Duration("db_medium_timeout", 0),
		DBLongTimeout:   appValues.Duration("db_long_timeout", 0),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Gatehouse validates the MongoDB URI format to catch configuration errors
// before attempting to connect, and enforces production invariants: a real
// session key and a configured founder account.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if appCfg.InviteExpiry <= 0 {
		return fmt.Errorf("invite_expiry must be positive, got %v", appCfg.InviteExpiry)
	}

	if coreCfg.Env == "prod" {
		if len(appCfg.SessionKey) < 32 || appCfg.SessionKey == "dev-only-change-me-please-0123456789ABCDEF" {
			return fmt.Errorf("session_key must be a strong unique value in production")
		}
		if appCfg.FounderUID == "" {
			return fmt.Errorf("founder_uid must be set in production")
		}
		if appCfg.GoogleClientID == "" || appCfg.GoogleClientSecret == "" {
			logger.Warn("Google OAuth is not configured; sign-in will be unavailable")
		}
	}

	if appCfg.InviteExpiry < time.Hour {
		logger.Warn("invite_expiry is unusually short", zap.Duration("invite_expiry", appCfg.InviteExpiry))
	}

	return nil
}
