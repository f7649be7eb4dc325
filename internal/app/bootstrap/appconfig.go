// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig handles framework-level settings (ports, TLS, logging
// level, CORS, request limits). AppConfig is everything specific to
// Gatehouse: the MongoDB connection, session cookies, SMTP relay, Google
// OAuth credentials, invite policy, and the founder account.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max connection pool size
	MongoMinPoolSize uint64 // Min connection pool size

	// Session management configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionName   string // Cookie name for sessions (default: gatehouse-session)
	SessionDomain string // Cookie domain (blank means current host)

	// Base URL for invite links and OAuth callbacks
	BaseURL string // e.g., "https://gatehouse.example" or "http://localhost:3000"

	// SiteName appears in invite email subjects and bodies.
	SiteName string

	// Email/SMTP configuration
	MailSMTPHost string // SMTP server host (localhost for Mailpit, SES endpoint in prod)
	MailSMTPPort int    // SMTP server port (1025 for Mailpit, 587 for SES)
	MailSMTPUser string // SMTP username (empty for unauthenticated relays)
	MailSMTPPass string // SMTP password
	MailFrom     string // From email address (e.g., noreply@gatehouse.example)
	MailFromName string // From display name (e.g., Gatehouse)

	// InviteExpiry is the acceptance window for newly issued invite tokens.
	InviteExpiry time.Duration

	// Audit logging settings: "all" (db+log), "db", "log", or "off" per category
	AuditLogInvite  string
	AuditLogAccount string
	AuditLogAuth    string

	// Google OAuth configuration
	GoogleClientID     string
	GoogleClientSecret string

	// Founder account bootstrap. FounderUID is the identity-provider subject
	// of the single protected account; it is injected into the lifecycle
	// manager so the guarded mutations can refuse to touch it.
	FounderUID   string
	FounderEmail string

	// Database operation timeouts. Zero values keep the package defaults.
	DBPingTimeout   time.Duration
	DBShortTimeout  time.Duration
	DBMediumTimeout time.Duration
	DBLongTimeout   time.Duration
}
