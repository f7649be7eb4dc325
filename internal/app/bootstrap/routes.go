// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	acceptfeature "github.com/dalemusser/gatehouse/internal/app/features/acceptinvite"
	accountsfeature "github.com/dalemusser/gatehouse/internal/app/features/accounts"
	"github.com/dalemusser/gatehouse/internal/app/features/apierr"
	auditfeature "github.com/dalemusser/gatehouse/internal/app/features/auditfeed"
	healthfeature "github.com/dalemusser/gatehouse/internal/app/features/health"
	invitesfeature "github.com/dalemusser/gatehouse/internal/app/features/invites"
	loginfeature "github.com/dalemusser/gatehouse/internal/app/features/login"
	"github.com/dalemusser/gatehouse/internal/app/lifecycle"
	"github.com/dalemusser/gatehouse/internal/app/store/audit"
	invitestore "github.com/dalemusser/gatehouse/internal/app/store/invites"
	"github.com/dalemusser/gatehouse/internal/app/store/oauthstate"
	userstore "github.com/dalemusser/gatehouse/internal/app/store/users"
	"github.com/dalemusser/gatehouse/internal/app/system/auditlog"
	"github.com/dalemusser/gatehouse/internal/app/system/auth"
	"github.com/dalemusser/gatehouse/internal/app/system/identity"
	"github.com/dalemusser/gatehouse/internal/app/system/mailer"
	"github.com/dalemusser/gatehouse/internal/app/system/token"
	"github.com/dalemusser/gatehouse/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed. Gatehouse wires the stores, the audit
// logger, the invite notifier, and the lifecycle manager here, then mounts:
//
//   - public: /health, /auth/google (OAuth), /invite/{token} (resolve/accept)
//   - admin (founder/admin sessions only): /invites, /accounts, /audit
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase

	// Session manager with secure cookies in production.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Provisioned sessions are refreshed against the users collection on
	// every request, so role changes and deactivation take effect
	// immediately. Guest sessions (invitees mid-flow) are left alone.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(db))

	errLog := apierr.NewErrorLogger(logger)

	auditLogger := auditlog.New(audit.New(db), logger, auditlog.Config{
		Invite:  appCfg.AuditLogInvite,
		Account: appCfg.AuditLogAccount,
		Auth:    appCfg.AuditLogAuth,
	})

	directory := identity.NewDirectory(db)

	smtp := mailer.New(mailer.Config{
		Host:     appCfg.MailSMTPHost,
		Port:     appCfg.MailSMTPPort,
		Username: appCfg.MailSMTPUser,
		Password: appCfg.MailSMTPPass,
		From:     appCfg.MailFrom,
		FromName: appCfg.MailFromName,
	}, logger)
	notifier := mailer.NewInviteNotifier(smtp, appCfg.BaseURL, appCfg.SiteName, logger)

	lc := lifecycle.New(lifecycle.Deps{
		Invites:    invitestore.New(db),
		Users:      userstore.New(db),
		Identity:   directory,
		Audit:      auditLogger,
		Notifier:   notifier,
		Tokens:     token.NewIssuer(appCfg.InviteExpiry),
		FounderUID: appCfg.FounderUID,
		Logger:     logger,
	})

	r := chi.NewRouter()

	// Global auth middleware: loads the SessionUser into context if signed in.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Google OAuth sign-in
	loginHandler := loginfeature.NewHandler(sessionMgr, auditLogger, oauthstate.New(db), userstore.New(db), directory,
		appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL, logger)
	r.Mount("/auth/google", loginfeature.Routes(loginHandler))
	r.Post("/logout", loginHandler.ServeLogout)

	// Invite resolve/accept (resolve is public, accept requires a session)
	acceptHandler := acceptfeature.NewHandler(lc, sessionMgr, errLog, logger)
	r.Mount("/invite", acceptfeature.Routes(acceptHandler))

	// Admin surface
	r.Group(func(r chi.Router) {
		r.Use(sessionMgr.RequireRole(models.RoleFounder, models.RoleAdmin))

		invitesHandler := invitesfeature.NewHandler(lc, errLog, logger)
		r.Mount("/invites", invitesfeature.Routes(invitesHandler))

		accountsHandler := accountsfeature.NewHandler(lc, errLog, logger)
		r.Mount("/accounts", accountsfeature.Routes(accountsHandler))

		auditHandler := auditfeature.NewHandler(audit.New(db), errLog, logger)
		r.Mount("/audit", auditfeature.Routes(auditHandler))
	})

	return r, nil
}
