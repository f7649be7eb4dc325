// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"

	userstore "github.com/dalemusser/gatehouse/internal/app/store/users"
	"github.com/dalemusser/gatehouse/internal/app/system/identity"
	"github.com/dalemusser/gatehouse/internal/app/system/normalize"
	"github.com/dalemusser/gatehouse/internal/app/system/timeouts"
	"github.com/dalemusser/gatehouse/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. Gatehouse
// applies the configured DB timeouts and makes sure the founder account
// exists, since every guarded mutation is defined relative to it.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{
		Ping:   appCfg.DBPingTimeout,
		Short:  appCfg.DBShortTimeout,
		Medium: appCfg.DBMediumTimeout,
		Long:   appCfg.DBLongTimeout,
	})

	if appCfg.FounderUID == "" {
		logger.Warn("founder_uid is not configured; founder account protection is inactive")
		return nil
	}
	return ensureFounder(ctx, deps, appCfg.FounderUID, appCfg.FounderEmail, logger)
}

// ensureFounder guarantees that the configured founder UID maps to an
// active founder account. An existing account under that UID is promoted
// and reactivated; otherwise a founder document is created from config.
func ensureFounder(ctx context.Context, deps DBDeps, uid, email string, logger *zap.Logger) error {
	store := userstore.New(deps.MongoDatabase)

	u, err := store.GetByUID(ctx, uid)
	switch {
	case err == nil:
		if u.Role != models.RoleFounder || u.Status != models.StatusActive {
			if err := store.PromoteFounder(ctx, uid); err != nil {
				logger.Error("failed to promote founder account", zap.String("uid", uid), zap.Error(err))
				return err
			}
			logger.Info("promoted existing account to founder",
				zap.String("uid", uid),
				zap.String("previous_role", u.Role))
		}
	case errors.Is(err, userstore.ErrNotFound):
		if email == "" {
			logger.Warn("founder account does not exist and founder_email is not set; skipping creation",
				zap.String("uid", uid))
			return nil
		}
		if _, err := store.Insert(ctx, models.User{
			UID:    uid,
			Email:  normalize.Email(email),
			Role:   models.RoleFounder,
			Status: models.StatusActive,
		}); err != nil {
			logger.Error("failed to create founder account", zap.String("uid", uid), zap.Error(err))
			return err
		}
		logger.Info("created founder account", zap.String("uid", uid), zap.String("email", email))
	default:
		return err
	}

	// Mirror the role into the identity directory so external role claims
	// agree with the store. Best effort; the users collection stays
	// authoritative.
	if err := identity.NewDirectory(deps.MongoDatabase).SetRoleClaim(ctx, uid, models.RoleFounder); err != nil {
		logger.Warn("failed to set founder role claim", zap.String("uid", uid), zap.Error(err))
	}
	return nil
}
