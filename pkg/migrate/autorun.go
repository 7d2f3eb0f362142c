package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// AutoRunEnabled reports whether a binary should apply pending migrations on
// boot. Only dev environments with STOREFRONT_AUTO_MIGRATE set qualify.
func AutoRunEnabled(app config.AppConfig) bool {
	return app.IsDev() && app.AutoMigrate
}

// MaybeRunDev applies pending migrations from DefaultDir when AutoRunEnabled.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !AutoRunEnabled(cfg.App) {
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	dialect := DialectFor(cfg.DB)
	ctx = logg.WithFields(ctx, map[string]any{"dir": DefaultDir, "dialect": dialect})
	logg.Info(ctx, "migrate.autorun.start")

	if err := Run(ctx, sqlDB, dialect, DefaultDir, "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	version, err := CurrentVersion(sqlDB, dialect)
	if err != nil {
		return err
	}
	logg.Info(logg.WithField(ctx, "version", version), "migrate.autorun.done")
	return nil
}
