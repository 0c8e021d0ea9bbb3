package migrate

import (
	"context"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/instafit/fieldops-backend/pkg/config"
	"github.com/instafit/fieldops-backend/pkg/db"
	"github.com/instafit/fieldops-backend/pkg/logger"
)

// MaybeRunDev brings a dev database up to date on boot when
// FIELDOPS_AUTO_MIGRATE is set. Other environments migrate through cmd/migrate.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}
	sqlDB, err := client.SQL()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	ctx = logg.WithField(ctx, "event", "migrate.autorun")
	if err := Run(ctx, sqlDB, DefaultDir, "up"); err != nil {
		return err
	}
	version, err := goose.GetDBVersionContext(ctx, sqlDB)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	logg.Info(logg.WithField(ctx, "schema_version", version), "dev database migrated")
	return nil
}
