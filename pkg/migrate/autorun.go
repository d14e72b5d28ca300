package migrate

import (
	"context"
	"fmt"

	"github.com/mcbeauty/storefront-backend/pkg/config"
	"github.com/mcbeauty/storefront-backend/pkg/db"
	"github.com/mcbeauty/storefront-backend/pkg/db/models"
	"github.com/mcbeauty/storefront-backend/pkg/logger"
)

// MaybeRunDev brings the schema up to date on boot in dev when auto-migrate
// is enabled. The SQL files target Postgres, so SQLite is built from the GORM
// models instead.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "db_driver": client.Driver()})

	if client.Driver() == db.DriverSQLite {
		logg.Info(ctx, "auto-migrating sqlite schema from models")
		if err := client.DB().WithContext(ctx).AutoMigrate(models.All()...); err != nil {
			return fmt.Errorf("sqlite automigrate: %w", err)
		}
		return nil
	}

	conn, err := client.SQLDB()
	if err != nil {
		return err
	}
	m, err := New(conn, client.Driver(), Embedded(), logg)
	if err != nil {
		return err
	}
	logg.Info(ctx, "applying embedded migrations")
	return m.Up(ctx)
}
