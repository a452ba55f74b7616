package migrate

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/pins-charity/orderforms-backend/pkg/config"
	"github.com/pins-charity/orderforms-backend/pkg/db"
	"github.com/pins-charity/orderforms-backend/pkg/db/models"
	"github.com/pins-charity/orderforms-backend/pkg/logger"
)

// Models lists every table the service owns, parents first.
func Models() []any {
	return []any{
		&models.OrderForm{},
		&models.ProductVariant{},
		&models.ShippingTier{},
		&models.Voucher{},
		&models.OrderSubmission{},
	}
}

// AutoMigrate builds the schema straight from the gorm models. It backs the
// sqlite driver, which the goose SQL files do not target.
func AutoMigrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db is required")
	}
	if err := conn.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// MaybeRunDev executes migrations automatically when the app is running in dev mode and
// the feature flag is enabled. sqlite databases are always auto-migrated.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if client.Driver() == config.DBDriverSQLite {
		logg.Info(logg.WithField(ctx, "driver", client.Driver()), "auto-migrating sqlite schema")
		return AutoMigrate(client.DB())
	}
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "dir": DefaultDir})
	logg.Info(ctx, "running Goose migrations (dev auto-run)")

	if err := (Goose{DB: sqlDB, Dir: DefaultDir}).Run(ctx, "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	logg.Info(ctx, "Goose migrations completed")
	return nil
}
