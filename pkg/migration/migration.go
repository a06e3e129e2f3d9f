package migration

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"storefront/pkg/config"
	"storefront/pkg/logger"
)

const defaultSource = "file://migrations"

type Params struct {
	fx.In
	Logger logger.Logger
	Config config.IConfig
}

// Up applies every pending migration from database.migrations_source.
func Up(p Params) error {
	ctx := context.TODO()

	source := p.Config.GetString("database.migrations_source")
	if source == "" {
		source = defaultSource
	}

	m, err := migrate.New(source, p.Config.GetString("database.migration"))
	if err != nil {
		p.Logger.Error(ctx, "err from migration.New", zap.Error(err))
		return fmt.Errorf("migration: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		p.Logger.Error(ctx, "err from up migration", zap.Error(err))
		return fmt.Errorf("migration up: %w", err)
	}

	version, dirty, _ := m.Version()
	p.Logger.Info(ctx, "migrations applied", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}
