package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/menus/internal/app"
	menusvc "github.com/vladislavdragonenkov/menus/internal/service/menu"
	"github.com/vladislavdragonenkov/menus/internal/storage/memory"
	"github.com/vladislavdragonenkov/menus/internal/storage/postgres"
)

var errMigrationsUnsupported = errors.New("migrations require the postgres storage driver")

// migrator — управление схемой, есть только у PostgreSQL.
type migrator interface {
	MigrateUp(ctx context.Context, steps int) error
	MigrateDown(ctx context.Context, steps int) error
	MigrationStatus(ctx context.Context) (postgres.MigrationState, error)
}

// backend — хранилище, с которым работает menuctl.
type backend struct {
	store    menusvc.Store
	migrator migrator
	close    func() error
}

func (b *backend) Close() error {
	if b == nil || b.close == nil {
		return nil
	}
	return b.close()
}

type backendOpener func(ctx context.Context, cfg app.Config) (*backend, error)

// openBackend открывает хранилище по конфигурации. Схема не мигрируется
// автоматически: этим управляет команда migrate.
func openBackend(ctx context.Context, cfg app.Config) (*backend, error) {
	switch cfg.StorageDriver {
	case app.StorageDriverMemory, "":
		return &backend{store: memory.NewStore()}, nil
	case app.StorageDriverPostgres:
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("postgres storage requires --dsn or MENU_POSTGRES_DSN")
		}
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return &backend{store: store, migrator: store, close: store.Close}, nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}
