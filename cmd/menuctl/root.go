package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vladislavdragonenkov/menus/internal/app"
	menusvc "github.com/vladislavdragonenkov/menus/internal/service/menu"
	"github.com/vladislavdragonenkov/menus/internal/version"
)

const defaultCommandTimeout = 30 * time.Second

// cli хранит общие флаги и способ открыть хранилище.
type cli struct {
	configPath string
	driver     string
	dsn        string
	timeout    time.Duration
	open       backendOpener
}

func newRootCmd(open backendOpener) *cobra.Command {
	c := &cli{open: open}

	root := &cobra.Command{
		Use:   "menuctl",
		Short: "Administer the hierarchical menu store",
		Long: `menuctl manages the menu-service storage: schema migrations,
seeding the default menu tree and inspecting stored menus.`,
		Version:       version.GetVersion(),
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.SetVersionTemplate(`{{printf "menuctl version %s\n" .Version}}`)

	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", os.Getenv("MENU_CONFIG_FILE"), "path to a YAML config file")
	flags.StringVar(&c.driver, "driver", "", "storage driver override: memory|postgres")
	flags.StringVar(&c.dsn, "dsn", "", "PostgreSQL DSN (fallback: MENU_POSTGRES_DSN)")
	flags.DurationVar(&c.timeout, "timeout", defaultCommandTimeout, "timeout for the whole command")

	root.AddCommand(
		newMigrateCmd(c),
		newSeedCmd(c),
		newTreeCmd(c),
		newListCmd(c),
		newDLQCmd(c),
		newVersionCmd(),
	)
	return root
}

// config собирает конфигурацию: файл и окружение, затем флаги.
func (c *cli) config() (app.Config, error) {
	cfg, err := app.LoadConfig(c.configPath)
	if err != nil {
		return app.Config{}, err
	}
	if c.dsn != "" {
		cfg.PostgresDSN = c.dsn
		if c.driver == "" {
			cfg.StorageDriver = app.StorageDriverPostgres
		}
	}
	if c.driver != "" {
		cfg.StorageDriver = c.driver
	}
	return cfg, nil
}

// withBackend открывает хранилище на время выполнения fn.
func (c *cli) withBackend(cmd *cobra.Command, fn func(ctx context.Context, b *backend) error) error {
	cfg, err := c.config()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), c.timeout)
	defer cancel()

	b, err := c.open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer b.Close()

	return fn(ctx, b)
}

// engine строит сервис меню без кэша и событий: CLI живёт недолго.
func engine(b *backend) *menusvc.Service {
	return menusvc.NewService(b.store)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
