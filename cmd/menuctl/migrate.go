package main

import (
	"context"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newMigrateCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL schema",
	}

	var upSteps int
	up := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations (all by default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withMigrator(cmd, func(ctx context.Context, m migrator) error {
				if err := m.MigrateUp(ctx, upSteps); err != nil {
					return fmt.Errorf("migrate up failed: %w", err)
				}
				return printMigrationStatus(ctx, cmd.OutOrStdout(), m)
			})
		},
	}
	up.Flags().IntVar(&upSteps, "steps", 0, "number of migrations to apply (0 = all)")

	var downSteps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back applied migrations (one by default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withMigrator(cmd, func(ctx context.Context, m migrator) error {
				steps := downSteps
				if steps <= 0 {
					steps = 1
				}
				if err := m.MigrateDown(ctx, steps); err != nil {
					return fmt.Errorf("migrate down failed: %w", err)
				}
				return printMigrationStatus(ctx, cmd.OutOrStdout(), m)
			})
		},
	}
	down.Flags().IntVar(&downSteps, "steps", 1, "number of migrations to roll back")

	status := &cobra.Command{
		Use:   "status",
		Short: "Show the schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withMigrator(cmd, func(ctx context.Context, m migrator) error {
				return printMigrationStatus(ctx, cmd.OutOrStdout(), m)
			})
		},
	}

	cmd.AddCommand(up, down, status)
	return cmd
}

func (c *cli) withMigrator(cmd *cobra.Command, fn func(ctx context.Context, m migrator) error) error {
	return c.withBackend(cmd, func(ctx context.Context, b *backend) error {
		if b.migrator == nil {
			return errMigrationsUnsupported
		}
		return fn(ctx, b.migrator)
	})
}

func printMigrationStatus(ctx context.Context, out io.Writer, m migrator) error {
	state, err := m.MigrationStatus(ctx)
	if err != nil {
		return fmt.Errorf("migration status failed: %w", err)
	}

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"VERSION", "APPLIED", "PENDING"})
	t.AppendRow(table.Row{state.Version, state.Applied, state.Pending})
	t.Render()
	return nil
}
