package main

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vladislavdragonenkov/menus/internal/seed"
)

func newSeedCmd(c *cli) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Populate the store with the default menu tree",
		Long: `seed creates the default menu tree. A non-empty store is left
untouched unless --force is given, in which case every existing menu
is deleted first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withBackend(cmd, func(ctx context.Context, b *backend) error {
				created, err := seed.Run(ctx, engine(b), seed.Options{
					Force:  force,
					Logger: log.WithField("component", "menuctl"),
				})
				if errors.Is(err, seed.ErrNotEmpty) {
					return fmt.Errorf("%w (use --force to replace it)", err)
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "seeded %d menus\n", created)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "delete existing menus before seeding")
	return cmd
}
