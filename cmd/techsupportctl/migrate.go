package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"techsupport/backend/internal/store/postgres"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the Postgres schema",
	}

	step := func(use, short string, fn func(ctx context.Context, db *sql.DB) error) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := opts.load()
				if err != nil {
					return err
				}
				if cfg.Database.Driver != "postgres" {
					return fmt.Errorf("migrations apply to the postgres driver, configured driver is %q", cfg.Database.Driver)
				}

				ctx := cmd.Context()
				db, err := postgres.Open(ctx, cfg.Database.URL, postgres.PoolConfig{MaxConns: 2})
				if err != nil {
					return err
				}
				defer postgres.Close(db)

				if err := fn(ctx, db.SQL()); err != nil {
					return err
				}
				v, err := postgres.SchemaVersion(ctx, db.SQL())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", v)
				return nil
			},
		}
	}

	cmd.AddCommand(
		step("up", "Apply all pending migrations", postgres.MigrateUp),
		step("down", "Roll back the latest migration", postgres.MigrateDown),
		step("status", "Show applied and pending migrations", postgres.MigrateStatus),
	)
	return cmd
}
