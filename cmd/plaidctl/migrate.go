package main

import (
	"fmt"

	"github.com/garrettladley/plaidgate/internal/migrations/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			url, err := databaseURL()
			if err != nil {
				return err
			}

			pool, err := pgxpool.New(ctx, url)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer pool.Close()

			if dryRun {
				pending, err := postgres.Pending(ctx, pool)
				if err != nil {
					return err
				}
				if len(pending) == 0 {
					fmt.Println("No pending migrations")
					return nil
				}
				for _, name := range pending {
					fmt.Printf("pending: %s\n", name)
				}
				return nil
			}

			applied, err := postgres.Apply(ctx, pool)
			for _, name := range applied {
				fmt.Printf("applied: %s\n", name)
			}
			if err != nil {
				return err
			}

			fmt.Println("Migrations applied successfully")
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list pending migrations without applying them")
	return cmd
}
