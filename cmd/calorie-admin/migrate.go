package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lg/calorie-budget-api/internal/config"
	"lg/calorie-budget-api/internal/store"
)

// newMigrateCmd applies pending Postgres migrations. Each file and its
// record in the migrations table commit together.
func newMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending migrations to the durable database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Database.URL == "" {
				return errors.New("database.url (or DB_URL) is not set")
			}

			pg, err := store.OpenPostgres(cmd.Context(), cfg.Database.URL, zap.NewNop())
			if err != nil {
				return err
			}
			defer pg.Close()

			results, err := pg.Migrate(cmd.Context())
			out := cmd.OutOrStdout()
			ran := 0
			for _, r := range results {
				if r.Applied {
					fmt.Fprintf(out, "  applied: %s\n", r.File)
					ran++
				} else {
					fmt.Fprintf(out, "  skip: %s\n", r.File)
				}
			}
			if err != nil {
				return err
			}

			if ran == 0 {
				fmt.Fprintln(out, "No pending migrations.")
			} else {
				fmt.Fprintf(out, "\n%d migration(s) applied.\n", ran)
			}
			return nil
		},
	}
}
