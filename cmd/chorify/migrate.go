package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dukerupert/chorify/internal/database"
)

func newMigrateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|status|reset]",
		Short:     "Apply or inspect database migrations",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "status", "reset"},
		RunE: func(cmd *cobra.Command, args []string) error {
			command := "up"
			if len(args) == 1 {
				command = args[0]
			}

			db, err := database.OpenNoMigrate(a.cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			if err := database.Migrate(db, command); err != nil {
				return err
			}
			a.logger.Info("migrations applied", "command", command, "db", a.cfg.DBPath)
			return nil
		},
	}
}
