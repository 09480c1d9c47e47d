package main

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukerupert/chorify/internal/auth"
	"github.com/dukerupert/chorify/internal/database"
	"github.com/dukerupert/chorify/internal/serializer"
	"github.com/dukerupert/chorify/internal/store"
)

func newCreateAdminCommand(a *app) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			email = serializer.NormalizeEmail(email)
			if email == "" {
				return fmt.Errorf("--email is required")
			}
			if len(password) < 8 {
				return fmt.Errorf("--password must be at least 8 characters")
			}

			db, err := database.Open(a.cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			// Tokens are never issued here, so the issuer and logger are inert.
			svc := auth.NewService(
				store.NewAccountStore(db),
				store.NewSessionStore(db),
				auth.NewTokenIssuer(nil),
				time.Hour,
				slog.New(slog.NewTextHandler(io.Discard, nil)),
			)
			account, err := svc.CreateAccount(cmd.Context(), email, password, true)
			if err != nil {
				return fmt.Errorf("create admin: %w", err)
			}
			a.logger.Info("admin account created", "account_id", account.ID, "email", account.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address of the new administrator")
	cmd.Flags().StringVar(&password, "password", "", "password of the new administrator")
	return cmd
}
