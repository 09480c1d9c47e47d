package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukerupert/chorify/internal/config"
	"github.com/dukerupert/chorify/internal/database"
	"github.com/dukerupert/chorify/internal/server"
)

const cleanupInterval = time.Hour

func newServeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			config.Apply(a.v, a.cfg.ServeOpts())
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			return a.serve(cmd.Context())
		},
	}
	config.BindOptions(a.v, cmd.Flags(), a.cfg.ServeOpts())
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	logger := a.logger

	secret := []byte(a.cfg.TokenSecret)
	if len(secret) == 0 {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return fmt.Errorf("generate token secret: %w", err)
		}
		secret = []byte(hex.EncodeToString(buf))
		logger.Warn("no token-secret configured, using a random one; tokens will not survive a restart")
	}

	db, err := database.Open(a.cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	srv := server.New(db, server.Options{
		TokenSecret:    secret,
		TokenTTL:       a.cfg.TokenTTL,
		StaticDir:      a.cfg.StaticDir,
		AllowedOrigins: a.cfg.AllowedOrigins,
	}, logger)

	httpServer := &http.Server{
		Addr:              a.cfg.HTTPBindAddress,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Background cleanup goroutine
	cleanupCtx, cleanupCancel := context.WithCancel(ctx)
	defer cleanupCancel()
	go func() {
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n, err := srv.AuthService().PurgeExpiredSessions(cleanupCtx); err != nil {
					logger.Error("cleanup expired sessions", "error", err)
				} else if n > 0 {
					logger.Info("cleaned up expired sessions", "count", n)
				}
			case <-cleanupCtx.Done():
				return
			}
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("chorify starting", "addr", a.cfg.HTTPBindAddress, "db", a.cfg.DBPath)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	cleanupCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
