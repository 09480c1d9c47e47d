package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukerupert/chorify/internal/backup"
	"github.com/dukerupert/chorify/internal/config"
	"github.com/dukerupert/chorify/internal/database"
)

func newBackupCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Encrypted database backups in S3-compatible storage",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cmd.Root().PersistentPreRunE(cmd, args); err != nil {
				return err
			}
			config.Apply(a.v, a.cfg.BackupOpts())
			return a.cfg.ValidateBackup()
		},
	}
	config.BindOptions(a.v, cmd.PersistentFlags(), a.cfg.BackupOpts())

	cmd.AddCommand(
		newBackupCreateCommand(a),
		newBackupListCommand(a),
		newBackupRestoreCommand(a),
		newBackupPruneCommand(a),
	)
	return cmd
}

func (a *app) archiver() *backup.Archiver {
	b := a.cfg.Backup
	return backup.NewArchiver(backup.S3Config{
		Endpoint:  b.Endpoint,
		Bucket:    b.Bucket,
		Region:    b.Region,
		AccessKey: b.AccessKey,
		SecretKey: b.SecretKey,
		Prefix:    b.Prefix,
	}, a.logger)
}

func newBackupCreateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Snapshot, encrypt and upload the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := database.OpenNoMigrate(a.cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			obj, err := a.archiver().Create(cmd.Context(), db, a.cfg.Backup.Passphrase)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), obj.Key)
			return nil
		},
	}
}

func newBackupListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored backups, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			objects, err := a.archiver().List(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tSIZE\tLAST MODIFIED")
			for _, o := range objects {
				fmt.Fprintf(tw, "%s\t%d\t%s\n", o.Key, o.Size, o.LastModified.Format(time.RFC3339))
			}
			return tw.Flush()
		},
	}
}

func newBackupRestoreCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "restore KEY",
		Short: "Replace the database with a stored backup; stop the server first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(a.cfg.DBPath); err == nil {
				a.logger.Warn("overwriting existing database", "db", a.cfg.DBPath)
			}
			return a.archiver().Restore(cmd.Context(), args[0], a.cfg.Backup.Passphrase, a.cfg.DBPath)
		},
	}
}

func newBackupPruneCommand(a *app) *cobra.Command {
	var retention time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete backups older than the retention period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := a.archiver().Prune(cmd.Context(), retention)
			if err != nil {
				return err
			}
			a.logger.Info("pruned backups", "deleted", n, "retention", retention)
			return nil
		},
	}
	cmd.Flags().DurationVar(&retention, "retention", 30*24*time.Hour, "age after which backups are deleted")
	return cmd
}
