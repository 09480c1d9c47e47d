package main

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dukerupert/chorify/internal/config"
	"github.com/dukerupert/chorify/internal/logging"
)

// app carries what every subcommand needs once flags are resolved.
type app struct {
	cfg        config.Config
	v          *viper.Viper
	configFile string
	logger     *slog.Logger
}

func newRootCommand() *cobra.Command {
	a := &app{v: config.NewViper()}

	cmd := &cobra.Command{
		Use:           "chorify",
		Short:         "Shopping lists and todos API server",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.ReadFile(a.v, a.configFile); err != nil {
				return err
			}
			config.Apply(a.v, a.cfg.GlobalOpts())
			a.logger = logging.Setup(a.cfg.LogLevel, a.cfg.LogFormat)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&a.configFile, "config", "", "path to a YAML, TOML or JSON config file")
	config.BindOptions(a.v, cmd.PersistentFlags(), a.cfg.GlobalOpts())

	cmd.AddCommand(
		newServeCommand(a),
		newMigrateCommand(a),
		newCreateAdminCommand(a),
		newBackupCommand(a),
	)
	return cmd
}
