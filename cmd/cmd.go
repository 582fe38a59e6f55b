package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"wallet/config"
	applog "wallet/logger"
)

// cfg is loaded from the environment before any command runs; command
// flags override it.
var cfg config.Config

var RootCmd = &cobra.Command{
	Use:   config.AppName,
	Short: "send state service for a mobile wallet",
	Long: `wallet keeps the send state of each wallet: the recent recipients,
the trailing 24 hour payment ledger and the invite reward flags.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded

		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel, _ = cmd.Flags().GetString("log-level")
		}
		level, err := applog.ParseLogLevel(cfg.LogLevel)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
		}
		applog.Init(applog.Options{Level: level, Type: applog.ParseType(cfg.LogFormat)})
		return nil
	},
}

func init() {
	RootCmd.PersistentFlags().String("log-level", "info", "Log level (trace, debug, info, warn, error)")
	RootCmd.AddCommand(serverCommand())
	RootCmd.AddCommand(migrateCommand())
	RootCmd.AddCommand(replayCommand())
}
