package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/parley/internal/config"
	"github.com/aretw0/parley/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app carries what PersistentPreRunE resolved for the subcommands.
type app struct {
	v      *viper.Viper
	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:           "parley",
		Short:         "parley is a turn-routing dialog engine for a shopping assistant",
		Long:          `parley answers shopping questions through a short guided dialog: pick an action, pick an item, get an answer.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(a.v, file)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = logging.New(logging.ParseLevel(cfg.Log.Level), cfg.Log.Format)
			slog.SetDefault(a.logger)
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Config file (default: ./configs/parley.yaml or ./parley.yaml)")
	flags.String("log-level", "info", "Log level: debug, info, warn, error")
	flags.String("log-format", "text", "Log format: text or json")
	flags.String("store", "memory", "State store: memory, file, redis, dynamodb, postgres")
	flags.String("store-dir", ".parley/conversations", "Directory for the file store")
	flags.String("registry", "", "YAML file overriding the built-in shopping options")

	for key, flag := range map[string]string{
		"log.level":      "log-level",
		"log.format":     "log-format",
		"store.backend":  "store",
		"store.file.dir": "store-dir",
		"registry.file":  "registry",
	} {
		_ = a.v.BindPFlag(key, flags.Lookup(flag))
	}

	rootCmd.AddCommand(
		newChatCmd(a),
		newServeCmd(a),
		newMCPCmd(a),
		newSessionCmd(a),
		newGraphCmd(a),
		newVersionCmd(),
	)
	return rootCmd
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
