// Package cli implements the settleup command line: the API server and the
// operator commands that run against the same storage.
package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/mmynk/settleup/internal/config"
	"github.com/mmynk/settleup/pkg/logging"
)

type app struct {
	configPath string
	logLevel   string

	cfg    *config.Config
	logger *slog.Logger
}

// NewRootCommand builds the settleup command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "settleup",
		Short:         "Group expense ledger and settlement engine",
		Long:          `settleup tracks shared expenses within groups and suggests the transfers that settle them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setUp()
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error); overrides LOG_LEVEL")

	root.AddCommand(
		newServeCommand(a),
		newMigrateCommand(a),
		newBalancesCommand(a),
	)
	return root
}

// setUp loads the configuration and installs the logger.
func (a *app) setUp() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}

	logger, err := logging.Setup(cfg.LogLevel)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}
