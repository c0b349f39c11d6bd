// Package cmd defines the blocklistd command line interface.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ssnlabs/blocklistd/internal/config"
	"github.com/ssnlabs/blocklistd/internal/logging"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blocklistd",
		Short: "Threat-intel list connector for blocklist.de feeds.",
		Long: `blocklistd pulls plain-text IP lists from the blocklist.de endpoints,
validates each entry, and loads the records into a document store. The
pipeline tolerates transient upstream failures with bounded retries and
never lets one bad endpoint or document cost the rest of a run.`,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (optional; environment variables suffice)")

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newServeCmd())

	return cmd
}

// setup loads configuration and builds the process logger.
func setup() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("build logger: %w", err)
	}
	return cfg, logger, nil
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "blocklistd: %v\n", err)
		os.Exit(1)
	}
}
