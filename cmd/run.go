package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ssnlabs/blocklistd/internal/app"
	"github.com/ssnlabs/blocklistd/internal/metrics"
)

// newRunCmd builds the one-shot subcommand: a single pass over every
// configured endpoint, then exit.
func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Fetch every configured list once and load it into the store.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck // stderr sync is best effort

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			metrics.Init()

			application, err := app.New(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer application.Close(context.Background())

			report, err := application.Runner.Run(ctx)
			if err != nil {
				return err
			}
			logger.Info("run complete",
				zap.String("run_id", report.RunID),
				zap.Int("total_inserted", report.TotalInserted),
				zap.Int("failed_endpoints", report.FailedEndpoints),
			)
			return nil
		},
	}
}
