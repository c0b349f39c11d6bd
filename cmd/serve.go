package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ssnlabs/blocklistd/internal/api"
	"github.com/ssnlabs/blocklistd/internal/app"
	"github.com/ssnlabs/blocklistd/internal/metrics"
)

// newServeCmd builds the daemon subcommand: scheduled ETL runs plus the
// admin HTTP endpoints.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the connector on a schedule with admin endpoints.",
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

			// Overlap suppression: a slow run must not stack a second
			// one behind it.
			var running atomic.Bool
			runOnce := func() {
				if !running.CompareAndSwap(false, true) {
					logger.Warn("previous run still in progress, skipping scheduled run")
					return
				}
				defer running.Store(false)
				if _, err := application.Runner.Run(ctx); err != nil {
					logger.Error("scheduled run aborted", zap.Error(err))
				}
			}

			scheduler := cron.New()
			if _, err := scheduler.AddFunc(cfg.Schedule.Cron, runOnce); err != nil {
				return fmt.Errorf("parse schedule %q: %w", cfg.Schedule.Cron, err)
			}
			scheduler.Start()
			defer scheduler.Stop()

			server := &http.Server{
				Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
				Handler:           api.NewServer(application.Runner, application.Store, logger).Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			errCh := make(chan error, 1)
			go func() {
				logger.Info("admin server listening", zap.String("addr", server.Addr))
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			// First run happens immediately; the schedule covers the rest.
			go runOnce()

			select {
			case <-ctx.Done():
				logger.Info("shutting down")
			case err := <-errCh:
				return fmt.Errorf("admin server: %w", err)
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown admin server: %w", err)
			}
			return nil
		},
	}
}
