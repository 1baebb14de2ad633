package serve

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"whisper-scribe/cmd/scribe/cmd/shared"
	"whisper-scribe/cmd/scribe/cmd/version"
	"whisper-scribe/internal/api/server"
	"whisper-scribe/internal/app"
)

var shutdownTimeout time.Duration

func init() {
	Cmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 30*time.Second,
		"How long to wait for running jobs to stop on shutdown")
}

// Cmd represents the serve command
var Cmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP API

- POST /api/v1/transcriptions uploads a file and starts a job
- GET /api/v1/transcriptions/{id} reports progress, text and statistics
- GET /api/v1/transcriptions/{id}/download?format=pdf|txt returns the report
- /health and /metrics for operations`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger := shared.Config(), shared.Logger()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		reg := app.ProvideRegistry()
		m := app.ProvideMetrics(reg)

		jobs, cleanup, err := app.InitializeJobService(ctx, cfg, logger, m)
		if err != nil {
			return err
		}
		defer cleanup()

		srv := server.NewServer(server.Config{
			Host:         cfg.Server.Host,
			Port:         cfg.Server.Port,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  cfg.Server.IdleTimeout,
			Environment:  cfg.Env,
			Version:      version.Version,
		}, jobs, reg, m, logger)

		if err := srv.Start(); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			logger.Info("shutdown signal received")
		case err := <-srv.Errors():
			return err
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown incomplete", zap.Error(err))
			return err
		}
		return nil
	},
}
