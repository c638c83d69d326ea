package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mikey/claim-triage/internal/config"
	"github.com/mikey/claim-triage/internal/di"
	"github.com/mikey/claim-triage/internal/ports"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Accept claim emails over SMTP",
	Long: `Serve starts an SMTP listener that triages every received message and
appends its bundle to intake.output_path. Prometheus metrics are exposed on
metrics.listen_address at /metrics.`,
	RunE: serve,
}

func init() {
	serveCmd.Flags().StringVar(&flags.RecordsFile, "records-file", "", "JSON records fixture used instead of the database")
	serveCmd.Flags().StringVar(&flags.CacheType, "cache", "", "extraction cache type (memory, sqlite, mysql, redis, file, none)")
}

func serve(cmd *cobra.Command, _ []string) error {
	container, err := di.BuildContainer(flags)
	if err != nil {
		return err
	}

	return container.Invoke(func(
		logger *zap.Logger,
		cfg *config.Config,
		claimIntake ports.ClaimIntake,
		closers *di.Closers,
	) error {
		defer logger.Sync()
		defer closers.Close()

		metricsServer := &http.Server{
			Addr:              cfg.GetMetricsAddress(),
			Handler:           metricsMux(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info("Metrics endpoint starting", zap.String("address", metricsServer.Addr))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Metrics server error", zap.Error(err))
			}
		}()

		if err := claimIntake.Start(); err != nil {
			logger.Error("Failed to start intake", zap.Error(err))
			return err
		}

		// Handle graceful shutdown
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		<-ctx.Done()
		logger.Info("Shutting down...")

		if err := claimIntake.Stop(); err != nil {
			logger.Error("Failed to stop intake", zap.Error(err))
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("Failed to stop metrics server", zap.Error(err))
		}

		logger.Info("Shutdown complete")
		return nil
	})
}

func metricsMux() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	return mux
}
