package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/d60-Lab/social-graph/internal/api"
	"github.com/d60-Lab/social-graph/internal/service"
	"github.com/d60-Lab/social-graph/pkg/logger"
	"github.com/d60-Lab/social-graph/pkg/tracing"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context) error {
	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	cfg := a.cfg
	defer a.close(context.Background())

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.Sentry.DSN,
			Environment:      cfg.Sentry.Environment,
			AttachStacktrace: true,
		}); err != nil {
			logger.Warn("sentry init failed", zap.Error(err))
		}
		defer sentry.Flush(2 * time.Second)
	}

	if cfg.Tracing.Enabled {
		// collectors are expected on a private network, hence plain http
		shutdown, err := tracing.Init(ctx, cfg.Tracing.ServiceName, cfg.Tracing.Endpoint, true)
		if err != nil {
			return fmt.Errorf("init tracing: %w", err)
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logger.Warn("tracing shutdown", zap.Error(err))
			}
		}()
	}

	var stopReconciler func(context.Context) error
	if cfg.Reconcile.Interval > 0 {
		rec := service.NewReconciler(a.store.Users, a.store.Thoughts, a.metrics, service.DefaultMinAge)
		stopReconciler = rec.Start(cfg.Reconcile.Interval)
		logger.Info("reconciler started", zap.Duration("interval", cfg.Reconcile.Interval))
	}

	gin.SetMode(cfg.Server.Mode)
	router := api.NewRouter(a.handler(), api.Options{
		Metrics:     a.metrics,
		RateRPS:     cfg.RateLimit.RPS,
		RateBurst:   cfg.RateLimit.Burst,
		Tracing:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		Swagger:     cfg.Server.Mode != gin.ReleaseMode,
	})
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	if stopReconciler != nil {
		if err := stopReconciler(shutdownCtx); err != nil {
			logger.Warn("reconciler stop", zap.Error(err))
		}
	}
	return nil
}
