package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/switchboard"
	"github.com/aretw0/switchboard/internal/cli"
	httpAdapter "github.com/aretw0/switchboard/pkg/adapters/http"
	"github.com/aretw0/switchboard/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP call server",
	Long: `Answers calls over a JSON API: POST /calls dials, POST /calls/{id}/input
presses keys and GET /calls/{id}/events streams checkpoints (SSE).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.HTTP.Addr = addr
		}
		debug, _ := cmd.Flags().GetBool("debug")
		logger, err := cli.NewLogger(cfg.Log, debug)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		backends, err := cli.OpenBackends(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer backends.Close()

		sbOpts := backends.Options(cfg, logger)
		sbOpts = append(sbOpts, switchboard.WithLifecycleHooks(observability.LoggingHooks(logger)))
		var handlerOpts []httpAdapter.Option

		if cfg.HTTP.Metrics {
			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			metrics, err := observability.NewMetrics(reg)
			if err != nil {
				return err
			}
			sbOpts = append(sbOpts, switchboard.WithLifecycleHooks(metrics.Hooks()))
			handlerOpts = append(handlerOpts, httpAdapter.WithMetrics(reg))
		}
		if cfg.HTTP.Tracing {
			tp := observability.NewTracerProvider(logger)
			otel.SetTracerProvider(tp)
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = tp.Shutdown(shutdownCtx)
			}()
			sbOpts = append(sbOpts, switchboard.WithLifecycleHooks(observability.NewTracing(tp).Hooks()))
		}

		sb := switchboard.New(backends.Service, sbOpts...)
		handlerOpts = append(handlerOpts, httpAdapter.WithLogger(logger),
			httpAdapter.WithVersion(switchboard.Version),
			httpAdapter.WithRequestValidation(),
		)

		srv := &http.Server{
			Addr:              cfg.HTTP.Addr,
			Handler:           httpAdapter.NewHandler(sb, handlerOpts...),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("switchboard server listening", "addr", srv.Addr, "store", cfg.Store.Backend)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		case <-ctx.Done():
			logger.Info("shutdown started")
		}

		// Give outstanding requests and calls a deadline for completion.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := sb.Shutdown(shutdownCtx); err != nil {
			logger.Warn("calls did not end in time", "error", err)
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("graceful shutdown did not complete", "error", err)
			if err := srv.Close(); err != nil {
				return fmt.Errorf("error killing server: %w", err)
			}
		}
		logger.Info("switchboard server stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Address to listen on (overrides http.addr)")
}
