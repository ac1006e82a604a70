package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func buildServeCmd() *cobra.Command {
	var metricsAddr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "run the scheduler and metrics endpoint until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), metricsAddr)
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "127.0.0.1:9090", "address to serve /metrics on")
	return cmd
}

func runServe(ctx context.Context, metricsAddr string) error {
	s, err := buildStack(configPath)
	if err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	defer s.audit.Close()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mux := http.NewServeMux()
	mux.Handle("/metrics", s.metrics.Handler())
	httpServer := &http.Server{Addr: metricsAddr, Handler: mux}
	go func() {
		slog.Info("metrics endpoint listening", "addr", metricsAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server stopped", "error", err)
		}
	}()

	s.scheduler.Start(ctx)
	slog.Info("scheduler started", "jobs", len(s.scheduler.List()))

	<-ctx.Done()
	slog.Info("shutting down")
	s.scheduler.Stop()
	return httpServer.Shutdown(context.Background())
}
