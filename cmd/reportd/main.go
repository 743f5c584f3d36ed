package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	api "github.com/mind-engage/mindengage-evalreports/internal/api/http"
	"github.com/mind-engage/mindengage-evalreports/internal/bootstrap"
	"github.com/mind-engage/mindengage-evalreports/internal/config"
	"github.com/mind-engage/mindengage-evalreports/internal/observability"
)

func main() {
	configPath := flag.String("config", os.Getenv("REPORTD_CONFIG"), "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}
	logger := observability.NewLogger(observability.LogConfig{Level: cfg.LogLevel, Format: "json"})
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Source ---
	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	src, closeSrc, err := bootstrap.OpenSource(openCtx, cfg, logger)
	cancel()
	if err != nil {
		logger.Error("open source failed", "source", cfg.Source, "error", err)
		os.Exit(1)
	}
	defer closeSrc()

	// --- Metrics ---
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	svc := bootstrap.NewService(cfg, src, reg, logger)

	// The first load may fail (portal down); the server still starts and
	// answers 503 until POST /reports/refresh succeeds.
	if _, err := svc.Refresh(ctx); err != nil {
		logger.Warn("initial load failed", "error", err)
	}

	r := api.NewRouter(svc, api.RouterOptions{
		CORSOrigins:  cfg.CORSOrigins,
		ExportPrefix: cfg.ExportPrefix,
		Gatherer:     reg,
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("listening", "addr", cfg.HTTPAddr, "mode", cfg.Mode, "source", cfg.Source)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
