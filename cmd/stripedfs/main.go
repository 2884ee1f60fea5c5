/*******************************************************************************
* File name: main.go
*
* Description: process entrypoint - loads configuration, wires the stripe
* engine to the HTTP facade and metrics/scrub background services, and
* runs until terminated.
*******************************************************************************/

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"stripedfs/internal/config"
	"stripedfs/internal/httpapi"
	"stripedfs/internal/locks"
	"stripedfs/internal/metrics"
	"stripedfs/internal/scrub"
	"stripedfs/internal/stripe"
	"stripedfs/internal/validator"
)

func main() {
	cfg, err := config.Load(os.Getenv("STRIPEDFS_CONFIG_FILE"))
	if err != nil {
		slog.Error("loading configuration failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	layout, err := stripe.NewLayout(cfg.Root(), cfg.FolderPrefix, cfg.NumDisks)
	if err != nil {
		logger.Error("building block layout failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	stripeMetrics := metrics.NewStripe(reg)

	engine := stripe.NewEngine(layout, stripe.WithLogger(logger), stripe.WithMetrics(stripeMetrics))
	v := validator.New(engine, cfg.MaxSize)
	lockReg := locks.NewRegistry()

	router := httpapi.NewRouter(v, lockReg, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if interval, ok := parseScrubInterval(cfg.ScrubInterval); ok {
		sweeper := scrub.New(engine, layout.BlockPath(0), interval, logger)
		go sweeper.Run(ctx)
	}

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}
	go func() {
		logger.Info("file api listening", slog.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("file api server failed", slog.String("error", err.Error()))
		}
	}()

	var metricsSrv *http.Server
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		metricsSrv = &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
		go func() {
			logger.Info("metrics listening", slog.String("addr", cfg.MetricsAddr))
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server failed", slog.String("error", err.Error()))
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("file api shutdown failed", slog.String("error", err.Error()))
	}
	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics shutdown failed", slog.String("error", err.Error()))
		}
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

func parseScrubInterval(raw string) (time.Duration, bool) {
	if raw == "" {
		return 0, false
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, false
	}
	return d, true
}
