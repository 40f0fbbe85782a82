package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stats-loader/internal/client"
	"stats-loader/internal/config"
	handler "stats-loader/internal/handler/http"
	"stats-loader/internal/loader"
	"stats-loader/internal/logger"
	"stats-loader/internal/service"
	"stats-loader/internal/surface"
	"stats-loader/internal/tracer"
	"stats-loader/internal/version"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	globalCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logger.Instance()
	cfg := config.Instance()

	log.Info(cfg.AppName,
		slog.String("version", version.Version),
		slog.String("commit", version.Commit),
		slog.String("buildTime", version.BuildTime),
	)

	shutdown, err := tracer.Instance(globalCtx, cfg)
	if err != nil {
		log.Warn("Telemetry unavailable", slog.String("error", err.Error()))
	}
	defer shutdown()

	// Wiring
	stats := surface.NewMemory(surface.DefaultID)
	statsLoader := loader.New(
		client.NewHTTPClient(cfg.ProductsBaseURL, 0),
		stats,
		loader.WithPath(cfg.ProductsPath),
		loader.WithTimeout(time.Duration(cfg.LoaderTimeoutMs)*time.Millisecond),
		loader.WithMetrics(loader.NewMetrics(prometheus.DefaultRegisterer)),
	)

	statsHandler, err := handler.NewStatsHandler(statsLoader, stats, cfg.AppName)
	if err != nil {
		log.Error("Failed to parse page template", slog.String("error", err.Error()))
		os.Exit(1)
	}
	healthHandler := handler.NewHealthHandler(service.NewHealthService(statsLoader))
	router := handler.NewRouter(statsHandler, healthHandler, promhttp.Handler())

	// First load on startup; the page shows the error text if it fails.
	go func() { _ = statsLoader.Load(globalCtx) }()

	server := &http.Server{
		Addr:         ":" + cfg.AppPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 0, // /refresh waits on an unbounded upstream request by default
	}

	go func() {
		<-globalCtx.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Error("Server shutdown failed", slog.String("error", err.Error()))
		}
	}()

	log.Info("HTTP server running", slog.String("addr", server.Addr))

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("Server failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
