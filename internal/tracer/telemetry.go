package tracer

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"

	"stats-loader/internal/config"
	"stats-loader/internal/logger"

	otelpyroscope "github.com/grafana/otel-profiling-go"
	"github.com/grafana/pyroscope-go"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

var (
	once         sync.Once
	shutdownFunc func()
	initErr      error
)

var pyroLogrus = func() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.InfoLevel)
	return l
}()

// Instance sets up tracing and profiling once for the process. The returned
// func flushes and stops both.
func Instance(globalCtx context.Context, cfg *config.Config) (func(), error) {
	once.Do(func() {
		shutdownFunc, initErr = setup(globalCtx, cfg, os.Stderr)
	})
	return shutdownFunc, initErr
}

func setup(ctx context.Context, cfg *config.Config, stdout io.Writer) (func(), error) {
	log := logger.Instance()

	exp, err := exporter(ctx, cfg, stdout)
	if err != nil {
		log.Error("Failed to create trace exporter", slog.String("error", err.Error()))
		return func() {}, err
	}

	if exp == nil {
		log.Info("Tracing disabled, no exporter configured")
		return func() {}, nil
	}

	// outbound requests only carry trace headers when traces are exported
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.AppName),
			attribute.String("env", "production"),
		),
	)
	if err != nil {
		log.Error("Failed to create resource", slog.String("error", err.Error()))
		return func() {}, err
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exp),
		trace.WithResource(res),
	)
	otel.SetTracerProvider(otelpyroscope.NewTracerProvider(tp))
	log.Info("OpenTelemetry Tracer initialized")

	var profiler *pyroscope.Profiler
	if cfg.RemoteProfilingHttpURI != "" {
		profiler, err = pyroscope.Start(pyroscope.Config{
			ApplicationName: cfg.AppName,
			ServerAddress:   cfg.RemoteProfilingHttpURI,
			Logger:          pyroLogrus,
		})
		if err != nil {
			log.Error("Pyroscope failed to start", slog.String("error", err.Error()))
		} else {
			log.Info("Pyroscope started successfully")
		}
	}

	return func() {
		if profiler != nil {
			if err := profiler.Stop(); err != nil {
				log.Error("Error stopping profiler", slog.String("error", err.Error()))
			}
		}
		if err := tp.Shutdown(ctx); err != nil {
			log.Error("Error shutting down tracer provider", slog.String("error", err.Error()))
		}
	}, nil
}

// exporter prefers OTLP, falls back to stdout when TRACE_STDOUT is set, and
// returns nil when neither is configured.
func exporter(ctx context.Context, cfg *config.Config, stdout io.Writer) (trace.SpanExporter, error) {
	switch {
	case cfg.RemoteTraceRpcURI != "":
		return otlptracegrpc.New(ctx,
			otlptracegrpc.WithInsecure(),
			otlptracegrpc.WithEndpoint(cfg.RemoteTraceRpcURI),
			otlptracegrpc.WithCompressor("gzip"),
		)
	case cfg.TraceStdout:
		return stdouttrace.New(stdouttrace.WithWriter(stdout))
	default:
		return nil, nil
	}
}
