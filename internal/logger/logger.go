package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"

	"stats-loader/internal/utils"

	"github.com/natefinch/lumberjack"
	"go.opentelemetry.io/otel/trace"
)

var (
	instance *slog.Logger
	console  io.Writer = os.Stdout
	mu       sync.Mutex
)

// Instance returns the process logger. Output goes to stdout and, when LOG_FILE
// is set, to a rotated file as well.
func Instance() *slog.Logger {
	mu.Lock()
	defer mu.Unlock()
	if instance == nil {
		instance = slog.New(slog.NewJSONHandler(output(), &slog.HandlerOptions{
			Level: level(),
			// AddSource: true,
		}))
	}

	return instance
}

// SetOutput replaces stdout as the console sink and rebuilds the logger.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	console = w
	instance = nil
}

func output() io.Writer {
	path := os.Getenv("LOG_FILE")
	if path == "" {
		return console
	}
	return io.MultiWriter(console, &lumberjack.Logger{
		Filename:   path,
		MaxSize:    50,
		MaxBackups: 3,
		Compress:   true,
	})
}

func level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(utils.EnvOr("LOG_LEVEL", "info"))); err != nil {
		return slog.LevelInfo
	}
	return l
}

func Debug(ctx context.Context, msg string, attrs ...slog.Attr) {
	enrichedAttrs := enrich(ctx, attrs...)
	Instance().Debug(msg, attrsToArgs(enrichedAttrs)...)
}

func Info(ctx context.Context, msg string, attrs ...slog.Attr) {
	enrichedAttrs := enrich(ctx, attrs...)
	Instance().Info(msg, attrsToArgs(enrichedAttrs)...)
	sendLog("info", msg, enrichedAttrs)
}

func Warn(ctx context.Context, msg string, attrs ...slog.Attr) {
	enrichedAttrs := enrich(ctx, attrs...)
	Instance().Warn(msg, attrsToArgs(enrichedAttrs)...)
	sendLog("warn", msg, enrichedAttrs)
}

func Error(ctx context.Context, msg string, attrs ...slog.Attr) {
	enrichedAttrs := enrich(ctx, attrs...)
	Instance().Error(msg, attrsToArgs(enrichedAttrs)...)
	sendLog("error", msg, enrichedAttrs)
}

func enrich(ctx context.Context, attrs ...slog.Attr) []slog.Attr {
	if ctx == nil {
		return attrs
	}
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		attrs = append(attrs,
			slog.String("trace_id", span.SpanContext().TraceID().String()),
			slog.String("span_id", span.SpanContext().SpanID().String()),
			slog.String("hostname", utils.GetHost()),
		)
	}

	return attrs
}

// Convert slog.Attr to slog's variadic ...any
func attrsToArgs(attrs []slog.Attr) []any {
	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}
	return args
}
