package tracer

import (
	"bytes"
	"context"
	"testing"

	"stats-loader/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

func TestExporterSelection(t *testing.T) {
	ctx := context.Background()

	exp, err := exporter(ctx, &config.Config{}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Nil(t, exp)

	exp, err = exporter(ctx, &config.Config{TraceStdout: true}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.NotNil(t, exp)
}

func TestSetupWithStdoutExporterWritesSpans(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := setup(context.Background(), &config.Config{AppName: "stats-test", TraceStdout: true}, &buf)
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "StatsLoader.Load")
	span.End()
	shutdown()

	assert.Contains(t, buf.String(), "StatsLoader.Load")
	assert.Contains(t, otel.GetTextMapPropagator().Fields(), "traceparent")
}

func TestSetupWithoutExporterIsNoop(t *testing.T) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator())

	shutdown, err := setup(context.Background(), &config.Config{AppName: "stats-test"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.NotPanics(t, shutdown)
	assert.Empty(t, otel.GetTextMapPropagator().Fields())
}
