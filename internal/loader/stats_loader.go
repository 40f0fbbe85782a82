package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"stats-loader/internal/client"
	"stats-loader/internal/logger"
	"stats-loader/internal/model"
	"stats-loader/internal/render"
	"stats-loader/internal/surface"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var StatsLoaderTracer = otel.Tracer("StatsLoader")

// DefaultPath is the product list resource.
const DefaultPath = "/products"

// Status describes the outcome of the last load that reached the surface.
type Status struct {
	LoadID   string    `json:"load_id"`
	Result   string    `json:"result"`
	Error    string    `json:"error,omitempty"`
	Products int       `json:"products"`
	At       time.Time `json:"at"`
}

// StatsLoader fetches the product list and renders it into a surface.
type StatsLoader struct {
	client  *client.HTTPClient
	surface surface.Surface
	path    string
	timeout time.Duration
	metrics *Metrics

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
	last       *Status
}

type Option func(*StatsLoader)

func WithPath(path string) Option {
	return func(l *StatsLoader) {
		if path != "" {
			l.path = path
		}
	}
}

// WithTimeout bounds each request. Zero leaves requests unbounded.
func WithTimeout(d time.Duration) Option {
	return func(l *StatsLoader) { l.timeout = d }
}

func WithMetrics(m *Metrics) Option {
	return func(l *StatsLoader) { l.metrics = m }
}

func New(c *client.HTTPClient, s surface.Surface, opts ...Option) *StatsLoader {
	l := &StatsLoader{
		client:  c,
		surface: s,
		path:    DefaultPath,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load fetches the product list and replaces the surface content with the
// rendered stats, or with the error text when any step fails.
//
// Starting a Load cancels the one still in flight. A Load that is no longer
// the newest when it completes leaves the surface alone and returns
// ErrSuperseded. Any other returned error is a *LoadError that has already
// been written to the surface.
func (l *StatsLoader) Load(ctx context.Context) error {
	loadID := uuid.NewString()
	ctx, span := StatsLoaderTracer.Start(ctx, "StatsLoader.Load", trace.WithAttributes(
		attribute.String("load.id", loadID),
		attribute.String("surface.id", l.surface.ID()),
	))
	defer span.End()

	gen, reqCtx, done := l.begin(ctx)
	defer done()

	logger.Info(ctx, "StatsLoader.Load",
		slog.String("load_id", loadID),
		slog.Uint64("generation", gen),
		slog.String("path", l.path),
	)

	start := time.Now()
	markup, count, err := l.fetchAndRender(reqCtx)

	l.mu.Lock()
	defer l.mu.Unlock()

	if gen != l.generation {
		l.metrics.observe(resultSuperseded, time.Since(start), 0)
		logger.Info(ctx, "Load superseded", slog.String("load_id", loadID), slog.Uint64("generation", gen))
		span.SetAttributes(attribute.Bool("load.superseded", true))
		return ErrSuperseded
	}

	if err == nil {
		if werr := l.surface.SetHTML(markup); werr != nil {
			err = &LoadError{Stage: StageRender, Err: werr}
		}
	}

	status := &Status{LoadID: loadID, Products: count, At: time.Now()}
	if err != nil {
		loadErr := asLoadError(err)
		if werr := l.surface.SetText(ErrorLabel + loadErr.Error()); werr != nil {
			logger.Error(ctx, "Failed to write error to surface", slog.String("error", werr.Error()))
		}
		handleError(loadErr, span)
		logger.Error(ctx, "Load failed",
			slog.String("load_id", loadID),
			slog.String("stage", string(loadErr.Stage)),
			slog.String("error", loadErr.Error()),
		)
		status.Result, status.Error, status.Products = resultFailure, loadErr.Error(), 0
		l.last = status
		l.metrics.observe(resultFailure, time.Since(start), 0)
		return loadErr
	}

	span.SetStatus(codes.Ok, "")
	span.SetAttributes(attribute.Int("products.count", count))
	logger.Info(ctx, "Load succeeded", slog.String("load_id", loadID), slog.Int("products", count))
	status.Result = resultSuccess
	l.last = status
	l.metrics.observe(resultSuccess, time.Since(start), count)
	return nil
}

// Last returns the outcome of the last load that wrote to the surface.
func (l *StatsLoader) Last() (Status, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.last == nil {
		return Status{}, false
	}
	return *l.last, true
}

// begin takes a new generation token and cancels the previous in-flight request.
func (l *StatsLoader) begin(ctx context.Context) (uint64, context.Context, func()) {
	reqCtx, cancel := context.WithCancel(ctx)

	l.mu.Lock()
	l.generation++
	gen := l.generation
	if l.cancel != nil {
		l.cancel()
	}
	l.cancel = cancel
	l.mu.Unlock()

	return gen, reqCtx, func() {
		cancel()
		l.mu.Lock()
		if l.generation == gen {
			l.cancel = nil
		}
		l.mu.Unlock()
	}
}

func (l *StatsLoader) fetchAndRender(ctx context.Context) (string, int, error) {
	resp, err := client.GetJSON[model.ProductListResponse](l.client, l.path, client.RequestOptions{
		Context: ctx,
		Timeout: l.timeout,
	})
	if err != nil {
		return "", 0, classify(err)
	}
	if resp.Data.Products == nil {
		return "", 0, &LoadError{Stage: StagePayload, Err: ErrMissingProducts}
	}

	products := *resp.Data.Products
	for i, p := range products {
		if p == nil {
			return "", 0, &LoadError{Stage: StagePayload, Err: fmt.Errorf("%w at index %d", ErrNullProduct, i)}
		}
	}
	markup, err := render.Stats(products)
	if err != nil {
		return "", 0, &LoadError{Stage: StageRender, Err: err}
	}
	return markup, len(products), nil
}

func classify(err error) *LoadError {
	var statusErr *client.StatusError
	switch {
	case errors.As(err, &statusErr):
		return &LoadError{Stage: StageStatus, Err: err}
	case errors.Is(err, client.ErrRead):
		return &LoadError{Stage: StageRead, Err: err}
	case errors.Is(err, client.ErrDecode):
		return &LoadError{Stage: StageDecode, Err: err}
	default:
		return &LoadError{Stage: StageRequest, Err: err}
	}
}

func asLoadError(err error) *LoadError {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr
	}
	return &LoadError{Stage: StageRender, Err: err}
}
