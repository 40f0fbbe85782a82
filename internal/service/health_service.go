package service

import (
	"context"
	"time"

	"stats-loader/internal/loader"
	"stats-loader/internal/logger"

	"go.opentelemetry.io/otel"
)

const (
	StatusUp      = "UP"
	StatusDown    = "DOWN"
	StatusUnknown = "UNKNOWN"
)

// LoadStatusSource reports the last load outcome. *loader.StatsLoader satisfies it.
type LoadStatusSource interface {
	Last() (loader.Status, bool)
}

type HealthService struct {
	loads LoadStatusSource
}

type HealthStatus struct {
	Loader   string     `json:"loader"`
	LastLoad *time.Time `json:"last_load,omitempty"`
	Error    string     `json:"error,omitempty"`
}

var HealthServiceTracer = otel.Tracer("HealthService")

func NewHealthService(loads LoadStatusSource) *HealthService {
	return &HealthService{
		loads: loads,
	}
}

func (s *HealthService) Check(ctx context.Context) HealthStatus {
	ctx, span := HealthServiceTracer.Start(ctx, "HealthService.Check")
	defer span.End()
	logger.Debug(ctx, "Service")

	last, ok := s.loads.Last()
	if !ok {
		return HealthStatus{Loader: StatusUnknown}
	}

	status := HealthStatus{Loader: StatusUp, LastLoad: &last.At}
	if last.Error != "" {
		status.Loader = StatusDown
		status.Error = last.Error
	}
	return status
}
