package http

import (
	"encoding/json"
	"net/http"

	"stats-loader/internal/logger"
	"stats-loader/internal/service"

	"go.opentelemetry.io/otel"
)

type HealthHandler struct {
	service *service.HealthService
}

var HttpHealthHandlerTracer = otel.Tracer("HttpHealthHandler")

func NewHealthHandler(service *service.HealthService) *HealthHandler {
	return &HealthHandler{
		service: service,
	}
}

func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, span := HttpHealthHandlerTracer.Start(r.Context(), "HttpHealthHandler.Check")
	defer span.End()
	logger.Debug(ctx, "HttpHealthHandler")

	status := h.service.Check(ctx)

	code := http.StatusOK
	if status.Loader == service.StatusDown {
		code = http.StatusInternalServerError
	}

	resp := map[string]interface{}{
		"status": status.Loader,
		"data":   status,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}
