package http

import (
	"encoding/json"
	"net/http"

	middleware_http "stats-loader/internal/middleware/http"

	"github.com/gorilla/mux"
)

// NewRouter wires the dashboard routes behind the trace middleware.
func NewRouter(stats *StatsHandler, health *HealthHandler, metrics http.Handler) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware_http.TraceMiddleware)

	r.HandleFunc("/", stats.Page).Methods(http.MethodGet)
	r.HandleFunc("/refresh", stats.Refresh).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/stats", stats.Snapshot).Methods(http.MethodGet)
	r.HandleFunc("/healthz", health.Check).Methods(http.MethodGet)
	if metrics != nil {
		r.Handle("/metrics", metrics).Methods(http.MethodGet)
	}

	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	})
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "not found"})
	})
	return r
}
