package http

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"mime"
	"net/http"

	"stats-loader/internal/loader"
	"stats-loader/internal/logger"
	"stats-loader/internal/surface"

	"go.opentelemetry.io/otel"
)

//go:embed templates/index.gohtml
var templatesFS embed.FS

var HttpStatsHandlerTracer = otel.Tracer("HttpStatsHandler")

// Loader is the part of *loader.StatsLoader the handler needs.
type Loader interface {
	Load(ctx context.Context) error
}

type StatsHandler struct {
	loader  Loader
	surface *surface.Memory
	page    *template.Template
	title   string
}

type pageData struct {
	Title     string
	SurfaceID string
	Content   any
}

type refreshResponse struct {
	Surface surface.Snapshot `json:"surface"`
	Error   string           `json:"error,omitempty"`
}

func NewStatsHandler(l Loader, s *surface.Memory, title string) (*StatsHandler, error) {
	page, err := template.ParseFS(templatesFS, "templates/index.gohtml")
	if err != nil {
		return nil, err
	}
	return &StatsHandler{loader: l, surface: s, page: page, title: title}, nil
}

// Page serves the HTML page hosting the stats surface.
func (h *StatsHandler) Page(w http.ResponseWriter, r *http.Request) {
	ctx, span := HttpStatsHandlerTracer.Start(r.Context(), "HttpStatsHandler.Page")
	defer span.End()

	snap := h.surface.Snapshot()
	data := pageData{Title: h.title, SurfaceID: snap.ID}
	if snap.Kind == surface.KindHTML {
		// produced by render.Stats, which escapes every product field
		data.Content = template.HTML(snap.Content)
	} else {
		data.Content = snap.Content
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.page.Execute(w, data); err != nil {
		logger.Error(ctx, "Failed to render page", slog.String("error", err.Error()))
	}
}

// Refresh runs a load. Browsers (GET and form posts) are redirected back to
// the page; other POSTs answer with the resulting surface snapshot.
func (h *StatsHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx, span := HttpStatsHandlerTracer.Start(r.Context(), "HttpStatsHandler.Refresh")
	defer span.End()

	// the surface is shared, a client hanging up must not turn it into an error
	err := h.loader.Load(context.WithoutCancel(ctx))
	if errors.Is(err, loader.ErrSuperseded) {
		logger.Info(ctx, "Refresh superseded by a newer load")
	}

	if r.Method == http.MethodGet || isFormPost(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	resp := refreshResponse{Surface: h.surface.Snapshot()}
	if err != nil {
		resp.Error = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// Snapshot returns the current surface content as JSON.
func (h *StatsHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.surface.Snapshot())
}

func isFormPost(r *http.Request) bool {
	if r.Method != http.MethodPost {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mediaType == "application/x-www-form-urlencoded" || mediaType == "multipart/form-data"
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
