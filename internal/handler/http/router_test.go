package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"stats-loader/internal/client"
	"stats-loader/internal/loader"
	"stats-loader/internal/service"
	"stats-loader/internal/surface"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type dashboard struct {
	router   http.Handler
	surface  *surface.Memory
	upstream *atomic.Value
}

func newDashboard(t *testing.T) *dashboard {
	t.Helper()
	body := &atomic.Value{}
	body.Store(`{"products":[{"filename":"a.png","price":10,"available":2}]}`)
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b := body.Load().(string)
		if b == "" {
			http.Error(w, "down", http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(b))
	}))
	t.Cleanup(upstream.Close)

	reg := prometheus.NewRegistry()
	s := surface.NewMemory(surface.DefaultID)
	l := loader.New(client.NewHTTPClient(upstream.URL, 0), s, loader.WithMetrics(loader.NewMetrics(reg)))

	stats, err := NewStatsHandler(l, s, "Stats")
	require.NoError(t, err)
	health := NewHealthHandler(service.NewHealthService(l))

	return &dashboard{
		router:   NewRouter(stats, health, promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
		surface:  s,
		upstream: body,
	}
}

func (d *dashboard) do(method, target string) *httptest.ResponseRecorder {
	return d.serve(httptest.NewRequest(method, target, nil))
}

func (d *dashboard) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	d.router.ServeHTTP(rec, req)
	return rec
}

func TestRefreshPostReturnsSnapshot(t *testing.T) {
	d := newDashboard(t)

	rec := d.do(http.MethodPost, "/refresh")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp refreshResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Error)
	assert.Equal(t, surface.KindHTML, resp.Surface.Kind)
	assert.Equal(t, `<h3>Produits</h3><div class="prod"><b>a.png</b> - Prix: 10€ - Stock: 2</div>`, resp.Surface.Content)
}

func TestRefreshGetRedirectsToPage(t *testing.T) {
	d := newDashboard(t)

	rec := d.do(http.MethodGet, "/refresh")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.Equal(t, surface.KindHTML, d.surface.Snapshot().Kind)
}

func TestRefreshFormPostRedirectsToPage(t *testing.T) {
	for _, contentType := range []string{
		"application/x-www-form-urlencoded",
		"application/x-www-form-urlencoded; charset=utf-8",
	} {
		t.Run(contentType, func(t *testing.T) {
			d := newDashboard(t)
			req := httptest.NewRequest(http.MethodPost, "/refresh", strings.NewReader(""))
			req.Header.Set("Content-Type", contentType)

			rec := d.serve(req)
			assert.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, "/", rec.Header().Get("Location"))
			assert.Equal(t, surface.KindHTML, d.surface.Snapshot().Kind)
		})
	}
}

func TestRefreshJSONPostIsNotAFormPost(t *testing.T) {
	d := newDashboard(t)
	req := httptest.NewRequest(http.MethodPost, "/refresh", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")

	rec := d.serve(req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
}

func TestRefreshSurvivesClientDisconnect(t *testing.T) {
	d := newDashboard(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := d.serve(httptest.NewRequest(http.MethodPost, "/refresh", nil).WithContext(ctx))
	require.Equal(t, http.StatusOK, rec.Code)

	snap := d.surface.Snapshot()
	assert.Equal(t, surface.KindHTML, snap.Kind)
	assert.NotContains(t, snap.Content, "context canceled")
}

func TestPageEmbedsSurfaceMarkup(t *testing.T) {
	d := newDashboard(t)
	d.do(http.MethodPost, "/refresh")

	rec := d.do(http.MethodGet, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), `<div id="stats"><h3>Produits</h3><div class="prod"><b>a.png</b>`)
}

func TestPageEscapesErrorText(t *testing.T) {
	d := newDashboard(t)
	d.upstream.Store(`<b>not json</b>`)
	d.do(http.MethodPost, "/refresh")

	snap := d.surface.Snapshot()
	require.Equal(t, surface.KindText, snap.Kind)
	require.True(t, strings.HasPrefix(snap.Content, loader.ErrorLabel))

	rec := d.do(http.MethodGet, "/")
	body := rec.Body.String()
	assert.Contains(t, body, `<div id="stats">Erreur: `)
	// the decode error quotes the offending '<'
	assert.Contains(t, body, "&#39;&lt;&#39;")
	assert.NotContains(t, body, "'<'")
}

func TestRefreshPostReportsLoadError(t *testing.T) {
	d := newDashboard(t)
	d.upstream.Store("")

	rec := d.do(http.MethodPost, "/refresh")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp refreshResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "unexpected status 502 Bad Gateway", resp.Error)
	assert.Equal(t, "Erreur: unexpected status 502 Bad Gateway", resp.Surface.Content)
}

func TestHealthz(t *testing.T) {
	d := newDashboard(t)

	rec := d.do(http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"UNKNOWN"`)

	d.do(http.MethodPost, "/refresh")
	rec = d.do(http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"UP"`)

	d.upstream.Store("")
	d.do(http.MethodPost, "/refresh")
	rec = d.do(http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"DOWN"`)
}

func TestStatsSnapshotAndMetrics(t *testing.T) {
	d := newDashboard(t)
	d.do(http.MethodPost, "/refresh")

	rec := d.do(http.MethodGet, "/stats")
	require.Equal(t, http.StatusOK, rec.Code)
	var snap surface.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, "stats", snap.ID)
	assert.Equal(t, uint64(1), snap.Writes)

	rec = d.do(http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `stats_loader_loads_total{result="success"} 1`)
	assert.Contains(t, rec.Body.String(), `stats_loader_products_rendered 1`)
}

func TestRouterRejectsUnknownRoutesAndMethods(t *testing.T) {
	d := newDashboard(t)

	assert.Equal(t, http.StatusNotFound, d.do(http.MethodGet, "/nope").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, d.do(http.MethodDelete, "/refresh").Code)
}
