package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"stats-loader/internal/loader"
	"stats-loader/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out, _, err := executeSplit(t, args...)
	return out, err
}

func executeSplit(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("PRODUCTS_BASE_URL", "")
	t.Setenv("PRODUCTS_PATH", "")
	t.Setenv("LOADER_TIMEOUT_MS", "")
	t.Setenv("LOG_FILE", "")
	t.Setenv("REMOTE_LOG_HTTP_URI", "")
	t.Cleanup(func() { logger.SetOutput(os.Stdout) })

	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestRootCmdPrintsRenderedStats(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/catalog/products", r.URL.Path)
		_, _ = w.Write([]byte(`{"products":[{"filename":"a.png","price":10,"available":2}]}`))
	}))
	defer srv.Close()

	out, err := execute(t, "--base-url", srv.URL, "--path", "/catalog/products")
	require.NoError(t, err)
	assert.Equal(t, "<h3>Produits</h3><div class=\"prod\"><b>a.png</b> - Prix: 10€ - Stock: 2</div>\n", out)
}

func TestRootCmdPrintsErrorText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"nothing":true}`))
	}))
	defer srv.Close()

	out, err := execute(t, "--base-url", srv.URL)

	var loadErr *loader.LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, "Erreur: missing products field\n", out)
}

func TestRootCmdRequiresBaseURL(t *testing.T) {
	_, err := execute(t)
	assert.ErrorContains(t, err, "PRODUCTS_BASE_URL")
}

func TestRootCmdKeepsLogsOffStdout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"products":[]}`))
	}))
	defer srv.Close()

	out, logs, err := executeSplit(t, "--base-url", srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "<h3>Produits</h3>\n", out)
	assert.Contains(t, logs, `"msg":"Load succeeded"`)
}
