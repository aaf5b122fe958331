package webserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spboyer/modeladvisor/internal/catalog"
	"github.com/spboyer/modeladvisor/internal/classify"
	"github.com/spboyer/modeladvisor/internal/models"
	"github.com/spboyer/modeladvisor/internal/recommend"
	"github.com/spboyer/modeladvisor/internal/taxonomy"
	"github.com/spboyer/modeladvisor/internal/webapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, cfg Config) http.Handler {
	t.Helper()

	tax := taxonomy.Default()
	handlers := webapi.NewHandlers(
		classify.NewPipeline(tax),
		recommend.NewEngine(catalog.Default()),
		tax,
		models.FilterState{},
	)
	return New(cfg, handlers).Handler()
}

func TestHealthEndpoint(t *testing.T) {
	handler := newTestServer(t, Config{})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestUnknownRouteIs404(t *testing.T) {
	handler := newTestServer(t, Config{})

	req := httptest.NewRequest(http.MethodGet, "/api/runs", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCORSAppliedWhenConfigured(t *testing.T) {
	handler := newTestServer(t, Config{AllowedOrigins: []string{"http://localhost:5173"}})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestDefaultAddress(t *testing.T) {
	tax := taxonomy.Default()
	handlers := webapi.NewHandlers(classify.NewPipeline(tax), recommend.NewEngine(catalog.Default()), tax, models.FilterState{})

	srv := New(Config{}, handlers)
	assert.Equal(t, "127.0.0.1:3000", srv.srv.Addr)
}
