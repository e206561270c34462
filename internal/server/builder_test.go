package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"ytcollector-go/internal/config"
	"ytcollector-go/internal/fetch"
	"ytcollector-go/internal/proxy"
	"ytcollector-go/internal/transcript"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type emptyProvider struct{}

func (emptyProvider) Fetch(context.Context, proxy.Credential, string, []string, bool) (*transcript.Transcript, error) {
	return nil, transcript.ErrNoTranscriptFound
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Security.Debug = true
	cfg.Cache.Enabled = false
	cfg.Server.RateLimitRPS = 0
	return cfg
}

func newEngine(t *testing.T, cfg *config.Config, pool *proxy.Pool) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc := transcript.NewService(emptyProvider{}, fetch.New(pool, fetch.Policy{MaxAttempts: 1}))
	return BuildEngine(cfg, Dependencies{Transcripts: svc, Pool: pool})
}

func serve(e *gin.Engine, method, path string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)
	return w
}

func TestBuildEngineEnforcesAdminAuth(t *testing.T) {
	cfg := testConfig()
	cfg.Security.ManagementKey = "mgmt"
	pool, err := proxy.NewPool(proxy.Options{Source: proxy.ListSource{{ID: "a", Host: "10.0.0.1", Port: 80}}})
	require.NoError(t, err)
	e := newEngine(t, cfg, pool)

	t.Run("missing key", func(t *testing.T) {
		w := serve(e, http.MethodPost, "/v1/proxies/refresh")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid key", func(t *testing.T) {
		w := serve(e, http.MethodPost, "/v1/proxies/refresh", "Authorization", "Bearer mgmt")
		assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("stats are public", func(t *testing.T) {
		w := serve(e, http.MethodGet, "/v1/proxies/stats")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestBuildEngineWithoutManagementKey(t *testing.T) {
	e := newEngine(t, testConfig(), nil)

	w := serve(e, http.MethodPost, "/v1/cache/purge", "Authorization", "Bearer anything")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "management_disabled")
}

func TestHealth(t *testing.T) {
	t.Run("direct mode", func(t *testing.T) {
		e := newEngine(t, testConfig(), nil)
		w := serve(e, http.MethodGet, "/healthz")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"proxy_pool":{"status":"disabled"}`)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	})

	t.Run("empty pool is unhealthy", func(t *testing.T) {
		pool, err := proxy.NewPool(proxy.Options{Source: proxy.ListSource{}})
		require.NoError(t, err)
		e := newEngine(t, testConfig(), pool)
		w := serve(e, http.MethodGet, "/healthz")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestRoutesUnderBasePath(t *testing.T) {
	cfg := testConfig()
	cfg.Server.BasePath = "/collector"
	e := newEngine(t, cfg, nil)

	w := serve(e, http.MethodGet, "/collector/v1/transcripts/dQw4w9WgXcQ")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "no_transcript")

	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/collector/version").Code)
	assert.Equal(t, http.StatusNotFound, serve(e, http.MethodGet, "/version").Code)
}

func TestAnalysisRoutesWithoutGeminiKey(t *testing.T) {
	e := newEngine(t, testConfig(), nil)

	for _, path := range []string{"/v1/transcripts/dQw4w9WgXcQ/ask", "/v1/transcripts/dQw4w9WgXcQ/summary"} {
		w := serve(e, http.MethodPost, path)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code, path)
		assert.Contains(t, w.Body.String(), "analysis_disabled")
	}
}
