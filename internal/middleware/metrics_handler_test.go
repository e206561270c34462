package middleware

import (
	"net/http/httptest"
	"testing"

	"ytcollector-go/internal/monitoring"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsHandlerRunsSyncHooks(t *testing.T) {
	gin.SetMode(gin.TestMode)
	monitoring.ProxyPoolSize.Set(0)

	poolSize := 3
	calls := 0
	router := gin.New()
	router.GET("/metrics", MetricsHandler(nil, func() {
		calls++
		monitoring.ProxyPoolSize.Set(float64(poolSize))
	}))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	body := w.Body.String()
	require.Contains(t, body, "ytcollector_proxy_pool_size 3")
	require.Contains(t, body, "# TYPE ytcollector_proxy_pool_size gauge")

	poolSize = 7
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	assert.Contains(t, w.Body.String(), "ytcollector_proxy_pool_size 7")
	assert.Equal(t, 2, calls)
}
