package server

import (
	"net/http"
	"runtime"
	"time"

	"ytcollector-go/internal/proxy"
	"ytcollector-go/internal/storage"
	"ytcollector-go/internal/version"

	"github.com/gin-gonic/gin"
)

type healthHandler struct {
	pool    *proxy.Pool
	store   *storage.Store
	started time.Time
}

// Health reports 503 when the cache backend is unreachable or an enabled
// proxy pool holds no credentials.
func (h *healthHandler) Health(c *gin.Context) {
	healthy := true
	checks := gin.H{}

	if h.store.Enabled() {
		if err := h.store.Health(c.Request.Context()); err != nil {
			healthy = false
			checks["cache"] = gin.H{"status": "unhealthy", "error": err.Error()}
		} else {
			checks["cache"] = gin.H{"status": "healthy", "backend": h.store.Backend().Name()}
		}
	} else {
		checks["cache"] = gin.H{"status": "disabled"}
	}

	if h.pool != nil {
		st := h.pool.Stats()
		status := "healthy"
		switch {
		case st.Size == 0:
			status = "empty"
			healthy = false
		case st.Degraded:
			status = "degraded"
		}
		checks["proxy_pool"] = gin.H{"status": status, "size": st.Size, "freshness": st.Freshness}
	} else {
		checks["proxy_pool"] = gin.H{"status": "disabled"}
	}

	code := http.StatusOK
	status := "ok"
	if !healthy {
		code = http.StatusServiceUnavailable
		status = "unhealthy"
	}
	c.JSON(code, gin.H{
		"status": status,
		"checks": checks,
		"uptime": time.Since(h.started).Seconds(),
	})
}

// Version returns build information.
func (h *healthHandler) Version(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"version":    version.Version,
		"go_version": runtime.Version(),
	})
}
