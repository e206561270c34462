// Package admin serves proxy pool and cache operations.
package admin

import (
	"net/http"
	"strconv"
	"time"

	apierrors "ytcollector-go/internal/errors"
	"ytcollector-go/internal/events"
	"ytcollector-go/internal/logging"
	"ytcollector-go/internal/proxy"
	"ytcollector-go/internal/storage"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Handler exposes pool and cache state. Pool and store may be nil when
// proxying or caching is disabled.
type Handler struct {
	pool     *proxy.Pool
	store    *storage.Store
	hub      *events.Hub
	purgeAge time.Duration
}

// New builds a Handler. purgeAge is the default age for cache purges.
func New(pool *proxy.Pool, store *storage.Store, hub *events.Hub, purgeAge time.Duration) *Handler {
	return &Handler{pool: pool, store: store, hub: hub, purgeAge: purgeAge}
}

// RegisterRoutes mounts read-only routes on public and mutating routes on
// admin, which the caller guards.
func (h *Handler) RegisterRoutes(public, admin gin.IRouter) {
	public.GET("/proxies/stats", h.ProxyStats)
	public.GET("/cache/stats", h.CacheStats)

	admin.POST("/proxies/refresh", h.RefreshProxies)
	admin.POST("/cache/purge", h.PurgeCache)
	admin.GET("/events/recent", h.RecentEvents)
}

// ProxyStats reports pool size, freshness and country distribution.
func (h *Handler) ProxyStats(c *gin.Context) {
	if h.pool == nil {
		c.JSON(http.StatusOK, gin.H{"enabled": false})
		return
	}
	st := h.pool.Stats()
	c.JSON(http.StatusOK, gin.H{
		"enabled":       true,
		"stats":         st,
		"top_countries": st.TopCountries(5),
	})
}

// RefreshProxies forces a reload from the proxy source.
func (h *Handler) RefreshProxies(c *gin.Context) {
	if h.pool == nil {
		apierrors.New(http.StatusConflict, "proxy_disabled", apierrors.TypeInvalidRequest, "Proxy pool is disabled").Write(c)
		return
	}
	if err := h.pool.Refresh(c.Request.Context(), true); err != nil {
		apierrors.Abort(c, err)
		return
	}
	st := h.pool.Stats()
	logging.WithReq(c, log.Fields{"size": st.Size, "degraded": st.Degraded}).Info("proxy pool refreshed by admin")
	c.JSON(http.StatusOK, gin.H{"refreshed": true, "stats": st})
}

// CacheStats reports per-namespace entry counts.
func (h *Handler) CacheStats(c *gin.Context) {
	st, err := h.store.Stats(c.Request.Context())
	if err != nil {
		apierrors.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"enabled": h.store.Enabled(),
		"stats":   st,
		"total":   st.Total(),
	})
}

// PurgeCache removes entries older than ?days=N, default the configured
// purge age.
func (h *Handler) PurgeCache(c *gin.Context) {
	if !h.store.Enabled() {
		apierrors.New(http.StatusConflict, "cache_disabled", apierrors.TypeInvalidRequest, "Cache is disabled").Write(c)
		return
	}
	age := h.purgeAge
	if raw := c.Query("days"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days <= 0 {
			apierrors.New(http.StatusBadRequest, "invalid_days", apierrors.TypeInvalidRequest, "days must be a positive integer").Write(c)
			return
		}
		age = time.Duration(days) * 24 * time.Hour
	}
	res, err := h.store.PurgeOlderThan(c.Request.Context(), age)
	if err != nil {
		apierrors.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cutoff": res.Cutoff, "removed": res.Removed, "total": res.Total()})
}

// RecentEvents returns the latest domain events, ?limit=N (default 50).
func (h *Handler) RecentEvents(c *gin.Context) {
	limit := 50
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 {
		limit = v
	}
	if h.hub == nil {
		c.JSON(http.StatusOK, gin.H{"events": []events.Event{}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": h.hub.Recent(limit)})
}
