package server

import (
	"time"

	"ytcollector-go/internal/analysis"
	"ytcollector-go/internal/catalog"
	"ytcollector-go/internal/config"
	"ytcollector-go/internal/events"
	"ytcollector-go/internal/handlers/admin"
	analysishandler "ytcollector-go/internal/handlers/analysis"
	"ytcollector-go/internal/handlers/channels"
	"ytcollector-go/internal/handlers/transcripts"
	mw "ytcollector-go/internal/middleware"
	"ytcollector-go/internal/monitoring"
	"ytcollector-go/internal/proxy"
	"ytcollector-go/internal/storage"
	"ytcollector-go/internal/transcript"
	"ytcollector-go/internal/youtube"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Dependencies encapsulates runtime services required to build the HTTP engine.
// Everything except Transcripts may be nil when the feature is disabled.
type Dependencies struct {
	Transcripts *transcript.Service
	Analyzer    *analysis.Analyzer
	Channels    *youtube.ChannelManager
	Catalog     *catalog.Catalog
	Pool        *proxy.Pool
	Store       *storage.Store
	Hub         *events.Hub
}

// adminPaths are mutating routes guarded by the management key.
var adminPaths = []string{"/v1/proxies/refresh", "/v1/cache/purge", "/v1/events"}

// BuildEngine constructs the collector's Gin engine.
func BuildEngine(cfg *config.Config, deps Dependencies) *gin.Engine {
	engine := gin.New()
	applyStandardEngineSettings(engine, cfg)

	root := engine.Group(cfg.Server.BasePath)
	h := &healthHandler{pool: deps.Pool, store: deps.Store, started: time.Now()}
	root.GET("/healthz", h.Health)
	root.GET("/version", h.Version)
	root.GET("/metrics", mw.MetricsHandler(func() {
		if deps.Pool != nil {
			monitoring.ProxyPoolSize.Set(float64(deps.Pool.Len()))
		}
	}))

	v1 := root.Group("/v1")
	transcripts.New(deps.Transcripts).RegisterRoutes(v1)
	analysishandler.New(deps.Analyzer).RegisterRoutes(v1)
	channels.New(deps.Channels, deps.Catalog).RegisterRoutes(v1)

	var validator func(string) bool
	if cfg.ManagementEnabled() {
		validator = config.ManagementKeyValidator(cfg)
	} else {
		log.Warn("management key not configured; admin endpoints are disabled")
	}
	guarded := v1.Group("", mw.AdminAuth(validator))
	admin.New(deps.Pool, deps.Store, deps.Hub, cfg.Cache.PurgeAge).RegisterRoutes(v1, guarded)

	return engine
}
