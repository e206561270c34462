package server

import (
	"ytcollector-go/internal/config"
	mw "ytcollector-go/internal/middleware"

	"github.com/gin-gonic/gin"
)

// applyStandardEngineSettings applies common Gin settings and middlewares.
func applyStandardEngineSettings(engine *gin.Engine, cfg *config.Config) {
	if !cfg.Security.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	_ = engine.SetTrustedProxies([]string{})

	engine.Use(mw.Recovery(), mw.RequestID(), mw.Metrics())
	// Admin endpoints stay same-origin.
	engine.Use(mw.CORS(prefixed(cfg.Server.BasePath, adminPaths)...))
	engine.Use(mw.RequestLogger())
	if cfg.Server.RateLimitRPS > 0 {
		engine.Use(mw.RateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst))
	}
}

func prefixed(basePath string, paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = basePath + p
	}
	return out
}
