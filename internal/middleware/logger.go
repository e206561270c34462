package middleware

import (
	"time"

	"ytcollector-go/internal/logging"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// RequestLogger logs HTTP requests
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		extras := log.Fields{
			"status":     status,
			"latency_ms": logging.DurationMS(latency),
			"user_agent": c.Request.UserAgent(),
		}
		// Handlers tag the video or channel they worked on.
		if v, ok := c.Get("video_id"); ok {
			extras["video_id"] = v
		}
		if v, ok := c.Get("channel_id"); ok {
			extras["channel_id"] = v
		}
		if v, ok := c.Get("cached"); ok {
			extras["cached"] = v
		}
		entry := logging.WithReq(c, extras)
		switch {
		case status >= 500:
			entry.Warn("http_request")
		case c.Request.URL.Path == "/healthz" || c.Request.URL.Path == "/metrics":
			entry.Debug("http_request")
		default:
			entry.Info("http_request")
		}
	}
}
