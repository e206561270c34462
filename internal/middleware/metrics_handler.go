package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsHandler serves the default registry. Each sync hook runs before a
// scrape so gauges mirroring live state (pool size after a snapshot fallback,
// for one) are current when read.
func MetricsHandler(sync ...func()) gin.HandlerFunc {
	h := promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})
	return func(c *gin.Context) {
		for _, fn := range sync {
			if fn != nil {
				fn()
			}
		}
		h.ServeHTTP(c.Writer, c.Request)
	}
}
