package middleware

import (
	"net/http"
	"runtime/debug"

	apierrors "ytcollector-go/internal/errors"
	"ytcollector-go/internal/logging"
	"ytcollector-go/internal/monitoring"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Recovery 返回一个 panic 恢复中间件
func Recovery() gin.HandlerFunc {
	return RecoveryWithWriter(nil)
}

// RecoveryWithWriter turns a handler panic into a 500 envelope. onPanic, when
// set, sees the recovered value before the response is written.
func RecoveryWithWriter(onPanic gin.RecoveryFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			monitoring.PanicsRecovered.WithLabelValues("http").Inc()
			extras := log.Fields{"panic": rec, "stack": string(debug.Stack())}
			if v, ok := c.Get("video_id"); ok {
				extras["video_id"] = v
			}
			logging.WithReq(c, extras).Error("panic recovered")

			if onPanic != nil {
				onPanic(c, rec)
			}
			if c.Writer.Written() {
				c.Abort()
				return
			}
			apierrors.New(http.StatusInternalServerError, "panic_recovered", apierrors.TypeServer, "Internal server error").Write(c)
		}()
		c.Next()
	}
}

// SafeGo runs fn on its own goroutine; a panic is logged and counted instead
// of crashing the process. name identifies the worker in logs.
func SafeGo(name string, fn func()) {
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				monitoring.PanicsRecovered.WithLabelValues(name).Inc()
				log.WithFields(log.Fields{
					"goroutine": name,
					"panic":     rec,
					"stack":     string(debug.Stack()),
				}).Error("goroutine panic recovered")
			}
		}()
		fn()
	}()
}
