package monitoring

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP 请求指标
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytcollector_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_class"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ytcollector_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"method", "path", "status_class"},
	)

	HTTPInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ytcollector_http_inflight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	// 代理池指标
	ProxyPoolSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ytcollector_proxy_pool_size",
			Help: "Number of proxy credentials currently in the pool",
		},
	)

	ProxyPoolRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytcollector_proxy_pool_refreshes_total",
			Help: "Proxy pool refresh attempts by result (ok, degraded, failed)",
		},
		[]string{"source", "result"},
	)

	ProxySelections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytcollector_proxy_selections_total",
			Help: "Proxy credentials handed out, by selection policy",
		},
		[]string{"policy"},
	)

	// 重试抓取指标
	FetchAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytcollector_fetch_attempts_total",
			Help: "Individual fetch attempts by classification",
		},
		[]string{"operation", "class"},
	)

	FetchOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytcollector_fetch_outcomes_total",
			Help: "Completed fetch runs by final outcome",
		},
		[]string{"operation", "outcome"},
	)

	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ytcollector_fetch_duration_seconds",
			Help:    "Wall time of a complete fetch run including retries",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"operation"},
	)

	// 缓存指标
	CacheOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytcollector_cache_operations_total",
			Help: "Cache backend operations by result",
		},
		[]string{"backend", "operation", "result"},
	)

	CacheOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ytcollector_cache_operation_duration_seconds",
			Help:    "Cache backend operation latency",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"backend", "operation"},
	)

	// YouTube Data API 调用
	YouTubeAPICalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytcollector_youtube_api_calls_total",
			Help: "YouTube Data API calls by method and result",
		},
		[]string{"method", "result"},
	)

	// Gemini 字幕分析
	GeminiCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytcollector_gemini_calls_total",
			Help: "Gemini generateContent calls by model and HTTP status",
		},
		[]string{"model", "status"},
	)

	GeminiTokens = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytcollector_gemini_tokens_total",
			Help: "Tokens reported by Gemini usage metadata",
		},
		[]string{"direction"},
	)

	AnalysisRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytcollector_analysis_requests_total",
			Help: "Transcript analysis requests by type and result",
		},
		[]string{"type", "result"},
	)

	// 限流指标
	RateLimitKeys = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ytcollector_ratelimit_keys",
			Help: "Number of per-client limiters currently tracked",
		},
	)

	RateLimitRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytcollector_ratelimit_rejections_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"scope"},
	)

	// panic 恢复
	PanicsRecovered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytcollector_panics_recovered_total",
			Help: "Panics recovered in HTTP handlers and background goroutines",
		},
		[]string{"where"},
	)

	RateLimitSweeps = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ytcollector_ratelimit_sweeps_total",
			Help: "Idle limiter sweeps",
		},
	)
)

// StatusClass buckets an HTTP status into 2xx/3xx/4xx/5xx.
func StatusClass(status int) string {
	if status < 100 || status > 599 {
		return "unknown"
	}
	return strconv.Itoa(status/100) + "xx"
}

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(method, path string, status int, elapsed time.Duration) {
	class := StatusClass(status)
	HTTPRequestsTotal.WithLabelValues(method, path, class).Inc()
	HTTPRequestDuration.WithLabelValues(method, path, class).Observe(elapsed.Seconds())
}

// RecordCacheOperation records a cache backend call.
func RecordCacheOperation(backend, operation, result string, elapsed time.Duration) {
	CacheOperations.WithLabelValues(backend, operation, result).Inc()
	CacheOperationDuration.WithLabelValues(backend, operation).Observe(elapsed.Seconds())
}

// RecordYouTubeCall records a Data API call.
func RecordYouTubeCall(method string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	YouTubeAPICalls.WithLabelValues(method, result).Inc()
}
