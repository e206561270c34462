package monitoring

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "2xx", StatusClass(200))
	assert.Equal(t, "4xx", StatusClass(429))
	assert.Equal(t, "5xx", StatusClass(503))
	assert.Equal(t, "unknown", StatusClass(0))
	assert.Equal(t, "unknown", StatusClass(700))
}

func TestRecordHelpers(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/healthz", "2xx"))
	RecordHTTPRequest("GET", "/healthz", 200, 5*time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/healthz", "2xx")))

	beforeCache := testutil.ToFloat64(CacheOperations.WithLabelValues("redis", "get", "miss"))
	RecordCacheOperation("redis", "get", "miss", time.Millisecond)
	assert.Equal(t, beforeCache+1, testutil.ToFloat64(CacheOperations.WithLabelValues("redis", "get", "miss")))

	beforeErr := testutil.ToFloat64(YouTubeAPICalls.WithLabelValues("channels.list", "error"))
	RecordYouTubeCall("channels.list", errors.New("quota"))
	assert.Equal(t, beforeErr+1, testutil.ToFloat64(YouTubeAPICalls.WithLabelValues("channels.list", "error")))
}
