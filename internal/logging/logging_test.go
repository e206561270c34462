package logging

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"ytcollector-go/internal/config"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorKind(t *testing.T) {
	cases := map[string]struct {
		status int
		hasErr bool
	}{
		"network_error": {0, true},
		"rate_limited":  {429, false},
		"unauthorized":  {401, false},
		"forbidden":     {403, false},
		"not_found":     {404, false},
		"server_5xx":    {503, true},
		"client_4xx":    {400, false},
		"error":         {200, true},
		"ok":            {200, false},
	}
	for want, tc := range cases {
		assert.Equal(t, want, ErrorKind(tc.status, tc.hasErr), "status=%d", tc.status)
	}
}

func TestSetupWritesLogFile(t *testing.T) {
	t.Cleanup(func() {
		Close()
		log.SetLevel(log.InfoLevel)
	})
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	cfg := config.Default()
	cfg.Security.Debug = true
	cfg.Security.LogFile = path

	require.NoError(t, Setup(cfg))
	assert.Equal(t, log.DebugLevel, log.GetLevel())
	log.WithField("source", "x").Info("hello file")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello file")
}

func TestWithReqMergesFields(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/v1/transcripts/abc", nil)
	c.Set("request_id", "rid-1")

	entry := WithReq(c, log.Fields{"video_id": "abc"})
	assert.Equal(t, "rid-1", entry.Data["request_id"])
	assert.Equal(t, http.MethodGet, entry.Data["method"])
	assert.Equal(t, "/v1/transcripts/abc", entry.Data["path"])
	assert.Equal(t, "abc", entry.Data["video_id"])

	assert.NotNil(t, WithReq(nil, log.Fields{"a": 1}))
}
