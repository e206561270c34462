package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestAdminAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	validator := func(k string) bool { return k == "secret" }

	newRouter := func(v func(string) bool) *gin.Engine {
		r := gin.New()
		r.POST("/admin", AdminAuth(v), func(c *gin.Context) {
			c.String(http.StatusOK, "ok")
		})
		return r
	}

	tests := []struct {
		name     string
		header   string
		value    string
		validate func(string) bool
		status   int
		code     string
	}{
		{"bearer", "Authorization", "Bearer secret", validator, http.StatusOK, ""},
		{"management header", "X-Management-Key", "secret", validator, http.StatusOK, ""},
		{"x-api-key", "x-api-key", "secret", validator, http.StatusOK, ""},
		{"wrong key", "Authorization", "Bearer nope", validator, http.StatusUnauthorized, "invalid_management_key"},
		{"missing key", "", "", validator, http.StatusUnauthorized, "missing_management_key"},
		{"disabled", "Authorization", "Bearer secret", nil, http.StatusForbidden, "management_disabled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/admin", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			w := httptest.NewRecorder()
			newRouter(tt.validate).ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.code != "" {
				assert.Contains(t, w.Body.String(), tt.code)
			}
		})
	}
}
