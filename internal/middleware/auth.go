package middleware

import (
	"net/http"
	"strings"

	apierrors "ytcollector-go/internal/errors"

	"github.com/gin-gonic/gin"
)

// AdminAuth guards management endpoints. The key is read from
// "Authorization: Bearer", X-Management-Key or x-api-key. A nil validator
// means management is disabled and every request is refused.
func AdminAuth(validator func(string) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if validator == nil {
			apierrors.New(http.StatusForbidden, "management_disabled", apierrors.TypeAuthentication, "Management API is disabled").Write(c)
			return
		}
		key := extractKey(c)
		if key == "" {
			apierrors.New(http.StatusUnauthorized, "missing_management_key", apierrors.TypeAuthentication, "Management key not provided").Write(c)
			return
		}
		if !validator(key) {
			apierrors.New(http.StatusUnauthorized, "invalid_management_key", apierrors.TypeAuthentication, "Invalid management key").Write(c)
			return
		}
		c.Set("admin", true)
		c.Next()
	}
}

func extractKey(c *gin.Context) string {
	auth := strings.TrimSpace(c.GetHeader("Authorization"))
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	if v := strings.TrimSpace(c.GetHeader("X-Management-Key")); v != "" {
		return v
	}
	return strings.TrimSpace(c.GetHeader("x-api-key"))
}
