package errors

import (
	"net/http"
	"strings"
)

// MapNetworkError maps transport failures talking to upstream APIs.
func MapNetworkError(err error) *APIError {
	errMsg := err.Error()

	switch {
	case strings.Contains(errMsg, "timeout") || strings.Contains(errMsg, "deadline exceeded"):
		return New(http.StatusGatewayTimeout, "timeout", TypeTimeout, "Upstream timeout")
	case strings.Contains(errMsg, "connection refused"),
		strings.Contains(errMsg, "EOF"),
		strings.Contains(errMsg, "connection reset"):
		return New(http.StatusBadGateway, "connection_error", TypeUpstream, "Upstream connection error")
	case strings.Contains(errMsg, "no such host") || strings.Contains(errMsg, "name resolution"):
		return New(http.StatusBadGateway, "dns_error", TypeUpstream, "Upstream DNS resolution error")
	case strings.Contains(errMsg, "certificate") || strings.Contains(errMsg, "tls"):
		return New(http.StatusBadGateway, "tls_error", TypeUpstream, "Upstream TLS error")
	default:
		return New(http.StatusBadGateway, "network_error", TypeUpstream, "Upstream network error")
	}
}
