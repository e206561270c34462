package errors

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func New(httpStatus int, code, errType, message string) *APIError {
	return &APIError{HTTPStatus: httpStatus, Code: code, Type: errType, Message: message}
}

func (e *APIError) Error() string { return e.Code + ": " + e.Message }

func (e *APIError) WithDetails(details map[string]interface{}) *APIError {
	e.Details = details
	return e
}

// Envelope wraps e for the response body.
func (e *APIError) Envelope() Envelope {
	var env Envelope
	env.Error.Message = e.Message
	env.Error.Type = e.Type
	env.Error.Code = e.Code
	if e.Details != nil {
		env.Error.Details = e.Details
	}
	return env
}

func (e *APIError) ToJSON() ([]byte, error) {
	return json.Marshal(e.Envelope())
}

// Write aborts the gin request with e, setting Retry-After on retryable errors.
func (e *APIError) Write(c *gin.Context) {
	if e.IsRetryable() {
		c.Header("Retry-After", strconv.Itoa(e.GetRetryAfter()))
	}
	c.AbortWithStatusJSON(e.HTTPStatus, e.Envelope())
}

// Abort maps err and writes it.
func Abort(c *gin.Context, err error) {
	FromError(err).Write(c)
}

func (e *APIError) IsRetryable() bool {
	switch e.HTTPStatus {
	case http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

func (e *APIError) GetRetryAfter() int {
	if e.Details != nil {
		if retryAfter, ok := e.Details["retry_after"].(int); ok {
			return retryAfter
		}
	}
	switch e.HTTPStatus {
	case http.StatusTooManyRequests:
		return 60
	case http.StatusServiceUnavailable:
		return 30
	case http.StatusBadGateway, http.StatusGatewayTimeout:
		return 15
	default:
		return 5
	}
}
