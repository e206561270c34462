package analysis

import (
	"errors"
	"fmt"
	"net/http"

	"ytcollector-go/internal/fetch"
)

var (
	// ErrDisabled is returned when no Gemini API key is configured.
	ErrDisabled = errors.New("transcript analysis is not configured")
	// ErrBlocked means Gemini refused the prompt or withheld the answer on
	// safety grounds. Asking again yields the same refusal.
	ErrBlocked = errors.New("gemini blocked the request")
	// ErrEmptyResponse is a 200 with no candidate text.
	ErrEmptyResponse = errors.New("gemini returned no text")
	// ErrInvalidRequest covers malformed questions or chat history.
	ErrInvalidRequest = errors.New("invalid analysis request")
)

// StatusError is a non-2xx answer from the Gemini API.
type StatusError struct {
	Model   string
	Code    int
	Status  string
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gemini %s: status %d", e.Model, e.Code)
	}
	return fmt.Sprintf("gemini %s: status %d %s: %s", e.Model, e.Code, e.Status, e.Message)
}

// Classify retries rate limits, timeouts and server errors. Rejections that
// depend only on the request (bad key, bad payload, safety blocks) are terminal.
func Classify(err error) fetch.Class {
	if errors.Is(err, ErrBlocked) || errors.Is(err, ErrInvalidRequest) {
		return fetch.Terminal
	}
	var se *StatusError
	if errors.As(err, &se) {
		switch {
		case se.Code == http.StatusTooManyRequests,
			se.Code == http.StatusRequestTimeout,
			se.Code == http.StatusTooEarly,
			se.Code >= 500:
			return fetch.Transient
		default:
			return fetch.Terminal
		}
	}
	return fetch.DefaultClassifier(err)
}
