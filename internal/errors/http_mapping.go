package errors

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"
	"net/url"

	"ytcollector-go/internal/analysis"
	"ytcollector-go/internal/fetch"
	"ytcollector-go/internal/proxy"
	"ytcollector-go/internal/transcript"
	"ytcollector-go/internal/youtube"
)

// StatusClientClosedRequest is used when the caller went away mid-fetch.
const StatusClientClosedRequest = 499

// FromError maps domain errors to API errors. Terminal caption failures are
// 404s, exhausted retries are 502, a pool that cannot supply credentials is 503.
func FromError(err error) *APIError {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr
	}

	var poolErr *proxy.PoolError
	if stderrors.As(err, &poolErr) {
		return New(http.StatusServiceUnavailable, "proxy_pool_unavailable", TypeServer, err.Error()).
			WithDetails(map[string]interface{}{"kind": poolErr.Kind.String()})
	}

	switch {
	case stderrors.Is(err, transcript.ErrInvalidVideoID):
		return New(http.StatusBadRequest, "invalid_video_id", TypeInvalidRequest, "Invalid video id")
	case stderrors.Is(err, transcript.ErrNoTranscriptFound):
		return New(http.StatusNotFound, "no_transcript", TypeNotFound, "No transcript found for the requested languages")
	case stderrors.Is(err, transcript.ErrTranscriptsDisabled):
		return New(http.StatusNotFound, "transcripts_disabled", TypeNotFound, "Transcripts are disabled for this video")
	case stderrors.Is(err, transcript.ErrVideoUnavailable),
		stderrors.Is(err, transcript.ErrVideoUnplayable),
		stderrors.Is(err, transcript.ErrAgeRestricted):
		return New(http.StatusNotFound, "video_unavailable", TypeNotFound, unwrapMessage(err))
	case stderrors.Is(err, youtube.ErrInvalidChannelRef):
		return New(http.StatusBadRequest, "invalid_channel_url", TypeInvalidRequest, err.Error())
	case stderrors.Is(err, youtube.ErrChannelNotFound):
		return New(http.StatusNotFound, "channel_not_found", TypeNotFound, unwrapMessage(err))
	case stderrors.Is(err, youtube.ErrQuotaExceeded):
		return New(http.StatusTooManyRequests, "quota_exceeded", TypeRateLimit, "YouTube Data API quota exceeded")
	case stderrors.Is(err, youtube.ErrAPIKeyMissing):
		return New(http.StatusServiceUnavailable, "youtube_api_disabled", TypeServer, "YouTube Data API key is not configured")
	case stderrors.Is(err, analysis.ErrDisabled):
		return New(http.StatusServiceUnavailable, "analysis_disabled", TypeServer, "Gemini API key is not configured")
	case stderrors.Is(err, analysis.ErrInvalidRequest):
		return New(http.StatusBadRequest, "invalid_request", TypeInvalidRequest, unwrapMessage(err))
	case stderrors.Is(err, analysis.ErrBlocked):
		return New(http.StatusUnprocessableEntity, "content_blocked", TypeInvalidRequest, unwrapMessage(err))
	}

	// A model call rejected outright; retryable statuses fall through to the
	// exhausted mapping below.
	var geminiErr *analysis.StatusError
	if stderrors.As(err, &geminiErr) && analysis.Classify(geminiErr) == fetch.Terminal {
		return New(http.StatusBadGateway, "analysis_rejected", TypeUpstream, geminiErr.Error()).
			WithDetails(map[string]interface{}{"upstream_status": geminiErr.Code})
	}

	var exhausted *fetch.ExhaustedError
	if stderrors.As(err, &exhausted) {
		return New(http.StatusBadGateway, "upstream_exhausted", TypeUpstream, "All retry attempts failed").
			WithDetails(map[string]interface{}{
				"attempts": exhausted.Attempts,
				"reason":   fetch.Reason(exhausted.Last),
			})
	}
	var terminal *fetch.TerminalError
	if stderrors.As(err, &terminal) {
		return New(http.StatusNotFound, "not_found", TypeNotFound, unwrapMessage(err))
	}

	// Fetch outcomes are matched first: an exhausted run whose attempts all
	// timed out still wraps context.DeadlineExceeded.
	switch {
	case stderrors.Is(err, context.Canceled):
		return New(StatusClientClosedRequest, "request_canceled", TypeTimeout, "Request was canceled")
	case stderrors.Is(err, context.DeadlineExceeded):
		return New(http.StatusGatewayTimeout, "timeout", TypeTimeout, "Request timeout")
	}

	var urlErr *url.Error
	var netErr net.Error
	if stderrors.As(err, &urlErr) || stderrors.As(err, &netErr) {
		return MapNetworkError(err)
	}
	return New(http.StatusInternalServerError, "internal_error", TypeServer, "Internal server error")
}

// unwrapMessage strips the fetch.TerminalError prefix.
func unwrapMessage(err error) string {
	var terminal *fetch.TerminalError
	if stderrors.As(err, &terminal) {
		return terminal.Err.Error()
	}
	return err.Error()
}
