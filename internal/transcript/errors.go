package transcript

import (
	"errors"
	"fmt"

	"ytcollector-go/internal/fetch"
)

// Terminal conditions: the video or its captions do not exist in the requested form.
var (
	ErrNoTranscriptFound   = errors.New("no transcript found")
	ErrTranscriptsDisabled = errors.New("transcripts disabled")
	ErrVideoUnavailable    = errors.New("video unavailable")
	ErrVideoUnplayable     = errors.New("video unplayable")
	ErrAgeRestricted       = errors.New("video is age restricted")
	ErrInvalidVideoID      = errors.New("invalid video id")
)

// ErrRequestBlocked means YouTube refused the exit IP (429 or captcha).
// It is transient: a different proxy usually succeeds.
var ErrRequestBlocked = errors.New("request blocked by youtube")

// StatusError is an unexpected HTTP status at one stage of the fetch.
type StatusError struct {
	Stage string
	Code  int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Stage, e.Code)
}

// Classify marks missing or disabled captions and unavailable videos terminal;
// blocks, network failures and server errors stay transient.
func Classify(err error) fetch.Class {
	switch {
	case errors.Is(err, ErrNoTranscriptFound),
		errors.Is(err, ErrTranscriptsDisabled),
		errors.Is(err, ErrVideoUnavailable),
		errors.Is(err, ErrVideoUnplayable),
		errors.Is(err, ErrAgeRestricted),
		errors.Is(err, ErrInvalidVideoID):
		return fetch.Terminal
	}
	var se *StatusError
	if errors.As(err, &se) && se.Code == 404 {
		return fetch.Terminal
	}
	return fetch.DefaultClassifier(err)
}
