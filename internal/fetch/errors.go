package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// TerminalError wraps a failure that retrying cannot fix.
type TerminalError struct {
	Err error
}

func (e *TerminalError) Error() string { return "terminal: " + e.Err.Error() }
func (e *TerminalError) Unwrap() error { return e.Err }

// MarkTerminal lets an operation declare its error terminal regardless of classifier.
func MarkTerminal(err error) error {
	if err == nil {
		return nil
	}
	var te *TerminalError
	if errors.As(err, &te) {
		return err
	}
	return &TerminalError{Err: err}
}

// ExhaustedError is returned when every allowed attempt failed transiently.
type ExhaustedError struct {
	Last     error
	Attempts int
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("gave up after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error { return e.Last }

// AttemptTimeoutError reports that a single attempt hit its own deadline.
// It is always treated as transient.
type AttemptTimeoutError struct {
	Attempt int
	Err     error
}

func (e *AttemptTimeoutError) Error() string {
	return fmt.Sprintf("attempt %d timed out: %v", e.Attempt, e.Err)
}

func (e *AttemptTimeoutError) Unwrap() error { return e.Err }

// DefaultClassifier treats errors wrapped by MarkTerminal as terminal and
// everything else as transient.
func DefaultClassifier(err error) Class {
	var te *TerminalError
	if errors.As(err, &te) {
		return Terminal
	}
	return Transient
}

// Reason buckets an error into a short label for logs and metrics.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	var ate *AttemptTimeoutError
	if errors.As(err, &ate) {
		return "attempt_timeout"
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "deadline"
	}
	var ue *url.Error
	if errors.As(err, &ue) && ue.Timeout() {
		return "timeout"
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return "dns"
	}
	s := err.Error()
	switch {
	case strings.Contains(s, "no such host"):
		return "dns"
	case strings.Contains(s, "connection reset"):
		return "conn_reset"
	case strings.Contains(s, "connection refused"):
		return "conn_refused"
	case strings.Contains(s, "broken pipe"):
		return "conn_broken_pipe"
	case strings.Contains(s, "proxyconnect"):
		return "proxy_connect"
	case strings.Contains(s, "timeout"):
		return "timeout"
	}
	return "other"
}
