package fetch

import "time"

// Outcome is the terminal state of a fetch run.
type Outcome int

const (
	Succeeded Outcome = iota + 1
	TerminalFailure
	Exhausted
	PoolFailure
	Canceled
)

func (o Outcome) String() string {
	switch o {
	case Succeeded:
		return "succeeded"
	case TerminalFailure:
		return "terminal_failure"
	case Exhausted:
		return "exhausted"
	case PoolFailure:
		return "pool_failure"
	case Canceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Result is what Do returns. Err is nil only for Succeeded and otherwise is
// one of *TerminalError, *ExhaustedError, *proxy.PoolError or a context error.
type Result[T any] struct {
	Outcome     Outcome
	Value       T
	Err         error
	Attempts    int
	Credentials []string
	Elapsed     time.Duration
}

// OK reports success.
func (r Result[T]) OK() bool { return r.Outcome == Succeeded }

// Unwrap returns the value and error as a conventional pair.
func (r Result[T]) Unwrap() (T, error) { return r.Value, r.Err }
