package proxy

import "errors"

// ErrorKind distinguishes why the pool could not hand out a credential.
type ErrorKind int

const (
	// KindEmpty means the pool holds no credentials.
	KindEmpty ErrorKind = iota + 1
	// KindUnavailable means the source failed and nothing was cached.
	KindUnavailable
)

func (k ErrorKind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

var (
	// ErrEmpty is matched by errors.Is for any empty-pool failure.
	ErrEmpty = &PoolError{Kind: KindEmpty}
	// ErrUnavailable is matched by errors.Is for any source failure with no fallback.
	ErrUnavailable = &PoolError{Kind: KindUnavailable}
)

// PoolError is returned by selection and refresh when the pool cannot serve.
type PoolError struct {
	Kind ErrorKind
	Err  error
}

func (e *PoolError) Error() string {
	msg := "proxy pool " + e.Kind.String()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *PoolError) Unwrap() error { return e.Err }

// Is matches on Kind so wrapped causes still compare equal to the sentinels.
func (e *PoolError) Is(target error) bool {
	var pe *PoolError
	if !errors.As(target, &pe) {
		return false
	}
	return pe.Kind == e.Kind
}
