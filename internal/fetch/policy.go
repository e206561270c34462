package fetch

import (
	"math"
	"math/rand/v2"
	"time"

	"ytcollector-go/internal/config"
	"ytcollector-go/internal/constants"
)

// Class is the retry decision for a failed attempt.
type Class int

const (
	// Transient failures are retried with a fresh credential.
	Transient Class = iota
	// Terminal failures stop the loop immediately.
	Terminal
)

func (c Class) String() string {
	if c == Terminal {
		return "terminal"
	}
	return "transient"
}

// Classifier maps an attempt error to a Class. It is never called with nil.
type Classifier func(error) Class

// Backoff selects how the inter-attempt delay grows.
type Backoff string

const (
	BackoffFixed       Backoff = "fixed"
	BackoffExponential Backoff = "exponential"
)

// Policy bounds one fetch run.
type Policy struct {
	MaxAttempts    int
	Delay          time.Duration
	Backoff        Backoff
	MaxDelay       time.Duration
	AttemptTimeout time.Duration
	Classifier     Classifier
}

// DefaultPolicy is five attempts one second apart with no attempt timeout.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: constants.DefaultMaxAttempts,
		Delay:       constants.DefaultRetryDelay,
		Backoff:     BackoffFixed,
		MaxDelay:    constants.DefaultMaxRetryDelay,
		Classifier:  DefaultClassifier,
	}
}

// PolicyFromConfig reads the retry section; the classifier is left to the caller.
func PolicyFromConfig(cfg config.RetryConfig) Policy {
	p := DefaultPolicy()
	p.MaxAttempts = cfg.MaxAttempts
	p.Delay = cfg.Delay
	p.Backoff = Backoff(cfg.Backoff)
	if cfg.MaxDelay > 0 {
		p.MaxDelay = cfg.MaxDelay
	}
	p.AttemptTimeout = cfg.AttemptTimeout
	return p.normalized()
}

// WithClassifier returns a copy of p using c.
func (p Policy) WithClassifier(c Classifier) Policy {
	p.Classifier = c
	return p
}

func (p Policy) normalized() Policy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.Delay < 0 {
		p.Delay = 0
	}
	if p.AttemptTimeout < 0 {
		p.AttemptTimeout = 0
	}
	if p.Backoff == "" {
		p.Backoff = BackoffFixed
	}
	if p.Classifier == nil {
		p.Classifier = DefaultClassifier
	}
	return p
}

// delayAfter returns the pause following failed attempt n (1-based).
// Exponential backoff doubles per attempt with 0.5–1.5x jitter, capped by MaxDelay.
func (p Policy) delayAfter(n int) time.Duration {
	if p.Delay <= 0 {
		return 0
	}
	if p.Backoff != BackoffExponential {
		return p.Delay
	}
	d := float64(p.Delay) * math.Pow(constants.RetryBackoffFactor, float64(n-1))
	if limit := float64(p.MaxDelay); limit > 0 && d > limit {
		d = limit
	}
	return time.Duration(d * (0.5 + rand.Float64()))
}
