package fetch

import (
	"context"
	"errors"
	"strconv"
	"time"

	"ytcollector-go/internal/events"
	"ytcollector-go/internal/monitoring"
	"ytcollector-go/internal/monitoring/tracing"
	"ytcollector-go/internal/proxy"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// Selector hands out one credential per attempt. *proxy.Pool implements it.
type Selector interface {
	Select(ctx context.Context) (proxy.Credential, error)
}

// Operation performs one attempt through the given credential. A zero
// credential means connect directly.
type Operation[T any] func(ctx context.Context, cred proxy.Credential) (T, error)

// Fetcher runs operations under a retry policy, drawing a new credential
// for every attempt. Fetchers are safe for concurrent use.
type Fetcher struct {
	pool      Selector
	policy    Policy
	publisher events.Publisher
	sleep     func(context.Context, time.Duration) error
}

// Option customizes a Fetcher.
type Option func(*Fetcher)

// WithPublisher emits fetch.completed events.
func WithPublisher(p events.Publisher) Option {
	return func(f *Fetcher) { f.publisher = p }
}

// New builds a Fetcher. A nil pool runs every attempt without a proxy.
func New(pool Selector, policy Policy, opts ...Option) *Fetcher {
	if isNil(pool) {
		pool = nil
	}
	f := &Fetcher{pool: pool, policy: policy.normalized(), sleep: sleepCtx}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Policy returns the effective policy.
func (f *Fetcher) Policy() Policy { return f.policy }

// Proxied reports whether attempts go through a credential pool.
func (f *Fetcher) Proxied() bool { return f.pool != nil }

// Do runs op until it succeeds, fails terminally, runs out of attempts, the
// pool cannot supply a credential, or ctx is canceled. Attempts are strictly
// sequential; only the calling goroutine waits between them.
func Do[T any](ctx context.Context, f *Fetcher, name string, op Operation[T]) (res Result[T]) {
	started := time.Now()
	ctx, span := tracing.StartSpan(ctx, "fetch", "fetch.run")
	span.SetAttributes(attribute.String("fetch.operation", name))
	defer func() {
		res.Elapsed = time.Since(started)
		span.SetAttributes(
			attribute.String("fetch.outcome", res.Outcome.String()),
			attribute.Int("fetch.attempts", res.Attempts),
		)
		tracing.EndSpan(span, res.Err)
		monitoring.FetchOutcomes.WithLabelValues(name, res.Outcome.String()).Inc()
		monitoring.FetchDuration.WithLabelValues(name).Observe(res.Elapsed.Seconds())
		f.publish(ctx, name, res.Outcome, res.Attempts, res.Err)
	}()

	p := f.policy
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			res.Outcome, res.Err = Canceled, err
			return res
		}

		cred, err := f.selectCredential(ctx)
		if err != nil {
			res.Outcome, res.Err = PoolFailure, err
			return res
		}
		res.Attempts = attempt
		res.Credentials = append(res.Credentials, cred.ID)

		value, err := runAttempt(ctx, f, name, attempt, cred, op)
		if err == nil {
			res.Outcome, res.Value, res.Err = Succeeded, value, nil
			return res
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			res.Outcome, res.Err = Canceled, ctxErr
			return res
		}

		class := classify(p, err)
		entry := log.WithFields(log.Fields{
			"operation": name,
			"attempt":   attempt,
			"max":       p.MaxAttempts,
			"proxy":     cred.Redacted(),
			"reason":    Reason(err),
			"class":     class.String(),
		}).WithError(err)

		if class == Terminal {
			entry.Info("fetch failed terminally")
			res.Outcome, res.Err = TerminalFailure, MarkTerminal(err)
			return res
		}
		if attempt >= p.MaxAttempts {
			entry.Warn("fetch attempts exhausted")
			res.Outcome, res.Err = Exhausted, &ExhaustedError{Last: err, Attempts: attempt}
			return res
		}
		entry.Warn("fetch attempt failed, retrying")

		if err := f.sleep(ctx, p.delayAfter(attempt)); err != nil {
			res.Outcome, res.Err = Canceled, err
			return res
		}
	}
}

func runAttempt[T any](ctx context.Context, f *Fetcher, name string, attempt int, cred proxy.Credential, op Operation[T]) (T, error) {
	attemptCtx, span := tracing.StartSpan(ctx, "fetch", "fetch.attempt")
	span.SetAttributes(
		attribute.Int("fetch.attempt", attempt),
		attribute.String("proxy.id", cred.ID),
	)
	cancel := func() {}
	if t := f.policy.AttemptTimeout; t > 0 {
		attemptCtx, cancel = context.WithTimeout(attemptCtx, t)
	}
	value, err := op(attemptCtx, cred)
	if err != nil && ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		err = &AttemptTimeoutError{Attempt: attempt, Err: err}
	}
	cancel()

	label := "ok"
	if err != nil {
		label = classify(f.policy, err).String()
	}
	monitoring.FetchAttempts.WithLabelValues(name, label).Inc()
	tracing.EndSpan(span, err)
	return value, err
}

// classify keeps per-attempt timeouts transient whatever the classifier says.
func classify(p Policy, err error) Class {
	var ate *AttemptTimeoutError
	if errors.As(err, &ate) {
		return Transient
	}
	return p.Classifier(err)
}

func (f *Fetcher) selectCredential(ctx context.Context) (proxy.Credential, error) {
	if f.pool == nil {
		return proxy.Credential{}, nil
	}
	return f.pool.Select(ctx)
}

func (f *Fetcher) publish(ctx context.Context, name string, outcome Outcome, attempts int, err error) {
	if f.publisher == nil {
		return
	}
	meta := map[string]string{
		"operation": name,
		"outcome":   outcome.String(),
		"attempts":  strconv.Itoa(attempts),
	}
	if err != nil {
		meta["reason"] = Reason(err)
	}
	f.publisher.Publish(context.WithoutCancel(ctx), events.TopicFetchCompleted, nil, meta)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// isNil also catches a nil *proxy.Pool stored in the interface, which is what
// callers get when proxying is disabled in config.
func isNil(s Selector) bool {
	if s == nil {
		return true
	}
	p, ok := s.(*proxy.Pool)
	return ok && p == nil
}
