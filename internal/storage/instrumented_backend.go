package storage

import (
	"context"
	"time"

	"ytcollector-go/internal/monitoring"
	"ytcollector-go/internal/monitoring/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// WithInstrumentation wraps a backend with tracing and metrics instrumentation.
func WithInstrumentation(inner Backend) Backend {
	if inner == nil {
		return nil
	}
	if _, ok := inner.(*instrumentedBackend); ok {
		return inner
	}
	return &instrumentedBackend{Backend: inner, label: inner.Name()}
}

type instrumentedBackend struct {
	Backend
	label string
}

func (i *instrumentedBackend) Get(ctx context.Context, ns Namespace, key string) (Entry, error) {
	var entry Entry
	err := i.instrument(ctx, "get", ns, func(ctx context.Context) error {
		var innerErr error
		entry, innerErr = i.Backend.Get(ctx, ns, key)
		return innerErr
	})
	return entry, err
}

func (i *instrumentedBackend) Set(ctx context.Context, ns Namespace, key string, value []byte, ttl time.Duration) error {
	return i.instrument(ctx, "set", ns, func(ctx context.Context) error {
		return i.Backend.Set(ctx, ns, key, value, ttl)
	})
}

func (i *instrumentedBackend) Delete(ctx context.Context, ns Namespace, key string) error {
	return i.instrument(ctx, "delete", ns, func(ctx context.Context) error {
		return i.Backend.Delete(ctx, ns, key)
	})
}

func (i *instrumentedBackend) Purge(ctx context.Context, ns Namespace, olderThan time.Time) (int64, error) {
	var removed int64
	err := i.instrument(ctx, "purge", ns, func(ctx context.Context) error {
		var innerErr error
		removed, innerErr = i.Backend.Purge(ctx, ns, olderThan)
		return innerErr
	})
	return removed, err
}

func (i *instrumentedBackend) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	err := i.instrument(ctx, "stats", "", func(ctx context.Context) error {
		var innerErr error
		stats, innerErr = i.Backend.Stats(ctx)
		return innerErr
	})
	return stats, err
}

func (i *instrumentedBackend) instrument(ctx context.Context, operation string, ns Namespace, fn func(context.Context) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := tracing.StartSpan(ctx, "storage", i.label+"/"+operation)
	span.SetAttributes(
		attribute.String("storage.backend", i.label),
		attribute.String("storage.operation", operation),
	)
	if ns != "" {
		span.SetAttributes(attribute.String("storage.namespace", string(ns)))
	}
	start := time.Now()
	err := fn(ctx)
	duration := time.Since(start)

	result := "ok"
	switch {
	case err == nil:
		span.SetStatus(codes.Ok, "")
	case IsNotFound(err):
		// A miss is a normal outcome, not a span error.
		result = "miss"
		span.SetStatus(codes.Ok, "")
	default:
		result = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()

	monitoring.RecordCacheOperation(i.label, operation, result, duration)
	return err
}
