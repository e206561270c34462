package common

import (
	"context"
	"time"

	"ytcollector-go/internal/constants"
)

// WithStorageTimeout adds a timeout to ctx unless it already carries a deadline.
func WithStorageTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout <= 0 {
		timeout = constants.StorageOperationTimeout
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

// WithStorageTimeoutDefault applies constants.StorageOperationTimeout.
func WithStorageTimeoutDefault(ctx context.Context) (context.Context, context.CancelFunc) {
	return WithStorageTimeout(ctx, constants.StorageOperationTimeout)
}
