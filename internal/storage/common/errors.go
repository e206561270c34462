package common

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrNotFound 表示缓存未命中或条目已过期
type ErrNotFound struct {
	Key string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("not found: %s", e.Key)
}

// IsNotFound reports whether err (or anything it wraps) is an *ErrNotFound.
func IsNotFound(err error) bool {
	var nf *ErrNotFound
	return errors.As(err, &nf)
}

// MapRedisError 将 Redis 错误映射为通用错误
func MapRedisError(err error, key string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, redis.Nil) {
		return &ErrNotFound{Key: key}
	}
	return mapContextError(err)
}

// MapMongoError 将 MongoDB 错误映射为通用错误
func MapMongoError(err error, key string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return &ErrNotFound{Key: key}
	}
	return mapContextError(err)
}

func mapContextError(err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("operation canceled: %w", err)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("operation timeout: %w", err)
	default:
		return err
	}
}
