package constants

import "time"

// 重试策略常量
const (
	DefaultMaxAttempts   = 5
	DefaultRetryDelay    = 1 * time.Second
	DefaultMaxRetryDelay = 30 * time.Second
	RetryBackoffFactor   = 2.0

	// 单次尝试超时（0 表示不限制）
	DefaultAttemptTimeout = 30 * time.Second
)

// 批量抓取配置
const (
	DefaultBatchConcurrency = 4
	MaxBatchSize            = 50
)
