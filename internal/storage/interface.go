package storage

import (
	"context"
	"errors"
	"time"

	storagecommon "ytcollector-go/internal/storage/common"
)

// Namespace partitions cached entries. Each backend maps a namespace to its own
// collection (MongoDB) or key prefix (Redis).
type Namespace string

const (
	NamespaceChannels    Namespace = "channels"
	NamespaceVideos      Namespace = "videos"
	NamespaceTranscripts Namespace = "transcripts"
)

// Namespaces lists every namespace the collector writes to.
var Namespaces = []Namespace{NamespaceChannels, NamespaceVideos, NamespaceTranscripts}

// Entry is a cached value together with its bookkeeping timestamps.
// A zero ExpiresAt means the entry never expires.
type Entry struct {
	Value     []byte
	CachedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the entry is past its expiry at now.
func (e Entry) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && !now.Before(e.ExpiresAt)
}

// Backend defines the interface for cache implementations
type Backend interface {
	// Initialize connects and prepares indexes.
	Initialize(ctx context.Context) error

	// Close releases the connection.
	Close() error

	// Health checks if the backend is reachable.
	Health(ctx context.Context) error

	// Name is the backend label used in metrics.
	Name() string

	Get(ctx context.Context, ns Namespace, key string) (Entry, error)
	// Set stores value; ttl <= 0 means no expiry.
	Set(ctx context.Context, ns Namespace, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, ns Namespace, key string) error

	// Purge removes entries cached before olderThan and returns how many were removed.
	Purge(ctx context.Context, ns Namespace, olderThan time.Time) (int64, error)

	Stats(ctx context.Context) (Stats, error)
}

// Stats summarizes backend contents.
type Stats struct {
	Backend    string                       `json:"backend"`
	Namespaces map[Namespace]NamespaceStats `json:"namespaces"`
}

// NamespaceStats counts entries in one namespace.
type NamespaceStats struct {
	Entries int64 `json:"entries"`
	// Expired counts entries past expiry that the backend has not reaped yet.
	Expired int64 `json:"expired"`
}

// Total sums entries across namespaces.
func (s Stats) Total() int64 {
	var n int64
	for _, ns := range s.Namespaces {
		n += ns.Entries
	}
	return n
}

// ErrNotFound is returned when a key is missing or expired.
type ErrNotFound = storagecommon.ErrNotFound

// ErrCacheDisabled is returned by NewBackend when caching is turned off.
var ErrCacheDisabled = errors.New("cache disabled")

// IsNotFound reports whether err is a cache miss.
func IsNotFound(err error) bool {
	return storagecommon.IsNotFound(err)
}

func validNamespace(ns Namespace) bool {
	for _, known := range Namespaces {
		if ns == known {
			return true
		}
	}
	return false
}

func entryKey(ns Namespace, key string) string {
	return string(ns) + ":" + key
}
