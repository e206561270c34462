package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ytcollector-go/internal/constants"
	"ytcollector-go/internal/events"

	log "github.com/sirupsen/logrus"
)

// Store is the typed cache used by the services. Values are JSON encoded and
// written with the TTL configured for their namespace. A nil *Store behaves as
// a cache that always misses, so callers never need to branch on whether
// caching is enabled.
type Store struct {
	backend   Backend
	ttls      map[Namespace]time.Duration
	publisher events.Publisher
	now       func() time.Time
}

// StoreOption customizes a Store.
type StoreOption func(*Store)

// WithTTL overrides the expiry used for a namespace. ttl <= 0 disables expiry.
func WithTTL(ns Namespace, ttl time.Duration) StoreOption {
	return func(s *Store) { s.ttls[ns] = ttl }
}

// WithPublisher emits cache.purged events on the hub.
func WithPublisher(p events.Publisher) StoreOption {
	return func(s *Store) { s.publisher = p }
}

// DefaultTTLs returns the per-namespace expiry: channels a week, video lists a
// day, transcripts forever.
func DefaultTTLs() map[Namespace]time.Duration {
	return map[Namespace]time.Duration{
		NamespaceChannels:    constants.ChannelCacheTTL,
		NamespaceVideos:      constants.VideoCacheTTL,
		NamespaceTranscripts: constants.TranscriptCacheTTL,
	}
}

// NewStore wraps an initialized backend.
func NewStore(backend Backend, opts ...StoreOption) *Store {
	s := &Store{backend: backend, ttls: DefaultTTLs(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enabled reports whether the store is backed by a real backend.
func (s *Store) Enabled() bool { return s != nil && s.backend != nil }

// Backend exposes the underlying backend.
func (s *Store) Backend() Backend {
	if s == nil {
		return nil
	}
	return s.backend
}

// TTL returns the expiry used for ns.
func (s *Store) TTL(ns Namespace) time.Duration {
	if s == nil {
		return DefaultTTLs()[ns]
	}
	return s.ttls[ns]
}

// Load decodes the cached value for key into dst. It returns false on a miss.
// Entries that no longer decode are dropped and reported as a miss.
func (s *Store) Load(ctx context.Context, ns Namespace, key string, dst any) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	entry, err := s.backend.Get(ctx, ns, key)
	if err != nil {
		if IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("cache get %s: %w", entryKey(ns, key), err)
	}
	if entry.Expired(s.now()) {
		return false, nil
	}
	if err := json.Unmarshal(entry.Value, dst); err != nil {
		log.WithFields(log.Fields{"namespace": ns, "key": key}).WithError(err).Warn("dropping undecodable cache entry")
		_ = s.backend.Delete(ctx, ns, key)
		return false, nil
	}
	return true, nil
}

// Save encodes v and stores it under key with the namespace TTL.
func (s *Store) Save(ctx context.Context, ns Namespace, key string, v any) error {
	if !s.Enabled() {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", entryKey(ns, key), err)
	}
	if err := s.backend.Set(ctx, ns, key, data, s.ttls[ns]); err != nil {
		return fmt.Errorf("cache set %s: %w", entryKey(ns, key), err)
	}
	return nil
}

// Delete removes key from ns.
func (s *Store) Delete(ctx context.Context, ns Namespace, key string) error {
	if !s.Enabled() {
		return nil
	}
	return s.backend.Delete(ctx, ns, key)
}

// PurgeResult reports how many entries each namespace lost.
type PurgeResult struct {
	Cutoff  time.Time           `json:"cutoff"`
	Removed map[Namespace]int64 `json:"removed"`
}

// Total sums removed entries across namespaces.
func (r PurgeResult) Total() int64 {
	var n int64
	for _, v := range r.Removed {
		n += v
	}
	return n
}

// PurgeOlderThan removes entries cached more than age ago from every namespace.
// age <= 0 falls back to constants.DefaultPurgeAge.
func (s *Store) PurgeOlderThan(ctx context.Context, age time.Duration) (PurgeResult, error) {
	if age <= 0 {
		age = constants.DefaultPurgeAge
	}
	result := PurgeResult{Cutoff: s.clock().Add(-age), Removed: make(map[Namespace]int64, len(Namespaces))}
	if !s.Enabled() {
		return result, nil
	}
	for _, ns := range Namespaces {
		n, err := s.backend.Purge(ctx, ns, result.Cutoff)
		if err != nil {
			return result, fmt.Errorf("purge %s: %w", ns, err)
		}
		result.Removed[ns] = n
	}
	log.WithFields(log.Fields{
		"cutoff":  result.Cutoff.Format(time.RFC3339),
		"removed": result.Total(),
	}).Info("cache purged")
	if s.publisher != nil {
		s.publisher.Publish(ctx, events.TopicCachePurged, result, nil)
	}
	return result, nil
}

// Stats reports backend contents.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	if !s.Enabled() {
		return Stats{Backend: "disabled", Namespaces: map[Namespace]NamespaceStats{}}, nil
	}
	return s.backend.Stats(ctx)
}

// Health pings the backend.
func (s *Store) Health(ctx context.Context) error {
	if !s.Enabled() {
		return nil
	}
	return s.backend.Health(ctx)
}

// Close releases the backend.
func (s *Store) Close() error {
	if !s.Enabled() {
		return nil
	}
	return s.backend.Close()
}

func (s *Store) clock() time.Time {
	if s == nil || s.now == nil {
		return time.Now()
	}
	return s.now()
}
