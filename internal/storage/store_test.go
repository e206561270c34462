package storage

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"ytcollector-go/internal/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryBackend is an in-process Backend for Store tests.
type memoryBackend struct {
	mu      sync.Mutex
	entries map[string]Entry
	ttls    map[string]time.Duration
	getErr  error
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{entries: map[string]Entry{}, ttls: map[string]time.Duration{}}
}

func (m *memoryBackend) Initialize(context.Context) error { return nil }
func (m *memoryBackend) Close() error                     { return nil }
func (m *memoryBackend) Health(context.Context) error     { return nil }
func (m *memoryBackend) Name() string                     { return "memory" }

func (m *memoryBackend) Get(_ context.Context, ns Namespace, key string) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return Entry{}, m.getErr
	}
	e, ok := m.entries[entryKey(ns, key)]
	if !ok {
		return Entry{}, &ErrNotFound{Key: entryKey(ns, key)}
	}
	return e, nil
}

func (m *memoryBackend) Set(_ context.Context, ns Namespace, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := Entry{Value: value, CachedAt: time.Now()}
	if ttl > 0 {
		e.ExpiresAt = e.CachedAt.Add(ttl)
	}
	m.entries[entryKey(ns, key)] = e
	m.ttls[entryKey(ns, key)] = ttl
	return nil
}

func (m *memoryBackend) Delete(_ context.Context, ns Namespace, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, entryKey(ns, key))
	return nil
}

func (m *memoryBackend) Purge(_ context.Context, ns Namespace, olderThan time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k, e := range m.entries {
		if strings.HasPrefix(k, string(ns)+":") && e.CachedAt.Before(olderThan) {
			delete(m.entries, k)
			n++
		}
	}
	return n, nil
}

func (m *memoryBackend) Stats(context.Context) (Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{Backend: "memory", Namespaces: map[Namespace]NamespaceStats{
		NamespaceChannels: {Entries: int64(len(m.entries))},
	}}, nil
}

type channelDoc struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func TestStoreSaveUsesNamespaceTTL(t *testing.T) {
	ctx := context.Background()
	mem := newMemoryBackend()
	store := NewStore(mem)

	require.NoError(t, store.Save(ctx, NamespaceChannels, "UC1", channelDoc{ID: "UC1", Title: "One"}))
	require.NoError(t, store.Save(ctx, NamespaceVideos, "UC1", []string{"v1"}))
	require.NoError(t, store.Save(ctx, NamespaceTranscripts, "vid", map[string]string{"x": "y"}))

	assert.Equal(t, 7*24*time.Hour, mem.ttls["channels:UC1"])
	assert.Equal(t, 24*time.Hour, mem.ttls["videos:UC1"])
	assert.Equal(t, time.Duration(0), mem.ttls["transcripts:vid"])

	var got channelDoc
	hit, err := store.Load(ctx, NamespaceChannels, "UC1", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "One", got.Title)
}

func TestStoreLoadMissAndExpired(t *testing.T) {
	ctx := context.Background()
	mem := newMemoryBackend()
	store := NewStore(mem)

	var got channelDoc
	hit, err := store.Load(ctx, NamespaceChannels, "missing", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	mem.entries["channels:old"] = Entry{Value: []byte(`{"id":"old"}`), ExpiresAt: time.Now().Add(-time.Minute)}
	hit, err = store.Load(ctx, NamespaceChannels, "old", &got)
	require.NoError(t, err)
	assert.False(t, hit, "expired entries are misses even if the backend returns them")
}

func TestStoreLoadDropsUndecodableEntry(t *testing.T) {
	ctx := context.Background()
	mem := newMemoryBackend()
	store := NewStore(mem)
	mem.entries["channels:bad"] = Entry{Value: []byte("not json")}

	var got channelDoc
	hit, err := store.Load(ctx, NamespaceChannels, "bad", &got)
	require.NoError(t, err)
	assert.False(t, hit)
	_, present := mem.entries["channels:bad"]
	assert.False(t, present)
}

func TestStoreLoadPropagatesBackendError(t *testing.T) {
	mem := newMemoryBackend()
	mem.getErr = errors.New("connection refused")
	store := NewStore(mem)

	var got channelDoc
	hit, err := store.Load(context.Background(), NamespaceChannels, "x", &got)
	assert.False(t, hit)
	assert.ErrorContains(t, err, "connection refused")
}

func TestNilStoreAlwaysMisses(t *testing.T) {
	ctx := context.Background()
	var store *Store

	assert.False(t, store.Enabled())
	require.NoError(t, store.Save(ctx, NamespaceChannels, "k", "v"))
	hit, err := store.Load(ctx, NamespaceChannels, "k", new(string))
	require.NoError(t, err)
	assert.False(t, hit)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, "disabled", stats.Backend)

	res, err := store.PurgeOlderThan(ctx, 0)
	require.NoError(t, err)
	assert.Zero(t, res.Total())
	require.NoError(t, store.Close())
}

func TestStorePurgeOlderThanPublishes(t *testing.T) {
	ctx := context.Background()
	mem := newMemoryBackend()
	hub := events.NewHub()
	var got []events.Event
	hub.Subscribe(events.TopicCachePurged, func(_ context.Context, ev events.Event) {
		got = append(got, ev)
	})
	store := NewStore(mem, WithPublisher(hub))

	mem.entries["channels:a"] = Entry{Value: []byte(`{}`), CachedAt: time.Now().Add(-45 * 24 * time.Hour)}
	mem.entries["channels:b"] = Entry{Value: []byte(`{}`), CachedAt: time.Now()}
	mem.entries["videos:a"] = Entry{Value: []byte(`[]`), CachedAt: time.Now().Add(-31 * 24 * time.Hour)}

	res, err := store.PurgeOlderThan(ctx, 30*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Removed[NamespaceChannels])
	assert.Equal(t, int64(1), res.Removed[NamespaceVideos])
	assert.Equal(t, int64(2), res.Total())
	require.Len(t, got, 1)
}

func TestStoreWithTTLOverride(t *testing.T) {
	store := NewStore(newMemoryBackend(), WithTTL(NamespaceTranscripts, time.Hour))
	assert.Equal(t, time.Hour, store.TTL(NamespaceTranscripts))
	assert.Equal(t, 7*24*time.Hour, store.TTL(NamespaceChannels))
}
