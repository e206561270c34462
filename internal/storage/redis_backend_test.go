package storage

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisBackend(t *testing.T) (*RedisBackend, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Skipf("miniredis unavailable: %v", err)
	}
	t.Cleanup(mr.Close)

	rb := NewRedisBackend(mr.Addr(), "", 0, "test:")
	require.NoError(t, rb.Initialize(context.Background()))
	t.Cleanup(func() { _ = rb.Close() })
	return rb, mr
}

func TestRedisBackendSetGetDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	rb, mr := newTestRedisBackend(t)

	require.NoError(t, rb.Set(ctx, NamespaceTranscripts, "dQw4w9WgXcQ", []byte(`{"a":1}`), 0))
	assert.True(t, mr.Exists("test:transcripts:dQw4w9WgXcQ"))

	entry, err := rb.Get(ctx, NamespaceTranscripts, "dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(entry.Value))
	assert.True(t, entry.ExpiresAt.IsZero(), "ttl 0 never expires")
	assert.WithinDuration(t, time.Now(), entry.CachedAt, 5*time.Second)

	require.NoError(t, rb.Delete(ctx, NamespaceTranscripts, "dQw4w9WgXcQ"))
	_, err = rb.Get(ctx, NamespaceTranscripts, "dQw4w9WgXcQ")
	assert.True(t, IsNotFound(err))
}

func TestRedisBackendExpiry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	rb, mr := newTestRedisBackend(t)

	require.NoError(t, rb.Set(ctx, NamespaceVideos, "UC123", []byte(`[]`), time.Hour))
	entry, err := rb.Get(ctx, NamespaceVideos, "UC123")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), entry.ExpiresAt, 5*time.Second)

	mr.FastForward(2 * time.Hour)
	_, err = rb.Get(ctx, NamespaceVideos, "UC123")
	assert.True(t, IsNotFound(err))

	stats, err := rb.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.Namespaces[NamespaceVideos].Entries)
	assert.False(t, mr.Exists("test:meta:videos"), "stale meta fields are pruned")
}

func TestRedisBackendPurge(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	rb, _ := newTestRedisBackend(t)

	now := time.Now()
	rb.now = func() time.Time { return now.Add(-40 * 24 * time.Hour) }
	require.NoError(t, rb.Set(ctx, NamespaceChannels, "old", []byte(`{}`), 0))
	rb.now = func() time.Time { return now }
	require.NoError(t, rb.Set(ctx, NamespaceChannels, "new", []byte(`{}`), 0))

	removed, err := rb.Purge(ctx, NamespaceChannels, now.Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, err = rb.Get(ctx, NamespaceChannels, "old")
	assert.True(t, IsNotFound(err))
	_, err = rb.Get(ctx, NamespaceChannels, "new")
	assert.NoError(t, err)

	stats, err := rb.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, "redis", stats.Backend)
	assert.Equal(t, int64(1), stats.Total())
}

func TestRedisBackendRejectsUnknownNamespace(t *testing.T) {
	t.Parallel()
	rb, _ := newTestRedisBackend(t)
	err := rb.Set(context.Background(), Namespace("bogus"), "k", []byte("v"), 0)
	assert.Error(t, err)
}
