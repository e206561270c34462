package storage

import (
	"context"
	"testing"

	"ytcollector-go/internal/config"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenDisabledReturnsNilStore(t *testing.T) {
	store, err := Open(context.Background(), config.CacheConfig{Enabled: false}, nil)
	require.NoError(t, err)
	assert.Nil(t, store)
	assert.False(t, store.Enabled())
}

func TestNewBackendUnsupported(t *testing.T) {
	_, err := NewBackend(context.Background(), config.CacheConfig{Enabled: true, Backend: "sqlite"})
	assert.ErrorContains(t, err, "unsupported cache backend")
}

func TestOpenRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Skipf("miniredis unavailable: %v", err)
	}
	t.Cleanup(mr.Close)

	store, err := Open(context.Background(), config.CacheConfig{
		Enabled:     true,
		Backend:     "redis",
		RedisAddr:   mr.Addr(),
		RedisPrefix: "ytc:",
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	assert.True(t, store.Enabled())
	assert.Equal(t, "redis", store.Backend().Name())
	require.NoError(t, store.Save(context.Background(), NamespaceChannels, "UC1", map[string]string{"title": "x"}))
	assert.True(t, mr.Exists("ytc:channels:UC1"))
}
