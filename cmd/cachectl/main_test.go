package main

import (
	"bytes"
	"context"
	"testing"

	"ytcollector-go/internal/config"
	"ytcollector-go/internal/storage"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) (*storage.Store, *config.Config) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Skipf("miniredis unavailable: %v", err)
	}
	t.Cleanup(mr.Close)
	cfg := config.Default()
	cfg.Cache.Backend = "redis"
	cfg.Cache.RedisAddr = mr.Addr()
	store, err := storage.Open(context.Background(), cfg.Cache, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, cfg
}

func TestRunCommands(t *testing.T) {
	store, cfg := testStore(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, storage.NamespaceVideos, "UC1", []string{"a"}))

	var out bytes.Buffer
	require.NoError(t, run(ctx, &out, store, cfg, []string{"stats"}))
	assert.Contains(t, out.String(), "backend: redis")
	assert.Contains(t, out.String(), "total: 1")

	out.Reset()
	require.NoError(t, run(ctx, &out, store, cfg, []string{"purge", "-days", "7"}))
	assert.Contains(t, out.String(), `"total": 0`)

	out.Reset()
	require.NoError(t, run(ctx, &out, store, cfg, []string{"check"}))
	assert.Contains(t, out.String(), "ok: redis reachable")
}

func TestRunRejectsBadInput(t *testing.T) {
	store, cfg := testStore(t)
	ctx := context.Background()
	var out bytes.Buffer

	assert.Error(t, run(ctx, &out, store, cfg, []string{"vacuum"}))
	assert.Error(t, run(ctx, &out, store, cfg, []string{"purge", "-days", "0"}))
}
