package transcript

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"ytcollector-go/internal/fetch"
	"ytcollector-go/internal/proxy"
	"ytcollector-go/internal/storage"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedProvider returns queued errors per video before succeeding.
type scriptedProvider struct {
	mu    sync.Mutex
	errs  map[string][]error
	calls map[string]int
	creds []string
	lang  string
}

func newScriptedProvider() *scriptedProvider {
	return &scriptedProvider{errs: map[string][]error{}, calls: map[string]int{}, lang: "en"}
}

func (p *scriptedProvider) Fetch(_ context.Context, cred proxy.Credential, videoID string, _ []string, _ bool) (*Transcript, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls[videoID]++
	p.creds = append(p.creds, cred.ID)
	if queue := p.errs[videoID]; len(queue) > 0 {
		p.errs[videoID] = queue[1:]
		return nil, queue[0]
	}
	return &Transcript{
		VideoID:      videoID,
		Title:        "title " + videoID,
		LanguageCode: p.lang,
		Entries:      []Entry{{Text: "hi", Start: 1, Duration: 1}},
	}, nil
}

func (p *scriptedProvider) callCount(id string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[id]
}

func testFetcher(t *testing.T, attempts int, ids ...string) *fetch.Fetcher {
	t.Helper()
	var pool *proxy.Pool
	if len(ids) > 0 {
		list := make(proxy.ListSource, 0, len(ids))
		for i, id := range ids {
			list = append(list, proxy.Credential{ID: id, Host: fmt.Sprintf("10.0.0.%d", i+1), Port: 8080})
		}
		var err error
		pool, err = proxy.NewPool(proxy.Options{Source: list})
		require.NoError(t, err)
	}
	return fetch.New(pool, fetch.Policy{MaxAttempts: attempts})
}

func testStore(t *testing.T) (*storage.Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Skipf("miniredis unavailable: %v", err)
	}
	t.Cleanup(mr.Close)
	backend := storage.NewRedisBackend(mr.Addr(), "", 0, "test:")
	require.NoError(t, backend.Initialize(context.Background()))
	store := storage.NewStore(backend)
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func TestServiceGetRetriesTransientThenCaches(t *testing.T) {
	ctx := context.Background()
	provider := newScriptedProvider()
	provider.errs[testVideoID] = []error{ErrRequestBlocked, &StatusError{Stage: "player", Code: 503}}
	store, mr := testStore(t)

	svc := NewService(provider, testFetcher(t, 5, "A", "B", "C"), WithCache(store))
	res, err := svc.Get(ctx, testVideoID, Options{})
	require.NoError(t, err)
	assert.False(t, res.Cached)
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, []string{"A", "B", "C"}, res.Proxies)
	assert.True(t, mr.Exists("test:transcripts:"+testVideoID))
	assert.Zero(t, mr.TTL("test:transcripts:"+testVideoID), "transcripts never expire")

	res, err = svc.Get(ctx, testVideoID, Options{})
	require.NoError(t, err)
	assert.True(t, res.Cached)
	assert.Equal(t, 0, res.Attempts)
	assert.Equal(t, 3, provider.callCount(testVideoID), "a cache hit never reaches the provider")
}

func TestServiceTerminalErrorStopsImmediately(t *testing.T) {
	provider := newScriptedProvider()
	provider.errs[testVideoID] = []error{fmt.Errorf("%w: private", ErrVideoUnavailable)}

	svc := NewService(provider, testFetcher(t, 5, "A", "B"))
	_, err := svc.Get(context.Background(), testVideoID, Options{})
	var te *fetch.TerminalError
	require.ErrorAs(t, err, &te)
	assert.ErrorIs(t, err, ErrVideoUnavailable)
	assert.Equal(t, 1, provider.callCount(testVideoID))
}

func TestServiceExhaustion(t *testing.T) {
	provider := newScriptedProvider()
	provider.errs[testVideoID] = []error{ErrRequestBlocked, ErrRequestBlocked, ErrRequestBlocked}

	svc := NewService(provider, testFetcher(t, 2, "A"))
	_, err := svc.Get(context.Background(), testVideoID, Options{})
	var ee *fetch.ExhaustedError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, 2, ee.Attempts)
	assert.ErrorIs(t, err, ErrRequestBlocked)
}

func TestServiceEmptyPoolFailsClosed(t *testing.T) {
	provider := newScriptedProvider()
	pool, err := proxy.NewPool(proxy.Options{Source: proxy.ListSource{}})
	require.NoError(t, err)

	svc := NewService(provider, fetch.New(pool, fetch.DefaultPolicy()))
	_, err = svc.Get(context.Background(), testVideoID, Options{})
	assert.ErrorIs(t, err, proxy.ErrEmpty)
	assert.Zero(t, provider.callCount(testVideoID))
}

func TestServiceInvalidVideoID(t *testing.T) {
	svc := NewService(newScriptedProvider(), testFetcher(t, 1))
	_, err := svc.Get(context.Background(), "bad", Options{})
	assert.ErrorIs(t, err, ErrInvalidVideoID)
	var te *fetch.TerminalError
	assert.ErrorAs(t, err, &te)
}

func TestServiceStrictLanguageBypassesMismatchedCache(t *testing.T) {
	ctx := context.Background()
	provider := newScriptedProvider()
	store, _ := testStore(t)
	svc := NewService(provider, testFetcher(t, 1), WithCache(store))

	_, err := svc.Get(ctx, testVideoID, Options{})
	require.NoError(t, err)

	provider.lang = "bn"
	res, err := svc.Get(ctx, testVideoID, Options{Languages: []string{"bn"}, Strict: true})
	require.NoError(t, err)
	assert.False(t, res.Cached)
	assert.Equal(t, "bn", res.Transcript.LanguageCode)

	res, err = svc.Get(ctx, testVideoID, Options{SkipCache: true})
	require.NoError(t, err)
	assert.False(t, res.Cached)
	assert.Equal(t, 3, provider.callCount(testVideoID))
}

func TestServiceGetAndFormat(t *testing.T) {
	svc := NewService(newScriptedProvider(), testFetcher(t, 1))

	out, err := svc.GetAndFormat(context.Background(), testVideoID, "My Title", Options{}, FormatTimestamped)
	require.NoError(t, err)
	assert.Equal(t, "[00:01] hi", out.Text)
	assert.Equal(t, "My Title", out.Document.VideoTitle)

	out, err = svc.GetAndFormat(context.Background(), testVideoID, "", Options{}, FormatJSON)
	require.NoError(t, err)
	var doc Document
	require.NoError(t, json.Unmarshal([]byte(out.Text), &doc))
	assert.Equal(t, "title "+testVideoID, doc.VideoTitle)
	assert.Equal(t, testVideoID, doc.VideoID)
}

func TestServiceFetchManyKeepsOrderAndIsolatesFailures(t *testing.T) {
	provider := newScriptedProvider()
	ids := []string{"aaaaaaaaaaa", "bbbbbbbbbbb", "ccccccccccc", "ddddddddddd"}
	provider.errs["ccccccccccc"] = []error{ErrTranscriptsDisabled}

	svc := NewService(provider, testFetcher(t, 2, "A", "B"), WithConcurrency(2))
	items := svc.FetchMany(context.Background(), ids, Options{})
	require.Len(t, items, len(ids))
	for i, item := range items {
		assert.Equal(t, ids[i], item.VideoID)
	}
	assert.NoError(t, items[0].Err)
	assert.NoError(t, items[1].Err)
	assert.True(t, errors.Is(items[2].Err, ErrTranscriptsDisabled))
	assert.Nil(t, items[2].Result)
	assert.NoError(t, items[3].Err)
}

func TestServiceLanguagesDefault(t *testing.T) {
	plain := NewService(newScriptedProvider(), testFetcher(t, 1))
	assert.Equal(t, []string{"bn", "en", "hi"}, plain.Languages())

	svc := NewService(newScriptedProvider(), testFetcher(t, 1), WithLanguages([]string{"bn", "en"}, true))
	assert.Equal(t, []string{"bn", "en"}, svc.Languages())
	langs, strict := svc.resolve(Options{})
	assert.Equal(t, []string{"bn", "en"}, langs)
	assert.True(t, strict)
}
