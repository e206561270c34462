package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"ytcollector-go/internal/config"
	"ytcollector-go/internal/storage"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testChannelID = "UC0123456789abcdefghijkl"

// fakeDataAPI serves search, channels and playlistItems for one channel with
// total uploads split into pages.
type fakeDataAPI struct {
	total         int
	channelCalls  atomic.Int32
	playlistCalls atomic.Int32
	quota         bool
}

func (f *fakeDataAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("key") != "test-key" {
		http.Error(w, `{"error":{"code":400,"message":"API key not valid"}}`, http.StatusBadRequest)
		return
	}
	if f.quota {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"quota","errors":[{"reason":"quotaExceeded","domain":"youtube.quota"}]}}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/youtube/v3/search":
		_ = json.NewEncoder(w).Encode(map[string]any{
			"items": []any{map[string]any{
				"id": map[string]any{"kind": "youtube#channel", "channelId": testChannelID},
				"snippet": map[string]any{
					"channelId":    testChannelID,
					"channelTitle": "Test Channel " + q.Get("q"),
					"description":  "about",
					"thumbnails":   map[string]any{"default": map[string]any{"url": "https://img/default.jpg"}},
				},
			}},
		})
	case "/youtube/v3/channels":
		f.channelCalls.Add(1)
		if q.Get("id") != testChannelID {
			_ = json.NewEncoder(w).Encode(map[string]any{"items": []any{}})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"items": []any{map[string]any{
				"id":      testChannelID,
				"snippet": map[string]any{"title": "Test Channel", "description": "desc"},
				"statistics": map[string]any{
					"subscriberCount": "1200",
					"videoCount":      strconv.Itoa(f.total),
				},
				"contentDetails": map[string]any{"relatedPlaylists": map[string]any{"uploads": "UU0123456789abcdefghijkl"}},
			}},
		})
	case "/youtube/v3/playlistItems":
		f.playlistCalls.Add(1)
		size, _ := strconv.Atoi(q.Get("maxResults"))
		offset, _ := strconv.Atoi(q.Get("pageToken"))
		var items []any
		for i := offset; i < offset+size && i < f.total; i++ {
			items = append(items, map[string]any{"snippet": map[string]any{
				"title":       fmt.Sprintf("video %d", i),
				"description": strings.Repeat("x", 250),
				"publishedAt": "2024-01-01T00:00:00Z",
				"resourceId":  map[string]any{"kind": "youtube#video", "videoId": fmt.Sprintf("vid%08d", i)},
			}})
		}
		resp := map[string]any{"items": items}
		if offset+size < f.total {
			resp["nextPageToken"] = strconv.Itoa(offset + size)
		}
		_ = json.NewEncoder(w).Encode(resp)
	default:
		http.NotFound(w, r)
	}
}

func newTestClient(t *testing.T, api *fakeDataAPI, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	opts = append([]Option{WithPageDelay(0)}, opts...)
	c, err := NewClient(context.Background(), config.YouTubeConfig{APIKey: "test-key", Endpoint: srv.URL + "/"}, opts...)
	require.NoError(t, err)
	return c
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(context.Background(), config.YouTubeConfig{})
	assert.ErrorIs(t, err, ErrAPIKeyMissing)
}

func TestSearchChannels(t *testing.T) {
	c := newTestClient(t, &fakeDataAPI{})
	hits, err := c.SearchChannels(context.Background(), "news", 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, testChannelID, hits[0].ChannelID)
	assert.Equal(t, "Test Channel news", hits[0].Title)
	assert.Equal(t, "https://img/default.jpg", hits[0].Thumbnail)
}

func TestGetChannelInfo(t *testing.T) {
	c := newTestClient(t, &fakeDataAPI{total: 3})
	info, err := c.GetChannelInfo(context.Background(), testChannelID)
	require.NoError(t, err)
	assert.Equal(t, "Test Channel", info.Title)
	assert.Equal(t, uint64(1200), info.SubscriberCount)
	assert.Equal(t, uint64(3), info.VideoCount)
	assert.Equal(t, "UU0123456789abcdefghijkl", info.UploadsPlaylist)

	_, err = c.GetChannelInfo(context.Background(), "UCdoesnotexistdoesnotexi")
	assert.ErrorIs(t, err, ErrChannelNotFound)
}

func TestGetChannelVideosPagesAndTruncates(t *testing.T) {
	api := &fakeDataAPI{total: 120}
	c := newTestClient(t, api)

	videos, err := c.GetChannelVideos(context.Background(), testChannelID, 110)
	require.NoError(t, err)
	require.Len(t, videos, 110)
	assert.Equal(t, int32(3), api.playlistCalls.Load(), "50 + 50 + 10")
	assert.Equal(t, "vid00000000", videos[0].VideoID)
	assert.Equal(t, "vid00000109", videos[109].VideoID)
	assert.Equal(t, strings.Repeat("x", 200)+"...", videos[0].Description)
}

func TestGetChannelVideosStopsAtPlaylistEnd(t *testing.T) {
	api := &fakeDataAPI{total: 7}
	c := newTestClient(t, api)
	videos, err := c.GetChannelVideos(context.Background(), testChannelID, 50)
	require.NoError(t, err)
	assert.Len(t, videos, 7)
	assert.Equal(t, int32(1), api.playlistCalls.Load())
}

func TestGetChannelVideosUsesCache(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Skipf("miniredis unavailable: %v", err)
	}
	t.Cleanup(mr.Close)
	backend := storage.NewRedisBackend(mr.Addr(), "", 0, "yt:")
	require.NoError(t, backend.Initialize(context.Background()))
	store := storage.NewStore(backend)

	api := &fakeDataAPI{total: 7}
	c := newTestClient(t, api, WithCache(store))

	_, err = c.GetChannelVideos(context.Background(), testChannelID, 50)
	require.NoError(t, err)
	videos, err := c.GetChannelVideos(context.Background(), testChannelID, 5)
	require.NoError(t, err)
	assert.Len(t, videos, 5)
	assert.Equal(t, int32(1), api.playlistCalls.Load(), "second call served from cache")
	assert.Equal(t, int32(1), api.channelCalls.Load())

	assert.InDelta(t, (24 * time.Hour).Seconds(), mr.TTL("yt:videos:"+testChannelID).Seconds(), 5)
	assert.InDelta(t, (7 * 24 * time.Hour).Seconds(), mr.TTL("yt:channels:"+testChannelID).Seconds(), 5)
}

func TestQuotaExceeded(t *testing.T) {
	c := newTestClient(t, &fakeDataAPI{quota: true})
	_, err := c.SearchChannels(context.Background(), "x", 1)
	assert.ErrorIs(t, err, ErrQuotaExceeded)
}

func TestTruncateDescription(t *testing.T) {
	assert.Equal(t, "short", TruncateDescription("short"))
	long := strings.Repeat("অ", 201)
	got := TruncateDescription(long)
	assert.Equal(t, strings.Repeat("অ", 200)+"...", got)
}
