package channels

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"ytcollector-go/internal/catalog"
	"ytcollector-go/internal/config"
	"ytcollector-go/internal/youtube"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const channelID = "UCabcdefghijklmnopqrstuv"

// dataAPI answers the three Data API endpoints the client uses.
func dataAPI(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		q := r.URL.Query()
		switch r.URL.Path {
		case "/youtube/v3/search":
			items := []any{}
			if q.Get("q") != "nothing" {
				items = append(items, map[string]any{
					"id":      map[string]any{"kind": "youtube#channel", "channelId": channelID},
					"snippet": map[string]any{"channelId": channelID, "channelTitle": "Somoy TV", "title": "Somoy TV"},
				})
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"items": items})
		case "/youtube/v3/channels":
			items := []any{}
			if q.Get("id") == channelID {
				items = append(items, map[string]any{
					"id":             channelID,
					"snippet":        map[string]any{"title": "Somoy TV", "description": "news"},
					"statistics":     map[string]any{"subscriberCount": "1000", "videoCount": "3"},
					"contentDetails": map[string]any{"relatedPlaylists": map[string]any{"uploads": "UUabcdefghijklmnopqrstuv"}},
				})
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"items": items})
		case "/youtube/v3/playlistItems":
			items := []any{}
			for i := 0; i < 3; i++ {
				items = append(items, map[string]any{"snippet": map[string]any{
					"title":      fmt.Sprintf("video %d", i),
					"resourceId": map[string]any{"kind": "youtube#video", "videoId": fmt.Sprintf("vid%08d", i)},
				}})
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"items": items})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newRouter(t *testing.T, withAPI bool) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	var manager *youtube.ChannelManager
	if withAPI {
		srv := dataAPI(t)
		client, err := youtube.NewClient(context.Background(),
			config.YouTubeConfig{APIKey: "k", Endpoint: srv.URL + "/"}, youtube.WithPageDelay(0))
		require.NoError(t, err)
		manager = youtube.NewChannelManager(client)
	}
	cat := catalog.New([]catalog.Channel{
		{Rank: 1, Name: "Somoy TV"},
		{Rank: 2, Name: "Jamuna TV"},
		{Rank: 3, Name: "Channel 24"},
	})
	r := gin.New()
	New(manager, cat).RegisterRoutes(r.Group("/v1"))
	return r
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestChannelRoutes(t *testing.T) {
	r := newRouter(t, true)

	w := get(r, "/v1/channels/search?q=somoy")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), channelID)

	w = get(r, "/v1/channels/search?q=somoy&select=true")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"selected"`)
	assert.Contains(t, w.Body.String(), `"uploads_playlist":"UUabcdefghijklmnopqrstuv"`)

	w = get(r, "/v1/channels/resolve?url=https://www.youtube.com/@somoynews")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"subscriber_count":1000`)

	w = get(r, "/v1/channels/"+channelID)
	require.Equal(t, http.StatusOK, w.Code)

	w = get(r, "/v1/channels/"+channelID+"/videos?max=2")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var videos struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &videos))
	assert.Equal(t, 2, videos.Count)
}

func TestChannelRouteErrors(t *testing.T) {
	r := newRouter(t, true)

	tests := []struct {
		path   string
		status int
		code   string
	}{
		{"/v1/channels/search", http.StatusBadRequest, "missing_query"},
		{"/v1/channels/search?q=nothing&select=true", http.StatusNotFound, "channel_not_found"},
		{"/v1/channels/resolve", http.StatusBadRequest, "missing_url"},
		{"/v1/channels/resolve?url=https://www.youtube.com/feed/trending", http.StatusBadRequest, "invalid_channel_url"},
		{"/v1/channels/UCmissingmissingmissing00", http.StatusNotFound, "channel_not_found"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := get(r, tt.path)
			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.code)
		})
	}
}

func TestChannelRoutesWithoutAPIKey(t *testing.T) {
	r := newRouter(t, false)

	w := get(r, "/v1/channels/search?q=x")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "youtube_api_disabled")

	w = get(r, "/v1/catalog/channels")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCatalogRoute(t *testing.T) {
	r := newRouter(t, false)

	var body struct {
		Channels []catalog.Channel `json:"channels"`
		Display  []string          `json:"display"`
		Stats    catalog.Stats     `json:"stats"`
	}

	w := get(r, "/v1/catalog/channels?q=tv")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Channels, 2)
	assert.Equal(t, []string{"#1 - Somoy TV", "#2 - Jamuna TV"}, body.Display)
	assert.Equal(t, 3, body.Stats.TotalChannels)

	w = get(r, "/v1/catalog/channels?rank=3")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Channels, 1)
	assert.Equal(t, "Channel 24", body.Channels[0].Name)

	w = get(r, "/v1/catalog/channels?top=2")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Channels, 2)

	assert.Equal(t, http.StatusNotFound, get(r, "/v1/catalog/channels?rank=9").Code)
	assert.Equal(t, http.StatusBadRequest, get(r, "/v1/catalog/channels?rank=x").Code)
}
