package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
	"unicode/utf8"

	"ytcollector-go/internal/config"
	"ytcollector-go/internal/constants"
	"ytcollector-go/internal/monitoring"
	"ytcollector-go/internal/storage"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	ytapi "google.golang.org/api/youtube/v3"
)

var (
	ErrAPIKeyMissing   = errors.New("youtube api key is required")
	ErrChannelNotFound = errors.New("channel not found")
	ErrQuotaExceeded   = errors.New("youtube api quota exceeded")
)

// Cache is the subset of *storage.Store the client needs.
type Cache interface {
	Load(ctx context.Context, ns storage.Namespace, key string, dst any) (bool, error)
	Save(ctx context.Context, ns storage.Namespace, key string, v any) error
}

// Client wraps the YouTube Data API v3. Channel records are cached for a week
// and upload lists for a day when a cache is configured.
type Client struct {
	svc     *ytapi.Service
	cache   Cache
	pager   *rate.Limiter
	timeout time.Duration
	now     func() time.Time
}

// Option customizes a Client.
type Option func(*Client)

// WithCache enables channel and video caching.
func WithCache(c Cache) Option {
	return func(cl *Client) { cl.cache = c }
}

// WithPageDelay sets the pause between playlist pages.
func WithPageDelay(d time.Duration) Option {
	return func(cl *Client) {
		if d <= 0 {
			cl.pager = rate.NewLimiter(rate.Inf, 1)
			return
		}
		cl.pager = rate.NewLimiter(rate.Every(d), 1)
	}
}

// NewClient builds a Data API client from cfg. cfg.Endpoint overrides the
// API root, which tests point at an httptest server.
func NewClient(ctx context.Context, cfg config.YouTubeConfig, opts ...Option) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrAPIKeyMissing
	}
	clientOpts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(cfg.Endpoint))
	}
	svc, err := ytapi.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}
	c := &Client{
		svc:     svc,
		pager:   rate.NewLimiter(rate.Every(constants.PlaylistPageDelay), 1),
		timeout: constants.YouTubeAPITimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

// SearchChannels returns up to max channels matching q.
func (c *Client) SearchChannels(ctx context.Context, q string, max int) ([]ChannelSummary, error) {
	if max <= 0 {
		max = constants.DefaultSearchLimit
	}
	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	resp, err := c.svc.Search.List([]string{"snippet"}).
		Q(q).
		Type("channel").
		MaxResults(int64(max)).
		Context(ctx).
		Do()
	monitoring.RecordYouTubeCall("search.list", err)
	if err != nil {
		return nil, wrapAPIError("search channels", err)
	}

	out := make([]ChannelSummary, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Snippet == nil {
			continue
		}
		id := item.Snippet.ChannelId
		if id == "" && item.Id != nil {
			id = item.Id.ChannelId
		}
		out = append(out, ChannelSummary{
			ChannelID:   id,
			Title:       item.Snippet.ChannelTitle,
			Description: item.Snippet.Description,
			Thumbnail:   defaultThumbnail(item.Snippet.Thumbnails),
		})
	}
	return out, nil
}

// GetChannelInfo returns the channel record for id.
func (c *Client) GetChannelInfo(ctx context.Context, id string) (*ChannelInfo, error) {
	var cached ChannelInfo
	if c.load(ctx, storage.NamespaceChannels, id, &cached) {
		return &cached, nil
	}

	callCtx, cancel := c.callCtx(ctx)
	defer cancel()
	resp, err := c.svc.Channels.List([]string{"snippet", "statistics", "contentDetails"}).
		Id(id).
		Context(callCtx).
		Do()
	monitoring.RecordYouTubeCall("channels.list", err)
	if err != nil {
		return nil, wrapAPIError("get channel", err)
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrChannelNotFound, id)
	}

	item := resp.Items[0]
	info := &ChannelInfo{ChannelID: id, FetchedAt: c.now().UTC()}
	if item.Snippet != nil {
		info.Title = item.Snippet.Title
		info.Description = item.Snippet.Description
		info.Thumbnail = defaultThumbnail(item.Snippet.Thumbnails)
	}
	if item.Statistics != nil {
		info.SubscriberCount = item.Statistics.SubscriberCount
		info.SubscribersHidden = item.Statistics.HiddenSubscriberCount
		info.VideoCount = item.Statistics.VideoCount
	}
	if item.ContentDetails != nil && item.ContentDetails.RelatedPlaylists != nil {
		info.UploadsPlaylist = item.ContentDetails.RelatedPlaylists.Uploads
	}

	c.save(ctx, storage.NamespaceChannels, id, info)
	return info, nil
}

// GetChannelVideos pages the channel's uploads playlist until max videos are
// collected or the playlist ends.
func (c *Client) GetChannelVideos(ctx context.Context, channelID string, max int) ([]Video, error) {
	if max <= 0 {
		max = constants.PlaylistPageSize
	}
	var cached channelVideos
	if c.load(ctx, storage.NamespaceVideos, channelID, &cached) && (cached.Complete || len(cached.Videos) >= max) {
		return truncateVideos(cached.Videos, max), nil
	}

	info, err := c.GetChannelInfo(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if info.UploadsPlaylist == "" {
		return nil, fmt.Errorf("channel %s has no uploads playlist", channelID)
	}

	var (
		videos   []Video
		token    string
		complete bool
	)
	for len(videos) < max {
		if token != "" {
			if err := c.pager.Wait(ctx); err != nil {
				return nil, err
			}
		}
		page, next, err := c.playlistPage(ctx, info.UploadsPlaylist, token, min(constants.PlaylistPageSize, max-len(videos)))
		if err != nil {
			if len(videos) > 0 {
				log.WithFields(log.Fields{"channel_id": channelID, "videos": len(videos)}).WithError(err).Warn("stopping playlist paging early")
				break
			}
			return nil, err
		}
		videos = append(videos, page...)
		if next == "" {
			complete = true
			break
		}
		token = next
	}

	log.WithFields(log.Fields{"channel_id": channelID, "videos": len(videos), "complete": complete}).Debug("channel videos fetched")
	c.save(ctx, storage.NamespaceVideos, channelID, channelVideos{
		ChannelID: channelID,
		Videos:    videos,
		Complete:  complete,
		FetchedAt: c.now().UTC(),
	})
	return truncateVideos(videos, max), nil
}

func (c *Client) playlistPage(ctx context.Context, playlistID, token string, size int) ([]Video, string, error) {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	call := c.svc.PlaylistItems.List([]string{"snippet"}).
		PlaylistId(playlistID).
		MaxResults(int64(size)).
		Context(ctx)
	if token != "" {
		call = call.PageToken(token)
	}
	resp, err := call.Do()
	monitoring.RecordYouTubeCall("playlistItems.list", err)
	if err != nil {
		return nil, "", wrapAPIError("list playlist items", err)
	}

	out := make([]Video, 0, len(resp.Items))
	for _, item := range resp.Items {
		s := item.Snippet
		if s == nil || s.ResourceId == nil || s.ResourceId.VideoId == "" {
			continue
		}
		out = append(out, Video{
			VideoID:     s.ResourceId.VideoId,
			Title:       s.Title,
			Description: TruncateDescription(s.Description),
			PublishedAt: s.PublishedAt,
			Thumbnail:   defaultThumbnail(s.Thumbnails),
		})
	}
	return out, resp.NextPageToken, nil
}

func (c *Client) load(ctx context.Context, ns storage.Namespace, key string, dst any) bool {
	if c.cache == nil {
		return false
	}
	hit, err := c.cache.Load(ctx, ns, key, dst)
	if err != nil {
		log.WithFields(log.Fields{"namespace": ns, "key": key}).WithError(err).Warn("youtube cache lookup failed")
		return false
	}
	return hit
}

func (c *Client) save(ctx context.Context, ns storage.Namespace, key string, v any) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Save(ctx, ns, key, v); err != nil {
		log.WithFields(log.Fields{"namespace": ns, "key": key}).WithError(err).Warn("youtube cache save failed")
	}
}

// TruncateDescription cuts s to constants.MaxDescriptionLen runes and marks
// the cut with "...".
func TruncateDescription(s string) string {
	if utf8.RuneCountInString(s) <= constants.MaxDescriptionLen {
		return s
	}
	return string([]rune(s)[:constants.MaxDescriptionLen]) + "..."
}

func truncateVideos(v []Video, max int) []Video {
	if len(v) > max {
		return v[:max]
	}
	return v
}

func defaultThumbnail(t *ytapi.ThumbnailDetails) string {
	if t == nil {
		return ""
	}
	for _, th := range []*ytapi.Thumbnail{t.Default, t.Medium, t.High} {
		if th != nil && th.Url != "" {
			return th.Url
		}
	}
	return ""
}

func wrapAPIError(op string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		if gerr.Code == http.StatusForbidden {
			for _, item := range gerr.Errors {
				if item.Reason == "quotaExceeded" || item.Reason == "dailyLimitExceeded" {
					return fmt.Errorf("%s: %w", op, ErrQuotaExceeded)
				}
			}
		}
		if gerr.Code == http.StatusNotFound {
			return fmt.Errorf("%s: %w", op, ErrChannelNotFound)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
