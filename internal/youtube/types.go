package youtube

import "time"

// ChannelSummary is one channel search hit.
type ChannelSummary struct {
	ChannelID   string `json:"channel_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Thumbnail   string `json:"thumbnail,omitempty"`
}

// ChannelInfo is the detailed channel record.
type ChannelInfo struct {
	ChannelID         string    `json:"channel_id"`
	Title             string    `json:"title"`
	Description       string    `json:"description"`
	Thumbnail         string    `json:"thumbnail,omitempty"`
	SubscriberCount   uint64    `json:"subscriber_count"`
	SubscribersHidden bool      `json:"subscribers_hidden,omitempty"`
	VideoCount        uint64    `json:"video_count"`
	UploadsPlaylist   string    `json:"uploads_playlist"`
	FetchedAt         time.Time `json:"fetched_at"`
}

// Video is one upload from a channel's uploads playlist.
type Video struct {
	VideoID     string `json:"video_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	PublishedAt string `json:"published_at"`
	Thumbnail   string `json:"thumbnail,omitempty"`
}

// channelVideos is the cached form of a channel's upload list.
type channelVideos struct {
	ChannelID string    `json:"channel_id"`
	Videos    []Video   `json:"videos"`
	Complete  bool      `json:"complete"`
	FetchedAt time.Time `json:"fetched_at"`
}
