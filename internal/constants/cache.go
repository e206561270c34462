package constants

import "time"

// 缓存过期策略
const (
	ChannelCacheTTL    = 7 * 24 * time.Hour
	VideoCacheTTL      = 24 * time.Hour
	TranscriptCacheTTL = time.Duration(0) // 永不过期

	DefaultPurgeAge = 30 * 24 * time.Hour
)

// YouTube Data API 分页
const (
	PlaylistPageSize   = 50
	PlaylistPageDelay  = 300 * time.Millisecond
	MaxDescriptionLen  = 200
	DefaultSearchLimit = 5
)
