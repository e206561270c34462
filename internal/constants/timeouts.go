package constants

import "time"

const (
	// ProxyFreshnessWindow is how long a fetched proxy list is considered current.
	ProxyFreshnessWindow = 60 * time.Minute
	// ProxyDirectoryTimeout bounds one call to the remote proxy directory.
	ProxyDirectoryTimeout = 30 * time.Second
	// ProxyWatchDebounce coalesces bursts of file events on the proxy list file.
	ProxyWatchDebounce = 500 * time.Millisecond
	// YouTubeAPITimeout bounds a single Data API request.
	YouTubeAPITimeout = 20 * time.Second
	// StorageOperationTimeout is applied when the caller's context has no deadline.
	StorageOperationTimeout = 5 * time.Second
	// ServerShutdownTimeout bounds graceful HTTP server shutdown.
	ServerShutdownTimeout = 30 * time.Second
)
