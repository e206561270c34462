package config

import (
	"strings"
	"time"
)

// applyEnv overlays environment variables. YTC_* names take precedence over the
// legacy unprefixed names still used by existing deployments.
func applyEnv(cfg *Config) {
	setStringFromEnv(func(v string) { cfg.Server.Addr = v }, "YTC_ADDR")
	setStringFromEnv(func(v string) { cfg.Server.BasePath = normalizeBasePath(v) }, "YTC_BASE_PATH")
	setFloatFromEnv("YTC_RATE_LIMIT_RPS", func(f float64) { cfg.Server.RateLimitRPS = f })
	setIntFromEnv("YTC_RATE_LIMIT_BURST", func(n int) { cfg.Server.RateLimitBurst = n })

	setStringFromEnv(func(v string) { cfg.YouTube.APIKey = v }, "YTC_YOUTUBE_API_KEY", "YOUTUBE_API_KEY")
	setStringFromEnv(func(v string) { cfg.YouTube.Endpoint = v }, "YTC_YOUTUBE_ENDPOINT")

	setStringFromEnv(func(v string) { cfg.Gemini.APIKey = v }, "YTC_GEMINI_API_KEY", "GEMINI_API_KEY")
	setStringFromEnv(func(v string) { cfg.Gemini.Endpoint = v }, "YTC_GEMINI_ENDPOINT")
	setStringFromEnv(func(v string) { cfg.Gemini.Model = v }, "YTC_GEMINI_MODEL", "GEMINI_MODEL")
	setStringFromEnv(func(v string) { cfg.Gemini.FallbackModels = splitAndTrim(v, ",") }, "YTC_GEMINI_FALLBACK_MODELS")
	setFloatFromEnv("YTC_GEMINI_TEMPERATURE", func(f float64) { cfg.Gemini.Temperature = f })

	setToggleFromEnv("USE_PROXY", func(b bool) { cfg.Proxy.Enabled = b })
	setToggleFromEnv("YTC_PROXY_ENABLED", func(b bool) { cfg.Proxy.Enabled = b })
	setStringFromEnv(func(v string) { cfg.Proxy.Mode = normalizeProxyMode(v) }, "YTC_PROXY_MODE", "PROXY_MODE")
	setStringFromEnv(func(v string) { cfg.Proxy.Selection = strings.ToLower(v) }, "YTC_PROXY_SELECTION")
	setDurationFromEnv("YTC_PROXY_REFRESH_INTERVAL", func(d time.Duration) { cfg.Proxy.RefreshInterval = d })
	setDurationFromEnv("YTC_PROXY_FRESHNESS_WINDOW", func(d time.Duration) { cfg.Proxy.FreshnessWindow = d })
	setStringFromEnv(func(v string) { cfg.Proxy.SnapshotPath = v }, "YTC_PROXY_SNAPSHOT")
	setStringFromEnv(func(v string) { cfg.Proxy.WebshareAPIKey = v }, "YTC_WEBSHARE_API_KEY", "WEBSHARE_API_KEY")
	setStringFromEnv(func(v string) { cfg.Proxy.WebshareEndpoint = v }, "YTC_WEBSHARE_ENDPOINT")
	setStringFromEnv(func(v string) { cfg.Proxy.File = v }, "YTC_PROXY_FILE")
	setToggleFromEnv("YTC_PROXY_WATCH_FILE", func(b bool) { cfg.Proxy.WatchFile = b })

	// rotating 模式使用 ROTATING_PROXY_*，manual 模式使用 PROXY_*
	if cfg.Proxy.Mode == "rotating" {
		setStringFromEnv(func(v string) { cfg.Proxy.Host = v }, "ROTATING_PROXY_HOST", "PROXY_HOST")
		setIntFromEnv("ROTATING_PROXY_PORT", func(n int) { cfg.Proxy.Port = n })
		setStringFromEnv(func(v string) { cfg.Proxy.Username = v }, "ROTATING_PROXY_USERNAME", "PROXY_USERNAME")
		setStringFromEnv(func(v string) { cfg.Proxy.Password = v }, "ROTATING_PROXY_PASSWORD", "PROXY_PASSWORD")
		setIntFromEnv("ROTATING_PROXY_COUNT", func(n int) { cfg.Proxy.RotatingCount = n })
	} else {
		setStringFromEnv(func(v string) { cfg.Proxy.Host = v }, "PROXY_HOST")
		setIntFromEnv("PROXY_PORT", func(n int) { cfg.Proxy.Port = n })
		setStringFromEnv(func(v string) { cfg.Proxy.Username = v }, "PROXY_USERNAME")
		setStringFromEnv(func(v string) { cfg.Proxy.Password = v }, "PROXY_PASSWORD")
	}

	setIntFromEnv("MAX_RETRY_ATTEMPTS", func(n int) { cfg.Retry.MaxAttempts = n })
	setIntFromEnv("YTC_RETRY_MAX_ATTEMPTS", func(n int) { cfg.Retry.MaxAttempts = n })
	setDurationFromEnv("YTC_RETRY_DELAY", func(d time.Duration) { cfg.Retry.Delay = d })
	setStringFromEnv(func(v string) { cfg.Retry.Backoff = strings.ToLower(v) }, "YTC_RETRY_BACKOFF")
	setDurationFromEnv("YTC_RETRY_MAX_DELAY", func(d time.Duration) { cfg.Retry.MaxDelay = d })
	setDurationFromEnv("YTC_ATTEMPT_TIMEOUT", func(d time.Duration) { cfg.Retry.AttemptTimeout = d })

	setToggleFromEnv("USE_MONGODB_CACHE", func(b bool) { cfg.Cache.Enabled = b })
	setToggleFromEnv("YTC_CACHE_ENABLED", func(b bool) { cfg.Cache.Enabled = b })
	setStringFromEnv(func(v string) { cfg.Cache.Backend = strings.ToLower(v) }, "YTC_CACHE_BACKEND")
	setStringFromEnv(func(v string) { cfg.Cache.MongoURI = v }, "YTC_MONGODB_URI", "MONGODB_URI")
	setStringFromEnv(func(v string) { cfg.Cache.MongoDatabase = v }, "YTC_MONGODB_DATABASE", "MONGODB_DATABASE")
	setStringFromEnv(func(v string) { cfg.Cache.RedisAddr = v }, "YTC_REDIS_ADDR", "REDIS_ADDR")
	setStringFromEnv(func(v string) { cfg.Cache.RedisPassword = v }, "YTC_REDIS_PASSWORD", "REDIS_PASSWORD")
	setIntFromEnv("YTC_REDIS_DB", func(n int) { cfg.Cache.RedisDB = n })
	setStringFromEnv(func(v string) { cfg.Cache.RedisPrefix = v }, "YTC_REDIS_PREFIX")
	setDurationFromEnv("YTC_CACHE_PURGE_AGE", func(d time.Duration) { cfg.Cache.PurgeAge = d })

	setStringFromEnv(func(v string) { cfg.Transcript.Languages = splitAndTrim(v, ",") }, "YTC_TRANSCRIPT_LANGUAGES")
	setToggleFromEnv("YTC_TRANSCRIPT_STRICT_LANGUAGES", func(b bool) { cfg.Transcript.StrictLanguages = b })
	setIntFromEnv("YTC_BATCH_CONCURRENCY", func(n int) { cfg.Transcript.BatchConcurrency = n })
	setStringFromEnv(func(v string) { cfg.Transcript.CatalogPath = v }, "YTC_CATALOG_PATH")

	setToggleFromEnv("YTC_DEBUG", func(b bool) { cfg.Security.Debug = b })
	setStringFromEnv(func(v string) { cfg.Security.LogFile = v }, "YTC_LOG_FILE", "LOG_FILE")
	setStringFromEnv(func(v string) { cfg.Security.ManagementKey = v }, "YTC_MANAGEMENT_KEY")
	setStringFromEnv(func(v string) { cfg.Security.ManagementKeyHash = v }, "YTC_MANAGEMENT_KEY_HASH")
}
