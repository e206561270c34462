package config

import "time"

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Addr           string
	BasePath       string
	RateLimitRPS   float64
	RateLimitBurst int
}

// YouTubeConfig YouTube Data API 配置
type YouTubeConfig struct {
	APIKey   string
	Endpoint string // 为空时使用官方地址
}

// GeminiConfig 字幕问答与分析配置
type GeminiConfig struct {
	APIKey             string
	Endpoint           string
	Model              string
	FallbackModels     []string
	Temperature        float64
	MaxTranscriptChars int
}

// ProxyConfig 代理池配置
type ProxyConfig struct {
	Enabled         bool
	Mode            string // webshare, manual, rotating, file
	Selection       string // round_robin, random
	RefreshInterval time.Duration
	FreshnessWindow time.Duration
	SnapshotPath    string

	WebshareAPIKey   string
	WebshareEndpoint string

	Host     string
	Port     int
	Username string
	Password string

	RotatingCount int

	File      string
	WatchFile bool
}

// RetryConfig 重试策略配置
type RetryConfig struct {
	MaxAttempts    int
	Delay          time.Duration
	Backoff        string // fixed, exponential
	MaxDelay       time.Duration
	AttemptTimeout time.Duration
}

// CacheConfig 缓存后端配置
type CacheConfig struct {
	Enabled       bool
	Backend       string // mongodb, redis
	MongoURI      string
	MongoDatabase string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
	PurgeAge      time.Duration
}

// TranscriptConfig 字幕抓取配置
type TranscriptConfig struct {
	Languages        []string
	StrictLanguages  bool
	BatchConcurrency int
	CatalogPath      string
}

// SecurityConfig 管理访问和日志配置
type SecurityConfig struct {
	ManagementKey     string
	ManagementKeyHash string
	Debug             bool
	LogFile           string
}
