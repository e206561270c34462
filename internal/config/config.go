package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ytcollector-go/internal/constants"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Config 主配置结构体，包含所有功能域的配置
type Config struct {
	Server     ServerConfig
	YouTube    YouTubeConfig
	Gemini     GeminiConfig
	Proxy      ProxyConfig
	Retry      RetryConfig
	Cache      CacheConfig
	Transcript TranscriptConfig
	Security   SecurityConfig

	// 实际加载的配置文件路径，未找到时为空
	SourcePath string
}

// Default returns a configuration populated with built-in defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           ":8080",
			RateLimitRPS:   10,
			RateLimitBurst: 20,
		},
		Gemini: GeminiConfig{
			Endpoint:           constants.GeminiEndpoint,
			Model:              constants.GeminiDefaultModel,
			FallbackModels:     []string{constants.GeminiFallbackModel},
			Temperature:        0.4,
			MaxTranscriptChars: constants.GeminiMaxTranscriptChars,
		},
		Proxy: ProxyConfig{
			Enabled:          false,
			Mode:             "webshare",
			Selection:        "round_robin",
			RefreshInterval:  constants.ProxyFreshnessWindow,
			FreshnessWindow:  constants.ProxyFreshnessWindow,
			WebshareEndpoint: "https://proxy.webshare.io/api/v2",
			Port:             80,
			RotatingCount:    10,
		},
		Retry: RetryConfig{
			MaxAttempts:    constants.DefaultMaxAttempts,
			Delay:          constants.DefaultRetryDelay,
			Backoff:        "fixed",
			MaxDelay:       constants.DefaultMaxRetryDelay,
			AttemptTimeout: constants.DefaultAttemptTimeout,
		},
		Cache: CacheConfig{
			Enabled:       true,
			Backend:       "mongodb",
			MongoURI:      "mongodb://localhost:27017/",
			MongoDatabase: "youtube_transcripts",
			RedisAddr:     "localhost:6379",
			RedisPrefix:   "ytc:",
			PurgeAge:      constants.DefaultPurgeAge,
		},
		Transcript: TranscriptConfig{
			Languages:        constants.DefaultTranscriptLanguages(),
			BatchConcurrency: constants.DefaultBatchConcurrency,
			CatalogPath:      "channels_database.json",
		},
	}
}

// Load builds the runtime configuration: .env, defaults, config file, then environment.
// An empty path searches the default locations; a missing file is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Debug("no .env loaded")
	}

	cfg := Default()
	resolved, err := resolvePath(path)
	if err != nil {
		return nil, err
	}
	if resolved != "" {
		fc, err := loadFile(resolved)
		if err != nil {
			return nil, err
		}
		if err := fc.apply(cfg); err != nil {
			return nil, fmt.Errorf("apply %s: %w", resolved, err)
		}
		cfg.SourcePath = resolved
		log.WithField("path", resolved).Info("configuration loaded")
	}
	applyEnv(cfg)

	if res := cfg.Validate(); !res.Valid {
		return nil, res.Errors[0]
	}
	return cfg, nil
}

func resolvePath(path string) (string, error) {
	if path == "" {
		for _, loc := range defaultLocations() {
			if _, err := os.Stat(loc); err == nil {
				return loc, nil
			}
		}
		return "", nil
	}
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, path[1:])
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("config file %s: %w", path, err)
	}
	return path, nil
}

func defaultLocations() []string {
	home := os.Getenv("HOME")
	return []string{
		"config.yaml",
		"config.yml",
		"config.json",
		filepath.Join(home, ".ytcollector", "config.yaml"),
		"/etc/ytcollector/config.yaml",
	}
}

func parseDuration(field, raw string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, ValidationError{Field: field, Value: raw, Message: "invalid duration"}
	}
	return d, nil
}
