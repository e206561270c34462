package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

func loadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var fc FileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &fc); err != nil {
			if err := json.Unmarshal(data, &fc); err != nil {
				return nil, fmt.Errorf("failed to parse config file (tried YAML and JSON)")
			}
		}
	}
	return &fc, nil
}

// apply overlays non-zero file values onto cfg.
func (fc *FileConfig) apply(cfg *Config) error {
	s := fc.Server
	cfg.Server.Addr = firstNonEmpty(s.Addr, cfg.Server.Addr)
	cfg.Server.BasePath = normalizeBasePath(firstNonEmpty(s.BasePath, cfg.Server.BasePath))
	if s.RateLimitRPS > 0 {
		cfg.Server.RateLimitRPS = s.RateLimitRPS
	}
	if s.RateLimitBurst > 0 {
		cfg.Server.RateLimitBurst = s.RateLimitBurst
	}

	cfg.YouTube.APIKey = firstNonEmpty(fc.YouTube.APIKey, cfg.YouTube.APIKey)
	cfg.YouTube.Endpoint = firstNonEmpty(fc.YouTube.Endpoint, cfg.YouTube.Endpoint)

	g := fc.Gemini
	cfg.Gemini.APIKey = firstNonEmpty(g.APIKey, cfg.Gemini.APIKey)
	cfg.Gemini.Endpoint = firstNonEmpty(g.Endpoint, cfg.Gemini.Endpoint)
	cfg.Gemini.Model = firstNonEmpty(g.Model, cfg.Gemini.Model)
	if g.FallbackModels != nil {
		cfg.Gemini.FallbackModels = g.FallbackModels
	}
	if g.Temperature != nil {
		cfg.Gemini.Temperature = *g.Temperature
	}
	if g.MaxTranscriptChars > 0 {
		cfg.Gemini.MaxTranscriptChars = g.MaxTranscriptChars
	}

	p := fc.Proxy
	if p.Enabled != nil {
		cfg.Proxy.Enabled = *p.Enabled
	}
	cfg.Proxy.Mode = normalizeProxyMode(firstNonEmpty(p.Mode, cfg.Proxy.Mode))
	cfg.Proxy.Selection = firstNonEmpty(p.Selection, cfg.Proxy.Selection)
	cfg.Proxy.SnapshotPath = firstNonEmpty(p.SnapshotPath, cfg.Proxy.SnapshotPath)
	cfg.Proxy.WebshareAPIKey = firstNonEmpty(p.Webshare.APIKey, cfg.Proxy.WebshareAPIKey)
	cfg.Proxy.WebshareEndpoint = firstNonEmpty(p.Webshare.Endpoint, cfg.Proxy.WebshareEndpoint)
	cfg.Proxy.Host = firstNonEmpty(p.Host, cfg.Proxy.Host)
	cfg.Proxy.Username = firstNonEmpty(p.Username, cfg.Proxy.Username)
	cfg.Proxy.Password = firstNonEmpty(p.Password, cfg.Proxy.Password)
	cfg.Proxy.File = firstNonEmpty(p.File, cfg.Proxy.File)
	cfg.Proxy.WatchFile = cfg.Proxy.WatchFile || p.WatchFile
	if p.Port > 0 {
		cfg.Proxy.Port = p.Port
	}
	if p.RotatingCount > 0 {
		cfg.Proxy.RotatingCount = p.RotatingCount
	}
	if p.RefreshInterval != "" {
		d, err := parseDuration("proxy.refresh_interval", p.RefreshInterval)
		if err != nil {
			return err
		}
		cfg.Proxy.RefreshInterval = d
	}
	if p.FreshnessWindow != "" {
		d, err := parseDuration("proxy.freshness_window", p.FreshnessWindow)
		if err != nil {
			return err
		}
		cfg.Proxy.FreshnessWindow = d
	}

	r := fc.Retry
	if r.MaxAttempts != 0 {
		cfg.Retry.MaxAttempts = r.MaxAttempts
	}
	cfg.Retry.Backoff = firstNonEmpty(r.Backoff, cfg.Retry.Backoff)
	for _, d := range []struct {
		field string
		raw   string
		dst   *time.Duration
	}{
		{"retry.delay", r.Delay, &cfg.Retry.Delay},
		{"retry.max_delay", r.MaxDelay, &cfg.Retry.MaxDelay},
		{"retry.attempt_timeout", r.AttemptTimeout, &cfg.Retry.AttemptTimeout},
	} {
		if d.raw == "" {
			continue
		}
		v, err := parseDuration(d.field, d.raw)
		if err != nil {
			return err
		}
		*d.dst = v
	}

	c := fc.Cache
	if c.Enabled != nil {
		cfg.Cache.Enabled = *c.Enabled
	}
	cfg.Cache.Backend = firstNonEmpty(c.Backend, cfg.Cache.Backend)
	cfg.Cache.MongoURI = firstNonEmpty(c.MongoURI, cfg.Cache.MongoURI)
	cfg.Cache.MongoDatabase = firstNonEmpty(c.MongoDatabase, cfg.Cache.MongoDatabase)
	cfg.Cache.RedisAddr = firstNonEmpty(c.RedisAddr, cfg.Cache.RedisAddr)
	cfg.Cache.RedisPassword = firstNonEmpty(c.RedisPassword, cfg.Cache.RedisPassword)
	cfg.Cache.RedisPrefix = firstNonEmpty(c.RedisPrefix, cfg.Cache.RedisPrefix)
	if c.RedisDB > 0 {
		cfg.Cache.RedisDB = c.RedisDB
	}
	if c.PurgeAge != "" {
		d, err := parseDuration("cache.purge_age", c.PurgeAge)
		if err != nil {
			return err
		}
		cfg.Cache.PurgeAge = d
	}

	t := fc.Transcript
	if len(t.Languages) > 0 {
		cfg.Transcript.Languages = t.Languages
	}
	cfg.Transcript.StrictLanguages = cfg.Transcript.StrictLanguages || t.StrictLanguages
	if t.BatchConcurrency > 0 {
		cfg.Transcript.BatchConcurrency = t.BatchConcurrency
	}
	cfg.Transcript.CatalogPath = firstNonEmpty(t.CatalogPath, cfg.Transcript.CatalogPath)

	cfg.Security.Debug = cfg.Security.Debug || fc.Debug
	cfg.Security.LogFile = firstNonEmpty(fc.LogFile, cfg.Security.LogFile)
	cfg.Security.ManagementKey = firstNonEmpty(fc.ManagementKey, cfg.Security.ManagementKey)
	cfg.Security.ManagementKeyHash = firstNonEmpty(fc.ManagementKeyHash, cfg.Security.ManagementKeyHash)
	return nil
}
