package proxy

import (
	"fmt"

	"ytcollector-go/internal/config"
	"ytcollector-go/internal/events"
)

// SourceFromConfig picks the credential source for the configured proxy mode.
func SourceFromConfig(cfg config.ProxyConfig) (Source, error) {
	switch cfg.Mode {
	case "webshare", "api":
		return NewWebshareSource(cfg.WebshareAPIKey, cfg.WebshareEndpoint), nil
	case "manual":
		return StaticSource{Credential: Credential{
			ID:       "manual",
			Host:     cfg.Host,
			Port:     cfg.Port,
			Username: cfg.Username,
			Password: cfg.Password,
		}}, nil
	case "rotating":
		return RotatingSource{
			Host:     cfg.Host,
			Port:     cfg.Port,
			Username: cfg.Username,
			Password: cfg.Password,
			Count:    cfg.RotatingCount,
		}, nil
	case "file":
		return NewFileSource(cfg.File), nil
	default:
		return nil, fmt.Errorf("unknown proxy mode %q", cfg.Mode)
	}
}

// NewPoolFromConfig returns nil, nil when proxying is disabled.
func NewPoolFromConfig(cfg config.ProxyConfig, pub events.Publisher) (*Pool, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	src, err := SourceFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return NewPool(Options{
		Source:          src,
		Selection:       SelectionPolicy(cfg.Selection),
		FreshnessWindow: cfg.FreshnessWindow,
		Snapshot:        NewSnapshotStore(cfg.SnapshotPath),
		Publisher:       pub,
	})
}
