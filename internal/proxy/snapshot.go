package proxy

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

type snapshotDoc struct {
	Proxies   []Credential `json:"proxies"`
	LastFetch time.Time    `json:"last_fetch"`
}

// SnapshotStore persists the last successfully fetched list so a restart
// during a directory outage still has something to serve.
type SnapshotStore struct {
	path string
}

// NewSnapshotStore returns nil for an empty path, which disables snapshots.
func NewSnapshotStore(path string) *SnapshotStore {
	if path == "" {
		return nil
	}
	return &SnapshotStore{path: filepath.Clean(path)}
}

// Save writes the list atomically via a temp file and rename.
func (s *SnapshotStore) Save(creds []Credential, fetched time.Time) error {
	if s == nil {
		return nil
	}
	data, err := json.Marshal(snapshotDoc{Proxies: creds, LastFetch: fetched.UTC()})
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return os.Rename(tmp, s.path)
}

// Load returns the stored list and its fetch time.
func (s *SnapshotStore) Load() ([]Credential, time.Time, error) {
	if s == nil {
		return nil, time.Time{}, os.ErrNotExist
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, time.Time{}, err
	}
	var doc snapshotDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, time.Time{}, fmt.Errorf("parse snapshot: %w", err)
	}
	return doc.Proxies, doc.LastFetch, nil
}
