// Package catalog serves the ranked channel list shipped with the collector.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Channel is one ranked entry.
type Channel struct {
	Rank        int    `json:"rank"`
	Name        string `json:"name"`
	ChannelID   string `json:"channel_id,omitempty"`
	URL         string `json:"url,omitempty"`
	Category    string `json:"category,omitempty"`
	Subscribers string `json:"subscribers,omitempty"`
}

// Display renders "#rank - name".
func (c Channel) Display() string {
	return fmt.Sprintf("#%d - %s", c.Rank, c.Name)
}

type document struct {
	Channels []Channel `json:"channels"`
}

// Catalog is an in-memory, reloadable view of the channel database file.
type Catalog struct {
	path string

	mu       sync.RWMutex
	channels []Channel
}

// Stats summarizes the catalog.
type Stats struct {
	TotalChannels int      `json:"total_channels"`
	TopChannel    *Channel `json:"top_channel"`
	DatabasePath  string   `json:"database_path"`
}

// Open loads path. A missing file yields an empty catalog.
func Open(path string) (*Catalog, error) {
	c := &Catalog{path: path}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// New builds a catalog from channels already in memory.
func New(channels []Channel) *Catalog {
	return &Catalog{channels: slices.Clone(channels)}
}

// Reload rereads the database file.
func (c *Catalog) Reload() error {
	if c.path == "" {
		return nil
	}
	data, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		log.WithField("path", c.path).Warn("channel database not found, catalog is empty")
		c.set(nil)
		return nil
	}
	if err != nil {
		return fmt.Errorf("read channel database: %w", err)
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse channel database %s: %w", c.path, err)
	}
	c.set(doc.Channels)
	log.WithFields(log.Fields{"path": c.path, "channels": len(doc.Channels)}).Info("channel database loaded")
	return nil
}

func (c *Catalog) set(channels []Channel) {
	c.mu.Lock()
	c.channels = channels
	c.mu.Unlock()
}

// All returns every channel in file order.
func (c *Catalog) All() []Channel {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.channels)
}

// Search returns channels whose name contains q, case-insensitively.
// limit <= 0 means no limit.
func (c *Catalog) Search(q string, limit int) []Channel {
	needle := strings.ToLower(strings.TrimSpace(q))
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []Channel
	for _, ch := range c.channels {
		if strings.Contains(strings.ToLower(ch.Name), needle) {
			out = append(out, ch)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out
}

// ByRank returns the channel with rank.
func (c *Catalog) ByRank(rank int) (Channel, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, ch := range c.channels {
		if ch.Rank == rank {
			return ch, true
		}
	}
	return Channel{}, false
}

// Top returns the n best ranked channels.
func (c *Catalog) Top(n int) []Channel {
	sorted := c.All()
	slices.SortStableFunc(sorted, func(a, b Channel) int { return a.Rank - b.Rank })
	if n >= 0 && n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}

// Names lists channel names in file order.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.channels))
	for i, ch := range c.channels {
		out[i] = ch.Name
	}
	return out
}

// DisplayNames renders channels with Display; nil means the whole catalog.
func (c *Catalog) DisplayNames(channels []Channel) []string {
	if channels == nil {
		channels = c.All()
	}
	out := make([]string, len(channels))
	for i, ch := range channels {
		out[i] = ch.Display()
	}
	return out
}

// Stats reports the catalog size and first entry.
func (c *Catalog) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := Stats{TotalChannels: len(c.channels), DatabasePath: c.path}
	if len(c.channels) > 0 {
		top := c.channels[0]
		s.TopChannel = &top
	}
	return s
}
