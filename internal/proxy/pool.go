package proxy

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"ytcollector-go/internal/constants"
	"ytcollector-go/internal/events"
	"ytcollector-go/internal/monitoring"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// SelectionPolicy decides which credential Select hands out.
type SelectionPolicy string

const (
	PolicyRoundRobin SelectionPolicy = "round_robin"
	PolicyRandom     SelectionPolicy = "random"
)

// Freshness describes the age of the current list.
type Freshness string

const (
	FreshnessNeverFetched Freshness = "never_fetched"
	FreshnessFresh        Freshness = "fresh"
	FreshnessStale        Freshness = "stale"
)

// DefaultRetryInterval throttles refresh attempts after a failed refresh
// while the pool is still serving an older list.
const DefaultRetryInterval = time.Minute

// Options configures a Pool.
type Options struct {
	Source          Source
	Selection       SelectionPolicy
	FreshnessWindow time.Duration
	RetryInterval   time.Duration
	Snapshot        *SnapshotStore
	Publisher       events.Publisher

	now func() time.Time
}

// Stats is a point-in-time view of the pool.
type Stats struct {
	Source       string         `json:"source"`
	Policy       string         `json:"policy"`
	Size         int            `json:"size"`
	ByCountry    map[string]int `json:"by_country"`
	Freshness    Freshness      `json:"freshness"`
	Degraded     bool           `json:"degraded"`
	LastRefresh  time.Time      `json:"last_refresh,omitempty"`
	LastError    string         `json:"last_error,omitempty"`
	Refreshes    int64          `json:"refreshes"`
	RefreshFails int64          `json:"refresh_failures"`
}

// Pool owns the credential list and the selection cursor. All list and cursor
// mutation happens under mu; the source is queried outside it.
type Pool struct {
	source   Source
	policy   SelectionPolicy
	window   time.Duration
	retry    time.Duration
	snapshot *SnapshotStore
	events   events.Publisher
	now      func() time.Time

	mu          sync.Mutex
	creds       []Credential
	cursor      int
	lastRefresh time.Time
	lastAttempt time.Time
	lastErr     error
	degraded    bool
	refreshes   int64
	failures    int64

	group singleflight.Group
}

// NewPool constructs an empty pool; the first Select or Refresh loads it.
func NewPool(opts Options) (*Pool, error) {
	if opts.Source == nil {
		return nil, fmt.Errorf("proxy pool: source is required")
	}
	policy := opts.Selection
	switch policy {
	case "":
		policy = PolicyRoundRobin
	case PolicyRoundRobin, PolicyRandom:
	default:
		return nil, fmt.Errorf("proxy pool: unknown selection policy %q", policy)
	}
	window := opts.FreshnessWindow
	if window <= 0 {
		window = constants.ProxyFreshnessWindow
	}
	retry := opts.RetryInterval
	if retry <= 0 {
		retry = DefaultRetryInterval
	}
	now := opts.now
	if now == nil {
		now = time.Now
	}
	return &Pool{
		source:   opts.Source,
		policy:   policy,
		window:   window,
		retry:    retry,
		snapshot: opts.Snapshot,
		events:   opts.Publisher,
		now:      now,
	}, nil
}

// Policy returns the construction-time selection policy.
func (p *Pool) Policy() SelectionPolicy { return p.policy }

// Refresh reloads the list from the source unless it is still fresh and force
// is false. A failed reload keeps serving the previous list and returns nil.
// With nothing to fall back to it fails with ErrUnavailable when the source
// errored, or ErrEmpty when the source yielded no usable proxies.
//
// Concurrent callers share one reload, which runs detached from the caller's
// context; a caller whose ctx ends stops waiting but does not abort the reload.
func (p *Pool) Refresh(ctx context.Context, force bool) error {
	if !force && p.fresh() {
		return nil
	}
	select {
	case res := <-p.startRefresh(ctx, force):
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// startRefresh joins or starts the shared reload. Forced and unforced
// reloads are keyed separately so a forced call never rides on an unforced one.
func (p *Pool) startRefresh(ctx context.Context, force bool) <-chan singleflight.Result {
	key := "refresh"
	if force {
		key = "refresh:force"
	}
	detached := context.WithoutCancel(ctx)
	return p.group.DoChan(key, func() (any, error) {
		if !force && p.fresh() {
			return nil, nil
		}
		loadCtx, cancel := context.WithTimeout(detached, constants.ProxyDirectoryTimeout)
		defer cancel()
		return nil, p.reload(loadCtx)
	})
}

func (p *Pool) reload(ctx context.Context) error {
	started := p.now()
	p.mu.Lock()
	p.lastAttempt = started
	p.mu.Unlock()

	loaded, err := p.source.Load(ctx)
	if err != nil {
		return p.reloadFailed(ctx, err, KindUnavailable)
	}
	creds := sanitize(loaded)
	if len(creds) == 0 {
		return p.reloadFailed(ctx, fmt.Errorf("%s returned no usable proxies", p.source.Name()), KindEmpty)
	}

	p.mu.Lock()
	p.creds = creds
	p.cursor %= len(creds)
	p.lastRefresh = started
	p.lastErr = nil
	p.degraded = false
	p.refreshes++
	p.mu.Unlock()

	if err := p.snapshot.Save(creds, started); err != nil {
		log.WithError(err).Warn("proxy pool: failed to persist snapshot")
	}
	monitoring.ProxyPoolSize.Set(float64(len(creds)))
	monitoring.ProxyPoolRefreshes.WithLabelValues(p.source.Name(), "ok").Inc()
	log.WithFields(log.Fields{"source": p.source.Name(), "size": len(creds)}).Info("proxy pool refreshed")
	p.publish(ctx, events.TopicPoolRefreshed, map[string]any{"size": len(creds)})
	return nil
}

// reloadFailed keeps the previous list (or the on-disk snapshot) when there is
// one. Otherwise it reports kind: Empty when the source answered with nothing
// usable, Unavailable when the source itself failed.
func (p *Pool) reloadFailed(ctx context.Context, cause error, kind ErrorKind) error {
	p.mu.Lock()
	p.lastErr = cause
	p.failures++
	serving := len(p.creds)
	if serving > 0 {
		p.degraded = true
	}
	p.mu.Unlock()

	fields := log.Fields{"source": p.source.Name()}
	if serving > 0 {
		monitoring.ProxyPoolRefreshes.WithLabelValues(p.source.Name(), "degraded").Inc()
		log.WithFields(fields).WithError(cause).WithField("size", serving).Warn("proxy refresh failed, keeping previous list")
		p.publish(ctx, events.TopicPoolDegraded, map[string]any{"size": serving, "error": cause.Error()})
		return nil
	}

	if snap, fetched, err := p.snapshot.Load(); err == nil {
		if creds := sanitize(snap); len(creds) > 0 {
			p.mu.Lock()
			p.creds = creds
			p.cursor = 0
			p.lastRefresh = fetched
			p.degraded = true
			p.mu.Unlock()
			monitoring.ProxyPoolSize.Set(float64(len(creds)))
			monitoring.ProxyPoolRefreshes.WithLabelValues(p.source.Name(), "degraded").Inc()
			log.WithFields(fields).WithError(cause).WithField("size", len(creds)).Warn("proxy refresh failed, loaded stale snapshot")
			p.publish(ctx, events.TopicPoolDegraded, map[string]any{"size": len(creds), "error": cause.Error(), "snapshot": true})
			return nil
		}
	}

	monitoring.ProxyPoolRefreshes.WithLabelValues(p.source.Name(), "failed").Inc()
	log.WithFields(fields).WithError(cause).Error("proxy refresh failed with no list to fall back to")
	p.publish(ctx, events.TopicPoolRefreshFailed, map[string]any{"error": cause.Error()})
	return &PoolError{Kind: kind, Err: cause}
}

// Next returns credentials in round-robin order.
func (p *Pool) Next() (Credential, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.creds) == 0 {
		return Credential{}, ErrEmpty
	}
	c := p.creds[p.cursor]
	p.cursor = (p.cursor + 1) % len(p.creds)
	return c, nil
}

// Random returns a uniformly chosen credential without moving the cursor.
func (p *Pool) Random() (Credential, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.creds) == 0 {
		return Credential{}, ErrEmpty
	}
	return p.creds[rand.IntN(len(p.creds))], nil
}

// Select hands out one credential according to the pool's policy. A stale
// pool that still holds credentials is refreshed in the background; only an
// empty pool makes the caller wait for the source.
func (p *Pool) Select(ctx context.Context) (Credential, error) {
	var refreshErr error
	if p.shouldRefresh() {
		if p.Len() > 0 {
			p.startRefresh(ctx, false)
		} else {
			refreshErr = p.Refresh(ctx, false)
		}
	}
	var (
		c   Credential
		err error
	)
	if p.policy == PolicyRandom {
		c, err = p.Random()
	} else {
		c, err = p.Next()
	}
	if err != nil {
		if refreshErr != nil {
			return Credential{}, refreshErr
		}
		return Credential{}, err
	}
	monitoring.ProxySelections.WithLabelValues(string(p.policy)).Inc()
	return c, nil
}

// All returns a copy of the current list.
func (p *Pool) All() []Credential {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Credential, len(p.creds))
	copy(out, p.creds)
	return out
}

// Len returns the number of credentials currently held.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.creds)
}

// Stats summarizes size, country distribution and freshness.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	byCountry := make(map[string]int)
	for _, c := range p.creds {
		cc := c.CountryCode
		if cc == "" {
			cc = "Unknown"
		}
		byCountry[cc]++
	}
	st := Stats{
		Source:       p.source.Name(),
		Policy:       string(p.policy),
		Size:         len(p.creds),
		ByCountry:    byCountry,
		Freshness:    p.freshnessLocked(),
		Degraded:     p.degraded,
		LastRefresh:  p.lastRefresh,
		Refreshes:    p.refreshes,
		RefreshFails: p.failures,
	}
	if p.lastErr != nil {
		st.LastError = p.lastErr.Error()
	}
	return st
}

// TopCountries returns country codes ordered by descending proxy count.
func (s Stats) TopCountries(n int) []string {
	keys := make([]string, 0, len(s.ByCountry))
	for k := range s.ByCountry {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if s.ByCountry[keys[i]] != s.ByCountry[keys[j]] {
			return s.ByCountry[keys[i]] > s.ByCountry[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if n > 0 && n < len(keys) {
		keys = keys[:n]
	}
	return keys
}

// StartAutoRefresh refreshes on a ticker until ctx is done.
func (p *Pool) StartAutoRefresh(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := p.Refresh(ctx, true); err != nil {
					log.WithError(err).Warn("proxy pool: scheduled refresh failed")
				}
			}
		}
	}()
}

func (p *Pool) fresh() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.freshnessLocked() == FreshnessFresh
}

// shouldRefresh is true for an empty or stale pool, except right after a
// failed attempt while an older list is still being served.
func (p *Pool) shouldRefresh() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.freshnessLocked() == FreshnessFresh {
		return false
	}
	if len(p.creds) > 0 && p.lastErr != nil && p.now().Sub(p.lastAttempt) < p.retry {
		return false
	}
	return true
}

func (p *Pool) freshnessLocked() Freshness {
	if p.lastRefresh.IsZero() {
		return FreshnessNeverFetched
	}
	if p.now().Sub(p.lastRefresh) < p.window {
		return FreshnessFresh
	}
	return FreshnessStale
}

func (p *Pool) publish(ctx context.Context, topic string, payload map[string]any) {
	if p.events == nil {
		return
	}
	p.events.Publish(ctx, topic, payload, map[string]string{"source": p.source.Name()})
}
