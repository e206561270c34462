package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"ytcollector-go/internal/constants"
	"ytcollector-go/internal/fetch"
	"ytcollector-go/internal/logging"
	"ytcollector-go/internal/proxy"
	"ytcollector-go/internal/storage"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Provider fetches one transcript through one credential. *Client implements it.
type Provider interface {
	Fetch(ctx context.Context, cred proxy.Credential, videoID string, languages []string, strict bool) (*Transcript, error)
}

// Cache is the subset of *storage.Store the service needs.
type Cache interface {
	Load(ctx context.Context, ns storage.Namespace, key string, dst any) (bool, error)
	Save(ctx context.Context, ns storage.Namespace, key string, v any) error
}

// Options select languages for one request. Empty Languages uses the service default.
type Options struct {
	Languages []string
	Strict    bool
	// SkipCache forces a live fetch; the result still refreshes the cache.
	SkipCache bool
}

// Result is a transcript plus how it was obtained.
type Result struct {
	Transcript *Transcript   `json:"-"`
	Cached     bool          `json:"cached"`
	Attempts   int           `json:"attempts"`
	Proxies    []string      `json:"proxies,omitempty"`
	Elapsed    time.Duration `json:"-"`
}

// Service combines the cache, the resilient fetcher and the caption client.
// Caching wraps the fetcher: a hit never touches the proxy pool.
type Service struct {
	provider    Provider
	fetcher     *fetch.Fetcher
	cache       Cache
	languages   []string
	strict      bool
	concurrency int
	now         func() time.Time
}

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

// WithCache enables transcript caching.
func WithCache(c Cache) ServiceOption {
	return func(s *Service) { s.cache = c }
}

// WithLanguages sets the default language preference.
func WithLanguages(langs []string, strict bool) ServiceOption {
	return func(s *Service) {
		if len(langs) > 0 {
			s.languages = slices.Clone(langs)
		}
		s.strict = strict
	}
}

// WithConcurrency bounds FetchMany.
func WithConcurrency(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// NewService wires a provider to a fetcher. Provider errors that Classify
// deems terminal are marked before they reach the fetcher.
func NewService(provider Provider, fetcher *fetch.Fetcher, opts ...ServiceOption) *Service {
	s := &Service{
		provider:    provider,
		fetcher:     fetcher,
		languages:   constants.DefaultTranscriptLanguages(),
		concurrency: constants.DefaultBatchConcurrency,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Languages returns the default language preference.
func (s *Service) Languages() []string { return slices.Clone(s.languages) }

func (s *Service) resolve(opts Options) ([]string, bool) {
	if len(opts.Languages) == 0 {
		return s.languages, s.strict || opts.Strict
	}
	return opts.Languages, opts.Strict
}

// Get returns the transcript for videoID, from cache when possible. Errors
// are the fetch taxonomy: *fetch.TerminalError, *fetch.ExhaustedError,
// *proxy.PoolError or a context error.
func (s *Service) Get(ctx context.Context, videoID string, opts Options) (*Result, error) {
	if !ValidVideoID(videoID) {
		return nil, fetch.MarkTerminal(fmt.Errorf("%w: %q", ErrInvalidVideoID, videoID))
	}
	langs, strict := s.resolve(opts)
	entry := logging.WithVideo(videoID)

	if !opts.SkipCache {
		if t, ok := s.cached(ctx, videoID, langs, strict); ok {
			entry.WithField("language", t.LanguageCode).Debug("transcript cache hit")
			return &Result{Transcript: t, Cached: true}, nil
		}
	}

	res := fetch.Do(ctx, s.fetcher, "transcript", func(ctx context.Context, cred proxy.Credential) (*Transcript, error) {
		t, err := s.provider.Fetch(ctx, cred, videoID, langs, strict)
		if err != nil && Classify(err) == fetch.Terminal {
			return nil, fetch.MarkTerminal(err)
		}
		return t, err
	})
	if !res.OK() {
		entry.WithFields(log.Fields{
			"outcome":  res.Outcome.String(),
			"attempts": res.Attempts,
		}).WithError(res.Err).Warn("transcript fetch failed")
		return nil, res.Err
	}

	t := res.Value
	entry.WithFields(log.Fields{
		"language":    t.LanguageCode,
		"generated":   t.IsGenerated,
		"entries":     len(t.Entries),
		"attempts":    res.Attempts,
		"duration_ms": logging.DurationMS(res.Elapsed),
	}).Info("transcript fetched")

	if s.cache != nil {
		if err := s.cache.Save(ctx, storage.NamespaceTranscripts, videoID, t); err != nil {
			entry.WithError(err).Warn("transcript cache save failed")
		}
	}
	return &Result{
		Transcript: t,
		Attempts:   res.Attempts,
		Proxies:    res.Credentials,
		Elapsed:    res.Elapsed,
	}, nil
}

func (s *Service) cached(ctx context.Context, videoID string, langs []string, strict bool) (*Transcript, bool) {
	if s.cache == nil {
		return nil, false
	}
	var t Transcript
	hit, err := s.cache.Load(ctx, storage.NamespaceTranscripts, videoID, &t)
	if err != nil {
		logging.WithVideo(videoID).WithError(err).Warn("transcript cache lookup failed")
		return nil, false
	}
	if !hit || len(t.Entries) == 0 {
		return nil, false
	}
	if strict && !slices.Contains(langs, t.LanguageCode) {
		return nil, false
	}
	return &t, true
}

// Formatted is a rendered transcript.
type Formatted struct {
	Format   Format   `json:"format"`
	Document Document `json:"document"`
	Text     string   `json:"text"`
	Result   *Result  `json:"meta"`
}

// GetAndFormat fetches videoID and renders it. For FormatJSON, Text holds the
// indented export document.
func (s *Service) GetAndFormat(ctx context.Context, videoID, title string, opts Options, format Format) (*Formatted, error) {
	res, err := s.Get(ctx, videoID, opts)
	if err != nil {
		return nil, err
	}
	doc := NewDocument(res.Transcript, title, s.now().UTC())
	out := &Formatted{Format: format, Document: doc, Result: res}
	if format == FormatJSON {
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, err
		}
		out.Text = string(data)
	} else {
		out.Text = Render(res.Transcript.Entries, format)
	}
	return out, nil
}

// BatchItem is one FetchMany outcome.
type BatchItem struct {
	VideoID string
	Result  *Result
	Err     error
}

// FetchMany fetches ids with bounded concurrency. A failure for one id does
// not stop the others; results keep the input order.
func (s *Service) FetchMany(ctx context.Context, ids []string, opts Options) []BatchItem {
	items := make([]BatchItem, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			res, err := s.Get(gctx, id, opts)
			items[i] = BatchItem{VideoID: id, Result: res, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return items
}
