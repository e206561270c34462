package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"ytcollector-go/internal/analysis"
	"ytcollector-go/internal/catalog"
	"ytcollector-go/internal/config"
	"ytcollector-go/internal/constants"
	"ytcollector-go/internal/events"
	"ytcollector-go/internal/fetch"
	"ytcollector-go/internal/logging"
	mw "ytcollector-go/internal/middleware"
	tracing "ytcollector-go/internal/monitoring/tracing"
	"ytcollector-go/internal/proxy"
	srv "ytcollector-go/internal/server"
	"ytcollector-go/internal/storage"
	"ytcollector-go/internal/transcript"
	"ytcollector-go/internal/version"
	"ytcollector-go/internal/youtube"

	log "github.com/sirupsen/logrus"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file (default: search config.yaml, ~/.ytcollector, /etc/ytcollector)")
	debug := flag.Bool("debug", false, "Enable debug mode")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}
	if *debug {
		cfg.Security.Debug = true
	}
	if err := logging.Setup(cfg); err != nil {
		log.WithError(err).Fatal("failed to configure logging")
	}
	defer logging.Close()

	traceShutdown, err := tracing.Init(context.Background())
	if err != nil {
		log.WithError(err).Warn("failed to initialize tracing")
	}
	if traceShutdown != nil {
		defer func() {
			if err := traceShutdown(context.Background()); err != nil {
				log.WithError(err).Warn("failed to shutdown tracing")
			}
		}()
	}
	log.WithFields(log.Fields{"version": version.Version, "config": cfg.SourcePath}).Info("starting ytcollector")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eventHub := events.NewHub()
	if cfg.Security.Debug {
		eventHub.Subscribe(events.TopicAll, func(_ context.Context, evt events.Event) {
			log.WithField("topic", evt.Topic).Debugf("event: %v", evt.Payload)
		})
	}

	pool := buildPool(ctx, cfg, eventHub)

	cache, err := storage.Open(ctx, cfg.Cache, eventHub)
	if err != nil {
		// 缓存不可用时降级为直连抓取，服务仍可启动
		log.WithError(err).Warn("cache backend unavailable; running without cache")
		cache = nil
	}
	defer func() {
		if err := cache.Close(); err != nil {
			log.WithError(err).Warn("failed to close cache backend")
		}
	}()

	fetcher := fetch.New(pool, fetch.PolicyFromConfig(cfg.Retry), fetch.WithPublisher(eventHub))
	svcOpts := []transcript.ServiceOption{
		transcript.WithLanguages(cfg.Transcript.Languages, cfg.Transcript.StrictLanguages),
		transcript.WithConcurrency(cfg.Transcript.BatchConcurrency),
	}
	if cache.Enabled() {
		svcOpts = append(svcOpts, transcript.WithCache(cache))
	}
	transcripts := transcript.NewService(transcript.NewClient(), fetcher, svcOpts...)

	var channels *youtube.ChannelManager
	if cfg.YouTube.APIKey != "" {
		var ytOpts []youtube.Option
		if cache.Enabled() {
			ytOpts = append(ytOpts, youtube.WithCache(cache))
		}
		client, err := youtube.NewClient(ctx, cfg.YouTube, ytOpts...)
		if err != nil {
			log.WithError(err).Warn("YouTube Data API client unavailable; channel endpoints disabled")
		} else {
			channels = youtube.NewChannelManager(client)
		}
	} else {
		log.Warn("YOUTUBE_API_KEY not set; channel endpoints disabled")
	}

	var analyzer *analysis.Analyzer
	if gemini, err := analysis.NewClient(cfg.Gemini); err == nil {
		// 模型调用不经过代理池
		analyzer = analysis.NewAnalyzer(transcripts, gemini,
			fetch.New(nil, analysis.RetryPolicy(), fetch.WithPublisher(eventHub)), cfg.Gemini)
		log.WithField("models", gemini.Models()).Info("transcript analysis enabled")
	} else {
		log.WithError(err).Warn("transcript analysis endpoints disabled")
	}

	cat, err := catalog.Open(cfg.Transcript.CatalogPath)
	if err != nil {
		log.WithError(err).Warn("failed to load channel catalog")
	}

	engine := srv.BuildEngine(cfg, srv.Dependencies{
		Transcripts: transcripts,
		Analyzer:    analyzer,
		Channels:    channels,
		Catalog:     cat,
		Pool:        pool,
		Store:       cache,
		Hub:         eventHub,
	})

	httpSrv := &http.Server{Addr: cfg.Server.Addr, Handler: engine}
	mw.SafeGo("http-server", func() {
		log.Infof("HTTP API listening on %s", cfg.Server.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("http server stopped")
			cancel()
		}
	})

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
		log.Info("Shutdown signal received")
	case <-ctx.Done():
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), constants.ServerShutdownTimeout)
	defer cancelShutdown()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("graceful shutdown incomplete")
	}
	log.Info("Server stopped")
}

// buildPool creates the proxy pool, loads it once and starts background
// refresh. It returns nil when proxying is disabled.
func buildPool(ctx context.Context, cfg *config.Config, pub events.Publisher) *proxy.Pool {
	pool, err := proxy.NewPoolFromConfig(cfg.Proxy, pub)
	if err != nil {
		log.WithError(err).Fatal("invalid proxy configuration")
	}
	if pool == nil {
		log.Info("proxy disabled; fetching transcripts directly")
		return nil
	}
	if err := pool.Refresh(ctx, true); err != nil {
		// Empty pool fails closed per request; keep serving and let refresh retry.
		log.WithError(err).Warn("initial proxy pool load failed")
	}
	pool.StartAutoRefresh(ctx, cfg.Proxy.RefreshInterval)
	if cfg.Proxy.Mode == "file" && cfg.Proxy.WatchFile && cfg.Proxy.File != "" {
		if err := proxy.WatchFile(ctx, pool, cfg.Proxy.File); err != nil {
			log.WithError(err).Warn("failed to watch proxy file")
		}
	}
	return pool
}
