package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"PersonIntel/internal/cache"
	"PersonIntel/internal/collector"
	"PersonIntel/internal/config"
	"PersonIntel/internal/domain"
	"PersonIntel/internal/infrastructure/llm"
	"PersonIntel/internal/infrastructure/ml"
	"PersonIntel/internal/infrastructure/parser"
	"PersonIntel/internal/infrastructure/scheduler"
	"PersonIntel/internal/infrastructure/storage"
	"PersonIntel/internal/infrastructure/telegram"
	"PersonIntel/internal/logging"
	"PersonIntel/internal/matcher"
	"PersonIntel/internal/metrics"
	"PersonIntel/internal/ports"
	"PersonIntel/internal/ratelimit"
	"PersonIntel/internal/retry"
	"PersonIntel/internal/scanner"
	httptransport "PersonIntel/internal/transport/http"
	"PersonIntel/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg          config.Config
	logger       *slog.Logger
	registry     *prometheus.Registry
	cache        *cache.Store
	orchestrator *usecase.Orchestrator
	db           *sql.DB
}

// New builds every service from cfg. Optional collaborators (text generation,
// Postgres, Telegram, remote enrichment) are only wired when configured.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	store, err := OpenCache(ctx, cfg, m, baseLogger)
	if err != nil {
		return nil, err
	}

	a := &Application{cfg: cfg, logger: baseLogger, registry: reg, cache: store}

	httpClient := &http.Client{Timeout: 60 * time.Second}
	deps := collector.Deps{
		Cache: store,
		Limiter: ratelimit.New(ratelimit.Options{
			RequestsPerPeriod: cfg.RateLimit.RequestsPerPeriod,
			Period:            cfg.RateLimit.Period(),
		}),
		Retry:   retryPolicy(cfg.Retry, baseLogger),
		APIKeys: cfg.APIKeys,
		Metrics: m,
		Logger:  baseLogger,
	}

	social := scanner.NewRegistry[domain.SocialProfile]()
	social.Register(parser.NewProfileScanner(httpClient, cfg.UserAgent))

	registry := scanner.NewRegistry[domain.RegistryRecord]()
	registry.Register(parser.NewOpenSanctionsScanner(httpClient, cfg.UserAgent))
	registry.Register(parser.NewSanctionsListScanner(httpClient, cfg.UserAgent))
	registry.Register(parser.NewScreeningScanner(httpClient, cfg.UserAgent))

	news := scanner.NewRegistry[domain.NewsArticle]()
	news.Register(parser.NewNewsSearchScanner(httpClient, cfg.UserAgent, baseLogger.With("component", "scanner.web_search")))
	news.Register(parser.NewNewsAPIScanner(httpClient, cfg.UserAgent))
	news.Register(parser.NewListingScanner(httpClient, cfg.UserAgent))

	var generator ports.TextGenerator
	if cfg.LLM.APIKey != "" {
		client, err := llm.NewChatGPTClient(cfg.LLM, httpClient, m, baseLogger)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		generator = client
	} else {
		baseLogger.Warn("no text generation key configured; analyses will use fallbacks")
	}

	var repository ports.ReportRepository
	if cfg.Database.DSN != "" {
		db, err := storage.Open(ctx, cfg.Database.DSN)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		repo := storage.NewPostgresRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			_ = store.Close()
			return nil, err
		}
		a.db = db
		repository = repo
	}

	var notifier ports.Notifier
	alertLevel := domain.RiskLevel("")
	if tg := cfg.Notifications.Telegram; tg.BotToken != "" && tg.ChatID != "" {
		notifier = telegram.NewNotifier(tg.BotToken, tg.ChatID)
		if level, ok := domain.ParseRiskLevel(tg.MinRisk); ok && level != domain.RiskUnknown {
			alertLevel = level
		} else {
			alertLevel = domain.RiskHigh
		}
	}

	a.orchestrator = usecase.NewOrchestrator(usecase.OrchestratorDeps{
		Social:     collector.NewSocial(cfg.Social, social, deps),
		Registry:   collector.NewRegistry(cfg.Registry, registry, deps),
		News:       collector.NewNews(cfg.News, news, newsEnricher(cfg.ML, httpClient), deps),
		Generator:  generator,
		Repository: repository,
		Notifier:   notifier,
		AlertLevel: alertLevel,
		Timeout:    cfg.Workflow.Timeout(),
		Metrics:    m,
		Logger:     baseLogger,
	})
	return a, nil
}

// OpenCache builds the configured cache store. A disabled cache gets no backend.
func OpenCache(ctx context.Context, cfg config.Config, m *metrics.Metrics, logger *slog.Logger) (*cache.Store, error) {
	opts := cache.Options{
		Enabled: cfg.Cache.IsEnabled(),
		TTL:     cfg.Cache.TTL(),
		Logger:  logger.With("component", "cache"),
		Metrics: m,
	}
	if !opts.Enabled {
		return cache.New(nil, opts), nil
	}

	var backend cache.Backend
	switch cfg.Cache.Backend {
	case config.CacheMemory:
		backend = cache.NewMemoryBackend()
	case config.CacheRedis:
		rb, err := cache.OpenRedis(ctx, cfg.Cache.RedisURL)
		if err != nil {
			return nil, err
		}
		backend = rb
	default:
		bb, err := cache.OpenBadger(cfg.Cache.Dir, logger)
		if err != nil {
			return nil, err
		}
		backend = bb
	}
	return cache.New(backend, opts), nil
}

func retryPolicy(rc config.RetryConfig, logger *slog.Logger) retry.Policy {
	p := retry.FromSeconds(rc.MaxRetries, rc.InitialBackoff, rc.MaxBackoff, rc.BackoffFactor)
	log := logger.With("component", "retry")
	p.Notify = func(attempt int, err error, next time.Duration) {
		log.Debug("source attempt failed", "attempt", attempt, "next", next, "error", err)
	}
	return p
}

func newsEnricher(cfg config.MLConfig, httpClient *http.Client) ports.NewsEnricher {
	local := matcher.LocalEnricher{Keywords: 10, Sentences: 3}
	if cfg.InferenceURL == "" {
		return local
	}
	return ml.Fallback{
		Primary:   ml.NewClient(cfg.InferenceURL, cfg.APIKey, httpClient),
		Secondary: local,
	}
}

// Search runs one workflow to completion.
func (a *Application) Search(ctx context.Context, name string) domain.Intelligence {
	return a.orchestrator.Run(ctx, name)
}

// Cache exposes the shared cache for maintenance commands.
func (a *Application) Cache() *cache.Store {
	return a.cache
}

// Serve runs the HTTP API and periodic cache eviction until ctx ends.
func (a *Application) Serve(ctx context.Context) error {
	jobs := httptransport.NewJobStore(a.orchestrator, httptransport.JobStoreOptions{
		MaxConcurrent: a.cfg.Workflow.MaxConcurrent,
		Logger:        a.logger,
	})

	maintenance := usecase.NewCacheMaintenance(
		scheduler.NewIntervalScheduler(a.cfg.Cache.EvictionInterval(), false), a.cache, a.logger)
	if a.cfg.Cache.IsEnabled() && a.cfg.Cache.EvictionInterval() > 0 {
		if err := maintenance.Start(ctx); err != nil {
			return fmt.Errorf("start cache maintenance: %w", err)
		}
	}

	server := &http.Server{
		Addr: a.cfg.Server.Addr,
		Handler: httptransport.NewRouter(httptransport.Deps{
			Jobs:     jobs,
			APIKey:   a.cfg.Server.APIKey,
			Gatherer: a.registry,
			Logger:   a.logger,
		}),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("api server starting", "addr", a.cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("server shutdown", "error", err)
	}
	if err := maintenance.Stop(shutdownCtx); err != nil {
		a.logger.Warn("cache maintenance stop", "error", err)
	}
	if err := jobs.Wait(shutdownCtx); err != nil {
		a.logger.Warn("searches still running at shutdown", "error", err)
	}
	return serveErr
}

// Close releases the cache backend and database connection.
func (a *Application) Close() error {
	var errs []error
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	if a.cache != nil {
		errs = append(errs, a.cache.Close())
	}
	return errors.Join(errs...)
}
