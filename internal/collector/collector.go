// Package collector runs every enabled source of one family concurrently and
// merges their accepted records.
package collector

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"PersonIntel/internal/cache"
	"PersonIntel/internal/config"
	"PersonIntel/internal/domain"
	"PersonIntel/internal/metrics"
	"PersonIntel/internal/ratelimit"
	"PersonIntel/internal/retry"
	"PersonIntel/internal/scanner"
)

// Deps are the services shared by every family collector.
type Deps struct {
	Cache   *cache.Store
	Limiter *ratelimit.Limiter
	Retry   retry.Policy
	APIKeys map[string]string
	Metrics *metrics.Metrics
	Logger  *slog.Logger
	Clock   func() time.Time
}

// Outcome is everything one family produced. Collect never fails; problems
// are reported through Errors.
type Outcome[R domain.SourceRecord] struct {
	Records    []R
	Checked    []string
	Successful []string
	Errors     []domain.ErrorEntry
}

// rules hold what differs between families.
type rules[R domain.SourceRecord] struct {
	score  func(name string, record R) R
	less   func(a, b R) bool
	enrich func(ctx context.Context, record R) (R, error)
	window bool
}

// Collector gathers records of type R from the sources of one family.
type Collector[R domain.SourceRecord] struct {
	family   domain.Family
	cfg      config.FamilyConfig
	registry *scanner.Registry[R]
	rules    rules[R]
	deps     Deps
	logger   *slog.Logger
}

type sourceResult[R domain.SourceRecord] struct {
	attempted bool
	ok        bool
	records   []R
	err       *domain.ErrorEntry
}

func newCollector[R domain.SourceRecord](family domain.Family, cfg config.FamilyConfig, registry *scanner.Registry[R], r rules[R], deps Deps) *Collector[R] {
	if deps.Cache == nil {
		deps.Cache = cache.New(nil, cache.Options{})
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if registry == nil {
		registry = scanner.NewRegistry[R]()
	}
	return &Collector[R]{
		family:   family,
		cfg:      cfg,
		registry: registry,
		rules:    r,
		deps:     deps,
		logger:   deps.Logger.With("component", "collector."+string(family)),
	}
}

// SourceID is the identifier used for cache keys, limiter windows and reporting.
func SourceID(family domain.Family, source string) string {
	return string(family) + ":" + source
}

// Family reports which family the collector serves.
func (c *Collector[R]) Family() domain.Family {
	return c.family
}

// Collect queries every enabled source for name. Each source writes only its
// own slot; slots are joined in configuration order.
func (c *Collector[R]) Collect(ctx context.Context, name string) Outcome[R] {
	sources := c.cfg.Sources
	slots := make([]sourceResult[R], len(sources))

	var g errgroup.Group
	for i, src := range sources {
		if !src.IsEnabled() {
			continue
		}
		i, src := i, src
		g.Go(func() error {
			slots[i] = c.collectSource(ctx, name, src)
			return nil
		})
	}
	_ = g.Wait()

	out := c.join(sources, slots)
	c.logger.Info("family collected",
		"records", len(out.Records),
		"checked", len(out.Checked),
		"successful", len(out.Successful),
		"errors", len(out.Errors))
	return out
}

func (c *Collector[R]) collectSource(ctx context.Context, name string, src config.SourceConfig) (res sourceResult[R]) {
	id := SourceID(c.family, src.Name)
	defer func() {
		if r := recover(); r != nil {
			res = c.fail(id, src.Name, fmt.Errorf("source panicked: %v", r))
		}
	}()

	key := c.deps.APIKeys[src.KeyName()]
	if src.RequiresAuth && key == "" {
		c.deps.Metrics.IncrementSourceOutcome(string(c.family), src.Name, "skipped")
		return c.fail(id, src.Name, &domain.ConfigurationError{Source: src.Name, Reason: "api key " + src.KeyName() + " is not set"})
	}
	sc, err := c.registry.Resolve(src.Scanner)
	if err != nil {
		c.deps.Metrics.IncrementSourceOutcome(string(c.family), src.Name, "skipped")
		return c.fail(id, src.Name, &domain.ConfigurationError{Source: src.Name, Reason: err.Error()})
	}

	if cached, hit := cache.GetJSON[[]R](ctx, c.deps.Cache, name, id); hit {
		// Scores are cached, the threshold may have moved since.
		kept := make([]R, 0, len(cached))
		for _, r := range cached {
			if r.Score() >= c.cfg.Threshold {
				kept = append(kept, r)
			}
		}
		c.deps.Metrics.IncrementSourceOutcome(string(c.family), src.Name, "cached")
		c.logger.Debug("cache hit", "source", id, "records", len(cached), "kept", len(kept))
		return sourceResult[R]{attempted: true, ok: true, records: kept}
	}

	if c.deps.Limiter != nil {
		started := time.Now()
		if err := c.deps.Limiter.Wait(ctx, id); err != nil {
			c.deps.Metrics.IncrementSourceOutcome(string(c.family), src.Name, "failed")
			return c.fail(id, src.Name, fmt.Errorf("rate limit wait: %w", err))
		}
		c.deps.Metrics.ObserveRateLimitWait(id, time.Since(started))
	}

	req := c.request(name, src, key)
	started := time.Now()
	raw, err := retry.Do(ctx, c.deps.Retry, func(ctx context.Context) ([]R, error) {
		return sc.Scan(ctx, req)
	})
	c.deps.Metrics.ObserveSourceLatency(string(c.family), src.Name, time.Since(started))
	if err != nil {
		c.deps.Metrics.IncrementSourceOutcome(string(c.family), src.Name, "failed")
		return c.fail(id, src.Name, err)
	}

	accepted := c.accept(ctx, name, id, raw)
	cache.SetJSON(ctx, c.deps.Cache, name, id, accepted)
	c.deps.Metrics.IncrementSourceOutcome(string(c.family), src.Name, "ok")
	c.logger.Debug("source collected", "source", id, "fetched", len(raw), "accepted", len(accepted))
	return sourceResult[R]{attempted: true, ok: true, records: accepted}
}

func (c *Collector[R]) request(name string, src config.SourceConfig, key string) scanner.Request {
	req := scanner.Request{
		Query:              name,
		Source:             src.Name,
		Endpoint:           src.Endpoint(),
		SearchURLTemplate:  src.SearchURLTemplate,
		ProfileURLTemplate: src.ProfileURLTemplate,
		APIKey:             key,
		Limit:              c.cfg.MaxResultsPerSource,
		Timeout:            src.Timeout(),
		Options:            src.Options,
	}
	if c.rules.window && c.cfg.TimeframeDays > 0 {
		now := c.deps.Clock()
		req.Until = now
		req.Since = now.AddDate(0, 0, -c.cfg.TimeframeDays)
	}
	return req
}

// accept scores candidates, drops those below the family threshold and
// enriches the survivors.
func (c *Collector[R]) accept(ctx context.Context, name, id string, raw []R) []R {
	accepted := make([]R, 0, len(raw))
	for _, r := range raw {
		r = c.rules.score(name, r)
		if r.Score() < c.cfg.Threshold {
			continue
		}
		accepted = append(accepted, r)
	}
	if limit := c.cfg.MaxResultsPerSource; limit > 0 && len(accepted) > limit {
		accepted = accepted[:limit]
	}

	if c.rules.enrich != nil && c.cfg.EnrichmentEnabled() {
		for i, r := range accepted {
			enriched, err := c.rules.enrich(ctx, r)
			if err != nil {
				c.logger.Warn("enrichment failed", "source", id, "url", r.CanonicalURL(), "error", err)
				continue
			}
			accepted[i] = enriched
		}
	}

	c.deps.Metrics.AddAccepted(string(c.family), len(accepted))
	return accepted
}

func (c *Collector[R]) fail(id, source string, err error) sourceResult[R] {
	c.logger.Warn("source failed", "source", id, "error", err)
	entry := domain.NewErrorEntry(id, source, err, c.deps.Clock())
	return sourceResult[R]{attempted: true, err: &entry}
}

// join concatenates slots in configuration order, drops records whose URL was
// already seen and sorts the rest with the family ordering.
func (c *Collector[R]) join(sources []config.SourceConfig, slots []sourceResult[R]) Outcome[R] {
	out := Outcome[R]{Records: []R{}}
	seen := map[string]struct{}{}

	for i, src := range sources {
		res := slots[i]
		if !res.attempted {
			continue
		}
		id := SourceID(c.family, src.Name)
		out.Checked = append(out.Checked, id)
		if res.ok {
			out.Successful = append(out.Successful, id)
		}
		if res.err != nil {
			out.Errors = append(out.Errors, *res.err)
		}
		for _, r := range res.records {
			if u := r.CanonicalURL(); u != "" {
				if _, dup := seen[u]; dup {
					continue
				}
				seen[u] = struct{}{}
			}
			out.Records = append(out.Records, r)
		}
	}

	sort.SliceStable(out.Records, func(i, j int) bool {
		return c.rules.less(out.Records[i], out.Records[j])
	})
	return out
}
