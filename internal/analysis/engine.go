package analysis

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"menushock/internal/catalog"
	"menushock/internal/models"

	"github.com/patrickmn/go-cache"
)

// Recorder receives analysis metrics
type Recorder interface {
	ObserveAnalysis(eventType, tier string, elapsed time.Duration)
	AnalysisFailed(reason string)
	CacheLookup(hit bool)
}

type nopRecorder struct{}

func (nopRecorder) ObserveAnalysis(string, string, time.Duration) {}
func (nopRecorder) AnalysisFailed(string)                         {}
func (nopRecorder) CacheLookup(bool)                              {}

type CacheConfig struct {
	TTL             time.Duration `yaml:"ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

// Engine serves analyses against the live catalog. Results are cached per
// catalog fingerprint, so a reload never serves stale results.
type Engine struct {
	provider catalog.Provider
	opts     Options
	cache    *cache.Cache
	recorder Recorder
	logger   *slog.Logger
}

// NewEngine returns an engine; recorder may be nil. A zero TTL disables
// caching.
func NewEngine(provider catalog.Provider, opts Options, cacheCfg CacheConfig, recorder Recorder, logger *slog.Logger) *Engine {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{provider: provider, opts: opts, recorder: recorder, logger: logger}
	if cacheCfg.TTL > 0 {
		e.cache = cache.New(cacheCfg.TTL, cacheCfg.CleanupInterval)
	}
	return e
}

// Options returns the engine's analysis options
func (e *Engine) Options() Options { return e.opts }

// Catalog returns the live catalog
func (e *Engine) Catalog() (*catalog.Catalog, error) {
	return e.provider.Current()
}

// Analyze runs one event. The returned result is shared with the cache and
// must not be modified.
func (e *Engine) Analyze(ctx context.Context, ev models.Event, category string) (*models.AnalysisResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, err := e.provider.Current()
	if err != nil {
		e.recorder.AnalysisFailed("catalog_unavailable")
		return nil, err
	}

	var key string
	if ev != nil && e.cache != nil {
		key = c.Fingerprint() + "|" + ev.Key() + "|" + strings.ToLower(strings.TrimSpace(category))
		if cached, found := e.cache.Get(key); found {
			e.recorder.CacheLookup(true)
			return cached.(*models.AnalysisResult), nil
		}
		e.recorder.CacheLookup(false)
	}

	opts := e.opts
	opts.Category = category
	start := time.Now()
	result, err := Analyze(c, ev, opts)
	if err != nil {
		reason := failureReason(err)
		e.recorder.AnalysisFailed(reason)
		e.logger.Warn("analysis failed", "reason", reason, "error", err)
		return nil, err
	}
	elapsed := time.Since(start)
	e.recorder.ObserveAnalysis(string(ev.Kind()), string(result.Risk.Tier), elapsed)
	e.logger.Debug("analysis completed",
		"event", ev.Key(),
		"affected_dishes", len(result.AffectedDishes),
		"risk", result.Risk.Tier,
		"duration", elapsed,
	)

	if e.cache != nil {
		e.cache.SetDefault(key, result)
	}
	return result, nil
}

func failureReason(err error) string {
	var malformed *models.MalformedEventError
	var unknown *models.UnknownIngredientError
	switch {
	case errors.As(err, &malformed):
		return "malformed_event"
	case errors.As(err, &unknown):
		return "unknown_ingredient"
	}
	return "internal"
}
