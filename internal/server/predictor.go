package server

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"jobfit/internal/errors"
	"jobfit/internal/observability"
	"jobfit/internal/predict"
)

// LoaderFunc builds a fresh predictor service.
type LoaderFunc func(ctx context.Context) (*predict.Service, error)

// purger is implemented by caches that can drop entries of a retired model.
type purger interface {
	Purge(ctx context.Context, keyPrefix string) (int, error)
}

// ReloadMetrics tracks predictor reloads
type ReloadMetrics struct {
	ReloadCount        int64     `json:"reload_count"`
	ReloadSuccessCount int64     `json:"reload_success_count"`
	ReloadFailureCount int64     `json:"reload_failure_count"`
	LastReloadTime     time.Time `json:"last_reload_time"`
	LastReloadSuccess  bool      `json:"last_reload_success"`
	LastReloadError    string    `json:"last_reload_error,omitempty"`
}

// Predictor holds the current predictor service. Requests take a snapshot with
// Current and keep using it even if a reload swaps in a new one meanwhile.
type Predictor struct {
	current atomic.Pointer[predict.Service]
	loader  LoaderFunc
	cache   any
	logger  *errors.Logger

	// Metrics is optional; a nil value records nothing.
	Metrics *observability.Metrics

	reloadMu sync.Mutex
	statsMu  sync.RWMutex
	stats    ReloadMetrics
}

// NewPredictor wraps an already loaded service. cache may be nil; when it can
// purge, entries of a replaced model are dropped after a reload.
func NewPredictor(initial *predict.Service, loader LoaderFunc, cache any, logger *errors.Logger) *Predictor {
	p := &Predictor{loader: loader, cache: cache, logger: logger}
	p.current.Store(initial)
	return p
}

// Current returns the service in effect.
func (p *Predictor) Current() *predict.Service {
	return p.current.Load()
}

// Reload builds a new service and swaps it in. On failure the previous one
// keeps serving.
func (p *Predictor) Reload(ctx context.Context, trigger string) error {
	if p.loader == nil {
		return errors.NewInternalError(errors.ErrCodeInvalidConfig, "predictor has no loader", nil)
	}

	p.reloadMu.Lock()
	defer p.reloadMu.Unlock()

	start := time.Now()
	next, err := p.loader(ctx)
	p.record(err)
	p.Metrics.RecordReload(ctx, trigger, err == nil)

	if err != nil {
		if p.logger != nil {
			p.logger.LogError(err, "Predictor reload failed, keeping current model", "trigger", trigger)
		}
		return err
	}

	prev := p.current.Swap(next)
	if p.logger != nil {
		p.logger.Info("Predictor reloaded",
			"trigger", trigger,
			"fingerprint", next.Info().Fingerprint,
			"duration_ms", time.Since(start).Milliseconds())
	}

	if prev != nil && prev.Info().CacheNamespace != next.Info().CacheNamespace {
		p.purge(ctx, prev.Info().CacheNamespace)
	}
	return nil
}

func (p *Predictor) purge(ctx context.Context, namespace string) {
	c, ok := p.cache.(purger)
	if !ok || namespace == "" {
		return
	}
	n, err := c.Purge(ctx, namespace+":")
	if p.logger == nil {
		return
	}
	if err != nil {
		p.logger.Warn("Failed to purge cached predictions", "namespace", namespace, "error", err.Error())
		return
	}
	p.logger.Debug("Purged cached predictions", "namespace", namespace, "deleted", n)
}

func (p *Predictor) record(err error) {
	p.statsMu.Lock()
	defer p.statsMu.Unlock()

	p.stats.ReloadCount++
	p.stats.LastReloadTime = time.Now().UTC()
	p.stats.LastReloadSuccess = err == nil
	if err != nil {
		p.stats.ReloadFailureCount++
		p.stats.LastReloadError = err.Error()
		return
	}
	p.stats.ReloadSuccessCount++
	p.stats.LastReloadError = ""
}

// GetMetrics returns a copy of the reload counters.
func (p *Predictor) GetMetrics() ReloadMetrics {
	p.statsMu.RLock()
	defer p.statsMu.RUnlock()
	return p.stats
}
