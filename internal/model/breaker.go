package model

import (
	"context"
	stderrors "errors"
	"fmt"

	"jobfit/internal/config"
	"jobfit/internal/errors"

	"github.com/sony/gobreaker/v2"
)

// CircuitBreaker guards calls to a remote classifier. A nil breaker passes
// calls straight through.
type CircuitBreaker struct {
	cb *gobreaker.CircuitBreaker[[]ProbabilityPair]
}

// NewCircuitBreaker returns nil when the breaker is disabled.
func NewCircuitBreaker(name string, cfg config.CircuitBreakerConfig, logger *errors.Logger) *CircuitBreaker {
	if !cfg.Enabled {
		return nil
	}

	settings := gobreaker.Settings{
		Name:        fmt.Sprintf("Model-%s", name),
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= cfg.MinRequests &&
				failureRatio >= cfg.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			var gone *abandonedError
			return err == nil || stderrors.As(err, &gone)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			if logger == nil {
				return
			}
			logger.Info("Circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
				"failure_threshold", cfg.FailureThreshold)
		},
	}

	return &CircuitBreaker{
		cb: gobreaker.NewCircuitBreaker[[]ProbabilityPair](settings),
	}
}

// abandonedError marks a failure observed after the caller's ctx ended.
type abandonedError struct{ err error }

func (e *abandonedError) Error() string { return e.err.Error() }
func (e *abandonedError) Unwrap() error { return e.err }

// Execute runs fn with circuit breaker protection. A call whose ctx is
// already done is not attempted, and a failure observed after ctx ended does
// not count toward tripping the breaker.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func() ([]ProbabilityPair, error)) ([]ProbabilityPair, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.NewContextModelError("prediction", err)
	}
	if cb == nil || cb.cb == nil {
		return fn()
	}

	out, err := cb.cb.Execute(func() ([]ProbabilityPair, error) {
		out, err := fn()
		if err != nil && ctx.Err() != nil {
			return nil, &abandonedError{err: err}
		}
		return out, err
	})
	var gone *abandonedError
	if stderrors.As(err, &gone) {
		return nil, gone.err
	}
	return out, err
}

// GetStats returns circuit breaker statistics
func (cb *CircuitBreaker) GetStats() map[string]any {
	if cb == nil || cb.cb == nil {
		return map[string]any{
			"enabled": false,
		}
	}

	return map[string]any{
		"name":    cb.cb.Name(),
		"state":   cb.cb.State().String(),
		"counts":  cb.cb.Counts(),
		"enabled": true,
	}
}

// IsHealthy returns true if the circuit breaker is in closed state
func (cb *CircuitBreaker) IsHealthy() bool {
	if cb == nil || cb.cb == nil {
		return true
	}
	return cb.cb.State() == gobreaker.StateClosed
}
