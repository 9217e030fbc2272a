// Package model loads trained job classifiers and runs inference.
package model

import (
	"context"
	"fmt"
	"math"

	apperrors "jobfit/internal/errors"
)

// ProbabilityPair is a two-class probability: index 0 negative, index 1 positive.
type ProbabilityPair [2]float64

// Positive returns the positive-class probability.
func (p ProbabilityPair) Positive() float64 { return p[1] }

// Classifier scores one feature vector and returns a probability pair per
// target, in target order. Implementations must be safe for concurrent use.
type Classifier interface {
	PredictProba(ctx context.Context, features []float64) ([]ProbabilityPair, error)
}

// StatsReporter is implemented by classifiers with runtime state worth exposing.
type StatsReporter interface {
	Stats() map[string]any
}

// HealthChecker is implemented by classifiers that can become unavailable.
type HealthChecker interface {
	IsHealthy() bool
}

// ValidatePairs rejects output with the wrong arity or probabilities outside [0,1].
func ValidatePairs(pairs []ProbabilityPair, targets int) error {
	if len(pairs) != targets {
		return apperrors.NewModelError(apperrors.ErrCodeModelOutput,
			fmt.Sprintf("classifier returned %d probability pairs, expected %d", len(pairs), targets), nil)
	}
	for i, p := range pairs {
		for _, v := range p {
			if math.IsNaN(v) || v < 0 || v > 1 {
				return apperrors.NewModelError(apperrors.ErrCodeModelOutput,
					fmt.Sprintf("probability %v for target %d is outside [0,1]", v, i), nil)
			}
		}
	}
	return nil
}
