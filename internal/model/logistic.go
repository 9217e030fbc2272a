package model

import (
	"context"
	"fmt"
	"math"

	apperrors "jobfit/internal/errors"
)

const logisticModelType = "one_vs_rest_logistic"

// Estimator is one binary logistic regression for a single target.
type Estimator struct {
	Target       string    `json:"target"`
	Intercept    float64   `json:"intercept"`
	Coefficients []float64 `json:"coefficients"`
}

// LogisticSpec is the decoded model.json artifact.
type LogisticSpec struct {
	ModelType  string      `json:"model_type"`
	Estimators []Estimator `json:"estimators"`
}

// LogisticClassifier evaluates a one-vs-rest logistic regression in process.
type LogisticClassifier struct {
	estimators []Estimator
	features   int
}

// NewLogisticClassifier checks that every estimator has one coefficient per feature.
func NewLogisticClassifier(spec LogisticSpec, features int) (*LogisticClassifier, error) {
	if spec.ModelType != logisticModelType {
		return nil, apperrors.NewArtifactError(apperrors.ErrCodeArtifactMalformed,
			fmt.Sprintf("unsupported model type %q", spec.ModelType), nil)
	}
	if len(spec.Estimators) == 0 {
		return nil, apperrors.NewArtifactError(apperrors.ErrCodeArtifactMalformed, "model has no estimators", nil)
	}
	for _, est := range spec.Estimators {
		if len(est.Coefficients) != features {
			return nil, apperrors.NewArtifactError(apperrors.ErrCodeArtifactInconsistent,
				fmt.Sprintf("estimator %q has %d coefficients, feature space has %d",
					est.Target, len(est.Coefficients), features), nil)
		}
	}

	estimators := make([]Estimator, len(spec.Estimators))
	copy(estimators, spec.Estimators)
	return &LogisticClassifier{estimators: estimators, features: features}, nil
}

func (c *LogisticClassifier) PredictProba(ctx context.Context, x []float64) ([]ProbabilityPair, error) {
	if len(x) != c.features {
		return nil, apperrors.NewModelError(apperrors.ErrCodeModelInvocation,
			fmt.Sprintf("feature vector has %d values, model expects %d", len(x), c.features), nil)
	}
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewContextModelError("prediction", err)
	}

	out := make([]ProbabilityPair, len(c.estimators))
	for i, est := range c.estimators {
		z := est.Intercept
		for j, w := range est.Coefficients {
			z += w * x[j]
		}
		p := sigmoid(z)
		out[i] = ProbabilityPair{1 - p, p}
	}
	return out, nil
}

// Targets returns the target each estimator scores, in output order.
func (c *LogisticClassifier) Targets() []string {
	out := make([]string, len(c.estimators))
	for i, est := range c.estimators {
		out[i] = est.Target
	}
	return out
}

// Stats describes the in-process model.
func (c *LogisticClassifier) Stats() map[string]any {
	return map[string]any{
		"backend":  "local",
		"targets":  len(c.estimators),
		"features": c.features,
	}
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
