package predict

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"jobfit/internal/errors"
	"jobfit/internal/features"
	"jobfit/internal/model"
)

// Engine turns a skill set into a Prediction with a single classifier call.
type Engine struct {
	builder     *features.Builder
	classifier  model.Classifier
	targets     []string
	targetIndex map[string]int
	cache       Cache
	cachePrefix string
}

// NewEngine wires a builder to a classifier scoring the given targets.
// cache may be nil. namespace scopes cache entries to one model run and
// feature layout.
func NewEngine(builder *features.Builder, classifier model.Classifier, targets []string, cache Cache, namespace string) (*Engine, error) {
	if len(targets) == 0 {
		return nil, errors.NewArtifactError(errors.ErrCodeArtifactInconsistent, "model has no targets", nil)
	}
	index := make(map[string]int, len(targets))
	for i, t := range targets {
		if _, dup := index[t]; dup {
			return nil, errors.NewArtifactError(errors.ErrCodeArtifactInconsistent,
				fmt.Sprintf("target %q is listed twice", t), nil)
		}
		index[t] = i
	}

	return &Engine{
		builder:     builder,
		classifier:  classifier,
		targets:     append([]string(nil), targets...),
		targetIndex: index,
		cache:       cache,
		cachePrefix: namespace,
	}, nil
}

// Predict scores a skill list. Order and duplicates do not matter and
// unknown skills are ignored.
func (e *Engine) Predict(ctx context.Context, skills []string) (Prediction, error) {
	probs, err := e.probabilities(ctx, features.SkillSet(skills))
	if err != nil {
		return nil, err
	}
	out := make(Prediction, len(e.targets))
	for i, job := range e.targets {
		out[i] = JobProbability{Job: job, Probability: probs[i]}
	}
	return out, nil
}

// Targets returns the job titles in model order.
func (e *Engine) Targets() []string {
	return append([]string(nil), e.targets...)
}

// TargetIndex returns the position of a job title.
func (e *Engine) TargetIndex(job string) (int, bool) {
	i, ok := e.targetIndex[job]
	return i, ok
}

// probabilities returns the positive-class probability per target.
func (e *Engine) probabilities(ctx context.Context, set map[string]struct{}) ([]float64, error) {
	key := ""
	if e.cache != nil {
		key = e.cacheKey(set)
		if probs, ok := e.cache.Get(ctx, key); ok && len(probs) == len(e.targets) {
			return probs, nil
		}
	}

	pairs, err := e.classifier.PredictProba(ctx, e.builder.Build(set))
	if err != nil {
		if errors.IsType(err, errors.ErrorTypeModel) {
			return nil, err
		}
		return nil, errors.NewModelError(errors.ErrCodeModelInvocation, "classifier failed", err)
	}
	if err := model.ValidatePairs(pairs, len(e.targets)); err != nil {
		return nil, err
	}

	probs := make([]float64, len(pairs))
	for i, p := range pairs {
		probs[i] = p.Positive()
	}

	if e.cache != nil {
		e.cache.Set(ctx, key, probs)
	}
	return probs, nil
}

// cacheKey hashes the skills of a set that reach the feature vector, in sorted
// order, so that every input yielding the same vector shares an entry.
func (e *Engine) cacheKey(set map[string]struct{}) string {
	relevant := make([]string, 0, len(set))
	for skill := range set {
		if e.builder.Affects(skill) {
			relevant = append(relevant, skill)
		}
	}
	sort.Strings(relevant)
	sum := sha256.Sum256([]byte(strings.Join(relevant, "\x1f")))
	return e.cachePrefix + ":" + hex.EncodeToString(sum[:])
}
