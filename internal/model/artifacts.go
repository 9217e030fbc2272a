package model

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	apperrors "jobfit/internal/errors"
)

// Artifact file names inside a run's artifacts directory.
const (
	DataArtifact    = "data.json"
	ModelArtifact   = "model.json"
	MetricsArtifact = "metrics.json"
)

// Artifacts is everything loaded from one training run.
type Artifacts struct {
	Features []string
	Targets  []string
	// Model is nil when the run was loaded without the model file.
	Model   *LogisticSpec
	Metrics map[string]float64
	// Fingerprint identifies the artifact content, for cache keys.
	Fingerprint string
	Location    string
}

type dataArtifact struct {
	Features []string `json:"features_names"`
	Targets  []string `json:"targets_names"`
}

// LoadArtifacts reads and validates data.json and, when withModel is set,
// model.json. metrics.json is optional.
func LoadArtifacts(ctx context.Context, store Store, withModel bool) (*Artifacts, error) {
	hash := sha256.New()

	rawData, err := readArtifact(ctx, store, DataArtifact)
	if err != nil {
		return nil, err
	}
	if err := validateDocument("data", rawData); err != nil {
		return nil, malformed(store, DataArtifact, err)
	}
	var data dataArtifact
	if err := json.Unmarshal(rawData, &data); err != nil {
		return nil, malformed(store, DataArtifact, err)
	}
	hash.Write(rawData)

	arts := &Artifacts{
		Features: data.Features,
		Targets:  data.Targets,
		Location: store.Location(),
	}

	if withModel {
		rawModel, err := readArtifact(ctx, store, ModelArtifact)
		if err != nil {
			return nil, err
		}
		if err := validateDocument("model", rawModel); err != nil {
			return nil, malformed(store, ModelArtifact, err)
		}
		var spec LogisticSpec
		if err := json.Unmarshal(rawModel, &spec); err != nil {
			return nil, malformed(store, ModelArtifact, err)
		}
		if err := checkEstimatorTargets(spec, data.Targets); err != nil {
			return nil, err
		}
		arts.Model = &spec
		hash.Write(rawModel)
	}

	rawMetrics, err := store.Read(ctx, MetricsArtifact)
	switch {
	case err == nil:
		if err := validateDocument("metrics", rawMetrics); err != nil {
			return nil, malformed(store, MetricsArtifact, err)
		}
		if err := json.Unmarshal(rawMetrics, &arts.Metrics); err != nil {
			return nil, malformed(store, MetricsArtifact, err)
		}
	case !errors.Is(err, ErrArtifactNotFound):
		return nil, apperrors.NewArtifactError(apperrors.ErrCodeFileNotReadable,
			"failed to read "+MetricsArtifact, err).WithContext("location", store.Location())
	}

	arts.Fingerprint = hex.EncodeToString(hash.Sum(nil))[:16]
	return arts, nil
}

func readArtifact(ctx context.Context, store Store, name string) ([]byte, error) {
	raw, err := store.Read(ctx, name)
	if err == nil {
		return raw, nil
	}
	code := apperrors.ErrCodeFileNotReadable
	if errors.Is(err, ErrArtifactNotFound) {
		code = apperrors.ErrCodeArtifactNotFound
	}
	return nil, apperrors.NewArtifactError(code, "failed to read "+name, err).
		WithContext("location", store.Location())
}

func malformed(store Store, name string, err error) error {
	return apperrors.NewArtifactError(apperrors.ErrCodeArtifactMalformed, name+" is malformed", err).
		WithContext("location", store.Location())
}

func checkEstimatorTargets(spec LogisticSpec, targets []string) error {
	if len(spec.Estimators) != len(targets) {
		return apperrors.NewArtifactError(apperrors.ErrCodeArtifactInconsistent,
			fmt.Sprintf("model has %d estimators, data lists %d targets", len(spec.Estimators), len(targets)), nil)
	}
	for i, est := range spec.Estimators {
		if est.Target != targets[i] {
			return apperrors.NewArtifactError(apperrors.ErrCodeArtifactInconsistent,
				fmt.Sprintf("estimator %d scores %q, data lists %q", i, est.Target, targets[i]), nil)
		}
	}
	return nil
}
