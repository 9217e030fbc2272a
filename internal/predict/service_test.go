package predict

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobfit/internal/config"
	apperrors "jobfit/internal/errors"
)

func TestServiceListings(t *testing.T) {
	svc := newTestService(t, linearClassifier(), Options{Fingerprint: "abc", Backend: "local"})

	assert.Equal(t, []string{"Python", "JavaScript", "SQL"}, svc.ListSkills())
	assert.Equal(t, testTargets, svc.ListJobs())
	assert.Equal(t, []string{"Go", "JavaScript", "Python", "SQL"}, svc.Universe())

	info := svc.Info()
	assert.Equal(t, "abc", info.Fingerprint)
	assert.True(t, strings.HasPrefix(info.CacheNamespace, "abc-"))
	assert.Equal(t, 5, info.Features.Features)
	assert.Equal(t, 2, info.Jobs)
	assert.True(t, svc.IsHealthy())
	assert.Equal(t, "local", svc.ClassifierStats()["backend"])
}

func TestServicePredictAndRecommend(t *testing.T) {
	svc := newTestService(t, linearClassifier(), Options{})
	ctx := context.Background()

	pred, err := svc.PredictJobProbabilities(ctx, []string{"Python", "Fortran"})
	require.NoError(t, err)
	p, ok := pred.Probability("Developer, back-end")
	require.True(t, ok)
	assert.InDelta(t, 0.4, p, 1e-12)

	recs, err := svc.RecommendSkills(ctx, []string{"Python"}, "Developer, back-end", svc.DefaultThreshold())
	require.NoError(t, err)
	require.NotEmpty(t, recs)
	assert.Equal(t, "Go", recs[0].Skill)
	assert.Equal(t, 3, svc.CandidateCount([]string{"Python"}))
}

func TestSimulateSkillsReportsBaseline(t *testing.T) {
	clf := linearClassifier()
	svc := newTestService(t, clf, Options{})
	ctx := context.Background()

	sim, err := svc.SimulateSkills(ctx, []string{"Python"}, "Developer, back-end", 0)
	require.NoError(t, err)
	assert.InDelta(t, 0.4, sim.Baseline, 1e-12)
	assert.Equal(t, 3, sim.Candidates)
	assert.Equal(t, int32(1+sim.Candidates), clf.calls.Load(), "one baseline plus one call per candidate")

	recs, err := svc.RecommendSkills(ctx, []string{"Python"}, "Developer, back-end", 0)
	require.NoError(t, err)
	assert.Equal(t, sim.Recommendations, recs)

	_, err = svc.SimulateSkills(ctx, []string{"Python"}, "Astronaut", 0)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestSharedCacheSeparatesClusterLayouts(t *testing.T) {
	cache := newMemoryCache()
	ctx := context.Background()
	before := newTestService(t, linearClassifier(), Options{Fingerprint: "fp", Cache: cache})
	after := newTestServiceWithClusters(t, map[string][]string{
		"backend":  {"Python"},
		"frontend": {"JavaScript", "Go"},
	}, linearClassifier(), Options{Fingerprint: "fp", Cache: cache})
	require.NotEqual(t, before.Info().CacheNamespace, after.Info().CacheNamespace)

	first, err := before.PredictJobProbabilities(ctx, []string{"Go"})
	require.NoError(t, err)
	second, err := after.PredictJobProbabilities(ctx, []string{"Go"})
	require.NoError(t, err)

	p1, _ := first.Probability("Developer, back-end")
	p2, _ := second.Probability("Developer, back-end")
	assert.InDelta(t, 0.4, p1, 1e-12)
	assert.InDelta(t, 0.2, p2, 1e-12)
	f2, _ := second.Probability("Developer, front-end")
	assert.InDelta(t, 0.5, f2, 1e-12)
	assert.Zero(t, cache.hits)
}

func TestServiceStrictSkills(t *testing.T) {
	svc := newTestService(t, linearClassifier(), Options{StrictSkills: true})

	_, err := svc.PredictJobProbabilities(context.Background(), []string{"Python", "Fortran", "Cobol", "Fortran"})
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrCodeUnknownSkill, appErr.Code)
	assert.Equal(t, []string{"Cobol", "Fortran"}, appErr.Context["skills"])

	_, err = svc.RecommendSkills(context.Background(), []string{"Fortran"}, "Developer, back-end", 0)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	_, err = svc.PredictJobProbabilities(context.Background(), []string{"Go"})
	assert.NoError(t, err)
}

func writeFile(t *testing.T, path string, v any) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	var raw []byte
	if s, ok := v.(string); ok {
		raw = []byte(s)
	} else {
		var err error
		raw, err = json.Marshal(v)
		require.NoError(t, err)
	}
	require.NoError(t, os.WriteFile(path, raw, 0o644))
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	artifacts := filepath.Join(root, "mlruns", "1", "run42", "artifacts")

	writeFile(t, filepath.Join(artifacts, "data.json"), map[string]any{
		"features_names": testFeatures,
		"targets_names":  testTargets,
	})
	writeFile(t, filepath.Join(artifacts, "model.json"), map[string]any{
		"model_type": "one_vs_rest_logistic",
		"estimators": []map[string]any{
			{"target": testTargets[0], "intercept": -1.0, "coefficients": []float64{0.9, -0.5, 0.2, -0.1, 0.4}},
			{"target": testTargets[1], "intercept": -1.5, "coefficients": []float64{-0.4, 1.2, 0, 0.3, 0}},
		},
	})
	writeFile(t, filepath.Join(root, "clusters.yaml"), "backend: [Python, Go]\nfrontend: [JavaScript]\n")

	return &config.Config{
		App: config.AppConfig{MaxFileSize: 1 << 20},
		Model: config.ModelConfig{
			Backend:        "local",
			TrackingURI:    filepath.Join(root, "mlruns"),
			ExperimentID:   "1",
			RunID:          "run42",
			ClustersConfig: filepath.Join(root, "clusters.yaml"),
		},
		Simulation: config.SimulationConfig{Workers: 4},
	}
}

func TestLoad(t *testing.T) {
	cfg := testConfig(t)
	svc, err := Load(context.Background(), cfg, nil, apperrors.NewNopLogger())
	require.NoError(t, err)

	assert.Equal(t, testTargets, svc.ListJobs())
	pred, err := svc.PredictJobProbabilities(context.Background(), []string{"Python", "Go"})
	require.NoError(t, err)
	require.Len(t, pred, 2)
	assert.Greater(t, pred[0].Probability, pred[1].Probability)
	assert.Len(t, svc.Info().Fingerprint, 16)
}

func TestLoadFailures(t *testing.T) {
	t.Run("missing run id", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Model.RunID = ""
		_, err := Load(context.Background(), cfg, nil, nil)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConfig))
	})

	t.Run("missing run directory", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Model.RunID = "nope"
		_, err := Load(context.Background(), cfg, nil, nil)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeArtifact))
	})

	t.Run("malformed clusters", func(t *testing.T) {
		cfg := testConfig(t)
		writeFile(t, cfg.Model.ClustersConfig, "- not\n- a mapping\n")
		_, err := Load(context.Background(), cfg, nil, nil)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConfig))
	})

	t.Run("strict clusters", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Model.StrictClusters = true
		writeFile(t, cfg.Model.ClustersConfig, "backend: [Python]\nfrontend: [JavaScript]\ndevops: [Terraform]\n")
		_, err := Load(context.Background(), cfg, nil, nil)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConfig))
	})
}
