package server

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"jobfit/internal/cluster"
	"jobfit/internal/config"
	"jobfit/internal/errors"
	"jobfit/internal/model"
	"jobfit/internal/predict"
)

var (
	testFeatures = []string{"backend", "frontend", "Python", "JavaScript", "SQL"}
	testTargets  = []string{"Developer, back-end", "Developer, front-end"}
)

// stubClassifier: back-end = 0.25 + 0.25*backend, front-end = 0.5*frontend.
type stubClassifier struct{}

func (stubClassifier) PredictProba(ctx context.Context, x []float64) ([]model.ProbabilityPair, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	back := 0.25 + 0.25*x[0]
	front := 0.5 * x[1]
	return []model.ProbabilityPair{{1 - back, back}, {1 - front, front}}, nil
}

func newTestService(t *testing.T, fingerprint string) *predict.Service {
	t.Helper()
	return newTestServiceWithClusters(t, fingerprint, map[string][]string{
		"backend":  {"Python", "Go"},
		"frontend": {"JavaScript"},
	})
}

func newTestServiceWithClusters(t *testing.T, fingerprint string, mapping map[string][]string) *predict.Service {
	t.Helper()
	clusters, err := cluster.New(mapping)
	require.NoError(t, err)

	svc, err := predict.NewService(clusters, testFeatures, testTargets, stubClassifier{}, predict.Options{
		Workers:     4,
		Fingerprint: fingerprint,
		Location:    "memory",
		Backend:     "local",
	})
	require.NoError(t, err)
	return svc
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = "0"
	cfg.Server.MaxRequestSize = 64 * 1024
	cfg.Simulation.Timeout = 5 * time.Second
	cfg.Simulation.Workers = 4
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	logger := errors.NewNopLogger()
	predictor := NewPredictor(newTestService(t, "fp-1"), nil, nil, logger)
	s := NewServer(cfg, "test", predictor, nil, logger)
	t.Cleanup(func() {
		if s.RateLimiter != nil {
			s.RateLimiter.Close()
		}
	})
	return s
}
