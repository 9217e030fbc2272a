package predict

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"jobfit/internal/cluster"
	"jobfit/internal/features"
	"jobfit/internal/model"
)

// Feature layout shared by the tests:
// [backend, frontend, Python, JavaScript, SQL]
var (
	testFeatures = []string{"backend", "frontend", "Python", "JavaScript", "SQL"}
	testTargets  = []string{"Developer, back-end", "Developer, front-end"}
	testClusters = map[string][]string{
		"backend":  {"Python", "Go"},
		"frontend": {"JavaScript"},
	}
)

type fakeClassifier struct {
	fn    func(x []float64) []model.ProbabilityPair
	err   error
	calls atomic.Int32
}

func (f *fakeClassifier) PredictProba(_ context.Context, x []float64) ([]model.ProbabilityPair, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.fn(x), nil
}

func pair(p float64) model.ProbabilityPair { return model.ProbabilityPair{1 - p, p} }

// linearClassifier: back-end = 0.3 + 0.1*backend - 0.1*frontend + 0.05*SQL,
// front-end = 0.2 + 0.3*frontend.
func linearClassifier() *fakeClassifier {
	return &fakeClassifier{fn: func(x []float64) []model.ProbabilityPair {
		return []model.ProbabilityPair{
			pair(0.3 + 0.1*x[0] - 0.1*x[1] + 0.05*x[4]),
			pair(0.2 + 0.3*x[1]),
		}
	}}
}

type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]float64
	hits    int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]float64)}
}

func (c *memoryCache) Get(_ context.Context, key string) ([]float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	if ok {
		c.hits++
	}
	return append([]float64(nil), v...), ok
}

func (c *memoryCache) Set(_ context.Context, key string, probs []float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = append([]float64(nil), probs...)
}

func newTestBuilder(t *testing.T) *features.Builder {
	t.Helper()
	space, err := features.NewSpace(testFeatures)
	require.NoError(t, err)
	idx, err := cluster.New(testClusters)
	require.NoError(t, err)
	b, err := features.NewBuilder(space, idx, features.Options{})
	require.NoError(t, err)
	return b
}

func newTestService(t *testing.T, clf model.Classifier, opts Options) *Service {
	t.Helper()
	return newTestServiceWithClusters(t, testClusters, clf, opts)
}

func newTestServiceWithClusters(t *testing.T, clusters map[string][]string, clf model.Classifier, opts Options) *Service {
	t.Helper()
	idx, err := cluster.New(clusters)
	require.NoError(t, err)
	if opts.Workers == 0 {
		opts.Workers = 4
	}
	svc, err := NewService(idx, testFeatures, testTargets, clf, opts)
	require.NoError(t, err)
	return svc
}
