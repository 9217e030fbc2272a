package server

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobfit/internal/errors"
	"jobfit/internal/predict"
)

type fakePurger struct {
	mu       sync.Mutex
	prefixes []string
}

func (f *fakePurger) Purge(_ context.Context, prefix string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prefixes = append(f.prefixes, prefix)
	return 3, nil
}

func TestPredictorReloadSwapsService(t *testing.T) {
	first := newTestService(t, "fp-1")
	second := newTestService(t, "fp-2")
	purger := &fakePurger{}

	p := NewPredictor(first, func(context.Context) (*predict.Service, error) {
		return second, nil
	}, purger, errors.NewNopLogger())

	snapshot := p.Current()
	require.NoError(t, p.Reload(context.Background(), "test"))

	assert.Same(t, second, p.Current())
	assert.Same(t, first, snapshot, "callers keep the snapshot they took")
	assert.Equal(t, []string{first.Info().CacheNamespace + ":"}, purger.prefixes)
	assert.True(t, strings.HasPrefix(purger.prefixes[0], "fp-1-"))

	m := p.GetMetrics()
	assert.Equal(t, int64(1), m.ReloadCount)
	assert.Equal(t, int64(1), m.ReloadSuccessCount)
	assert.True(t, m.LastReloadSuccess)
}

func TestPredictorReloadFailureKeepsCurrent(t *testing.T) {
	first := newTestService(t, "fp-1")
	p := NewPredictor(first, func(context.Context) (*predict.Service, error) {
		return nil, fmt.Errorf("model.json is malformed")
	}, nil, errors.NewNopLogger())

	err := p.Reload(context.Background(), "test")
	require.Error(t, err)
	assert.Same(t, first, p.Current())

	m := p.GetMetrics()
	assert.Equal(t, int64(1), m.ReloadFailureCount)
	assert.False(t, m.LastReloadSuccess)
	assert.Contains(t, m.LastReloadError, "malformed")
}

func TestPredictorSameFingerprintSkipsPurge(t *testing.T) {
	purger := &fakePurger{}
	p := NewPredictor(newTestService(t, "fp-1"), func(context.Context) (*predict.Service, error) {
		return newTestService(t, "fp-1"), nil
	}, purger, nil)

	require.NoError(t, p.Reload(context.Background(), "test"))
	assert.Empty(t, purger.prefixes)
}

func TestPredictorClusterChangePurgesUnderSameFingerprint(t *testing.T) {
	first := newTestService(t, "fp-1")
	second := newTestServiceWithClusters(t, "fp-1", map[string][]string{
		"backend":  {"Python"},
		"frontend": {"JavaScript", "Go"},
	})
	require.NotEqual(t, first.Info().CacheNamespace, second.Info().CacheNamespace)

	purger := &fakePurger{}
	p := NewPredictor(first, func(context.Context) (*predict.Service, error) {
		return second, nil
	}, purger, nil)

	require.NoError(t, p.Reload(context.Background(), "test"))
	assert.Equal(t, []string{first.Info().CacheNamespace + ":"}, purger.prefixes)
}

func TestPredictorWithoutLoader(t *testing.T) {
	p := NewPredictor(newTestService(t, "fp-1"), nil, nil, nil)
	assert.Error(t, p.Reload(context.Background(), "test"))
}

func TestReloadWatcherFiresOnChange(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "skills_clusters.yaml")
	require.NoError(t, os.WriteFile(file, []byte("backend: [Python]\n"), 0o600))

	fired := make(chan struct{}, 4)
	rw := NewReloadWatcher([]string{file, ""}, 50*time.Millisecond, func() {
		fired <- struct{}{}
	}, errors.NewNopLogger())

	require.NoError(t, rw.Start())
	t.Cleanup(func() { _ = rw.Stop() })
	assert.True(t, rw.IsRunning())
	assert.Len(t, rw.GetWatchedFiles(), 1)

	// ensure a distinct mod time on coarse filesystems
	later := time.Now().Add(2 * time.Second)
	require.NoError(t, os.WriteFile(file, []byte("backend: [Python, Go]\n"), 0o600))
	require.NoError(t, os.Chtimes(file, later, later))

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("reload callback was not invoked")
	}

	require.NoError(t, rw.Stop())
	assert.False(t, rw.IsRunning())
}

func TestReloadWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "model.json")
	require.NoError(t, os.WriteFile(file, []byte("{}"), 0o600))

	fired := make(chan struct{}, 1)
	rw := NewReloadWatcher([]string{file}, 20*time.Millisecond, func() {
		fired <- struct{}{}
	}, nil)
	require.NoError(t, rw.Start())
	t.Cleanup(func() { _ = rw.Stop() })

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))

	select {
	case <-fired:
		t.Fatal("unrelated file triggered a reload")
	case <-time.After(300 * time.Millisecond):
	}
}
