package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobfit/internal/cluster"
	apperrors "jobfit/internal/errors"
)

func newTestBuilder(t *testing.T, names []string, clusters map[string][]string, opts Options) *Builder {
	t.Helper()
	space, err := NewSpace(names)
	require.NoError(t, err)
	idx, err := cluster.New(clusters)
	require.NoError(t, err)
	b, err := NewBuilder(space, idx, opts)
	require.NoError(t, err)
	return b
}

var (
	testClusters = map[string][]string{
		"backend":  {"Python", "Go"},
		"frontend": {"JavaScript"},
	}
	testFeatures = []string{"JavaScript", "backend", "Python", "frontend", "SQL"}
)

func TestBuildClusterAggregatesAndIndicators(t *testing.T) {
	b := newTestBuilder(t, testFeatures, testClusters, Options{})

	vec := b.BuildFromList([]string{"Python"})
	assert.Equal(t, []float64{0, 1, 1, 0, 0}, vec)

	vec = b.BuildFromList([]string{"Python", "Go", "JavaScript", "SQL"})
	assert.Equal(t, []float64{1, 2, 1, 1, 1}, vec)
}

func TestBuildEmptySkillsIsAllZero(t *testing.T) {
	b := newTestBuilder(t, testFeatures, testClusters, Options{})
	assert.Equal(t, make([]float64, len(testFeatures)), b.BuildFromList(nil))
}

func TestBuildIgnoresUnknownSkills(t *testing.T) {
	b := newTestBuilder(t, testFeatures, testClusters, Options{})
	assert.Equal(t,
		b.BuildFromList([]string{"Python", "SQL"}),
		b.BuildFromList([]string{"Python", "SQL", "Fortran"}))
}

func TestBuildIsOrderAndDuplicateInvariant(t *testing.T) {
	b := newTestBuilder(t, testFeatures, testClusters, Options{})
	assert.Equal(t,
		b.BuildFromList([]string{"Go", "Python", "JavaScript"}),
		b.BuildFromList([]string{"JavaScript", "Python", "Go", "Python"}))
}

func TestAggregateBoundedByMembership(t *testing.T) {
	b := newTestBuilder(t, testFeatures, testClusters, Options{})
	universe := b.Universe()
	vec := b.BuildFromList(universe)

	pos, ok := b.Space().Position("backend")
	require.True(t, ok)
	assert.Equal(t, 2.0, vec[pos])
	for _, v := range vec {
		assert.GreaterOrEqual(t, v, 0.0)
	}
}

func TestSkillsAndUniverse(t *testing.T) {
	b := newTestBuilder(t, testFeatures, testClusters, Options{})
	assert.Equal(t, []string{"JavaScript", "Python", "SQL"}, b.Skills())
	assert.Equal(t, []string{"Go", "JavaScript", "Python", "SQL"}, b.Universe())
}

func TestUnusedClustersIgnoredUnlessStrict(t *testing.T) {
	clusters := map[string][]string{
		"backend": {"Python"},
		"devops":  {"Terraform"},
	}
	names := []string{"backend", "Python"}

	b := newTestBuilder(t, names, clusters, Options{})
	summary := b.Summary()
	assert.Equal(t, []string{"devops"}, summary.IgnoredClusters)
	assert.Equal(t, []string{"backend"}, summary.Aggregates)
	assert.Equal(t, 1, summary.Indicators)

	space, err := NewSpace(names)
	require.NoError(t, err)
	idx, err := cluster.New(clusters)
	require.NoError(t, err)
	_, err = NewBuilder(space, idx, Options{StrictClusters: true})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConfig))
}

func TestNewSpaceRejectsDuplicatesAndBlanks(t *testing.T) {
	_, err := NewSpace([]string{"Python", "Go", "Python"})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeArtifact))

	_, err = NewSpace([]string{"Python", ""})
	require.Error(t, err)

	_, err = NewSpace(nil)
	require.Error(t, err)
}

func TestKnows(t *testing.T) {
	b := newTestBuilder(t, testFeatures, testClusters, Options{})
	assert.True(t, b.Knows("Go"))
	assert.True(t, b.Knows("SQL"))
	assert.False(t, b.Knows("backend"))
	assert.False(t, b.Knows("Fortran"))
}

func TestDigestTracksClusterLayout(t *testing.T) {
	b := newTestBuilder(t, testFeatures, testClusters, Options{})
	same := newTestBuilder(t, testFeatures, map[string][]string{
		"frontend": {"JavaScript"},
		"backend":  {"Go", "Python", "Go"},
	}, Options{})
	moved := newTestBuilder(t, testFeatures, map[string][]string{
		"backend":  {"Python"},
		"frontend": {"JavaScript", "Go"},
	}, Options{})
	reordered := newTestBuilder(t, []string{"backend", "JavaScript", "Python", "frontend", "SQL"}, testClusters, Options{})

	assert.NotEmpty(t, b.Digest())
	assert.Equal(t, b.Digest(), same.Digest())
	assert.NotEqual(t, b.Digest(), moved.Digest())
	assert.NotEqual(t, b.Digest(), reordered.Digest())
}

func TestAffectsCoversMembersNamedLikeClusters(t *testing.T) {
	clusters := map[string][]string{
		"backend":  {"Python", "frontend"},
		"frontend": {"JavaScript"},
	}
	b := newTestBuilder(t, []string{"backend", "frontend", "Python"}, clusters, Options{})

	assert.False(t, b.Knows("frontend"))
	assert.True(t, b.Affects("frontend"))
	assert.True(t, b.Affects("Python"))
	assert.False(t, b.Affects("Fortran"))
	assert.Equal(t, []float64{1, 0, 0}, b.BuildFromList([]string{"frontend"}))
}

func TestEmptyClusterMappingMakesEveryFeatureAnIndicator(t *testing.T) {
	b := newTestBuilder(t, []string{"Python", "SQL"}, map[string][]string{}, Options{StrictClusters: true})

	assert.Equal(t, []float64{1, 0}, b.BuildFromList([]string{"Python"}))
	assert.Equal(t, []string{"Python", "SQL"}, b.Universe())
	assert.Empty(t, b.Summary().Aggregates)
}
