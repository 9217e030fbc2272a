package predict

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "jobfit/internal/errors"
	"jobfit/internal/model"
)

func newTestSimulator(t *testing.T, clf model.Classifier, workers int) *Simulator {
	t.Helper()
	b := newTestBuilder(t)
	engine, err := NewEngine(b, clf, testTargets, nil, "run")
	require.NoError(t, err)
	return NewSimulator(engine, b.Universe(), workers)
}

func TestRecommendRanksByRelativeUplift(t *testing.T) {
	sim := newTestSimulator(t, linearClassifier(), 4)

	recs, err := sim.Recommend(context.Background(), []string{"Python"}, "Developer, back-end", 0)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, "Go", recs[0].Skill)
	assert.InDelta(t, 0.25, recs[0].Uplift, 1e-9)
	assert.Equal(t, "SQL", recs[1].Skill)
	assert.InDelta(t, 0.125, recs[1].Uplift, 1e-9)
}

func TestRecommendThresholdIsStrict(t *testing.T) {
	sim := newTestSimulator(t, linearClassifier(), 4)
	ctx := context.Background()

	all, err := sim.Recommend(ctx, []string{"Python"}, "Developer, back-end", -1)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "JavaScript", all[2].Skill)
	assert.InDelta(t, -0.25, all[2].Uplift, 1e-9)

	high, err := sim.Recommend(ctx, []string{"Python"}, "Developer, back-end", 0.2)
	require.NoError(t, err)
	require.Len(t, high, 1)
	assert.Equal(t, "Go", high[0].Skill)

	none, err := sim.Recommend(ctx, []string{"Python"}, "Developer, back-end", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRecommendIsSortedAndExcludesHeldSkills(t *testing.T) {
	sim := newTestSimulator(t, linearClassifier(), 2)
	held := []string{"Python", "SQL"}

	recs, err := sim.Recommend(context.Background(), held, "Developer, front-end", -100)
	require.NoError(t, err)
	for i, r := range recs {
		assert.NotContains(t, held, r.Skill)
		if i > 0 {
			assert.GreaterOrEqual(t, recs[i-1].Uplift, r.Uplift)
		}
	}
	assert.Equal(t, 2, sim.Candidates(held))
}

func TestRecommendBreaksTiesBySkillName(t *testing.T) {
	clf := &fakeClassifier{fn: func(x []float64) []model.ProbabilityPair {
		p := 0.4
		for _, v := range x {
			if v != 0 {
				p = 0.5
			}
		}
		return []model.ProbabilityPair{pair(p), pair(0.5)}
	}}
	sim := newTestSimulator(t, clf, 8)

	recs, err := sim.Recommend(context.Background(), nil, "Developer, back-end", 0)
	require.NoError(t, err)

	skills := make([]string, len(recs))
	for i, r := range recs {
		skills[i] = r.Skill
		assert.InDelta(t, 0.25, r.Uplift, 1e-9)
	}
	assert.Equal(t, []string{"Go", "JavaScript", "Python", "SQL"}, skills)
}

func TestRecommendIsDeterministicAcrossWorkerCounts(t *testing.T) {
	ctx := context.Background()
	serial, err := newTestSimulator(t, linearClassifier(), 1).Recommend(ctx, nil, "Developer, back-end", -1)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		parallel, err := newTestSimulator(t, linearClassifier(), 16).Recommend(ctx, nil, "Developer, back-end", -1)
		require.NoError(t, err)
		assert.Equal(t, serial, parallel)
	}
}

func TestRecommendRejectsZeroBaseline(t *testing.T) {
	clf := &fakeClassifier{fn: func([]float64) []model.ProbabilityPair {
		return []model.ProbabilityPair{pair(0), pair(0.3)}
	}}
	sim := newTestSimulator(t, clf, 2)

	_, err := sim.Recommend(context.Background(), []string{"Python"}, "Developer, back-end", 0)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeDegenerate))
	assert.Equal(t, int32(1), clf.calls.Load())
}

func TestRecommendValidatesInputs(t *testing.T) {
	sim := newTestSimulator(t, linearClassifier(), 2)
	ctx := context.Background()

	_, err := sim.Recommend(ctx, nil, "Astronaut", 0)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrCodeUnknownJob, appErr.Code)

	_, err = sim.Recommend(ctx, nil, "Developer, back-end", math.NaN())
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrCodeInvalidThreshold, appErr.Code)
}

func TestRecommendFailsWholeCallOnCandidateError(t *testing.T) {
	clf := &fakeClassifier{}
	clf.fn = func(x []float64) []model.ProbabilityPair {
		return []model.ProbabilityPair{pair(0.4), pair(0.4)}
	}
	failing := &erroringAfterFirst{inner: clf}
	sim := newTestSimulator(t, failing, 4)

	recs, err := sim.Recommend(context.Background(), nil, "Developer, back-end", 0)
	require.Error(t, err)
	assert.Nil(t, recs)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeModel))
}

type erroringAfterFirst struct {
	inner *fakeClassifier
}

func (e *erroringAfterFirst) PredictProba(ctx context.Context, x []float64) ([]model.ProbabilityPair, error) {
	if e.inner.calls.Load() >= 1 {
		return nil, fmt.Errorf("model server went away")
	}
	return e.inner.PredictProba(ctx, x)
}

type failAfter struct {
	ok     int32
	calls  atomic.Int32
	onCall func(n int32)
}

func (f *failAfter) PredictProba(_ context.Context, x []float64) ([]model.ProbabilityPair, error) {
	n := f.calls.Add(1)
	if f.onCall != nil {
		f.onCall(n)
	}
	if n > f.ok {
		return nil, apperrors.NewModelError(apperrors.ErrCodeModelInvocation, "model server went away", nil)
	}
	return []model.ProbabilityPair{pair(0.4), pair(0.4)}, nil
}

func TestRecommendStopsSchedulingAfterFailure(t *testing.T) {
	clf := &failAfter{ok: 1}
	sim := newTestSimulator(t, clf, 1)
	require.Equal(t, 4, sim.Candidates(nil))

	_, err := sim.Recommend(context.Background(), nil, "Developer, back-end", 0)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrCodeModelInvocation, appErr.Code)
	assert.Equal(t, int32(2), clf.calls.Load(), "baseline plus the failing candidate only")
}

func TestRecommendStopsSchedulingAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	clf := &failAfter{ok: 100, onCall: func(n int32) {
		if n == 2 {
			cancel()
		}
	}}
	sim := newTestSimulator(t, clf, 1)

	recs, err := sim.Recommend(ctx, nil, "Developer, back-end", 0)
	assert.Nil(t, recs)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrCodeModelCanceled, appErr.Code)
	assert.Equal(t, int32(2), clf.calls.Load())
}

func TestRecommendationsMarshalInRankOrder(t *testing.T) {
	recs := Recommendations{{Skill: "SQL", Uplift: 0.5}, {Skill: "Go", Uplift: 0.25}}
	raw, err := json.Marshal(recs)
	require.NoError(t, err)
	assert.Equal(t, `{"SQL":0.5,"Go":0.25}`, string(raw))
}
