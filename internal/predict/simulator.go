package predict

import (
	"context"
	"fmt"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"jobfit/internal/errors"
	"jobfit/internal/features"
)

// Simulator ranks skills by how much adding each one raises the probability
// of a target job relative to the current baseline.
type Simulator struct {
	engine   *Engine
	universe []string
	workers  int
}

// NewSimulator evaluates candidates from universe with at most workers
// classifier calls in flight.
func NewSimulator(engine *Engine, universe []string, workers int) *Simulator {
	if workers < 1 {
		workers = 1
	}
	return &Simulator{
		engine:   engine,
		universe: append([]string(nil), universe...),
		workers:  workers,
	}
}

// Recommend returns every candidate skill whose uplift exceeds threshold,
// highest first with ties broken by skill name. Uplift is
// (p(target | skills + candidate) - p(target | skills)) / p(target | skills).
// A zero baseline makes uplift undefined and is reported as a degenerate
// baseline error.
func (s *Simulator) Recommend(ctx context.Context, skills []string, target string, threshold float64) (Recommendations, error) {
	sim, err := s.Simulate(ctx, skills, target, threshold)
	if err != nil {
		return nil, err
	}
	return sim.Recommendations, nil
}

// Simulate is Recommend that also reports the baseline probability of the
// target and how many candidates were simulated.
func (s *Simulator) Simulate(ctx context.Context, skills []string, target string, threshold float64) (Simulation, error) {
	ti, ok := s.engine.TargetIndex(target)
	if !ok {
		return Simulation{}, errors.NewValidationError(errors.ErrCodeUnknownJob,
			fmt.Sprintf("unknown target job %q", target), nil).WithContext("target_job", target)
	}
	if math.IsNaN(threshold) || math.IsInf(threshold, 0) {
		return Simulation{}, errors.NewValidationError(errors.ErrCodeInvalidThreshold, "threshold must be a finite number", nil)
	}

	available := features.SkillSet(skills)
	baseProbs, err := s.engine.probabilities(ctx, available)
	if err != nil {
		return Simulation{}, err
	}
	base := baseProbs[ti]
	if base == 0 {
		return Simulation{}, errors.NewDegenerateBaselineError(errors.ErrCodeDegenerateBaseline,
			"baseline probability for the target job is zero, relative uplift is undefined", nil).
			WithContext("target_job", target)
	}

	candidates := make([]string, 0, len(s.universe))
	for _, skill := range s.universe {
		if _, held := available[skill]; !held {
			candidates = append(candidates, skill)
		}
	}

	uplifts := make([]float64, len(candidates))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, candidate := range candidates {
		i, candidate := i, candidate
		if gCtx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			with := make(map[string]struct{}, len(available)+1)
			for skill := range available {
				with[skill] = struct{}{}
			}
			with[candidate] = struct{}{}

			probs, err := s.engine.probabilities(gCtx, with)
			if err != nil {
				return err
			}
			uplifts[i] = (probs[ti] - base) / base
			return nil
		})
	}
	err = g.Wait()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Simulation{}, errors.NewContextModelError("simulation", ctxErr)
	}
	if err != nil {
		return Simulation{}, err
	}

	out := make(Recommendations, 0, len(candidates))
	for i, candidate := range candidates {
		if uplifts[i] > threshold {
			out = append(out, SkillUplift{Skill: candidate, Uplift: uplifts[i]})
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Uplift != out[b].Uplift {
			return out[a].Uplift > out[b].Uplift
		}
		return out[a].Skill < out[b].Skill
	})
	return Simulation{Baseline: base, Candidates: len(candidates), Recommendations: out}, nil
}

// Candidates returns how many skills would be simulated for a skill list.
func (s *Simulator) Candidates(skills []string) int {
	available := features.SkillSet(skills)
	n := 0
	for _, skill := range s.universe {
		if _, held := available[skill]; !held {
			n++
		}
	}
	return n
}
