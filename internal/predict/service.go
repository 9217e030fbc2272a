package predict

import (
	"context"
	"sort"
	"strings"
	"time"

	"jobfit/internal/cluster"
	"jobfit/internal/errors"
	"jobfit/internal/features"
	"jobfit/internal/model"
)

// Options configures a Service.
type Options struct {
	Workers          int
	StrictSkills     bool
	StrictClusters   bool
	DefaultThreshold float64
	Cache            Cache
	Fingerprint      string
	Location         string
	Backend          string
	Metrics          map[string]float64
}

// Info describes the loaded model run.
type Info struct {
	Backend     string `json:"backend"`
	Location    string `json:"location"`
	Fingerprint string `json:"fingerprint"`
	// CacheNamespace scopes cached probabilities to the artifacts and the
	// resolved cluster layout.
	CacheNamespace string             `json:"cache_namespace"`
	LoadedAt       time.Time          `json:"loaded_at"`
	Features       features.Summary   `json:"features"`
	Jobs           int                `json:"jobs"`
	Universe       int                `json:"universe"`
	Metrics        map[string]float64 `json:"metrics,omitempty"`
}

// Service is the immutable context every request runs against: cluster index,
// feature space, classifier and the engine and simulator built from them.
// It is safe for concurrent use. Reloading builds a new Service.
type Service struct {
	clusters         *cluster.Index
	builder          *features.Builder
	classifier       model.Classifier
	engine           *Engine
	simulator        *Simulator
	strictSkills     bool
	defaultThreshold float64
	info             Info
}

// NewService validates that the cluster index, feature names and classifier
// fit together.
func NewService(clusters *cluster.Index, featureNames, targets []string, classifier model.Classifier, opts Options) (*Service, error) {
	space, err := features.NewSpace(featureNames)
	if err != nil {
		return nil, err
	}
	builder, err := features.NewBuilder(space, clusters, features.Options{StrictClusters: opts.StrictClusters})
	if err != nil {
		return nil, err
	}
	namespace := cacheNamespace(opts.Fingerprint, builder)
	engine, err := NewEngine(builder, classifier, targets, opts.Cache, namespace)
	if err != nil {
		return nil, err
	}

	universe := builder.Universe()
	return &Service{
		clusters:         clusters,
		builder:          builder,
		classifier:       classifier,
		engine:           engine,
		simulator:        NewSimulator(engine, universe, opts.Workers),
		strictSkills:     opts.StrictSkills,
		defaultThreshold: opts.DefaultThreshold,
		info: Info{
			Backend:        opts.Backend,
			Location:       opts.Location,
			Fingerprint:    opts.Fingerprint,
			CacheNamespace: namespace,
			LoadedAt:       time.Now().UTC(),
			Features:       builder.Summary(),
			Jobs:           len(targets),
			Universe:       len(universe),
			Metrics:        opts.Metrics,
		},
	}, nil
}

// ListSkills returns the individual skill features in model order.
func (s *Service) ListSkills() []string {
	return s.builder.Skills()
}

// ListJobs returns the job titles in model order.
func (s *Service) ListJobs() []string {
	return s.engine.Targets()
}

// Universe returns every skill the service recognizes, sorted.
func (s *Service) Universe() []string {
	return s.builder.Universe()
}

// Clusters exposes the cluster index.
func (s *Service) Clusters() *cluster.Index {
	return s.clusters
}

// PredictJobProbabilities scores a skill list against every job.
func (s *Service) PredictJobProbabilities(ctx context.Context, skills []string) (Prediction, error) {
	if err := s.checkSkills(skills); err != nil {
		return nil, err
	}
	return s.engine.Predict(ctx, skills)
}

// RecommendSkills ranks the skills that would most raise the probability of targetJob.
func (s *Service) RecommendSkills(ctx context.Context, skills []string, targetJob string, threshold float64) (Recommendations, error) {
	if err := s.checkSkills(skills); err != nil {
		return nil, err
	}
	return s.simulator.Recommend(ctx, skills, targetJob, threshold)
}

// SimulateSkills is RecommendSkills that also returns the baseline
// probability of targetJob and the candidate count.
func (s *Service) SimulateSkills(ctx context.Context, skills []string, targetJob string, threshold float64) (Simulation, error) {
	if err := s.checkSkills(skills); err != nil {
		return Simulation{}, err
	}
	return s.simulator.Simulate(ctx, skills, targetJob, threshold)
}

// CandidateCount returns how many skills a recommendation would simulate.
func (s *Service) CandidateCount(skills []string) int {
	return s.simulator.Candidates(skills)
}

// DefaultThreshold is the threshold used when a caller does not supply one.
func (s *Service) DefaultThreshold() float64 {
	return s.defaultThreshold
}

// Info describes the loaded run.
func (s *Service) Info() Info {
	return s.info
}

// ClassifierStats returns backend specific statistics, if any.
func (s *Service) ClassifierStats() map[string]any {
	if r, ok := s.classifier.(model.StatsReporter); ok {
		return r.Stats()
	}
	return map[string]any{"backend": s.info.Backend}
}

// IsHealthy is false when the classifier reports itself unavailable.
func (s *Service) IsHealthy() bool {
	if h, ok := s.classifier.(model.HealthChecker); ok {
		return h.IsHealthy()
	}
	return true
}

func (s *Service) checkSkills(skills []string) error {
	if !s.strictSkills {
		return nil
	}
	var unknown []string
	seen := make(map[string]struct{})
	for _, skill := range skills {
		if _, dup := seen[skill]; dup {
			continue
		}
		seen[skill] = struct{}{}
		if !s.builder.Knows(skill) {
			unknown = append(unknown, skill)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return errors.NewValidationError(errors.ErrCodeUnknownSkill,
		"unknown skills: "+strings.Join(unknown, ", "), nil).WithContext("skills", unknown)
}

func cacheNamespace(fingerprint string, builder *features.Builder) string {
	if fingerprint == "" {
		return builder.Digest()
	}
	return fingerprint + "-" + builder.Digest()
}
