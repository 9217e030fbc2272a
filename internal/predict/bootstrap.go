package predict

import (
	"context"
	"time"

	"jobfit/internal/cluster"
	"jobfit/internal/config"
	"jobfit/internal/errors"
	"jobfit/internal/model"
)

// Load builds a Service from configuration: cluster YAML, run artifacts and
// the configured classifier backend. cache may be nil.
func Load(ctx context.Context, cfg *config.Config, cache Cache, logger *errors.Logger) (*Service, error) {
	if err := cfg.ValidateModel(); err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, err.Error(), nil)
	}
	start := time.Now()

	clusters, err := cluster.LoadFile(cfg.Model.ClustersConfig)
	if err != nil {
		return nil, err
	}

	store, err := model.OpenStore(ctx, cfg.ArtifactDir(), model.S3Options{
		Region:       cfg.Model.S3.Region,
		Endpoint:     cfg.Model.S3.Endpoint,
		UsePathStyle: cfg.Model.S3.UsePathStyle,
		MaxSize:      cfg.App.MaxFileSize,
	})
	if err != nil {
		return nil, errors.NewArtifactError(errors.ErrCodeArtifactNotFound, "failed to open artifact store", err)
	}

	arts, err := model.LoadArtifacts(ctx, store, cfg.Model.Backend != "remote")
	if err != nil {
		return nil, err
	}

	classifier, err := model.NewClassifier(cfg.Model, arts, logger)
	if err != nil {
		return nil, err
	}

	svc, err := NewService(clusters, arts.Features, arts.Targets, classifier, Options{
		Workers:          cfg.Simulation.Workers,
		StrictSkills:     cfg.Validation.StrictSkills,
		StrictClusters:   cfg.Model.StrictClusters,
		DefaultThreshold: cfg.Simulation.DefaultThreshold,
		Cache:            cache,
		Fingerprint:      arts.Fingerprint,
		Location:         arts.Location,
		Backend:          cfg.Model.Backend,
		Metrics:          arts.Metrics,
	})
	if err != nil {
		return nil, err
	}

	summary := svc.Info().Features
	if len(summary.IgnoredClusters) > 0 && logger != nil {
		logger.Warn("Clusters without a model feature are ignored",
			"clusters", summary.IgnoredClusters)
	}
	if logger != nil {
		logger.Info("Model loaded",
			"location", arts.Location,
			"backend", cfg.Model.Backend,
			"fingerprint", arts.Fingerprint,
			"features", summary.Features,
			"aggregates", len(summary.Aggregates),
			"jobs", len(arts.Targets),
			"duration_ms", time.Since(start).Milliseconds())
	}
	return svc, nil
}
