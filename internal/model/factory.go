package model

import (
	"jobfit/internal/config"
	"jobfit/internal/errors"
)

// NewClassifier builds the classifier selected by cfg.Backend for loaded artifacts.
func NewClassifier(cfg config.ModelConfig, arts *Artifacts, logger *errors.Logger) (Classifier, error) {
	switch cfg.Backend {
	case "remote":
		return NewRemoteClassifier(cfg.Remote, len(arts.Targets), logger), nil
	case "", "local":
		if arts.Model == nil {
			return nil, errors.NewArtifactError(errors.ErrCodeArtifactNotFound,
				"local backend requires "+ModelArtifact, nil).WithContext("location", arts.Location)
		}
		return NewLogisticClassifier(*arts.Model, len(arts.Features))
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			"unknown model backend "+cfg.Backend, nil)
	}
}
