package server

import (
	"sync/atomic"
	"time"

	"jobfit/internal/config"
	"jobfit/internal/errors"
)

// PredictRequest is the object form of the /predict_jobs_probs body. A bare
// JSON array of skills is accepted too.
type PredictRequest struct {
	AvailableSkills []string `json:"available_skills" validate:"max=5000,dive,max=256"`
}

// RecommendRequest represents the request body for /recommend_new_skills
type RecommendRequest struct {
	AvailableSkills []string `json:"available_skills" validate:"max=5000,dive,max=256"`
	TargetJob       string   `json:"target_job" validate:"required,max=256"`
	Threshold       *float64 `json:"threshold,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message,omitempty"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// statsSource is anything that can report its own counters, such as the cache.
type statsSource interface {
	Stats() map[string]any
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	// Full application configuration
	AppConfig *config.Config

	Predictor    *Predictor
	Cache        statsSource
	Watcher      *ReloadWatcher
	VaultWatcher *VaultWatcher

	// API keys may be rotated at runtime by the Vault watcher.
	apiKeys atomic.Pointer[map[string]bool]

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	MaxRequestSize    int64
	SimulationTimeout time.Duration

	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	Logger *errors.Logger
}

// NewServer creates a server for predictor from the application config.
// cache may be nil.
func NewServer(appCfg *config.Config, version string, predictor *Predictor, cache statsSource, logger *errors.Logger) *Server {
	rl := appCfg.Server.RateLimit
	var rateLimiter *RateLimiter
	if rl.Enabled {
		rateLimiter = NewRateLimiter(rl.RequestsPerMin, rl.BurstCapacity, logger)
	}

	s := &Server{
		Host:              appCfg.Server.Host,
		Port:              appCfg.Server.Port,
		Version:           version,
		AppConfig:         appCfg,
		Predictor:         predictor,
		Cache:             cache,
		ReadTimeout:       appCfg.Server.ReadTimeout,
		WriteTimeout:      appCfg.Server.WriteTimeout,
		IdleTimeout:       appCfg.Server.IdleTimeout,
		MaxRequestSize:    appCfg.Server.MaxRequestSize,
		SimulationTimeout: appCfg.Simulation.Timeout,
		RateLimit:         &rl,
		RateLimiter:       rateLimiter,
		Logger:            logger,
	}
	s.SetAPIKeys(appCfg.Server.APIKeys)
	return s
}

// SetAPIKeys replaces the accepted API keys. An empty list disables auth.
func (s *Server) SetAPIKeys(keys []string) {
	m := make(map[string]bool, len(keys))
	for _, key := range keys {
		if key != "" {
			m[key] = true
		}
	}
	s.apiKeys.Store(&m)
}

func (s *Server) currentAPIKeys() map[string]bool {
	if m := s.apiKeys.Load(); m != nil {
		return *m
	}
	return nil
}
