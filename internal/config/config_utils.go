package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// applyFallbacks applies environment variable fallbacks
func (c *Config) applyFallbacks() {
	c.applyServerAPIKeyFallbacks()
	c.applyObservabilityDefaults()
	c.applyModelDefaults()
}

// applyServerAPIKeyFallbacks reads JOBFIT_SERVER_APIKEYS when no keys are
// configured and normalizes comma-separated entries.
func (c *Config) applyServerAPIKeyFallbacks() {
	if len(c.Server.APIKeys) == 0 {
		if apiKeysEnv := os.Getenv("JOBFIT_SERVER_APIKEYS"); apiKeysEnv != "" {
			c.Server.APIKeys = []string{apiKeysEnv}
		}
	}
	c.Server.APIKeys = splitAndTrim(strings.Join(c.Server.APIKeys, ","))
}

// ParseAPIKeys splits a comma-separated key list, dropping blanks.
func ParseAPIKeys(value string) []string {
	return splitAndTrim(value)
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// applyObservabilityDefaults applies default observability configuration values
func (c *Config) applyObservabilityDefaults() {
	if c.Observability.ServiceInstance == "" {
		c.Observability.ServiceInstance = generateServiceInstanceID(c.Observability.ServiceName)
	}
}

func (c *Config) applyModelDefaults() {
	c.Model.TrackingURI = strings.TrimRight(c.Model.TrackingURI, "/")
	if c.Model.TrackingURI == "" {
		c.Model.TrackingURI = "."
	}
	if strings.HasPrefix(c.Model.TrackingURI, "file://") {
		c.Model.TrackingURI = strings.TrimPrefix(c.Model.TrackingURI, "file://")
	}
	c.Model.Remote.URL = strings.TrimRight(c.Model.Remote.URL, "/")
}

// generateServiceInstanceID generates a unique service instance ID
func generateServiceInstanceID(serviceName string) string {
	if hostname, err := os.Hostname(); err == nil {
		return fmt.Sprintf("%s-%s", serviceName, hostname)
	}
	return fmt.Sprintf("%s-1", serviceName)
}

// ArtifactDir returns the run artifact location under the tracking URI.
func (c *Config) ArtifactDir() string {
	if c.IsS3TrackingURI() {
		return strings.Join([]string{c.Model.TrackingURI, c.Model.ExperimentID, c.Model.RunID, "artifacts"}, "/")
	}
	return filepath.Join(c.Model.TrackingURI, c.Model.ExperimentID, c.Model.RunID, "artifacts")
}

// logConfigurationSources logs a summary of configuration sources being used
func (c *Config) logConfigurationSources(configFileUsed string) {
	log.Println("[CONFIG] === Configuration Sources Summary ===")

	if configFileUsed != "" {
		log.Printf("[CONFIG] Config file: %s", configFileUsed)
	} else {
		log.Println("[CONFIG] Config file: None (using defaults)")
	}

	envVars := []string{
		"JOBFIT_MODEL_TRACKINGURI",
		"JOBFIT_MODEL_EXPERIMENTID",
		"JOBFIT_MODEL_RUNID",
		"JOBFIT_MODEL_CLUSTERSCONFIG",
		"JOBFIT_MODEL_BACKEND",
		"JOBFIT_MODEL_REMOTE_TOKEN",
		"JOBFIT_SERVER_PORT",
		"JOBFIT_SERVER_HOST",
		"JOBFIT_SERVER_APIKEYS",
		"JOBFIT_CACHE_PASSWORD",
		"JOBFIT_APP_LOGLEVEL",
		"JOBFIT_VAULT_ENABLED",
	}

	log.Println("[CONFIG] Environment variables:")
	hasEnvVars := false
	for _, envVar := range envVars {
		if value := os.Getenv(envVar); value != "" {
			if isSensitive(envVar) {
				log.Printf("[CONFIG]   %s=***MASKED***", envVar)
			} else {
				log.Printf("[CONFIG]   %s=%s", envVar, value)
			}
			hasEnvVars = true
		}
	}
	if !hasEnvVars {
		log.Println("[CONFIG]   None set")
	}

	log.Println("[CONFIG] === Key Configuration Values ===")
	log.Printf("[CONFIG] Model Backend: %s", c.Model.Backend)
	log.Printf("[CONFIG] Tracking URI: %s", c.Model.TrackingURI)
	log.Printf("[CONFIG] Experiment/Run: %s/%s", c.Model.ExperimentID, c.Model.RunID)
	log.Printf("[CONFIG] Clusters Config: %s", c.Model.ClustersConfig)
	log.Printf("[CONFIG] Simulation Workers: %d", c.Simulation.Workers)
	log.Printf("[CONFIG] Server Host: %s", c.Server.Host)
	log.Printf("[CONFIG] Server Port: %s", c.Server.Port)
	if len(c.Server.APIKeys) > 0 {
		log.Printf("[CONFIG] Server API Keys: ***CONFIGURED*** (%d)", len(c.Server.APIKeys))
	} else {
		log.Println("[CONFIG] Server API Keys: ***NOT SET***")
	}
	log.Printf("[CONFIG] Log Level: %s", c.App.LogLevel)
	log.Printf("[CONFIG] Cache Enabled: %t", c.Cache.Enabled)
	log.Printf("[CONFIG] Reload Enabled: %t", c.Reload.Enabled)
	log.Printf("[CONFIG] Vault Enabled: %t", c.Vault.Enabled)
	log.Printf("[CONFIG] Observability Enabled: %t", c.Observability.Enabled)
	log.Println("[CONFIG] =====================================")
}

func isSensitive(envVar string) bool {
	lower := strings.ToLower(envVar)
	return strings.Contains(lower, "key") || strings.Contains(lower, "token") || strings.Contains(lower, "password")
}
