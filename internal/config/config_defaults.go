package config

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// App Configuration
	v.SetDefault("app.logLevel", "info")
	v.SetDefault("app.defaultFormat", "json")
	v.SetDefault("app.supportedFormats", []string{"json", "text", "markdown"})
	v.SetDefault("app.maxFileSize", 1024*1024) // 1MB

	// Model Configuration
	v.SetDefault("model.backend", "local")
	v.SetDefault("model.trackingURI", "./mlruns")
	v.SetDefault("model.experimentID", "")
	v.SetDefault("model.runID", "")
	v.SetDefault("model.clustersConfig", "./config/skills_clusters.yaml")
	v.SetDefault("model.strictClusters", false)
	v.SetDefault("model.remote.url", "")
	v.SetDefault("model.remote.token", "")
	v.SetDefault("model.remote.timeout", 5*time.Second)
	v.SetDefault("model.remote.circuitBreaker.enabled", true)
	v.SetDefault("model.remote.circuitBreaker.maxRequests", 3)
	v.SetDefault("model.remote.circuitBreaker.interval", 60*time.Second)
	v.SetDefault("model.remote.circuitBreaker.timeout", 30*time.Second)
	v.SetDefault("model.remote.circuitBreaker.minRequests", 5)
	v.SetDefault("model.remote.circuitBreaker.failureThreshold", 0.6)
	v.SetDefault("model.s3.region", "")
	v.SetDefault("model.s3.endpoint", "")
	v.SetDefault("model.s3.usePathStyle", false)

	// Simulation Configuration
	v.SetDefault("simulation.workers", 8)
	v.SetDefault("simulation.timeout", 30*time.Second)
	v.SetDefault("simulation.defaultThreshold", 0.0)

	v.SetDefault("validation.strictSkills", false)

	// Cache Configuration
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.address", "localhost:6379")
	v.SetDefault("cache.password", "")
	v.SetDefault("cache.db", 0)
	v.SetDefault("cache.ttl", 10*time.Minute)
	v.SetDefault("cache.keyPrefix", "jobfit:prediction")

	// Reload Configuration
	v.SetDefault("reload.enabled", false)
	v.SetDefault("reload.debounceDelay", time.Second)

	// Server Configuration
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.readTimeout", 30*time.Second)
	v.SetDefault("server.writeTimeout", 60*time.Second) // recommendations fan out
	v.SetDefault("server.idleTimeout", 120*time.Second)
	v.SetDefault("server.maxRequestSize", 64*1024)
	v.SetDefault("server.apiKeys", []string{})
	v.SetDefault("server.rateLimit.enabled", false)
	v.SetDefault("server.rateLimit.requestsPerMin", 60)
	v.SetDefault("server.rateLimit.burstCapacity", 10)
	v.SetDefault("server.rateLimit.byIP", true)
	v.SetDefault("server.rateLimit.byAPIKey", false)
	v.SetDefault("server.rateLimit.window", time.Minute)
	v.SetDefault("server.rateLimit.recommendCost", 1)

	// Vault Configuration
	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.address", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.tokenFile", "")
	v.SetDefault("vault.namespace", "")
	v.SetDefault("vault.pollInterval", "0s")
	v.SetDefault("vault.secrets.apiKeys", "")
	v.SetDefault("vault.secrets.cachePassword", "")
	v.SetDefault("vault.secrets.modelToken", "")

	// Observability Configuration
	v.SetDefault("observability.enabled", true)
	v.SetDefault("observability.serviceName", "jobfit")
	v.SetDefault("observability.serviceVersion", "")  // Will use app version if empty
	v.SetDefault("observability.serviceInstance", "") // Will be auto-generated if empty
	v.SetDefault("observability.consoleOutput", false)
	v.SetDefault("observability.sampleRate", 1.0)
	v.SetDefault("observability.tracing.enabled", true)
	v.SetDefault("observability.tracing.sampleRate", 1.0)
	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.collectionInterval", 15*time.Second)
	v.SetDefault("observability.console.enabled", false)
	v.SetDefault("observability.console.prettyPrint", true)
	v.SetDefault("observability.prometheus.enabled", true)
	v.SetDefault("observability.prometheus.endpoint", "/metrics")
	v.SetDefault("observability.prometheus.port", "9090")
	v.SetDefault("observability.otlp.enabled", false)
	v.SetDefault("observability.otlp.endpoint", "http://localhost:4318")
	v.SetDefault("observability.otlp.insecure", true)
	v.SetDefault("observability.otlp.headers", map[string]string{})
}
