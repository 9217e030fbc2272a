package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds all application configuration
// Secret precedence order:
// 1. Vault (if configured) - Highest priority
// 2. Config File values
// 3. Environment Variables (JOBFIT_SERVER_APIKEYS, JOBFIT_CACHE_PASSWORD, etc.)
// 4. Default values - Lowest priority
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Model         ModelConfig         `mapstructure:"model"`
	Simulation    SimulationConfig    `mapstructure:"simulation"`
	Validation    ValidationConfig    `mapstructure:"validation"`
	Cache         CacheConfig         `mapstructure:"cache"`
	Reload        ReloadConfig        `mapstructure:"reload"`
	Server        ServerConfig        `mapstructure:"server"`
	Vault         VaultConfig         `mapstructure:"vault"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// AppConfig holds general application configuration
type AppConfig struct {
	LogLevel         string   `mapstructure:"logLevel" validate:"oneof=debug info warn error"`
	DefaultFormat    string   `mapstructure:"defaultFormat" validate:"required"`
	SupportedFormats []string `mapstructure:"supportedFormats" validate:"min=1"`
	MaxFileSize      int64    `mapstructure:"maxFileSize" validate:"gt=0"`
}

// ModelConfig locates the trained model and the cluster definitions.
// Artifacts live at <trackingURI>/<experimentID>/<runID>/artifacts/.
type ModelConfig struct {
	Backend        string            `mapstructure:"backend" validate:"oneof=local remote"`
	TrackingURI    string            `mapstructure:"trackingURI" validate:"required"`
	ExperimentID   string            `mapstructure:"experimentID"`
	RunID          string            `mapstructure:"runID"`
	ClustersConfig string            `mapstructure:"clustersConfig" validate:"required"`
	StrictClusters bool              `mapstructure:"strictClusters"`
	Remote         RemoteModelConfig `mapstructure:"remote"`
	S3             S3Config          `mapstructure:"s3"`
}

// RemoteModelConfig configures an HTTP inference endpoint serving the same run.
type RemoteModelConfig struct {
	URL            string               `mapstructure:"url"`
	Token          string               `mapstructure:"token"`
	Timeout        time.Duration        `mapstructure:"timeout"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuitBreaker"`
}

// CircuitBreakerConfig represents circuit breaker configuration
type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`     // Whether circuit breaker is enabled
	MaxRequests      uint32        `mapstructure:"maxRequests"` // Max requests allowed when half-open
	Interval         time.Duration `mapstructure:"interval"`    // Interval to clear counts
	Timeout          time.Duration `mapstructure:"timeout"`     // Time to wait before half-open
	MinRequests      uint32        `mapstructure:"minRequests"` // Min requests before tripping
	FailureThreshold float64       `mapstructure:"failureThreshold" validate:"gte=0,lte=1"`
}

// S3Config configures artifact download when trackingURI is an s3:// URI.
type S3Config struct {
	Region       string `mapstructure:"region"`
	Endpoint     string `mapstructure:"endpoint"`
	UsePathStyle bool   `mapstructure:"usePathStyle"`
}

// SimulationConfig bounds the recommendation fan-out.
type SimulationConfig struct {
	Workers          int           `mapstructure:"workers" validate:"min=1,max=1024"`
	Timeout          time.Duration `mapstructure:"timeout" validate:"gt=0"`
	DefaultThreshold float64       `mapstructure:"defaultThreshold"`
}

// ValidationConfig controls request skill validation.
type ValidationConfig struct {
	StrictSkills bool `mapstructure:"strictSkills"`
}

// CacheConfig configures the Redis prediction cache.
type CacheConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Address   string        `mapstructure:"address"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db" validate:"gte=0"`
	TTL       time.Duration `mapstructure:"ttl"`
	KeyPrefix string        `mapstructure:"keyPrefix"`
}

// ReloadConfig controls hot reload of the cluster config and local artifacts.
type ReloadConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	DebounceDelay time.Duration `mapstructure:"debounceDelay"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           string        `mapstructure:"port" validate:"required"`
	ReadTimeout    time.Duration `mapstructure:"readTimeout"`
	WriteTimeout   time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout    time.Duration `mapstructure:"idleTimeout"`
	MaxRequestSize int64         `mapstructure:"maxRequestSize" validate:"gt=0"`

	// API Authentication
	APIKeys []string `mapstructure:"apiKeys"`

	RateLimit RateLimitConfig `mapstructure:"rateLimit"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	RequestsPerMin int           `mapstructure:"requestsPerMin"`
	BurstCapacity  int           `mapstructure:"burstCapacity"`
	ByIP           bool          `mapstructure:"byIP"`
	ByAPIKey       bool          `mapstructure:"byAPIKey"`
	Window         time.Duration `mapstructure:"window"`
	// RecommendCost is the number of tokens a recommendation request spends.
	RecommendCost int `mapstructure:"recommendCost" validate:"gte=0"`
}

// ObservabilityConfig holds observability configuration
type ObservabilityConfig struct {
	Enabled         bool             `mapstructure:"enabled"`
	ServiceName     string           `mapstructure:"serviceName"`
	ServiceVersion  string           `mapstructure:"serviceVersion"`
	ServiceInstance string           `mapstructure:"serviceInstance"`
	ConsoleOutput   bool             `mapstructure:"consoleOutput"`
	SampleRate      float64          `mapstructure:"sampleRate" validate:"gte=0,lte=1"`
	Tracing         TracingConfig    `mapstructure:"tracing"`
	Metrics         MetricsConfig    `mapstructure:"metrics"`
	Console         ConsoleConfig    `mapstructure:"console"`
	Prometheus      PrometheusConfig `mapstructure:"prometheus"`
	OTLP            OTLPConfig       `mapstructure:"otlp"`
}

// TracingConfig holds tracing configuration
type TracingConfig struct {
	Enabled    bool    `mapstructure:"enabled"`
	SampleRate float64 `mapstructure:"sampleRate"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	CollectionInterval time.Duration `mapstructure:"collectionInterval"`
}

// ConsoleConfig holds console output configuration
type ConsoleConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	PrettyPrint bool `mapstructure:"prettyPrint"`
}

// PrometheusConfig holds Prometheus configuration
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	Port     string `mapstructure:"port"`
}

// OTLPConfig holds OTLP exporter configuration
type OTLPConfig struct {
	Enabled  bool              `mapstructure:"enabled"`
	Endpoint string            `mapstructure:"endpoint"`
	Insecure bool              `mapstructure:"insecure"`
	Headers  map[string]string `mapstructure:"headers"`
}

// LoadConfig loads configuration from environment variables and a config
// file. JOBFIT_CONFIG names an explicit file and skips the search paths.
func LoadConfig() (*Config, error) {
	return Load(os.Getenv("JOBFIT_CONFIG"))
}

// Load reads configuration from configFile, or from the standard search
// paths when configFile is empty.
func Load(configFile string) (*Config, error) {
	log.Println("[CONFIG] Starting configuration loading process")

	v := viper.New()

	setDefaults(v)
	log.Println("[CONFIG] Applied default configuration values")

	v.SetEnvPrefix("JOBFIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	log.Println("[CONFIG] Configured environment variable handling with prefix 'JOBFIT'")

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/jobfit/")
		v.AddConfigPath("$HOME/.jobfit")
		v.AddConfigPath(".")
		log.Println("[CONFIG] Configured config file search paths: /etc/jobfit/, $HOME/.jobfit, .")
	}

	configFileUsed := ""
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		log.Println("[CONFIG] No config file found, using defaults and environment variables")
	} else {
		configFileUsed = v.ConfigFileUsed()
		log.Printf("[CONFIG] Successfully loaded config file: %s", configFileUsed)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	log.Println("[CONFIG] Successfully unmarshaled configuration")

	config.applyFallbacks()
	log.Println("[CONFIG] Applied configuration fallbacks and environment variable overrides")

	config.logConfigurationSources(configFileUsed)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log.Println("[CONFIG] Configuration loading completed successfully")
	return &config, nil
}

var validate = validator.New()

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}

	validFormats := make(map[string]bool)
	for _, format := range c.App.SupportedFormats {
		validFormats[format] = true
	}
	if !validFormats[c.App.DefaultFormat] {
		return fmt.Errorf("invalid default format: %s", c.App.DefaultFormat)
	}

	if c.Model.Backend == "remote" {
		if c.Model.Remote.URL == "" {
			return fmt.Errorf("model.remote.url is required when model.backend is remote")
		}
		if c.Model.Remote.Timeout <= 0 {
			return fmt.Errorf("model.remote.timeout must be positive")
		}
	}

	if c.Cache.Enabled {
		if c.Cache.Address == "" {
			return fmt.Errorf("cache.address is required when the cache is enabled")
		}
		if c.Cache.TTL <= 0 {
			return fmt.Errorf("cache.ttl must be positive")
		}
	}

	if c.Server.RateLimit.Enabled && c.Server.RateLimit.RequestsPerMin <= 0 {
		return fmt.Errorf("server.rateLimit.requestsPerMin must be positive")
	}

	return nil
}

// ValidateModel checks the settings needed to load a model run. Commands
// that never touch the model, like version, skip it.
func (c *Config) ValidateModel() error {
	if c.Model.ExperimentID == "" {
		return fmt.Errorf("model.experimentID is required (set JOBFIT_MODEL_EXPERIMENTID)")
	}
	if c.Model.RunID == "" {
		return fmt.Errorf("model.runID is required (set JOBFIT_MODEL_RUNID)")
	}
	return nil
}

// IsS3TrackingURI reports whether artifacts are fetched from S3.
func (c *Config) IsS3TrackingURI() bool {
	return strings.HasPrefix(c.Model.TrackingURI, "s3://")
}
