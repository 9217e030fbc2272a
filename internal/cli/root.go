package cli

import (
	"context"

	"jobfit/internal/config"
	"jobfit/internal/errors"

	"github.com/spf13/cobra"
)

// Define custom private types for context keys.
type configKeyType struct{}
type loggerKeyType struct{}

// Use variables of these types as the keys.
var configKey = configKeyType{}
var loggerKey = loggerKeyType{}

// modelFlags override the model section of the loaded configuration.
var modelFlags struct {
	trackingURI  string
	experimentID string
	runID        string
	clusters     string
	backend      string
	strictSkills bool
}

var rootCmd = &cobra.Command{
	Use:   "jobfit",
	Short: "Predict job fit from a skill list and recommend skills to learn",
	Long: `Jobfit scores a list of skills against the job titles of a trained
classification run and recommends which single additional skill would raise
the probability of a target job the most.

The run is located by tracking URI, experiment ID and run ID, either on the
local filesystem or on S3. Skill clusters are read from a YAML file.`,
	SilenceUsage:      true,
	PersistentPreRunE: applyModelFlags,
}

func Execute(ctx context.Context, cfg *config.Config, logger *errors.Logger) error {
	// Attach the config and logger to the context, making them available to all subcommands
	ctx = context.WithValue(ctx, configKey, cfg)
	ctx = context.WithValue(ctx, loggerKey, logger)
	rootCmd.SetContext(ctx)
	return rootCmd.Execute()
}

// getConfigFromContext is a helper function to get config from context
func getConfigFromContext(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey).(*config.Config); ok {
		return cfg
	}
	panic("config not found in context") // Should not happen if properly initialized
}

// getLoggerFromContext is a helper function to get logger from context
func getLoggerFromContext(ctx context.Context) *errors.Logger {
	if logger, ok := ctx.Value(loggerKey).(*errors.Logger); ok {
		return logger
	}
	panic("logger not found in context") // Should not happen if properly initialized
}

// applyModelFlags copies explicitly set persistent flags over the config.
func applyModelFlags(cmd *cobra.Command, _ []string) error {
	cfg := getConfigFromContext(cmd.Context())
	flags := cmd.Flags()

	if flags.Changed("tracking-uri") {
		cfg.Model.TrackingURI = modelFlags.trackingURI
	}
	if flags.Changed("experiment-id") {
		cfg.Model.ExperimentID = modelFlags.experimentID
	}
	if flags.Changed("run-id") {
		cfg.Model.RunID = modelFlags.runID
	}
	if flags.Changed("clusters") {
		cfg.Model.ClustersConfig = modelFlags.clusters
	}
	if flags.Changed("backend") {
		switch modelFlags.backend {
		case "local", "remote":
			cfg.Model.Backend = modelFlags.backend
		default:
			return errors.NewConfigError(errors.ErrCodeInvalidConfig,
				"--backend must be local or remote, got "+modelFlags.backend, nil)
		}
	}
	if flags.Changed("strict-skills") {
		cfg.Validation.StrictSkills = modelFlags.strictSkills
	}
	return nil
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&modelFlags.trackingURI, "tracking-uri", "", "Artifact root, a directory or s3://bucket/prefix (overrides config)")
	pf.StringVar(&modelFlags.experimentID, "experiment-id", "", "Experiment ID of the run (overrides config)")
	pf.StringVar(&modelFlags.runID, "run-id", "", "Run ID (overrides config)")
	pf.StringVar(&modelFlags.clusters, "clusters", "", "Skill clusters YAML file (overrides config)")
	pf.StringVar(&modelFlags.backend, "backend", "", "Classifier backend: local or remote (overrides config)")
	pf.BoolVar(&modelFlags.strictSkills, "strict-skills", false, "Reject skills outside the candidate universe")

	rootCmd.AddCommand(predictCmd)
	rootCmd.AddCommand(recommendCmd)
	rootCmd.AddCommand(skillsCmd)
	rootCmd.AddCommand(jobsCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
}
