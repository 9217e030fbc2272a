package cli

import (
	"context"

	"jobfit/internal/cache"
	"jobfit/internal/common"
	"jobfit/internal/config"
	"jobfit/internal/errors"
	"jobfit/internal/predict"

	"github.com/spf13/cobra"
)

// loadService builds the predictor service for a command. The returned cache
// is nil unless caching is enabled and must be closed by the caller.
func loadService(ctx context.Context, cfg *config.Config, logger *errors.Logger) (*predict.Service, *cache.Redis, error) {
	var (
		redis     *cache.Redis
		predCache predict.Cache
	)
	if cfg.Cache.Enabled {
		redis = cache.NewRedis(ctx, cfg.Cache, logger)
		predCache = redis
	}

	svc, err := predict.Load(ctx, cfg, predCache, logger)
	if err != nil {
		closeCache(redis, logger)
		return nil, nil, err
	}
	return svc, redis, nil
}

func closeCache(redis *cache.Redis, logger *errors.Logger) {
	if err := redis.Close(); err != nil {
		logger.Warn("Failed to close cache", "error", err)
	}
}

// addOutputFlags registers --output and --format on a command.
func addOutputFlags(cmd *cobra.Command, out *common.CommandConfig) {
	cmd.Flags().StringVarP(&out.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&out.OutputFormat, "format", "", "Output format: json, text, or markdown")

	_ = cmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return common.NewOutputHandler(nil).GetSupportedFormats(), cobra.ShellCompDirectiveNoFileComp
	})
}

// resolveOutputFormat applies the default format and validates the choice.
func resolveOutputFormat(cmd *cobra.Command, out *common.CommandConfig) error {
	cfg := getConfigFromContext(cmd.Context())
	if out.OutputFormat == "" {
		out.OutputFormat = cfg.App.DefaultFormat
	}
	return common.ValidateOutputFormat(out.OutputFormat, cfg.App.SupportedFormats)
}

// addSkillFlags registers the skill source flags shared by predict and recommend.
func addSkillFlags(cmd *cobra.Command, input *common.SkillInput) {
	cmd.Flags().StringSliceVarP(&input.Skills, "skills", "s", nil, "Comma separated skills")
	cmd.Flags().StringVar(&input.SkillsFile, "skills-file", "", "File with one skill per line")
}
