package cli

import (
	"context"
	"time"

	"jobfit/internal/common"
	"jobfit/internal/types"

	"github.com/spf13/cobra"
)

var recommendCmd = &cobra.Command{
	Use:   "recommend [skill...] --target JOB",
	Short: "Recommend the skills that most raise the probability of a target job",
	Long: `Simulate adding each candidate skill, one at a time, to the current skill
list and rank the candidates by the relative change in the probability of the
target job. Only skills whose uplift exceeds --threshold are reported.

Recommendation fails when the current probability of the target job is zero,
since a relative uplift is undefined in that case.`,
	Example: `  jobfit recommend Python SQL --target "Data scientist or machine learning specialist"
  jobfit recommend --skills-file skills.txt --target "DevOps specialist" --threshold 0.05`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return resolveOutputFormat(cmd, &recommendConfig)
	},
	RunE: runRecommend,
}

var (
	recommendConfig    common.CommandConfig
	recommendInput     common.SkillInput
	recommendTarget    string
	recommendThreshold float64
)

func init() {
	addOutputFlags(recommendCmd, &recommendConfig)
	addSkillFlags(recommendCmd, &recommendInput)
	recommendCmd.Flags().StringVarP(&recommendTarget, "target", "t", "", "Target job title (see 'jobfit jobs')")
	recommendCmd.Flags().Float64Var(&recommendThreshold, "threshold", 0, "Minimum relative uplift to report (default from config)")
	_ = recommendCmd.MarkFlagRequired("target")
}

func runRecommend(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	svc, redis, err := loadService(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeCache(redis, logger)

	threshold := svc.DefaultThreshold()
	if cmd.Flags().Changed("threshold") {
		threshold = recommendThreshold
	}

	input := recommendInput
	input.Args = args
	input.MaxFileSize = cfg.App.MaxFileSize

	logDetails := func(skills []string, out common.CommandConfig) {
		logger.Info("Recommending skills",
			"target_job", recommendTarget,
			"skills", len(skills),
			"candidates", svc.CandidateCount(skills),
			"threshold", threshold,
			"output_format", out.OutputFormat)
	}

	operation := func(ctx context.Context, skills []string) (types.RecommendationReport, error) {
		if cfg.Simulation.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.Simulation.Timeout)
			defer cancel()
		}

		start := time.Now()
		sim, err := svc.SimulateSkills(ctx, skills, recommendTarget, threshold)
		if err != nil {
			return types.RecommendationReport{}, err
		}

		logger.Debug("Simulation finished",
			"recommended", len(sim.Recommendations),
			"duration_ms", time.Since(start).Milliseconds())

		return types.RecommendationReport{
			Skills:          skills,
			TargetJob:       recommendTarget,
			Threshold:       threshold,
			Baseline:        sim.Baseline,
			Candidates:      sim.Candidates,
			Recommendations: sim.Recommendations,
		}, nil
	}

	return common.RunSkillsCommand(ctx, logger, recommendConfig, input, operation, logDetails)
}
