package cli

import (
	"context"

	"jobfit/internal/common"
	"jobfit/internal/types"

	"github.com/spf13/cobra"
)

var predictCmd = &cobra.Command{
	Use:   "predict [skill...]",
	Short: "Predict the probability of each job title for a skill list",
	Long: `Predict the probability of every job title the model was trained on,
given the skills a candidate already has.

Skills can be passed as arguments, with --skills, or in a file with
--skills-file. Unknown skills are ignored unless --strict-skills is set.
An empty skill list is valid and scores the all-zero profile.`,
	Example: `  jobfit predict Python SQL
  jobfit predict --skills "Python,Docker" --format text
  jobfit predict --skills-file skills.txt -o prediction.json`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return resolveOutputFormat(cmd, &predictConfig)
	},
	RunE: runPredict,
}

var (
	predictConfig common.CommandConfig
	predictInput  common.SkillInput
)

func init() {
	addOutputFlags(predictCmd, &predictConfig)
	addSkillFlags(predictCmd, &predictInput)
}

func runPredict(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	svc, redis, err := loadService(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeCache(redis, logger)

	input := predictInput
	input.Args = args
	input.MaxFileSize = cfg.App.MaxFileSize

	logDetails := func(skills []string, out common.CommandConfig) {
		logger.Info("Predicting job probabilities",
			"skills", len(skills),
			"output_format", out.OutputFormat)
	}

	operation := func(ctx context.Context, skills []string) (types.PredictionReport, error) {
		prediction, err := svc.PredictJobProbabilities(ctx, skills)
		if err != nil {
			return types.PredictionReport{}, err
		}
		return types.PredictionReport{Skills: skills, Prediction: prediction}, nil
	}

	return common.RunSkillsCommand(ctx, logger, predictConfig, input, operation, logDetails)
}
