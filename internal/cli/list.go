package cli

import (
	"jobfit/internal/common"
	"jobfit/internal/types"

	"github.com/spf13/cobra"
)

var skillsCmd = &cobra.Command{
	Use:   "skills",
	Short: "List the skills the model knows",
	Long: `List the skills that appear as individual features of the model, sorted.
With --universe, list the full candidate universe used by 'recommend' instead:
individual features plus the members of every configured cluster.`,
	Args: cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return resolveOutputFormat(cmd, &skillsConfig)
	},
	RunE: runSkills,
}

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List the job titles the model predicts",
	Args:  cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return resolveOutputFormat(cmd, &jobsConfig)
	},
	RunE: runJobs,
}

var (
	skillsConfig   common.CommandConfig
	jobsConfig     common.CommandConfig
	skillsUniverse bool
)

func init() {
	addOutputFlags(skillsCmd, &skillsConfig)
	skillsCmd.Flags().BoolVar(&skillsUniverse, "universe", false, "List every candidate skill, cluster members included")
	addOutputFlags(jobsCmd, &jobsConfig)
}

func runSkills(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	svc, redis, err := loadService(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeCache(redis, logger)

	listing := types.Listing{Title: "Skills", Items: svc.ListSkills()}
	if skillsUniverse {
		listing = types.Listing{Title: "Candidate skills", Items: svc.Universe()}
	}
	return common.NewOutputHandler(logger).HandleOutput(listing, skillsConfig)
}

func runJobs(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	svc, redis, err := loadService(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeCache(redis, logger)

	return common.NewOutputHandler(logger).HandleOutput(
		types.Listing{Title: "Jobs", Items: svc.ListJobs()}, jobsConfig)
}
