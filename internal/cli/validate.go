package cli

import (
	"jobfit/internal/common"
	"jobfit/internal/types"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load the configured run and report its feature layout",
	Long: `Load the cluster config and the run artifacts exactly as 'serve' would and
report what was loaded: artifact location and fingerprint, job count, how
features map to cluster aggregates and skill indicators, and any configured
cluster that has no matching model feature.

Exits non-zero when anything fails to load, which makes it suitable as a
deployment check.`,
	Args: cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return resolveOutputFormat(cmd, &validateConfig)
	},
	RunE: runValidate,
}

var validateConfig common.CommandConfig

func init() {
	addOutputFlags(validateCmd, &validateConfig)
}

func runValidate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	svc, redis, err := loadService(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeCache(redis, logger)

	index := svc.Clusters()
	clusters := make(map[string][]string, len(index.Clusters()))
	for _, name := range index.Clusters() {
		clusters[name] = index.MembersOf(name)
	}

	report := types.ModelReport{Info: svc.Info(), Clusters: clusters}
	return common.NewOutputHandler(logger).HandleOutput(report, validateConfig)
}
