package cli

import (
	"context"

	"jobfit/internal/predict"
	"jobfit/internal/server"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start an HTTP server exposing the predictor as a JSON API.

Available endpoints:
- GET  /skills: Skills known to the model
- GET  /jobs: Job titles the model predicts
- POST /predict_jobs_probs: Job probabilities for a skill list
- POST /recommend_new_skills: Ranked skill recommendations for a target job
- GET  /health: Health check endpoint
- GET  /stats: Server, cache and rate limiting statistics

With reload.enabled the cluster config and local artifacts are watched and the
model is rebuilt on change; a failed rebuild keeps the current model serving.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var serveFlags struct {
	port string
	host string
}

func init() {
	serveCmd.Flags().StringVarP(&serveFlags.port, "port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().StringVar(&serveFlags.host, "host", "", "Host to bind to (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	if cmd.Flags().Changed("port") {
		cfg.Server.Port = serveFlags.port
	}
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = serveFlags.host
	}

	svc, redis, err := loadService(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeCache(redis, logger)

	var predCache predict.Cache
	if redis != nil {
		predCache = redis
	}
	loader := func(ctx context.Context) (*predict.Service, error) {
		return predict.Load(ctx, cfg, predCache, logger)
	}

	predictor := server.NewPredictor(svc, loader, redis, logger)
	return server.NewServer(cfg, Version, predictor, redis, logger).Start(ctx)
}
