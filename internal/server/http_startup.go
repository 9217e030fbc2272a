package server

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"jobfit/internal/config"
	"jobfit/internal/model"
	"jobfit/internal/observability"
)

// Start runs the HTTP server until ctx is cancelled or SIGINT/SIGTERM arrives.
func (s *Server) Start(ctx context.Context) error {
	om, err := s.initializeObservability()
	if err != nil {
		return err
	}
	defer s.shutdownObservability(om)

	s.Predictor.Metrics = om.GetMetrics()

	if err := s.startReloadWatcher(); err != nil {
		return err
	}
	if err := s.startVaultWatcher(); err != nil {
		s.cleanup()
		return err
	}

	httpServer := s.setupHTTPServer(om)
	s.displayServerInfo()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return s.startWithGracefulShutdown(ctx, httpServer)
}

// initializeObservability sets up observability components
func (s *Server) initializeObservability() (*observability.ObservabilityManager, error) {
	obsConfig := observability.GetObservabilityConfig(s.AppConfig, s.Version)
	om, err := observability.NewObservabilityManager(obsConfig, s.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}
	return om, nil
}

// shutdownObservability handles observability cleanup
func (s *Server) shutdownObservability(om *observability.ObservabilityManager) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := om.Shutdown(ctx); err != nil {
		s.Logger.LogError(err, "Failed to shutdown observability")
	}
}

// reloadTargets lists the files whose change should rebuild the predictor.
// Artifacts on S3 are not watched.
func (s *Server) reloadTargets() []string {
	files := []string{s.AppConfig.Model.ClustersConfig}
	if !s.AppConfig.IsS3TrackingURI() {
		dir := s.AppConfig.ArtifactDir()
		files = append(files,
			filepath.Join(dir, model.DataArtifact),
			filepath.Join(dir, model.ModelArtifact),
			filepath.Join(dir, model.MetricsArtifact),
		)
	}
	return files
}

func (s *Server) startReloadWatcher() error {
	if !s.AppConfig.Reload.Enabled {
		return nil
	}

	s.Watcher = NewReloadWatcher(s.reloadTargets(), s.AppConfig.Reload.DebounceDelay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		// failure is logged by Reload; the current model keeps serving
		_ = s.Predictor.Reload(ctx, "watcher")
	}, s.Logger)

	if err := s.Watcher.Start(); err != nil {
		return fmt.Errorf("failed to start reload watcher: %w", err)
	}
	return nil
}

// startVaultWatcher polls the API keys secret when Vault polling is configured.
func (s *Server) startVaultWatcher() error {
	vc := s.AppConfig.Vault
	if !vc.Enabled || vc.PollInterval <= 0 || vc.Secrets.APIKeys == "" {
		return nil
	}

	client, err := config.NewVaultClient(vc, s.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize vault client: %w", err)
	}

	var initial int64
	if secret, err := client.GetSecretV2(vc.Secrets.APIKeys); err == nil && secret != nil {
		initial = secret.Version
	}

	s.VaultWatcher = NewVaultWatcher(client, vc.Secrets.APIKeys, vc.PollInterval, initial, s.SetAPIKeys, s.Logger)
	return s.VaultWatcher.Start()
}

// Handler builds the full middleware chain. Exposed for tests and embedding.
func (s *Server) Handler(om *observability.ObservabilityManager) http.Handler {
	return requestIDMiddleware(om.HTTPMiddleware()(s.setupRoutes(om)))
}

// setupHTTPServer creates and configures the HTTP server
func (s *Server) setupHTTPServer(om *observability.ObservabilityManager) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf("%s:%s", s.Host, s.Port),
		Handler:           s.Handler(om),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.ReadTimeout,
		WriteTimeout:      s.WriteTimeout,
		IdleTimeout:       s.IdleTimeout,
	}
}

// startWithGracefulShutdown starts the HTTP server and handles graceful shutdown
func (s *Server) startWithGracefulShutdown(ctx context.Context, server *http.Server) error {
	serverErrors := make(chan error, 1)

	go func() {
		s.Logger.Info("Starting HTTP server", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	select {
	case err := <-serverErrors:
		s.cleanup()
		return fmt.Errorf("server failed to start: %w", err)
	case <-ctx.Done():
		s.Logger.Info("Received shutdown signal, starting graceful shutdown")
		return s.performGracefulShutdown(server)
	}
}

// performGracefulShutdown handles the graceful shutdown process
func (s *Server) performGracefulShutdown(server *http.Server) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s.cleanup()

	s.Logger.Info("Shutting down HTTP server...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		s.Logger.LogError(err, "Failed to shutdown server gracefully, forcing close")
		return server.Close()
	}

	s.Logger.Info("Server shutdown completed successfully")
	return nil
}

// cleanup stops the watchers and the rate limiter.
func (s *Server) cleanup() {
	if s.VaultWatcher != nil {
		_ = s.VaultWatcher.Stop()
	}
	if s.Watcher != nil {
		if err := s.Watcher.Stop(); err != nil {
			s.Logger.LogError(err, "Failed to stop reload watcher")
		}
	}
	if s.RateLimiter != nil {
		s.RateLimiter.Close()
		s.Logger.Info("Rate limiter cleaned up")
	}
}
