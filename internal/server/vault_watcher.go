package server

import (
	"fmt"
	"sync"
	"time"

	"jobfit/internal/config"
	"jobfit/internal/errors"
)

// VaultClientInterface defines the interface for Vault operations
type VaultClientInterface interface {
	GetSecretV2(path string) (*config.VaultSecret, error)
}

// APIKeysCallback receives the rotated key list.
type APIKeysCallback func(keys []string)

// VaultWatcher polls the API keys secret and reports a new key list whenever
// the secret version moves forward.
type VaultWatcher struct {
	mu sync.RWMutex

	client       VaultClientInterface
	secretPath   string
	pollInterval time.Duration
	onRotate     APIKeysCallback
	logger       *errors.Logger

	stopChan    chan struct{}
	running     bool
	lastVersion int64
}

// NewVaultWatcher creates a new VaultWatcher. initialVersion is the version
// already applied at startup, so polling only reacts to later writes.
func NewVaultWatcher(client VaultClientInterface, secretPath string, pollInterval time.Duration, initialVersion int64, onRotate APIKeysCallback, logger *errors.Logger) *VaultWatcher {
	return &VaultWatcher{
		client:       client,
		secretPath:   secretPath,
		pollInterval: pollInterval,
		onRotate:     onRotate,
		logger:       logger,
		stopChan:     make(chan struct{}),
		lastVersion:  initialVersion,
	}
}

// Start begins polling Vault for secret changes
func (vw *VaultWatcher) Start() error {
	vw.mu.Lock()
	defer vw.mu.Unlock()
	if vw.running {
		return fmt.Errorf("vault watcher is already running")
	}
	if vw.pollInterval <= 0 {
		return fmt.Errorf("vault poll interval must be positive")
	}
	vw.running = true
	go vw.pollLoop()
	if vw.logger != nil {
		vw.logger.Info("Vault watcher started", "secret_path", vw.secretPath, "poll_interval", vw.pollInterval.String())
	}
	return nil
}

// Stop stops the Vault watcher
func (vw *VaultWatcher) Stop() error {
	vw.mu.Lock()
	defer vw.mu.Unlock()
	if !vw.running {
		return nil
	}
	close(vw.stopChan)
	vw.running = false
	if vw.logger != nil {
		vw.logger.Info("Vault watcher stopped")
	}
	return nil
}

func (vw *VaultWatcher) pollLoop() {
	ticker := time.NewTicker(vw.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := vw.poll(); err != nil && vw.logger != nil {
				vw.logger.LogError(err, "Failed to check Vault for API key rotation")
			}
		case <-vw.stopChan:
			return
		}
	}
}

// poll reads the secret once and invokes the callback when it has a newer
// version carrying at least one key.
func (vw *VaultWatcher) poll() error {
	secret, err := vw.client.GetSecretV2(vw.secretPath)
	if err != nil {
		return fmt.Errorf("failed to read secret: %w", err)
	}
	if secret == nil {
		return fmt.Errorf("secret %s not found", vw.secretPath)
	}

	vw.mu.Lock()
	if secret.Version <= vw.lastVersion {
		vw.mu.Unlock()
		return nil
	}
	vw.lastVersion = secret.Version
	vw.mu.Unlock()

	raw, _ := secret.Data["keys"].(string)
	keys := config.ParseAPIKeys(raw)
	if len(keys) == 0 {
		return fmt.Errorf("secret %s version %d has no API keys, keeping current keys", vw.secretPath, secret.Version)
	}

	if vw.logger != nil {
		vw.logger.Info("API keys rotated from Vault", "version", secret.Version, "count", len(keys))
	}
	vw.onRotate(keys)
	return nil
}

// Status returns the current status of the VaultWatcher for health reporting
func (vw *VaultWatcher) Status() map[string]any {
	vw.mu.RLock()
	defer vw.mu.RUnlock()
	return map[string]any{
		"running":       vw.running,
		"poll_interval": vw.pollInterval.String(),
		"secret_path":   vw.secretPath,
		"last_version":  vw.lastVersion,
	}
}
