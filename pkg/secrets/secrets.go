// Package secrets resolves provider API keys. When Vault is configured the
// keys are fetched from a KV secret; otherwise they come from the environment.
package secrets

import (
	"context"
	"os"

	"ai-companion-demo/backend/pkg/logger"
)

// Manager provides access to secrets from various sources
type Manager interface {
	// GetSecret retrieves a secret by key
	GetSecret(ctx context.Context, key string) (string, error)

	// GetSecretWithDefault retrieves a secret with a default value if not found
	GetSecretWithDefault(ctx context.Context, key, defaultValue string) string
}

// NewManagerFromEnv returns a Vault-backed manager when VAULT_ADDR is set and
// an environment-variable manager otherwise.
func NewManagerFromEnv(log *logger.Logger) (Manager, error) {
	if os.Getenv("VAULT_ADDR") != "" {
		return NewVaultManager(log)
	}
	return EnvManager{}, nil
}

// EnvManager reads secrets straight from environment variables.
type EnvManager struct{}

func (EnvManager) GetSecret(_ context.Context, key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", ErrSecretNotFound
	}
	return value, nil
}

func (EnvManager) GetSecretWithDefault(ctx context.Context, key, defaultValue string) string {
	value, err := EnvManager{}.GetSecret(ctx, key)
	if err != nil {
		return defaultValue
	}
	return value
}
