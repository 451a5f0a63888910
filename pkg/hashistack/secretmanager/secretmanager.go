package secretmanager

import (
	"context"
	"fmt"
	"os"
	"time"

	vault "github.com/hashicorp/vault-client-go"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("secretmanager", fx.Provide(ProvideVault))

const requestTimeout = 5 * time.Second

// ProvideVault reads VAULT_ADDR, VAULT_TOKEN and the other VAULT_* variables. Without VAULT_ADDR
// it returns nil and config loading skips the secrets overlay.
func ProvideVault() (*vault.Client, error) {
	addr := os.Getenv("VAULT_ADDR")
	if addr == "" {
		zap.L().Info("vault disabled, VAULT_ADDR not set")
		return nil, nil
	}

	client, err := vault.New(
		vault.WithEnvironment(),
		vault.WithRequestTimeout(requestTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("vault: client for %s: %w", addr, err)
	}
	return client, nil
}

// Ping reports whether vault answers its health endpoint.
func Ping(ctx context.Context, client *vault.Client) error {
	if _, err := client.Read(ctx, "/sys/health"); err != nil {
		return fmt.Errorf("vault: health: %w", err)
	}
	return nil
}
