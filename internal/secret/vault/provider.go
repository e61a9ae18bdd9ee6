// Package vault implements a secret provider that reads API keys from
// HashiCorp Vault.
package vault

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	vault "github.com/hashicorp/vault/api"
)

// Provider implements the secret.Provider interface for HashiCorp Vault.
type Provider struct {
	client *vault.Client
	logger *slog.Logger
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// Config holds configuration for the Vault provider.
type Config struct {
	Address  string
	Token    string // static token auth
	RoleID   string // approle auth
	SecretID string
	CACert   string
	Logger   *slog.Logger
}

// New creates a new Vault provider. A static token wins over AppRole
// credentials when both are set.
func New(cfg Config) (*Provider, error) {
	vConfig := vault.DefaultConfig()
	vConfig.Address = cfg.Address

	if cfg.CACert != "" {
		if err := vConfig.ConfigureTLS(&vault.TLSConfig{CACert: cfg.CACert}); err != nil {
			return nil, fmt.Errorf("configure tls: %w", err)
		}
	}

	client, err := vault.NewClient(vConfig)
	if err != nil {
		return nil, fmt.Errorf("create vault client: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	p := &Provider{
		client: client,
		logger: logger,
		stopCh: make(chan struct{}),
	}

	switch {
	case cfg.Token != "":
		client.SetToken(cfg.Token)

	case cfg.RoleID != "":
		secret, err := client.Logical().Write("auth/approle/login", map[string]interface{}{
			"role_id":   cfg.RoleID,
			"secret_id": cfg.SecretID,
		})
		if err != nil {
			return nil, fmt.Errorf("vault approle login: %w", err)
		}
		if secret == nil || secret.Auth == nil {
			return nil, fmt.Errorf("vault login returned no auth info")
		}
		client.SetToken(secret.Auth.ClientToken)

		p.wg.Add(1)
		go p.startTokenRenewer(secret.Auth)

	default:
		return nil, fmt.Errorf("vault provider requires a token or approle credentials")
	}

	return p, nil
}

// Get retrieves a secret from Vault.
// Path format: "path/to/secret#key"; the key defaults to "value".
func (p *Provider) Get(ctx context.Context, path string) (string, error) {
	secretPath := path
	key := "value"
	if idx := strings.LastIndex(path, "#"); idx != -1 {
		secretPath = path[:idx]
		key = path[idx+1:]
	}

	secret, err := p.client.Logical().ReadWithContext(ctx, secretPath)
	if err != nil {
		return "", fmt.Errorf("read vault secret %q: %w", secretPath, err)
	}
	if secret == nil || secret.Data == nil {
		return "", fmt.Errorf("secret %q not found", secretPath)
	}

	// Handle KV v2 "data" wrapper
	data := secret.Data
	if v, ok := data["data"]; ok {
		if nested, ok := v.(map[string]interface{}); ok {
			data = nested
		}
	}

	val, ok := data[key]
	if !ok {
		return "", fmt.Errorf("key %q not found in secret %q", key, secretPath)
	}
	return fmt.Sprintf("%v", val), nil
}

// Close stops the token renewer and releases resources.
func (p *Provider) Close() error {
	close(p.stopCh)
	p.wg.Wait()
	return nil
}

func (p *Provider) startTokenRenewer(auth *vault.SecretAuth) {
	defer p.wg.Done()

	if !auth.Renewable {
		return
	}

	watcher, err := p.client.NewLifetimeWatcher(&vault.LifetimeWatcherInput{
		Secret: &vault.Secret{Auth: auth},
	})
	if err != nil {
		p.logger.Error("failed to create vault lifetime watcher", "error", err)
		return
	}

	go watcher.Start()
	defer watcher.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case err := <-watcher.DoneCh():
			if err != nil {
				p.logger.Error("vault token renewal error", "error", err)
			}
			return
		case <-watcher.RenewCh():
			// Token successfully renewed
		}
	}
}
