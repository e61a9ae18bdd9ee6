package llmroute

import (
	"context"
	"fmt"
	"time"

	"github.com/personagen/llmroute/internal/config"
	"github.com/personagen/llmroute/internal/resolver"
	"github.com/personagen/llmroute/internal/secret"
	"github.com/personagen/llmroute/internal/secret/vault"
	"github.com/personagen/llmroute/pkg/catalog"
	"github.com/personagen/llmroute/pkg/provider"
)

// NewFromConfigFile builds a client from a YAML configuration file.
// Credential references are resolved through the secret manager; a vault
// section registers the Vault provider for vault:// references.
func NewFromConfigFile(ctx context.Context, path string, opts ...Option) (*Client, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	secrets := secret.NewManager(5 * time.Minute)
	if cfg.Vault != nil {
		vp, err := vault.New(vault.Config{
			Address:  cfg.Vault.Address,
			Token:    cfg.Vault.Token,
			RoleID:   cfg.Vault.RoleID,
			SecretID: cfg.Vault.SecretID,
			CACert:   cfg.Vault.CACert,
		})
		if err != nil {
			return nil, fmt.Errorf("configure vault provider: %w", err)
		}
		secrets.Register("vault", vp)
	}

	creds, err := credentialsFromConfig(ctx, secrets, cfg.Credentials)
	if err != nil {
		return nil, err
	}

	base := []Option{
		WithTimeout(cfg.Routing.RequestTimeout.Std()),
		WithExhaustionTTL(cfg.Routing.ExhaustionTTL.Std()),
		WithMaxContinuations(cfg.Routing.MaxContinuations),
	}
	if len(cfg.Routing.PreferredModels) > 0 {
		base = append(base, WithPreferredModels(cfg.Routing.PreferredModels))
	}
	if len(cfg.Routing.PaidModels) > 0 {
		base = append(base, WithPaidModels(cfg.Routing.PaidModels))
	}
	if cfg.Routing.OpenAIBaseURL != "" {
		base = append(base, WithResolverOptions(resolver.WithOpenAIBaseURL(cfg.Routing.OpenAIBaseURL)))
	}
	if cfg.Routing.AzureBaseURL != "" {
		base = append(base, WithResolverOptions(resolver.WithAzureBaseURL(cfg.Routing.AzureBaseURL)))
	}
	if len(cfg.Models) > 0 {
		base = append(base, WithCatalog(catalogFromConfig(cfg.Models)))
	}

	return New(creds, append(base, opts...)...)
}

// WatchConfigFile builds a client from a YAML configuration file and
// keeps watching the file, swapping the catalog and candidate lists into
// the running client whenever it is rewritten. Credentials and secret
// wiring stay fixed for the process lifetime. The returned stop function
// releases the watcher.
func WatchConfigFile(ctx context.Context, path string, opts ...Option) (*Client, func() error, error) {
	client, err := NewFromConfigFile(ctx, path, opts...)
	if err != nil {
		return nil, nil, err
	}

	mgr, err := config.NewManager(path, client.logger)
	if err != nil {
		return nil, nil, err
	}
	mgr.OnReload(client.applyRouting)
	return client, mgr.Close, nil
}

// applyRouting swaps in the routing-relevant parts of a reloaded
// configuration.
func (c *Client) applyRouting(cfg *config.Config) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(cfg.Models) > 0 {
		c.catalog = catalogFromConfig(cfg.Models)
	}
	if len(cfg.Routing.PreferredModels) > 0 {
		c.preferred = cfg.Routing.PreferredModels
	}
	if len(cfg.Routing.PaidModels) > 0 {
		c.paidModels = cfg.Routing.PaidModels
	}
}

func credentialsFromConfig(ctx context.Context, secrets *secret.Manager, cc config.CredentialsConfig) (*provider.Credentials, error) {
	var freeKeys []string
	if cc.FreeKeyPrefix != "" {
		freeKeys = secret.KeysWithPrefix(cc.FreeKeyPrefix)
	}
	if len(cc.FreeKeys) > 0 {
		resolved, err := secrets.GetAll(ctx, cc.FreeKeys)
		if err != nil && len(freeKeys) == 0 {
			return nil, fmt.Errorf("resolve free keys: %w", err)
		}
		freeKeys = append(freeKeys, resolved...)
	}

	creds := &provider.Credentials{Free: provider.NewKeyPool(freeKeys...)}
	if cc.PaidKey != "" {
		paid, err := secrets.Get(ctx, cc.PaidKey)
		if err != nil {
			return nil, fmt.Errorf("resolve paid key: %w", err)
		}
		creds.Paid = paid
	}
	return creds, nil
}

// catalogFromConfig overlays configured model entries on the default
// catalog. Unknown identifiers become new entries; pointer fields only
// override when set.
func catalogFromConfig(models []config.ModelConfig) *catalog.Catalog {
	cat := catalog.Default()
	for _, m := range models {
		d, err := cat.Lookup(m.Identifier)
		if err != nil {
			d = catalog.ModelDescriptor{Identifier: m.Identifier, Backend: catalog.BackendOpenAI}
		}
		if m.Backend != "" {
			d.Backend = catalog.Backend(m.Backend)
		}
		if m.SupportsSystemRole != nil {
			d.SupportsSystemRole = *m.SupportsSystemRole
		}
		if m.SupportsStreaming != nil {
			d.SupportsStreaming = *m.SupportsStreaming
		}
		if m.SupportsJSONMode != nil {
			d.SupportsJSONMode = *m.SupportsJSONMode
		}
		if m.IsReasoningModel != nil {
			d.IsReasoningModel = *m.IsReasoningModel
		}
		if m.MaxInputTokens > 0 {
			d.MaxInputTokens = m.MaxInputTokens
		}
		if m.MaxOutputTokens > 0 {
			d.MaxOutputTokens = m.MaxOutputTokens
		}
		cat.Add(d)
	}
	return cat
}
