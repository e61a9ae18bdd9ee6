// Package secret provides credential loading for the routing core.
// API keys are referenced by URI (env://NAME, vault://path#key) and
// resolved through registered providers.
package secret

import "context"

// Provider defines the interface for retrieving secrets from various
// sources.
type Provider interface {
	// Get retrieves the secret value for the given path (scheme already
	// stripped).
	Get(ctx context.Context, path string) (string, error)

	// Close releases any resources held by the provider.
	Close() error
}
