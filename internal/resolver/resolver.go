// Package resolver builds and caches backend clients for the routing core.
// A client is constructed once per (backend, tier) pair and reused for the
// lifetime of the resolver, so the credential picked at construction time
// stays pinned across retries.
package resolver

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/personagen/llmroute/internal/secret"
	"github.com/personagen/llmroute/pkg/catalog"
	"github.com/personagen/llmroute/pkg/provider"
	"github.com/personagen/llmroute/providers/azurecompat"
	"github.com/personagen/llmroute/providers/openaicompat"
)

// cacheKey identifies one constructed client.
type cacheKey struct {
	backend catalog.Backend
	paid    bool
}

// Resolver maps (backend, tier) to a ready ChatClient.
type Resolver struct {
	creds   *provider.Credentials
	secrets *secret.Manager
	logger  *slog.Logger

	// overrides per backend, empty keeps the adapter default
	openAIBaseURL string
	azureBaseURL  string

	mu      sync.Mutex
	clients map[cacheKey]provider.ChatClient
}

// Option configures the Resolver.
type Option func(*Resolver)

// WithLogger sets the resolver logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithOpenAIBaseURL overrides the OpenAI-compatible endpoint.
func WithOpenAIBaseURL(url string) Option {
	return func(r *Resolver) { r.openAIBaseURL = url }
}

// WithAzureBaseURL overrides the Azure-compatible endpoint.
func WithAzureBaseURL(url string) Option {
	return func(r *Resolver) { r.azureBaseURL = url }
}

// New creates a resolver over the given credentials. The secret manager may
// be nil when the credentials already hold literal key material.
func New(creds *provider.Credentials, secrets *secret.Manager, opts ...Option) *Resolver {
	r := &Resolver{
		creds:   creds,
		secrets: secrets,
		logger:  slog.Default(),
		clients: make(map[cacheKey]provider.ChatClient),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the client for a backend and tier, constructing it on
// first use. The paid tier is only reachable through the OpenAI-compatible
// backend; asking for a paid Azure client is a caller bug.
func (r *Resolver) Resolve(backend catalog.Backend, paid bool) (provider.ChatClient, error) {
	if paid && backend != catalog.BackendOpenAI {
		return nil, fmt.Errorf("paid tier is not available on backend %q", backend)
	}

	key := cacheKey{backend: backend, paid: paid}

	r.mu.Lock()
	defer r.mu.Unlock()
	if client, ok := r.clients[key]; ok {
		return client, nil
	}

	client, err := r.build(backend, paid)
	if err != nil {
		return nil, err
	}
	r.clients[key] = client

	r.logger.Debug("constructed backend client",
		"backend", string(backend),
		"paid", paid,
	)
	return client, nil
}

// Invalidate drops the cached client for a backend and tier so the next
// Resolve picks a fresh credential from the pool.
func (r *Resolver) Invalidate(backend catalog.Backend, paid bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, cacheKey{backend: backend, paid: paid})
}

func (r *Resolver) build(backend catalog.Backend, paid bool) (provider.ChatClient, error) {
	apiKey, err := r.pickKey(paid)
	if err != nil {
		return nil, err
	}

	switch backend {
	case catalog.BackendOpenAI:
		baseURL := r.openAIBaseURL
		if !paid && baseURL == "" {
			// Free-tier keys are only honored by the shared inference
			// endpoint, not by the billed API.
			baseURL = openaicompat.FreeTierBaseURL
		}
		return openaicompat.New(
			openaicompat.WithAPIKey(apiKey),
			openaicompat.WithBaseURL(baseURL),
		), nil

	case catalog.BackendAzure:
		return azurecompat.New(
			azurecompat.WithAPIKey(apiKey),
			azurecompat.WithBaseURL(r.azureBaseURL),
		), nil

	default:
		return nil, fmt.Errorf("unknown backend: %q", backend)
	}
}

// pickKey selects the credential for a new client. Free-tier clients draw a
// random key from the pool exactly once; every request the client serves
// afterwards reuses it.
func (r *Resolver) pickKey(paid bool) (string, error) {
	if r.creds == nil {
		return "", fmt.Errorf("no credentials configured")
	}
	if paid {
		if !r.creds.HasPaid() {
			return "", fmt.Errorf("paid tier requested but no paid key configured")
		}
		return r.creds.Paid, nil
	}
	if r.creds.Free == nil {
		return "", provider.ErrEmptyKeyPool
	}
	return r.creds.Free.Pick()
}
