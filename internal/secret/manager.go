package secret

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Manager routes secret lookups to providers by URI scheme and caches
// resolved values in memory so repeated client rebuilds do not hit the
// secret backend again.
type Manager struct {
	providers map[string]Provider
	cache     *gocache.Cache
	mu        sync.RWMutex
}

// NewManager creates a secret manager with an env provider preregistered.
func NewManager(cacheTTL time.Duration) *Manager {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	m := &Manager{
		providers: make(map[string]Provider),
		cache:     gocache.New(cacheTTL, cacheTTL*2),
	}
	m.Register("env", NewEnvProvider())
	return m
}

// Register registers a provider for a scheme (e.g. "vault", "env").
func (m *Manager) Register(scheme string, provider Provider) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.providers[scheme] = provider
}

// Get resolves a secret reference. References without a scheme are
// treated as literal values, so plain keys keep working in tests and
// local setups.
func (m *Manager) Get(ctx context.Context, ref string) (string, error) {
	scheme, path, ok := strings.Cut(ref, "://")
	if !ok {
		return ref, nil
	}

	if val, found := m.cache.Get(ref); found {
		if s, isStr := val.(string); isStr {
			return s, nil
		}
	}

	m.mu.RLock()
	provider, registered := m.providers[scheme]
	m.mu.RUnlock()
	if !registered {
		return "", fmt.Errorf("no secret provider registered for scheme: %s", scheme)
	}

	val, err := provider.Get(ctx, path)
	if err != nil {
		return "", err
	}
	m.cache.Set(ref, val, gocache.DefaultExpiration)
	return val, nil
}

// GetAll resolves a list of references, skipping ones that fail and
// returning an error only when nothing resolved.
func (m *Manager) GetAll(ctx context.Context, refs []string) ([]string, error) {
	var out []string
	var firstErr error
	for _, ref := range refs {
		val, err := m.Get(ctx, ref)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		out = append(out, val)
	}
	if len(out) == 0 && firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

// Close closes all registered providers.
func (m *Manager) Close() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var errs []string
	for scheme, p := range m.providers {
		if err := p.Close(); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", scheme, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("failed to close providers: %s", strings.Join(errs, "; "))
	}
	return nil
}
