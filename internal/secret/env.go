package secret

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
)

// EnvProvider resolves secrets from process environment variables.
type EnvProvider struct{}

// NewEnvProvider creates an environment-backed provider.
func NewEnvProvider() *EnvProvider {
	return &EnvProvider{}
}

// Get returns the value of the named environment variable.
func (p *EnvProvider) Get(_ context.Context, name string) (string, error) {
	val, ok := os.LookupEnv(name)
	if !ok || val == "" {
		return "", fmt.Errorf("environment variable %q is not set", name)
	}
	return val, nil
}

// Close implements Provider.
func (p *EnvProvider) Close() error { return nil }

// KeysWithPrefix returns the values of all environment variables sharing
// the given prefix, in name order. Several free-tier keys published as
// GITHUB_API_KEY, GITHUB_API_KEY_2, ... form one pool this way.
func KeysWithPrefix(prefix string) []string {
	type entry struct {
		name  string
		value string
	}
	var entries []entry
	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || value == "" {
			continue
		}
		if strings.HasPrefix(name, prefix) {
			entries = append(entries, entry{name: name, value: value})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].name < entries[j].name })

	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.value)
	}
	return out
}
