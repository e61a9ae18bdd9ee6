// Package catalog holds per-model metadata: which backend serves a model,
// what capabilities it declares, and which models are currently exhausted.
package catalog

import (
	"fmt"
	"sync"
)

// Backend is one of the two wire-protocol families a model is reached
// through.
type Backend string

const (
	BackendOpenAI Backend = "openai"
	BackendAzure  Backend = "azure"
)

// ModelDescriptor is the capability record for one model. Immutable per
// run except the probed capability flags, which are cached once discovered.
type ModelDescriptor struct {
	Identifier             string
	Backend                Backend
	SupportsSystemRole     bool
	SupportsStreaming      bool
	SupportsJSONMode       bool
	IsReasoningModel       bool
	IncludesReasoningTrace bool
	MaxInputTokens         int
	MaxOutputTokens        int

	// Flagship models always report a finish reason; for the rest a
	// missing finish reason is coerced to "stop".
	Flagship bool

	// jsonModeProbed marks SupportsJSONMode as confirmed by a live probe
	// rather than static configuration.
	jsonModeProbed bool
}

// Catalog maps model identifiers to descriptors. Safe for concurrent use.
type Catalog struct {
	mu     sync.RWMutex
	models map[string]*ModelDescriptor
}

// New builds a catalog from the given descriptors.
func New(descriptors ...ModelDescriptor) *Catalog {
	c := &Catalog{models: make(map[string]*ModelDescriptor, len(descriptors))}
	for i := range descriptors {
		d := descriptors[i]
		c.models[d.Identifier] = &d
	}
	return c
}

// Default returns the static catalog, ordered metadata for the models the
// router knows about. The preference ordering itself lives in
// DefaultPreferredModels.
func Default() *Catalog {
	return New(
		ModelDescriptor{Identifier: "gpt-4o", Backend: BackendOpenAI, SupportsSystemRole: true, SupportsStreaming: true, SupportsJSONMode: true, Flagship: true, MaxInputTokens: 128000, MaxOutputTokens: 16384},
		ModelDescriptor{Identifier: "gpt-4o-mini", Backend: BackendOpenAI, SupportsSystemRole: true, SupportsStreaming: true, SupportsJSONMode: true, Flagship: true, MaxInputTokens: 128000, MaxOutputTokens: 16384},
		ModelDescriptor{Identifier: "o1-mini", Backend: BackendOpenAI, SupportsSystemRole: false, SupportsStreaming: false, SupportsJSONMode: false, IsReasoningModel: true, Flagship: true, MaxInputTokens: 128000, MaxOutputTokens: 65536},
		ModelDescriptor{Identifier: "deepseek-r1", Backend: BackendAzure, SupportsSystemRole: true, SupportsStreaming: true, SupportsJSONMode: false, IsReasoningModel: true, IncludesReasoningTrace: true, MaxInputTokens: 128000, MaxOutputTokens: 8192},
		ModelDescriptor{Identifier: "mistral-large", Backend: BackendAzure, SupportsSystemRole: true, SupportsStreaming: true, SupportsJSONMode: true, MaxInputTokens: 128000, MaxOutputTokens: 4096},
		ModelDescriptor{Identifier: "meta-llama-3.1-405b-instruct", Backend: BackendAzure, SupportsSystemRole: true, SupportsStreaming: true, SupportsJSONMode: true, MaxInputTokens: 128000, MaxOutputTokens: 4096},
		ModelDescriptor{Identifier: "Phi-3-medium-128k-instruct", Backend: BackendAzure, SupportsSystemRole: true, SupportsStreaming: true, SupportsJSONMode: false, MaxInputTokens: 128000, MaxOutputTokens: 4096},
		ModelDescriptor{Identifier: "AI21-Jamba-Instruct", Backend: BackendAzure, SupportsSystemRole: true, SupportsStreaming: true, SupportsJSONMode: false, MaxInputTokens: 256000, MaxOutputTokens: 4096},
		ModelDescriptor{Identifier: "Phi-3.5-mini-instruct", Backend: BackendAzure, SupportsSystemRole: true, SupportsStreaming: true, SupportsJSONMode: false, MaxInputTokens: 128000, MaxOutputTokens: 4096},
	)
}

// DefaultPreferredModels is the base candidate ordering, ranked by the
// LMArena leaderboard (https://lmarena.ai/).
var DefaultPreferredModels = []string{
	"gpt-4o",
	"gpt-4o-mini",
	"mistral-large",
	"meta-llama-3.1-405b-instruct",
	"Phi-3-medium-128k-instruct",
	"AI21-Jamba-Instruct",
	"Phi-3.5-mini-instruct",
}

// DefaultPaidModels is the paid-tier escalation list.
var DefaultPaidModels = []string{"gpt-4o-mini", "gpt-4o"}

// Lookup returns the descriptor for a model. Unknown identifiers fail
// fast rather than silently defaulting.
func (c *Catalog) Lookup(model string) (ModelDescriptor, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.models[model]
	if !ok {
		return ModelDescriptor{}, fmt.Errorf("model not found in catalog: %s", model)
	}
	return *d, nil
}

// BackendFor resolves the backend serving a model.
func (c *Catalog) BackendFor(model string) (Backend, error) {
	d, err := c.Lookup(model)
	if err != nil {
		return "", err
	}
	return d.Backend, nil
}

// Add registers (or replaces) a descriptor.
func (c *Catalog) Add(d ModelDescriptor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.models[d.Identifier] = &d
}

// SetJSONMode records a probed JSON-mode capability.
func (c *Catalog) SetJSONMode(model string, supported bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d, ok := c.models[model]; ok {
		d.SupportsJSONMode = supported
		d.jsonModeProbed = true
	}
}

// JSONModeProbed reports whether the JSON-mode flag was confirmed live.
func (c *Catalog) JSONModeProbed(model string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if d, ok := c.models[model]; ok {
		return d.jsonModeProbed
	}
	return false
}

// Models returns all registered identifiers.
func (c *Catalog) Models() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.models))
	for id := range c.models {
		out = append(out, id)
	}
	return out
}
