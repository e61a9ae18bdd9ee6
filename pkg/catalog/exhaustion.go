package catalog

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Exhaustion tracks models removed from consideration after a rate-limit
// response. Readers tolerate slightly stale data; a false negative costs
// one extra failed call, not correctness.
type Exhaustion interface {
	// Mark removes the model from consideration. A zero cooldown means
	// "for the rest of the process".
	Mark(model string, cooldown time.Duration)

	// IsExhausted reports whether the model is currently out of play.
	IsExhausted(model string) bool

	// Exhausted returns the identifiers currently marked.
	Exhausted() []string
}

// MemoryExhaustion is the in-process exhaustion set. Entries with a
// cooldown expire and the model rejoins selection; entries without one
// persist until process restart.
type MemoryExhaustion struct {
	entries *gocache.Cache
}

// NewMemoryExhaustion creates an empty in-process exhaustion set.
func NewMemoryExhaustion() *MemoryExhaustion {
	return &MemoryExhaustion{
		entries: gocache.New(gocache.NoExpiration, time.Minute),
	}
}

// Mark records the model as exhausted.
func (e *MemoryExhaustion) Mark(model string, cooldown time.Duration) {
	if cooldown <= 0 {
		e.entries.Set(model, struct{}{}, gocache.NoExpiration)
		return
	}
	e.entries.Set(model, struct{}{}, cooldown)
}

// IsExhausted reports whether the model is marked and not yet recovered.
func (e *MemoryExhaustion) IsExhausted(model string) bool {
	_, found := e.entries.Get(model)
	return found
}

// Exhausted returns the currently marked identifiers.
func (e *MemoryExhaustion) Exhausted() []string {
	items := e.entries.Items()
	out := make([]string, 0, len(items))
	for model := range items {
		out = append(out, model)
	}
	return out
}
