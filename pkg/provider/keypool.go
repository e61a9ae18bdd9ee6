package provider

import (
	"errors"
	"math/rand"
	"sync"
)

// ErrEmptyKeyPool is returned when a pool has no credentials to hand out.
var ErrEmptyKeyPool = errors.New("key pool is empty")

// KeyPool is an ordered set of credentials for one provider family.
// One key is chosen per client construction, never per request, so all
// requests within a retry episode share a credential unless the client is
// explicitly rebuilt.
type KeyPool struct {
	mu   sync.Mutex
	keys []string
	next int
}

// NewKeyPool creates a pool from the given keys. Empty entries are dropped.
func NewKeyPool(keys ...string) *KeyPool {
	p := &KeyPool{}
	for _, k := range keys {
		if k != "" {
			p.keys = append(p.keys, k)
		}
	}
	return p
}

// Len returns the number of credentials in the pool.
func (p *KeyPool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.keys)
}

// Pick returns a random credential from the pool.
func (p *KeyPool) Pick() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.keys) == 0 {
		return "", ErrEmptyKeyPool
	}
	return p.keys[rand.Intn(len(p.keys))], nil
}

// PickRoundRobin returns the next credential in order, wrapping around.
func (p *KeyPool) PickRoundRobin() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.keys) == 0 {
		return "", ErrEmptyKeyPool
	}
	k := p.keys[p.next%len(p.keys)]
	p.next++
	return k, nil
}

// Credentials groups the key pools the router draws from. Free-tier keys
// form a pool; exactly one paid key is expected for the paid escalation
// path.
type Credentials struct {
	// Free is the pool of free-tier keys (several keys sharing a
	// provider prefix).
	Free *KeyPool

	// Paid is the dedicated billed credential. Empty disables the paid
	// escalation path.
	Paid string
}

// HasPaid reports whether the paid escalation path is configured.
func (c *Credentials) HasPaid() bool {
	return c != nil && c.Paid != ""
}
