package catalog

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisExhaustion(t *testing.T, opts ...RedisExhaustionOption) (*RedisExhaustion, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisExhaustion(client, opts...), mr
}

func TestRedisExhaustionMarkAndLookup(t *testing.T) {
	e, _ := newRedisExhaustion(t)

	assert.False(t, e.IsExhausted("gpt-4o"))
	e.Mark("gpt-4o", time.Hour)
	assert.True(t, e.IsExhausted("gpt-4o"))
	assert.Equal(t, []string{"gpt-4o"}, e.Exhausted())
}

func TestRedisExhaustionCooldownExpires(t *testing.T) {
	e, mr := newRedisExhaustion(t)

	e.Mark("gpt-4o", time.Minute)
	require.True(t, e.IsExhausted("gpt-4o"))

	mr.FastForward(2 * time.Minute)
	assert.False(t, e.IsExhausted("gpt-4o"))
}

func TestRedisExhaustionDefaultTTLBoundsEntries(t *testing.T) {
	e, mr := newRedisExhaustion(t, WithDefaultTTL(time.Hour))

	e.Mark("gpt-4o", 0)
	require.True(t, e.IsExhausted("gpt-4o"))

	mr.FastForward(2 * time.Hour)
	assert.False(t, e.IsExhausted("gpt-4o"))
}

func TestRedisExhaustionSharedBetweenClients(t *testing.T) {
	mr := miniredis.RunT(t)
	c1 := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c2 := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { c1.Close(); c2.Close() })

	e1 := NewRedisExhaustion(c1)
	e2 := NewRedisExhaustion(c2)

	e1.Mark("mistral-large", time.Hour)
	assert.True(t, e2.IsExhausted("mistral-large"))
}

func TestRedisExhaustionDegradesWhenRedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	e := NewRedisExhaustion(client, WithExhaustionLogger(testLogger))

	e.Mark("gpt-4o", time.Hour)
	mr.Close()

	// A dead store must not take models out of rotation.
	assert.False(t, e.IsExhausted("gpt-4o"))
	assert.Empty(t, e.Exhausted())
}
