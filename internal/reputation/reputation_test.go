package reputation

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticLookup(t *testing.T) {
	s := NewStatic(map[string]int{"alice": 750})
	ctx := context.Background()

	assert.Equal(t, 750, s.Reputation(ctx, "alice"))
	assert.Equal(t, 0, s.Reputation(ctx, "stranger"))

	s.Set("bob", 120)
	assert.Equal(t, 120, s.Reputation(ctx, "bob"))
}

func TestStaticNilSeed(t *testing.T) {
	s := NewStatic(nil)
	s.Set("alice", 10)
	assert.Equal(t, 10, s.Reputation(context.Background(), "alice"))
}

func TestRedisLookup(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	lookup := NewRedis(rdb, "", nil)
	ctx := context.Background()

	require.NoError(t, mr.Set("pricewatch:reputation:alice", "750"))
	require.NoError(t, mr.Set("pricewatch:reputation:mallory", "not-a-number"))

	assert.Equal(t, 750, lookup.Reputation(ctx, "alice"))
	assert.Equal(t, 0, lookup.Reputation(ctx, "stranger"), "missing key resolves to 0")
	assert.Equal(t, 0, lookup.Reputation(ctx, "mallory"), "malformed score resolves to 0")
}

func TestRedisLookupCustomPrefix(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	lookup := NewRedis(rdb, "rep:", nil)

	require.NoError(t, mr.Set("rep:alice", "42"))
	assert.Equal(t, 42, lookup.Reputation(context.Background(), "alice"))
}
