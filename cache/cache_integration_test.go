//go:build integration

package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceyewan/tenantdb/testkit"
)

func newRedisCache(t *testing.T) Cache {
	t.Helper()
	conn := testkit.NewRedisConnector(t)
	c, err := NewRedis(conn, &Config{Prefix: "tenantdb-test:" + testkit.NewID() + ":"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestRedisSetGet(t *testing.T) {
	c := newRedisCache(t)
	ctx := context.Background()

	want := testEntry{Name: "Shard-A", DatabaseName: "shard_a"}
	require.NoError(t, c.Set(ctx, "ShardingEntry-Shard-A", want, 0))

	var got testEntry
	require.NoError(t, c.Get(ctx, "ShardingEntry-Shard-A", &got))
	assert.Equal(t, want, got)

	err := c.Get(ctx, "no-such-key", &got)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisSetNX(t *testing.T) {
	c := newRedisCache(t)
	ctx := context.Background()

	ok, err := c.SetNX(ctx, "key", testEntry{Name: "first"}, 0)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.SetNX(ctx, "key", testEntry{Name: "second"}, 0)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisKeysByPrefix(t *testing.T) {
	c := newRedisCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "ShardingEntry-A", testEntry{Name: "A"}, 0))
	require.NoError(t, c.Set(ctx, "ShardingEntry-B", testEntry{Name: "B"}, 0))
	require.NoError(t, c.Set(ctx, "Other-C", testEntry{Name: "C"}, 0))

	keys, err := c.KeysByPrefix(ctx, "ShardingEntry-")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"ShardingEntry-A", "ShardingEntry-B"}, keys)
}

func TestRedisDeleteHas(t *testing.T) {
	c := newRedisCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "key", testEntry{Name: "x"}, 0))

	has, err := c.Has(ctx, "key")
	require.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, c.Delete(ctx, "key"))

	has, err = c.Has(ctx, "key")
	require.NoError(t, err)
	assert.False(t, has)
}
