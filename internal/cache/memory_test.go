package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryClient_GetSet(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryClient(10)
	defer c.Close()

	_, err := c.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrCacheMiss)

	value := []byte("arc")
	require.NoError(t, c.Set(ctx, "k", value, time.Minute))
	value[0] = 'x'

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("arc"), got)
}

func TestMemoryClient_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryClient(10)
	defer c.Close()

	require.NoError(t, c.Set(ctx, "short", []byte("v"), time.Millisecond))
	require.NoError(t, c.Set(ctx, "forever", []byte("v"), 0))
	time.Sleep(5 * time.Millisecond)

	_, err := c.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrCacheMiss)

	_, err = c.Get(ctx, "forever")
	assert.NoError(t, err)
}

func TestMemoryClient_EvictsSoonestExpiring(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryClient(3)
	defer c.Close()

	require.NoError(t, c.Set(ctx, "a", []byte("1"), time.Hour))
	require.NoError(t, c.Set(ctx, "b", []byte("2"), time.Minute))
	require.NoError(t, c.Set(ctx, "c", []byte("3"), 0))
	require.NoError(t, c.Set(ctx, "d", []byte("4"), time.Hour))

	assert.Equal(t, 3, c.Len())
	_, err := c.Get(ctx, "b")
	assert.ErrorIs(t, err, ErrCacheMiss)

	// Overwriting an existing key does not evict.
	require.NoError(t, c.Set(ctx, "a", []byte("5"), time.Hour))
	assert.Equal(t, 3, c.Len())
}

func TestMemoryClient_Delete(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryClient(0)
	defer c.Close()

	for i := 0; i < 3; i++ {
		require.NoError(t, c.Set(ctx, Key("run", fmt.Sprint(i)), []byte("x"), time.Minute))
	}
	require.NoError(t, c.Set(ctx, "other", []byte("x"), time.Minute))

	require.NoError(t, c.Delete(ctx, "run:0"))
	assert.Equal(t, 3, c.Len())

	require.NoError(t, c.DeleteByPrefix(ctx, "run:"))
	assert.Equal(t, 1, c.Len())
}

func TestKey(t *testing.T) {
	assert.Equal(t, "run:abc:1", Key("run", "abc", "1"))
	assert.Equal(t, "", Key())
}

func TestMemoryClient_CloseIsIdempotent(t *testing.T) {
	c := NewMemoryClient(1)
	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
}
