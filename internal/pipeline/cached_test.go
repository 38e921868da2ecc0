package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"arc-tracer/internal/arc"
	"arc-tracer/internal/cache"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRunner struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (r *countingRunner) Run(_ context.Context, data []byte, params Params) ([]arc.Instruction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return []arc.Instruction{{Start: params.TimeStart, End: params.TimeStart, X1: float64(len(data))}}, nil
}

func newCached(t *testing.T, next Runner) (*CachedRunner, *cache.MemoryClient) {
	t.Helper()
	client := cache.NewMemoryClient(100)
	t.Cleanup(func() { client.Close() })
	return NewCachedRunner(next, client, time.Minute, nil), client
}

func TestCachedRunner_Hit(t *testing.T) {
	inner := &countingRunner{}
	c, _ := newCached(t, inner)
	ctx := context.Background()

	first, err := c.Run(ctx, []byte("image"), DefaultParams())
	require.NoError(t, err)
	second, err := c.Run(ctx, []byte("image"), DefaultParams())
	require.NoError(t, err)

	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, first, second)
}

func TestCachedRunner_KeyedByImageAndParams(t *testing.T) {
	inner := &countingRunner{}
	c, _ := newCached(t, inner)
	ctx := context.Background()

	_, err := c.Run(ctx, []byte("a"), DefaultParams())
	require.NoError(t, err)
	_, err = c.Run(ctx, []byte("b"), DefaultParams())
	require.NoError(t, err)

	params := DefaultParams()
	params.TimeStart = 7
	_, err = c.Run(ctx, []byte("a"), params)
	require.NoError(t, err)
	assert.Equal(t, 3, inner.calls)

	// Equivalent spellings share an entry.
	alias := DefaultParams()
	alias.Method = "EDGE"
	alias.Mode = "Vertical"
	_, err = c.Run(ctx, []byte("a"), alias)
	require.NoError(t, err)
	assert.Equal(t, 3, inner.calls)
}

func TestCachedRunner_DoesNotCacheFailures(t *testing.T) {
	inner := &countingRunner{err: DecodeError("could not decode image", nil)}
	c, client := newCached(t, inner)
	ctx := context.Background()

	_, err := c.Run(ctx, []byte("x"), DefaultParams())
	assert.True(t, IsDecode(err))
	_, err = c.Run(ctx, []byte("x"), DefaultParams())
	assert.True(t, IsDecode(err))

	assert.Equal(t, 2, inner.calls)
	assert.Zero(t, client.Len())
}

func TestCachedRunner_ValidatesFirst(t *testing.T) {
	inner := &countingRunner{}
	c, _ := newCached(t, inner)

	params := DefaultParams()
	params.SamplingRate = 0.2
	_, err := c.Run(context.Background(), []byte("x"), params)
	assert.True(t, IsValidation(err))
	assert.Zero(t, inner.calls)
}

func TestCachedRunner_CorruptEntry(t *testing.T) {
	inner := &countingRunner{}
	c, client := newCached(t, inner)
	ctx := context.Background()

	cfg, err := DefaultParams().resolve()
	require.NoError(t, err)
	require.NoError(t, client.Set(ctx, cacheKey([]byte("x"), cfg), []byte("{"), time.Minute))

	ins, err := c.Run(ctx, []byte("x"), DefaultParams())
	require.NoError(t, err)
	assert.Len(t, ins, 1)
	assert.Equal(t, 1, inner.calls)
}

type failingClient struct{ cache.Client }

func (failingClient) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("connection refused")
}

func (failingClient) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("connection refused")
}

func TestCachedRunner_CacheOutageFallsThrough(t *testing.T) {
	inner := &countingRunner{}
	c := NewCachedRunner(inner, failingClient{}, time.Minute, nil)

	ins, err := c.Run(context.Background(), []byte("x"), DefaultParams())
	require.NoError(t, err)
	assert.Len(t, ins, 1)
}
