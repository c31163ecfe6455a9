package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type view struct {
	ID    string `json:"id"`
	State string `json:"state"`
}

func newTestCache(t *testing.T) (*ViewCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewViewCache(NewRedisKV(client), time.Minute), mr
}

func TestViewCache_RoundTripAndInvalidate(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	gen, err := c.Generation(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), gen)

	var got view
	assert.ErrorIs(t, c.Get(ctx, "h1", gen, &got), ErrMiss)

	require.NoError(t, c.Put(ctx, "h1", gen, view{ID: "h1", State: "Ready"}))
	require.NoError(t, c.Get(ctx, "h1", gen, &got))
	assert.Equal(t, "Ready", got.State)
	assert.Equal(t, time.Minute, mr.TTL("handover:view:h1:0"))

	require.NoError(t, c.Invalidate(ctx, "h1"))
	assert.False(t, mr.Exists("handover:view:h1:0"))
	gen, err = c.Generation(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), gen)
	assert.Equal(t, generationTTL, mr.TTL("handover:viewgen:h1"))
}

func TestViewCache_PutAfterInvalidateIsNeverServed(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	// A reader takes the generation and starts building.
	readerGen, err := c.Generation(ctx, "h1")
	require.NoError(t, err)

	// A write lands while the reader is still building.
	require.NoError(t, c.Invalidate(ctx, "h1"))

	// The reader stores what it built from the old state.
	require.NoError(t, c.Put(ctx, "h1", readerGen, view{ID: "h1", State: "Draft"}))

	next, err := c.Generation(ctx, "h1")
	require.NoError(t, err)
	var got view
	assert.ErrorIs(t, c.Get(ctx, "h1", next, &got), ErrMiss, "the stale view must not be visible")
}

func TestViewCache_TTLExpiry(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "h1", 0, view{ID: "h1"}))
	mr.FastForward(2 * time.Minute)

	var got view
	assert.ErrorIs(t, c.Get(ctx, "h1", 0, &got), ErrMiss)
}

func TestViewCache_Purge(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	require.NoError(t, mr.Set("unrelated", "x"))
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, c.Put(ctx, id, 0, view{ID: id}))
	}
	require.NoError(t, c.Invalidate(ctx, "a"))

	n, err := c.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, mr.Exists("unrelated"))
	assert.True(t, mr.Exists("handover:viewgen:a"), "generations survive a purge")
}

func TestViewCache_NilIsDisabled(t *testing.T) {
	var c *ViewCache
	ctx := context.Background()
	gen, err := c.Generation(ctx, "h1")
	assert.NoError(t, err)
	assert.NoError(t, c.Put(ctx, "h1", gen, view{}))
	assert.ErrorIs(t, c.Get(ctx, "h1", gen, &view{}), ErrMiss)
	assert.NoError(t, c.Invalidate(ctx, "h1"))
	n, err := c.Purge(ctx)
	assert.NoError(t, err)
	assert.Zero(t, n)
}
