package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unionlens/contract-assistant/internal/store/storetest"
)

func newCache(fs *storetest.Fake) *ResponseCache {
	return New(fs, zerolog.Nop())
}

func TestGetMissThenPutThenHit(t *testing.T) {
	fs := storetest.NewFake()
	c := newCache(fs)
	ctx := context.Background()

	_, ok := c.Get(ctx, "c1", "How many sick days do I get?")
	assert.False(t, ok)

	c.Put(ctx, "c1", "How many sick days do I get?", "Ten per year.")

	got, ok := c.Get(ctx, "c1", "how many   sick days do i get?")
	require.True(t, ok)
	assert.Equal(t, "Ten per year.", got)

	day := time.Now().UTC().Format("2006-01-02")
	st, err := fs.CacheStats().Get(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, int64(1), st.Hits)
	assert.Equal(t, int64(1), st.Misses)
}

func TestPutUpsertsLastWriteWins(t *testing.T) {
	fs := storetest.NewFake()
	c := newCache(fs)
	ctx := context.Background()

	c.Put(ctx, "c1", "q", "r1")
	c.Put(ctx, "c1", "q", "r2")

	got, ok := c.Get(ctx, "c1", "q")
	require.True(t, ok)
	assert.Equal(t, "r2", got)
	assert.Equal(t, 1, fs.EntryCount())
}

func TestGetExpiresStaleEntryOnRead(t *testing.T) {
	fs := storetest.NewFake()
	c := newCache(fs)
	ctx := context.Background()

	base := time.Now()
	c.WithClock(func() time.Time { return base.Add(-8 * 24 * time.Hour) })
	c.Put(ctx, "c1", "q", "stale")
	c.WithClock(func() time.Time { return base })

	_, ok := c.Get(ctx, "c1", "q")
	assert.False(t, ok)
	// Stale entry is evicted as a side effect of the read.
	assert.Equal(t, 0, fs.EntryCount())
}

func TestGetFreshWithinHorizon(t *testing.T) {
	fs := storetest.NewFake()
	c := newCache(fs)
	ctx := context.Background()

	base := time.Now()
	c.WithClock(func() time.Time { return base.Add(-6 * 24 * time.Hour) })
	c.Put(ctx, "c1", "q", "fresh")
	c.WithClock(func() time.Time { return base })

	got, ok := c.Get(ctx, "c1", "q")
	require.True(t, ok)
	assert.Equal(t, "fresh", got)
}

func TestStorageErrorsFailOpen(t *testing.T) {
	fs := storetest.NewFake()
	fs.EntryErr = errors.New("connection refused")
	c := newCache(fs)
	ctx := context.Background()

	// Read degrades to a miss.
	_, ok := c.Get(ctx, "c1", "q")
	assert.False(t, ok)

	// Write is swallowed.
	c.Put(ctx, "c1", "q", "r")
}

func TestCounterFailureDoesNotAffectCaching(t *testing.T) {
	fs := storetest.NewFake()
	fs.StatErr = errors.New("stats table locked")
	c := newCache(fs)
	ctx := context.Background()

	c.Put(ctx, "c1", "q", "r")
	got, ok := c.Get(ctx, "c1", "q")
	require.True(t, ok)
	assert.Equal(t, "r", got)
}
