package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nakanohidekatsu/pos-terminal/internal/domain"
)

func TestMemoryCache_SetGetDelete(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	defer c.Close()
	ctx := context.Background()

	p := domain.Product{ID: "P1", Code: "4901234567894", Name: "Tea", Price: 150, PriceIncTax: 165}

	_, err := c.Get(ctx, p.Code)
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Set(ctx, p.Code, p))

	got, err := c.Get(ctx, p.Code)
	require.NoError(t, err)
	assert.Equal(t, p, got)

	require.NoError(t, c.Delete(ctx, p.Code))
	_, err = c.Get(ctx, p.Code)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCache_EntriesExpire(t *testing.T) {
	c := NewMemoryCache(10 * time.Millisecond)
	defer c.Close()
	ctx := context.Background()

	p := domain.Product{ID: "P1", Code: "4901234567894", Name: "Tea"}
	require.NoError(t, c.Set(ctx, p.Code, p))

	// baseTTL plus the maximum jitter of a quarter of it
	time.Sleep(20 * time.Millisecond)

	_, err := c.Get(ctx, p.Code)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCache_CloseStopsSweep(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	require.NoError(t, c.Close())
}
