package catalog

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/nakanohidekatsu/pos-terminal/internal/domain"
)

// countingClient implements Client for testing
type countingClient struct {
	calls   atomic.Int64
	delay   time.Duration
	product domain.Product
	err     error
}

func (c *countingClient) Lookup(_ context.Context, code string) (domain.Product, error) {
	c.calls.Add(1)
	if c.delay > 0 {
		time.Sleep(c.delay)
	}
	if c.err != nil {
		return domain.Product{}, c.err
	}
	p := c.product
	p.Code = code
	return p, nil
}

func newTestService(t *testing.T, client Client) (*Service, *MemoryCache) {
	t.Helper()
	cache := NewMemoryCache(time.Minute)
	t.Cleanup(func() { cache.Close() })
	return NewService(client, cache, zaptest.NewLogger(t)), cache
}

func TestService_Lookup_CachesHits(t *testing.T) {
	client := &countingClient{product: domain.Product{ID: "P1", Name: "Tea", Price: 150, PriceIncTax: 165}}
	svc, _ := newTestService(t, client)
	ctx := context.Background()

	p1, err := svc.Lookup(ctx, "4901234567894")
	require.NoError(t, err)
	p2, err := svc.Lookup(ctx, "4901234567894")
	require.NoError(t, err)

	assert.Equal(t, p1, p2)
	assert.EqualValues(t, 1, client.calls.Load())
}

func TestService_Lookup_NotFoundIsNotCached(t *testing.T) {
	client := &countingClient{err: ErrNotFound}
	svc, _ := newTestService(t, client)
	ctx := context.Background()

	_, err := svc.Lookup(ctx, "0000000000000")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Lookup(ctx, "0000000000000")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.EqualValues(t, 2, client.calls.Load())
}

func TestService_Lookup_EmptyCodeNeverReachesBackend(t *testing.T) {
	client := &countingClient{}
	svc, _ := newTestService(t, client)

	_, err := svc.Lookup(context.Background(), "")
	assert.Error(t, err)
	assert.EqualValues(t, 0, client.calls.Load())
}

func TestService_Lookup_ConcurrentLookupsShareOneRequest(t *testing.T) {
	client := &countingClient{
		delay:   20 * time.Millisecond,
		product: domain.Product{ID: "P1", Name: "Tea", Price: 150, PriceIncTax: 165},
	}
	svc, _ := newTestService(t, client)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := svc.Lookup(context.Background(), "4901234567894")
			assert.NoError(t, err)
			assert.Equal(t, "Tea", p.Name)
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, client.calls.Load())
}
