package catalog

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/nakanohidekatsu/pos-terminal/internal/domain"
)

// ProductCache holds recently looked-up products keyed by code.
type ProductCache interface {
	Get(ctx context.Context, code string) (domain.Product, error)
	Set(ctx context.Context, code string, p domain.Product) error
	Delete(ctx context.Context, code string) error
	Close() error
}

var ErrCacheMiss = errors.New("cache miss")

// CleanupInterval is how often the background expiry sweep runs.
const CleanupInterval = 30 * time.Second

type cacheEntry struct {
	product   domain.Product
	expiresAt time.Time
}

// MemoryCache is a process-local ProductCache. A register terminal has
// no shared cache backend, so entries live in a map guarded by a mutex
// with a background sweep for expired codes.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	baseTTL time.Duration

	stopCleanup chan struct{}
	wg          sync.WaitGroup
}

func NewMemoryCache(baseTTL time.Duration) *MemoryCache {
	c := &MemoryCache{
		entries:     make(map[string]cacheEntry),
		baseTTL:     baseTTL,
		stopCleanup: make(chan struct{}),
	}

	c.wg.Add(1)
	go c.cleanupLoop()

	return c
}

func (c *MemoryCache) cleanupLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.expireEntries()
		case <-c.stopCleanup:
			return
		}
	}
}

func (c *MemoryCache) expireEntries() {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()
	for code, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, code)
		}
	}
}

func (c *MemoryCache) Get(_ context.Context, code string) (domain.Product, error) {
	c.mu.RLock()
	entry, ok := c.entries[code]
	c.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		return domain.Product{}, ErrCacheMiss
	}
	return entry.product, nil
}

func (c *MemoryCache) Set(_ context.Context, code string, p domain.Product) error {
	// Jitter spreads expiry so a burst of scans does not refetch in one wave.
	var jitter time.Duration
	if quarter := int64(c.baseTTL / 4); quarter > 0 {
		jitter = time.Duration(rand.Int63n(quarter))
	}
	entry := cacheEntry{
		product:   p,
		expiresAt: time.Now().Add(c.baseTTL + jitter),
	}

	c.mu.Lock()
	c.entries[code] = entry
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, code string) error {
	c.mu.Lock()
	delete(c.entries, code)
	c.mu.Unlock()
	return nil
}

// Close stops the background sweep.
func (c *MemoryCache) Close() error {
	close(c.stopCleanup)
	c.wg.Wait()
	return nil
}
