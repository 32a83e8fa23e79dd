package catalog

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/nakanohidekatsu/pos-terminal/internal/domain"
)

// Service fronts the catalog client with a short-lived product cache.
type Service struct {
	client Client
	cache  ProductCache
	sfg    singleflight.Group // Prevents duplicate in-flight lookups per code
	logger *zap.Logger
}

func NewService(client Client, cache ProductCache, logger *zap.Logger) *Service {
	return &Service{
		client: client,
		cache:  cache,
		logger: logger,
	}
}

// Lookup resolves a code, serving from cache when possible. Concurrent
// lookups for the same code share one backend request. Not-found results
// are not cached: the master data may gain the code at any moment.
func (s *Service) Lookup(ctx context.Context, code string) (domain.Product, error) {
	if code == "" {
		return domain.Product{}, fmt.Errorf("code is empty")
	}

	v, err, _ := s.sfg.Do(code, func() (interface{}, error) {
		p, err := s.cache.Get(ctx, code)
		if err == nil {
			return p, nil
		}

		if !errors.Is(err, ErrCacheMiss) {
			s.logger.Warn("cache get failed", zap.String("code", code), zap.Error(err))
		}

		p, err = s.client.Lookup(ctx, code)
		if err != nil {
			return domain.Product{}, err
		}

		if errSet := s.cache.Set(ctx, code, p); errSet != nil {
			s.logger.Warn("cache set failed", zap.String("code", code), zap.Error(errSet))
		}

		return p, nil
	})
	if err != nil {
		return domain.Product{}, err
	}

	return v.(domain.Product), nil
}
