package docstore

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/couchcryptid/work-order-weather-service/internal/domain"
	"github.com/couchcryptid/work-order-weather-service/internal/observability"
)

// MemoCache fronts a domain.CoordinateCache with an in-memory LRU. Entries
// are added only after a successful read or write of the inner cache, so the
// memo never holds a coordinate the store does not.
type MemoCache struct {
	inner   domain.CoordinateCache
	cache   *lru.Cache[string, domain.ZipCoordinate]
	metrics *observability.Metrics
}

// NewMemoCache creates a memo decorator holding at most maxEntries zips.
func NewMemoCache(inner domain.CoordinateCache, maxEntries int, metrics *observability.Metrics) (*MemoCache, error) {
	cache, err := lru.New[string, domain.ZipCoordinate](maxEntries)
	if err != nil {
		return nil, fmt.Errorf("coordinate memo: %w", err)
	}
	return &MemoCache{inner: inner, cache: cache, metrics: metrics}, nil
}

func (m *MemoCache) Lookup(ctx context.Context, zip string) (domain.ZipCoordinate, bool, error) {
	if z, ok := m.cache.Get(zip); ok {
		m.metrics.CoordinateMemo.WithLabelValues("hit").Inc()
		return z, true, nil
	}
	m.metrics.CoordinateMemo.WithLabelValues("miss").Inc()

	z, ok, err := m.inner.Lookup(ctx, zip)
	if err != nil || !ok {
		return z, ok, err
	}
	m.cache.Add(zip, z)
	return z, true, nil
}

func (m *MemoCache) Store(ctx context.Context, z domain.ZipCoordinate) error {
	if err := m.inner.Store(ctx, z); err != nil {
		return err
	}
	z.ID = domain.ZipDocumentID(z.Zip)
	m.cache.Add(z.Zip, z)
	return nil
}
