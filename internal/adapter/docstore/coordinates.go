package docstore

import (
	"context"
	"errors"

	"github.com/couchcryptid/work-order-weather-service/internal/domain"
	"github.com/couchcryptid/work-order-weather-service/internal/validation"
)

// CoordinateCache implements domain.CoordinateCache on the document store.
type CoordinateCache struct {
	store *Store
}

// NewCoordinateCache creates a coordinate cache backed by s.
func NewCoordinateCache(s *Store) *CoordinateCache {
	return &CoordinateCache{store: s}
}

// Lookup reads the coordinate document for zip. A missing document is a
// miss, not an error.
func (c *CoordinateCache) Lookup(ctx context.Context, zip string) (domain.ZipCoordinate, bool, error) {
	var z domain.ZipCoordinate
	err := c.store.Find(ctx, domain.ZipDocumentID(zip), &z)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ZipCoordinate{}, false, nil
	}
	if err != nil {
		return domain.ZipCoordinate{}, false, err
	}
	return z, true, nil
}

// Store validates z and creates its document. Coordinates are immutable, so
// losing a create race to another writer of the same zip counts as success.
func (c *CoordinateCache) Store(ctx context.Context, z domain.ZipCoordinate) error {
	if err := validation.Struct(z); err != nil {
		return err
	}
	z.ID = domain.ZipDocumentID(z.Zip)

	err := c.store.Post(ctx, z.ID, z)
	if errors.Is(err, domain.ErrConflict) {
		return nil
	}
	return err
}
