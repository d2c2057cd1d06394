package docstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/work-order-weather-service/internal/domain"
)

func TestCoordinateCache_MissThenHit(t *testing.T) {
	cache := NewCoordinateCache(newTestStore(t))
	ctx := context.Background()

	_, ok, err := cache.Lookup(ctx, "10001")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Store(ctx, domain.ZipCoordinate{Zip: "10001", Latitude: "40.75", Longitude: "-73.99"}))

	got, ok, err := cache.Lookup(ctx, "10001")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "zip10001", got.ID)
	assert.Equal(t, "40.75", got.Latitude)
	assert.Equal(t, "-73.99", got.Longitude)
}

func TestCoordinateCache_StoredUnderDerivedID(t *testing.T) {
	s := newTestStore(t)
	cache := NewCoordinateCache(s)
	ctx := context.Background()

	require.NoError(t, cache.Store(ctx, domain.ZipCoordinate{ID: "bogus", Zip: "73301", Latitude: "30.27", Longitude: "-97.74"}))

	var raw domain.ZipCoordinate
	require.NoError(t, s.Find(ctx, "zip73301", &raw))
	assert.Equal(t, "73301", raw.Zip)
	assert.ErrorIs(t, s.Find(ctx, "bogus", &raw), domain.ErrNotFound)
}

func TestCoordinateCache_StoreValidates(t *testing.T) {
	cache := NewCoordinateCache(newTestStore(t))

	err := cache.Store(context.Background(), domain.ZipCoordinate{Zip: "10001", Latitude: "40.75"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, ok, err := cache.Lookup(context.Background(), "10001")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCoordinateCache_SecondStoreKeepsFirst(t *testing.T) {
	cache := NewCoordinateCache(newTestStore(t))
	ctx := context.Background()

	require.NoError(t, cache.Store(ctx, domain.ZipCoordinate{Zip: "10001", Latitude: "40.75", Longitude: "-73.99"}))
	require.NoError(t, cache.Store(ctx, domain.ZipCoordinate{Zip: "10001", Latitude: "1", Longitude: "2"}))

	got, _, err := cache.Lookup(ctx, "10001")
	require.NoError(t, err)
	assert.Equal(t, "40.75", got.Latitude)
}

func TestCoordinateCache_StoreFailureIsPersistenceError(t *testing.T) {
	s, err := Open(Options{InMemory: true}, discardLogger())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	err = NewCoordinateCache(s).Store(context.Background(), domain.ZipCoordinate{Zip: "10001", Latitude: "40.75", Longitude: "-73.99"})
	assert.ErrorIs(t, err, domain.ErrPersistence)
}
