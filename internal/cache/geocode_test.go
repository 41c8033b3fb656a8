package cache_test

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripost/backend/internal/cache"
	"github.com/tripost/backend/internal/domain"
)

type countingGeocoder struct {
	calls   atomic.Int32
	results []domain.GeocodeResult
	err     error
}

func (g *countingGeocoder) Geocode(context.Context, string) ([]domain.GeocodeResult, error) {
	g.calls.Add(1)
	return g.results, g.err
}

var osaka = domain.GeocodeResult{
	Location:         domain.LatLng{Lat: 34.6937, Lng: 135.5023},
	Viewport:         boundsPtr(domain.BoundsOf(domain.LatLng{Lat: 34.8, Lng: 135.6}, domain.LatLng{Lat: 34.6, Lng: 135.4})),
	FormattedAddress: "Osaka, Japan",
}

func boundsPtr(b domain.Bounds) *domain.Bounds { return &b }

func openCache(t *testing.T, inner *countingGeocoder, opts ...cache.GeocodeOption) *cache.GeocodeCache {
	t.Helper()
	c, err := cache.OpenGeocodeCache(context.Background(), filepath.Join(t.TempDir(), "geo.db"), inner, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestGeocodeCache_Geocode_HitAfterMiss(t *testing.T) {
	inner := &countingGeocoder{results: []domain.GeocodeResult{osaka}}
	c := openCache(t, inner)
	ctx := context.Background()

	got, err := c.Geocode(ctx, "Osaka")
	require.NoError(t, err)
	assert.Equal(t, []domain.GeocodeResult{osaka}, got)

	got, err = c.Geocode(ctx, "  osaka ")
	require.NoError(t, err)
	assert.Equal(t, []domain.GeocodeResult{osaka}, got)
	assert.EqualValues(t, 1, inner.calls.Load())
}

func TestGeocodeCache_Geocode_Expired(t *testing.T) {
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	inner := &countingGeocoder{results: []domain.GeocodeResult{osaka}}
	c := openCache(t, inner, cache.WithMaxAge(time.Hour), cache.WithClock(func() time.Time { return now }))
	ctx := context.Background()

	_, err := c.Geocode(ctx, "Osaka")
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	_, err = c.Geocode(ctx, "Osaka")
	require.NoError(t, err)
	assert.EqualValues(t, 2, inner.calls.Load())
}

func TestGeocodeCache_Geocode_EmptyNotStored(t *testing.T) {
	inner := &countingGeocoder{}
	c := openCache(t, inner)
	ctx := context.Background()

	for range 2 {
		got, err := c.Geocode(ctx, "nowhere")
		require.NoError(t, err)
		assert.Empty(t, got)
	}
	assert.EqualValues(t, 2, inner.calls.Load())
}

func TestGeocodeCache_Geocode_ErrorPassedThrough(t *testing.T) {
	inner := &countingGeocoder{err: domain.ErrQuotaExceeded}
	c := openCache(t, inner)

	_, err := c.Geocode(context.Background(), "Osaka")
	assert.ErrorIs(t, err, domain.ErrQuotaExceeded)
}

func TestGeocodeCache_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "geo.db")
	ctx := context.Background()
	inner := &countingGeocoder{results: []domain.GeocodeResult{osaka}}

	c, err := cache.OpenGeocodeCache(ctx, path, inner)
	require.NoError(t, err)
	_, err = c.Geocode(ctx, "Osaka")
	require.NoError(t, err)
	require.NoError(t, c.Close())

	c, err = cache.OpenGeocodeCache(ctx, path, inner)
	require.NoError(t, err)
	defer c.Close()
	got, err := c.Geocode(ctx, "Osaka")
	require.NoError(t, err)
	assert.Equal(t, []domain.GeocodeResult{osaka}, got)
	assert.EqualValues(t, 1, inner.calls.Load())
}
