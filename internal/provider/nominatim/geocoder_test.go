package nominatim_test

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/tripost/backend/internal/domain"
	"github.com/tripost/backend/internal/provider/nominatim"
)

func newGeocoder(search nominatim.SearchFunc) *nominatim.Geocoder {
	return nominatim.New(nominatim.Config{Search: search, Rate: rate.Inf})
}

func TestGeocoder_Geocode(t *testing.T) {
	g := newGeocoder(func(q string, limit int) ([]nominatim.Hit, error) {
		assert.Equal(t, "Kyoto Station", q)
		assert.Equal(t, nominatim.DefaultLimit, limit)
		return []nominatim.Hit{
			{DisplayName: "Kyoto Station, Shimogyo Ward", Lat: "34.9858", Lon: "135.7588"},
			{DisplayName: "broken", Lat: "", Lon: "135"},
		}, nil
	})

	got, err := g.Geocode(context.Background(), "Kyoto Station")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.LatLng{Lat: 34.9858, Lng: 135.7588}, got[0].Location)
	assert.Equal(t, "Kyoto Station, Shimogyo Ward", got[0].FormattedAddress)
	assert.Nil(t, got[0].Viewport)
}

func TestGeocoder_RetriesTransient(t *testing.T) {
	var calls atomic.Int32
	g := newGeocoder(func(string, int) ([]nominatim.Hit, error) {
		if calls.Add(1) == 1 {
			return nil, io.ErrUnexpectedEOF
		}
		return []nominatim.Hit{{DisplayName: "Nara", Lat: "34.68", Lon: "135.80"}}, nil
	})

	got, err := g.Geocode(context.Background(), "Nara")
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGeocoder_PermanentError(t *testing.T) {
	var calls atomic.Int32
	g := newGeocoder(func(string, int) ([]nominatim.Hit, error) {
		calls.Add(1)
		return nil, errors.New("403 forbidden")
	})

	_, err := g.Geocode(context.Background(), "x")
	assert.ErrorIs(t, err, domain.ErrProvider)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGeocoder_ContextCancelled(t *testing.T) {
	block := make(chan struct{})
	t.Cleanup(func() { close(block) })
	g := newGeocoder(func(string, int) ([]nominatim.Hit, error) {
		<-block
		return nil, nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Geocode(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, domain.ErrProvider)
}
