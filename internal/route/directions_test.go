package route_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripost/backend/internal/domain"
	"github.com/tripost/backend/internal/route"
)

func loc(day int, time, label string, lat, lng float64) domain.ResolvedLocation {
	return domain.ResolvedLocation{Lat: lat, Lng: lng, Day: day, Label: label, Time: time}
}

func tokyoWalk() []domain.ResolvedLocation {
	return []domain.ResolvedLocation{
		loc(1, "09:00", "Asakusa", 35.7148, 139.7967),
		loc(1, "11:00", "Ueno", 35.7141, 139.7774),
		loc(1, "15:00", "Akihabara", 35.6984, 139.7731),
		loc(2, "10:00", "Tokyo Station", 35.6812, 139.7671),
	}
}

func providerLegs(meters ...int) []route.ProviderRoute {
	legs := make([]route.ProviderLeg, len(meters))
	for i, m := range meters {
		legs[i] = route.ProviderLeg{DistanceMeters: m, DistanceText: fmt.Sprintf("%d m", m)}
	}
	return []route.ProviderRoute{{Legs: legs}}
}

// ---- BuildRequest ----------------------------------------------------------

func TestBuildRequest_TwoPointsNoWaypoints(t *testing.T) {
	locs := tokyoWalk()[:2]

	req, ok := route.BuildRequest(locs)

	require.True(t, ok)
	assert.Equal(t, locs[0].Position(), req.Origin)
	assert.Equal(t, locs[1].Position(), req.Destination)
	assert.Empty(t, req.Waypoints)
	assert.Equal(t, route.TravelModeWalking, req.TravelMode)
	assert.False(t, req.OptimizeWaypoints)
}

func TestBuildRequest_InteriorPointsAreOrderedStopovers(t *testing.T) {
	locs := tokyoWalk()

	req, ok := route.BuildRequest(locs)

	require.True(t, ok)
	require.Len(t, req.Waypoints, 2)
	assert.Equal(t, route.Waypoint{Location: locs[1].Position(), Stopover: true}, req.Waypoints[0])
	assert.Equal(t, route.Waypoint{Location: locs[2].Position(), Stopover: true}, req.Waypoints[1])
	assert.False(t, req.OptimizeWaypoints)
}

func TestBuildRequest_FewerThanTwo(t *testing.T) {
	_, ok := route.BuildRequest(nil)
	assert.False(t, ok)

	_, ok = route.BuildRequest(tokyoWalk()[:1])
	assert.False(t, ok)
}

// ---- MapResult -------------------------------------------------------------

func TestMapResult_LegsFollowLocations(t *testing.T) {
	locs := tokyoWalk()

	got, err := route.MapResult(locs, providerLegs(1800, 1900, 1849))

	require.NoError(t, err)
	require.Len(t, got.Legs, len(locs)-1)
	for i, leg := range got.Legs {
		assert.Equal(t, i, leg.Index)
		assert.Equal(t, locs[i].Position(), leg.StartLocation)
		assert.Equal(t, locs[i+1].Position(), leg.EndLocation)
	}
	assert.Equal(t, "5.5", got.TotalDistanceKm)
	assert.Equal(t, "1800 m", got.Legs[0].DistanceText)
}

func TestMapResult_DistanceTextFallback(t *testing.T) {
	routes := []route.ProviderRoute{{Legs: []route.ProviderLeg{{DistanceMeters: 1234}}}}

	got, err := route.MapResult(tokyoWalk()[:2], routes)

	require.NoError(t, err)
	assert.Equal(t, "1.2 km", got.Legs[0].DistanceText)
	assert.Equal(t, "1.2", got.TotalDistanceKm)
}

func TestMapResult_NoRoutes(t *testing.T) {
	_, err := route.MapResult(tokyoWalk()[:2], nil)

	assert.ErrorIs(t, err, domain.ErrNoResults)
}

func TestMapResult_LegCountMismatch(t *testing.T) {
	_, err := route.MapResult(tokyoWalk(), providerLegs(100))

	assert.ErrorIs(t, err, domain.ErrProvider)
}

func TestFormatKm(t *testing.T) {
	assert.Equal(t, "0.0", route.FormatKm(0))
	assert.Equal(t, "0.9", route.FormatKm(949))
	assert.Equal(t, "12.3", route.FormatKm(12340))
}

func TestLegBounds(t *testing.T) {
	locs := tokyoWalk()
	got, err := route.MapResult(locs, providerLegs(1, 1, 1))
	require.NoError(t, err)

	b := route.LegBounds(got)

	assert.Equal(t, domain.LatLng{Lat: 35.7148, Lng: 139.7967}, b.NorthEast)
	assert.Equal(t, domain.LatLng{Lat: 35.6812, Lng: 139.7671}, b.SouthWest)
	assert.True(t, route.LegBounds(domain.RouteResult{}).Empty())
}

func TestClassify(t *testing.T) {
	assert.Equal(t, domain.RouteFailureNone, route.Classify(nil))
	assert.Equal(t, domain.RouteFailureNoResults, route.Classify(fmt.Errorf("x: %w", domain.ErrNoResults)))
	assert.Equal(t, domain.RouteFailureQuotaExceeded, route.Classify(domain.ErrQuotaExceeded))
	assert.Equal(t, domain.RouteFailureUnavailable, route.Classify(domain.ErrNotReady))
	assert.Equal(t, domain.RouteFailureProvider, route.Classify(errors.New("socket closed")))
}
