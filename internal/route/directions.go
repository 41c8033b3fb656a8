// Package route computes the walking route through an itinerary's resolved
// locations and derives per-leg and total distances from it.
package route

import (
	"context"
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/tripost/backend/internal/domain"
)

// TravelMode of a directions request. Only walking is ever requested.
type TravelMode string

const TravelModeWalking TravelMode = "WALKING"

// Waypoint is an interior point of a route.
type Waypoint struct {
	Location domain.LatLng
	Stopover bool
}

// Request is a directions request.
type Request struct {
	Origin            domain.LatLng
	Destination       domain.LatLng
	Waypoints         []Waypoint
	TravelMode        TravelMode
	OptimizeWaypoints bool
}

// ProviderLeg is a leg as reported by the directions provider.
type ProviderLeg struct {
	Start          domain.LatLng
	End            domain.LatLng
	DistanceMeters int
	DistanceText   string
}

// ProviderRoute is one candidate route.
type ProviderRoute struct {
	Legs []ProviderLeg
	Path []domain.LatLng
}

// Directions is the external directions capability. Implementations return
// domain.ErrNoResults, domain.ErrQuotaExceeded, domain.ErrUnavailable or
// domain.ErrProvider (possibly wrapped) on failure.
type Directions interface {
	Directions(ctx context.Context, req Request) ([]ProviderRoute, error)
}

// BuildRequest turns sorted locations into a walking request: first point is
// the origin, last the destination, every interior point a stopover in
// authored order. It reports false when fewer than two points are given.
func BuildRequest(locs []domain.ResolvedLocation) (Request, bool) {
	if len(locs) < 2 {
		return Request{}, false
	}
	req := Request{
		Origin:            locs[0].Position(),
		Destination:       locs[len(locs)-1].Position(),
		TravelMode:        TravelModeWalking,
		OptimizeWaypoints: false,
	}
	for _, l := range locs[1 : len(locs)-1] {
		req.Waypoints = append(req.Waypoints, Waypoint{Location: l.Position(), Stopover: true})
	}
	return req, true
}

// MapResult converts the first provider route into a RouteResult whose legs
// line up 1:1 with consecutive locations. Leg endpoints are the locations
// themselves rather than the provider's snapped positions.
func MapResult(locs []domain.ResolvedLocation, routes []ProviderRoute) (domain.RouteResult, error) {
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return domain.RouteResult{}, domain.ErrNoResults
	}
	r := routes[0]
	if len(r.Legs) != len(locs)-1 {
		return domain.RouteResult{}, fmt.Errorf("%w: %d legs for %d locations", domain.ErrProvider, len(r.Legs), len(locs))
	}

	out := domain.RouteResult{Legs: make([]domain.Leg, len(r.Legs)), Path: r.Path}
	total := 0
	for i, pl := range r.Legs {
		out.Legs[i] = domain.Leg{
			Index:          i,
			StartLocation:  locs[i].Position(),
			EndLocation:    locs[i+1].Position(),
			DistanceMeters: pl.DistanceMeters,
			DistanceText:   distanceText(pl.DistanceMeters, pl.DistanceText),
		}
		total += pl.DistanceMeters
	}
	out.TotalDistanceKm = FormatKm(total)
	return out, nil
}

// FormatKm renders meters as kilometres with one decimal, e.g. 1234 -> "1.2".
func FormatKm(meters int) string {
	return fmt.Sprintf("%.1f", float64(meters)/1000)
}

func distanceText(meters int, provided string) string {
	if provided != "" {
		return provided
	}
	return humanize.SIWithDigits(float64(meters), 1, "m")
}

// LegBounds is the bounding box of every leg endpoint.
func LegBounds(r domain.RouteResult) domain.Bounds {
	var b domain.Bounds
	for _, l := range r.Legs {
		b = b.Extend(l.StartLocation).Extend(l.EndLocation)
	}
	return b
}

// Classify maps a directions error to the failure reason shown to the user.
func Classify(err error) domain.RouteFailure {
	switch {
	case err == nil:
		return domain.RouteFailureNone
	case errors.Is(err, domain.ErrNoResults):
		return domain.RouteFailureNoResults
	case errors.Is(err, domain.ErrQuotaExceeded):
		return domain.RouteFailureQuotaExceeded
	case errors.Is(err, domain.ErrUnavailable), errors.Is(err, domain.ErrNotReady):
		return domain.RouteFailureUnavailable
	default:
		return domain.RouteFailureProvider
	}
}
