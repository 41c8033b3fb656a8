package googlemaps

import (
	"context"
	"fmt"
	"strings"

	"googlemaps.github.io/maps"

	"github.com/tripost/backend/internal/domain"
	"github.com/tripost/backend/internal/obs"
	"github.com/tripost/backend/internal/route"
)

// Geocode implements mapsync.Geocoder. Zero results is an empty slice.
func (c *Client) Geocode(ctx context.Context, address string) (_ []domain.GeocodeResult, err error) {
	defer obs.Time(ctx, c.log, "googlemaps.Geocode")(&err)

	results, err := c.maps.Geocode(ctx, &maps.GeocodingRequest{
		Address:  address,
		Region:   c.cfg.Region,
		Language: c.cfg.Language,
	})
	if err != nil {
		return nil, translate("Geocode", err)
	}

	out := make([]domain.GeocodeResult, 0, len(results))
	for _, r := range results {
		out = append(out, domain.GeocodeResult{
			Location:         fromLatLng(r.Geometry.Location),
			Viewport:         fromBounds(r.Geometry.Viewport),
			FormattedAddress: r.FormattedAddress,
		})
	}
	return out, nil
}

// Directions implements route.Directions. Waypoints that are not stopovers
// are sent as "via:" points.
func (c *Client) Directions(ctx context.Context, req route.Request) (_ []route.ProviderRoute, err error) {
	defer obs.Time(ctx, c.log, "googlemaps.Directions")(&err)

	origin, dest := toLatLng(req.Origin), toLatLng(req.Destination)
	dr := &maps.DirectionsRequest{
		Origin:      origin.String(),
		Destination: dest.String(),
		Mode:        maps.Mode(strings.ToLower(string(req.TravelMode))),
		Optimize:    req.OptimizeWaypoints,
		Language:    c.cfg.Language,
		Region:      c.cfg.Region,
	}
	for _, w := range req.Waypoints {
		p := toLatLng(w.Location)
		if w.Stopover {
			dr.Waypoints = append(dr.Waypoints, p.String())
		} else {
			dr.Waypoints = append(dr.Waypoints, "via:"+p.String())
		}
	}

	routes, _, err := c.maps.Directions(ctx, dr)
	if err != nil {
		return nil, translate("Directions", err)
	}

	out := make([]route.ProviderRoute, 0, len(routes))
	for _, r := range routes {
		pr := route.ProviderRoute{Legs: make([]route.ProviderLeg, 0, len(r.Legs))}
		for _, l := range r.Legs {
			if l == nil {
				return nil, fmt.Errorf("googlemaps.Directions: %w: empty leg", domain.ErrProvider)
			}
			pr.Legs = append(pr.Legs, route.ProviderLeg{
				Start:          fromLatLng(l.StartLocation),
				End:            fromLatLng(l.EndLocation),
				DistanceMeters: l.Meters,
				DistanceText:   l.HumanReadable,
			})
		}
		if r.OverviewPolyline.Points != "" {
			path, perr := maps.DecodePolyline(r.OverviewPolyline.Points)
			if perr != nil {
				c.log.DebugContext(ctx, "undecodable overview polyline", "error", perr)
			}
			for _, p := range path {
				pr.Path = append(pr.Path, fromLatLng(p))
			}
		}
		out = append(out, pr)
	}
	return out, nil
}

var _ route.Directions = (*Client)(nil)
