package route

import (
	"strconv"
	"strings"

	"github.com/tripost/backend/internal/domain"
)

// Stop is one location in a day's list.
// NextLeg is the leg that starts here and ends at the next stop of the same
// day; it is nil for a day's last stop and when no route is available.
type Stop struct {
	Order    int           `json:"order"`
	Label    string        `json:"label"`
	Time     string        `json:"time"`
	Position domain.LatLng `json:"position"`
	NextLeg  *domain.Leg   `json:"next_leg,omitempty"`
}

// DayRoute groups one day's stops with the walking distance covered within
// the day and a Google Maps link for walking it.
type DayRoute struct {
	Day            int    `json:"day"`
	Stops          []Stop `json:"stops"`
	DistanceMeters int    `json:"distance_meters"`
	DirectionsURL  string `json:"directions_url,omitempty"`
}

// GroupByDay splits sorted locations into days. Leg i of result connects
// locs[i] and locs[i+1], so a leg is attached to stop i only when both ends
// fall on the same day. result may be nil.
func GroupByDay(locs []domain.ResolvedLocation, result *domain.RouteResult) []DayRoute {
	var out []DayRoute
	for i, l := range locs {
		if len(out) == 0 || out[len(out)-1].Day != l.Day {
			out = append(out, DayRoute{Day: l.Day})
		}
		dr := &out[len(out)-1]

		stop := Stop{Order: i + 1, Label: l.Label, Time: l.Time, Position: l.Position()}
		if result != nil && i < len(result.Legs) && i+1 < len(locs) && locs[i+1].Day == l.Day {
			leg := result.Legs[i]
			stop.NextLeg = &leg
			dr.DistanceMeters += leg.DistanceMeters
		}
		dr.Stops = append(dr.Stops, stop)
	}

	for i := range out {
		points := make([]domain.LatLng, len(out[i].Stops))
		for j, s := range out[i].Stops {
			points[j] = s.Position
		}
		out[i].DirectionsURL = DirectionsURL(points)
	}
	return out
}

// DirectionsURL returns a Google Maps walking directions link through
// points, or "" when there are fewer than two.
func DirectionsURL(points []domain.LatLng) string {
	if len(points) < 2 {
		return ""
	}
	var b strings.Builder
	b.WriteString("https://www.google.com/maps/dir/")
	for i, p := range points {
		if i > 0 {
			b.WriteByte('/')
		}
		b.WriteString(strconv.FormatFloat(p.Lat, 'f', -1, 64))
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(p.Lng, 'f', -1, 64))
	}
	b.WriteString("?travelmode=walking")
	return b.String()
}
