package itinerary

import (
	"cmp"
	"slices"

	"github.com/tripost/backend/internal/domain"
)

// Markers returns one marker per entry that has both coordinates, tagged with
// its day. Order is edit order within each day, days ascending, not time.
func Markers(it domain.Itinerary) []domain.Marker {
	var out []domain.Marker
	for _, day := range it.Days() {
		for _, e := range it[day] {
			pos, ok := e.Position()
			if !ok {
				continue
			}
			out = append(out, domain.Marker{Position: pos, Day: day, Label: e.Place, Time: e.Time})
		}
	}
	return out
}

// SortedLocations returns every entry with both coordinates, ordered by day
// ascending and then by time. Entries without a time come last within their
// day and otherwise keep edit order.
//
// Times are compared as strings, which is only correct because they are
// zero-padded "HH:MM".
func SortedLocations(it domain.Itinerary) []domain.ResolvedLocation {
	var out []domain.ResolvedLocation
	for _, day := range it.Days() {
		for _, e := range it[day] {
			pos, ok := e.Position()
			if !ok {
				continue
			}
			out = append(out, domain.ResolvedLocation{
				Lat:   pos.Lat,
				Lng:   pos.Lng,
				Day:   day,
				Label: e.Place,
				Time:  e.Time,
			})
		}
	}
	slices.SortStableFunc(out, compareLocations)
	return out
}

func compareLocations(a, b domain.ResolvedLocation) int {
	if c := cmp.Compare(a.Day, b.Day); c != 0 {
		return c
	}
	switch {
	case a.Time == "" && b.Time == "":
		return 0
	case a.Time == "":
		return 1
	case b.Time == "":
		return -1
	}
	return cmp.Compare(a.Time, b.Time)
}
