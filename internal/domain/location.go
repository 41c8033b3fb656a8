package domain

import (
	"encoding/json"
	"math"
)

// LatLng is a WGS84 coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Bounds is an axis-aligned lat/lng bounding box. The zero value is empty.
type Bounds struct {
	NorthEast LatLng `json:"northeast"`
	SouthWest LatLng `json:"southwest"`
	set       bool
}

// NewBounds returns the smallest box containing all points.
func NewBounds(points ...LatLng) Bounds {
	var b Bounds
	for _, p := range points {
		b = b.Extend(p)
	}
	return b
}

// BoundsOf builds a bounds value from explicit corners, e.g. a provider viewport.
func BoundsOf(northEast, southWest LatLng) Bounds {
	return Bounds{NorthEast: northEast, SouthWest: southWest, set: true}
}

// Extend returns b grown to include p.
func (b Bounds) Extend(p LatLng) Bounds {
	if !b.set {
		return Bounds{NorthEast: p, SouthWest: p, set: true}
	}
	b.NorthEast.Lat = math.Max(b.NorthEast.Lat, p.Lat)
	b.NorthEast.Lng = math.Max(b.NorthEast.Lng, p.Lng)
	b.SouthWest.Lat = math.Min(b.SouthWest.Lat, p.Lat)
	b.SouthWest.Lng = math.Min(b.SouthWest.Lng, p.Lng)
	return b
}

// UnmarshalJSON decodes the two corners and marks the box as set.
func (b *Bounds) UnmarshalJSON(data []byte) error {
	var raw struct {
		NorthEast LatLng `json:"northeast"`
		SouthWest LatLng `json:"southwest"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*b = BoundsOf(raw.NorthEast, raw.SouthWest)
	return nil
}

// Empty reports whether no point has been added.
func (b Bounds) Empty() bool {
	return !b.set
}

// Center returns the midpoint of the box.
func (b Bounds) Center() LatLng {
	return LatLng{
		Lat: (b.NorthEast.Lat + b.SouthWest.Lat) / 2,
		Lng: (b.NorthEast.Lng + b.SouthWest.Lng) / 2,
	}
}

// ResolvedLocation is a geocoded entry flattened out of its day, used for
// time-ordered display and routing.
type ResolvedLocation struct {
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Day   int     `json:"day"`
	Label string  `json:"label"`
	Time  string  `json:"time"`
}

// Position returns the location's coordinates.
func (l ResolvedLocation) Position() LatLng {
	return LatLng{Lat: l.Lat, Lng: l.Lng}
}

// Marker is one map marker derived from an entry with coordinates.
type Marker struct {
	Position LatLng `json:"position"`
	Day      int    `json:"day"`
	Label    string `json:"label"`
	Time     string `json:"time"`
}
