// Package mapsync owns the map's viewport and everything drawn on it:
// day-coloured numbered markers, the single hover label and the route
// polyline. It also owns the provider readiness signal that every
// capability-calling component waits on.
package mapsync

import (
	"math"

	"github.com/tripost/backend/internal/domain"
)

// Viewport constants.
const (
	DefaultZoom     = 4
	SelectedZoom    = 15
	FirstMarkerZoom = 14
	SearchZoom      = 14
	MaxFitZoom      = 17
	FitPadding      = 50 // pixels on every side

	tileSize = 256
)

// DefaultCenter is central Tokyo.
var DefaultCenter = domain.LatLng{Lat: 35.6895, Lng: 139.6917}

// ViewportReason tells which rule produced a viewport.
type ViewportReason string

const (
	ReasonSelected    ViewportReason = "selected"
	ReasonRoute       ViewportReason = "route"
	ReasonFirstMarker ViewportReason = "first_marker"
	ReasonDefault     ViewportReason = "default"
)

// Viewport is the map's centre and zoom. When it was produced by fitting a
// box, Fit and Padding carry the box so a client can refit at its own size.
type Viewport struct {
	Center  domain.LatLng  `json:"center"`
	Zoom    int            `json:"zoom"`
	Fit     *domain.Bounds `json:"fit,omitempty"`
	Padding int            `json:"padding,omitempty"`
	Reason  ViewportReason `json:"reason"`
}

// FitBounds returns the centre and the largest zoom at which b fits in a
// width x height pixel canvas with padding on every side, using the Web
// Mercator projection. The zoom is capped at maxZoom; a single point gets
// maxZoom.
func FitBounds(b domain.Bounds, width, height, padding, maxZoom int) (domain.LatLng, int) {
	if b.Empty() {
		return DefaultCenter, DefaultZoom
	}
	ne, sw := b.NorthEast, b.SouthWest

	w := math.Max(float64(width-2*padding), 1)
	h := math.Max(float64(height-2*padding), 1)

	latFraction := (mercatorY(ne.Lat) - mercatorY(sw.Lat)) / (2 * math.Pi)
	lngSpan := ne.Lng - sw.Lng
	if lngSpan < 0 {
		lngSpan += 360
	}
	lngFraction := lngSpan / 360

	zoom := float64(maxZoom)
	if latFraction > 0 {
		zoom = math.Min(zoom, math.Floor(math.Log2(h/tileSize/latFraction)))
	}
	if lngFraction > 0 {
		zoom = math.Min(zoom, math.Floor(math.Log2(w/tileSize/lngFraction)))
	}
	zoom = math.Max(zoom, 0)

	centerY := (mercatorY(ne.Lat) + mercatorY(sw.Lat)) / 2
	center := domain.LatLng{
		Lat: math.Atan(math.Sinh(centerY)) * 180 / math.Pi,
		Lng: sw.Lng + lngSpan/2,
	}
	if center.Lng > 180 {
		center.Lng -= 360
	}
	return center, int(zoom)
}

// mercatorY projects a latitude in degrees, clamped to the Web Mercator range.
func mercatorY(lat float64) float64 {
	s := math.Sin(lat * math.Pi / 180)
	y := math.Log((1+s)/(1-s)) / 2
	return math.Max(math.Min(y, math.Pi), -math.Pi)
}
