package mapsync

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/tripost/backend/internal/domain"
	"github.com/tripost/backend/internal/route"
)

// Canvas defaults used when fitting bounds server-side.
const (
	DefaultWidth         = 640
	DefaultHeight        = 480
	DefaultSearchTimeout = 10 * time.Second
)

// Geocoder turns a free-text address into candidate places.
type Geocoder interface {
	Geocode(ctx context.Context, address string) ([]domain.GeocodeResult, error)
}

// Focus is an explicit request to move the map to a position, e.g. after a
// place is picked or an address search. When Fit is set the map fits the box
// instead of zooming to Zoom.
type Focus struct {
	Position domain.LatLng  `json:"position"`
	Fit      *domain.Bounds `json:"fit,omitempty"`
	Zoom     int            `json:"zoom"`
}

// PanTo is a Focus on a single point at SelectedZoom.
func PanTo(p domain.LatLng) *Focus {
	return &Focus{Position: p, Zoom: SelectedZoom}
}

// SearchFocus is where the map goes for a geocode hit: its viewport when the
// provider gave one, otherwise the point at SearchZoom.
func SearchFocus(r domain.GeocodeResult) Focus {
	f := Focus{Position: r.Location, Zoom: SearchZoom}
	if r.Viewport != nil && !r.Viewport.Empty() {
		v := *r.Viewport
		f.Fit = &v
	}
	return f
}

// Cycle is everything the map shows after one update: the markers, the
// route (nil for none) and the pending focus request, if any. Apply
// resolves them into one viewport so nothing fights over the camera.
type Cycle struct {
	Markers []domain.Marker
	Route   *domain.RouteResult
	Focus   *Focus
}

// RenderedMarker is a marker as drawn. Numbers follow render order from 1.
type RenderedMarker struct {
	Number   int           `json:"number"`
	Position domain.LatLng `json:"position"`
	Day      int           `json:"day"`
	Label    string        `json:"label"`
	Time     string        `json:"time"`
	Color    string        `json:"color"`
	ZIndex   int           `json:"z_index"`
	Hovered  bool          `json:"hovered"`
	Selected bool          `json:"selected"`
}

// MarkerLabel is the single info label open on the map.
type MarkerLabel struct {
	Number   int           `json:"number"`
	Position domain.LatLng `json:"position"`
	Day      int           `json:"day"`
	Place    string        `json:"place"`
	Time     string        `json:"time"`
}

// Polyline is the drawn route. The provider's own stop markers are
// suppressed so only the numbered day markers show.
type Polyline struct {
	Path            []domain.LatLng `json:"path"`
	Color           string          `json:"color"`
	Opacity         float64         `json:"opacity"`
	Weight          int             `json:"weight"`
	ZIndex          int             `json:"z_index"`
	SuppressMarkers bool            `json:"suppress_markers"`
}

// Scene is the full drawable state of the map.
type Scene struct {
	Status   string           `json:"status"`
	Error    string           `json:"error,omitempty"`
	Viewport *Viewport        `json:"viewport,omitempty"`
	Markers  []RenderedMarker `json:"markers"`
	Label    *MarkerLabel     `json:"label,omitempty"`
	Route    *Polyline        `json:"route,omitempty"`
}

// Config configures a Synchronizer.
type Config struct {
	Width, Height int
	Padding       int
	SearchTimeout time.Duration
	Logger        *slog.Logger
}

// Synchronizer keeps the map in step with the itinerary. It is safe for
// concurrent use.
type Synchronizer struct {
	ready *Readiness
	geo   Geocoder
	cfg   Config
	log   *slog.Logger

	mu       sync.Mutex
	markers  []domain.Marker
	route    *domain.RouteResult
	focus    *Focus
	viewport Viewport
	hovered  int
	selected int
	gen      uint64
}

// NewSynchronizer builds a Synchronizer. A nil ready is treated as already
// ready; geo may be nil, in which case Search reports the capability as
// unavailable.
func NewSynchronizer(ready *Readiness, geo Geocoder, cfg Config) *Synchronizer {
	if ready == nil {
		ready = ReadyNow()
	}
	if cfg.Width <= 0 {
		cfg.Width = DefaultWidth
	}
	if cfg.Height <= 0 {
		cfg.Height = DefaultHeight
	}
	if cfg.Padding <= 0 {
		cfg.Padding = FitPadding
	}
	if cfg.SearchTimeout <= 0 {
		cfg.SearchTimeout = DefaultSearchTimeout
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Synchronizer{
		ready:    ready,
		geo:      geo,
		cfg:      cfg,
		log:      log.With("component", "mapsync.Synchronizer"),
		viewport: Viewport{Center: DefaultCenter, Zoom: DefaultZoom, Reason: ReasonDefault},
	}
}

// Apply replaces what the map shows and picks the viewport, in priority
// order: the focus request, then the route's bounds, then the first marker,
// then the default view. Once the provider has failed Apply does nothing.
func (s *Synchronizer) Apply(c Cycle) {
	if s.failed() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.setMarkersLocked(c.Markers)
	s.route = nil
	if c.Route != nil && len(c.Route.Legs) > 0 {
		r := *c.Route
		s.route = &r
	}
	s.focus = nil
	if c.Focus != nil {
		f := *c.Focus
		s.focus = &f
	}
	s.viewport = s.chooseLocked()
}

func (s *Synchronizer) setMarkersLocked(ms []domain.Marker) {
	if slices.Equal(s.markers, ms) {
		return
	}
	var keep domain.Marker
	hadSelection := s.selected > 0
	if hadSelection {
		keep = s.markers[s.selected-1]
	}
	s.markers = slices.Clone(ms)
	s.hovered = 0
	s.selected = 0
	if hadSelection {
		if i := slices.Index(s.markers, keep); i >= 0 {
			s.selected = i + 1
		}
	}
}

func (s *Synchronizer) chooseLocked() Viewport {
	if f := s.focus; f != nil {
		if f.Fit != nil && !f.Fit.Empty() {
			return s.fit(*f.Fit, ReasonSelected)
		}
		zoom := f.Zoom
		if zoom <= 0 {
			zoom = SelectedZoom
		}
		return Viewport{Center: f.Position, Zoom: zoom, Reason: ReasonSelected}
	}
	if s.route != nil {
		if b := route.LegBounds(*s.route); !b.Empty() {
			return s.fit(b, ReasonRoute)
		}
	}
	if len(s.markers) > 0 {
		return Viewport{Center: s.markers[0].Position, Zoom: FirstMarkerZoom, Reason: ReasonFirstMarker}
	}
	return Viewport{Center: DefaultCenter, Zoom: DefaultZoom, Reason: ReasonDefault}
}

func (s *Synchronizer) fit(b domain.Bounds, reason ViewportReason) Viewport {
	center, zoom := FitBounds(b, s.cfg.Width, s.cfg.Height, s.cfg.Padding, MaxFitZoom)
	return Viewport{Center: center, Zoom: zoom, Fit: &b, Padding: s.cfg.Padding, Reason: reason}
}

// Hover shows the label of marker n; 0 hides it. It reports whether n was
// a valid marker number. Hovering never moves the viewport.
func (s *Synchronizer) Hover(n int) bool {
	if s.failed() {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if n < 0 || n > len(s.markers) {
		return false
	}
	s.hovered = n
	return true
}

// Select marks marker n as selected; 0 clears the selection. A selection
// stays until cleared or its marker disappears, and its label shows
// whenever no other marker is hovered.
func (s *Synchronizer) Select(n int) bool {
	if s.failed() {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if n < 0 || n > len(s.markers) {
		return false
	}
	s.selected = n
	return true
}

// Search geocodes address and moves the map to the first hit. It returns
// the applied focus and whether it was applied; a later search supersedes
// an earlier one still in flight. Failures leave the map unchanged.
func (s *Synchronizer) Search(ctx context.Context, address string) (Focus, bool, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return Focus{}, false, fmt.Errorf("%w: address is required", domain.ErrValidation)
	}
	if err := s.ready.Wait(ctx); err != nil {
		return Focus{}, false, err
	}
	if s.geo == nil {
		return Focus{}, false, fmt.Errorf("%w: no geocoder configured", domain.ErrUnavailable)
	}

	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.SearchTimeout)
	defer cancel()

	results, err := s.geo.Geocode(ctx, address)
	if err != nil {
		s.log.WarnContext(ctx, "address search failed", "address", address, "error", err)
		return Focus{}, false, err
	}
	if len(results) == 0 {
		return Focus{}, false, domain.ErrNoResults
	}
	f := SearchFocus(results[0])

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return f, false, nil
	}
	s.focus = &f
	s.viewport = s.chooseLocked()
	return f, true, nil
}

// Scene returns what the map currently draws.
func (s *Synchronizer) Scene() Scene {
	state, _ := s.ready.State()
	if state == Failed {
		return Scene{
			Status:  state.String(),
			Error:   "map could not be loaded",
			Markers: []RenderedMarker{},
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	vp := s.viewport
	scene := Scene{
		Status:   state.String(),
		Viewport: &vp,
		Markers:  make([]RenderedMarker, len(s.markers)),
	}
	for i, m := range s.markers {
		n := i + 1
		scene.Markers[i] = RenderedMarker{
			Number:   n,
			Position: m.Position,
			Day:      m.Day,
			Label:    m.Label,
			Time:     m.Time,
			Color:    DayColor(m.Day),
			ZIndex:   markerZIndex,
			Hovered:  n == s.hovered,
			Selected: n == s.selected,
		}
	}

	labelled := s.hovered
	if labelled == 0 {
		labelled = s.selected
	}
	if labelled > 0 {
		m := s.markers[labelled-1]
		scene.Label = &MarkerLabel{Number: labelled, Position: m.Position, Day: m.Day, Place: m.Label, Time: m.Time}
	}

	if s.route != nil {
		scene.Route = &Polyline{
			Path:            routePath(*s.route),
			Color:           RouteColor,
			Opacity:         RouteOpacity,
			Weight:          RouteWeight,
			ZIndex:          routeZIndex,
			SuppressMarkers: true,
		}
	}
	return scene
}

// Viewport returns the current viewport.
func (s *Synchronizer) Viewport() Viewport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewport
}

// routePath is the decoded overview path, or the leg endpoints when the
// provider sent none.
func routePath(r domain.RouteResult) []domain.LatLng {
	if len(r.Path) > 0 {
		return slices.Clone(r.Path)
	}
	path := make([]domain.LatLng, 0, len(r.Legs)+1)
	for i, l := range r.Legs {
		if i == 0 {
			path = append(path, l.StartLocation)
		}
		path = append(path, l.EndLocation)
	}
	return path
}

func (s *Synchronizer) failed() bool {
	state, _ := s.ready.State()
	return state == Failed
}
