// Package viewer renders a saved itinerary read-only: the time-ordered
// locations, the numbered map, the walking route and a per-day summary of
// stops and leg distances.
package viewer

import (
	"context"
	"log/slog"

	"github.com/tripost/backend/internal/domain"
	"github.com/tripost/backend/internal/itinerary"
	"github.com/tripost/backend/internal/mapsync"
	"github.com/tripost/backend/internal/route"
)

// View is a rendered itinerary.
type View struct {
	Itinerary domain.Itinerary          `json:"itinerary"`
	Locations []domain.ResolvedLocation `json:"locations"`
	Scene     mapsync.Scene             `json:"map"`
	Route     *domain.RouteResult       `json:"route"`
	Failure   domain.RouteFailure       `json:"route_failure,omitempty"`
	Days      []route.DayRoute          `json:"days"`
}

// Config tunes a Viewer.
type Config struct {
	Route  route.Config
	Map    mapsync.Config
	Logger *slog.Logger
}

// Viewer builds Views. It holds no per-itinerary state and is safe for
// concurrent use.
type Viewer struct {
	ready   *mapsync.Readiness
	planner *route.Planner
	cfg     Config
}

// New returns a Viewer. dir may be nil and ready may be nil (always ready).
func New(dir route.Directions, ready *mapsync.Readiness, cfg Config) *Viewer {
	if ready == nil {
		ready = mapsync.ReadyNow()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	rc := cfg.Route
	rc.Gate = ready
	rc.OnChange = nil
	if rc.Logger == nil {
		rc.Logger = cfg.Logger
	}
	if cfg.Map.Logger == nil {
		cfg.Map.Logger = cfg.Logger
	}
	return &Viewer{ready: ready, planner: route.NewPlanner(dir, rc), cfg: cfg}
}

// Build renders it. Markers are numbered in the same day and time order as
// the location list so the map and the list agree. A missing route is
// reported in Failure, never as an error.
func (v *Viewer) Build(ctx context.Context, it domain.Itinerary) View {
	cleaned := itinerary.Clean(it)
	locs := itinerary.SortedLocations(cleaned)
	if locs == nil {
		locs = []domain.ResolvedLocation{}
	}

	result, failure := v.planner.Compute(ctx, locs)

	markers := make([]domain.Marker, len(locs))
	for i, l := range locs {
		markers[i] = domain.Marker{Position: l.Position(), Day: l.Day, Label: l.Label, Time: l.Time}
	}
	sync := mapsync.NewSynchronizer(v.ready, nil, v.cfg.Map)
	sync.Apply(mapsync.Cycle{Markers: markers, Route: result})

	days := route.GroupByDay(locs, result)
	if days == nil {
		days = []route.DayRoute{}
	}
	return View{
		Itinerary: cleaned,
		Locations: locs,
		Scene:     sync.Scene(),
		Route:     result,
		Failure:   failure,
		Days:      days,
	}
}

// Close releases the Viewer's planner.
func (v *Viewer) Close() {
	v.planner.Close()
}
