// Package editor is the authoring composition root. An Editor owns one
// itinerary being written and keeps the place resolver, the store, the
// route planner and the map synchronizer in step with each other.
//
// Every external capability may be down; the editor then still accepts
// every edit and simply shows less (no suggestions, no route, default map).
package editor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/tripost/backend/internal/domain"
	"github.com/tripost/backend/internal/itinerary"
	"github.com/tripost/backend/internal/mapsync"
	"github.com/tripost/backend/internal/places"
	"github.com/tripost/backend/internal/route"
)

// Deps are the external capabilities an Editor calls. Any of them may be nil.
type Deps struct {
	Suggester  places.Suggester
	Details    places.DetailsFetcher
	Directions route.Directions
	Geocoder   mapsync.Geocoder

	// Readiness gates every capability call. Nil means always ready.
	Readiness *mapsync.Readiness
}

// Config tunes the components an Editor builds.
type Config struct {
	Places places.Config
	Route  route.Config
	Map    mapsync.Config
	Logger *slog.Logger
}

// Snapshot is everything the authoring view shows.
type Snapshot struct {
	Days      int                       `json:"days"`
	Itinerary domain.Itinerary          `json:"itinerary"`
	Drafts    map[int]domain.Entry      `json:"drafts"`
	Panels    map[int]places.DayState   `json:"panels"`
	Locations []domain.ResolvedLocation `json:"locations"`
	Route     route.State               `json:"route"`
	Scene     mapsync.Scene             `json:"map"`
}

// Editor is safe for concurrent use, although a session normally has a
// single author.
type Editor struct {
	resolver *places.Resolver
	planner  *route.Planner
	sync     *mapsync.Synchronizer
	log      *slog.Logger

	mu     sync.Mutex
	store  *itinerary.Store
	drafts map[int]domain.Entry
	focus  *mapsync.Focus

	// mapMu serializes map refreshes so the newest state is always the one
	// drawn last.
	mapMu sync.Mutex

	// updateMu serializes location updates so the planner always ends on the
	// newest list. Never taken while holding mu or mapMu.
	updateMu sync.Mutex
}

// New returns an editor for a trip of days days, pre-filled from initial
// (which may be nil).
func New(deps Deps, days int, initial domain.Itinerary, cfg Config) (*Editor, error) {
	if days < 1 {
		return nil, fmt.Errorf("%w: days must be at least 1", domain.ErrValidation)
	}
	ready := deps.Readiness
	if ready == nil {
		ready = mapsync.ReadyNow()
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	e := &Editor{
		log:    log.With("component", "editor.Editor"),
		store:  itinerary.Load(days, initial),
		drafts: make(map[int]domain.Entry),
	}

	pc := cfg.Places
	pc.Gate = ready
	pc.OnChange = nil
	if pc.Logger == nil {
		pc.Logger = log
	}
	e.resolver = places.NewResolver(deps.Suggester, deps.Details, pc)

	rc := cfg.Route
	rc.Gate = ready
	rc.OnChange = func(route.State) { e.refreshMap() }
	if rc.Logger == nil {
		rc.Logger = log
	}
	e.planner = route.NewPlanner(deps.Directions, rc)

	mc := cfg.Map
	if mc.Logger == nil {
		mc.Logger = log
	}
	e.sync = mapsync.NewSynchronizer(ready, deps.Geocoder, mc)

	e.changed()
	return e, nil
}

// SetDays changes the trip length. Everything entered so far is discarded.
func (e *Editor) SetDays(days int) error {
	if days < 1 {
		return fmt.Errorf("%w: days must be at least 1", domain.ErrValidation)
	}
	e.resolver.Reset()

	e.mu.Lock()
	e.store.Reset(days)
	e.drafts = make(map[int]domain.Entry)
	e.focus = nil
	e.mu.Unlock()

	e.changed()
	return nil
}

// SetDraftTime sets the time of day's draft entry. t must be a zero-padded
// 24h "HH:MM" or empty.
func (e *Editor) SetDraftTime(day int, t string) (domain.Entry, error) {
	t = strings.TrimSpace(t)
	if t != "" && !validTime(t) {
		return domain.Entry{}, fmt.Errorf("%w: time must be HH:MM, got %q", domain.ErrValidation, t)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.checkDayLocked(day); err != nil {
		return domain.Entry{}, err
	}
	d := e.drafts[day]
	d.Time = t
	e.drafts[day] = d
	return d, nil
}

// TypePlace records free text typed into day's place input. The draft loses
// any coordinates it had and a suggestion lookup is scheduled.
func (e *Editor) TypePlace(day int, text string) (domain.Entry, error) {
	e.mu.Lock()
	if err := e.checkDayLocked(day); err != nil {
		e.mu.Unlock()
		return domain.Entry{}, err
	}
	d := e.drafts[day]
	d.Place = text
	d.Lat, d.Lng = nil, nil
	e.drafts[day] = d
	e.mu.Unlock()

	e.resolver.Query(day, text)
	return d, nil
}

// FocusPlace reopens day's suggestion panel.
func (e *Editor) FocusPlace(day int) error {
	if err := e.checkDay(day); err != nil {
		return err
	}
	e.resolver.Focus(day)
	return nil
}

// BlurPlace closes day's suggestion panel after the grace delay.
func (e *Editor) BlurPlace(day int) error {
	if err := e.checkDay(day); err != nil {
		return err
	}
	e.resolver.Blur(day)
	return nil
}

// SelectSuggestion resolves s into day's draft and pans the map to it. A
// selection overtaken by newer typing on the same day leaves the draft as
// it is.
func (e *Editor) SelectSuggestion(ctx context.Context, day int, s domain.Suggestion) (domain.Entry, error) {
	if err := e.checkDay(day); err != nil {
		return domain.Entry{}, err
	}
	place, current := e.resolver.Select(ctx, day, s)

	e.mu.Lock()
	d := e.drafts[day]
	if !current {
		e.mu.Unlock()
		return d, nil
	}
	d.Place = place.Name
	d.Lat, d.Lng = place.Lat, place.Lng
	e.drafts[day] = d
	if pos, ok := place.Position(); ok {
		e.focus = mapsync.PanTo(pos)
	}
	e.mu.Unlock()

	e.refreshMap()
	return d, nil
}

// Commit adds day's draft to the itinerary and clears it. The draft needs
// both a time and a place.
func (e *Editor) Commit(day int) (domain.Entry, error) {
	e.mu.Lock()
	if err := e.checkDayLocked(day); err != nil {
		e.mu.Unlock()
		return domain.Entry{}, err
	}
	d := e.drafts[day]
	if !d.Complete() {
		e.mu.Unlock()
		return domain.Entry{}, fmt.Errorf("%w: time and place are required", domain.ErrValidation)
	}
	d.Time = strings.TrimSpace(d.Time)
	d.Place = strings.TrimSpace(d.Place)
	e.store.AddEntry(day, d)
	delete(e.drafts, day)
	// The new marker should not yank the map back to the picked place.
	e.focus = nil
	e.mu.Unlock()

	e.changed()
	return d, nil
}

// Remove deletes the first entry of day with entry's time and place. It
// reports whether one was found.
func (e *Editor) Remove(day int, entry domain.Entry) (bool, error) {
	e.mu.Lock()
	if err := e.checkDayLocked(day); err != nil {
		e.mu.Unlock()
		return false, err
	}
	removed := e.store.RemoveEntry(day, entry)
	e.mu.Unlock()

	if removed {
		e.changed()
	}
	return removed, nil
}

// HoverMarker shows marker n's label; 0 hides it.
func (e *Editor) HoverMarker(n int) bool {
	return e.sync.Hover(n)
}

// SelectMarker selects marker n; 0 clears the selection.
func (e *Editor) SelectMarker(n int) bool {
	return e.sync.Select(n)
}

// Search moves the map to an address. The found position stays the map's
// focus until the next commit or pick.
func (e *Editor) Search(ctx context.Context, address string) (mapsync.Focus, error) {
	f, applied, err := e.sync.Search(ctx, address)
	if err != nil {
		return mapsync.Focus{}, err
	}
	if applied {
		e.mu.Lock()
		e.focus = &f
		e.mu.Unlock()
	}
	return f, nil
}

// Submit returns the cleaned itinerary for persistence.
func (e *Editor) Submit() domain.Itinerary {
	e.mu.Lock()
	defer e.mu.Unlock()
	return itinerary.Clean(e.store.Itinerary())
}

// Snapshot returns the current authoring state.
func (e *Editor) Snapshot() Snapshot {
	e.mu.Lock()
	days := e.store.Days()
	it := e.store.Itinerary()
	locs := e.store.SortedLocations()
	drafts := make(map[int]domain.Entry, len(e.drafts))
	for d, entry := range e.drafts {
		drafts[d] = entry
	}
	e.mu.Unlock()

	panels := make(map[int]places.DayState, days)
	for d := 1; d <= days; d++ {
		panels[d] = e.resolver.State(d)
	}
	if locs == nil {
		locs = []domain.ResolvedLocation{}
	}
	return Snapshot{
		Days:      days,
		Itinerary: it,
		Drafts:    drafts,
		Panels:    panels,
		Locations: locs,
		Route:     e.planner.State(),
		Scene:     e.sync.Scene(),
	}
}

// Close stops timers and cancels every call in flight.
func (e *Editor) Close() {
	e.resolver.Close()
	e.planner.Close()
}

// changed pushes a store change downstream: the planner gets the new
// location list and the map is redrawn.
func (e *Editor) changed() {
	e.updateMu.Lock()
	e.mu.Lock()
	locs := e.store.SortedLocations()
	e.mu.Unlock()
	e.planner.Update(locs)
	e.updateMu.Unlock()

	e.refreshMap()
}

func (e *Editor) refreshMap() {
	e.mapMu.Lock()
	defer e.mapMu.Unlock()

	e.mu.Lock()
	markers := e.store.Markers()
	focus := e.focus
	e.mu.Unlock()

	e.sync.Apply(mapsync.Cycle{
		Markers: markers,
		Route:   e.planner.State().Result,
		Focus:   focus,
	})
}

func (e *Editor) checkDay(day int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.checkDayLocked(day)
}

func (e *Editor) checkDayLocked(day int) error {
	if day < 1 || day > e.store.Days() {
		return fmt.Errorf("%w: day %d is outside 1..%d", domain.ErrValidation, day, e.store.Days())
	}
	return nil
}

func validTime(s string) bool {
	if len(s) != len("15:04") {
		return false
	}
	_, err := time.Parse("15:04", s)
	return err == nil
}
