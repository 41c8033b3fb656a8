package places

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/tripost/backend/internal/debounce"
	"github.com/tripost/backend/internal/domain"
)

// Defaults used when Config leaves a field zero.
const (
	DefaultDebounce  = 250 * time.Millisecond
	DefaultBlurGrace = 150 * time.Millisecond
	DefaultTimeout   = 10 * time.Second
	DefaultLanguage  = "ja"
	DefaultRegion    = "jp"
)

// DefaultTypes are the primary place types requested from the modern
// suggestion capability.
var DefaultTypes = []string{"establishment", "locality", "sublocality"}

// DefaultLegacyTypes are requested from the legacy suggestion capability.
var DefaultLegacyTypes = []string{"establishment", "geocode"}

// Field names a debounced input of a day.
type Field string

const (
	FieldPlace Field = "place"
	fieldBlur  Field = "blur"
)

type key struct {
	day   int
	field Field
}

// Gate blocks until the map provider is usable. See mapsync.Readiness.
type Gate interface {
	Wait(ctx context.Context) error
}

// DayState is the suggestion panel of one day. The zero value (no
// suggestions, hidden) is the state of any day never queried.
type DayState struct {
	Suggestions []domain.Suggestion `json:"suggestions"`
	Visible     bool                `json:"visible"`
}

// Config configures a Resolver.
type Config struct {
	Debounce  time.Duration
	BlurGrace time.Duration
	Timeout   time.Duration // per capability call
	Language  string
	Region    string
	Types     []string

	// Gate, when set, is waited on before every capability call.
	Gate Gate

	// OnChange is called after a day's panel state changes, outside any lock.
	OnChange func(day int, st DayState)

	Logger *slog.Logger
}

// Resolver owns the per-day suggestion panels. Every asynchronous result is
// tagged with the generation of its (day, field) key at request time and
// dropped on arrival if the key has moved on, so a slow answer to an old
// query can never replace the answer to a newer one.
type Resolver struct {
	suggester Suggester
	details   DetailsFetcher
	cfg       Config
	log       *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	timers *debounce.Table[key]

	mu       sync.Mutex
	states   map[int]DayState
	gens     map[key]uint64
	inflight map[key]context.CancelFunc
	focused  int
}

// NewResolver builds a Resolver. suggester and details may be nil, in which
// case suggestions are always empty and selections keep only their text.
func NewResolver(suggester Suggester, details DetailsFetcher, cfg Config) *Resolver {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.BlurGrace <= 0 {
		cfg.BlurGrace = DefaultBlurGrace
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Language == "" {
		cfg.Language = DefaultLanguage
	}
	if cfg.Region == "" {
		cfg.Region = DefaultRegion
	}
	if cfg.Types == nil {
		cfg.Types = DefaultTypes
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Resolver{
		suggester: suggester,
		details:   details,
		cfg:       cfg,
		log:       log.With("component", "places.Resolver"),
		ctx:       ctx,
		cancel:    cancel,
		timers:    debounce.New[key](),
		states:    make(map[int]DayState),
		gens:      make(map[key]uint64),
		inflight:  make(map[key]context.CancelFunc),
	}
}

// State returns day's panel. Unknown days get the zero state.
func (r *Resolver) State(day int) DayState {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := r.states[day]
	st.Suggestions = slices.Clone(st.Suggestions)
	return st
}

// Focused returns the day whose input has focus, or 0.
func (r *Resolver) Focused() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.focused
}

// Query records a keystroke in day's place input. The suggestion fetch runs
// once the input has been quiet for the debounce delay. Only the focused
// day's timer is live: typing into one day cancels pending fetches of the
// others. Blank text clears the day's panel immediately.
func (r *Resolver) Query(day int, text string) {
	k := key{day: day, field: FieldPlace}

	r.mu.Lock()
	r.focusLocked(day)
	gen := r.bumpLocked(k)
	if strings.TrimSpace(text) == "" {
		r.timers.Cancel(k)
		r.states[day] = DayState{}
		r.mu.Unlock()
		r.notify(day, DayState{})
		return
	}
	// Scheduled under mu so a slower caller cannot replace a newer timer.
	r.timers.Schedule(k, r.cfg.Debounce, func() { r.fetch(k, gen, text) })
	r.mu.Unlock()
}

// Focus marks day's input as focused and reopens its panel if it holds
// suggestions. A pending blur for the day is cancelled.
func (r *Resolver) Focus(day int) {
	r.mu.Lock()
	r.focusLocked(day)
	r.timers.Cancel(key{day: day, field: fieldBlur})
	st := r.states[day]
	changed := !st.Visible && len(st.Suggestions) > 0
	if changed {
		st.Visible = true
		r.states[day] = st
	}
	r.mu.Unlock()

	if changed {
		r.notify(day, st)
	}
}

// Blur closes day's panel after the grace delay, leaving a pointer-driven
// selection time to land first.
func (r *Resolver) Blur(day int) {
	r.mu.Lock()
	if r.focused == day {
		r.focused = 0
	}
	r.mu.Unlock()

	r.timers.Schedule(key{day: day, field: fieldBlur}, r.cfg.BlurGrace, func() {
		r.mu.Lock()
		st := r.states[day]
		if !st.Visible {
			r.mu.Unlock()
			return
		}
		st.Visible = false
		r.states[day] = st
		r.mu.Unlock()
		r.notify(day, st)
	})
}

// Select resolves s into a place and closes day's panel. When details
// cannot be fetched the suggestion's own text becomes the place name with
// no coordinates; that is a valid result, not an error.
//
// current is false when another query or selection for the same day
// started while the details were being fetched; the caller should then
// ignore the result.
func (r *Resolver) Select(ctx context.Context, day int, s domain.Suggestion) (place domain.Place, current bool) {
	k := key{day: day, field: FieldPlace}

	r.mu.Lock()
	r.timers.Cancel(k)
	gen := r.bumpLocked(k)
	r.states[day] = DayState{}
	r.mu.Unlock()
	r.notify(day, DayState{})

	place = r.resolve(ctx, day, s)

	r.mu.Lock()
	current = r.gens[k] == gen
	r.mu.Unlock()
	if !current {
		r.log.DebugContext(ctx, "discarding superseded place details", "day", day, "place_id", s.PlaceID)
	}
	return place, current
}

// Reset drops every panel and invalidates everything in flight. Used when
// the trip length changes.
func (r *Resolver) Reset() {
	r.timers.CancelFunc(func(key) bool { return true })

	r.mu.Lock()
	for k, cancel := range r.inflight {
		cancel()
		delete(r.inflight, k)
	}
	for k := range r.gens {
		r.gens[k]++
	}
	r.states = make(map[int]DayState)
	r.focused = 0
	r.mu.Unlock()
}

// Close stops all timers and cancels in-flight calls.
func (r *Resolver) Close() {
	r.timers.Stop()
	r.cancel()
}

func (r *Resolver) resolve(ctx context.Context, day int, s domain.Suggestion) domain.Place {
	fallback := domain.Place{Name: s.Description}
	if fallback.Name == "" {
		fallback.Name = s.MainText
	}
	if s.PlaceID == "" || r.details == nil {
		return fallback
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	if r.cfg.Gate != nil {
		if err := r.cfg.Gate.Wait(ctx); err != nil {
			r.log.WarnContext(ctx, "place details skipped, provider not ready", "day", day, "error", err)
			return fallback
		}
	}

	place, err := r.details.Details(ctx, s.PlaceID, r.cfg.Language)
	if err != nil {
		r.log.WarnContext(ctx, "place details failed, keeping suggestion text", "day", day, "place_id", s.PlaceID, "error", err)
		return fallback
	}
	if place.Name == "" {
		place.Name = fallback.Name
	}
	return place
}

func (r *Resolver) fetch(k key, gen uint64, text string) {
	ctx, cancel := context.WithTimeout(r.ctx, r.cfg.Timeout)
	defer cancel()

	r.mu.Lock()
	if r.gens[k] != gen {
		r.mu.Unlock()
		return
	}
	r.inflight[k] = cancel
	r.mu.Unlock()

	results := r.suggest(ctx, k.day, text)

	r.mu.Lock()
	if r.gens[k] != gen {
		r.mu.Unlock()
		r.log.Debug("discarding superseded suggestions", "day", k.day, "generation", gen)
		return
	}
	delete(r.inflight, k)
	st := DayState{Suggestions: results, Visible: len(results) > 0}
	r.states[k.day] = st
	r.mu.Unlock()

	r.notify(k.day, st)
}

func (r *Resolver) suggest(ctx context.Context, day int, text string) []domain.Suggestion {
	if r.suggester == nil {
		return nil
	}
	if r.cfg.Gate != nil {
		if err := r.cfg.Gate.Wait(ctx); err != nil {
			r.log.Debug("suggestions skipped, provider not ready", "day", day, "error", err)
			return nil
		}
	}
	results, err := r.suggester.Suggest(ctx, Query{
		Text:     text,
		Language: r.cfg.Language,
		Region:   r.cfg.Region,
		Types:    r.cfg.Types,
	})
	if err != nil {
		r.log.Debug("suggestions failed", "day", day, "error", err)
		return nil
	}
	return results
}

// focusLocked moves focus to day and cancels the other days' pending
// fetches. Caller holds r.mu.
func (r *Resolver) focusLocked(day int) {
	r.focused = day
	r.timers.CancelFunc(func(k key) bool { return k.field == FieldPlace && k.day != day })
}

// bumpLocked advances k's generation and cancels its in-flight call.
// Caller holds r.mu.
func (r *Resolver) bumpLocked(k key) uint64 {
	if cancel, ok := r.inflight[k]; ok {
		cancel()
		delete(r.inflight, k)
	}
	r.gens[k]++
	return r.gens[k]
}

func (r *Resolver) notify(day int, st DayState) {
	if r.cfg.OnChange != nil {
		st.Suggestions = slices.Clone(st.Suggestions)
		r.cfg.OnChange(day, st)
	}
}
