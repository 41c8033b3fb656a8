package route

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/tripost/backend/internal/domain"
)

// DefaultTimeout bounds one directions call.
const DefaultTimeout = 15 * time.Second

// Gate blocks until the map provider is usable. See mapsync.Readiness.
type Gate interface {
	Wait(ctx context.Context) error
}

// State is what the planner currently has to show. Result and Failure are
// never both set. Pending is true while a request for the latest input is
// in flight; the previous result has already been discarded by then.
type State struct {
	Result  *domain.RouteResult `json:"result"`
	Failure domain.RouteFailure `json:"failure,omitempty"`
	Pending bool                `json:"pending"`
}

// Config configures a Planner.
type Config struct {
	Gate    Gate
	Timeout time.Duration

	// OnChange is called with the new state after every change, outside any lock.
	OnChange func(State)

	Logger *slog.Logger
}

// Planner keeps the route in step with the sorted location list. Any change
// to the list invalidates the current route and starts a new request; only
// the newest request's answer is ever applied. Failures are recorded in
// State and logged, never returned.
type Planner struct {
	dir Directions
	cfg Config
	log *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	gen      uint64
	last     []domain.ResolvedLocation
	state    State
	inflight context.CancelFunc
}

// NewPlanner builds a Planner. dir may be nil; every route then fails as
// unavailable.
func NewPlanner(dir Directions, cfg Config) *Planner {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Planner{
		dir:    dir,
		cfg:    cfg,
		log:    log.With("component", "route.Planner"),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Compute requests the route for locs and waits for it. With fewer than two
// locations no request is made and the result is nil with no failure.
func (p *Planner) Compute(ctx context.Context, locs []domain.ResolvedLocation) (*domain.RouteResult, domain.RouteFailure) {
	req, ok := BuildRequest(locs)
	if !ok {
		return nil, domain.RouteFailureNone
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	result, err := p.request(ctx, locs, req)
	if err != nil {
		failure := Classify(err)
		level := slog.LevelWarn
		if ctx.Err() != nil {
			level = slog.LevelDebug
		}
		p.log.Log(ctx, level, "route unavailable", "reason", failure, "points", len(locs), "error", err)
		return nil, failure
	}
	return &result, domain.RouteFailureNone
}

func (p *Planner) request(ctx context.Context, locs []domain.ResolvedLocation, req Request) (domain.RouteResult, error) {
	if p.dir == nil {
		return domain.RouteResult{}, domain.ErrUnavailable
	}
	if p.cfg.Gate != nil {
		if err := p.cfg.Gate.Wait(ctx); err != nil {
			return domain.RouteResult{}, err
		}
	}
	routes, err := p.dir.Directions(ctx, req)
	if err != nil {
		return domain.RouteResult{}, err
	}
	return MapResult(locs, routes)
}

// Update feeds the latest sorted location list. An unchanged list is a
// no-op. Otherwise the current route is cleared at once and, when there are
// at least two points, recomputed in the background.
func (p *Planner) Update(locs []domain.ResolvedLocation) {
	p.mu.Lock()
	if p.last != nil && slices.Equal(p.last, locs) {
		p.mu.Unlock()
		return
	}
	p.last = slices.Clone(locs)
	if p.last == nil {
		p.last = []domain.ResolvedLocation{}
	}
	p.gen++
	gen := p.gen
	if p.inflight != nil {
		p.inflight()
		p.inflight = nil
	}

	if len(locs) < 2 {
		p.state = State{}
		st := p.state
		p.mu.Unlock()
		p.notify(st)
		return
	}

	ctx, cancel := context.WithCancel(p.ctx)
	p.inflight = cancel
	p.state = State{Pending: true}
	st := p.state
	input := slices.Clone(locs)
	p.mu.Unlock()
	p.notify(st)

	go func() {
		defer cancel()
		result, failure := p.Compute(ctx, input)

		p.mu.Lock()
		if gen != p.gen {
			p.mu.Unlock()
			p.log.Debug("discarding superseded route", "generation", gen)
			return
		}
		p.inflight = nil
		p.state = State{Result: result, Failure: failure}
		st := p.state
		p.mu.Unlock()
		p.notify(st)
	}()
}

// State returns the current route state.
func (p *Planner) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Close cancels any request in flight.
func (p *Planner) Close() {
	p.cancel()
}

func (p *Planner) notify(st State) {
	if p.cfg.OnChange != nil {
		p.cfg.OnChange(st)
	}
}
