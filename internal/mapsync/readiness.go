package mapsync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tripost/backend/internal/domain"
)

// DefaultReadyTimeout bounds how long the provider may take to initialize.
const DefaultReadyTimeout = 8 * time.Second

// ReadyState is the settled or pending state of the map provider.
type ReadyState int

const (
	Pending ReadyState = iota
	Ready
	Failed
)

func (s ReadyState) String() string {
	switch s {
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "pending"
	}
}

// Readiness is the observable "map provider is usable" signal. It settles
// exactly once, to Ready or Failed. Components that call provider
// capabilities gate on Wait instead of assuming availability.
type Readiness struct {
	mu    sync.Mutex
	state ReadyState
	err   error
	done  chan struct{}
	subs  []func(ReadyState)
}

// NewReadiness returns a pending signal.
func NewReadiness() *Readiness {
	return &Readiness{done: make(chan struct{})}
}

// ReadyNow returns a signal that is already Ready.
func ReadyNow() *Readiness {
	r := NewReadiness()
	r.MarkReady()
	return r
}

// Start runs probe in the background and settles the signal with its
// outcome. A probe that has not returned within timeout settles the signal
// as Failed.
func (r *Readiness) Start(ctx context.Context, probe func(context.Context) error, timeout time.Duration) {
	if timeout <= 0 {
		timeout = DefaultReadyTimeout
	}
	go func() {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		errc := make(chan error, 1)
		go func() { errc <- probe(ctx) }()

		select {
		case err := <-errc:
			if err != nil {
				r.MarkFailed(err)
				return
			}
			r.MarkReady()
		case <-ctx.Done():
			r.MarkFailed(fmt.Errorf("no answer within %s: %w", timeout, ctx.Err()))
		}
	}()
}

// MarkReady settles the signal as Ready. Later calls are ignored.
func (r *Readiness) MarkReady() {
	r.settle(Ready, nil)
}

// MarkFailed settles the signal as Failed. Later calls are ignored.
func (r *Readiness) MarkFailed(err error) {
	r.settle(Failed, err)
}

func (r *Readiness) settle(state ReadyState, err error) {
	r.mu.Lock()
	if r.state != Pending {
		r.mu.Unlock()
		return
	}
	r.state = state
	r.err = err
	subs := r.subs
	r.subs = nil
	close(r.done)
	r.mu.Unlock()

	for _, fn := range subs {
		fn(state)
	}
}

// State returns the current state and, when Failed, the cause.
func (r *Readiness) State() (ReadyState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state, r.err
}

// Subscribe registers fn to be called once when the signal settles. If it
// already has, fn is called immediately.
func (r *Readiness) Subscribe(fn func(ReadyState)) {
	r.mu.Lock()
	if r.state == Pending {
		r.subs = append(r.subs, fn)
		r.mu.Unlock()
		return
	}
	state := r.state
	r.mu.Unlock()
	fn(state)
}

// Wait blocks until the signal settles or ctx is done. It returns nil when
// Ready and an error wrapping domain.ErrNotReady when Failed.
func (r *Readiness) Wait(ctx context.Context) error {
	select {
	case <-r.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	state, err := r.State()
	if state == Ready {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrNotReady, err)
	}
	return domain.ErrNotReady
}
