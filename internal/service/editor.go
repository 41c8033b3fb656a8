package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tripost/backend/internal/domain"
	"github.com/tripost/backend/internal/editor"
)

// DefaultEditorIdleTimeout closes sessions nobody touched for this long.
const DefaultEditorIdleTimeout = 30 * time.Minute

// TripStore is what editor sessions load from and submit to. *TripService
// satisfies it.
type TripStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	UpdateItinerary(ctx context.Context, id uuid.UUID, days *int, it domain.Itinerary) (domain.Trip, error)
}

// EditorOptions tunes an EditorService.
type EditorOptions struct {
	Deps        editor.Deps
	Config      editor.Config
	IdleTimeout time.Duration
	Logger      *slog.Logger

	// Now replaces time.Now, for tests.
	Now func() time.Time
}

type session struct {
	ed       *editor.Editor
	tripID   uuid.UUID
	lastUsed time.Time
}

// EditorService keeps one Editor per open authoring session.
type EditorService struct {
	trips TripStore
	opts  EditorOptions
	log   *slog.Logger

	mu       sync.Mutex
	sessions map[uuid.UUID]*session
}

// NewEditorService returns an EditorService.
func NewEditorService(trips TripStore, opts EditorOptions) *EditorService {
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = DefaultEditorIdleTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	if opts.Config.Logger == nil {
		opts.Config.Logger = log
	}
	return &EditorService{
		trips:    trips,
		opts:     opts,
		log:      log.With("component", "service.EditorService"),
		sessions: make(map[uuid.UUID]*session),
	}
}

// Open starts a session on a stored trip, pre-filled with its itinerary.
func (s *EditorService) Open(ctx context.Context, tripID uuid.UUID) (uuid.UUID, *editor.Editor, error) {
	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("service.EditorService.Open: %w", err)
	}
	ed, err := editor.New(s.opts.Deps, trip.Days, trip.Itinerary, s.opts.Config)
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("service.EditorService.Open: %w", err)
	}

	sid := uuid.New()
	s.mu.Lock()
	s.sessions[sid] = &session{ed: ed, tripID: tripID, lastUsed: s.opts.Now()}
	n := len(s.sessions)
	s.mu.Unlock()

	s.log.InfoContext(ctx, "editor session opened", "session_id", sid, "trip_id", tripID, "sessions", n)
	return sid, ed, nil
}

// Session returns the session's editor and marks it used.
// Returns domain.ErrNotFound for unknown or evicted sessions.
func (s *EditorService) Session(sid uuid.UUID) (*editor.Editor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sid]
	if !ok {
		return nil, fmt.Errorf("service.EditorService.Session: %w", domain.ErrNotFound)
	}
	sess.lastUsed = s.opts.Now()
	return sess.ed, nil
}

// Submit stores the session's cleaned itinerary and trip length on its trip.
// The session stays open.
func (s *EditorService) Submit(ctx context.Context, sid uuid.UUID) (domain.Trip, error) {
	s.mu.Lock()
	sess, ok := s.sessions[sid]
	if ok {
		sess.lastUsed = s.opts.Now()
	}
	s.mu.Unlock()
	if !ok {
		return domain.Trip{}, fmt.Errorf("service.EditorService.Submit: %w", domain.ErrNotFound)
	}

	it := sess.ed.Submit()
	days := sess.ed.Snapshot().Days
	trip, err := s.trips.UpdateItinerary(ctx, sess.tripID, &days, it)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.EditorService.Submit: %w", err)
	}
	return trip, nil
}

// Close ends a session.
func (s *EditorService) Close(sid uuid.UUID) error {
	s.mu.Lock()
	sess, ok := s.sessions[sid]
	delete(s.sessions, sid)
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("service.EditorService.Close: %w", domain.ErrNotFound)
	}
	sess.ed.Close()
	return nil
}

// EvictIdle closes every session unused for longer than the idle timeout
// and reports how many were closed.
func (s *EditorService) EvictIdle() int {
	cutoff := s.opts.Now().Add(-s.opts.IdleTimeout)

	var stale []*editor.Editor
	s.mu.Lock()
	for sid, sess := range s.sessions {
		if sess.lastUsed.Before(cutoff) {
			stale = append(stale, sess.ed)
			delete(s.sessions, sid)
		}
	}
	s.mu.Unlock()

	for _, ed := range stale {
		ed.Close()
	}
	if len(stale) > 0 {
		s.log.Info("idle editor sessions evicted", "count", len(stale))
	}
	return len(stale)
}

// Run evicts idle sessions every interval until ctx is done, then closes
// every remaining session.
func (s *EditorService) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			s.closeAll()
			return
		case <-t.C:
			s.EvictIdle()
		}
	}
}

func (s *EditorService) closeAll() {
	s.mu.Lock()
	all := s.sessions
	s.sessions = make(map[uuid.UUID]*session)
	s.mu.Unlock()
	for _, sess := range all {
		sess.ed.Close()
	}
}
