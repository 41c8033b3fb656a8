// Package handler implements the HTTP API. Handlers are methods on Server and
// are split by resource: trips, read-only views and export, editor sessions.
package handler

import (
	"context"
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tripost/backend/internal/domain"
	"github.com/tripost/backend/internal/editor"
	"github.com/tripost/backend/internal/mapsync"
	"github.com/tripost/backend/internal/service"
)

// TripServicer is the trip business logic the handlers depend on.
type TripServicer interface {
	Create(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	ListPaged(ctx context.Context, p domain.PaginationParams) ([]domain.Trip, int64, error)
	UpdateItinerary(ctx context.Context, id uuid.UUID, days *int, it domain.Itinerary) (domain.Trip, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ViewServicer renders stored trips read-only.
type ViewServicer interface {
	View(ctx context.Context, id uuid.UUID) (service.TripView, error)
	MapView(ctx context.Context, selected *uuid.UUID) (service.MapView, error)
}

// Exporter flattens a trip's route into rows.
type Exporter interface {
	Export(ctx context.Context, id uuid.UUID) ([]domain.ExportRow, error)
}

// EditorServicer manages authoring sessions.
type EditorServicer interface {
	Open(ctx context.Context, tripID uuid.UUID) (uuid.UUID, *editor.Editor, error)
	Session(sid uuid.UUID) (*editor.Editor, error)
	Submit(ctx context.Context, sid uuid.UUID) (domain.Trip, error)
	Close(sid uuid.UUID) error
}

// Server holds the handlers' dependencies. Any service may be nil, in which
// case its routes are not registered.
type Server struct {
	trips   TripServicer
	views   ViewServicer
	export  Exporter
	editors EditorServicer

	ready   *mapsync.Readiness
	openAPI []byte
	log     *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithReadiness reports the map provider state on /healthz.
func WithReadiness(r *mapsync.Readiness) Option {
	return func(s *Server) { s.ready = r }
}

// WithOpenAPI serves doc at /openapi.yaml.
func WithOpenAPI(doc []byte) Option {
	return func(s *Server) { s.openAPI = doc }
}

// WithLogger sets the logger for unexpected errors.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.log = l }
}

// NewServer returns a Server.
func NewServer(trips TripServicer, views ViewServicer, export Exporter, editors EditorServicer, opts ...Option) *Server {
	s := &Server{trips: trips, views: views, export: export, editors: editors, log: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes returns a router with every endpoint mounted.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	s.Register(r)
	return r
}

// Register mounts the endpoints on r.
func (s *Server) Register(r chi.Router) {
	r.Get("/healthz", s.GetHealth)
	if s.openAPI != nil {
		r.Get("/openapi.yaml", s.GetOpenAPI)
	}

	if s.trips != nil {
		r.Post("/trips", s.CreateTrip)
		r.Get("/trips", s.ListTrips)
		r.Get("/trips/{id}", s.GetTrip)
		r.Put("/trips/{id}/itinerary", s.UpdateItinerary)
		r.Delete("/trips/{id}", s.DeleteTrip)
	}
	if s.views != nil {
		r.Get("/trips/{id}/view", s.GetTripView)
		r.Get("/map", s.GetMap)
	}
	if s.export != nil {
		r.Get("/trips/{id}/export", s.GetExport)
	}

	if s.editors != nil {
		r.Post("/trips/{id}/editor", s.OpenEditor)
		r.Route("/editor/{sid}", func(r chi.Router) {
			r.Get("/", s.GetEditor)
			r.Delete("/", s.CloseEditor)
			r.Put("/days", s.SetDays)
			r.Route("/days/{day}", func(r chi.Router) {
				r.Put("/draft", s.SetDraftTime)
				r.Post("/query", s.QueryPlace)
				r.Post("/focus", s.FocusPlace)
				r.Post("/blur", s.BlurPlace)
				r.Post("/select", s.SelectSuggestion)
				r.Post("/commit", s.CommitEntry)
				r.Delete("/entries", s.RemoveEntry)
			})
			r.Put("/map", s.UpdateMap)
			r.Post("/search", s.SearchAddress)
			r.Post("/submit", s.SubmitEditor)
		})
	}
}
