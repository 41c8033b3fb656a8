package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/tripost/backend/internal/domain"
	"github.com/tripost/backend/internal/repo"
	"github.com/tripost/backend/internal/viewer"
)

// Renderer turns an itinerary into a read-only view. *viewer.Viewer
// satisfies it.
type Renderer interface {
	Build(ctx context.Context, it domain.Itinerary) viewer.View
}

// TripView is a stored trip rendered for reading.
type TripView struct {
	Trip domain.Trip
	View viewer.View
}

// TripSummary is one entry of the cross-post trip list.
type TripSummary struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	HasItinerary bool      `json:"has_itinerary"`
}

// MapView is the cross-post map: every trip plus the selected one rendered.
// Selected and View are nil when no trip can be shown.
type MapView struct {
	Trips    []TripSummary `json:"trips"`
	Selected *uuid.UUID    `json:"selected_trip_id"`
	View     *viewer.View  `json:"view"`
}

// ViewerService renders stored trips.
type ViewerService struct {
	trips    repo.TripRepo
	renderer Renderer
}

// NewViewerService returns a ViewerService.
func NewViewerService(trips repo.TripRepo, r Renderer) *ViewerService {
	return &ViewerService{trips: trips, renderer: r}
}

// View renders one trip.
func (s *ViewerService) View(ctx context.Context, id uuid.UUID) (TripView, error) {
	trip, err := s.trips.GetByID(ctx, id)
	if err != nil {
		return TripView{}, fmt.Errorf("service.ViewerService.View: %w", err)
	}
	return TripView{Trip: trip, View: s.renderer.Build(ctx, trip.Itinerary)}, nil
}

// MapView lists every trip and renders the selected one. With a nil
// selection the newest trip that has an itinerary is shown. A selection that
// does not exist is domain.ErrNotFound.
func (s *ViewerService) MapView(ctx context.Context, selected *uuid.UUID) (MapView, error) {
	var (
		trips  []domain.Trip
		picked *domain.Trip
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		trips, err = s.trips.List(gctx)
		return err
	})
	if selected != nil {
		g.Go(func() error {
			t, err := s.trips.GetByID(gctx, *selected)
			if err != nil {
				return err
			}
			picked = &t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return MapView{}, fmt.Errorf("service.ViewerService.MapView: %w", err)
	}

	out := MapView{Trips: make([]TripSummary, len(trips))}
	for i, t := range trips {
		out.Trips[i] = TripSummary{ID: t.ID, Title: t.Title, HasItinerary: t.HasItinerary()}
		if picked == nil && selected == nil && t.HasItinerary() {
			picked = &trips[i]
		}
	}
	if picked == nil {
		return out, nil
	}

	id := picked.ID
	view := s.renderer.Build(ctx, picked.Itinerary)
	out.Selected = &id
	out.View = &view
	return out, nil
}
