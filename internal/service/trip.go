// Package service holds the business rules around stored trips: validation
// and cleaning before writes, read-only rendering, editor sessions and the
// route export. Services depend on repo interfaces, never on SQL.
package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/tripost/backend/internal/domain"
	"github.com/tripost/backend/internal/itinerary"
	"github.com/tripost/backend/internal/repo"
)

// TripService validates and stores trips.
type TripService struct {
	repo repo.TripRepo
}

// NewTripService returns a TripService on r.
func NewTripService(r repo.TripRepo) *TripService {
	return &TripService{repo: r}
}

// Create validates trip, cleans its itinerary and stores it.
// Returns domain.ErrValidation for invalid input.
func (s *TripService) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	trip.Title = strings.TrimSpace(trip.Title)
	if err := validateTrip(trip); err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Create: %w", err)
	}
	trip.Itinerary = itinerary.Clean(trip.Itinerary)

	result, err := s.repo.Create(ctx, trip)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Create: %w", err)
	}
	return result, nil
}

// GetByID returns the stored trip, itinerary exactly as saved.
func (s *TripService) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	result, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.GetByID: %w", err)
	}
	return result, nil
}

// List returns every trip, newest first. Never nil.
func (s *TripService) List(ctx context.Context) ([]domain.Trip, error) {
	trips, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.TripService.List: %w", err)
	}
	if trips == nil {
		return []domain.Trip{}, nil
	}
	return trips, nil
}

// ListPaged returns one page of trips and the total count. Never nil.
func (s *TripService) ListPaged(ctx context.Context, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	trips, total, err := s.repo.ListPaged(ctx, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.TripService.ListPaged: %w", err)
	}
	if trips == nil {
		trips = []domain.Trip{}
	}
	return trips, total, nil
}

// UpdateItinerary replaces a trip's itinerary and, when days is non-nil, its
// length. The itinerary is cleaned before it is written.
func (s *TripService) UpdateItinerary(ctx context.Context, id uuid.UUID, days *int, it domain.Itinerary) (domain.Trip, error) {
	trip, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.UpdateItinerary: %w", err)
	}
	if days != nil {
		trip.Days = *days
	}
	trip.Itinerary = it
	if err := validateTrip(trip); err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.UpdateItinerary: %w", err)
	}
	trip.Itinerary = itinerary.Clean(it)

	result, err := s.repo.Update(ctx, trip)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.UpdateItinerary: %w", err)
	}
	return result, nil
}

// Delete removes a trip.
func (s *TripService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("service.TripService.Delete: %w", err)
	}
	return nil
}

// validateTrip enforces:
//   - a non-blank title
//   - at least one day
//   - every itinerary day within [1, Days]
func validateTrip(trip domain.Trip) error {
	if strings.TrimSpace(trip.Title) == "" {
		return fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	if trip.Days < 1 {
		return fmt.Errorf("%w: days must be at least 1", domain.ErrValidation)
	}
	for _, day := range trip.Itinerary.Days() {
		if day < 1 || day > trip.Days {
			return fmt.Errorf("%w: day %d is outside 1..%d", domain.ErrValidation, day, trip.Days)
		}
	}
	return nil
}
