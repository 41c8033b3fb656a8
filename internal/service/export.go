package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/tripost/backend/internal/domain"
)

// ExportService flattens a rendered trip into one row per stop.
type ExportService struct {
	viewer *ViewerService
}

// NewExportService returns an ExportService rendering through v.
func NewExportService(v *ViewerService) *ExportService {
	return &ExportService{viewer: v}
}

// Export returns the trip's stops in display order, each with the walking
// leg that starts there when the next stop is on the same day.
func (s *ExportService) Export(ctx context.Context, id uuid.UUID) ([]domain.ExportRow, error) {
	tv, err := s.viewer.View(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service.ExportService.Export: %w", err)
	}

	rows := []domain.ExportRow{}
	for _, day := range tv.View.Days {
		for _, stop := range day.Stops {
			row := domain.ExportRow{
				TripID:           tv.Trip.ID.String(),
				TripTitle:        tv.Trip.Title,
				Day:              day.Day,
				Order:            stop.Order,
				Time:             stop.Time,
				Place:            stop.Label,
				Lat:              stop.Position.Lat,
				Lng:              stop.Position.Lng,
				DayDirectionsURL: day.DirectionsURL,
			}
			if stop.NextLeg != nil {
				m := stop.NextLeg.DistanceMeters
				row.NextLegMeters = &m
				row.NextLegText = stop.NextLeg.DistanceText
			}
			rows = append(rows, row)
		}
	}
	return rows, nil
}
