// Package domain contains the core data types of the tripost itinerary
// service: trips, itineraries and their entries, resolved locations, markers
// and routes. It has no I/O and is imported by every other internal package.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Trip is a travel post as far as this service is concerned: a title, a
// length in days and the itinerary authored for it.
// Every itinerary key must lie in [1, Days].
type Trip struct {
	ID        uuid.UUID
	Title     string
	Days      int
	StartDate *time.Time // nil when the trip has no fixed period
	Itinerary Itinerary
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasItinerary reports whether at least one day holds an entry.
func (t Trip) HasItinerary() bool {
	for _, entries := range t.Itinerary {
		if len(entries) > 0 {
			return true
		}
	}
	return false
}
