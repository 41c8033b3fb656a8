// Package itinerary holds the in-memory itinerary being authored and the pure
// derivations computed from it: the marker set, the day/time ordered location
// list and the cleaned form emitted at submission.
package itinerary

import (
	"slices"

	"github.com/tripost/backend/internal/domain"
)

// Store is a per-day ordered collection of entries for a trip of a fixed
// number of days. Operations never fail; a day outside [1, Days()] is ignored.
//
// Store is not safe for concurrent use. Its owner (the editor) serializes
// access.
type Store struct {
	days int
	plan domain.Itinerary
}

// NewStore returns a store with days empty day sequences.
func NewStore(days int) *Store {
	s := &Store{}
	s.Reset(days)
	return s
}

// Load returns a store for a trip of days days pre-filled from it.
// Entries keyed outside [1, days] are dropped.
func Load(days int, it domain.Itinerary) *Store {
	s := NewStore(days)
	for d, entries := range it.Clone() {
		if s.valid(d) {
			s.plan[d] = append(s.plan[d], entries...)
		}
	}
	return s
}

// Reset discards every entry and sets the trip length. Day indices from the
// previous length would otherwise dangle, so nothing is carried over.
func (s *Store) Reset(days int) {
	s.days = max(days, 0)
	s.plan = domain.NewItinerary(s.days)
}

// Days returns the trip length.
func (s *Store) Days() int {
	return s.days
}

// AddEntry appends e to day. Empty or duplicate fields are accepted since
// they are normal while an entry is being typed.
func (s *Store) AddEntry(day int, e domain.Entry) bool {
	if !s.valid(day) {
		return false
	}
	s.plan[day] = append(s.plan[day], e)
	return true
}

// RemoveEntry removes the first entry of day whose time and place equal e's.
// It reports whether anything was removed; a miss is not an error.
func (s *Store) RemoveEntry(day int, e domain.Entry) bool {
	if !s.valid(day) {
		return false
	}
	i := slices.IndexFunc(s.plan[day], e.Matches)
	if i < 0 {
		return false
	}
	s.plan[day] = slices.Delete(s.plan[day], i, i+1)
	return true
}

// UpdateEntry replaces the entry at index within day.
func (s *Store) UpdateEntry(day, index int, e domain.Entry) bool {
	if !s.valid(day) || index < 0 || index >= len(s.plan[day]) {
		return false
	}
	s.plan[day][index] = e
	return true
}

// Entries returns a copy of day's entries in edit order.
func (s *Store) Entries(day int) []domain.Entry {
	if !s.valid(day) {
		return nil
	}
	return slices.Clone(s.plan[day])
}

// Itinerary returns a deep copy of the whole itinerary.
func (s *Store) Itinerary() domain.Itinerary {
	return s.plan.Clone()
}

// Markers derives the marker set. See Markers.
func (s *Store) Markers() []domain.Marker {
	return Markers(s.plan)
}

// SortedLocations derives the ordered location list. See SortedLocations.
func (s *Store) SortedLocations() []domain.ResolvedLocation {
	return SortedLocations(s.plan)
}

func (s *Store) valid(day int) bool {
	return day >= 1 && day <= s.days
}
