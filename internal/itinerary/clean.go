package itinerary

import "github.com/tripost/backend/internal/domain"

// Clean prepares an itinerary for submission: entries with all four fields
// empty are dropped, and so are days left without entries. Any entry with at
// least one field set is kept as is. Clean is idempotent and does not modify
// its input.
func Clean(it domain.Itinerary) domain.Itinerary {
	out := make(domain.Itinerary)
	for day, entries := range it.Clone() {
		kept := make([]domain.Entry, 0, len(entries))
		for _, e := range entries {
			if !e.Blank() {
				kept = append(kept, e)
			}
		}
		if len(kept) > 0 {
			out[day] = kept
		}
	}
	return out
}
