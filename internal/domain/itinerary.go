package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Entry is one timed place within a day of an itinerary.
// Time is a zero-padded 24h "HH:MM" string or empty. Lat and Lng are nil
// when the place was typed freely or could not be resolved; such an entry is
// still valid, it just contributes no marker and no route point.
type Entry struct {
	Time  string
	Place string
	Lat   *float64
	Lng   *float64
}

// Position returns the entry's coordinates and whether both are set.
func (e Entry) Position() (LatLng, bool) {
	if e.Lat == nil || e.Lng == nil {
		return LatLng{}, false
	}
	return LatLng{Lat: *e.Lat, Lng: *e.Lng}, true
}

// Complete reports whether both time and place are filled in.
func (e Entry) Complete() bool {
	return strings.TrimSpace(e.Time) != "" && strings.TrimSpace(e.Place) != ""
}

// Blank reports whether all four fields are empty.
func (e Entry) Blank() bool {
	return strings.TrimSpace(e.Time) == "" && strings.TrimSpace(e.Place) == "" && e.Lat == nil && e.Lng == nil
}

// Matches reports whether e and other identify the same entry for removal
// purposes: equal time and place.
func (e Entry) Matches(other Entry) bool {
	return e.Time == other.Time && e.Place == other.Place
}

// MarshalJSON encodes the entry as the 4-tuple [time, place, lat, lng].
func (e Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal([4]any{e.Time, e.Place, e.Lat, e.Lng})
}

// UnmarshalJSON decodes a [time, place, lat, lng] tuple. Missing trailing
// elements are treated as null. Coordinates may arrive as numbers, numeric
// strings, empty strings or null.
func (e *Entry) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("entry: expected [time, place, lat, lng]: %w", err)
	}
	if len(raw) > 4 {
		return fmt.Errorf("entry: expected at most 4 elements, got %d", len(raw))
	}
	for len(raw) < 4 {
		raw = append(raw, json.RawMessage("null"))
	}

	var out Entry
	var err error
	if out.Time, err = decodeText(raw[0]); err != nil {
		return fmt.Errorf("entry time: %w", err)
	}
	if out.Place, err = decodeText(raw[1]); err != nil {
		return fmt.Errorf("entry place: %w", err)
	}
	if out.Lat, err = decodeCoord(raw[2]); err != nil {
		return fmt.Errorf("entry lat: %w", err)
	}
	if out.Lng, err = decodeCoord(raw[3]); err != nil {
		return fmt.Errorf("entry lng: %w", err)
	}
	*e = out
	return nil
}

func decodeText(raw json.RawMessage) (string, error) {
	if isNull(raw) {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", err
	}
	return s, nil
}

func decodeCoord(raw json.RawMessage) (*float64, error) {
	if isNull(raw) {
		return nil, nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return &f, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("expected number, numeric string or null: %s", raw)
	}
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// Itinerary maps a day number (1..N) to that day's entries in edit order.
// On the wire it is an object keyed by day-number strings whose values are
// lists of [time, place, lat, lng] tuples; encoding/json handles the int keys.
type Itinerary map[int][]Entry

// NewItinerary returns an itinerary with days 1..days, each an empty sequence.
func NewItinerary(days int) Itinerary {
	it := make(Itinerary, max(days, 0))
	for d := 1; d <= days; d++ {
		it[d] = []Entry{}
	}
	return it
}

// Days returns the day keys in ascending order.
func (it Itinerary) Days() []int {
	days := make([]int, 0, len(it))
	for d := range it {
		days = append(days, d)
	}
	slices.Sort(days)
	return days
}

// Clone returns a deep copy, including the coordinate pointers.
func (it Itinerary) Clone() Itinerary {
	out := make(Itinerary, len(it))
	for d, entries := range it {
		cp := make([]Entry, len(entries))
		for i, e := range entries {
			cp[i] = Entry{Time: e.Time, Place: e.Place, Lat: cloneFloat(e.Lat), Lng: cloneFloat(e.Lng)}
		}
		out[d] = cp
	}
	return out
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

// Float returns a pointer to v. Handy for building entries in code and tests.
func Float(v float64) *float64 {
	return &v
}
