package domain

// Suggestion is a candidate place returned before full resolution.
type Suggestion struct {
	PlaceID       string `json:"place_id"`
	Description   string `json:"description"`
	MainText      string `json:"main_text,omitempty"`
	SecondaryText string `json:"secondary_text,omitempty"`
}

// Place is the result of resolving a suggestion. Lat and Lng are nil when
// only the name could be determined.
type Place struct {
	Name             string   `json:"name"`
	FormattedAddress string   `json:"formatted_address,omitempty"`
	Lat              *float64 `json:"lat"`
	Lng              *float64 `json:"lng"`
}

// Position returns the place's coordinates and whether both are set.
func (p Place) Position() (LatLng, bool) {
	if p.Lat == nil || p.Lng == nil {
		return LatLng{}, false
	}
	return LatLng{Lat: *p.Lat, Lng: *p.Lng}, true
}

// GeocodeResult is one candidate for an address lookup.
// Viewport is nil when the provider did not suggest one.
type GeocodeResult struct {
	Location         LatLng  `json:"location"`
	Viewport         *Bounds `json:"viewport,omitempty"`
	FormattedAddress string  `json:"formatted_address,omitempty"`
}
