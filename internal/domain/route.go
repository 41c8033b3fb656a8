package domain

// Leg is one segment of a computed route between two consecutive resolved
// locations. Index is the position of its start location in the sorted
// location list.
type Leg struct {
	Index          int    `json:"index"`
	StartLocation  LatLng `json:"start_location"`
	EndLocation    LatLng `json:"end_location"`
	DistanceMeters int    `json:"distance_meters"`
	DistanceText   string `json:"distance_text"`
}

// RouteResult is the walking route through every resolved location.
// TotalDistanceKm is the sum of leg distances in kilometres with one decimal.
// Path is the decoded overview polyline, empty when the provider sent none.
type RouteResult struct {
	Legs            []Leg    `json:"legs"`
	TotalDistanceKm string   `json:"total_distance_km"`
	Path            []LatLng `json:"path,omitempty"`
}

// RouteFailure names why no route is displayed. The zero value means none.
type RouteFailure string

const (
	RouteFailureNone          RouteFailure = ""
	RouteFailureNoResults     RouteFailure = "no_results"
	RouteFailureQuotaExceeded RouteFailure = "quota_exceeded"
	RouteFailureProvider      RouteFailure = "provider_error"
	RouteFailureUnavailable   RouteFailure = "unavailable"
)
