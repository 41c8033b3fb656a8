package domain

// ExportRow is one stop in the day-grouped route export.
// Rows are ordered like the viewer displays them: day ascending, then time.
// The Next* fields describe the walking leg that starts at this stop and
// stay empty for the last stop of a day or when no route is available.
type ExportRow struct {
	TripID    string
	TripTitle string

	Day   int
	Order int // 1-based position in the whole trip
	Time  string
	Place string
	Lat   float64
	Lng   float64

	NextLegMeters *int
	NextLegText   string

	// DayDirectionsURL is the Google Maps walking link for the stop's day.
	DayDirectionsURL string
}
