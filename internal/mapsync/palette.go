package mapsync

// Palette holds one marker colour per day, cycling every ten days.
var Palette = [10]string{
	"#E53935", // red
	"#1E88E5", // blue
	"#43A047", // green
	"#FB8C00", // orange
	"#8E24AA", // purple
	"#00ACC1", // cyan
	"#F4511E", // deep orange
	"#3949AB", // indigo
	"#7CB342", // light green
	"#6D4C41", // brown
}

// DayColor returns the marker colour for a 1-based day.
func DayColor(day int) string {
	i := (day - 1) % len(Palette)
	if i < 0 {
		i += len(Palette)
	}
	return Palette[i]
}

// Route line style. The line sits under the markers and is drawn lighter
// than them.
const (
	RouteColor   = "#4285F4"
	RouteOpacity = 0.6
	RouteWeight  = 4
	routeZIndex  = 1
	markerZIndex = 10
)
