package spacetime

import (
	"fmt"
	"math"
)

var monthNames = [12]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// FormatYear renders an astronomical year as an era-suffixed calendar year.
// Year 0 is "1 BC".
func FormatYear(year int) string {
	if year <= 0 {
		return fmt.Sprintf("%d BC", absInt(year-1))
	}
	return fmt.Sprintf("%d AD", year)
}

// FormatCoordinates renders lat/lng with four decimals and compass directions,
// e.g. "40.7128°N 74.0060°W".
func FormatCoordinates(lat, lng float64) string {
	return fmt.Sprintf("%.4f°%s %.4f°%s", math.Abs(lat), latDir(lat), math.Abs(lng), lngDir(lng))
}

// FormatTime renders a zero-padded 24-hour clock time.
func FormatTime(hour, minute int) string {
	return fmt.Sprintf("%02d:%02d", hour, minute)
}

// FormatDate renders a long-form date such as "July 20, 1969 AD".
func FormatDate(t TemporalCoordinates) string {
	name := "Unknown"
	if t.Month >= 1 && t.Month <= 12 {
		name = monthNames[t.Month-1]
	}
	return fmt.Sprintf("%s %d, %s", name, t.Day, FormatYear(t.Year))
}

// FormatShort is the compact form used in journal listings:
// two-decimal coordinates followed by the signed-era year.
func FormatShort(c Coordinates) string {
	return fmt.Sprintf("%.2f°%s, %.2f°%s • %s",
		math.Abs(c.Spatial.Latitude), latDir(c.Spatial.Latitude),
		math.Abs(c.Spatial.Longitude), lngDir(c.Spatial.Longitude),
		displayYear(c.Temporal.Year))
}

// FormatDisplay is the gallery caption: signed four-decimal coordinates and
// a month/day/year date.
func FormatDisplay(c Coordinates) string {
	return fmt.Sprintf("%.4f°, %.4f° | %d/%d/%s",
		c.Spatial.Latitude, c.Spatial.Longitude,
		c.Temporal.Month, c.Temporal.Day, displayYear(c.Temporal.Year))
}

// displayYear writes negative years as "N BC" without the astronomical shift.
func displayYear(year int) string {
	if year < 0 {
		return fmt.Sprintf("%d BC", -year)
	}
	return fmt.Sprintf("%d AD", year)
}

func latDir(lat float64) string {
	if lat >= 0 {
		return "N"
	}
	return "S"
}

func lngDir(lng float64) string {
	if lng >= 0 {
		return "E"
	}
	return "W"
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
