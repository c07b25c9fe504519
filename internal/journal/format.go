package journal

import (
	"fmt"
	"strconv"
	"time"

	"github.com/BioInfo/chronoscope/internal/spacetime"
)

// FormatCoordinates renders an entry's coordinates compactly, for example
// "40.71°, -74.01° | 1969" or "29.98°, 31.13° | 2560 BC".
func FormatCoordinates(c spacetime.Coordinates) string {
	year := strconv.Itoa(c.Temporal.Year)
	if c.Temporal.Year < 0 {
		year = strconv.Itoa(-c.Temporal.Year) + " BC"
	}
	return fmt.Sprintf("%.2f°, %.2f° | %s", c.Spatial.Latitude, c.Spatial.Longitude, year)
}

// FormatAge renders how long ago a Unix millisecond timestamp was relative
// to now: "Just now", "5m ago", "3h ago", "2d ago", and a short date after
// a week ("Mar 1", or "Mar 1, 2023" in another year).
func FormatAge(timestamp int64, now time.Time) string {
	then := time.UnixMilli(timestamp)
	diff := now.Sub(then)

	switch {
	case diff < time.Minute:
		return "Just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff/time.Minute))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff/time.Hour))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff/(24*time.Hour)))
	}

	then = then.In(now.Location())
	if then.Year() != now.Year() {
		return then.Format("Jan 2, 2006")
	}
	return then.Format("Jan 2")
}
