package gallery

import (
	"fmt"
	"regexp"
	"strconv"
)

var (
	unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9]`)
	repeatedDashes      = regexp.MustCompile(`-+`)
)

// maxFilenameLocation caps the location part of a download filename.
const maxFilenameLocation = 30

// Filename returns the download name for img, for example
// "chronoscope-Giza-Egypt-2560BC.png".
func Filename(img *Image) string {
	safe := unsafeFilenameChars.ReplaceAllString(img.LocationName, "-")
	safe = repeatedDashes.ReplaceAllString(safe, "-")
	safe = prefix(safe, maxFilenameLocation)

	year := img.Coordinates.Temporal.Year
	yearPart := strconv.Itoa(year)
	if year < 0 {
		yearPart = strconv.Itoa(-year) + "BC"
	}
	return fmt.Sprintf("chronoscope-%s-%s.png", safe, yearPart)
}

// FormatBytes renders n as B, KB or MB with one decimal above a kilobyte.
func FormatBytes(n int64) string {
	switch {
	case n < 1024:
		return fmt.Sprintf("%d B", n)
	case n < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(n)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(n)/(1024*1024))
	}
}
