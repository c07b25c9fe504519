package gallery

import (
	"fmt"

	"github.com/BioInfo/chronoscope/internal/spacetime"
)

// Prefix lengths used for duplicate detection. Saves compare a short prefix
// together with the coordinates; the maintenance sweep compares a longer
// prefix of the image alone.
const (
	FingerprintPrefixLen = 100
	DedupePrefixLen      = 1000
)

// Fingerprint derives the duplicate-detection key for an image saved at c.
// It is a fast heuristic, not a hash: two saves for the same coordinates
// whose image data share a prefix are treated as the same image.
func Fingerprint(imageData string, c spacetime.Coordinates) string {
	return fmt.Sprintf("%.4f_%.4f_%d_%d_%d_%d_%d_%s",
		c.Spatial.Latitude,
		c.Spatial.Longitude,
		c.Temporal.Year,
		c.Temporal.Month,
		c.Temporal.Day,
		c.Temporal.Hour,
		c.Temporal.Minute,
		prefix(imageData, FingerprintPrefixLen),
	)
}

func dedupeKey(imageData string) string {
	return prefix(imageData, DedupePrefixLen)
}

func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
