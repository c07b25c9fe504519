// Package geo provides location naming and coarse geohash cells for
// spacetime coordinates.
package geo

import (
	"fmt"
	"math"
	"strings"
)

// DefaultPrecision is the geohash length attached to generated scenes.
// Six characters resolve to roughly a 1.2 km by 0.6 km cell.
const DefaultPrecision = 6

// base32 is the geohash base32 alphabet.
const base32 = "0123456789bcdefghjkmnpqrstuvwxyz"

// Encode encodes latitude and longitude into a geohash string with the specified precision.
// Uses the standard geohash algorithm with base32 encoding.
// A precision below 1 uses DefaultPrecision.
func Encode(lat, lng float64, precision int) string {
	if precision < 1 {
		precision = DefaultPrecision
	}

	latRange := [2]float64{-90.0, 90.0}
	lngRange := [2]float64{-180.0, 180.0}

	var geohash strings.Builder
	geohash.Grow(precision)

	bits := 0
	var ch uint

	even := true
	for geohash.Len() < precision {
		if even {
			// Longitude
			mid := (lngRange[0] + lngRange[1]) / 2
			if lng > mid {
				ch |= (1 << (4 - bits))
				lngRange[0] = mid
			} else {
				lngRange[1] = mid
			}
		} else {
			// Latitude
			mid := (latRange[0] + latRange[1]) / 2
			if lat > mid {
				ch |= (1 << (4 - bits))
				latRange[0] = mid
			} else {
				latRange[1] = mid
			}
		}

		even = !even
		bits++

		if bits == 5 {
			geohash.WriteByte(base32[ch])
			bits = 0
			ch = 0
		}
	}

	return geohash.String()
}

// LocationName renders a coordinate as a two-decimal compass string,
// e.g. "48.86°N, 2.35°E". It stands in for reverse geocoding.
func LocationName(lat, lng float64) string {
	latDir := "N"
	if lat < 0 {
		latDir = "S"
	}
	lngDir := "E"
	if lng < 0 {
		lngDir = "W"
	}
	return fmt.Sprintf("%.2f°%s, %.2f°%s", math.Abs(lat), latDir, math.Abs(lng), lngDir)
}
