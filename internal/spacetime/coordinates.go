// Package spacetime provides the coordinate model shared by the scene generator,
// the gallery and the journal, together with range validation, calendar facts,
// display formatting and the share-link query codec.
package spacetime

// SpatialCoordinates is a point on the globe in decimal degrees.
type SpatialCoordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// TemporalCoordinates is a calendar date and wall-clock time.
// Year uses astronomical numbering: 0 is 1 BC, -1 is 2 BC and so on.
type TemporalCoordinates struct {
	Year   int `json:"year"`
	Month  int `json:"month"`
	Day    int `json:"day"`
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// Coordinates identifies a single place and moment to simulate.
type Coordinates struct {
	Spatial  SpatialCoordinates  `json:"spatial"`
	Temporal TemporalCoordinates `json:"temporal"`
}

// Equal reports whether c and other name the same place and time.
// All seven scalar fields must match exactly.
func (c Coordinates) Equal(other Coordinates) bool {
	return c.Spatial == other.Spatial && c.Temporal == other.Temporal
}

// New is a convenience constructor for a full coordinate tuple.
func New(lat, lng float64, year, month, day, hour, minute int) Coordinates {
	return Coordinates{
		Spatial: SpatialCoordinates{Latitude: lat, Longitude: lng},
		Temporal: TemporalCoordinates{
			Year:   year,
			Month:  month,
			Day:    day,
			Hour:   hour,
			Minute: minute,
		},
	}
}
