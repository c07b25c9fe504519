package spacetime

import "fmt"

// Validation error messages.
const (
	MsgInvalidMonth     = "Month must be between 1 and 12"
	MsgInvalidHour      = "Hour must be between 0 and 23"
	MsgInvalidMinute    = "Minute must be between 0 and 59"
	MsgInvalidLatitude  = "Latitude must be between -90 and 90"
	MsgInvalidLongitude = "Longitude must be between -180 and 180"
)

// Validation is the outcome of a range check. It is a value, not an error:
// callers decide whether an invalid coordinate blocks a render.
type Validation struct {
	Valid bool   `json:"isValid"`
	Error string `json:"error,omitempty"`
}

var valid = Validation{Valid: true}

func invalid(msg string) Validation {
	return Validation{Valid: false, Error: msg}
}

var monthDays = [12]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// IsLeapYear applies the Gregorian rule to the astronomically adjusted year.
// Years at or before zero are shifted down by one before the test.
func IsLeapYear(year int) bool {
	adjusted := year
	if year <= 0 {
		adjusted = year - 1
	}
	return (adjusted%4 == 0 && adjusted%100 != 0) || adjusted%400 == 0
}

// DaysInMonth returns the number of days in month of year.
// Months outside 1..12 report 31.
func DaysInMonth(year, month int) int {
	if month < 1 || month > 12 {
		return 31
	}
	if month == 2 && IsLeapYear(year) {
		return 29
	}
	return monthDays[month-1]
}

// ValidateSpatial checks latitude first, then longitude.
func ValidateSpatial(s SpatialCoordinates) Validation {
	if s.Latitude < -90 || s.Latitude > 90 {
		return invalid(MsgInvalidLatitude)
	}
	if s.Longitude < -180 || s.Longitude > 180 {
		return invalid(MsgInvalidLongitude)
	}
	return valid
}

// ValidateTemporal reports only the first failing field, in the order
// month, day, hour, minute.
func ValidateTemporal(t TemporalCoordinates) Validation {
	if t.Month < 1 || t.Month > 12 {
		return invalid(MsgInvalidMonth)
	}
	if maxDay := DaysInMonth(t.Year, t.Month); t.Day < 1 || t.Day > maxDay {
		return invalid(fmt.Sprintf("Day must be between 1 and %d for this month", maxDay))
	}
	if t.Hour < 0 || t.Hour > 23 {
		return invalid(MsgInvalidHour)
	}
	if t.Minute < 0 || t.Minute > 59 {
		return invalid(MsgInvalidMinute)
	}
	return valid
}

// Validate runs the spatial check and then the temporal check.
func Validate(c Coordinates) Validation {
	if v := ValidateSpatial(c.Spatial); !v.Valid {
		return v
	}
	return ValidateTemporal(c.Temporal)
}
