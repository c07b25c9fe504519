package spacetime

import (
	"math"
	"net/url"
	"strconv"
	"strings"
)

// Query parameter names used by share links.
const (
	ParamLatitude  = "lat"
	ParamLongitude = "lng"
	ParamYear      = "year"
	ParamMonth     = "month"
	ParamDay       = "day"
	ParamHour      = "hour"
	ParamMinute    = "minute"
)

// Defaults applied when an optional share-link field is absent or malformed.
const (
	DefaultShareMonth  = 1
	DefaultShareDay    = 1
	DefaultShareHour   = 12
	DefaultShareMinute = 0
)

// EncodeQuery writes all seven fields as a query string in a fixed order.
// Floats use the shortest representation that parses back to the same value.
func EncodeQuery(c Coordinates) string {
	pairs := [][2]string{
		{ParamLatitude, strconv.FormatFloat(c.Spatial.Latitude, 'f', -1, 64)},
		{ParamLongitude, strconv.FormatFloat(c.Spatial.Longitude, 'f', -1, 64)},
		{ParamYear, strconv.Itoa(c.Temporal.Year)},
		{ParamMonth, strconv.Itoa(c.Temporal.Month)},
		{ParamDay, strconv.Itoa(c.Temporal.Day)},
		{ParamHour, strconv.Itoa(c.Temporal.Hour)},
		{ParamMinute, strconv.Itoa(c.Temporal.Minute)},
	}

	var b strings.Builder
	for i, p := range pairs {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(p[0])
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p[1]))
	}
	return b.String()
}

// DecodeQuery parses a share-link query string, with or without a leading "?".
// lat, lng and year are required; ok is false when any of them is missing or
// unparseable. The remaining fields fall back to their defaults.
func DecodeQuery(raw string) (Coordinates, bool) {
	values, err := url.ParseQuery(strings.TrimPrefix(raw, "?"))
	if err != nil {
		return Coordinates{}, false
	}
	return DecodeValues(values)
}

// DecodeValues is DecodeQuery for already-parsed values, such as r.URL.Query().
func DecodeValues(values url.Values) (Coordinates, bool) {
	if !values.Has(ParamLatitude) || !values.Has(ParamLongitude) || !values.Has(ParamYear) {
		return Coordinates{}, false
	}

	lat, err := strconv.ParseFloat(values.Get(ParamLatitude), 64)
	if err != nil {
		return Coordinates{}, false
	}
	lng, err := strconv.ParseFloat(values.Get(ParamLongitude), 64)
	if err != nil {
		return Coordinates{}, false
	}
	if math.IsNaN(lat) || math.IsNaN(lng) {
		return Coordinates{}, false
	}
	year, err := strconv.Atoi(values.Get(ParamYear))
	if err != nil {
		return Coordinates{}, false
	}

	return New(lat, lng, year,
		intOrDefault(values, ParamMonth, DefaultShareMonth),
		intOrDefault(values, ParamDay, DefaultShareDay),
		intOrDefault(values, ParamHour, DefaultShareHour),
		intOrDefault(values, ParamMinute, DefaultShareMinute),
	), true
}

func intOrDefault(values url.Values, key string, def int) int {
	if !values.Has(key) {
		return def
	}
	n, err := strconv.Atoi(values.Get(key))
	if err != nil {
		return def
	}
	return n
}
