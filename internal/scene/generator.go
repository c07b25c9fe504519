package scene

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"

	"github.com/BioInfo/chronoscope/internal/geo"
	"github.com/BioInfo/chronoscope/internal/spacetime"
)

// Rand is a source of uniform draws in [0, 1).
type Rand interface {
	Float64() float64
}

// globalRand draws from the unseeded top-level math/rand/v2 source.
type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }

// Generator builds scenes. It is safe for concurrent use when its Rand is.
type Generator struct {
	rnd Rand
}

// NewGenerator returns a Generator drawing from rnd.
// A nil rnd uses the process-wide unseeded source, so repeated calls with the
// same coordinate are not expected to agree.
func NewGenerator(rnd Rand) *Generator {
	if rnd == nil {
		rnd = globalRand{}
	}
	return &Generator{rnd: rnd}
}

// Generate synthesizes a scene for c. Draws are taken in a fixed order:
// temperature jitter, weather roll, humidity, coastal population factor,
// hazard roll, survival probability.
func (g *Generator) Generate(c spacetime.Coordinates) Scene {
	lat := c.Spatial.Latitude
	lng := c.Spatial.Longitude
	year := c.Temporal.Year

	env := g.weather(lat, c.Temporal.Month, c.Temporal.Hour)
	anthro := Anthropology{
		PopulationDensity: g.populationDensity(year, lat, lng),
		TechnologyLevel:   TechnologyEra(year),
		Civilization:      Civilization(lat, lng, year),
		NotableEvents:     []string{},
	}
	safety := g.hazard(year)
	location := geo.LocationName(lat, lng)

	return Scene{
		Coordinates:  c,
		Environment:  env,
		Anthropology: anthro,
		Safety:       safety,
		LocationName: location,
		Description:  Describe(location, anthro.TechnologyLevel, env),
		Geohash:      geo.Encode(lat, lng, geo.DefaultPrecision),
	}
}

// Describe builds the one-line scene summary.
func Describe(location string, era Era, env Environment) string {
	return fmt.Sprintf("Rendering spacetime coordinates for %s during the %s era. Local conditions: %s, %d°C.",
		location, era, strings.ToLower(string(env.Weather)), env.Temperature)
}

// Season windows in months, inclusive.
const (
	northernSummerStart = 5
	northernSummerEnd   = 8
	northernWinterStart = 11
	northernWinterEnd   = 2
)

// Temperature model constants in °C.
const (
	equatorTemperature = 25
	degreesPerLatitude = 0.5
	summerAdjustment   = 10
	winterAdjustment   = -15
	nightAdjustment    = -8
	temperatureJitter  = 10
	daylightStartHour  = 6
	daylightEndHour    = 18
)

func inNorthernSummer(month int) bool {
	return month >= northernSummerStart && month <= northernSummerEnd
}

func inNorthernWinter(month int) bool {
	return month >= northernWinterStart || month <= northernWinterEnd
}

// season reports whether month is summer or winter at lat. The southern
// hemisphere swaps the two windows. Months in neither window are neither.
func season(lat float64, month int) (summer, winter bool) {
	if lat >= 0 {
		return inNorthernSummer(month), inNorthernWinter(month)
	}
	return inNorthernWinter(month), inNorthernSummer(month)
}

// BaseTemperature is the expected temperature before random jitter.
func BaseTemperature(lat float64, month, hour int) float64 {
	base := equatorTemperature - math.Abs(lat)*degreesPerLatitude
	summer, winter := season(lat, month)
	switch {
	case summer:
		base += summerAdjustment
	case winter:
		base += winterAdjustment
	}
	if hour < daylightStartHour || hour > daylightEndHour {
		base += nightAdjustment
	}
	return base
}

func (g *Generator) weather(lat float64, month, hour int) Environment {
	temperature := roundHalfUp(BaseTemperature(lat, month, hour) + (g.rnd.Float64()-0.5)*temperatureJitter)
	v := pickWeather(g.rnd.Float64(), temperature)
	humidity := roundHalfUp(v.humidityMin + g.rnd.Float64()*v.humiditySpan)

	return Environment{
		Weather:     v.weather,
		Temperature: temperature,
		Humidity:    humidity,
		Visibility:  VisibilityFor(v.weather),
	}
}

// Population modifiers.
const (
	minLatitudeFactor   = 0.1
	continentalFactor   = 1.2
	oceanicFactor       = 0.8
	continentalLngLimit = 150
	coastalSpan         = 0.5
)

func (g *Generator) populationDensity(year int, lat, lng float64) int {
	latFactor := math.Max(minLatitudeFactor, 1-math.Abs(lat)/90)
	lngFactor := oceanicFactor
	if math.Abs(lng) < continentalLngLimit {
		lngFactor = continentalFactor
	}
	coastal := 1 + g.rnd.Float64()*coastalSpan
	return roundHalfUp(basePopulation(year) * latFactor * lngFactor * coastal)
}

func (g *Generator) hazard(year int) Safety {
	tier := pickHazard(g.rnd.Float64())
	survival := tier.survivalMin + g.rnd.Float64()*tier.survivalSpan

	warnings := make([]string, len(tier.warnings), len(tier.warnings)+1)
	copy(warnings, tier.warnings)

	if year < 0 {
		survival = math.Max(ancientSurvivalFloor, survival-ancientSurvivalPenalty)
		warnings = append(warnings, ancientWarning)
	}

	return Safety{
		HazardLevel:         tier.level,
		HazardType:          tier.hazardType,
		SurvivalProbability: roundHalfUp(survival),
		Warnings:            warnings,
	}
}

// roundHalfUp rounds to the nearest integer with ties toward positive
// infinity, so -2.5 becomes -2.
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}
