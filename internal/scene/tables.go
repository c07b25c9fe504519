package scene

// eraThreshold maps an exclusive upper year bound to an era.
type eraThreshold struct {
	before int
	era    Era
}

// eraTable is evaluated top to bottom and the first bound the year is below
// wins. The Classical bound (476) sits below the Iron Age bound (500), so
// Classical is never selected and years in [476, 500) stay Iron Age.
var eraTable = []eraThreshold{
	{-3000, EraStone},
	{-1200, EraBronze},
	{500, EraIron},
	{476, EraClassical},
	{1400, EraMedieval},
	{1760, EraRenaissance},
	{1870, EraIndustrial},
	{1945, EraElectric},
	{1970, EraAtomic},
	{2000, EraDigital},
}

// TechnologyEra classifies a year.
func TechnologyEra(year int) Era {
	for _, t := range eraTable {
		if year < t.before {
			return t.era
		}
	}
	return EraSpace
}

type populationBracket struct {
	before int
	base   float64
}

var populationTable = []populationBracket{
	{-5000, 0.1},
	{0, 2},
	{500, 10},
	{1500, 20},
	{1800, 50},
	{1900, 100},
	{1950, 200},
	{2000, 400},
}

const modernPopulationBase = 500

func basePopulation(year int) float64 {
	for _, b := range populationTable {
		if year < b.before {
			return b.base
		}
	}
	return modernPopulationBase
}

// weatherVariant is one branch of the weather roll. A variant matches when
// the roll is below upper; requiresFreezing variants additionally need a
// sub-zero temperature and are skipped otherwise. Humidity is drawn from
// [humidityMin, humidityMin+humiditySpan).
type weatherVariant struct {
	upper            float64
	requiresFreezing bool
	weather          Weather
	humidityMin      float64
	humiditySpan     float64
}

// weatherTable gives each condition's cumulative probability mass. Snowy
// takes every roll in [0.85, 1) when the temperature is below zero.
var weatherTable = []weatherVariant{
	{upper: 0.4, weather: WeatherClear, humidityMin: 30, humiditySpan: 30},
	{upper: 0.6, weather: WeatherCloudy, humidityMin: 50, humiditySpan: 30},
	{upper: 0.75, weather: WeatherRainy, humidityMin: 70, humiditySpan: 25},
	{upper: 0.85, weather: WeatherWindy, humidityMin: 40, humiditySpan: 30},
	{upper: 1, requiresFreezing: true, weather: WeatherSnowy, humidityMin: 60, humiditySpan: 30},
	{upper: 0.95, weather: WeatherFoggy, humidityMin: 80, humiditySpan: 15},
	{upper: 1, weather: WeatherStormy, humidityMin: 85, humiditySpan: 15},
}

func pickWeather(roll float64, temperature int) weatherVariant {
	for _, v := range weatherTable {
		if v.requiresFreezing && temperature >= 0 {
			continue
		}
		if roll < v.upper {
			return v
		}
	}
	return weatherTable[len(weatherTable)-1]
}

// VisibilityFor derives visibility from a weather condition.
func VisibilityFor(w Weather) Visibility {
	switch w {
	case WeatherFoggy:
		return VisibilityPoor
	case WeatherStormy:
		return VisibilityReduced
	default:
		return VisibilityClear
	}
}

// hazardTier is one branch of the hazard roll. A tier matches when the roll
// is strictly above floor.
type hazardTier struct {
	floor        float64
	level        HazardLevel
	hazardType   string
	survivalMin  float64
	survivalSpan float64
	warnings     []string
}

var hazardTable = []hazardTier{
	{
		floor: 0.9, level: HazardCritical, hazardType: "Major Historical Event",
		survivalMin: 50, survivalSpan: 30,
		warnings: []string{"SIGNIFICANT HISTORICAL EVENT", "EXERCISE CAUTION", "TEMPORAL INSTABILITY DETECTED"},
	},
	{
		floor: 0.75, level: HazardHigh, hazardType: "Regional Conflict",
		survivalMin: 70, survivalSpan: 20,
		warnings: []string{"CONFLICT ZONE", "LIMITED INFRASTRUCTURE"},
	},
	{
		floor: 0.5, level: HazardMedium, hazardType: "Historical Uncertainty",
		survivalMin: 85, survivalSpan: 10,
		warnings: []string{"LIMITED RECORDS AVAILABLE", "PROCEED WITH CAUTION"},
	},
	{
		floor: -1, level: HazardLow, hazardType: "Stable Conditions",
		survivalMin: 95, survivalSpan: 5,
		warnings: []string{"CONDITIONS NOMINAL"},
	},
}

// Ancient-era safety adjustment.
const (
	ancientSurvivalPenalty = 20
	ancientSurvivalFloor   = 30
	ancientWarning         = "ANCIENT ERA - LIMITED MEDICAL CARE"
)

func pickHazard(roll float64) hazardTier {
	for _, t := range hazardTable {
		if roll > t.floor {
			return t
		}
	}
	return hazardTable[len(hazardTable)-1]
}

type civilizationLabel struct {
	before int
	label  string
}

// region is an inclusive lat/lng bounding box with year-bracketed labels.
type region struct {
	name           string
	anyLatitude    bool
	minLat, maxLat float64
	minLng, maxLng float64
	labels         []civilizationLabel
	after          string
}

func (r region) contains(lat, lng float64) bool {
	if !r.anyLatitude && (lat < r.minLat || lat > r.maxLat) {
		return false
	}
	return lng >= r.minLng && lng <= r.maxLng
}

func (r region) label(year int) string {
	for _, l := range r.labels {
		if year < l.before {
			return l.label
		}
	}
	return r.after
}

// regions are checked in order; the first box containing the point wins.
var regions = []region{
	{
		name:   "europe",
		minLat: 35, maxLat: 70, minLng: -10, maxLng: 40,
		labels: []civilizationLabel{
			{-500, "Celtic Tribes"},
			{476, "Roman Empire"},
			{800, "Germanic Kingdoms"},
			{1453, "Medieval Christendom"},
			{1800, "European Powers"},
		},
		after: "European Union Area",
	},
	{
		name:   "middle_east",
		minLat: 15, maxLat: 40, minLng: 25, maxLng: 60,
		labels: []civilizationLabel{
			{-2000, "Mesopotamian Civilizations"},
			{-500, "Persian Empire"},
			{650, "Byzantine/Sassanid Empires"},
			{1300, "Islamic Caliphates"},
			{1918, "Ottoman Empire"},
		},
		after: "Modern Middle East",
	},
	{
		name:   "east_asia",
		minLat: 20, maxLat: 50, minLng: 100, maxLng: 145,
		labels: []civilizationLabel{
			{-200, "Warring States Period"},
			{220, "Han Dynasty"},
			{1644, "Imperial China"},
			{1912, "Qing Dynasty"},
		},
		after: "Modern East Asia",
	},
	{
		name:        "americas",
		anyLatitude: true,
		minLng:      -170, maxLng: -30,
		labels: []civilizationLabel{
			{1492, "Pre-Columbian Civilizations"},
			{1776, "Colonial Americas"},
			{1900, "New World Republics"},
		},
		after: "The Americas",
	},
}

var defaultCivilizations = region{
	name: "default",
	labels: []civilizationLabel{
		{0, "Ancient Peoples"},
		{500, "Classical Era Civilization"},
		{1500, "Medieval Society"},
	},
	after: "Modern Civilization",
}

// Civilization labels the society at a coordinate and year.
func Civilization(lat, lng float64, year int) string {
	for _, r := range regions {
		if r.contains(lat, lng) {
			return r.label(year)
		}
	}
	return defaultCivilizations.label(year)
}
