// Package scene synthesizes environmental, anthropological and safety
// summaries for a spacetime coordinate.
package scene

import "github.com/BioInfo/chronoscope/internal/spacetime"

// Weather is a weather condition label. Generated scenes use the constants
// below; curated waypoint scenes may carry other labels such as "Hot".
type Weather string

// Generated weather conditions.
const (
	WeatherClear  Weather = "Clear"
	WeatherCloudy Weather = "Cloudy"
	WeatherRainy  Weather = "Rainy"
	WeatherWindy  Weather = "Windy"
	WeatherSnowy  Weather = "Snowy"
	WeatherFoggy  Weather = "Foggy"
	WeatherStormy Weather = "Stormy"
)

// Visibility is derived from the weather.
type Visibility string

const (
	VisibilityClear   Visibility = "Clear"
	VisibilityReduced Visibility = "Reduced"
	VisibilityPoor    Visibility = "Poor"
)

// HazardLevel is a coarse risk classification.
type HazardLevel string

const (
	HazardLow      HazardLevel = "low"
	HazardMedium   HazardLevel = "medium"
	HazardHigh     HazardLevel = "high"
	HazardCritical HazardLevel = "critical"
)

// Era is a technology era label.
type Era string

const (
	EraStone       Era = "Stone Age"
	EraBronze      Era = "Bronze Age"
	EraIron        Era = "Iron Age"
	EraClassical   Era = "Classical"
	EraMedieval    Era = "Medieval"
	EraRenaissance Era = "Renaissance"
	EraIndustrial  Era = "Industrial"
	EraElectric    Era = "Electric"
	EraAtomic      Era = "Atomic"
	EraDigital     Era = "Digital"
	EraSpace       Era = "Space Age"
)

// Environment describes local atmospheric conditions.
type Environment struct {
	Weather     Weather    `json:"weather" yaml:"weather"`
	Temperature int        `json:"temperature" yaml:"temperature"` // degrees Celsius
	Humidity    int        `json:"humidity" yaml:"humidity"`       // percent
	Visibility  Visibility `json:"visibility" yaml:"visibility"`
}

// Anthropology describes the people living at the coordinate.
type Anthropology struct {
	PopulationDensity int      `json:"populationDensity" yaml:"populationDensity"` // people per km²
	TechnologyLevel   Era      `json:"technologyLevel" yaml:"technologyLevel"`
	Civilization      string   `json:"civilization" yaml:"civilization"`
	NotableEvents     []string `json:"notableEvents" yaml:"notableEvents"`
}

// Safety is a simulated hazard assessment.
type Safety struct {
	HazardLevel         HazardLevel `json:"hazardLevel" yaml:"hazardLevel"`
	HazardType          string      `json:"hazardType" yaml:"hazardType"`
	SurvivalProbability int         `json:"survivalProbability" yaml:"survivalProbability"` // percent
	Warnings            []string    `json:"warnings" yaml:"warnings"`
}

// Scene is the generated summary for a coordinate. Scenes are derived on
// every render and never persisted.
type Scene struct {
	Coordinates  spacetime.Coordinates `json:"coordinates" yaml:"coordinates"`
	Environment  Environment           `json:"environment" yaml:"environment"`
	Anthropology Anthropology          `json:"anthropology" yaml:"anthropology"`
	Safety       Safety                `json:"safety" yaml:"safety"`
	LocationName string                `json:"locationName" yaml:"locationName"`
	Description  string                `json:"description" yaml:"description"`
	Geohash      string                `json:"geohash,omitempty" yaml:"geohash,omitempty"`
}
