// Package waypoint holds the curated catalogue of notable coordinates that
// can be jumped to directly. Each waypoint carries a hand-written preview
// scene that replaces the generated one.
package waypoint

import (
	_ "embed"
	"errors"
	"fmt"
	"sync"

	"go.yaml.in/yaml/v3"

	"github.com/BioInfo/chronoscope/internal/scene"
	"github.com/BioInfo/chronoscope/internal/spacetime"
)

// ErrWaypointNotFound is returned when no waypoint has the requested id.
var ErrWaypointNotFound = errors.New("waypoint not found")

// Category groups waypoints by the kind of event.
type Category string

const (
	CategoryConflict    Category = "conflict"
	CategoryDiscovery   Category = "discovery"
	CategoryDisaster    Category = "disaster"
	CategoryAchievement Category = "achievement"
	CategoryCulture     Category = "culture"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryConflict, CategoryDiscovery, CategoryDisaster, CategoryAchievement, CategoryCulture:
		return true
	}
	return false
}

// Waypoint is a curated point in spacetime. Icon names a UI glyph.
type Waypoint struct {
	ID          string                `json:"id" yaml:"id"`
	Name        string                `json:"name" yaml:"name"`
	Icon        string                `json:"icon" yaml:"icon"`
	Category    Category              `json:"category" yaml:"category"`
	Coordinates spacetime.Coordinates `json:"coordinates" yaml:"coordinates"`
	PreviewData scene.Scene           `json:"previewData" yaml:"previewData"`
}

//go:embed waypoints.yaml
var catalogueYAML []byte

var (
	loadOnce  sync.Once
	catalogue []Waypoint
	loadErr   error
)

// Parse decodes and validates a waypoint catalogue document.
func Parse(data []byte) ([]Waypoint, error) {
	var waypoints []Waypoint
	if err := yaml.Unmarshal(data, &waypoints); err != nil {
		return nil, fmt.Errorf("failed to parse waypoints: %w", err)
	}

	seen := make(map[string]bool, len(waypoints))
	for i, w := range waypoints {
		if w.ID == "" {
			return nil, fmt.Errorf("waypoint %d has no id", i)
		}
		if seen[w.ID] {
			return nil, fmt.Errorf("duplicate waypoint id %q", w.ID)
		}
		seen[w.ID] = true
		if !w.Category.Valid() {
			return nil, fmt.Errorf("waypoint %q has unknown category %q", w.ID, w.Category)
		}
		if v := spacetime.Validate(w.Coordinates); !v.Valid {
			return nil, fmt.Errorf("waypoint %q: %s", w.ID, v.Error)
		}
	}
	return waypoints, nil
}

func load() ([]Waypoint, error) {
	loadOnce.Do(func() {
		catalogue, loadErr = Parse(catalogueYAML)
	})
	return catalogue, loadErr
}

// All returns every curated waypoint in catalogue order.
func All() ([]Waypoint, error) {
	waypoints, err := load()
	if err != nil {
		return nil, err
	}
	out := make([]Waypoint, len(waypoints))
	copy(out, waypoints)
	return out, nil
}

// ByID returns the waypoint with id or ErrWaypointNotFound.
func ByID(id string) (Waypoint, error) {
	waypoints, err := load()
	if err != nil {
		return Waypoint{}, err
	}
	for _, w := range waypoints {
		if w.ID == id {
			return w, nil
		}
	}
	return Waypoint{}, ErrWaypointNotFound
}

// ByCategory returns the waypoints in category, in catalogue order.
func ByCategory(category Category) ([]Waypoint, error) {
	waypoints, err := load()
	if err != nil {
		return nil, err
	}
	var out []Waypoint
	for _, w := range waypoints {
		if w.Category == category {
			out = append(out, w)
		}
	}
	return out, nil
}
