package waypoint

import (
	"errors"
	"strings"
	"testing"

	"github.com/BioInfo/chronoscope/internal/scene"
)

func TestAll(t *testing.T) {
	waypoints, err := All()
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}

	wantIDs := []string{
		"apollo-11-1969",
		"kitty-hawk-1903",
		"berlin-wall-1989",
		"woodstock-1969",
		"declaration-1776",
		"great-pyramid-2560bce",
		"mlk-dream-1963",
		"magellan-1522",
	}
	if len(waypoints) != len(wantIDs) {
		t.Fatalf("len(All()) = %d, want %d", len(waypoints), len(wantIDs))
	}
	for i, id := range wantIDs {
		if waypoints[i].ID != id {
			t.Errorf("All()[%d].ID = %q, want %q", i, waypoints[i].ID, id)
		}
	}

	for _, w := range waypoints {
		if !w.PreviewData.Coordinates.Equal(w.Coordinates) {
			t.Errorf("%s preview coordinates = %+v, want %+v", w.ID, w.PreviewData.Coordinates, w.Coordinates)
		}
		if w.PreviewData.LocationName == "" || w.PreviewData.Description == "" {
			t.Errorf("%s preview is missing its location or description", w.ID)
		}
		if len(w.PreviewData.Safety.Warnings) == 0 {
			t.Errorf("%s preview has no warnings", w.ID)
		}
	}
}

func TestAll_ReturnsCopy(t *testing.T) {
	first, err := All()
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	first[0].ID = "mutated"

	second, err := All()
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if second[0].ID != "apollo-11-1969" {
		t.Errorf("All()[0].ID = %q after caller mutation", second[0].ID)
	}
}

func TestByID(t *testing.T) {
	w, err := ByID("great-pyramid-2560bce")
	if err != nil {
		t.Fatalf("ByID() error = %v", err)
	}
	if w.Coordinates.Temporal.Year != -2560 {
		t.Errorf("Year = %d, want -2560", w.Coordinates.Temporal.Year)
	}
	if w.PreviewData.Anthropology.TechnologyLevel != scene.EraBronze {
		t.Errorf("TechnologyLevel = %q, want %q", w.PreviewData.Anthropology.TechnologyLevel, scene.EraBronze)
	}
	if !strings.Contains(w.PreviewData.Description, "humanity's") {
		t.Errorf("Description = %q, want apostrophe preserved", w.PreviewData.Description)
	}

	apollo, err := ByID("apollo-11-1969")
	if err != nil {
		t.Fatalf("ByID() error = %v", err)
	}
	if apollo.PreviewData.Environment.Weather != "Vacuum" {
		t.Errorf("Weather = %q, want Vacuum", apollo.PreviewData.Environment.Weather)
	}
	if apollo.PreviewData.Safety.HazardLevel != scene.HazardHigh {
		t.Errorf("HazardLevel = %q, want %q", apollo.PreviewData.Safety.HazardLevel, scene.HazardHigh)
	}

	if _, err := ByID("atlantis"); !errors.Is(err, ErrWaypointNotFound) {
		t.Errorf("ByID(unknown) error = %v, want %v", err, ErrWaypointNotFound)
	}
}

func TestByCategory(t *testing.T) {
	tests := []struct {
		category Category
		want     int
	}{
		{CategoryAchievement, 7},
		{CategoryCulture, 1},
		{CategoryDisaster, 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			got, err := ByCategory(tt.category)
			if err != nil {
				t.Fatalf("ByCategory() error = %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("len(ByCategory(%s)) = %d, want %d", tt.category, len(got), tt.want)
			}
		})
	}
}

const validEntry = "- id: a\n  category: culture\n  coordinates:\n    spatial: {latitude: 1, longitude: 2}\n    temporal: {year: 2000, month: 1, day: 1, hour: 0, minute: 0}\n"

func TestParse_Accepts(t *testing.T) {
	waypoints, err := Parse([]byte(validEntry))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(waypoints) != 1 || waypoints[0].Coordinates.Spatial.Longitude != 2 {
		t.Errorf("Parse() = %+v", waypoints)
	}
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "missing id",
			doc:  "- name: x\n  category: culture\n",
			want: "has no id",
		},
		{
			name: "duplicate id",
			doc:  validEntry + validEntry,
			want: "duplicate",
		},
		{
			name: "unknown category",
			doc:  "- id: a\n  category: sports\n",
			want: "unknown category",
		},
		{
			name: "invalid coordinates",
			doc:  "- id: a\n  category: culture\n  coordinates:\n    spatial: {latitude: 91, longitude: 0}\n    temporal: {year: 2000, month: 1, day: 1, hour: 0, minute: 0}\n",
			want: "Latitude",
		},
		{
			name: "malformed yaml",
			doc:  "- id: [",
			want: "failed to parse",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Parse() error = %v, want containing %q", err, tt.want)
			}
		})
	}
}
