package api

import (
	"net/http"
	"testing"

	"github.com/BioInfo/chronoscope/internal/waypoint"
)

func TestWaypointHandlers_List(t *testing.T) {
	s := newTestServer(t)
	all, err := waypoint.All()
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}

	rec := s.do(t, http.MethodGet, "/waypoints", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := decodeBody[WaypointListResponse](t, rec).Waypoints; len(got) != len(all) {
		t.Errorf("len(waypoints) = %d, want %d", len(got), len(all))
	}

	rec = s.do(t, http.MethodGet, "/waypoints?category=culture", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	for _, w := range decodeBody[WaypointListResponse](t, rec).Waypoints {
		if w.Category != waypoint.CategoryCulture {
			t.Errorf("waypoint %s category = %s, want culture", w.ID, w.Category)
		}
	}

	rec = s.do(t, http.MethodGet, "/waypoints?category=sports", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown category status = %d, want 400", rec.Code)
	}
}

func TestWaypointHandlers_Get(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/waypoints/apollo-11-1969", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	wp := decodeBody[waypoint.Waypoint](t, rec)
	if wp.ID != "apollo-11-1969" || wp.PreviewData.LocationName == "" {
		t.Errorf("waypoint = %+v", wp)
	}

	rec = s.do(t, http.MethodGet, "/waypoints/atlantis", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing waypoint status = %d, want 404", rec.Code)
	}
}
