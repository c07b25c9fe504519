package api

import (
	"errors"
	"net/http"

	"github.com/BioInfo/chronoscope/internal/waypoint"
)

// WaypointHandlers serves the curated waypoint catalogue.
type WaypointHandlers struct{}

// NewWaypointHandlers creates WaypointHandlers.
func NewWaypointHandlers() *WaypointHandlers {
	return &WaypointHandlers{}
}

// WaypointListResponse is the body of GET /waypoints.
type WaypointListResponse struct {
	Waypoints []waypoint.Waypoint `json:"waypoints"`
}

// List handles GET /waypoints. An optional ?category= narrows the list.
func (h *WaypointHandlers) List(w http.ResponseWriter, r *http.Request) {
	var (
		waypoints []waypoint.Waypoint
		err       error
	)
	if c := r.URL.Query().Get("category"); c != "" {
		category := waypoint.Category(c)
		if !category.Valid() {
			writeCode(w, r, ErrCodeValidation, "Unknown waypoint category")
			return
		}
		waypoints, err = waypoint.ByCategory(category)
	} else {
		waypoints, err = waypoint.All()
	}
	if err != nil {
		writeInternal(w, r, "failed to load waypoints", err)
		return
	}
	if waypoints == nil {
		waypoints = []waypoint.Waypoint{}
	}
	writeJSON(w, r, http.StatusOK, WaypointListResponse{Waypoints: waypoints})
}

// Get handles GET /waypoints/{id}.
func (h *WaypointHandlers) Get(w http.ResponseWriter, r *http.Request) {
	wp, err := waypoint.ByID(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, waypoint.ErrWaypointNotFound) {
			writeCode(w, r, ErrCodeNotFound, "Waypoint not found")
			return
		}
		writeInternal(w, r, "failed to load waypoints", err)
		return
	}
	writeJSON(w, r, http.StatusOK, wp)
}
