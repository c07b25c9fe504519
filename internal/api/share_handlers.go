package api

import (
	"net/http"

	"github.com/BioInfo/chronoscope/internal/spacetime"
)

// ShareResponse describes a shareable coordinate. Query is the URL query
// string without the leading "?".
type ShareResponse struct {
	Coordinates *spacetime.Coordinates `json:"coordinates,omitempty"`
	Query       string                 `json:"query"`
	Display     string                 `json:"display"`
}

// DecodeShare handles GET /share. It parses the request's share-link query
// parameters and echoes the canonical form.
func DecodeShare(w http.ResponseWriter, r *http.Request) {
	c, ok := spacetime.DecodeValues(r.URL.Query())
	if !ok {
		writeCode(w, r, ErrCodeBadRequest, "Missing or malformed share parameters")
		return
	}
	if v := spacetime.Validate(c); !v.Valid {
		writeCode(w, r, ErrCodeValidation, v.Error)
		return
	}
	writeJSON(w, r, http.StatusOK, ShareResponse{
		Coordinates: &c,
		Query:       spacetime.EncodeQuery(c),
		Display:     spacetime.FormatDisplay(c),
	})
}

// EncodeShare handles POST /share. The body is a coordinate.
func EncodeShare(w http.ResponseWriter, r *http.Request) {
	var c spacetime.Coordinates
	if !decodeJSON(w, r, maxCoordinatesBody, &c) {
		return
	}
	if v := spacetime.Validate(c); !v.Valid {
		writeCode(w, r, ErrCodeValidation, v.Error)
		return
	}
	writeJSON(w, r, http.StatusOK, ShareResponse{
		Query:   spacetime.EncodeQuery(c),
		Display: spacetime.FormatDisplay(c),
	})
}
