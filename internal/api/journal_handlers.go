package api

import (
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/BioInfo/chronoscope/internal/image"
	"github.com/BioInfo/chronoscope/internal/journal"
	"github.com/BioInfo/chronoscope/internal/spacetime"
	"github.com/BioInfo/chronoscope/internal/validate"
)

const (
	maxJournalEntryBody  = 1 << 20
	maxJournalImportBody = 8 << 20
)

// JournalHandlers exposes the visit journal.
type JournalHandlers struct {
	journal   *journal.Journal
	thumbnail func(dataURL string) (string, error)
	now       func() time.Time
}

// NewJournalHandlers creates JournalHandlers.
func NewJournalHandlers(j *journal.Journal) *JournalHandlers {
	return &JournalHandlers{
		journal:   j,
		thumbnail: image.Thumbnail,
		now:       time.Now,
	}
}

// JournalListResponse is the body of GET /journal.
type JournalListResponse struct {
	Entries []journal.Entry `json:"entries"`
}

// AddEntryRequest is the body of POST /journal. ImageData, when present,
// is a data URL reduced to the entry's thumbnail.
type AddEntryRequest struct {
	Coordinates       spacetime.Coordinates `json:"coordinates"`
	LocationName      string                `json:"locationName"`
	HasGeneratedImage bool                  `json:"hasGeneratedImage"`
	ImageData         string                `json:"imageData,omitempty"`
}

// List handles GET /journal, newest first.
func (h *JournalHandlers) List(w http.ResponseWriter, r *http.Request) {
	entries := h.journal.Entries(r.Context())
	if entries == nil {
		entries = []journal.Entry{}
	}
	writeJSON(w, r, http.StatusOK, JournalListResponse{Entries: entries})
}

// Add handles POST /journal.
func (h *JournalHandlers) Add(w http.ResponseWriter, r *http.Request) {
	var req AddEntryRequest
	if !decodeJSON(w, r, maxJournalEntryBody, &req) {
		return
	}
	if v := spacetime.Validate(req.Coordinates); !v.Valid {
		writeCode(w, r, ErrCodeValidation, v.Error)
		return
	}
	locationName, err := validate.LocationName(req.LocationName)
	if err != nil {
		writeCode(w, r, ErrCodeValidation, "locationName: "+err.Error())
		return
	}

	var thumb string
	if req.ImageData != "" {
		if thumb, err = h.thumbnail(req.ImageData); err != nil {
			if errors.Is(err, image.ErrInvalidDataURL) {
				writeCode(w, r, ErrCodeValidation, "imageData must be a base64 data URL")
				return
			}
			slog.WarnContext(r.Context(), "failed to build journal thumbnail", "error", err)
			thumb = ""
		}
	}

	entry := h.journal.Add(r.Context(), req.Coordinates, locationName, req.HasGeneratedImage, thumb)
	writeJSON(w, r, http.StatusCreated, entry)
}

// Update handles PATCH /journal/{id}.
func (h *JournalHandlers) Update(w http.ResponseWriter, r *http.Request) {
	var patch journal.Patch
	if !decodeJSON(w, r, maxJournalEntryBody, &patch) {
		return
	}
	entry, ok := h.journal.Update(r.Context(), r.PathValue("id"), patch)
	if !ok {
		writeCode(w, r, ErrCodeNotFound, "Journal entry not found")
		return
	}
	writeJSON(w, r, http.StatusOK, entry)
}

// Remove handles DELETE /journal/{id}.
func (h *JournalHandlers) Remove(w http.ResponseWriter, r *http.Request) {
	if !h.journal.Remove(r.Context(), r.PathValue("id")) {
		writeCode(w, r, ErrCodeNotFound, "Journal entry not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Clear handles DELETE /journal.
func (h *JournalHandlers) Clear(w http.ResponseWriter, r *http.Request) {
	h.journal.Clear(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// Export handles GET /journal/export, serving the journal as a dated JSON
// attachment.
func (h *JournalHandlers) Export(w http.ResponseWriter, r *http.Request) {
	data, err := h.journal.Export(r.Context())
	if err != nil {
		writeInternal(w, r, "failed to export journal", err)
		return
	}
	filename := journal.ExportFilename(h.now())
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		slog.ErrorContext(r.Context(), "failed to write journal export", "error", err)
	}
}

// Import handles POST /journal/import. The body is an exported journal.
func (h *JournalHandlers) Import(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, maxJournalImportBody)
	n, err := h.journal.Import(r.Context(), body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeCode(w, r, ErrCodePayloadTooLarge, "Request body too large")
		case errors.Is(err, journal.ErrInvalidFormat):
			writeCode(w, r, ErrCodeBadRequest, "Invalid journal format")
		default:
			writeInternal(w, r, "failed to import journal", err)
		}
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]int{"imported": n})
}
