package api

import (
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/BioInfo/chronoscope/internal/gallery"
	"github.com/BioInfo/chronoscope/internal/image"
	"github.com/BioInfo/chronoscope/internal/jobs"
	"github.com/BioInfo/chronoscope/internal/journal"
	"github.com/BioInfo/chronoscope/internal/spacetime"
	"github.com/BioInfo/chronoscope/internal/validate"
)

// maxGalleryBody bounds POST /gallery bodies, which carry a base64 image.
const maxGalleryBody = 16 << 20

// GalleryHandlers exposes the gallery store. Journal and JobMetrics are
// optional.
type GalleryHandlers struct {
	store      *gallery.Store
	journal    *journal.Journal
	jobMetrics *jobs.Metrics
	thumbnail  func(dataURL string) (string, error)
}

// NewGalleryHandlers creates GalleryHandlers.
func NewGalleryHandlers(store *gallery.Store, j *journal.Journal, jobMetrics *jobs.Metrics) *GalleryHandlers {
	return &GalleryHandlers{
		store:      store,
		journal:    j,
		jobMetrics: jobMetrics,
		thumbnail:  image.Thumbnail,
	}
}

// SaveImageRequest is the body of POST /gallery.
type SaveImageRequest struct {
	ImageData    string                `json:"imageData"`
	Coordinates  spacetime.Coordinates `json:"coordinates"`
	LocationName string                `json:"locationName"`
	Description  string                `json:"description"`
}

// GalleryListResponse is the body of GET /gallery.
type GalleryListResponse struct {
	Images []*gallery.Image `json:"images"`
}

// Save handles POST /gallery. It returns 201 with a new image, or 200 with
// the stored image when an equivalent one already exists. The visit is
// marked in the journal as having an image.
func (h *GalleryHandlers) Save(w http.ResponseWriter, r *http.Request) {
	var req SaveImageRequest
	if !decodeJSON(w, r, maxGalleryBody, &req) {
		return
	}
	mimeType, data, err := image.DecodeDataURL(req.ImageData)
	if err != nil {
		writeCode(w, r, ErrCodeValidation, "imageData must be a base64 data URL")
		return
	}
	if _, err := validate.SceneImage(mimeType, int64(len(data))); err != nil {
		writeCode(w, r, ErrCodeValidation, "imageData: "+err.Error())
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
	description, err := validate.Description(req.Description)
	if err != nil {
		writeCode(w, r, ErrCodeValidation, "description: "+err.Error())
		return
	}

	img, created, err := h.store.Save(r.Context(), req.ImageData, req.Coordinates, locationName, description)
	if err != nil {
		writeInternal(w, r, "failed to save gallery image", err)
		return
	}

	if h.journal != nil {
		thumb, err := h.thumbnail(req.ImageData)
		if err != nil {
			slog.WarnContext(r.Context(), "failed to build journal thumbnail", "error", err)
			thumb = ""
		}
		h.journal.Add(r.Context(), req.Coordinates, locationName, true, thumb)
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, r, status, img)
}

// List handles GET /gallery, newest first.
func (h *GalleryHandlers) List(w http.ResponseWriter, r *http.Request) {
	images, err := h.store.List(r.Context())
	if err != nil {
		writeInternal(w, r, "failed to list gallery", err)
		return
	}
	if images == nil {
		images = []*gallery.Image{}
	}
	writeJSON(w, r, http.StatusOK, GalleryListResponse{Images: images})
}

// Get handles GET /gallery/{id}. With ?download=true the decoded image is
// served as an attachment instead of JSON.
func (h *GalleryHandlers) Get(w http.ResponseWriter, r *http.Request) {
	img, err := h.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, gallery.ErrImageNotFound) {
			writeCode(w, r, ErrCodeNotFound, "Image not found")
			return
		}
		writeInternal(w, r, "failed to get gallery image", err)
		return
	}

	if download, _ := strconv.ParseBool(r.URL.Query().Get("download")); !download {
		writeJSON(w, r, http.StatusOK, img)
		return
	}

	mimeType, data, err := image.DecodeDataURL(img.ImageData)
	if err != nil {
		writeInternal(w, r, "stored gallery image is not a data URL", err)
		return
	}
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": gallery.Filename(img)}))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		slog.ErrorContext(r.Context(), "failed to write gallery download", "error", err)
	}
}

// Delete handles DELETE /gallery/{id}. Deleting a missing image succeeds.
func (h *GalleryHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeInternal(w, r, "failed to delete gallery image", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Clear handles DELETE /gallery.
func (h *GalleryHandlers) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Clear(r.Context()); err != nil {
		writeInternal(w, r, "failed to clear gallery", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Count handles GET /gallery/count.
func (h *GalleryHandlers) Count(w http.ResponseWriter, r *http.Request) {
	n, err := h.store.Count(r.Context())
	if err != nil {
		writeInternal(w, r, "failed to count gallery", err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]int{"count": n})
}

// Usage handles GET /gallery/usage.
func (h *GalleryHandlers) Usage(w http.ResponseWriter, r *http.Request) {
	usage, err := h.store.EstimateStorageUsage(r.Context())
	if err != nil {
		writeInternal(w, r, "failed to estimate gallery usage", err)
		return
	}
	writeJSON(w, r, http.StatusOK, usage)
}

// Dedupe handles POST /gallery/dedupe, running one duplicate sweep now.
func (h *GalleryHandlers) Dedupe(w http.ResponseWriter, r *http.Request) {
	removed, err := gallery.RunDedupe(r.Context(), h.store, h.jobMetrics)
	if err != nil {
		writeInternal(w, r, "failed to deduplicate gallery", err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]int{"removed": removed})
}
