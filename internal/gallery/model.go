// Package gallery persists generated scene images with fingerprint-based
// de-duplication. Saves are serialized through a FIFO lock so that two
// concurrent saves of the same image cannot both pass the existence check.
package gallery

import (
	"errors"

	"github.com/BioInfo/chronoscope/internal/spacetime"
)

// SchemaVersion is the current storage schema. Version 1 has no fingerprint
// index; version 2 adds a unique one.
const SchemaVersion = 2

var (
	// ErrImageNotFound is returned when no image has the requested id.
	ErrImageNotFound = errors.New("gallery image not found")

	// ErrDuplicateFingerprint is returned by a repository when an insert
	// violates the unique fingerprint index.
	ErrDuplicateFingerprint = errors.New("gallery image fingerprint already exists")

	// ErrIndexUnavailable is returned by FindByFingerprint when the schema
	// predates the fingerprint index.
	ErrIndexUnavailable = errors.New("gallery fingerprint index unavailable")

	// ErrUnknownSchemaVersion is returned when stored data is newer than
	// this build understands.
	ErrUnknownSchemaVersion = errors.New("unknown gallery schema version")
)

// Image is a persisted scene image. Timestamp is the save time in Unix
// milliseconds.
type Image struct {
	ID           string                `json:"id"`
	ImageData    string                `json:"imageData"`
	Coordinates  spacetime.Coordinates `json:"coordinates"`
	LocationName string                `json:"locationName"`
	Description  string                `json:"description"`
	Timestamp    int64                 `json:"timestamp"`
	Fingerprint  string                `json:"fingerprint,omitempty"`
}

func (img *Image) clone() *Image {
	if img == nil {
		return nil
	}
	c := *img
	return &c
}

// StorageUsage is an estimate of the space taken by stored images.
type StorageUsage struct {
	UsedBytes int64  `json:"used"`
	Formatted string `json:"formatted"`
}
