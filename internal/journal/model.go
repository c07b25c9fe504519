// Package journal keeps the visit history: a bounded, newest-first list of
// coordinates the user has looked at, persisted as one JSON document.
package journal

import (
	"errors"
	"time"

	"github.com/BioInfo/chronoscope/internal/spacetime"
)

const (
	// StorageKey is the key the journal document is stored under.
	StorageKey = "chronoscope_journal"

	// DefaultMaxEntries bounds the journal length.
	DefaultMaxEntries = 50

	// RecentWindow is how long a repeated visit to the newest entry's
	// coordinates updates that entry instead of adding a new one.
	RecentWindow = 5 * time.Minute
)

// ErrInvalidFormat is returned by Import for payloads without an entries array.
var ErrInvalidFormat = errors.New("invalid journal format")

// Entry is one visit. Timestamp is the last interaction in Unix milliseconds.
type Entry struct {
	ID                string                `json:"id"`
	Coordinates       spacetime.Coordinates `json:"coordinates"`
	LocationName      string                `json:"locationName"`
	Timestamp         int64                 `json:"timestamp"`
	HasGeneratedImage bool                  `json:"hasGeneratedImage"`
	Thumbnail         string                `json:"thumbnail,omitempty"`
}

// Document is the persisted form of the journal.
type Document struct {
	Entries    []Entry `json:"entries"`
	MaxEntries int     `json:"maxEntries"`
}

// Patch holds optional field updates for Update. Nil fields are left alone.
type Patch struct {
	HasGeneratedImage *bool   `json:"hasGeneratedImage,omitempty"`
	Thumbnail         *string `json:"thumbnail,omitempty"`
}
