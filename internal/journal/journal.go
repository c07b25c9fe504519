package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/BioInfo/chronoscope/internal/spacetime"
)

// Journal is the visit history. Every operation loads the stored document,
// applies its change and writes the document back; a mutex serializes the
// read-modify-write cycle within the process.
//
// Storage failures never fail an operation: a document that cannot be read
// is treated as empty and a failed write is logged.
type Journal struct {
	storage Storage
	key     string
	logger  *slog.Logger
	now     func() time.Time

	mu sync.Mutex
}

// Option configures a Journal.
type Option func(*Journal)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(j *Journal) { j.logger = l }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(j *Journal) { j.now = now }
}

// WithKey overrides the storage key.
func WithKey(key string) Option {
	return func(j *Journal) { j.key = key }
}

// New creates a Journal persisted to storage.
func New(storage Storage, opts ...Option) *Journal {
	j := &Journal{
		storage: storage,
		key:     StorageKey,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

func (j *Journal) load(ctx context.Context) Document {
	doc := Document{MaxEntries: DefaultMaxEntries}

	data, err := j.storage.Load(ctx, j.key)
	if err != nil {
		if !errors.Is(err, ErrNoDocument) {
			j.logger.Warn("failed to load journal", "error", err)
		}
		return doc
	}

	var stored Document
	if err := json.Unmarshal(data, &stored); err != nil {
		j.logger.Warn("failed to decode journal", "error", err)
		return doc
	}
	if stored.Entries != nil {
		doc.Entries = stored.Entries
	}
	if stored.MaxEntries > 0 {
		doc.MaxEntries = stored.MaxEntries
	}
	return doc
}

func (j *Journal) save(ctx context.Context, doc Document) {
	if doc.Entries == nil {
		doc.Entries = []Entry{}
	}
	data, err := json.Marshal(doc)
	if err != nil {
		j.logger.Error("failed to encode journal", "error", err)
		return
	}
	if err := j.storage.Save(ctx, j.key, data); err != nil {
		j.logger.Warn("failed to save journal", "error", err)
	}
}

// Entries returns the journal, newest first.
func (j *Journal) Entries(ctx context.Context) []Entry {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.load(ctx).Entries
}

// Add records a visit. A visit to the same coordinates as the newest entry
// within RecentWindow updates that entry: hasImage can only turn on, an
// empty thumbnail is filled and the timestamp is refreshed. Otherwise a new
// entry is prepended and the journal trimmed to its maximum length.
func (j *Journal) Add(ctx context.Context, coords spacetime.Coordinates, locationName string, hasImage bool, thumbnail string) Entry {
	j.mu.Lock()
	defer j.mu.Unlock()

	doc := j.load(ctx)
	now := j.now().UnixMilli()

	if len(doc.Entries) > 0 {
		last := &doc.Entries[0]
		if last.Coordinates.Equal(coords) && now-last.Timestamp < RecentWindow.Milliseconds() {
			if hasImage {
				last.HasGeneratedImage = true
			}
			if thumbnail != "" && last.Thumbnail == "" {
				last.Thumbnail = thumbnail
			}
			last.Timestamp = now
			j.save(ctx, doc)
			return *last
		}
	}

	entry := Entry{
		ID:                uuid.New().String(),
		Coordinates:       coords,
		LocationName:      locationName,
		Timestamp:         now,
		HasGeneratedImage: hasImage,
		Thumbnail:         thumbnail,
	}
	doc.Entries = append([]Entry{entry}, doc.Entries...)
	if len(doc.Entries) > doc.MaxEntries {
		doc.Entries = doc.Entries[:doc.MaxEntries]
	}
	j.save(ctx, doc)
	return entry
}

// Update applies p to the entry with id. It reports false if no entry matches.
func (j *Journal) Update(ctx context.Context, id string, p Patch) (Entry, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()

	doc := j.load(ctx)
	for i := range doc.Entries {
		if doc.Entries[i].ID != id {
			continue
		}
		if p.HasGeneratedImage != nil {
			doc.Entries[i].HasGeneratedImage = *p.HasGeneratedImage
		}
		if p.Thumbnail != nil {
			doc.Entries[i].Thumbnail = *p.Thumbnail
		}
		j.save(ctx, doc)
		return doc.Entries[i], true
	}
	return Entry{}, false
}

// Remove deletes the entry with id and reports whether it existed.
func (j *Journal) Remove(ctx context.Context, id string) bool {
	j.mu.Lock()
	defer j.mu.Unlock()

	doc := j.load(ctx)
	kept := doc.Entries[:0]
	for _, e := range doc.Entries {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	if len(kept) == len(doc.Entries) {
		return false
	}
	doc.Entries = kept
	j.save(ctx, doc)
	return true
}

// Clear empties the journal and resets its maximum length.
func (j *Journal) Clear(ctx context.Context) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.save(ctx, Document{Entries: []Entry{}, MaxEntries: DefaultMaxEntries})
}

// Export returns the journal document as indented JSON.
func (j *Journal) Export(ctx context.Context) ([]byte, error) {
	j.mu.Lock()
	doc := j.load(ctx)
	j.mu.Unlock()

	if doc.Entries == nil {
		doc.Entries = []Entry{}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode journal: %w", err)
	}
	return data, nil
}

// ExportFilename names an export file by date, for example
// "chronoscope-journal-2024-03-01.json".
func ExportFilename(t time.Time) string {
	return "chronoscope-journal-" + t.UTC().Format("2006-01-02") + ".json"
}

// importEntry distinguishes missing fields from zero values.
type importEntry struct {
	ID                string                 `json:"id"`
	Coordinates       *spacetime.Coordinates `json:"coordinates"`
	LocationName      string                 `json:"locationName"`
	Timestamp         int64                  `json:"timestamp"`
	HasGeneratedImage bool                   `json:"hasGeneratedImage"`
	Thumbnail         string                 `json:"thumbnail,omitempty"`
}

// Import merges an exported document into the journal and returns how many
// entries were added. Entries lacking an id, coordinates, location name or
// timestamp are skipped, as are ids already present. The merged journal is
// sorted newest first and trimmed to its maximum length.
func (j *Journal) Import(ctx context.Context, r io.Reader) (int, error) {
	var payload struct {
		Entries *[]importEntry `json:"entries"`
	}
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}
	if payload.Entries == nil {
		return 0, ErrInvalidFormat
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	doc := j.load(ctx)
	existing := make(map[string]bool, len(doc.Entries))
	for _, e := range doc.Entries {
		existing[e.ID] = true
	}

	var added []Entry
	for _, e := range *payload.Entries {
		if e.ID == "" || e.Coordinates == nil || e.LocationName == "" || e.Timestamp == 0 {
			continue
		}
		if existing[e.ID] {
			continue
		}
		added = append(added, Entry{
			ID:                e.ID,
			Coordinates:       *e.Coordinates,
			LocationName:      e.LocationName,
			Timestamp:         e.Timestamp,
			HasGeneratedImage: e.HasGeneratedImage,
			Thumbnail:         e.Thumbnail,
		})
	}

	merged := append(added, doc.Entries...)
	sort.SliceStable(merged, func(a, b int) bool {
		return merged[a].Timestamp > merged[b].Timestamp
	})
	if len(merged) > doc.MaxEntries {
		merged = merged[:doc.MaxEntries]
	}
	doc.Entries = merged
	j.save(ctx, doc)

	j.logger.Info("imported journal entries", "added", len(added))
	return len(added), nil
}
