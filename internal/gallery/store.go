package gallery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/BioInfo/chronoscope/internal/spacetime"
	"github.com/BioInfo/chronoscope/internal/tracing"
)

// Store is the gallery service. All saves pass through its Locker, so at
// most one fingerprint lookup and conditional insert runs at a time.
type Store struct {
	repo    Repository
	locker  Locker
	metrics *Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLocker replaces the default in-process FIFO lock.
func WithLocker(l Locker) StoreOption {
	return func(s *Store) { s.locker = l }
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *Metrics) StoreOption {
	return func(s *Store) { s.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) StoreOption {
	return func(s *Store) { s.logger = l }
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// NewStore creates a Store over repo.
func NewStore(repo Repository, opts ...StoreOption) *Store {
	s := &Store{
		repo:   repo,
		locker: NewFIFOLocker(),
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open migrates the repository to the current schema.
func (s *Store) Open(ctx context.Context) error {
	before, err := s.repo.SchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to open gallery: %w", err)
	}
	if err := s.repo.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to open gallery: %w", err)
	}
	if before != SchemaVersion {
		s.logger.Info("gallery schema upgraded", "from", before, "to", SchemaVersion)
	}
	return nil
}

// SchemaVersion reports the repository's schema version.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	return s.repo.SchemaVersion(ctx)
}

// Save stores an image unless an equivalent one exists, in which case the
// existing image is returned and created is false. Saving is idempotent
// for the same image data and coordinates.
func (s *Store) Save(ctx context.Context, imageData string, coords spacetime.Coordinates, locationName, description string) (img *Image, created bool, err error) {
	ctx, endSpan := tracing.StartSpan(ctx, "gallery.save", tracing.CoordinateAttributes(coords)...)
	defer func() { endSpan(err) }()

	defer func() {
		if s.metrics == nil {
			return
		}
		switch {
		case err != nil:
			s.metrics.IncSave(OutcomeError)
		case created:
			s.metrics.IncSave(OutcomeCreated)
		default:
			s.metrics.IncSave(OutcomeExisting)
		}
	}()

	waitStart := s.now()
	unlock, err := s.locker.Lock(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire gallery save lock: %w", err)
	}
	defer unlock()
	if s.metrics != nil {
		s.metrics.ObserveLockWait(s.now().Sub(waitStart).Seconds())
	}

	fingerprint := Fingerprint(imageData, coords)

	existing, err := s.findExisting(ctx, fingerprint, imageData)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		s.logger.Debug("gallery image already stored", "id", existing.ID)
		return existing, false, nil
	}

	img = &Image{
		ID:           uuid.New().String(),
		ImageData:    imageData,
		Coordinates:  coords,
		LocationName: locationName,
		Description:  description,
		Timestamp:    s.now().UnixMilli(),
		Fingerprint:  fingerprint,
	}
	if err := s.repo.Insert(ctx, img); err != nil {
		if errors.Is(err, ErrDuplicateFingerprint) {
			existing, findErr := s.repo.FindByFingerprint(ctx, fingerprint)
			if findErr != nil {
				return nil, false, fmt.Errorf("failed to load existing gallery image: %w", findErr)
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("failed to save gallery image: %w", err)
	}

	s.logger.Info("gallery image saved", "id", img.ID, "location", locationName)
	return img.clone(), true, nil
}

// findExisting returns the stored image matching fingerprint, or nil. Without
// a fingerprint index it scans every image comparing the fingerprint or the
// raw image data.
func (s *Store) findExisting(ctx context.Context, fingerprint, imageData string) (*Image, error) {
	existing, err := s.repo.FindByFingerprint(ctx, fingerprint)
	switch {
	case err == nil:
		return existing, nil
	case errors.Is(err, ErrImageNotFound):
		return nil, nil
	case !errors.Is(err, ErrIndexUnavailable):
		s.logger.Warn("fingerprint lookup failed, falling back to scan", "error", err)
	}

	all, err := s.repo.ListByTimestamp(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to scan gallery: %w", err)
	}
	for _, img := range all {
		if img.Fingerprint == fingerprint || img.ImageData == imageData {
			return img, nil
		}
	}
	return nil, nil
}

// List returns every image, newest first.
func (s *Store) List(ctx context.Context) ([]*Image, error) {
	images, err := s.repo.ListByTimestamp(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list gallery: %w", err)
	}
	for i, j := 0, len(images)-1; i < j; i, j = i+1, j-1 {
		images[i], images[j] = images[j], images[i]
	}
	return images, nil
}

// Get returns the image with id or ErrImageNotFound.
func (s *Store) Get(ctx context.Context, id string) (*Image, error) {
	img, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrImageNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get gallery image: %w", err)
	}
	return img, nil
}

// Delete removes the image with id. Removing a missing image is a no-op.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete gallery image: %w", err)
	}
	return nil
}

// Clear removes every image.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.repo.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear gallery: %w", err)
	}
	s.logger.Info("gallery cleared")
	return nil
}

// Count returns the number of stored images.
func (s *Store) Count(ctx context.Context) (int, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count gallery: %w", err)
	}
	return n, nil
}

// EstimateStorageUsage sums image payloads plus metadata overhead: the
// serialized coordinates, the location name and the description.
func (s *Store) EstimateStorageUsage(ctx context.Context) (StorageUsage, error) {
	images, err := s.repo.ListByTimestamp(ctx)
	if err != nil {
		return StorageUsage{}, fmt.Errorf("failed to estimate gallery usage: %w", err)
	}

	var total int64
	for _, img := range images {
		total += int64(len(img.ImageData))
		coords, err := json.Marshal(img.Coordinates)
		if err != nil {
			return StorageUsage{}, fmt.Errorf("failed to encode coordinates: %w", err)
		}
		total += int64(len(coords))
		total += int64(len(img.LocationName))
		total += int64(len(img.Description))
	}
	return StorageUsage{UsedBytes: total, Formatted: FormatBytes(total)}, nil
}

// Deduplicate removes images whose data shares a long prefix with an older
// image, keeping the oldest of each group. It returns the number removed.
func (s *Store) Deduplicate(ctx context.Context) (removed int, err error) {
	ctx, endSpan := tracing.StartSpan(ctx, "gallery.deduplicate")
	defer func() { endSpan(err) }()

	images, err := s.repo.ListByTimestamp(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list gallery for dedupe: %w", err)
	}
	sort.SliceStable(images, func(i, j int) bool {
		return images[i].Timestamp < images[j].Timestamp
	})

	seen := make(map[string]struct{}, len(images))
	var duplicates []string
	for _, img := range images {
		key := dedupeKey(img.ImageData)
		if _, ok := seen[key]; ok {
			duplicates = append(duplicates, img.ID)
			continue
		}
		seen[key] = struct{}{}
	}

	for _, id := range duplicates {
		if err := s.repo.Delete(ctx, id); err != nil {
			return removed, fmt.Errorf("failed to delete duplicate %s: %w", id, err)
		}
		removed++
	}

	if s.metrics != nil && removed > 0 {
		s.metrics.AddDedupeRemoved(removed)
	}
	if removed > 0 {
		s.logger.Info("removed duplicate gallery images", "removed", removed)
	}
	return removed, nil
}
