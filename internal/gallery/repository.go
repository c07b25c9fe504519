package gallery

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Repository is the storage behind a Store. Implementations rely on their
// own atomicity for single-record operations; the Store adds the save lock.
type Repository interface {
	// Migrate brings the schema up to SchemaVersion without losing records.
	Migrate(ctx context.Context) error

	// SchemaVersion returns the stored schema version, 0 for a fresh store.
	SchemaVersion(ctx context.Context) (int, error)

	// Insert stores a new image. Returns ErrDuplicateFingerprint if the
	// fingerprint index already holds img.Fingerprint.
	Insert(ctx context.Context, img *Image) error

	// Get returns the image with id or ErrImageNotFound.
	Get(ctx context.Context, id string) (*Image, error)

	// FindByFingerprint looks an image up through the fingerprint index.
	// Returns ErrImageNotFound on a miss and ErrIndexUnavailable when the
	// schema has no index.
	FindByFingerprint(ctx context.Context, fingerprint string) (*Image, error)

	// ListByTimestamp returns every image, oldest first.
	ListByTimestamp(ctx context.Context) ([]*Image, error)

	// Delete removes the image with id. Deleting a missing id is not an error.
	Delete(ctx context.Context, id string) error

	// Clear removes every image.
	Clear(ctx context.Context) error

	// Count returns the number of stored images.
	Count(ctx context.Context) (int, error)
}

// InMemoryRepository implements Repository with in-memory storage. It
// models the schema version so that a store opened at version 1 behaves
// like one created before the fingerprint index existed.
// The fingerprint index is only maintained from version 2 on.
type InMemoryRepository struct {
	mu            sync.RWMutex
	version       int
	images        map[string]*Image
	byFingerprint map[string]string
}

// NewInMemoryRepository creates an empty repository. Call Migrate before
// use, as with any Repository.
func NewInMemoryRepository() *InMemoryRepository {
	return NewInMemoryRepositoryAtVersion(0)
}

// NewInMemoryRepositoryAtVersion creates an empty repository that reports
// the given schema version. It is used to exercise upgrades.
func NewInMemoryRepositoryAtVersion(version int) *InMemoryRepository {
	return &InMemoryRepository{
		version:       version,
		images:        make(map[string]*Image),
		byFingerprint: make(map[string]string),
	}
}

// memoryMigrations is the in-memory schema ladder.
var memoryMigrations = []Migration[*InMemoryRepository]{
	{
		From:  0,
		To:    1,
		Name:  "create images table with timestamp index",
		Apply: func(context.Context, *InMemoryRepository) error { return nil },
	},
	{
		From: 1,
		To:   2,
		Name: "add unique fingerprint index",
		Apply: func(_ context.Context, r *InMemoryRepository) error {
			r.buildFingerprintIndex()
			return nil
		},
	},
}

// Migrate applies pending migrations in order.
func (r *InMemoryRepository) Migrate(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	pending, err := Pending(memoryMigrations, r.version)
	if err != nil {
		return err
	}
	for _, m := range pending {
		if err := m.Apply(ctx, r); err != nil {
			return fmt.Errorf("failed to migrate gallery schema %d->%d: %w", m.From, m.To, err)
		}
		r.version = m.To
	}
	return nil
}

// buildFingerprintIndex backfills fingerprints and indexes every image that
// owns one. Colliding legacy images are kept but left unindexed.
func (r *InMemoryRepository) buildFingerprintIndex() {
	all := make([]*Image, 0, len(r.images))
	for _, img := range r.images {
		all = append(all, img)
	}
	for id, fp := range assignFingerprints(all) {
		r.images[id].Fingerprint = fp
	}
	r.byFingerprint = make(map[string]string, len(r.images))
	for id, img := range r.images {
		if img.Fingerprint != "" {
			r.byFingerprint[img.Fingerprint] = id
		}
	}
}

// SchemaVersion returns the modelled schema version.
func (r *InMemoryRepository) SchemaVersion(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.version, nil
}

// Insert stores a copy of img.
func (r *InMemoryRepository) Insert(ctx context.Context, img *Image) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.version >= 2 {
		if _, exists := r.byFingerprint[img.Fingerprint]; exists {
			return ErrDuplicateFingerprint
		}
		r.byFingerprint[img.Fingerprint] = img.ID
	}
	r.images[img.ID] = img.clone()
	return nil
}

// Get returns a copy of the image with id.
func (r *InMemoryRepository) Get(ctx context.Context, id string) (*Image, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	img, ok := r.images[id]
	if !ok {
		return nil, ErrImageNotFound
	}
	return img.clone(), nil
}

// FindByFingerprint uses the fingerprint index when the schema has one.
func (r *InMemoryRepository) FindByFingerprint(ctx context.Context, fingerprint string) (*Image, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.version < 2 {
		return nil, ErrIndexUnavailable
	}
	id, ok := r.byFingerprint[fingerprint]
	if !ok {
		return nil, ErrImageNotFound
	}
	return r.images[id].clone(), nil
}

// ListByTimestamp returns copies of every image, oldest first.
func (r *InMemoryRepository) ListByTimestamp(ctx context.Context) ([]*Image, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Image, 0, len(r.images))
	for _, img := range r.images {
		out = append(out, img.clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp != out[j].Timestamp {
			return out[i].Timestamp < out[j].Timestamp
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Delete removes the image with id.
func (r *InMemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	img, ok := r.images[id]
	if !ok {
		return nil
	}
	if owner, indexed := r.byFingerprint[img.Fingerprint]; indexed && owner == id {
		delete(r.byFingerprint, img.Fingerprint)
	}
	delete(r.images, id)
	return nil
}

// Clear removes every image.
func (r *InMemoryRepository) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.images = make(map[string]*Image)
	r.byFingerprint = make(map[string]string)
	return nil
}

// Count returns the number of stored images.
func (r *InMemoryRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.images), nil
}
