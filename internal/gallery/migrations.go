package gallery

import (
	"context"
	"fmt"
	"sort"
)

// Migration upgrades a stored schema by exactly one version. T is the
// handle the step runs against: the repository itself or a transaction.
type Migration[T any] struct {
	From  int
	To    int
	Name  string
	Apply func(ctx context.Context, target T) error
}

// Pending walks steps from version up to SchemaVersion and returns them in
// the order they must run. A version with no outgoing step, or one newer
// than SchemaVersion, is an ErrUnknownSchemaVersion.
func Pending[T any](steps []Migration[T], version int) ([]Migration[T], error) {
	if version > SchemaVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSchemaVersion, version)
	}
	byFrom := make(map[int]Migration[T], len(steps))
	for _, m := range steps {
		byFrom[m.From] = m
	}

	var pending []Migration[T]
	for v := version; v < SchemaVersion; {
		m, ok := byFrom[v]
		if !ok || m.To <= v {
			return nil, fmt.Errorf("%w: no migration from %d", ErrUnknownSchemaVersion, v)
		}
		pending = append(pending, m)
		v = m.To
	}
	return pending, nil
}

// assignFingerprints decides the fingerprint of every image when the unique
// index is added. Images are visited oldest first and the earliest image of
// each fingerprint owns the index entry. Later images that collide keep
// their record but stay out of the index, so they map to "". Only changes
// are returned.
func assignFingerprints(images []*Image) map[string]string {
	sorted := make([]*Image, len(images))
	copy(sorted, images)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Timestamp != sorted[j].Timestamp {
			return sorted[i].Timestamp < sorted[j].Timestamp
		}
		return sorted[i].ID < sorted[j].ID
	})

	assign := make(map[string]string)
	owned := make(map[string]bool, len(sorted))
	for _, img := range sorted {
		fp := img.Fingerprint
		if fp == "" {
			fp = Fingerprint(img.ImageData, img.Coordinates)
		}
		if owned[fp] {
			fp = ""
		} else {
			owned[fp] = true
		}
		if img.Fingerprint != fp {
			assign[img.ID] = fp
		}
	}
	return assign
}
