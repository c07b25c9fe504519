// Package health provides readiness checks for the API server's
// dependencies.
package health

import (
	"context"
	"fmt"
)

// Checker reports whether a dependency is usable.
type Checker interface {
	HealthCheck(ctx context.Context) error
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context) error

// HealthCheck calls f.
func (f CheckerFunc) HealthCheck(ctx context.Context) error {
	return f(ctx)
}

// SchemaVersioner is a store that reports its schema version.
type SchemaVersioner interface {
	SchemaVersion(ctx context.Context) (int, error)
}

// SchemaChecker fails until a store has been migrated to the wanted version.
type SchemaChecker struct {
	store SchemaVersioner
	want  int
}

// NewSchemaChecker creates a SchemaChecker.
func NewSchemaChecker(store SchemaVersioner, want int) *SchemaChecker {
	return &SchemaChecker{store: store, want: want}
}

// HealthCheck compares the stored schema version with the wanted one.
func (s *SchemaChecker) HealthCheck(ctx context.Context) error {
	got, err := s.store.SchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if got != s.want {
		return fmt.Errorf("schema version %d, want %d", got, s.want)
	}
	return nil
}
