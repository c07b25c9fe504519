package gallery

import (
	"context"
	"log/slog"
	"time"

	"github.com/BioInfo/chronoscope/internal/jobs"
)

// DefaultDedupeInterval is how often the background sweep runs.
const DefaultDedupeInterval = time.Hour

// RunDedupe runs one duplicate sweep, recording it as a background job when
// metrics is non-nil.
func RunDedupe(ctx context.Context, store *Store, metrics *jobs.Metrics) (int, error) {
	var removed int
	sweep := func() error {
		var err error
		removed, err = store.Deduplicate(ctx)
		return err
	}

	var err error
	if metrics != nil {
		err = metrics.Track(jobs.JobTypeGalleryDedupe, "storage_error", sweep)
	} else {
		err = sweep()
	}
	if err != nil {
		slog.Error("gallery dedupe failed", "error", err)
		return removed, err
	}
	return removed, nil
}

// RunPeriodicDedupe runs the duplicate sweep immediately and then at every
// interval until ctx is done. It blocks and should be run in a goroutine.
//
// Example usage:
//
//	ctx, cancel := context.WithCancel(context.Background())
//	go gallery.RunPeriodicDedupe(ctx, store, time.Hour, jobMetrics)
//	// ... later when shutting down
//	cancel()
func RunPeriodicDedupe(ctx context.Context, store *Store, interval time.Duration, metrics *jobs.Metrics) {
	if interval <= 0 {
		interval = DefaultDedupeInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	_, _ = RunDedupe(ctx, store, metrics)

	for {
		select {
		case <-ticker.C:
			_, _ = RunDedupe(ctx, store, metrics)
		case <-ctx.Done():
			slog.Info("stopping periodic gallery dedupe")
			return
		}
	}
}

// Migrate opens store, recording the schema upgrade as a background job
// when metrics is non-nil.
func Migrate(ctx context.Context, store *Store, metrics *jobs.Metrics) error {
	if metrics == nil {
		return store.Open(ctx)
	}
	return metrics.Track(jobs.JobTypeGalleryMigrate, "storage_error", func() error {
		return store.Open(ctx)
	})
}
