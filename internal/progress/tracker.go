package progress

import (
	"context"
	"sync"
)

// Tracker owns the current run for one consumer, such as a single client
// connection. Beginning a new run supersedes the previous one: the old run
// is cancelled and any of its callbacks still in flight are discarded.
type Tracker struct {
	sim *Simulator

	mu      sync.Mutex
	current *Run
}

// NewTracker returns a Tracker that starts runs on sim.
func NewTracker(sim *Simulator) *Tracker {
	return &Tracker{sim: sim}
}

// Begin starts a staged run, superseding any current run. onComplete
// receives the id of the run that finished.
func (t *Tracker) Begin(ctx context.Context, onProgress func(Update), onComplete func(runID uint64)) *Run {
	return t.begin(ctx, t.sim.NewRun(), onProgress, onComplete)
}

// BeginQuick starts a quick run, superseding any current run.
func (t *Tracker) BeginQuick(ctx context.Context, onProgress func(Update), onComplete func(runID uint64)) *Run {
	return t.begin(ctx, t.sim.NewQuickRun(), onProgress, onComplete)
}

func (t *Tracker) begin(ctx context.Context, r *Run, onProgress func(Update), onComplete func(runID uint64)) *Run {
	t.mu.Lock()
	prev := t.current
	t.current = r
	t.mu.Unlock()

	if prev != nil {
		prev.Cancel()
	}

	id := r.ID()
	t.sim.Drive(ctx, r,
		func(u Update) {
			if onProgress != nil && t.IsCurrent(id) {
				onProgress(u)
			}
		},
		func() {
			if onComplete != nil && t.IsCurrent(id) {
				onComplete(id)
			}
		},
	)
	return r
}

// IsCurrent reports whether id identifies the most recently begun run.
func (t *Tracker) IsCurrent(id uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current != nil && t.current.ID() == id
}

// Current returns the most recently begun run, or nil.
func (t *Tracker) Current() *Run {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// Stop cancels the current run, if any, and forgets it.
func (t *Tracker) Stop() {
	t.mu.Lock()
	r := t.current
	t.current = nil
	t.mu.Unlock()

	if r != nil {
		r.Cancel()
	}
}
