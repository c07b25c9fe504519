package progress

import (
	"context"
	"math"
	"sync"
	"time"
)

// State is the lifecycle position of a run.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateComplete  State = "complete"
	StateCancelled State = "cancelled"
)

// Plan names how a run advances.
type Plan string

const (
	PlanStaged Plan = "staged"
	PlanQuick  Plan = "quick"
)

// Update is a single progress report.
type Update struct {
	RunID   uint64 `json:"runId"`
	Percent int    `json:"percent"`
	Stage   string `json:"stage,omitempty"`
}

// stepper advances progress by one tick. It returns the update to emit, if
// any, and whether the run is finished on this tick.
type stepper interface {
	tick() (percent int, label string, emitted, completed bool)
}

// stagedPlan moves toward each stage target by a random increment, never
// overshooting it. The tick after the last target is reached completes
// the run without emitting.
type stagedPlan struct {
	stages   []Stage
	rnd      Rand
	progress float64
	stage    int
}

func (p *stagedPlan) tick() (int, string, bool, bool) {
	if p.stage >= len(p.stages) {
		return 0, "", false, true
	}
	current := p.stages[p.stage]
	p.progress = math.Min(p.progress+minIncrement+p.rnd.Float64()*incrementSpan, current.Target)
	if p.progress >= current.Target {
		p.stage++
	}
	return int(math.Floor(p.progress + 0.5)), current.Label, true, false
}

// quickPlan adds a fixed step per tick and completes on the tick that
// reaches 100.
type quickPlan struct {
	progress int
}

func (p *quickPlan) tick() (int, string, bool, bool) {
	p.progress = min(p.progress+quickStep, 100)
	return p.progress, "", true, p.progress >= 100
}

// Run is a single progress simulation. It moves from idle to running to
// either complete or cancelled.
type Run struct {
	id       uint64
	plan     Plan
	interval time.Duration
	done     chan struct{}

	mu     sync.Mutex
	state  State
	last   int
	steps  stepper
	cancel context.CancelFunc
}

func newRun(id uint64, kind Plan, interval time.Duration, p stepper) *Run {
	return &Run{
		id:       id,
		plan:     kind,
		interval: interval,
		done:     make(chan struct{}),
		state:    StateIdle,
		steps:    p,
	}
}

// ID returns the run's identity. IDs from one Simulator increase monotonically.
func (r *Run) ID() uint64 { return r.id }

// Plan returns how the run advances.
func (r *Run) Plan() Plan { return r.plan }

// State returns the current lifecycle state.
func (r *Run) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Percent returns the last emitted percentage.
func (r *Run) Percent() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// Done is closed when a driven run stops, by completion or cancellation.
// It is never closed for a run that was not driven.
func (r *Run) Done() <-chan struct{} { return r.done }

// Step advances the run by one tick. An idle run becomes running. Once the
// run is complete or cancelled Step does nothing, so completed is reported
// exactly once.
func (r *Run) Step() (u Update, emitted, completed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state {
	case StateComplete, StateCancelled:
		return Update{}, false, false
	case StateIdle:
		r.state = StateRunning
	}

	percent, label, emitted, completed := r.steps.tick()
	if emitted {
		r.last = percent
		u = Update{RunID: r.id, Percent: percent, Stage: label}
	}
	if completed {
		r.state = StateComplete
	}
	return u, emitted, completed
}

// Cancel stops the run. It reports whether the run was stopped before
// completing; cancelling a finished run is a no-op.
func (r *Run) Cancel() bool {
	r.mu.Lock()
	stopped := r.state == StateIdle || r.state == StateRunning
	if stopped {
		r.state = StateCancelled
	}
	cancel := r.cancel
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	return stopped
}

// Wait blocks until a driven run stops or ctx is done.
func (r *Run) Wait(ctx context.Context) error {
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// begin claims an idle run for driving.
func (r *Run) begin() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateIdle || r.cancel != nil {
		return false
	}
	r.cancel = func() {}
	return true
}

func (r *Run) setCancel(cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == StateCancelled {
		cancel()
	}
	r.cancel = cancel
}

// markCancelled records a context-driven stop. It reports whether the run
// ended cancelled rather than complete.
func (r *Run) markCancelled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch r.state {
	case StateIdle, StateRunning:
		r.state = StateCancelled
		return true
	case StateCancelled:
		return true
	}
	return false
}
