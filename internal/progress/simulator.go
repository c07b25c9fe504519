// Package progress drives the staged render progress shown while a scene is
// being prepared. There is no backing work: a run advances a counter on a
// timer, reports integer percentages and signals completion once.
package progress

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync/atomic"
	"time"
)

// Stage is a progress target with a status label.
type Stage struct {
	Target float64 `json:"target"`
	Label  string  `json:"label"`
}

// DefaultStages are the render pipeline stages.
var DefaultStages = []Stage{
	{Target: 15, Label: "Calibrating temporal sensors..."},
	{Target: 35, Label: "Locking spatial coordinates..."},
	{Target: 55, Label: "Synchronizing timeline..."},
	{Target: 75, Label: "Rendering atmospheric data..."},
	{Target: 90, Label: "Finalizing scene..."},
	{Target: 100, Label: "Complete"},
}

// Default tick intervals.
const (
	DefaultInterval      = 50 * time.Millisecond
	DefaultQuickInterval = 30 * time.Millisecond
)

// Staged increment per tick is minIncrement + r*incrementSpan.
const (
	minIncrement  = 2
	incrementSpan = 3
	quickStep     = 10
)

// Rand is a source of uniform draws in [0, 1).
type Rand interface {
	Float64() float64
}

type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }

// Config configures a Simulator. Zero values select the defaults.
type Config struct {
	Interval      time.Duration
	QuickInterval time.Duration
	Stages        []Stage
	Rand          Rand
	Metrics       *Metrics
	Logger        *slog.Logger
}

// Simulator creates and drives progress runs.
type Simulator struct {
	interval      time.Duration
	quickInterval time.Duration
	stages        []Stage
	rnd           Rand
	metrics       *Metrics
	logger        *slog.Logger
	nextID        atomic.Uint64
}

// NewSimulator creates a Simulator from cfg.
func NewSimulator(cfg Config) *Simulator {
	s := &Simulator{
		interval:      cfg.Interval,
		quickInterval: cfg.QuickInterval,
		stages:        cfg.Stages,
		rnd:           cfg.Rand,
		metrics:       cfg.Metrics,
		logger:        cfg.Logger,
	}
	if s.interval <= 0 {
		s.interval = DefaultInterval
	}
	if s.quickInterval <= 0 {
		s.quickInterval = DefaultQuickInterval
	}
	if len(s.stages) == 0 {
		s.stages = DefaultStages
	}
	if s.rnd == nil {
		s.rnd = globalRand{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// NewRun returns an idle staged run. It is driven by calling Step or by
// passing it to Drive.
func (s *Simulator) NewRun() *Run {
	stages := make([]Stage, len(s.stages))
	copy(stages, s.stages)
	return newRun(s.nextID.Add(1), PlanStaged, s.interval, &stagedPlan{stages: stages, rnd: s.rnd})
}

// NewQuickRun returns an idle run that advances by a fixed step per tick.
// It is used when the scene is already known, such as a curated waypoint.
func (s *Simulator) NewQuickRun() *Run {
	return newRun(s.nextID.Add(1), PlanQuick, s.quickInterval, &quickPlan{})
}

// Start creates a staged run and drives it in a new goroutine.
func (s *Simulator) Start(ctx context.Context, onProgress func(Update), onComplete func()) *Run {
	r := s.NewRun()
	s.Drive(ctx, r, onProgress, onComplete)
	return r
}

// StartQuick creates a quick run and drives it in a new goroutine.
func (s *Simulator) StartQuick(ctx context.Context, onProgress func(Update), onComplete func()) *Run {
	r := s.NewQuickRun()
	s.Drive(ctx, r, onProgress, onComplete)
	return r
}

// Drive ticks r at its interval until it completes, ctx is done or r is
// cancelled. onProgress receives every emitted update; onComplete is called
// at most once and never after cancellation. Either callback may be nil.
func (s *Simulator) Drive(ctx context.Context, r *Run, onProgress func(Update), onComplete func()) {
	if !r.begin() {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	r.setCancel(cancel)

	if s.metrics != nil {
		s.metrics.runStarted(r.plan)
	}
	s.logger.Debug("progress run started", "run_id", r.id, "plan", r.plan)

	go func() {
		defer cancel()
		defer close(r.done)

		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		started := time.Now()
		for {
			select {
			case <-ctx.Done():
				if r.markCancelled() {
					if s.metrics != nil {
						s.metrics.runCancelled(r.plan)
					}
					s.logger.Debug("progress run cancelled", "run_id", r.id, "plan", r.plan)
				}
				return
			case <-ticker.C:
				u, emitted, completed := r.Step()
				if emitted && onProgress != nil {
					onProgress(u)
				}
				if completed {
					if s.metrics != nil {
						s.metrics.runCompleted(r.plan, time.Since(started).Seconds())
					}
					if onComplete != nil {
						onComplete()
					}
					return
				}
			}
		}
	}()
}
