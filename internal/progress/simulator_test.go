package progress

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

type constRand float64

func (c constRand) Float64() float64 { return float64(c) }

// stepToCompletion drives r with Step until it reports completion and
// returns every emitted update.
func stepToCompletion(t *testing.T, r *Run) []Update {
	t.Helper()
	var updates []Update
	for i := 0; i < 1000; i++ {
		u, emitted, completed := r.Step()
		if emitted {
			updates = append(updates, u)
		}
		if completed {
			return updates
		}
	}
	t.Fatal("run did not complete within 1000 steps")
	return nil
}

func TestRun_StagedProgression(t *testing.T) {
	tests := []struct {
		name string
		rnd  Rand
	}{
		{"minimum increment", constRand(0)},
		{"maximum increment", constRand(0.999)},
		{"middle increment", constRand(0.5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := NewSimulator(Config{Rand: tt.rnd})
			r := sim.NewRun()

			updates := stepToCompletion(t, r)

			if len(updates) == 0 {
				t.Fatal("no updates emitted")
			}
			prev := 0
			for i, u := range updates {
				if u.Percent < prev {
					t.Errorf("update %d percent = %d, decreased from %d", i, u.Percent, prev)
				}
				if u.Percent > 100 {
					t.Errorf("update %d percent = %d, want <= 100", i, u.Percent)
				}
				if u.RunID != r.ID() {
					t.Errorf("update %d run id = %d, want %d", i, u.RunID, r.ID())
				}
				prev = u.Percent
			}
			if last := updates[len(updates)-1]; last.Percent != 100 || last.Stage != "Complete" {
				t.Errorf("last update = %+v, want 100%% Complete", last)
			}
			if first := updates[0]; first.Stage != DefaultStages[0].Label {
				t.Errorf("first update stage = %q, want %q", first.Stage, DefaultStages[0].Label)
			}
			if r.State() != StateComplete {
				t.Errorf("State() = %q, want %q", r.State(), StateComplete)
			}
		})
	}
}

func TestRun_StagedHitsEveryTarget(t *testing.T) {
	sim := NewSimulator(Config{Rand: constRand(0.999)})
	updates := stepToCompletion(t, sim.NewRun())

	seen := make(map[int]bool)
	for _, u := range updates {
		seen[u.Percent] = true
	}
	for _, s := range DefaultStages {
		if !seen[int(s.Target)] {
			t.Errorf("stage target %v never emitted", s.Target)
		}
	}
}

func TestRun_StagedMinimumIncrementSequence(t *testing.T) {
	sim := NewSimulator(Config{Rand: constRand(0)})
	r := sim.NewRun()

	want := []int{2, 4, 6, 8, 10, 12, 14, 15, 17}
	for i, w := range want {
		u, emitted, completed := r.Step()
		if !emitted || completed {
			t.Fatalf("step %d emitted=%v completed=%v, want emitted only", i, emitted, completed)
		}
		if u.Percent != w {
			t.Errorf("step %d percent = %d, want %d", i, u.Percent, w)
		}
	}
}

func TestRun_CompletesExactlyOnce(t *testing.T) {
	sim := NewSimulator(Config{Rand: constRand(0.5)})
	r := sim.NewRun()
	stepToCompletion(t, r)

	for i := 0; i < 5; i++ {
		if _, emitted, completed := r.Step(); emitted || completed {
			t.Fatalf("Step() after completion emitted=%v completed=%v", emitted, completed)
		}
	}
	if r.Percent() != 100 {
		t.Errorf("Percent() = %d, want 100", r.Percent())
	}
}

func TestRun_CancelStopsSteps(t *testing.T) {
	sim := NewSimulator(Config{Rand: constRand(0.5)})
	r := sim.NewRun()
	r.Step()

	if !r.Cancel() {
		t.Fatal("Cancel() = false on a running run")
	}
	if _, emitted, completed := r.Step(); emitted || completed {
		t.Errorf("Step() after Cancel emitted=%v completed=%v", emitted, completed)
	}
	if r.Cancel() {
		t.Error("second Cancel() = true, want false")
	}
	if r.State() != StateCancelled {
		t.Errorf("State() = %q, want %q", r.State(), StateCancelled)
	}
}

func TestQuickRun(t *testing.T) {
	sim := NewSimulator(Config{})
	r := sim.NewQuickRun()

	for i := 1; i <= 10; i++ {
		u, emitted, completed := r.Step()
		if !emitted {
			t.Fatalf("step %d emitted = false", i)
		}
		if u.Percent != i*10 {
			t.Errorf("step %d percent = %d, want %d", i, u.Percent, i*10)
		}
		if completed != (i == 10) {
			t.Errorf("step %d completed = %v, want %v", i, completed, i == 10)
		}
	}
	if r.Plan() != PlanQuick {
		t.Errorf("Plan() = %q, want %q", r.Plan(), PlanQuick)
	}
}

func TestSimulator_RunIDsIncrease(t *testing.T) {
	sim := NewSimulator(Config{})
	a := sim.NewRun()
	b := sim.NewQuickRun()
	c := sim.NewRun()
	if !(a.ID() < b.ID() && b.ID() < c.ID()) {
		t.Errorf("run ids = %d, %d, %d, want strictly increasing", a.ID(), b.ID(), c.ID())
	}
}

func TestSimulator_Start(t *testing.T) {
	sim := NewSimulator(Config{Interval: time.Millisecond, Rand: constRand(0.999)})

	var mu sync.Mutex
	var percents []int
	completions := 0

	r := sim.Start(context.Background(),
		func(u Update) {
			mu.Lock()
			percents = append(percents, u.Percent)
			mu.Unlock()
		},
		func() {
			mu.Lock()
			completions++
			mu.Unlock()
		},
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.Wait(ctx); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if completions != 1 {
		t.Errorf("completions = %d, want 1", completions)
	}
	if len(percents) == 0 || percents[len(percents)-1] != 100 {
		t.Errorf("percents = %v, want final 100", percents)
	}
	for i := 1; i < len(percents); i++ {
		if percents[i] < percents[i-1] {
			t.Errorf("percents not monotonic at %d: %v", i, percents)
		}
	}
}

func TestSimulator_CancelBeforeCompletion(t *testing.T) {
	sim := NewSimulator(Config{Interval: time.Hour})
	completed := make(chan struct{}, 1)

	r := sim.Start(context.Background(), nil, func() { completed <- struct{}{} })
	if !r.Cancel() {
		t.Fatal("Cancel() = false, want true")
	}

	select {
	case <-r.Done():
	case <-time.After(time.Second):
		t.Fatal("Done() not closed after Cancel")
	}
	select {
	case <-completed:
		t.Error("onComplete called for a cancelled run")
	default:
	}
	if r.State() != StateCancelled {
		t.Errorf("State() = %q, want %q", r.State(), StateCancelled)
	}
}

func TestSimulator_ContextCancel(t *testing.T) {
	sim := NewSimulator(Config{Interval: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())

	r := sim.Start(ctx, nil, func() { t.Error("onComplete called after context cancel") })
	cancel()

	select {
	case <-r.Done():
	case <-time.After(time.Second):
		t.Fatal("Done() not closed after context cancel")
	}
	if r.State() != StateCancelled {
		t.Errorf("State() = %q, want %q", r.State(), StateCancelled)
	}
}

func TestSimulator_DriveTwiceIgnored(t *testing.T) {
	sim := NewSimulator(Config{Interval: time.Hour})
	r := sim.NewRun()
	sim.Drive(context.Background(), r, nil, nil)
	sim.Drive(context.Background(), r, nil, nil)
	r.Cancel()

	select {
	case <-r.Done():
	case <-time.After(time.Second):
		t.Fatal("Done() not closed")
	}
}

func counterValue(t *testing.T, vec *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()
	var m dto.Metric
	if err := vec.WithLabelValues(labels...).Write(&m); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestMetrics_RunLifecycle(t *testing.T) {
	metrics := NewMetrics()
	reg := prometheus.NewRegistry()
	if err := metrics.Register(reg); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	sim := NewSimulator(Config{Interval: time.Millisecond, QuickInterval: time.Millisecond, Metrics: metrics})

	done := sim.StartQuick(context.Background(), nil, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := done.Wait(ctx); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	slow := NewSimulator(Config{Interval: time.Hour, Metrics: metrics})
	r := slow.Start(context.Background(), nil, nil)
	r.Cancel()
	if err := r.Wait(ctx); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	if got := counterValue(t, metrics.runsStarted, string(PlanQuick)); got != 1 {
		t.Errorf("quick started = %v, want 1", got)
	}
	if got := counterValue(t, metrics.runsCompleted, string(PlanQuick)); got != 1 {
		t.Errorf("quick completed = %v, want 1", got)
	}
	if got := counterValue(t, metrics.runsCancelled, string(PlanStaged)); got != 1 {
		t.Errorf("staged cancelled = %v, want 1", got)
	}

	var g dto.Metric
	if err := metrics.runsActive.Write(&g); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if got := g.GetGauge().GetValue(); got != 0 {
		t.Errorf("active runs = %v, want 0", got)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	if len(families) == 0 {
		t.Error("Gather() returned no metric families")
	}
}
