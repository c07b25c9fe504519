package progress

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestTracker_SupersedesPreviousRun(t *testing.T) {
	sim := NewSimulator(Config{Interval: time.Hour, QuickInterval: time.Millisecond})
	tracker := NewTracker(sim)

	first := tracker.Begin(context.Background(), func(Update) {
		t.Error("superseded run emitted progress")
	}, func(uint64) {
		t.Error("superseded run completed")
	})

	var mu sync.Mutex
	var got []Update
	completed := make(chan uint64, 1)
	second := tracker.BeginQuick(context.Background(), func(u Update) {
		mu.Lock()
		got = append(got, u)
		mu.Unlock()
	}, func(id uint64) { completed <- id })

	select {
	case <-first.Done():
	case <-time.After(time.Second):
		t.Fatal("superseded run not stopped")
	}
	if first.State() != StateCancelled {
		t.Errorf("first State() = %q, want %q", first.State(), StateCancelled)
	}
	if tracker.IsCurrent(first.ID()) {
		t.Error("IsCurrent(first) = true, want false")
	}
	if !tracker.IsCurrent(second.ID()) {
		t.Error("IsCurrent(second) = false, want true")
	}

	select {
	case id := <-completed:
		if id != second.ID() {
			t.Errorf("completed run id = %d, want %d", id, second.ID())
		}
	case <-time.After(5 * time.Second):
		t.Fatal("current run did not complete")
	}

	mu.Lock()
	defer mu.Unlock()
	for _, u := range got {
		if u.RunID != second.ID() {
			t.Errorf("update run id = %d, want %d", u.RunID, second.ID())
		}
	}
	if len(got) != 10 {
		t.Errorf("updates = %d, want 10", len(got))
	}
}

func TestTracker_Stop(t *testing.T) {
	sim := NewSimulator(Config{Interval: time.Hour})
	tracker := NewTracker(sim)

	r := tracker.Begin(context.Background(), nil, nil)
	if tracker.Current() != r {
		t.Fatal("Current() did not return the begun run")
	}

	tracker.Stop()

	if tracker.Current() != nil {
		t.Error("Current() after Stop = non-nil, want nil")
	}
	if tracker.IsCurrent(r.ID()) {
		t.Error("IsCurrent() after Stop = true, want false")
	}
	select {
	case <-r.Done():
	case <-time.After(time.Second):
		t.Fatal("run not stopped")
	}
}

func TestTracker_StopWithoutRun(t *testing.T) {
	tracker := NewTracker(NewSimulator(Config{}))
	tracker.Stop()
	if tracker.IsCurrent(1) {
		t.Error("IsCurrent(1) = true on empty tracker")
	}
}

func TestTracker_RestartFromCompletion(t *testing.T) {
	sim := NewSimulator(Config{QuickInterval: time.Millisecond})
	tracker := NewTracker(sim)

	done := make(chan struct{})
	var restart func(n int)
	restart = func(n int) {
		tracker.BeginQuick(context.Background(), nil, func(uint64) {
			if n == 0 {
				close(done)
				return
			}
			restart(n - 1)
		})
	}
	restart(2)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("chained runs did not finish")
	}
}
