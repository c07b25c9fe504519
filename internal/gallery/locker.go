package gallery

import (
	"context"
	"sync"
)

// Locker serializes gallery saves. Lock blocks until the caller holds the
// lock or ctx is done; the returned unlock function must be called exactly
// once after a successful Lock.
type Locker interface {
	Lock(ctx context.Context) (unlock func(), err error)
}

// FIFOLocker is an in-process lock granted in arrival order. Every caller
// waits for the release of the caller queued just before it.
type FIFOLocker struct {
	mu   sync.Mutex
	tail chan struct{}
}

// NewFIFOLocker returns an unlocked FIFOLocker.
func NewFIFOLocker() *FIFOLocker {
	return &FIFOLocker{}
}

// Lock queues the caller behind every earlier caller. A caller that gives
// up while waiting keeps its place in the queue and hands the lock on as
// soon as its predecessor releases, so later callers are never wedged.
func (l *FIFOLocker) Lock(ctx context.Context) (func(), error) {
	mine := make(chan struct{})
	release := sync.OnceFunc(func() { close(mine) })

	l.mu.Lock()
	prev := l.tail
	l.tail = mine
	l.mu.Unlock()

	if prev == nil {
		return release, nil
	}

	select {
	case <-prev:
		return release, nil
	case <-ctx.Done():
		go func() {
			<-prev
			release()
		}()
		return nil, ctx.Err()
	}
}
