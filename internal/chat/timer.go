package chat

import (
	"sync"
	"time"
)

// TickResolution is the wall-clock resolution of the submission timer.
const TickResolution = 100 * time.Millisecond

// Timer counts elapsed wall-clock time while a request is in flight.
// Stop is idempotent; after it returns Elapsed is zero and no further
// ticks are delivered.
type Timer struct {
	mu      sync.Mutex
	elapsed time.Duration
	stopped bool

	stopOnce sync.Once
	quit     chan struct{}
	done     chan struct{}
}

// StartTimer starts ticking every resolution. onTick, when set, runs on the
// timer goroutine after each increment.
func StartTimer(resolution time.Duration, onTick func(elapsed time.Duration)) *Timer {
	if resolution <= 0 {
		resolution = TickResolution
	}
	t := &Timer{
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
	go t.run(resolution, onTick)
	return t
}

func (t *Timer) run(resolution time.Duration, onTick func(time.Duration)) {
	defer close(t.done)
	ticker := time.NewTicker(resolution)
	defer ticker.Stop()

	for {
		select {
		case <-t.quit:
			return
		case <-ticker.C:
			t.mu.Lock()
			if t.stopped {
				t.mu.Unlock()
				return
			}
			t.elapsed += resolution
			elapsed := t.elapsed
			t.mu.Unlock()

			if onTick != nil {
				onTick(elapsed)
			}
		}
	}
}

// Elapsed returns the accumulated time.
func (t *Timer) Elapsed() time.Duration {
	if t == nil {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.elapsed
}

// Stop halts the timer, resets it to zero and waits for the tick goroutine
// to exit. It must not be called from inside onTick.
func (t *Timer) Stop() {
	if t == nil {
		return
	}
	t.stopOnce.Do(func() {
		t.mu.Lock()
		t.stopped = true
		t.elapsed = 0
		t.mu.Unlock()
		close(t.quit)
		<-t.done
	})
}
