package testutil

import (
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryRecorder hands out backoff timers that fire immediately and records
// every wait they were asked for. Use with api.WithRetryTimer.
type RetryRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

// NewTimer returns a timer bound to the recorder
func (r *RetryRecorder) NewTimer() backoff.Timer {
	return &instantTimer{recorder: r, c: make(chan time.Time, 1)}
}

// Delays returns the recorded waits in order
func (r *RetryRecorder) Delays() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.delays...)
}

type instantTimer struct {
	recorder *RetryRecorder
	c        chan time.Time
}

func (t *instantTimer) Start(d time.Duration) {
	t.recorder.mu.Lock()
	t.recorder.delays = append(t.recorder.delays, d)
	t.recorder.mu.Unlock()
	t.c <- time.Now()
}

func (t *instantTimer) Stop() {}

func (t *instantTimer) C() <-chan time.Time {
	return t.c
}
