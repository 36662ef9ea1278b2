package countdown

import (
	"sync"
	"time"

	"anarchy.ttfm/payin/transactions"
)

type Config struct {
	// Target instant to count down to. Zero means already expired
	Target transactions.Millis
	// Tick interval. Defaults to RefreshQuoteInterval
	Interval time.Duration
	// Clock to sample. Defaults to time.Now
	Now func() time.Time
}

// Timer ticks against a target instant and re-samples the wall clock on
// every tick. It is a pure time source, it never triggers navigation
type Timer struct {
	interval time.Duration
	now      func() time.Time
	out      chan Snapshot

	mu     sync.Mutex
	target transactions.Millis
	cancel chan struct{}
}

func New(config Config) (t *Timer) {
	t = &Timer{
		interval: config.Interval,
		now:      config.Now,
		out:      make(chan Snapshot, 1),
	}
	if t.interval <= 0 {
		t.interval = RefreshQuoteInterval
	}
	if t.now == nil {
		t.now = time.Now
	}

	t.Reset(config.Target)
	return t
}

// C delivers a snapshot per tick. Stale snapshots are dropped in favor
// of fresh ones when the consumer falls behind
func (t *Timer) C() (c <-chan Snapshot) {
	return t.out
}

// Snapshot re-samples the clock against the current target
func (t *Timer) Snapshot() (snap Snapshot) {
	t.mu.Lock()
	target := t.target
	t.mu.Unlock()

	return At(target, t.now())
}

// Reset points the timer at a new target. The running tick loop is torn
// down and, for a non zero target, a fresh one is started against a
// newly sampled clock so no leftover time from the previous target shows
func (t *Timer) Reset(target transactions.Millis) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()
	t.target = target
	if target.IsZero() {
		return
	}

	cancel := make(chan struct{})
	t.cancel = cancel
	go t.loop(target, cancel)
}

// Stop tears down the tick loop. Safe to call more than once
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()
}

func (t *Timer) stopLocked() {
	if t.cancel == nil {
		return
	}
	close(t.cancel)
	t.cancel = nil
}

func (t *Timer) loop(target transactions.Millis, cancel chan struct{}) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-cancel:
			return
		case <-ticker.C:
			t.publish(At(target, t.now()))
		}
	}
}

func (t *Timer) publish(snap Snapshot) {
	for {
		select {
		case t.out <- snap:
			return
		default:
		}
		// Drop the stale snapshot sitting in the channel
		select {
		case <-t.out:
		default:
		}
	}
}
