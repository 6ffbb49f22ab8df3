package scheduler

import (
	"sync"
	"time"
)

// AlarmFunc is invoked when an armed wake timer fires. firedFor is the
// instant the timer was armed for; callbacks compare it against the persisted
// due time to detect superseded or stale fires.
type AlarmFunc func(key string, firedFor time.Time)

// Timers is an in-process wake-timer arena with at most one armed timer per
// key. Arming a key replaces any previously armed timer for that key.
type Timers struct {
	mu      sync.Mutex
	armed   map[string]*time.Timer
	stopped bool
}

func NewTimers() *Timers {
	return &Timers{
		armed: make(map[string]*time.Timer),
	}
}

// Arm schedules fn to run at or after the given time, replacing any timer
// already armed for the key. Times in the past fire immediately.
func (t *Timers) Arm(key string, at time.Time, fn AlarmFunc) {
	t.armAfter(key, time.Until(at), at, fn)
}

// Rearm schedules a redelivery of a fire that could not be acted on, keeping
// the original armed instant so the staleness guard still matches.
func (t *Timers) Rearm(key string, after time.Duration, firedFor time.Time, fn AlarmFunc) {
	t.armAfter(key, after, firedFor, fn)
}

func (t *Timers) armAfter(key string, d time.Duration, firedFor time.Time, fn AlarmFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopped {
		return
	}

	if existing, ok := t.armed[key]; ok {
		existing.Stop()
	}

	if d < 0 {
		d = 0
	}

	t.armed[key] = time.AfterFunc(d, func() {
		t.mu.Lock()
		delete(t.armed, key)
		t.mu.Unlock()

		fn(key, firedFor)
	})
}

// Disarm cancels the armed timer for a key, if any. A fire that already
// started is not interrupted; callbacks guard against acting on it.
func (t *Timers) Disarm(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if timer, ok := t.armed[key]; ok {
		timer.Stop()
		delete(t.armed, key)
	}
}

// Len reports the number of currently armed timers.
func (t *Timers) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.armed)
}

// Stop cancels all armed timers and rejects further arming.
func (t *Timers) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopped = true
	for key, timer := range t.armed {
		timer.Stop()
		delete(t.armed, key)
	}
}
