package boost

import (
	"sync"
	"time"
)

// debounceTimer is a restartable one-shot timer. Every Kick cancels the pending expiry and arms a
// new one, so only the last kick of a burst produces an expiry. Kick's apply func and the expire
// func run under the same mutex, which keeps a kick from interleaving with the expiry it cancels.
type debounceTimer struct {
	mutex   sync.Mutex
	timer   *time.Timer
	epoch   uint64
	stopped bool

	// expire runs under the timer mutex; the func it returns, if any, runs after the mutex is released
	expire func() func()
}

func (t *debounceTimer) Init(expire func() func()) {
	t.expire = expire
}

// Kick runs apply under the timer mutex and, if apply returns true, re-arms the timer with duration d.
// A nil apply always arms. It reports whether the timer was armed.
func (t *debounceTimer) Kick(d time.Duration, apply func() bool) bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.stopped {
		return false
	}

	if apply != nil && !apply() {
		return false
	}

	t.epoch++
	epoch := t.epoch
	if t.timer != nil {
		t.timer.Stop()
	}
	t.timer = time.AfterFunc(d, func() {
		t.fire(epoch)
	})

	return true
}

func (t *debounceTimer) fire(epoch uint64) {
	t.mutex.Lock()

	// A stale expiry lost the race against a re-arm; Stop on the old timer came too late
	if t.stopped || epoch != t.epoch {
		t.mutex.Unlock()
		return
	}

	t.timer = nil
	t.epoch++

	var post func()
	if t.expire != nil {
		post = t.expire()
	}
	t.mutex.Unlock()

	if post != nil {
		post()
	}
}

// Pending reports whether an expiry is armed
func (t *debounceTimer) Pending() bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	return t.timer != nil
}

// Cancel disarms a pending expiry without running it and reports whether one was armed
func (t *debounceTimer) Cancel() bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.timer == nil {
		return false
	}

	t.timer.Stop()
	t.timer = nil
	t.epoch++
	return true
}

// Stop disarms the timer permanently. Later kicks are rejected.
func (t *debounceTimer) Stop() {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	t.stopped = true
	t.epoch++
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
