package actor

// TimerID identifies a scheduled callback. The zero value is never issued.
type TimerID uint64

type timer struct {
	id        TimerID
	remaining float64
	fn        func()
	cancelled bool
}

// Timers is a tick-driven one-shot scheduler. Callbacks run inside Tick, in
// the order they were scheduled; a callback scheduled while Tick is firing
// waits for the next Tick.
type Timers struct {
	next    TimerID
	pending []*timer
	firing  []*timer
}

// Schedule runs fn once after delay seconds of simulated time. A delay of
// zero fires on the next Tick.
func (t *Timers) Schedule(delay float64, fn func()) TimerID {
	if fn == nil {
		return 0
	}
	if delay < 0 {
		delay = 0
	}
	t.next++
	t.pending = append(t.pending, &timer{id: t.next, remaining: delay, fn: fn})
	return t.next
}

// Cancel drops a pending callback. It reports false when id already fired
// or was cancelled.
func (t *Timers) Cancel(id TimerID) bool {
	for i, tm := range t.pending {
		if tm.id == id {
			tm.cancelled = true
			t.pending = append(t.pending[:i], t.pending[i+1:]...)
			return true
		}
	}
	for _, tm := range t.firing {
		if tm.id == id && !tm.cancelled {
			tm.cancelled = true
			return true
		}
	}
	return false
}

func (t *Timers) CancelAll() {
	for _, tm := range t.pending {
		tm.cancelled = true
	}
	for _, tm := range t.firing {
		tm.cancelled = true
	}
	t.pending = nil
}

func (t *Timers) Len() int { return len(t.pending) }

func (t *Timers) Tick(dt float64) {
	if len(t.pending) == 0 {
		return
	}

	var due []*timer
	kept := t.pending[:0]
	for _, tm := range t.pending {
		tm.remaining -= dt
		if tm.remaining <= 0 {
			due = append(due, tm)
			continue
		}
		kept = append(kept, tm)
	}
	t.pending = kept

	t.firing = due
	defer func() { t.firing = nil }()
	for _, tm := range due {
		// an earlier callback may have cancelled this one
		if tm.cancelled {
			continue
		}
		tm.cancelled = true
		tm.fn()
	}
}
