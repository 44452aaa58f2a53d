package simutil

// Timer is a cooperative countdown measured in simulation seconds. The zero
// value is an expired timer.
type Timer struct {
	Remaining float64
}

// NewTimer returns a timer armed with the provided duration.
func NewTimer(seconds float64) Timer {
	t := Timer{}
	t.Reset(seconds)
	return t
}

// Tick decrements the timer by dt and floors it at zero. It reports whether
// the timer expired during this call.
func (t *Timer) Tick(dt float64) bool {
	if t == nil || t.Remaining <= 0 {
		return false
	}
	if dt < 0 {
		dt = 0
	}
	t.Remaining -= dt
	if t.Remaining <= 0 {
		t.Remaining = 0
		return true
	}
	return false
}

// Expired reports whether the countdown reached zero.
func (t Timer) Expired() bool {
	return t.Remaining <= 0
}

// Active is the inverse of Expired.
func (t Timer) Active() bool {
	return t.Remaining > 0
}

// Reset re-arms the timer. Negative durations clear it.
func (t *Timer) Reset(seconds float64) {
	if t == nil {
		return
	}
	if seconds < 0 {
		seconds = 0
	}
	t.Remaining = seconds
}

// Clear expires the timer immediately.
func (t *Timer) Clear() {
	if t == nil {
		return
	}
	t.Remaining = 0
}

// Stopwatch accumulates elapsed simulation time until reset.
type Stopwatch struct {
	Elapsed float64
}

// Add advances the stopwatch by dt.
func (s *Stopwatch) Add(dt float64) {
	if s == nil || dt <= 0 {
		return
	}
	s.Elapsed += dt
}

// Reset zeroes the accumulated time.
func (s *Stopwatch) Reset() {
	if s == nil {
		return
	}
	s.Elapsed = 0
}

// Exceeds reports whether the accumulated time is strictly greater than limit.
func (s Stopwatch) Exceeds(limit float64) bool {
	return s.Elapsed > limit
}
