package world

// Clock tracks simulation time in seconds. Caches use it for their
// time-to-live checks.
type Clock struct {
	now  float64
	tick uint64
}

// Advance moves simulation time forward by dt and counts one tick.
func (c *Clock) Advance(dt float64) {
	if c == nil {
		return
	}
	if dt > 0 {
		c.now += dt
	}
	c.tick++
}

// Now returns the simulation time.
func (c *Clock) Now() float64 {
	if c == nil {
		return 0
	}
	return c.now
}

// Tick returns the number of completed ticks.
func (c *Clock) Tick() uint64 {
	if c == nil {
		return 0
	}
	return c.tick
}
