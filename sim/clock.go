package sim

// Clock is a counter that advances by Step on every read, so busy-waits on
// it terminate without real time passing.
type Clock struct {
	Step  uint32
	ticks uint32
	reads int
}

// NewClock returns a clock advancing step ticks per read.
func NewClock(step uint32) *Clock {
	if step == 0 {
		step = 1
	}
	return &Clock{Step: step}
}

// Now returns the current tick count and advances the clock. It has the
// signature expected by core.SetTimeSource.
func (c *Clock) Now() uint32 {
	c.reads++
	c.ticks += c.Step
	return c.ticks
}

// Reads returns how many times the clock was sampled.
func (c *Clock) Reads() int {
	return c.reads
}
