package core

// CoreTimerFreq is the PIC32 core timer rate (SYSCLK/2 at 48 MHz)
const CoreTimerFreq = 24000000

var (
	systemTicks uint32
	timeSource  func() uint32 // Free-running hardware counter, if registered
)

// GetTime returns the current system time in timer ticks
func GetTime() uint32 {
	return getSystemTicks()
}

// SetTime sets the current system time (for testing/hardware integration)
func SetTime(ticks uint32) {
	setSystemTicks(ticks)
}

// SetTimeSource registers a free-running counter that GetTime reads directly.
// Pass nil to fall back to the value stored by SetTime.
func SetTimeSource(src func() uint32) {
	timeSource = src
}

// TimerFromUS converts microseconds to ticks of a counter running at freq
func TimerFromUS(us, freq uint32) uint32 {
	return uint32(uint64(us) * uint64(freq) / 1000000)
}

// CycleCounter is a resettable view of the free-running system counter,
// in the manner of the MIPS CP0 Count register.
type CycleCounter struct {
	base uint32
}

// Count returns the ticks elapsed since the last Reset.
func (c *CycleCounter) Count() uint32 {
	return GetTime() - c.base
}

// Reset restarts the count from zero.
func (c *CycleCounter) Reset() {
	c.base = GetTime()
}
