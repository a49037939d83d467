// Package control runs the firmware's main loop: blink the heartbeat LED on
// the cycle counter and, once per blink, mirror the expander's button onto
// the expander's LED.
package control

import (
	"gpioexp/core"
	"gpioexp/expander"
)

// Expander is the register access the loop needs from the I/O expander.
type Expander interface {
	ReadRegister(reg uint8) (byte, error)
	WriteRegister(reg uint8, data byte) error
}

// Clock is a resettable free-running counter.
type Clock interface {
	Count() uint32
	Reset()
}

// Output latch values. The expander LED sinks current, so driving its pin
// low lights it.
const (
	LEDOn  = 0b00000000
	LEDOff = 0b00000001
)

const (
	// DefaultHalfPeriod is 100 ms of the 24 MHz core timer.
	DefaultHalfPeriod = core.CoreTimerFreq / 10

	DefaultButtonPin   = 7 // GP7, pulled high, low while pressed
	DefaultFaultBlinks = 3
)

// Config holds the loop timing and expander pin assignment.
type Config struct {
	HalfPeriod  uint32 // Clock ticks per LED on (and per LED off) interval
	ButtonPin   uint8  // Expander pin the button is wired to
	FaultBlinks uint8  // Short blinks shown after a failed poll (0 = default)
}

// Loop is the single-threaded control loop. It is not safe for concurrent use.
type Loop struct {
	exp   Expander
	led   *core.DigitalOut
	clock Clock
	cfg   Config

	cycles   uint32
	failures uint32
	lastErr  error
}

// New returns a loop driving led and polling exp.
func New(exp Expander, led *core.DigitalOut, clock Clock, cfg Config) *Loop {
	if cfg.HalfPeriod == 0 {
		cfg.HalfPeriod = DefaultHalfPeriod
	}
	if cfg.FaultBlinks == 0 {
		cfg.FaultBlinks = DefaultFaultBlinks
	}
	return &Loop{
		exp:   exp,
		led:   led,
		clock: clock,
		cfg:   cfg,
	}
}

// Run never returns.
func (l *Loop) Run() {
	l.clock.Reset()
	for {
		l.Cycle()
	}
}

// Cycle runs one blink period followed by one button poll. A failed poll is
// reported, shown on the LED as a burst of short blinks and otherwise
// skipped; the next cycle tries again.
func (l *Loop) Cycle() error {
	l.halfCycle(true, l.cfg.HalfPeriod)
	l.halfCycle(false, l.cfg.HalfPeriod)
	l.cycles++

	err := l.Poll()
	if err != nil {
		l.failures++
		l.lastErr = err
		core.DebugPrintln("[LOOP] poll failed (" + core.Itoa(int(l.failures)) + "): " + err.Error())
		core.DumpBusRing()
		l.faultPattern()
	}
	return err
}

// Poll samples the button once and commands the expander LED to match:
// released (pin high) turns the LED on, pressed turns it off.
func (l *Loop) Poll() error {
	port, err := l.exp.ReadRegister(expander.GPIO)
	if err != nil {
		return err
	}

	out := byte(LEDOff)
	if expander.PinHigh(port, l.cfg.ButtonPin) {
		out = LEDOn
	}
	return l.exp.WriteRegister(expander.OLAT, out)
}

// Cycles returns the number of completed blink periods.
func (l *Loop) Cycles() uint32 {
	return l.cycles
}

// Failures returns the number of failed polls and the most recent error.
func (l *Loop) Failures() (uint32, error) {
	return l.failures, l.lastErr
}

// halfCycle holds the LED at level until the counter reaches ticks, then
// restarts the counter.
func (l *Loop) halfCycle(level bool, ticks uint32) {
	if err := l.led.Set(level); err != nil {
		core.DebugPrintln("[LOOP] LED: " + err.Error())
	}
	for l.clock.Count() < ticks {
	}
	l.clock.Reset()
}

// faultPattern flashes the LED at eight times the normal rate.
func (l *Loop) faultPattern() {
	short := l.cfg.HalfPeriod / 8
	for i := uint8(0); i < l.cfg.FaultBlinks; i++ {
		l.halfCycle(true, short)
		l.halfCycle(false, short)
	}
}
