package sim

import (
	"errors"

	"gpioexp/core"
)

// PinMode is the configuration recorded for a simulated pin.
type PinMode uint8

const (
	PinUnconfigured PinMode = iota
	PinOutput
	PinInput
	PinInputPullUp
)

// GPIO is a simulated core.GPIODriver. It records pin modes, levels and
// every level written so tests can inspect blink patterns.
type GPIO struct {
	modes   map[core.GPIOPin]PinMode
	levels  map[core.GPIOPin]bool
	digital map[core.GPIOPin]bool
	history map[core.GPIOPin][]bool
}

// NewGPIO returns a driver with every pin unconfigured and low.
func NewGPIO() *GPIO {
	return &GPIO{
		modes:   make(map[core.GPIOPin]PinMode),
		levels:  make(map[core.GPIOPin]bool),
		digital: make(map[core.GPIOPin]bool),
		history: make(map[core.GPIOPin][]bool),
	}
}

var errNotOutput = errors.New("sim: pin is not configured as output")

func (g *GPIO) ConfigureOutput(pin core.GPIOPin) error {
	g.modes[pin] = PinOutput
	return nil
}

func (g *GPIO) ConfigureInput(pin core.GPIOPin) error {
	g.modes[pin] = PinInput
	return nil
}

func (g *GPIO) ConfigureInputPullUp(pin core.GPIOPin) error {
	g.modes[pin] = PinInputPullUp
	g.levels[pin] = true
	return nil
}

func (g *GPIO) DisableAnalog(pin core.GPIOPin) error {
	g.digital[pin] = true
	return nil
}

func (g *GPIO) SetPin(pin core.GPIOPin, value bool) error {
	if g.modes[pin] != PinOutput {
		return errNotOutput
	}
	g.levels[pin] = value
	g.history[pin] = append(g.history[pin], value)
	return nil
}

func (g *GPIO) GetPin(pin core.GPIOPin) (bool, error) {
	return g.levels[pin], nil
}

// Drive sets the external level seen on an input pin.
func (g *GPIO) Drive(pin core.GPIOPin, value bool) {
	g.levels[pin] = value
}

// Mode returns the recorded configuration of pin.
func (g *GPIO) Mode(pin core.GPIOPin) PinMode {
	return g.modes[pin]
}

// IsDigital reports whether DisableAnalog was called for pin.
func (g *GPIO) IsDigital(pin core.GPIOPin) bool {
	return g.digital[pin]
}

// History returns every level written to pin, oldest first.
func (g *GPIO) History(pin core.GPIOPin) []bool {
	return g.history[pin]
}

// ClearHistory forgets the levels written so far.
func (g *GPIO) ClearHistory() {
	g.history = make(map[core.GPIOPin][]bool)
}
