// Directly driven digital outputs
package core

// DigitalOut flags
const (
	DF_ON         = 1 << 0 // Current pin state (1=high, 0=low)
	DF_DEFAULT_ON = 1 << 1 // Initial state given at configuration
)

// DigitalOut is a GPIO output pin driven straight from the firmware,
// such as the heartbeat LED.
type DigitalOut struct {
	Pin   GPIOPin // Hardware pin
	Flags uint8   // State flags (DF_*)
}

// ConfigureDigitalOut configures pin as an output and drives its initial value
func ConfigureDigitalOut(pin GPIOPin, value bool) (*DigitalOut, error) {
	dout := &DigitalOut{Pin: pin}
	if value {
		dout.Flags |= DF_DEFAULT_ON
	}

	if err := MustGPIO().ConfigureOutput(pin); err != nil {
		return nil, err
	}
	if err := dout.Set(value); err != nil {
		return nil, err
	}
	return dout, nil
}

// Set drives the pin and records the new state
func (d *DigitalOut) Set(value bool) error {
	if err := MustGPIO().SetPin(d.Pin, value); err != nil {
		return err
	}
	if value {
		d.Flags |= DF_ON
	} else {
		d.Flags &^= DF_ON
	}
	return nil
}

// Toggle inverts the pin
func (d *DigitalOut) Toggle() error {
	return d.Set(!d.IsOn())
}

// IsOn reports the last driven state
func (d *DigitalOut) IsOn() bool {
	return d.Flags&DF_ON != 0
}

// DigitalIn is a GPIO input read straight from the firmware.
type DigitalIn struct {
	Pin GPIOPin
}

// ConfigureDigitalIn configures pin as an input, optionally with a pull-up
func ConfigureDigitalIn(pin GPIOPin, pullUp bool) (*DigitalIn, error) {
	var err error
	if pullUp {
		err = MustGPIO().ConfigureInputPullUp(pin)
	} else {
		err = MustGPIO().ConfigureInput(pin)
	}
	if err != nil {
		return nil, err
	}
	return &DigitalIn{Pin: pin}, nil
}

// Read returns the current pin level
func (d *DigitalIn) Read() (bool, error) {
	return MustGPIO().GetPin(d.Pin)
}
