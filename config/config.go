package config

import (
	"encoding/json"

	"gpioexp/control"
	"gpioexp/core"
	"gpioexp/expander"

	"periph.io/x/conn/v3/physic"
)

// PinConfig is the pin assignment of the host MCU. On PIC32 parts pins are
// numbered port*16 + bit, so RA4 is 4 and RB2 is 18.
type PinConfig struct {
	SDA    uint32 // Bus data pad
	SCL    uint32 // Bus clock pad
	LED    uint32 // Directly driven heartbeat LED
	Button uint32 // Button read directly by the MCU
}

// BusConfig describes the I2C master
type BusConfig struct {
	RateHz            uint32 // Bus clock in Hz
	PeripheralClockHz uint32 // Clock feeding the baud rate generator
	SpinLimit         int    // Max polls per hardware flag
}

// ExpanderConfig describes the I/O expander wiring
type ExpanderConfig struct {
	AddressBits uint8 // A2..A0 straps
	ButtonPin   uint8 // Expander pin with the button
}

// LoopConfig describes the control loop timing
type LoopConfig struct {
	TimerHz     uint32 // Rate of the free-running counter
	HalfPeriod  uint32 // Counter ticks per LED half-cycle
	FaultBlinks uint8  // Short blinks after a failed poll
}

// BoardConfig represents the complete board configuration
type BoardConfig struct {
	Pins     PinConfig
	Bus      BusConfig
	Expander ExpanderConfig
	Loop     LoopConfig
	Debug    bool // Enable debug output at boot
}

// LoadConfig parses a JSON configuration string and returns a BoardConfig
func LoadConfig(jsonData []byte) (*BoardConfig, error) {
	config := BoardConfig{
		Expander: ExpanderConfig{ButtonPin: control.DefaultButtonPin},
	}

	err := json.Unmarshal(jsonData, &config)
	if err != nil {
		return nil, err
	}

	// Apply defaults
	applyDefaults(&config)

	return &config, nil
}

// LoadOrDefault parses jsonData, falling back to DefaultBoardConfig with
// debug output switched on when it cannot be parsed, so the parse error can
// still be reported. The parse error is returned alongside the fallback.
func LoadOrDefault(jsonData []byte) (*BoardConfig, error) {
	config, err := LoadConfig(jsonData)
	if err != nil {
		config = DefaultBoardConfig()
		config.Debug = true
	}
	return config, err
}

// applyDefaults fills in missing configuration values with sensible defaults
func applyDefaults(config *BoardConfig) {
	if config.Bus.RateHz == 0 {
		config.Bus.RateHz = 100000 // Standard mode
	}
	if config.Bus.PeripheralClockHz == 0 {
		config.Bus.PeripheralClockHz = 48000000
	}
	if config.Bus.SpinLimit == 0 {
		config.Bus.SpinLimit = core.DefaultSpinLimit
	}

	if config.Loop.TimerHz == 0 {
		config.Loop.TimerHz = core.CoreTimerFreq
	}
	if config.Loop.HalfPeriod == 0 {
		// 100 ms whatever the counter rate
		config.Loop.HalfPeriod = config.Loop.TimerHz / 10
	}
	if config.Loop.FaultBlinks == 0 {
		config.Loop.FaultBlinks = control.DefaultFaultBlinks
	}

	config.Expander.AddressBits &= 0x07
	config.Expander.ButtonPin &= 0x07
}

// DefaultBoardConfig returns the configuration of the reference board:
// expander on RB2/RB3, heartbeat LED on RA4, button on RB4.
func DefaultBoardConfig() *BoardConfig {
	return &BoardConfig{
		Pins: PinConfig{
			SDA:    18, // RB2
			SCL:    19, // RB3
			LED:    4,  // RA4
			Button: 20, // RB4
		},
		Bus: BusConfig{
			RateHz:            100000,
			PeripheralClockHz: 48000000,
			SpinLimit:         core.DefaultSpinLimit,
		},
		Expander: ExpanderConfig{
			AddressBits: 0,
			ButtonPin:   control.DefaultButtonPin,
		},
		Loop: LoopConfig{
			TimerHz:     core.CoreTimerFreq,
			HalfPeriod:  core.CoreTimerFreq / 10,
			FaultBlinks: control.DefaultFaultBlinks,
		},
	}
}

// MasterConfig converts the bus section for core.NewMaster
func (c *BoardConfig) MasterConfig() core.MasterConfig {
	return core.MasterConfig{
		PeripheralClock: physic.Frequency(c.Bus.PeripheralClockHz) * physic.Hertz,
		SpinLimit:       c.Bus.SpinLimit,
	}
}

// ExpanderInit converts the bus and pin sections for expander.Initialize
func (c *BoardConfig) ExpanderInit() expander.Config {
	return expander.Config{
		Rate: physic.Frequency(c.Bus.RateHz) * physic.Hertz,
		SDA:  core.GPIOPin(c.Pins.SDA),
		SCL:  core.GPIOPin(c.Pins.SCL),
	}
}

// LoopSettings converts the loop section for control.New
func (c *BoardConfig) LoopSettings() control.Config {
	return control.Config{
		HalfPeriod:  c.Loop.HalfPeriod,
		ButtonPin:   c.Expander.ButtonPin,
		FaultBlinks: c.Loop.FaultBlinks,
	}
}
