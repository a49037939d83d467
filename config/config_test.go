package config

import (
	"testing"

	"gpioexp/core"

	"periph.io/x/conn/v3/physic"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig([]byte(`{"Pins": {"SDA": 18, "SCL": 19, "LED": 4}}`))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Bus.RateHz != 100000 {
		t.Errorf("Expected default rate 100000, got %d", cfg.Bus.RateHz)
	}
	if cfg.Bus.SpinLimit != core.DefaultSpinLimit {
		t.Errorf("Expected default spin limit, got %d", cfg.Bus.SpinLimit)
	}
	if cfg.Loop.HalfPeriod != 2400000 {
		t.Errorf("Expected half period 2400000, got %d", cfg.Loop.HalfPeriod)
	}
	if cfg.Expander.ButtonPin != 7 {
		t.Errorf("Expected button on GP7, got %d", cfg.Expander.ButtonPin)
	}
	if cfg.Debug {
		t.Error("Debug should default to off")
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	data := []byte(`{
		"Bus": {"RateHz": 400000},
		"Expander": {"AddressBits": 9, "ButtonPin": 0},
		"Loop": {"TimerHz": 1000000},
		"Debug": true
	}`)
	cfg, err := LoadConfig(data)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Expander.AddressBits != 1 {
		t.Errorf("Expected address bits masked to 1, got %d", cfg.Expander.AddressBits)
	}
	if cfg.Expander.ButtonPin != 0 {
		t.Errorf("Expected explicit GP0, got %d", cfg.Expander.ButtonPin)
	}
	if cfg.Loop.HalfPeriod != 100000 {
		t.Errorf("Expected 100 ms at 1 MHz, got %d", cfg.Loop.HalfPeriod)
	}

	ei := cfg.ExpanderInit()
	if ei.Rate != 400*physic.KiloHertz {
		t.Errorf("Expected 400kHz, got %v", ei.Rate)
	}
	if !cfg.Debug {
		t.Error("Debug should be on")
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	if _, err := LoadConfig([]byte(`{"Bus": `)); err == nil {
		t.Error("Expected error for truncated JSON")
	}
}

func TestDefaultBoardConfig(t *testing.T) {
	cfg := DefaultBoardConfig()

	mc := cfg.MasterConfig()
	if mc.PeripheralClock != core.DefaultPeripheralClock {
		t.Errorf("Expected 48MHz peripheral clock, got %v", mc.PeripheralClock)
	}
	brg, err := core.BaudRateDivisor(cfg.ExpanderInit().Rate, mc.PeripheralClock)
	if err != nil || brg != 233 {
		t.Errorf("Expected BRG 233, got %d (%v)", brg, err)
	}

	ei := cfg.ExpanderInit()
	if ei.SDA != 18 || ei.SCL != 19 {
		t.Errorf("Expected bus on RB2/RB3, got %d/%d", ei.SDA, ei.SCL)
	}

	loop := cfg.LoopSettings()
	if loop.HalfPeriod != core.CoreTimerFreq/10 || loop.ButtonPin != 7 || loop.FaultBlinks != 3 {
		t.Errorf("Unexpected loop settings %+v", loop)
	}
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault([]byte(`{"Bus": `))
	if err == nil {
		t.Error("Expected the parse error to be returned")
	}
	if cfg == nil || !cfg.Debug {
		t.Fatal("Fallback config should have debug output on")
	}
	if cfg.Pins.SDA != DefaultBoardConfig().Pins.SDA {
		t.Errorf("Expected default pins, got %+v", cfg.Pins)
	}

	cfg, err = LoadOrDefault([]byte(`{"Debug": false}`))
	if err != nil {
		t.Fatalf("LoadOrDefault failed: %v", err)
	}
	if cfg.Debug {
		t.Error("Valid config should keep debug off")
	}
}
