//go:build rp2040

package main

import (
	_ "embed"
	"machine"
	"time"

	"gpioexp/config"
	"gpioexp/control"
	"gpioexp/core"
	"gpioexp/expander"
)

//go:embed board.json
var boardJSON []byte

// retryDelay is the pause between failed expander bring-up attempts
const retryDelay = time.Second

func main() {
	// Disable watchdog on boot to clear any previous state
	err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})
	if err != nil {
		return
	}

	InitDebugUART()
	InitClock()

	cfg, cfgErr := config.LoadOrDefault(boardJSON)
	core.SetDebugEnabled(cfg.Debug)
	if cfgErr != nil {
		core.DebugPrintln("[BOOT] bad board config, using defaults: " + cfgErr.Error())
	}

	core.SetGPIODriver(NewRPGPIODriver())

	regs := newSoftI2C(machine.Pin(cfg.Pins.SDA), machine.Pin(cfg.Pins.SCL), cfg.Bus.PeripheralClockHz)
	bus := core.NewMaster(regs, cfg.MasterConfig())
	dev := expander.New(bus, cfg.Expander.AddressBits)

	led, err := core.ConfigureDigitalOut(core.GPIOPin(cfg.Pins.LED), false)
	if err != nil {
		core.DebugPrintln("[BOOT] LED: " + err.Error())
		return
	}
	if _, err := core.ConfigureDigitalIn(core.GPIOPin(cfg.Pins.Button), true); err != nil {
		core.DebugPrintln("[BOOT] button: " + err.Error())
	}

	for {
		state := core.DisableInterrupts()
		err = dev.Initialize(cfg.ExpanderInit())
		core.RestoreInterrupts(state)
		if err == nil {
			break
		}
		core.DebugPrintln("[BOOT] expander init failed: " + err.Error())
		core.DumpBusRing()
		if err := led.Toggle(); err != nil {
			core.DebugPrintln("[BOOT] LED: " + err.Error())
		}
		time.Sleep(retryDelay)
	}
	core.DebugPrintln("[BOOT] expander 0x" + core.Hex8(uint8(dev.Addr())) + " ready")

	control.New(&dev, led, &core.CycleCounter{}, cfg.LoopSettings()).Run()
}
