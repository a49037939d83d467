// Package expander drives an MCP23008 8-bit I/O expander through the
// primitives of a polled I2C bus master.
package expander

import (
	"gpioexp/core"

	"periph.io/x/conn/v3/physic"
)

const (
	Address = 0x20

	// I/O Direction Register
	IODIR = 0x00

	// Input Polarity Register
	IPOL = 0x01

	// Interrupt-on-Change Control Register
	GPINTEN = 0x02

	// Default Compare Register for Interrupt-on-Change
	DEFVAL = 0x03

	// Interrupt Control Register
	INTCON = 0x04

	// Configuration Register
	IOCON = 0x05

	// Pullup Resistor Configuration Register
	GPPU = 0x06

	// Interrupt Flag Register
	INTF = 0x07

	// Interrupt Capture Register
	INTCAP = 0x08

	// Port Register
	GPIO = 0x09

	// Output Latch Register
	OLAT = 0x0A
)

// Power-up configuration of the board: GP7..GP4 inputs, GP3..GP0 outputs,
// all outputs driven high.
const (
	InitialDirection = 0b11110000
	InitialOutput    = 0b00001111
)

// Bus is the set of bus master primitives the expander protocol is built on.
// *core.Master implements it.
type Bus interface {
	Configure(rate physic.Frequency) error
	Start() error
	Restart() error
	Send(b byte) error
	Receive() (byte, error)
	Ack(negative bool) error
	Stop() error
	ReleaseBus() error
}

// Config describes how the expander is wired to the host.
type Config struct {
	Rate physic.Frequency // Bus clock, StandardMode when zero
	SDA  core.GPIOPin     // Bus data pad, shared with an analog input
	SCL  core.GPIOPin     // Bus clock pad, shared with an analog input
}

type Device struct {
	bus  Bus
	addr core.I2CAddress
}

// New returns a device on bus at 0x20 | (addressBits & 7).
func New(bus Bus, addressBits uint8) Device {
	return Device{
		bus:  bus,
		addr: core.I2CAddress(Address | (addressBits & 0x7)),
	}
}

// Addr returns the 7-bit device address.
func (d *Device) Addr() core.I2CAddress {
	return d.addr
}

// Initialize brings up the bus pads and the bus master, then programs the
// pin directions and the initial output latch.
func (d *Device) Initialize(cfg Config) error {
	if cfg.Rate == 0 {
		cfg.Rate = core.StandardMode
	}

	gpio := core.MustGPIO()
	if err := gpio.DisableAnalog(cfg.SDA); err != nil {
		return err
	}
	if err := gpio.DisableAnalog(cfg.SCL); err != nil {
		return err
	}

	if err := d.bus.Configure(cfg.Rate); err != nil {
		return err
	}
	if err := d.WriteRegister(IODIR, InitialDirection); err != nil {
		return err
	}
	return d.WriteRegister(OLAT, InitialOutput)
}

// WriteRegister stores data in register reg:
// start, addr+W, reg, data, stop.
func (d *Device) WriteRegister(reg uint8, data byte) error {
	if err := d.bus.Start(); err != nil {
		return d.abort(err)
	}
	if err := d.bus.Send(d.addr.AddressByte(core.I2CWrite)); err != nil {
		return d.abort(err)
	}
	if err := d.bus.Send(reg); err != nil {
		return d.abort(err)
	}
	if err := d.bus.Send(data); err != nil {
		return d.abort(err)
	}
	if err := d.bus.Stop(); err != nil {
		return err
	}

	if core.IsDebugEnabled() {
		core.DebugPrintln("[MCP] write reg=0x" + core.Hex8(reg) + " data=" + core.Bin8(data))
	}
	return nil
}

// ReadRegister returns the content of register reg:
// start, addr+W, reg, restart, addr+R, receive, NACK, stop.
//
// The restart keeps the bus between selecting the register and reading it,
// so the chip's register pointer cannot be disturbed in between.
func (d *Device) ReadRegister(reg uint8) (byte, error) {
	var buf [1]byte
	if err := d.ReadRegisters(reg, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// ReadRegisters reads len(buf) consecutive registers starting at reg. Every
// byte but the last is answered with ACK; the last gets a NACK. Consecutive
// addressing requires IOCON.SEQOP to be clear, which is the chip default.
func (d *Device) ReadRegisters(reg uint8, buf []byte) error {
	if len(buf) == 0 {
		return nil
	}

	if err := d.bus.Start(); err != nil {
		return d.abort(err)
	}
	if err := d.bus.Send(d.addr.AddressByte(core.I2CWrite)); err != nil {
		return d.abort(err)
	}
	if err := d.bus.Send(reg); err != nil {
		return d.abort(err)
	}
	if err := d.bus.Restart(); err != nil {
		return d.abort(err)
	}
	if err := d.bus.Send(d.addr.AddressByte(core.I2CRead)); err != nil {
		return d.abort(err)
	}
	for i := range buf {
		b, err := d.bus.Receive()
		if err != nil {
			return d.abort(err)
		}
		buf[i] = b
		if err := d.bus.Ack(i == len(buf)-1); err != nil {
			return d.abort(err)
		}
	}
	if err := d.bus.Stop(); err != nil {
		return err
	}

	if core.IsDebugEnabled() {
		core.DebugPrintln("[MCP] read reg=0x" + core.Hex8(reg) + " data=" + core.Bin8(buf[0]))
	}
	return nil
}

// PinHigh reports whether pin is set in a GPIO/OLAT register value.
func PinHigh(value byte, pin uint8) bool {
	return value>>(pin&7)&1 == 1
}

// abort closes the half-finished transaction so the bus is idle for the
// next caller, and returns the error that caused it.
func (d *Device) abort(err error) error {
	if rerr := d.bus.ReleaseBus(); rerr != nil {
		core.DebugPrintln("[MCP] bus release failed: " + rerr.Error())
	}
	return err
}
