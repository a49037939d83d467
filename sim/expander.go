package sim

import (
	"gpioexp/core"
)

// MCP23008 register addresses, duplicated here so the simulator does not
// depend on the driver it is used to test.
const (
	regIODIR   = 0x00
	regIPOL    = 0x01
	regGPINTEN = 0x02
	regDEFVAL  = 0x03
	regINTCON  = 0x04
	regIOCON   = 0x05
	regGPPU    = 0x06
	regINTF    = 0x07
	regINTCAP  = 0x08
	regGPIO    = 0x09
	regOLAT    = 0x0A
	numRegs    = 11

	iocon_SEQOP = 1 << 5 // Sequential operation disabled when set
)

// Expander simulates an MCP23008 8-bit I/O expander.
type Expander struct {
	// Silent makes the chip ignore its address, as if unpowered.
	Silent bool

	// RejectWrites makes the chip NACK every data byte.
	RejectWrites bool

	addr   core.I2CAddress
	regs   [numRegs]byte
	ptr    byte
	inputs byte // Levels driven onto the pins from outside

	addressed  bool
	havePtr    bool
	reads      int
	lastAcked  bool
	writeCount int
}

// NewExpander returns a chip in its power-on state at 0x20 | (bits & 7).
func NewExpander(addressBits uint8) *Expander {
	e := &Expander{
		addr:   core.I2CAddress(0x20 | addressBits&0x07),
		inputs: 0xFF, // Floating inputs with pull-ups read high
	}
	e.regs[regIODIR] = 0xFF
	return e
}

// Address implements Device.
func (e *Expander) Address() core.I2CAddress {
	return e.addr
}

// Begin implements Device. A write-direction address expects the register
// pointer as its first data byte; a read continues from the current pointer.
func (e *Expander) Begin(read bool) bool {
	if e.Silent {
		return false
	}
	e.addressed = true
	e.havePtr = read
	return true
}

// Write implements Device.
func (e *Expander) Write(b byte) bool {
	if e.RejectWrites {
		return false
	}
	if !e.havePtr {
		e.ptr = b % numRegs
		e.havePtr = true
		return true
	}

	e.writeCount++
	switch e.ptr {
	case regINTF, regINTCAP:
		// Read-only
	case regGPIO:
		e.regs[regOLAT] = b
	default:
		e.regs[e.ptr] = b
	}
	e.advance()
	return true
}

// Read implements Device.
func (e *Expander) Read() byte {
	e.reads++
	v := e.value(e.ptr)
	e.advance()
	return v
}

// Acked implements Device.
func (e *Expander) Acked(more bool) {
	e.lastAcked = more
}

// End implements Device.
func (e *Expander) End() {
	e.addressed = false
	e.havePtr = false
}

// SetInput drives an external level onto pin.
func (e *Expander) SetInput(pin uint8, high bool) {
	if high {
		e.inputs |= 1 << (pin & 7)
	} else {
		e.inputs &^= 1 << (pin & 7)
	}
}

// Output returns the level the chip drives on pin. Pins configured as
// inputs report false.
func (e *Expander) Output(pin uint8) bool {
	bit := byte(1) << (pin & 7)
	return e.regs[regIODIR]&bit == 0 && e.regs[regOLAT]&bit != 0
}

// Register returns the raw content of a register.
func (e *Expander) Register(reg byte) byte {
	return e.value(reg % numRegs)
}

// Reads returns how many bytes the chip has driven onto the bus.
func (e *Expander) Reads() int {
	return e.reads
}

// DataWrites returns how many data bytes (not register pointers) were written.
func (e *Expander) DataWrites() int {
	return e.writeCount
}

// LastAcked reports whether the last byte read was answered with ACK.
func (e *Expander) LastAcked() bool {
	return e.lastAcked
}

func (e *Expander) value(reg byte) byte {
	if reg == regGPIO {
		iodir := e.regs[regIODIR]
		in := (e.inputs ^ e.regs[regIPOL]) & iodir
		return in | e.regs[regOLAT]&^iodir
	}
	return e.regs[reg]
}

func (e *Expander) advance() {
	if e.regs[regIOCON]&iocon_SEQOP != 0 {
		return
	}
	e.ptr = (e.ptr + 1) % numRegs
}
