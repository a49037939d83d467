// Package sim provides a simulated I2Cx register block and simulated slave
// devices so the bus engine and expander code run without hardware.
package sim

import (
	"fmt"

	"gpioexp/core"
)

// Device is a simulated I2C slave attached to a Bus.
type Device interface {
	// Address returns the 7-bit address the device answers on.
	Address() core.I2CAddress

	// Begin is called when the device is addressed. It returns false to
	// withhold the acknowledgment.
	Begin(read bool) bool

	// Write delivers a data byte and returns whether it is acknowledged.
	Write(b byte) bool

	// Read returns the next byte the device drives onto the bus.
	Read() byte

	// Acked reports the master's answer to the last byte read.
	Acked(more bool)

	// End is called on stop, or on a restart that readdresses the bus.
	End()
}

// EventKind identifies one entry of the bus transcript.
type EventKind uint8

const (
	EvStart EventKind = iota
	EvRestart
	EvWrite
	EvRead
	EvAck
	EvNack
	EvStop
)

func (k EventKind) String() string {
	switch k {
	case EvStart:
		return "START"
	case EvRestart:
		return "RESTART"
	case EvWrite:
		return "WRITE"
	case EvRead:
		return "READ"
	case EvAck:
		return "ACK"
	case EvNack:
		return "NACK"
	case EvStop:
		return "STOP"
	}
	return "?"
}

// Event is one entry of the bus transcript.
type Event struct {
	Kind  EventKind
	Byte  byte
	Acked bool // For EvWrite: whether the receiver acknowledged
}

func (e Event) String() string {
	switch e.Kind {
	case EvWrite:
		return fmt.Sprintf("WRITE %#02x ack=%v", e.Byte, e.Acked)
	case EvRead:
		return fmt.Sprintf("READ %#02x", e.Byte)
	}
	return e.Kind.String()
}

type busState uint8

const (
	stIdle busState = iota
	stAddress
	stWrite
	stRead
	stReadDone
)

// Bus simulates the register block of a polled I2C master together with
// the wire and the slaves on it. It implements core.I2CRegisters.
type Bus struct {
	// Latency is the number of CON/STAT polls a bus action stays busy.
	Latency int

	// StuckCON holds control trigger bits that never clear.
	StuckCON uint32

	// HoldTransmit keeps TRSTAT set forever.
	HoldTransmit bool

	// HoldReceive keeps RBF clear forever.
	HoldReceive bool

	// Events is the transcript of everything that reached the wire.
	Events []Event

	// Violations lists protocol errors observed on the wire.
	Violations []string

	con, stat uint32
	brg       uint32
	rcv       byte

	busyCON  uint32 // Trigger bits still counting down
	setSTAT  uint32 // Status bits to set once the countdown ends
	busySTAT uint32 // Status bits to clear once the countdown ends
	wait     int

	devices    []Device
	active     Device
	state      busState
	awaitAck   bool
	readsTotal int
}

// NewBus returns an idle simulated bus with the given slaves attached.
func NewBus(devices ...Device) *Bus {
	return &Bus{devices: devices}
}

// Attach adds a slave to the bus.
func (b *Bus) Attach(d Device) {
	b.devices = append(b.devices, d)
}

// BRG returns the last baud rate generator value written.
func (b *Bus) BRG() uint32 {
	return b.brg
}

// Enabled reports whether the module ON bit is set.
func (b *Bus) Enabled() bool {
	return b.con&core.CON_ON != 0
}

// Idle reports whether no transaction is open on the wire.
func (b *Bus) Idle() bool {
	return b.state == stIdle
}

// Reset clears the transcript and violations, keeping configuration.
func (b *Bus) Reset() {
	b.Events = nil
	b.Violations = nil
}

// Written returns the bytes written on the wire in order.
func (b *Bus) Written() []byte {
	var out []byte
	for _, e := range b.Events {
		if e.Kind == EvWrite {
			out = append(out, e.Byte)
		}
	}
	return out
}

// Count returns how many transcript entries are of kind k.
func (b *Bus) Count(k EventKind) int {
	n := 0
	for _, e := range b.Events {
		if e.Kind == k {
			n++
		}
	}
	return n
}

// CON implements core.I2CRegisters.
func (b *Bus) CON() uint32 {
	b.settle()
	return b.con
}

// STAT implements core.I2CRegisters.
func (b *Bus) STAT() uint32 {
	b.settle()
	return b.stat
}

// SetBRG implements core.I2CRegisters.
func (b *Bus) SetBRG(brg uint32) {
	b.brg = brg
}

// ClearCON implements core.I2CRegisters. Only ACKDT and ON are writable
// as zero; trigger bits are cleared by the simulated hardware.
func (b *Bus) ClearCON(mask uint32) {
	b.con &^= mask & (core.CON_ACKDT | core.CON_ON)
}

// SetCON implements core.I2CRegisters.
func (b *Bus) SetCON(mask uint32) {
	b.con |= mask
	if mask&core.CON_ON != 0 {
		b.state = stIdle
	}
	if mask&core.CON_SEN != 0 {
		b.start()
	}
	if mask&core.CON_RSEN != 0 {
		b.restart()
	}
	if mask&core.CON_RCEN != 0 {
		b.receive()
	}
	if mask&core.CON_ACKEN != 0 {
		b.ack()
	}
	if mask&core.CON_PEN != 0 {
		b.stop()
	}
}

// WriteTRN implements core.I2CRegisters.
func (b *Bus) WriteTRN(v byte) {
	if !b.Enabled() {
		b.violation("TRN written while module disabled")
		return
	}

	acked := false
	switch b.state {
	case stAddress:
		addr := core.I2CAddress(v >> 1)
		read := v&0x01 == core.I2CRead
		for _, d := range b.devices {
			if d.Address() == addr {
				if d.Begin(read) {
					acked = true
					b.active = d
				}
				break
			}
		}
		if acked {
			if read {
				b.state = stRead
			} else {
				b.state = stWrite
			}
		}
	case stWrite:
		acked = b.active.Write(v)
	case stIdle:
		b.violation(fmt.Sprintf("byte %#02x sent outside a transaction", v))
	default:
		b.violation(fmt.Sprintf("byte %#02x sent while addressed for read", v))
	}

	b.Events = append(b.Events, Event{Kind: EvWrite, Byte: v, Acked: acked})
	if acked {
		b.stat &^= core.STAT_ACKSTAT
	} else {
		b.stat |= core.STAT_ACKSTAT
	}
	b.stat |= core.STAT_TRSTAT
	b.busy(0, 0, core.STAT_TRSTAT)
}

// ReadRCV implements core.I2CRegisters.
func (b *Bus) ReadRCV() byte {
	b.stat &^= core.STAT_RBF
	return b.rcv
}

// ReadCount returns how many bytes slaves have driven onto the bus.
func (b *Bus) ReadCount() int {
	return b.readsTotal
}

func (b *Bus) start() {
	if !b.Enabled() {
		b.violation("start while module disabled")
	}
	if b.state != stIdle {
		b.violation("start inside an open transaction")
	}
	b.state = stAddress
	b.awaitAck = false
	b.Events = append(b.Events, Event{Kind: EvStart})
	b.busy(core.CON_SEN, 0, 0)
}

func (b *Bus) restart() {
	if b.state == stIdle {
		b.violation("restart outside a transaction")
	}
	if b.active != nil {
		b.active.End()
		b.active = nil
	}
	b.state = stAddress
	b.awaitAck = false
	b.Events = append(b.Events, Event{Kind: EvRestart})
	b.busy(core.CON_RSEN, 0, 0)
}

func (b *Bus) receive() {
	switch {
	case b.state == stReadDone:
		b.violation("receive after NACK")
	case b.state != stRead:
		b.violation("receive while not addressed for read")
	case b.awaitAck:
		b.violation("receive before previous byte was acknowledged")
	}

	var v byte = 0xFF // Released bus reads as all ones
	if b.active != nil && b.state != stIdle {
		v = b.active.Read()
		b.readsTotal++
	}
	b.rcv = v
	b.awaitAck = true
	b.Events = append(b.Events, Event{Kind: EvRead, Byte: v})
	if b.HoldReceive {
		b.busy(core.CON_RCEN, 0, 0)
		return
	}
	b.busy(core.CON_RCEN, core.STAT_RBF, 0)
}

func (b *Bus) ack() {
	nack := b.con&core.CON_ACKDT != 0
	if !b.awaitAck {
		b.violation("acknowledge without a received byte")
	}
	b.awaitAck = false
	if b.active != nil {
		b.active.Acked(!nack)
	}
	if nack {
		b.state = stReadDone
		b.Events = append(b.Events, Event{Kind: EvNack})
	} else {
		b.Events = append(b.Events, Event{Kind: EvAck})
	}
	b.busy(core.CON_ACKEN, 0, 0)
}

func (b *Bus) stop() {
	if b.state == stIdle {
		b.violation("stop on an idle bus")
	}
	if b.state == stRead && b.awaitAck {
		b.violation("stop before the last byte was acknowledged")
	}
	if b.active != nil {
		b.active.End()
		b.active = nil
	}
	b.state = stIdle
	b.awaitAck = false
	b.Events = append(b.Events, Event{Kind: EvStop})
	b.busy(core.CON_PEN, 0, 0)
}

// busy arms the countdown after which trigger bits clear and status bits
// settle.
func (b *Bus) busy(con, setStat, clearStat uint32) {
	b.busyCON |= con
	b.setSTAT |= setStat
	b.busySTAT |= clearStat
	b.wait = b.Latency
	b.settle()
}

func (b *Bus) settle() {
	if b.wait > 0 {
		b.wait--
		return
	}

	b.con &^= b.busyCON &^ b.StuckCON
	b.busyCON &= b.StuckCON
	b.stat |= b.setSTAT
	b.setSTAT = 0
	if !b.HoldTransmit {
		b.stat &^= b.busySTAT
		b.busySTAT = 0
	}
}

func (b *Bus) violation(msg string) {
	b.Violations = append(b.Violations, msg)
}
