// Polled I2C bus master
// Drives an I2Cx-style register block one primitive at a time. Every
// primitive is a register write followed by a bounded busy-wait on a
// hardware-cleared flag; nothing here relies on interrupts.
package core

import (
	"periph.io/x/conn/v3/physic"
)

// BusPhase is the position of the master in the current transaction.
type BusPhase uint8

const (
	BusIdle       BusPhase = iota // No transaction open
	BusAddress                    // After start/restart, address byte expected
	BusWrite                      // Addressed for write, data bytes go out
	BusRead                       // Addressed for read, next byte may be received
	BusAckPending                 // Byte received, master must ACK or NACK
	BusReadDone                   // NACK sent, only restart or stop allowed
)

func (p BusPhase) String() string {
	switch p {
	case BusIdle:
		return "idle"
	case BusAddress:
		return "address"
	case BusWrite:
		return "write"
	case BusRead:
		return "read"
	case BusAckPending:
		return "ack-pending"
	case BusReadDone:
		return "read-done"
	}
	return "unknown"
}

const (
	// StandardMode is the 100 kHz bus rate used by the expander board.
	StandardMode = 100 * physic.KiloHertz

	// DefaultPeripheralClock is the PIC32 peripheral bus clock (SYSCLK/1).
	DefaultPeripheralClock = 48 * physic.MegaHertz

	// DefaultSpinLimit bounds every busy-wait on a hardware flag.
	DefaultSpinLimit = 100000

	// pulseGobblerNS is the PGD term of the baud rate formula.
	pulseGobblerNS = 104
)

// MasterConfig holds the static parameters of the bus master.
type MasterConfig struct {
	PeripheralClock physic.Frequency // Clock feeding the baud rate generator
	SpinLimit       int              // Max polls per hardware flag (0 = default)
}

// Master is the polled I2C bus master protocol engine.
//
// It owns the register-level sequencing of one I2C peripheral. All methods
// block until the hardware reports completion or SpinLimit polls elapse.
type Master struct {
	regs    I2CRegisters
	cfg     MasterConfig
	phase   BusPhase
	rate    physic.Frequency
	enabled bool
}

// NewMaster wraps a register block. Configure must be called before use.
func NewMaster(regs I2CRegisters, cfg MasterConfig) *Master {
	if cfg.PeripheralClock == 0 {
		cfg.PeripheralClock = DefaultPeripheralClock
	}
	if cfg.SpinLimit <= 0 {
		cfg.SpinLimit = DefaultSpinLimit
	}
	return &Master{
		regs: regs,
		cfg:  cfg,
	}
}

// BaudRateDivisor computes the I2CxBRG reload value for a bus rate:
//
//	BRG = (1/(2*Fsck) - PGD) * Fpb - 2
func BaudRateDivisor(rate, peripheralClock physic.Frequency) (uint32, error) {
	rateHz := int64(rate / physic.Hertz)
	pbHz := int64(peripheralClock / physic.Hertz)
	if rateHz <= 0 || pbHz <= 0 {
		return 0, ErrInvalidRate
	}

	halfPeriodNS := 1000000000 / (2 * rateHz)
	if halfPeriodNS <= pulseGobblerNS {
		return 0, ErrInvalidRate
	}

	brg := (halfPeriodNS-pulseGobblerNS)*pbHz/1000000000 - 2
	if brg < 0 || brg > BRGMax {
		return 0, ErrInvalidRate
	}
	return uint32(brg), nil
}

// Configure programs the baud rate generator and enables the module.
func (m *Master) Configure(rate physic.Frequency) error {
	brg, err := BaudRateDivisor(rate, m.cfg.PeripheralClock)
	if err != nil {
		return err
	}

	m.regs.SetBRG(brg)
	m.regs.SetCON(CON_ON)
	m.rate = rate
	m.enabled = true
	m.phase = BusIdle

	DebugPrintln("[I2C] enabled rate=" + utoa(uint32(rate/physic.Hertz)) + "Hz brg=" + utoa(brg))
	return nil
}

// Rate returns the configured bus rate, or 0 before Configure.
func (m *Master) Rate() physic.Frequency {
	return m.rate
}

// Phase returns the current transaction phase.
func (m *Master) Phase() BusPhase {
	return m.phase
}

// Start issues a start condition. The bus must be idle.
func (m *Master) Start() error {
	if !m.enabled || m.phase != BusIdle {
		return m.fail(EvtStart, "start", 0, ErrBusState)
	}

	m.regs.SetCON(CON_SEN)
	// The start may already be on the wire, so a stop is owed from here on.
	m.phase = BusAddress
	if err := m.waitCONClear(CON_SEN); err != nil {
		return m.fail(EvtStart, "start", 0, err)
	}

	RecordBusEvent(EvtStart, 0, ResultOK)
	return nil
}

// Restart issues a repeated start inside an open transaction. A received
// byte must be answered with Ack first.
func (m *Master) Restart() error {
	if m.phase == BusIdle || m.phase == BusAckPending {
		return m.fail(EvtRestart, "restart", 0, ErrBusState)
	}

	m.regs.SetCON(CON_RSEN)
	if err := m.waitCONClear(CON_RSEN); err != nil {
		return m.fail(EvtRestart, "restart", 0, err)
	}

	m.phase = BusAddress
	RecordBusEvent(EvtRestart, 0, ResultOK)
	return nil
}

// Send clocks out one byte and checks that the receiver acknowledged it.
// In the address phase b is the address byte and its low bit selects the
// direction of the rest of the transaction.
func (m *Master) Send(b byte) error {
	var next BusPhase
	switch m.phase {
	case BusAddress:
		if b&0x01 == I2CRead {
			next = BusRead
		} else {
			next = BusWrite
		}
	case BusWrite:
		next = BusWrite
	default:
		return m.fail(EvtSend, "send", b, ErrBusState)
	}

	m.regs.WriteTRN(b)
	if err := m.waitSTAT(STAT_TRSTAT, false); err != nil {
		return m.fail(EvtSend, "send", b, err)
	}
	if m.regs.STAT()&STAT_ACKSTAT != 0 {
		return m.fail(EvtSend, "send", b, ErrNoAcknowledgment)
	}

	m.phase = next
	RecordBusEvent(EvtSend, b, ResultOK)
	return nil
}

// Receive clocks in one byte from the addressed slave. The caller must
// follow up with Ack.
func (m *Master) Receive() (byte, error) {
	if m.phase != BusRead {
		return 0, m.fail(EvtReceive, "receive", 0, ErrBusState)
	}

	m.regs.SetCON(CON_RCEN)
	if err := m.waitSTAT(STAT_RBF, true); err != nil {
		return 0, m.fail(EvtReceive, "receive", 0, err)
	}
	b := m.regs.ReadRCV()

	m.phase = BusAckPending
	RecordBusEvent(EvtReceive, b, ResultOK)
	return b, nil
}

// Ack answers the byte just received. Ack(false) asks the slave for another
// byte; Ack(true) sends a NACK meaning no more bytes are wanted.
func (m *Master) Ack(negative bool) error {
	evt := uint8(EvtAck)
	if negative {
		evt = EvtNack
	}
	if m.phase != BusAckPending {
		return m.fail(evt, "ack", 0, ErrBusState)
	}

	if negative {
		m.regs.SetCON(CON_ACKDT)
	} else {
		m.regs.ClearCON(CON_ACKDT)
	}
	m.regs.SetCON(CON_ACKEN)
	if err := m.waitCONClear(CON_ACKEN); err != nil {
		return m.fail(evt, "ack", 0, err)
	}

	if negative {
		m.phase = BusReadDone
	} else {
		m.phase = BusRead
	}
	RecordBusEvent(evt, 0, ResultOK)
	return nil
}

// Stop issues a stop condition and releases the bus. A received byte must
// be answered with Ack first.
func (m *Master) Stop() error {
	if m.phase == BusIdle || m.phase == BusAckPending {
		return m.fail(EvtStop, "stop", 0, ErrBusState)
	}

	m.regs.SetCON(CON_PEN)
	// Nothing more can be done for this transaction once the stop was
	// requested, so the engine treats the bus as idle either way.
	m.phase = BusIdle
	if err := m.waitCONClear(CON_PEN); err != nil {
		return m.fail(EvtStop, "stop", 0, err)
	}

	RecordBusEvent(EvtStop, 0, ResultOK)
	return nil
}

// ReleaseBus closes any open transaction with a stop. It is the abort path
// after a failed primitive and is a no-op on an idle bus. A byte still
// waiting for its acknowledgment is NACKed before the stop.
func (m *Master) ReleaseBus() error {
	switch m.phase {
	case BusIdle:
		return nil
	case BusAckPending:
		if err := m.Ack(true); err != nil {
			// The NACK may be partly on the wire; the stop is still owed.
			m.phase = BusReadDone
			if serr := m.Stop(); serr != nil {
				return serr
			}
			return err
		}
	}
	return m.Stop()
}

// waitCONClear spins until every bit of mask reads back as zero.
func (m *Master) waitCONClear(mask uint32) error {
	for i := 0; i < m.cfg.SpinLimit; i++ {
		if m.regs.CON()&mask == 0 {
			return nil
		}
	}
	return ErrBusTimeout
}

// waitSTAT spins until the bits of mask are all set (set=true) or all clear.
func (m *Master) waitSTAT(mask uint32, set bool) error {
	want := uint32(0)
	if set {
		want = mask
	}
	for i := 0; i < m.cfg.SpinLimit; i++ {
		if m.regs.STAT()&mask == want {
			return nil
		}
	}
	return ErrBusTimeout
}

func (m *Master) fail(evt uint8, op string, b byte, err error) error {
	RecordBusEvent(evt, b, resultFor(err))
	return &BusError{Op: op, Byte: b, Err: err}
}
