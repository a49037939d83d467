package core

import (
	"errors"
	"testing"

	"periph.io/x/conn/v3/physic"
)

// fakeRegs is a register block whose trigger bits clear immediately unless
// listed in stuck.
type fakeRegs struct {
	con, stat uint32
	brg       uint32
	stuck     uint32
	nack      bool
	rx        byte
	trn       []byte
}

const triggerBits = CON_SEN | CON_RSEN | CON_PEN | CON_RCEN | CON_ACKEN

func (f *fakeRegs) CON() uint32          { return f.con }
func (f *fakeRegs) ClearCON(mask uint32) { f.con &^= mask }
func (f *fakeRegs) STAT() uint32         { return f.stat }
func (f *fakeRegs) SetBRG(brg uint32)    { f.brg = brg }

func (f *fakeRegs) SetCON(mask uint32) {
	f.con |= mask
	if mask&CON_RCEN != 0 {
		f.stat |= STAT_RBF
	}
	f.con &^= mask & triggerBits &^ f.stuck
}

func (f *fakeRegs) WriteTRN(b byte) {
	f.trn = append(f.trn, b)
	if f.nack {
		f.stat |= STAT_ACKSTAT
	} else {
		f.stat &^= STAT_ACKSTAT
	}
}

func (f *fakeRegs) ReadRCV() byte {
	f.stat &^= STAT_RBF
	return f.rx
}

func newTestMaster(t *testing.T, regs *fakeRegs) *Master {
	t.Helper()
	m := NewMaster(regs, MasterConfig{SpinLimit: 50})
	if err := m.Configure(StandardMode); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}
	return m
}

func TestBaudRateDivisor(t *testing.T) {
	testCases := []struct {
		name string
		rate physic.Frequency
		want uint32
	}{
		{"standard mode", 100 * physic.KiloHertz, 233},
		{"fast mode", 400 * physic.KiloHertz, 53},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			brg, err := BaudRateDivisor(tc.rate, DefaultPeripheralClock)
			if err != nil {
				t.Fatalf("BaudRateDivisor failed: %v", err)
			}
			if brg != tc.want {
				t.Errorf("Expected BRG %d, got %d", tc.want, brg)
			}
		})
	}

	invalid := []physic.Frequency{0, physic.KiloHertz, 10 * physic.MegaHertz}
	for _, rate := range invalid {
		if _, err := BaudRateDivisor(rate, DefaultPeripheralClock); err != ErrInvalidRate {
			t.Errorf("Expected ErrInvalidRate for %d, got %v", rate, err)
		}
	}
}

func TestConfigureEnablesModule(t *testing.T) {
	regs := &fakeRegs{}
	m := newTestMaster(t, regs)

	if regs.brg != 233 {
		t.Errorf("Expected BRG 233, got %d", regs.brg)
	}
	if regs.con&CON_ON == 0 {
		t.Error("Module ON bit not set")
	}
	if m.Rate() != StandardMode {
		t.Errorf("Expected rate %v, got %v", StandardMode, m.Rate())
	}
	if m.Phase() != BusIdle {
		t.Errorf("Expected idle bus, got %v", m.Phase())
	}
}

func TestStartBeforeConfigure(t *testing.T) {
	m := NewMaster(&fakeRegs{}, MasterConfig{})
	if err := m.Start(); !errors.Is(err, ErrBusState) {
		t.Errorf("Expected ErrBusState, got %v", err)
	}
}

func TestPhaseTransitions(t *testing.T) {
	regs := &fakeRegs{rx: 0x5A}
	m := newTestMaster(t, regs)

	steps := []struct {
		name string
		op   func() error
		want BusPhase
	}{
		{"start", m.Start, BusAddress},
		{"address write", func() error { return m.Send(0x40) }, BusWrite},
		{"register", func() error { return m.Send(0x09) }, BusWrite},
		{"restart", m.Restart, BusAddress},
		{"address read", func() error { return m.Send(0x41) }, BusRead},
		{"receive", func() error { _, err := m.Receive(); return err }, BusAckPending},
		{"ack", func() error { return m.Ack(false) }, BusRead},
		{"receive again", func() error { _, err := m.Receive(); return err }, BusAckPending},
		{"nack", func() error { return m.Ack(true) }, BusReadDone},
		{"stop", m.Stop, BusIdle},
	}

	for _, step := range steps {
		if err := step.op(); err != nil {
			t.Fatalf("%s failed: %v", step.name, err)
		}
		if m.Phase() != step.want {
			t.Fatalf("After %s expected phase %v, got %v", step.name, step.want, m.Phase())
		}
	}

	if len(regs.trn) != 3 {
		t.Errorf("Expected 3 bytes transmitted, got %d", len(regs.trn))
	}
	if regs.con&CON_ACKDT == 0 {
		t.Error("ACKDT should be left set after a NACK")
	}
}

func TestOutOfPhaseOperations(t *testing.T) {
	regs := &fakeRegs{}
	m := newTestMaster(t, regs)

	if err := m.Send(0x40); !errors.Is(err, ErrBusState) {
		t.Errorf("Send on idle bus: expected ErrBusState, got %v", err)
	}
	if _, err := m.Receive(); !errors.Is(err, ErrBusState) {
		t.Errorf("Receive on idle bus: expected ErrBusState, got %v", err)
	}
	if err := m.Restart(); !errors.Is(err, ErrBusState) {
		t.Errorf("Restart on idle bus: expected ErrBusState, got %v", err)
	}
	if err := m.Stop(); !errors.Is(err, ErrBusState) {
		t.Errorf("Stop on idle bus: expected ErrBusState, got %v", err)
	}
	if len(regs.trn) != 0 {
		t.Errorf("Nothing should reach TRN, got % x", regs.trn)
	}

	if err := m.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := m.Start(); !errors.Is(err, ErrBusState) {
		t.Errorf("Second start: expected ErrBusState, got %v", err)
	}
	if err := m.Send(0x40); err != nil {
		t.Fatalf("Send address failed: %v", err)
	}
	if _, err := m.Receive(); !errors.Is(err, ErrBusState) {
		t.Errorf("Receive after write address: expected ErrBusState, got %v", err)
	}
	if err := m.Ack(true); !errors.Is(err, ErrBusState) {
		t.Errorf("Ack without received byte: expected ErrBusState, got %v", err)
	}
	if err := m.Stop(); err != nil {
		t.Errorf("Stop failed: %v", err)
	}

	// A received byte must be answered before the bus can change.
	if err := m.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := m.Send(0x41); err != nil {
		t.Fatalf("Send address failed: %v", err)
	}
	if _, err := m.Receive(); err != nil {
		t.Fatalf("Receive failed: %v", err)
	}
	if err := m.Restart(); !errors.Is(err, ErrBusState) {
		t.Errorf("Restart with ack pending: expected ErrBusState, got %v", err)
	}
	if err := m.Stop(); !errors.Is(err, ErrBusState) {
		t.Errorf("Stop with ack pending: expected ErrBusState, got %v", err)
	}
	if m.Phase() != BusAckPending {
		t.Errorf("Expected ack-pending phase, got %v", m.Phase())
	}

	regs.con &^= CON_ACKDT
	if err := m.ReleaseBus(); err != nil {
		t.Fatalf("ReleaseBus failed: %v", err)
	}
	if regs.con&CON_ACKDT == 0 {
		t.Error("ReleaseBus should NACK the pending byte")
	}
	if m.Phase() != BusIdle {
		t.Errorf("Expected idle bus after release, got %v", m.Phase())
	}
}

func TestSendWithoutAcknowledgment(t *testing.T) {
	regs := &fakeRegs{nack: true}
	m := newTestMaster(t, regs)

	if err := m.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	err := m.Send(0x40)
	if !errors.Is(err, ErrNoAcknowledgment) {
		t.Fatalf("Expected ErrNoAcknowledgment, got %v", err)
	}

	var busErr *BusError
	if !errors.As(err, &busErr) {
		t.Fatalf("Expected *BusError, got %T", err)
	}
	if busErr.Op != "send" || busErr.Byte != 0x40 {
		t.Errorf("Unexpected error detail: %+v", busErr)
	}
	if err.Error() != "i2c send 0x40: no acknowledgment" {
		t.Errorf("Unexpected message %q", err.Error())
	}

	// Still inside the transaction until released.
	if m.Phase() != BusAddress {
		t.Errorf("Expected address phase, got %v", m.Phase())
	}
	if err := m.ReleaseBus(); err != nil {
		t.Errorf("ReleaseBus failed: %v", err)
	}
	if m.Phase() != BusIdle {
		t.Errorf("Expected idle bus after release, got %v", m.Phase())
	}
	if err := m.ReleaseBus(); err != nil {
		t.Errorf("ReleaseBus on idle bus should be a no-op, got %v", err)
	}
}

func TestStuckFlagTimesOut(t *testing.T) {
	testCases := []struct {
		name  string
		stuck uint32
		run   func(m *Master) error
	}{
		{"start", CON_SEN, func(m *Master) error { return m.Start() }},
		{"restart", CON_RSEN, func(m *Master) error {
			if err := m.Start(); err != nil {
				return nil
			}
			return m.Restart()
		}},
		{"ack", CON_ACKEN, func(m *Master) error {
			if err := m.Start(); err != nil {
				return nil
			}
			if err := m.Send(0x41); err != nil {
				return nil
			}
			if _, err := m.Receive(); err != nil {
				return nil
			}
			return m.Ack(false)
		}},
		{"stop", CON_PEN, func(m *Master) error {
			if err := m.Start(); err != nil {
				return nil
			}
			return m.Stop()
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			regs := &fakeRegs{stuck: tc.stuck}
			m := newTestMaster(t, regs)

			err := tc.run(m)
			if !errors.Is(err, ErrBusTimeout) {
				t.Fatalf("Expected ErrBusTimeout, got %v", err)
			}
		})
	}
}

func TestTransmitNeverCompletes(t *testing.T) {
	regs := &fakeRegs{}
	m := newTestMaster(t, regs)

	if err := m.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	regs.stat |= STAT_TRSTAT // Slave holding SCL low
	if err := m.Send(0x40); !errors.Is(err, ErrBusTimeout) {
		t.Errorf("Expected ErrBusTimeout, got %v", err)
	}
}

func TestBusEventRing(t *testing.T) {
	ClearBusRing()
	regs := &fakeRegs{rx: 0x80}
	m := newTestMaster(t, regs)

	m.Start()
	m.Send(0x41)
	m.Receive()
	m.Ack(true)
	m.Stop()

	events := BusEvents()
	want := []uint8{EvtStart, EvtSend, EvtReceive, EvtNack, EvtStop}
	if len(events) != len(want) {
		t.Fatalf("Expected %d events, got %d", len(want), len(events))
	}
	for i, evt := range events {
		if evt.EventType != want[i] {
			t.Errorf("Event %d: expected %s, got %s", i, eventName(want[i]), eventName(evt.EventType))
		}
		if evt.Result != ResultOK {
			t.Errorf("Event %d: expected ok, got %s", i, resultName(evt.Result))
		}
	}
	if events[2].Byte != 0x80 {
		t.Errorf("Expected received byte 0x80, got %#02x", events[2].Byte)
	}

	var lines []string
	SetDebugWriter(func(s string) { lines = append(lines, s) })
	defer SetDebugWriter(func(s string) {})
	DumpBusRing()
	if len(lines) != len(want)+2 {
		t.Errorf("Expected %d dump lines, got %d", len(want)+2, len(lines))
	}
}

func TestBusEventRingWraps(t *testing.T) {
	ClearBusRing()
	for i := 0; i < BusRingSize+5; i++ {
		RecordBusEvent(EvtSend, uint8(i), ResultOK)
	}

	events := BusEvents()
	if len(events) != BusRingSize {
		t.Fatalf("Expected %d events, got %d", BusRingSize, len(events))
	}
	if events[0].Byte != 5 {
		t.Errorf("Expected oldest byte 5, got %d", events[0].Byte)
	}
	if events[BusRingSize-1].Byte != BusRingSize+4 {
		t.Errorf("Expected newest byte %d, got %d", BusRingSize+4, events[BusRingSize-1].Byte)
	}
}
