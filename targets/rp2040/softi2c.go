//go:build rp2040

package main

import (
	"gpioexp/core"
	"machine"
)

const (
	triggerBits = core.CON_SEN | core.CON_RSEN | core.CON_PEN | core.CON_RCEN | core.CON_ACKEN

	// stretchLimitUS bounds how long a slave may hold SCL low
	stretchLimitUS = 10000
)

// softI2C presents an I2Cx-style register block backed by two bit-banged
// open-drain pins. Each trigger bit runs its bus action to completion before
// SetCON returns and then clears, as if the hardware had finished. An action
// that cannot finish (SCL held low past the stretch limit) leaves its bit
// set so the master's bounded wait reports a timeout.
type softI2C struct {
	sda, scl machine.Pin
	pbHz     uint32
	halfUS   uint32

	con, stat uint32
	rcv       byte
}

func newSoftI2C(sda, scl machine.Pin, peripheralClockHz uint32) *softI2C {
	s := &softI2C{sda: sda, scl: scl, pbHz: peripheralClockHz, halfUS: 5}
	s.release(s.sda)
	s.release(s.scl)
	return s
}

func (s *softI2C) CON() uint32          { return s.con }
func (s *softI2C) STAT() uint32         { return s.stat }
func (s *softI2C) ClearCON(mask uint32) { s.con &^= mask }
func (s *softI2C) ReadRCV() byte {
	s.stat &^= core.STAT_RBF
	return s.rcv
}

// SetBRG converts the reload value back into an SCL half period:
// Tbrg = (BRG+2)/Fpb + PGD.
func (s *softI2C) SetBRG(brg uint32) {
	ns := uint64(brg+2)*1000000000/uint64(s.pbHz) + 104
	s.halfUS = uint32((ns + 999) / 1000)
	if s.halfUS == 0 {
		s.halfUS = 1
	}
}

func (s *softI2C) SetCON(mask uint32) {
	s.con |= mask
	if mask&core.CON_ON != 0 {
		s.release(s.sda)
		s.release(s.scl)
	}

	ok := true
	switch {
	case mask&core.CON_SEN != 0:
		ok = s.start()
	case mask&core.CON_RSEN != 0:
		ok = s.restart()
	case mask&core.CON_PEN != 0:
		ok = s.stop()
		if ok {
			// A completed stop clears whatever action was left hanging.
			s.con &^= triggerBits
		}
	case mask&core.CON_RCEN != 0:
		ok = s.receive()
	case mask&core.CON_ACKEN != 0:
		ok = s.writeBit(s.con&core.CON_ACKDT != 0)
	}
	if ok {
		s.con &^= mask & triggerBits
	}
}

func (s *softI2C) WriteTRN(b byte) {
	s.stat |= core.STAT_TRSTAT
	for bit := 7; bit >= 0; bit-- {
		if !s.writeBit(b&(1<<bit) != 0) {
			return
		}
	}
	nack, ok := s.readBit()
	if !ok {
		return
	}
	if nack {
		s.stat |= core.STAT_ACKSTAT
	} else {
		s.stat &^= core.STAT_ACKSTAT
	}
	s.stat &^= core.STAT_TRSTAT
}

func (s *softI2C) start() bool {
	s.release(s.sda)
	if !s.releaseSCL() {
		return false
	}
	delayUS(s.halfUS)
	s.low(s.sda)
	delayUS(s.halfUS)
	s.low(s.scl)
	return true
}

func (s *softI2C) restart() bool {
	s.release(s.sda)
	delayUS(s.halfUS)
	return s.start()
}

func (s *softI2C) stop() bool {
	s.low(s.sda)
	delayUS(s.halfUS)
	if !s.releaseSCL() {
		return false
	}
	delayUS(s.halfUS)
	s.release(s.sda)
	delayUS(s.halfUS)
	return true
}

func (s *softI2C) receive() bool {
	var v byte
	for i := 0; i < 8; i++ {
		bit, ok := s.readBit()
		if !ok {
			return false
		}
		v <<= 1
		if bit {
			v |= 1
		}
	}
	s.rcv = v
	s.stat |= core.STAT_RBF
	return true
}

func (s *softI2C) writeBit(high bool) bool {
	if high {
		s.release(s.sda)
	} else {
		s.low(s.sda)
	}
	delayUS(s.halfUS)
	if !s.releaseSCL() {
		return false
	}
	delayUS(s.halfUS)
	s.low(s.scl)
	return true
}

func (s *softI2C) readBit() (bool, bool) {
	s.release(s.sda)
	delayUS(s.halfUS)
	if !s.releaseSCL() {
		return false, false
	}
	delayUS(s.halfUS)
	v := s.sda.Get()
	s.low(s.scl)
	return v, true
}

// releaseSCL lets SCL float high and waits out clock stretching.
func (s *softI2C) releaseSCL() bool {
	s.release(s.scl)
	start := GetHardwareTime()
	for !s.scl.Get() {
		if GetHardwareTime()-start > stretchLimitUS {
			return false
		}
	}
	return true
}

// Open-drain emulation: an input with pull-up floats high, an output only
// ever drives low.
func (s *softI2C) release(p machine.Pin) {
	p.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
}

func (s *softI2C) low(p machine.Pin) {
	p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	p.Low()
}
