//go:build rp2040

package main

import (
	"gpioexp/core"
	"runtime/volatile"
	"unsafe"
)

// RP2040 Timer peripheral memory map
const (
	timerBase     = 0x40054000
	timerTIMERAWL = timerBase + 0x0C // Raw timer low word
)

// TimerFreq is the rate of the RP2040 system timer
const TimerFreq = 1000000

var timerRAWL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))

// InitClock makes the free-running microsecond timer the core time source,
// so core.CycleCounter counts microseconds on this board.
func InitClock() {
	core.SetTimeSource(GetHardwareTime)
}

// GetHardwareTime returns the low 32 bits of the microsecond counter
func GetHardwareTime() uint32 {
	return timerRAWL.Get()
}

// delayUS busy-waits for at least us microseconds
func delayUS(us uint32) {
	start := timerRAWL.Get()
	for timerRAWL.Get()-start < us {
	}
}
