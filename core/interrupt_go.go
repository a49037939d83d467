//go:build !tinygo

package core

// InterruptState stands in for runtime/interrupt.State on regular Go
type InterruptState uintptr

// DisableInterrupts does nothing on a host build
func DisableInterrupts() InterruptState {
	return 0
}

// RestoreInterrupts does nothing on a host build
func RestoreInterrupts(state InterruptState) {}
