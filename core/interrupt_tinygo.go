//go:build tinygo

package core

import "runtime/interrupt"

// InterruptState is the saved interrupt mask
type InterruptState = interrupt.State

// DisableInterrupts masks interrupts and returns the previous state.
// Used around board bring-up; the bus engine itself never needs it.
func DisableInterrupts() InterruptState {
	return interrupt.Disable()
}

// RestoreInterrupts restores a state saved by DisableInterrupts
func RestoreInterrupts(state InterruptState) {
	interrupt.Restore(state)
}
