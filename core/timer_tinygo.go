//go:build tinygo

package core

import "sync/atomic"

var systemTicksValue uint32

// getSystemTicks reads the hardware counter when one is registered
func getSystemTicks() uint32 {
	if timeSource != nil {
		return timeSource()
	}
	return atomic.LoadUint32(&systemTicksValue)
}

// setSystemTicks stores ticks for targets without a readable counter
func setSystemTicks(ticks uint32) {
	atomic.StoreUint32(&systemTicksValue, ticks)
}
