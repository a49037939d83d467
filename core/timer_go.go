//go:build !tinygo

package core

// getSystemTicks returns the registered counter, or the stored ticks
func getSystemTicks() uint32 {
	if timeSource != nil {
		return timeSource()
	}
	return systemTicks
}

// setSystemTicks sets the stored system ticks
func setSystemTicks(ticks uint32) {
	systemTicks = ticks
}
