//go:build !tinygo

package core

// getSystemTicks returns the current system ticks (host build, tests)
func getSystemTicks() uint32 {
	return systemTicks
}

// setSystemTicks sets the system ticks (host build, tests)
func setSystemTicks(ticks uint32) {
	systemTicks = ticks
}
