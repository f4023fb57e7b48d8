//go:build rp2040 || rp2350

package main

import (
	"runtime/volatile"
	"unsafe"

	"penarm/core"
)

// RP2040 timer peripheral, a free-running 64-bit microsecond counter
const (
	timerBase     = 0x40054000
	timerTIMERAWH = timerBase + 0x08 // Raw timer high word
	timerTIMERAWL = timerBase + 0x0C // Raw timer low word
)

var (
	timerRAWH = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWH)))
	timerRAWL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))
)

// InitClock seeds the system time from the hardware counter
func InitClock() {
	UpdateSystemTime()
}

// GetHardwareUptime reads the full 64-bit microsecond counter
func GetHardwareUptime() uint64 {
	// High, low, high: retry if the low word rolled over mid-read
	for {
		high1 := timerRAWH.Get()
		low := timerRAWL.Get()
		high2 := timerRAWH.Get()

		if high1 == high2 {
			return (uint64(high1) << 32) | uint64(low)
		}
	}
}

// UpdateSystemTime copies the hardware uptime into the core millisecond clock.
// Called once per main loop pass.
func UpdateSystemTime() {
	core.SetTime(core.TimerFromUS(GetHardwareUptime()))
}
