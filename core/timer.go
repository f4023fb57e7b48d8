package core

// TimerFreq is the system tick rate. One tick is one millisecond.
const TimerFreq = 1000

var systemTicks uint32

// GetTime returns the current system time in milliseconds
func GetTime() uint32 {
	return getSystemTicks()
}

// SetTime sets the current system time (hardware integration and tests)
func SetTime(ticks uint32) {
	setSystemTicks(ticks)
}

// TimerFromUS converts microseconds of uptime to system ticks
func TimerFromUS(us uint64) uint32 {
	return uint32(us / (1000000 / TimerFreq))
}

// Clock is a monotonic millisecond clock. Values wrap at 2^32; compare them
// with Since or Before, never with < directly.
type Clock interface {
	NowMS() uint32
}

// SystemClock reads the global system time set by the target's timer code
type SystemClock struct{}

// NowMS returns GetTime()
func (SystemClock) NowMS() uint32 {
	return GetTime()
}

// Since returns now - then, correct across a single wrap
func Since(now, then uint32) uint32 {
	return now - then
}

// Before reports whether a is earlier than b on the wrapping clock
func Before(a, b uint32) bool {
	return int32(a-b) < 0
}
