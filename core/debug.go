package core

import "strconv"

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// TraceEvent captures a motion event for post-mortem analysis
type TraceEvent struct {
	EventType uint8  // Event type code
	Joint     uint8  // Joint index, 0xFF when not joint specific
	Clock     uint32 // System time in ms
	Value     float64
}

// Event type codes
const (
	EvtMoveStart = 1 // trajectory started, Value = step count
	EvtStep      = 2 // interpolation step written, Value = output value
	EvtMoveDone  = 3 // trajectory finished
	EvtPen       = 4 // pen servo commanded, Value = angle
	EvtDrop      = 5 // command dropped on a full queue
)

const (
	TraceRingSize = 32 // Keep last 32 events
)

var (
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled gates DebugPrintln; per-step traces are noisy on a 5 ms cadence
	debugEnabled bool = false

	traceRing     [TraceRingSize]TraceEvent
	traceRingHead uint8
)

// SetDebugWriter sets the platform-specific debug output function
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// DebugPrintln writes a debug message using the platform-specific writer
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// RecordTrace captures an event in the ring buffer. It never blocks.
func RecordTrace(eventType, joint uint8, clock uint32, value float64) {
	idx := traceRingHead
	traceRing[idx] = TraceEvent{
		EventType: eventType,
		Joint:     joint,
		Clock:     clock,
		Value:     value,
	}
	traceRingHead = (idx + 1) % TraceRingSize
}

// TraceEvents returns the recorded events, oldest first
func TraceEvents() []TraceEvent {
	events := make([]TraceEvent, 0, TraceRingSize)
	start := traceRingHead
	for i := uint8(0); i < TraceRingSize; i++ {
		evt := traceRing[(start+i)%TraceRingSize]
		if evt.EventType == 0 {
			continue
		}
		events = append(events, evt)
	}
	return events
}

// DumpTraceRing writes the trace ring through the debug writer regardless of
// the debug flag
func DumpTraceRing() {
	if debugPrintln == nil {
		return
	}

	debugPrintln("[TRACE] === Trace Ring Dump ===")
	for _, evt := range TraceEvents() {
		var name string
		switch evt.EventType {
		case EvtMoveStart:
			name = "MOVE_START"
		case EvtStep:
			name = "STEP"
		case EvtMoveDone:
			name = "MOVE_DONE"
		case EvtPen:
			name = "PEN"
		case EvtDrop:
			name = "DROP"
		default:
			name = "UNKNOWN"
		}

		debugPrintln("[TRACE] " + name +
			" joint=" + strconv.Itoa(int(evt.Joint)) +
			" clock=" + strconv.FormatUint(uint64(evt.Clock), 10) +
			" v=" + strconv.FormatFloat(evt.Value, 'f', 2, 64))
	}
	debugPrintln("[TRACE] === End Dump ===")
}

// ClearTraceRing clears the trace buffer
func ClearTraceRing() {
	for i := range traceRing {
		traceRing[i] = TraceEvent{}
	}
	traceRingHead = 0
}
