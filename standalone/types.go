package standalone

import (
	"penarm/core"
	"penarm/standalone/command"
	"penarm/standalone/config"
)

// Command is a parsed protocol line
type Command = command.Command

// MachineConfig represents the complete machine configuration
type MachineConfig = config.MachineConfig

// State of the dispatch loop
type State uint8

const (
	StateIdle State = iota // no command in flight
	StateBusy              // a command is executing
)

func (s State) String() string {
	if s == StateBusy {
		return "busy"
	}
	return "idle"
}

// Status strings surfaced to the StatusSink
const (
	StatusPenUp         = "Pen Up"
	StatusPenDown       = "Pen Down"
	StatusMoveDone      = "Move Done"
	StatusFileStarted   = "File Started"
	StatusFileDone      = "File Done"
	StatusBufferFull    = "Buffer Full"
	StatusInvalidPrefix = "Invalid: "
	StatusActuatorError = "Actuator error"
)

// StatusSink receives short human-readable status strings. Delivery is
// best effort; implementations must not block for long.
type StatusSink interface {
	Status(msg string)
}

// StatusFunc adapts a function to StatusSink
type StatusFunc func(msg string)

// Status calls f(msg)
func (f StatusFunc) Status(msg string) {
	f(msg)
}

// Stats are the manager's running counters
type Stats struct {
	Lines      uint32 // lines accepted into the queue
	Dropped    uint32 // lines rejected by a full queue
	Overflowed uint32 // over-long lines discarded by the assembler
	Invalid    uint32 // lines that failed to parse
	Moves      uint32 // completed interpolated moves
	PenActions uint32
	Requests   uint32 // REQUEST signals sent
	Errors     uint32 // servo write errors
}

// ServoSet holds the outputs the manager drives
type ServoSet struct {
	Joints [2]core.ServoDriver
	Pen    core.ServoDriver
}
