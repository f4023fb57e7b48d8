// Package protocol implements the penarm line protocol
package protocol

// Version represents the penarm firmware version
const Version = "0.1.0"

// Protocol constants
const (
	LineMax          = 128 // Maximum command line length in bytes (excluding terminator)
	MessageMax       = 256 // Maximum pending host output per tick
	DefaultQueueSize = 16  // Default command queue slots (usable capacity is one less)
)

// Host -> controller literal commands
const (
	CmdPenUp   = "PEN UP"
	CmdPenDown = "PEN DOWN"
	CmdEnd     = "END"
	CmdStart   = "START"
)

// Controller -> host signals
const (
	SignalRequest        = "REQUEST"
	SignalBufferFull     = "BUFFER FULL"
	SignalInvalidNumbers = "Invalid numbers"
	SignalInvalidFormat  = "Invalid format"
	SignalReady          = "Ready for commands..."
)

// ByteSource is a non-blocking source of input bytes. machine.Serial on TinyGo
// targets and FifoBuffer both satisfy it.
type ByteSource interface {
	// Buffered returns the number of bytes that can be read without blocking
	Buffered() int

	// ReadByte reads one buffered byte
	ReadByte() (byte, error)
}
