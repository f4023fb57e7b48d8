// Package command turns trimmed protocol lines into typed commands.
package command

import "penarm/protocol"

// Kind identifies which variant a Command holds
type Kind uint8

const (
	Invalid Kind = iota
	PenUp
	PenDown
	End
	Start
	MoveTo
)

func (k Kind) String() string {
	switch k {
	case PenUp:
		return "PenUp"
	case PenDown:
		return "PenDown"
	case End:
		return "End"
	case Start:
		return "Start"
	case MoveTo:
		return "MoveTo"
	default:
		return "Invalid"
	}
}

// InvalidReason says why a line was rejected
type InvalidReason uint8

const (
	ReasonNone InvalidReason = iota
	ReasonBadFormat
	ReasonBadNumbers
)

func (r InvalidReason) String() string {
	switch r {
	case ReasonBadFormat:
		return "bad format"
	case ReasonBadNumbers:
		return "bad numbers"
	default:
		return "none"
	}
}

// HostMessage returns the line reported back to the host for this reason
func (r InvalidReason) HostMessage() string {
	if r == ReasonBadNumbers {
		return protocol.SignalInvalidNumbers
	}
	return protocol.SignalInvalidFormat
}

// Command is one parsed protocol line. A and B are only meaningful for
// MoveTo, Reason only for Invalid.
type Command struct {
	Kind   Kind
	A, B   float64
	Reason InvalidReason
}

// Move returns a MoveTo command
func Move(a, b float64) Command {
	return Command{Kind: MoveTo, A: a, B: b}
}

// Reject returns an Invalid command carrying reason
func Reject(reason InvalidReason) Command {
	return Command{Kind: Invalid, Reason: reason}
}
