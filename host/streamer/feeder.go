// Package streamer sends command files to the arm under REQUEST flow
// control.
package streamer

import "penarm/protocol"

// Result summarises a streaming session
type Result struct {
	Sent       int  // lines written to the controller
	Requests   int  // REQUEST signals received
	BufferFull int  // BUFFER FULL signals received
	Invalid    int  // Invalid format / Invalid numbers replies
	Ready      bool // ready banner seen
}

// Feeder decides what to send in answer to each controller reply. It sends
// up to window lines per REQUEST.
type Feeder struct {
	lines  []string
	next   int
	window int
	result Result
}

// NewFeeder creates a feeder over lines. A window below 1 is raised to 1.
func NewFeeder(lines []string, window int) *Feeder {
	if window < 1 {
		window = 1
	}
	return &Feeder{lines: lines, window: window}
}

// Handle accounts for one reply line and returns the lines to send now
func (f *Feeder) Handle(reply string) []string {
	switch reply {
	case protocol.SignalRequest:
		f.result.Requests++
		end := min(f.next+f.window, len(f.lines))
		batch := f.lines[f.next:end]
		f.next = end
		f.result.Sent += len(batch)
		return batch
	case protocol.SignalBufferFull:
		f.result.BufferFull++
	case protocol.SignalInvalidFormat, protocol.SignalInvalidNumbers:
		f.result.Invalid++
	case protocol.SignalReady:
		f.result.Ready = true
	}
	return nil
}

// Done reports whether every line has been handed out
func (f *Feeder) Done() bool {
	return f.next >= len(f.lines)
}

// Remaining returns the number of lines not yet sent
func (f *Feeder) Remaining() int {
	return len(f.lines) - f.next
}

// Result returns the counters so far
func (f *Feeder) Result() Result {
	return f.result
}
