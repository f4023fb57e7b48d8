package protocol

import "bytes"

// LineSink receives finished, trimmed lines. CommandQueue satisfies it.
type LineSink interface {
	Push(line []byte) bool
}

// LineSinkFunc adapts a function to LineSink
type LineSinkFunc func(line []byte) bool

// Push calls f(line)
func (f LineSinkFunc) Push(line []byte) bool {
	return f(line)
}

// LineAssembler turns a byte stream into trimmed lines, one byte at a time.
// It never blocks and never allocates.
type LineAssembler struct {
	buf       [LineMax]byte
	n         int
	sink      LineSink
	overflows uint32
}

// NewLineAssembler creates an assembler that hands finished lines to sink
func NewLineAssembler(sink LineSink) *LineAssembler {
	return &LineAssembler{sink: sink}
}

// Feed consumes one input byte
func (a *LineAssembler) Feed(b byte) {
	switch b {
	case '\r':
		return
	case '\n':
		if a.n > 0 {
			line := bytes.TrimSpace(a.buf[:a.n])
			if len(line) > 0 {
				a.sink.Push(line)
			}
		}
		a.n = 0
	default:
		if a.n >= len(a.buf) {
			// Runaway line: drop what we have and resync on the next byte
			a.overflows++
			a.n = 0
			return
		}
		a.buf[a.n] = b
		a.n++
	}
}

// Write feeds every byte of p. It implements io.Writer so replies read from a
// port can be split into lines.
func (a *LineAssembler) Write(p []byte) (int, error) {
	for _, b := range p {
		a.Feed(b)
	}
	return len(p), nil
}

// FeedFrom drains all currently buffered bytes of src and returns how many
// were consumed
func (a *LineAssembler) FeedFrom(src ByteSource) int {
	consumed := 0
	for src.Buffered() > 0 {
		b, err := src.ReadByte()
		if err != nil {
			break
		}
		a.Feed(b)
		consumed++
	}
	return consumed
}

// FeedFromWhile is FeedFrom that checks more before every byte and stops
// once it returns false. Unread bytes stay in src for the next call.
func (a *LineAssembler) FeedFromWhile(src ByteSource, more func() bool) int {
	consumed := 0
	for src.Buffered() > 0 && more() {
		b, err := src.ReadByte()
		if err != nil {
			break
		}
		a.Feed(b)
		consumed++
	}
	return consumed
}

// Pending returns the number of bytes of the unfinished line
func (a *LineAssembler) Pending() int {
	return a.n
}

// Overflows returns how many over-long lines were discarded
func (a *LineAssembler) Overflows() uint32 {
	return a.overflows
}

// Reset discards the unfinished line
func (a *LineAssembler) Reset() {
	a.n = 0
}
