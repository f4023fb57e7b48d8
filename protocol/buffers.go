package protocol

import "errors"

// ErrBufferEmpty is returned by ReadByte when no data is buffered
var ErrBufferEmpty = errors.New("protocol: buffer empty")

// ScratchOutput collects host replies in a fixed-size scratch buffer
type ScratchOutput struct {
	buf     [MessageMax]byte
	pos     int
	dropped int
}

// NewScratchOutput creates a new ScratchOutput
func NewScratchOutput() *ScratchOutput {
	return &ScratchOutput{pos: 0}
}

// Output appends raw data, truncating at the buffer end
func (s *ScratchOutput) Output(data []byte) {
	n := copy(s.buf[s.pos:], data)
	s.pos += n
}

// OutputLine appends msg followed by a newline. A line that does not fit is
// dropped whole so the host never sees a torn reply.
func (s *ScratchOutput) OutputLine(msg string) bool {
	if s.pos+len(msg)+1 > len(s.buf) {
		s.dropped++
		return false
	}
	s.pos += copy(s.buf[s.pos:], msg)
	s.buf[s.pos] = '\n'
	s.pos++
	return true
}

// CurPosition returns the current write position
func (s *ScratchOutput) CurPosition() int {
	return s.pos
}

// Free returns the bytes still available before OutputLine starts dropping
func (s *ScratchOutput) Free() int {
	return len(s.buf) - s.pos
}

// Dropped returns how many lines were discarded for lack of room
func (s *ScratchOutput) Dropped() int {
	return s.dropped
}

// Result returns the accumulated output data
func (s *ScratchOutput) Result() []byte {
	return s.buf[:s.pos]
}

// Reset clears the buffer
func (s *ScratchOutput) Reset() {
	s.pos = 0
}

// FifoBuffer is a circular byte buffer between a serial reader and the
// dispatch loop
type FifoBuffer struct {
	buf   []byte
	read  int
	write int
	size  int
}

// NewFifoBuffer creates a new FifoBuffer with the specified capacity
func NewFifoBuffer(capacity int) *FifoBuffer {
	return &FifoBuffer{
		buf:  make([]byte, capacity),
		size: capacity,
	}
}

// Write appends data to the FIFO buffer and returns how much fit
func (f *FifoBuffer) Write(data []byte) int {
	written := 0
	for _, b := range data {
		nextWrite := (f.write + 1) % f.size
		if nextWrite == f.read {
			// Buffer full
			break
		}
		f.buf[f.write] = b
		f.write = nextWrite
		written++
	}
	return written
}

// WriteString appends s, see Write
func (f *FifoBuffer) WriteString(s string) int {
	return f.Write([]byte(s))
}

// Read reads up to len(data) bytes from the FIFO buffer
func (f *FifoBuffer) Read(data []byte) int {
	read := 0
	for i := range data {
		if f.read == f.write {
			break
		}
		data[i] = f.buf[f.read]
		f.read = (f.read + 1) % f.size
		read++
	}
	return read
}

// ReadByte pops a single byte
func (f *FifoBuffer) ReadByte() (byte, error) {
	if f.read == f.write {
		return 0, ErrBufferEmpty
	}
	b := f.buf[f.read]
	f.read = (f.read + 1) % f.size
	return b, nil
}

// Buffered returns the number of bytes available for reading
func (f *FifoBuffer) Buffered() int {
	if f.write >= f.read {
		return f.write - f.read
	}
	return f.size - f.read + f.write
}

// Free returns the number of bytes available for writing
func (f *FifoBuffer) Free() int {
	return f.size - f.Buffered() - 1
}

// IsEmpty returns true if the buffer is empty
func (f *FifoBuffer) IsEmpty() bool {
	return f.read == f.write
}

// Reset clears the buffer
func (f *FifoBuffer) Reset() {
	f.read = 0
	f.write = 0
}
