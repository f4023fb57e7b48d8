package protocol

// Line is a fixed-size copy of one trimmed command line
type Line struct {
	buf [LineMax]byte
	n   uint8
}

// Bytes returns the line content. The slice aliases the Line value.
func (l *Line) Bytes() []byte {
	return l.buf[:l.n]
}

// String returns the line content as a string
func (l Line) String() string {
	return string(l.buf[:l.n])
}

// Len returns the line length in bytes
func (l *Line) Len() int {
	return int(l.n)
}

func (l *Line) set(data []byte) {
	l.n = uint8(copy(l.buf[:], data))
}

// CommandQueue is a bounded circular FIFO of command lines.
//
// One slot is always left unused so that head == tail means empty and
// head+1 == tail means full; usable capacity is Capacity()-1.
type CommandQueue struct {
	slots []Line
	head  int // next write position
	tail  int // next read position

	dropped    uint32
	onOverflow func()
}

// NewCommandQueue allocates a queue with the given number of slots. Sizes
// below 2 are raised to 2 so at least one command fits.
func NewCommandQueue(size int) *CommandQueue {
	if size < 2 {
		size = 2
	}
	return &CommandQueue{
		slots: make([]Line, size),
	}
}

// SetOverflowHandler registers fn to run once for every rejected push
func (q *CommandQueue) SetOverflowHandler(fn func()) {
	q.onOverflow = fn
}

// Push copies data into the next free slot. It returns false, and fires the
// overflow handler, when the queue is full. Data longer than LineMax is
// truncated.
func (q *CommandQueue) Push(data []byte) bool {
	next := (q.head + 1) % len(q.slots)
	if next == q.tail {
		q.dropped++
		if q.onOverflow != nil {
			q.onOverflow()
		}
		return false
	}
	q.slots[q.head].set(data)
	q.head = next
	return true
}

// Pop removes the oldest line. ok is false when the queue is empty.
func (q *CommandQueue) Pop() (line Line, ok bool) {
	if q.head == q.tail {
		return Line{}, false
	}
	line = q.slots[q.tail]
	q.tail = (q.tail + 1) % len(q.slots)
	return line, true
}

// IsEmpty reports whether no line is queued
func (q *CommandQueue) IsEmpty() bool {
	return q.head == q.tail
}

// IsFull reports whether the next push would be rejected
func (q *CommandQueue) IsFull() bool {
	return (q.head+1)%len(q.slots) == q.tail
}

// Occupancy returns the number of queued lines, in [0, Capacity()-1]
func (q *CommandQueue) Occupancy() int {
	if q.head >= q.tail {
		return q.head - q.tail
	}
	return len(q.slots) - q.tail + q.head
}

// IsLow reports whether occupancy is at or below threshold
func (q *CommandQueue) IsLow(threshold int) bool {
	return q.Occupancy() <= threshold
}

// Capacity returns the number of slots, one more than the usable capacity
func (q *CommandQueue) Capacity() int {
	return len(q.slots)
}

// Dropped returns how many pushes were rejected since creation
func (q *CommandQueue) Dropped() uint32 {
	return q.dropped
}

// Reset discards every queued line
func (q *CommandQueue) Reset() {
	q.head = 0
	q.tail = 0
}
