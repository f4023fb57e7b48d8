package core

// Timer represents a scheduled event
type Timer struct {
	WakeTime uint32
	Handler  func(*Timer) uint8
	Next     *Timer
}

const (
	SF_DONE       = 0
	SF_RESCHEDULE = 1
)

// Scheduler keeps a wake-time ordered list of timers and runs the due ones
// from the dispatch loop. It is the only yield mechanism long operations get:
// a handler does one slice of work, moves its WakeTime forward and returns
// SF_RESCHEDULE.
type Scheduler struct {
	list *Timer
	now  uint32
}

// NewScheduler creates an empty scheduler
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Schedule adds a timer. A timer must not be scheduled twice.
func (s *Scheduler) Schedule(t *Timer) {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	s.insert(t)
}

// insert places t in sorted order by WakeTime
func (s *Scheduler) insert(t *Timer) {
	if s.list == nil || Before(t.WakeTime, s.list.WakeTime) {
		t.Next = s.list
		s.list = t
		return
	}

	current := s.list
	for current.Next != nil && !Before(t.WakeTime, current.Next.WakeTime) {
		current = current.Next
	}

	t.Next = current.Next
	current.Next = t
}

// Cancel removes t if it is scheduled and reports whether it was
func (s *Scheduler) Cancel(t *Timer) bool {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	var prev *Timer
	for cur := s.list; cur != nil; cur = cur.Next {
		if cur == t {
			if prev == nil {
				s.list = cur.Next
			} else {
				prev.Next = cur.Next
			}
			cur.Next = nil
			return true
		}
		prev = cur
	}
	return false
}

// Dispatch runs every timer due at now and returns how many handlers ran.
// Each timer fires at most once per call, so a handler that falls behind
// catches up one slice per tick instead of starving the caller.
func (s *Scheduler) Dispatch(now uint32) int {
	s.now = now

	var again *Timer
	fired := 0
	for {
		state := disableInterrupts()
		timer := s.list
		if timer == nil || Before(now, timer.WakeTime) {
			restoreInterrupts(state)
			break
		}
		s.list = timer.Next
		timer.Next = nil
		restoreInterrupts(state)

		fired++
		if timer.Handler(timer) == SF_RESCHEDULE {
			timer.Next = again
			again = timer
		}
	}

	for again != nil {
		t := again
		again = t.Next
		t.Next = nil
		s.Schedule(t)
	}
	return fired
}

// Now returns the time passed to the last Dispatch
func (s *Scheduler) Now() uint32 {
	return s.now
}

// Pending returns the number of scheduled timers
func (s *Scheduler) Pending() int {
	n := 0
	for t := s.list; t != nil; t = t.Next {
		n++
	}
	return n
}
