package flow

import (
	"testing"

	"penarm/protocol"
)

func TestControllerRequestsImmediatelyWhenLow(t *testing.T) {
	q := protocol.NewCommandQueue(8)
	count := 0
	c := New(q, 2, 100, func() { count++ })

	if !c.Tick(0) {
		t.Fatal("Empty queue at startup should trigger a request")
	}
	if count != 1 || c.Requests() != 1 {
		t.Errorf("Expected 1 request, callback %d, counter %d", count, c.Requests())
	}
}

func TestControllerRateLimit(t *testing.T) {
	q := protocol.NewCommandQueue(8)
	var times []uint32
	now := uint32(0)
	c := New(q, 2, 100, func() { times = append(times, now) })

	for now = 0; now < 1000; now++ {
		c.Tick(now)
	}

	if len(times) < 2 {
		t.Fatalf("Continuous low occupancy should keep requesting, got %v", times)
	}
	for i := 1; i < len(times); i++ {
		if gap := times[i] - times[i-1]; gap < 100 {
			t.Errorf("Requests %d and %d only %d ms apart", i-1, i, gap)
		}
	}
	// Fires again promptly once the interval has elapsed
	if times[1] != 101 {
		t.Errorf("Expected the second request at 101, got %d", times[1])
	}
}

func TestControllerQuietWhenQueueHigh(t *testing.T) {
	q := protocol.NewCommandQueue(8)
	for i := 0; i < 5; i++ {
		q.Push([]byte("(1, 1)"))
	}
	c := New(q, 2, 10, nil)

	for now := uint32(0); now < 200; now++ {
		if c.Tick(now) {
			t.Fatalf("Request at %d with occupancy %d above threshold", now, q.Occupancy())
		}
	}

	for q.Occupancy() > 2 {
		q.Pop()
	}
	if !c.Tick(200) {
		t.Error("Request expected once occupancy drops to the threshold")
	}
}

func TestControllerWrapAround(t *testing.T) {
	q := protocol.NewCommandQueue(4)
	c := New(q, 1, 100, nil)

	c.Tick(0xFFFFFFC0)
	if c.Tick(0x00000010) {
		t.Error("Only 80 ms elapsed across the wrap, no request expected")
	}
	if !c.Tick(0x00000030) {
		t.Error("112 ms elapsed across the wrap, request expected")
	}
}

func TestControllerReset(t *testing.T) {
	q := protocol.NewCommandQueue(4)
	c := New(q, 1, 1000, nil)

	c.Tick(5)
	c.Reset()
	if !c.Tick(6) {
		t.Error("Reset controller should request on the next low tick")
	}
	if last, ok := c.LastRequest(); !ok || last != 6 {
		t.Errorf("Expected last request at 6, got %d (%v)", last, ok)
	}
}
