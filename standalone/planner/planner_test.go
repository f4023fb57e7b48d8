package planner

import (
	"errors"
	"testing"

	"penarm/core"
)

type fakeServo struct {
	angles []float64
	pulses []float64
	err    error
}

func (f *fakeServo) SetAngle(deg float64) error {
	f.angles = append(f.angles, deg)
	return f.err
}

func (f *fakeServo) SetPulseWidth(us float64) error {
	f.pulses = append(f.pulses, us)
	return f.err
}

func newTestInterpolator(a, b *fakeServo, initial float64) (*Interpolator, *core.Scheduler) {
	sched := core.NewScheduler()
	joints := [2]Joint{
		{Name: "a", Driver: a, MaxAngle: 180, Initial: initial},
		{Name: "b", Driver: b, MaxAngle: 180, Initial: initial},
	}
	return NewInterpolator(sched, joints, Config{StepDelayMS: 5, MinSteps: 10}), sched
}

// run dispatches the scheduler every millisecond until the move finishes
func run(t *testing.T, ip *Interpolator, sched *core.Scheduler, now uint32) uint32 {
	t.Helper()
	for i := 0; ip.Busy(); i++ {
		if i > 100000 {
			t.Fatal("Move did not finish")
		}
		sched.Dispatch(now)
		now++
	}
	return now
}

func TestMoveToNoOp(t *testing.T) {
	a, b := &fakeServo{}, &fakeServo{}
	ip, sched := newTestInterpolator(a, b, 0)

	if ip.MoveTo(0, 0, 0) {
		t.Error("Move to the current position should be a no-op")
	}
	sched.Dispatch(1000)
	if ip.Writes() != 0 || len(a.angles) != 0 || len(b.angles) != 0 {
		t.Errorf("No-op move wrote to the servos: %d writes", ip.Writes())
	}
	if sched.Pending() != 0 {
		t.Errorf("No-op move left %d timers", sched.Pending())
	}
}

func TestMoveToMonotonicAndExact(t *testing.T) {
	a, b := &fakeServo{}, &fakeServo{}
	ip, sched := newTestInterpolator(a, b, 0)

	done := 0
	ip.SetCallbacks(func() { done++ }, nil)

	if !ip.MoveTo(180, 90, 0) {
		t.Fatal("MoveTo should start a move")
	}
	if !ip.Busy() {
		t.Fatal("Interpolator should be busy")
	}
	run(t, ip, sched, 0)

	if len(a.angles) != 180 {
		t.Errorf("Expected 180 steps for a 180 degree move, got %d", len(a.angles))
	}
	for i := 1; i < len(a.angles); i++ {
		if a.angles[i] < a.angles[i-1] {
			t.Fatalf("Joint A output decreased at step %d: %v -> %v", i, a.angles[i-1], a.angles[i])
		}
	}
	if last := a.angles[len(a.angles)-1]; last != 180 {
		t.Errorf("Last joint A output should be 180, got %v", last)
	}

	ca, cb := ip.Current()
	if ca != 180 || cb != 90 {
		t.Errorf("Expected joint state exactly (180, 90), got (%v, %v)", ca, cb)
	}
	if done != 1 {
		t.Errorf("Expected one completion, got %d", done)
	}
}

func TestMoveToStepTiming(t *testing.T) {
	a, b := &fakeServo{}, &fakeServo{}
	ip, sched := newTestInterpolator(a, b, 0)

	ip.MoveTo(10, 0, 100)

	sched.Dispatch(100)
	if len(a.angles) != 1 {
		t.Fatalf("First step should be written at once, got %d", len(a.angles))
	}
	sched.Dispatch(104)
	if len(a.angles) != 1 {
		t.Error("Second step must wait for the step delay")
	}
	sched.Dispatch(105)
	if len(a.angles) != 2 {
		t.Errorf("Second step expected at 105, got %d writes", len(a.angles))
	}

	// 10 steps at 100..145, completion after the last delay at 150
	for now := uint32(106); now < 150; now++ {
		sched.Dispatch(now)
	}
	if !ip.Busy() {
		t.Error("Move should still be settling after the last step")
	}
	sched.Dispatch(150)
	if ip.Busy() {
		t.Error("Move should complete one step delay after the last step")
	}
}

func TestMoveToClampsTargets(t *testing.T) {
	a, b := &fakeServo{}, &fakeServo{}
	ip, sched := newTestInterpolator(a, b, 90)

	ip.MoveTo(200, -50, 0)
	run(t, ip, sched, 0)

	for _, v := range append(a.angles, b.angles...) {
		if v < 0 || v > 180 {
			t.Fatalf("Output %v outside [0, 180]", v)
		}
	}
	ca, cb := ip.Current()
	if ca != 180 || cb != 0 {
		t.Errorf("Expected clamped state (180, 0), got (%v, %v)", ca, cb)
	}

	if ip.MoveTo(500, -1, 0) {
		t.Error("Target clamping to the current position should be a no-op")
	}
}

func TestMoveToJointRange(t *testing.T) {
	a, b := &fakeServo{}, &fakeServo{}
	sched := core.NewScheduler()
	ip := NewInterpolator(sched, [2]Joint{
		{Driver: a, MinAngle: 20, MaxAngle: 160, Initial: 90},
		{Driver: b, MaxAngle: 180},
	}, Config{StepDelayMS: 1, MinSteps: 1})

	ip.MoveTo(0, 0, 0)
	run(t, ip, sched, 0)

	if ca, _ := ip.Current(); ca != 20 {
		t.Errorf("Expected joint A clamped to its range at 20, got %v", ca)
	}
}

func TestMoveToMinSteps(t *testing.T) {
	a, b := &fakeServo{}, &fakeServo{}
	ip, sched := newTestInterpolator(a, b, 0)

	ip.MoveTo(0.4, 0, 0)
	run(t, ip, sched, 0)

	if len(a.angles) != 10 {
		t.Errorf("Short move should take MinSteps=10 steps, got %d", len(a.angles))
	}
	if ca, _ := ip.Current(); ca != 0.4 {
		t.Errorf("Expected exact target 0.4, got %v", ca)
	}
}

func TestMoveToPulseMapping(t *testing.T) {
	a, b := &fakeServo{}, &fakeServo{}
	sched := core.NewScheduler()
	ip := NewInterpolator(sched, [2]Joint{
		{Driver: a, Mapping: core.ServoMapping{Mode: core.MapPulse, MinUS: 500, MaxUS: 2500}},
		{Driver: b},
	}, Config{StepDelayMS: 1, MinSteps: 1})

	ip.MoveTo(180, 0, 0)
	run(t, ip, sched, 0)

	if len(a.pulses) == 0 || len(a.angles) != 0 {
		t.Fatalf("Pulse joint should only receive pulse widths, got %d pulses %d angles", len(a.pulses), len(a.angles))
	}
	if last := a.pulses[len(a.pulses)-1]; last != 2500 {
		t.Errorf("Expected final pulse 2500, got %v", last)
	}
}

func TestDriverErrorsDoNotAbort(t *testing.T) {
	a, b := &fakeServo{err: errors.New("stalled")}, &fakeServo{}
	ip, sched := newTestInterpolator(a, b, 0)

	errCount := 0
	ip.SetCallbacks(nil, func(joint int, err error) {
		if joint != 0 {
			t.Errorf("Unexpected joint %d in error", joint)
		}
		errCount++
	})

	ip.MoveTo(20, 20, 0)
	run(t, ip, sched, 0)

	if errCount != 20 {
		t.Errorf("Expected one error per step, got %d", errCount)
	}
	if len(b.angles) != 20 {
		t.Errorf("Healthy joint should keep moving, got %d writes", len(b.angles))
	}
	if _, cb := ip.Current(); cb != 20 {
		t.Errorf("Move should still complete, joint B at %v", cb)
	}
}

func TestHomeAndCancel(t *testing.T) {
	a, b := &fakeServo{}, &fakeServo{}
	ip, sched := newTestInterpolator(a, b, 90)

	if err := ip.Home(); err != nil {
		t.Fatalf("Home failed: %v", err)
	}
	if len(a.angles) != 1 || a.angles[0] != 90 {
		t.Errorf("Home should write the initial angle once, got %v", a.angles)
	}

	ip.MoveTo(0, 0, 0)
	sched.Dispatch(0)
	ip.Cancel()
	if ip.Busy() || sched.Pending() != 0 {
		t.Error("Cancel should stop the move and its timer")
	}
	if ca, cb := ip.Current(); ca != 90 || cb != 90 {
		t.Errorf("Cancelled move must not update joint state, got (%v, %v)", ca, cb)
	}
}
