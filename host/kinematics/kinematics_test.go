package kinematics

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestSolveRoundTrip(t *testing.T) {
	arm := Arm{L1: 20, L2: 20}

	points := []mgl64.Vec2{
		{20, 20},
		{30, 5},
		{-10, 25},
		{0, 39.9},
		{5, -15},
	}

	for _, p := range points {
		angles, err := arm.Solve(p)
		if err != nil {
			t.Errorf("Solve(%v) failed: %v", p, err)
			continue
		}
		got := arm.Forward(angles)
		if got.Sub(p).Len() > 1e-9 {
			t.Errorf("Forward(Solve(%v)) = %v", p, got)
		}
		if angles.Elbow < 0 || angles.Elbow > 180 {
			t.Errorf("Elbow angle %v out of [0, 180] for %v", angles.Elbow, p)
		}
	}
}

func TestSolveKnownAngles(t *testing.T) {
	arm := Arm{L1: 10, L2: 10}

	angles, err := arm.Solve(mgl64.Vec2{10, 10})
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	if math.Abs(angles.Shoulder-0) > 1e-9 || math.Abs(angles.Elbow-90) > 1e-9 {
		t.Errorf("Expected (0, 90), got (%v, %v)", angles.Shoulder, angles.Elbow)
	}

	angles, err = arm.Solve(mgl64.Vec2{20, 0})
	if err != nil {
		t.Fatalf("Solve at full reach failed: %v", err)
	}
	if math.Abs(angles.Shoulder) > 1e-6 || math.Abs(angles.Elbow) > 1e-6 {
		t.Errorf("Expected a straight arm, got (%v, %v)", angles.Shoulder, angles.Elbow)
	}
}

func TestSolveUnreachable(t *testing.T) {
	arm := Arm{L1: 20, L2: 10}

	for _, p := range []mgl64.Vec2{{31, 0}, {0, 100}, {5, 0}, {0, 0}} {
		if _, err := arm.Solve(p); !errors.Is(err, ErrUnreachable) {
			t.Errorf("Expected ErrUnreachable for %v, got %v", p, err)
		}
	}
}

func TestSolveInvalidArm(t *testing.T) {
	if _, err := (Arm{L1: 0, L2: 10}).Solve(mgl64.Vec2{5, 5}); !errors.Is(err, ErrInvalidArm) {
		t.Errorf("Expected ErrInvalidArm, got %v", err)
	}
}
