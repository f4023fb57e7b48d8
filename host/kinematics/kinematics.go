// Package kinematics converts pen positions into joint angles for the
// two-link planar arm.
package kinematics

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Kinematics errors
var (
	ErrUnreachable = errors.New("kinematics: point not reachable")
	ErrInvalidArm  = errors.New("kinematics: link lengths must be positive")
)

// Angles are joint angles in degrees
type Angles struct {
	Shoulder float64
	Elbow    float64
}

// Arm is a two-link planar arm with its shoulder at the origin
type Arm struct {
	L1 float64 // shoulder to elbow
	L2 float64 // elbow to pen
}

// Validate checks the link lengths
func (a Arm) Validate() error {
	if a.L1 <= 0 || a.L2 <= 0 {
		return fmt.Errorf("%w: L1=%g L2=%g", ErrInvalidArm, a.L1, a.L2)
	}
	return nil
}

// Reach returns the inner and outer radius of the workspace
func (a Arm) Reach() (inner, outer float64) {
	return math.Abs(a.L1 - a.L2), a.L1 + a.L2
}

// Solve returns the elbow-down joint angles that put the pen at p
func (a Arm) Solve(p mgl64.Vec2) (Angles, error) {
	if err := a.Validate(); err != nil {
		return Angles{}, err
	}

	r := p.Len()
	inner, outer := a.Reach()
	if r < inner || r > outer {
		return Angles{}, fmt.Errorf("%w: (%g, %g) at r=%g outside [%g, %g]",
			ErrUnreachable, p.X(), p.Y(), r, inner, outer)
	}

	cosElbow := (r*r - a.L1*a.L1 - a.L2*a.L2) / (2 * a.L1 * a.L2)
	elbow := math.Acos(mgl64.Clamp(cosElbow, -1, 1))

	k1 := a.L1 + a.L2*math.Cos(elbow)
	k2 := a.L2 * math.Sin(elbow)
	shoulder := math.Atan2(p.Y(), p.X()) - math.Atan2(k2, k1)

	return Angles{
		Shoulder: mgl64.RadToDeg(shoulder),
		Elbow:    mgl64.RadToDeg(elbow),
	}, nil
}

// Forward returns the pen position for the given joint angles
func (a Arm) Forward(angles Angles) mgl64.Vec2 {
	s := mgl64.DegToRad(angles.Shoulder)
	e := mgl64.DegToRad(angles.Elbow)

	elbow := mgl64.Vec2{math.Cos(s), math.Sin(s)}.Mul(a.L1)
	pen := mgl64.Vec2{math.Cos(s + e), math.Sin(s + e)}.Mul(a.L2)
	return elbow.Add(pen)
}
