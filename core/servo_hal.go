package core

import "errors"

// Logical joint domain in degrees. Every output mapping clamps to it.
const (
	AngleMin = 0.0
	AngleMax = 180.0
)

// ErrUnknownMapping is returned when a mapping mode name is not recognised
var ErrUnknownMapping = errors.New("core: unknown servo mapping mode")

// ServoDriver is the abstract servo output that core code drives.
// Platform-specific implementations generate the actual pulses.
type ServoDriver interface {
	// SetAngle commands a logical angle in degrees, [0, 180]
	SetAngle(deg float64) error

	// SetPulseWidth commands a raw pulse width in microseconds
	SetPulseWidth(us float64) error
}

// MappingMode selects how a logical angle reaches a servo
type MappingMode uint8

const (
	MapAngle MappingMode = iota // angle passed through unchanged
	MapPulse                    // angle mapped linearly onto [MinUS, MaxUS]
)

func (m MappingMode) String() string {
	switch m {
	case MapAngle:
		return "angle"
	case MapPulse:
		return "pulse"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler
func (m MappingMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (m *MappingMode) UnmarshalText(text []byte) error {
	switch string(text) {
	case "", "angle":
		*m = MapAngle
	case "pulse":
		*m = MapPulse
	default:
		return ErrUnknownMapping
	}
	return nil
}

// ServoMapping maps a logical joint angle to the value a ServoDriver expects
type ServoMapping struct {
	Mode  MappingMode `json:"mode"`
	MinUS float64     `json:"min_us,omitempty"`
	MaxUS float64     `json:"max_us,omitempty"`
}

// ClampAngle limits deg to [AngleMin, AngleMax]
func ClampAngle(deg float64) float64 {
	return max(AngleMin, min(deg, AngleMax))
}

// Output returns the physical value for a logical angle: the clamped angle
// itself, or a pulse width in microseconds. Monotonic in angle.
func (m ServoMapping) Output(deg float64) float64 {
	deg = ClampAngle(deg)
	if m.Mode != MapPulse {
		return deg
	}
	return m.MinUS + (m.MaxUS-m.MinUS)*(deg-AngleMin)/(AngleMax-AngleMin)
}

// Drive maps deg and writes it to d. It returns the value written.
func (m ServoMapping) Drive(d ServoDriver, deg float64) (float64, error) {
	out := m.Output(deg)
	if m.Mode == MapPulse {
		return out, d.SetPulseWidth(out)
	}
	return out, d.SetAngle(out)
}
