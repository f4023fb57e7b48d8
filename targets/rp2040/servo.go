//go:build rp2040 || rp2350

package main

import (
	"errors"
	"machine"
	"math"
	"strconv"
	"strings"

	"penarm/core"
	"penarm/standalone"
	"penarm/standalone/config"

	"tinygo.org/x/drivers/servo"
)

var errBadPin = errors.New("invalid servo pin")

// pwmServo drives one hobby servo through the TinyGo servo driver
type pwmServo struct {
	s servo.Servo
}

// SetAngle writes a whole-degree angle. The driver takes int degrees, so
// the logical angle is rounded.
func (p *pwmServo) SetAngle(deg float64) error {
	return p.s.SetAngle(int(math.Round(core.ClampAngle(deg))))
}

// SetPulseWidth writes a raw pulse width in microseconds
func (p *pwmServo) SetPulseWidth(us float64) error {
	p.s.SetMicroseconds(int16(math.Round(us)))
	return nil
}

// newServo attaches a servo to a "GPn" pin name
func newServo(name string) (*pwmServo, error) {
	pin, err := parsePin(name)
	if err != nil {
		return nil, err
	}

	// Two channels per slice: GPIO n belongs to slice (n >> 1) & 7
	s, err := servo.New(getPWMPeripheral(uint8((pin>>1)&0x7)), pin)
	if err != nil {
		return nil, errors.New(name + ": " + err.Error())
	}
	return &pwmServo{s: s}, nil
}

func parsePin(name string) (machine.Pin, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(strings.ToUpper(name), "GP"))
	if err != nil || n < 0 || n > 29 {
		return 0, errors.New(name + ": " + errBadPin.Error())
	}
	return machine.Pin(n), nil
}

// setupServos creates the joint and pen drivers named in cfg
func setupServos(cfg *config.MachineConfig) (standalone.ServoSet, error) {
	var set standalone.ServoSet
	for i, jc := range cfg.Joints {
		s, err := newServo(jc.Pin)
		if err != nil {
			return set, err
		}
		set.Joints[i] = s
	}

	pen, err := newServo(cfg.Pen.Pin)
	if err != nil {
		return set, err
	}
	set.Pen = pen
	return set, nil
}

// getPWMPeripheral returns the PWM slice for sliceNum. The RP2040 has 8
// slices, PWM0-PWM7.
func getPWMPeripheral(sliceNum uint8) servo.PWM {
	switch sliceNum {
	case 0:
		return machine.PWM0
	case 1:
		return machine.PWM1
	case 2:
		return machine.PWM2
	case 3:
		return machine.PWM3
	case 4:
		return machine.PWM4
	case 5:
		return machine.PWM5
	case 6:
		return machine.PWM6
	default:
		return machine.PWM7
	}
}
