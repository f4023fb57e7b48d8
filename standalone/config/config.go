// Package config loads and validates the arm's machine configuration.
package config

import (
	"encoding/json"
	"errors"
	"fmt"

	"penarm/core"
	"penarm/protocol"
)

// Configuration errors
var (
	ErrInvalidMapping = errors.New("config: invalid servo mapping")
	ErrQueueCapacity  = errors.New("config: invalid queue capacity")
	ErrJointRange     = errors.New("config: invalid joint range")
	ErrPenAngle       = errors.New("config: invalid pen angle")
)

// JointConfig describes one interpolated joint
type JointConfig struct {
	Name     string            `json:"name"`
	Pin      string            `json:"pin"`      // PWM-capable GPIO, e.g. "GP16"
	Mapping  core.ServoMapping `json:"mapping"`  // logical angle -> servo output
	MinAngle float64           `json:"min_angle"`
	MaxAngle float64           `json:"max_angle"` // zero means 180
	Initial  float64           `json:"initial"`   // angle driven at startup
}

// PenConfig describes the pen lift servo
type PenConfig struct {
	Pin       string            `json:"pin"`
	Mapping   core.ServoMapping `json:"mapping"`
	UpAngle   float64           `json:"up_angle"`
	DownAngle float64           `json:"down_angle"`
	SettleMS  uint32            `json:"settle_ms"` // blocking wait after each pen action; 0 means 500
}

// QueueConfig sizes the command queue and its REQUEST watermark
type QueueConfig struct {
	Size         int `json:"size"`          // slots; usable capacity is Size-1
	LowWatermark int `json:"low_watermark"` // REQUEST while occupancy <= this
}

// MachineConfig represents the complete machine configuration
type MachineConfig struct {
	Joints [2]JointConfig `json:"joints"`
	Pen    PenConfig      `json:"pen"`
	Queue  QueueConfig    `json:"queue"`

	RequestIntervalMS uint32 `json:"request_interval_ms"` // minimum gap between REQUESTs
	StepDelayMS       uint32 `json:"step_delay_ms"`       // gap between interpolation steps
	MinSteps          int    `json:"min_steps"`           // floor on steps per move

	Display bool `json:"display"` // drive the status LCD when present
}

// LoadConfig parses a JSON configuration string and returns a MachineConfig
func LoadConfig(jsonData []byte) (*MachineConfig, error) {
	var config MachineConfig

	err := json.Unmarshal(jsonData, &config)
	if err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}

	// Apply defaults
	applyDefaults(&config)

	if err := Validate(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

// applyDefaults fills in missing configuration values with sensible defaults
func applyDefaults(config *MachineConfig) {
	names := [2]string{"shoulder", "elbow"}
	for i := range config.Joints {
		joint := &config.Joints[i]
		if joint.Name == "" {
			joint.Name = names[i]
		}
		if joint.MaxAngle == 0 {
			joint.MaxAngle = core.AngleMax
		}
	}

	// Zero values mean "unset": a pen with both angles 0 and a zero settle
	// time cannot be configured. Use 1 ms for the shortest settle.
	if config.Pen.UpAngle == 0 && config.Pen.DownAngle == 0 {
		config.Pen.DownAngle = 90.0
	}
	if config.Pen.SettleMS == 0 {
		config.Pen.SettleMS = 500
	}

	if config.Queue.Size == 0 {
		config.Queue.Size = protocol.DefaultQueueSize
	}
	if config.Queue.LowWatermark == 0 {
		config.Queue.LowWatermark = config.Queue.Size / 4
	}

	if config.RequestIntervalMS == 0 {
		config.RequestIntervalMS = 100
	}
	if config.StepDelayMS == 0 {
		config.StepDelayMS = 5
	}
	if config.MinSteps == 0 {
		config.MinSteps = 10
	}
}

// Validate checks the invariants the controller relies on
func Validate(config *MachineConfig) error {
	for _, joint := range config.Joints {
		if err := validateMapping(joint.Mapping); err != nil {
			return fmt.Errorf("joint %s: %w", joint.Name, err)
		}
		if joint.MinAngle < core.AngleMin || joint.MaxAngle > core.AngleMax || joint.MinAngle >= joint.MaxAngle {
			return fmt.Errorf("joint %s: [%g, %g]: %w", joint.Name, joint.MinAngle, joint.MaxAngle, ErrJointRange)
		}
	}

	if err := validateMapping(config.Pen.Mapping); err != nil {
		return fmt.Errorf("pen: %w", err)
	}
	for _, a := range []float64{config.Pen.UpAngle, config.Pen.DownAngle} {
		if a < core.AngleMin || a > core.AngleMax {
			return fmt.Errorf("pen: angle %g: %w", a, ErrPenAngle)
		}
	}

	if config.Queue.Size < 2 {
		return fmt.Errorf("queue size %d: %w", config.Queue.Size, ErrQueueCapacity)
	}
	if config.Queue.LowWatermark < 0 || config.Queue.LowWatermark >= config.Queue.Size-1 {
		return fmt.Errorf("low watermark %d for size %d: %w", config.Queue.LowWatermark, config.Queue.Size, ErrQueueCapacity)
	}
	if config.MinSteps < 1 {
		return fmt.Errorf("min steps %d: %w", config.MinSteps, ErrJointRange)
	}
	return nil
}

func validateMapping(m core.ServoMapping) error {
	switch m.Mode {
	case core.MapAngle:
		return nil
	case core.MapPulse:
		if m.MinUS <= 0 || m.MaxUS <= m.MinUS {
			return fmt.Errorf("pulse range [%g, %g]: %w", m.MinUS, m.MaxUS, ErrInvalidMapping)
		}
		return nil
	default:
		return fmt.Errorf("mode %d: %w", m.Mode, ErrInvalidMapping)
	}
}

// DefaultArmConfig returns the configuration of the reference arm: two
// angle-driven joints homed at 90 degrees and a pen servo that writes 0 for
// up and 90 for down
func DefaultArmConfig() *MachineConfig {
	return &MachineConfig{
		Joints: [2]JointConfig{
			{
				Name:     "shoulder",
				Pin:      "GP16",
				Mapping:  core.ServoMapping{Mode: core.MapAngle},
				MinAngle: 0.0,
				MaxAngle: 180.0,
				Initial:  90.0,
			},
			{
				Name:     "elbow",
				Pin:      "GP18",
				Mapping:  core.ServoMapping{Mode: core.MapAngle},
				MinAngle: 0.0,
				MaxAngle: 180.0,
				Initial:  90.0,
			},
		},
		Pen: PenConfig{
			Pin:       "GP20",
			Mapping:   core.ServoMapping{Mode: core.MapAngle},
			UpAngle:   0.0,
			DownAngle: 90.0,
			SettleMS:  500,
		},
		Queue: QueueConfig{
			Size:         protocol.DefaultQueueSize,
			LowWatermark: protocol.DefaultQueueSize / 4,
		},
		RequestIntervalMS: 100,
		StepDelayMS:       5,
		MinSteps:          10,
		Display:           true,
	}
}
