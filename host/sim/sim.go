// Package sim dry-runs command files against the controller in-process.
package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"penarm/core"
	"penarm/host/streamer"
	"penarm/protocol"
	"penarm/standalone"
)

// ErrStalled is returned when the controller stops making progress
var ErrStalled = errors.New("sim: controller stalled")

// Servo records every value written to it
type Servo struct {
	Name   string
	Angles []float64
	Pulses []float64
}

// SetAngle implements core.ServoDriver
func (s *Servo) SetAngle(deg float64) error {
	s.Angles = append(s.Angles, deg)
	return nil
}

// SetPulseWidth implements core.ServoDriver
func (s *Servo) SetPulseWidth(us float64) error {
	s.Pulses = append(s.Pulses, us)
	return nil
}

// Writes returns the number of values written
func (s *Servo) Writes() int {
	return len(s.Angles) + len(s.Pulses)
}

// VirtualClock is a millisecond clock advanced by the simulator
type VirtualClock struct {
	now uint32
}

// NowMS implements core.Clock
func (c *VirtualClock) NowMS() uint32 {
	return c.now
}

// Advance moves the clock forward
func (c *VirtualClock) Advance(ms uint32) {
	c.now += ms
}

// Options configures a Simulator
type Options struct {
	Config   *standalone.MachineConfig
	Window   int    // lines answered per REQUEST
	MaxTicks uint32 // stall guard; 0 means ten minutes of virtual time
	Logger   *slog.Logger
	Trace    bool // route per-step traces to the logger at debug level
}

// Report summarises a simulated run
type Report struct {
	Stream     streamer.Result
	Stats      standalone.Stats
	DurationMS uint32
	Final      [2]float64
	Statuses   []string
}

// Simulator wires a Manager to recording servos, a virtual clock and an
// in-memory serial line
type Simulator struct {
	mgr    *standalone.Manager
	clock  *VirtualClock
	line   *protocol.FifoBuffer
	servos [3]*Servo
	opts   Options
	logger *slog.Logger

	statuses []string
}

// New builds a simulator around a fresh Manager
func New(opts Options) (*Simulator, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("sim: no machine config")
	}
	if opts.MaxTicks == 0 {
		opts.MaxTicks = 10 * 60 * 1000
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Simulator{
		clock:  &VirtualClock{},
		line:   protocol.NewFifoBuffer(4096),
		opts:   opts,
		logger: logger,
	}
	for i, name := range []string{opts.Config.Joints[0].Name, opts.Config.Joints[1].Name, "pen"} {
		s.servos[i] = &Servo{Name: name}
	}

	mgr, err := standalone.NewManagerWithConfig(opts.Config, standalone.Options{
		Servos: standalone.ServoSet{
			Joints: [2]core.ServoDriver{s.servos[0], s.servos[1]},
			Pen:    s.servos[2],
		},
		Input:  s.line,
		Clock:  s.clock,
		Status: standalone.StatusFunc(s.onStatus),
		Sleep:  s.clock.Advance,
	})
	if err != nil {
		return nil, fmt.Errorf("sim: %w", err)
	}
	s.mgr = mgr
	return s, nil
}

func (s *Simulator) onStatus(msg string) {
	s.statuses = append(s.statuses, msg)
	s.logger.Debug("status", "t_ms", s.clock.NowMS(), "msg", msg)
}

// Servo returns the recorder for joint 0, joint 1 or the pen (2)
func (s *Simulator) Servo(i int) *Servo {
	return s.servos[i]
}

// Run streams lines into the controller as it requests them and ticks it
// once per virtual millisecond until every command has executed
func (s *Simulator) Run(ctx context.Context, lines []string) (Report, error) {
	if s.opts.Trace {
		core.SetDebugWriter(func(msg string) { s.logger.Debug(msg) })
		core.SetDebugEnabled(true)
		defer core.SetDebugEnabled(false)
	}

	feeder := streamer.NewFeeder(lines, s.opts.Window)
	host := protocol.NewLineAssembler(protocol.LineSinkFunc(func(reply []byte) bool {
		for _, cmd := range feeder.Handle(string(reply)) {
			s.line.WriteString(cmd + "\n")
		}
		return true
	}))

	if err := s.mgr.Start(); err != nil {
		s.logger.Warn("start", "err", err)
	}
	defer s.mgr.Stop()

	start := s.clock.NowMS()
	for tick := uint32(0); ; tick++ {
		if tick%1024 == 0 && ctx.Err() != nil {
			return s.report(feeder, start), ctx.Err()
		}
		if tick > s.opts.MaxTicks {
			if s.opts.Trace {
				core.DumpTraceRing()
			}
			return s.report(feeder, start), fmt.Errorf("%w after %d ms with %d lines unsent",
				ErrStalled, tick, feeder.Remaining())
		}

		s.mgr.Tick()
		host.Write(s.mgr.GetOutput())

		if feeder.Done() && s.line.IsEmpty() && s.mgr.QueueOccupancy() == 0 && s.mgr.State() == standalone.StateIdle {
			break
		}
		s.clock.Advance(1)
	}

	rep := s.report(feeder, start)
	s.logger.Info("simulation complete",
		"lines", rep.Stream.Sent,
		"moves", rep.Stats.Moves,
		"duration_ms", rep.DurationMS,
		"dropped", rep.Stats.Dropped,
		"invalid", rep.Stats.Invalid)
	return rep, nil
}

func (s *Simulator) report(feeder *streamer.Feeder, start uint32) Report {
	a, b := s.mgr.Joints()
	return Report{
		Stream:     feeder.Result(),
		Stats:      s.mgr.Stats(),
		DurationMS: core.Since(s.clock.NowMS(), start),
		Final:      [2]float64{a, b},
		Statuses:   s.statuses,
	}
}
