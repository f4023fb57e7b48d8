package standalone

import (
	"errors"
	"fmt"
	"time"

	"penarm/core"
	"penarm/protocol"
	"penarm/standalone/command"
	"penarm/standalone/config"
	"penarm/standalone/flow"
	"penarm/standalone/planner"
)

// Manager errors
var (
	ErrMissingServo   = errors.New("standalone: servo driver missing")
	ErrAlreadyRunning = errors.New("standalone: already running")
)

// Reply room kept back while reading input: one BUFFER FULL for the byte
// about to be fed, plus the REQUEST and invalid reply the rest of the tick
// may emit
const replyReserve = len(protocol.SignalBufferFull) + 1 +
	len(protocol.SignalRequest) + 1 +
	len(protocol.SignalInvalidNumbers) + 1

// Options carries the platform pieces a Manager runs on
type Options struct {
	Servos ServoSet
	Input  protocol.ByteSource // polled every Tick; may be nil when bytes arrive via ProcessByte
	Clock  core.Clock          // defaults to core.SystemClock
	Status StatusSink          // optional
	Sleep  func(ms uint32)     // blocking wait for pen settling; defaults to time.Sleep
}

// Manager is the dispatch loop: it feeds input into the command queue, keeps
// the host supplied through REQUEST signals and executes one command at a
// time
type Manager struct {
	config *MachineConfig

	clock  core.Clock
	input  protocol.ByteSource
	status StatusSink
	sleep  func(ms uint32)
	pen    core.ServoDriver

	queue     *protocol.CommandQueue
	assembler *protocol.LineAssembler
	flow      *flow.Controller
	sched     *core.Scheduler
	interp    *planner.Interpolator
	output    *protocol.ScratchOutput

	state   State
	running bool

	lines       uint32
	invalid     uint32
	moves       uint32
	penActions  uint32
	servoErrors uint32
}

// NewManager creates a manager from a JSON configuration
func NewManager(configData []byte, opts Options) (*Manager, error) {
	cfg, err := config.LoadConfig(configData)
	if err != nil {
		return nil, err
	}

	return NewManagerWithConfig(cfg, opts)
}

// NewManagerWithConfig creates a manager with an existing config
func NewManagerWithConfig(cfg *MachineConfig, opts Options) (*Manager, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	for i, d := range opts.Servos.Joints {
		if d == nil {
			return nil, fmt.Errorf("joint %s: %w", cfg.Joints[i].Name, ErrMissingServo)
		}
	}
	if opts.Servos.Pen == nil {
		return nil, fmt.Errorf("pen: %w", ErrMissingServo)
	}

	mgr := &Manager{
		config: cfg,
		clock:  opts.Clock,
		input:  opts.Input,
		status: opts.Status,
		sleep:  opts.Sleep,
		pen:    opts.Servos.Pen,
		queue:  protocol.NewCommandQueue(cfg.Queue.Size),
		sched:  core.NewScheduler(),
		output: protocol.NewScratchOutput(),
		state:  StateIdle,
	}
	if mgr.clock == nil {
		mgr.clock = core.SystemClock{}
	}
	if mgr.sleep == nil {
		mgr.sleep = func(ms uint32) {
			time.Sleep(time.Duration(ms) * time.Millisecond)
		}
	}

	mgr.queue.SetOverflowHandler(mgr.onBufferFull)
	mgr.assembler = protocol.NewLineAssembler(protocol.LineSinkFunc(mgr.pushLine))
	mgr.flow = flow.New(mgr.queue, cfg.Queue.LowWatermark, cfg.RequestIntervalMS, func() {
		mgr.output.OutputLine(protocol.SignalRequest)
	})

	var joints [2]planner.Joint
	for i, jc := range cfg.Joints {
		joints[i] = planner.Joint{
			Name:     jc.Name,
			Driver:   opts.Servos.Joints[i],
			Mapping:  jc.Mapping,
			MinAngle: jc.MinAngle,
			MaxAngle: jc.MaxAngle,
			Initial:  jc.Initial,
		}
	}
	mgr.interp = planner.NewInterpolator(mgr.sched, joints, planner.Config{
		StepDelayMS: cfg.StepDelayMS,
		MinSteps:    cfg.MinSteps,
	})
	mgr.interp.SetCallbacks(mgr.onMoveDone, mgr.onActuatorError)

	return mgr, nil
}

// pushLine moves a finished line into the queue
func (m *Manager) pushLine(line []byte) bool {
	if !m.queue.Push(line) {
		return false
	}
	m.lines++
	return true
}

// hasReplyRoom reports whether another input byte may be read this tick
// without risking a reply that does not fit the output buffer
func (m *Manager) hasReplyRoom() bool {
	return m.output.Free() >= replyReserve
}

func (m *Manager) onBufferFull() {
	core.RecordTrace(core.EvtDrop, 0xFF, m.sched.Now(), float64(m.queue.Occupancy()))
	m.output.OutputLine(protocol.SignalBufferFull)
	m.setStatus(StatusBufferFull)
}

func (m *Manager) onMoveDone() {
	m.moves++
	m.setStatus(StatusMoveDone)
	m.state = StateIdle
}

func (m *Manager) onActuatorError(joint int, err error) {
	m.servoErrors++
	if core.IsDebugEnabled() {
		core.DebugPrintln("[MGR] " + m.config.Joints[joint].Name + ": " + err.Error())
	}
	m.setStatus(StatusActuatorError)
}

func (m *Manager) setStatus(msg string) {
	if m.status != nil {
		m.status.Status(msg)
	}
}

// Start begins operation: it announces readiness to the host and homes the
// joints. The loop runs even when homing reports a servo error.
func (m *Manager) Start() error {
	if m.running {
		return ErrAlreadyRunning
	}

	m.running = true
	m.output.OutputLine(protocol.SignalReady)
	if err := m.interp.Home(); err != nil {
		m.servoErrors++
		m.setStatus(StatusActuatorError)
		return fmt.Errorf("home: %w", err)
	}
	return nil
}

// Stop halts all operation, abandoning any running move and queued commands
func (m *Manager) Stop() {
	m.running = false
	m.interp.Cancel()
	m.queue.Reset()
	m.assembler.Reset()
	m.flow.Reset()
	m.state = StateIdle
}

// ProcessByte feeds one input byte, for targets that push bytes instead of
// exposing a ByteSource. It returns false without consuming b while the
// reply buffer is too full; drain GetOutput and offer b again.
func (m *Manager) ProcessByte(b byte) bool {
	if !m.hasReplyRoom() {
		return false
	}
	m.assembler.Feed(b)
	return true
}

// Tick runs one pass of the dispatch loop
func (m *Manager) Tick() {
	if !m.running {
		return
	}

	now := m.clock.NowMS()
	if m.input != nil {
		m.assembler.FeedFromWhile(m.input, m.hasReplyRoom)
	}
	m.flow.Tick(now)
	m.sched.Dispatch(now)

	if m.state != StateIdle {
		return
	}
	line, ok := m.queue.Pop()
	if !ok {
		return
	}
	m.state = StateBusy
	m.execute(command.Parse(line.String()), now)
}

// execute runs cmd. Everything but a started move finishes here; a move
// returns the loop to idle from its completion callback.
func (m *Manager) execute(cmd Command, now uint32) {
	switch cmd.Kind {
	case command.Start:
		m.setStatus(StatusFileStarted)

	case command.PenUp:
		m.penAction(m.config.Pen.UpAngle, now)
		m.setStatus(StatusPenUp)

	case command.PenDown:
		m.penAction(m.config.Pen.DownAngle, now)
		m.setStatus(StatusPenDown)

	case command.End:
		m.penAction(m.config.Pen.UpAngle, now)
		m.setStatus(StatusFileDone)

	case command.MoveTo:
		if m.interp.MoveTo(cmd.A, cmd.B, now) {
			return
		}

	default:
		m.invalid++
		m.output.OutputLine(cmd.Reason.HostMessage())
		m.setStatus(StatusInvalidPrefix + cmd.Reason.String())
	}
	m.state = StateIdle
}

// penAction commands the pen servo and blocks while it settles
func (m *Manager) penAction(angle float64, now uint32) {
	out, err := m.config.Pen.Mapping.Drive(m.pen, angle)
	core.RecordTrace(core.EvtPen, 2, now, out)
	m.penActions++
	if err != nil {
		m.servoErrors++
		m.setStatus(StatusActuatorError)
	}
	if m.config.Pen.SettleMS > 0 {
		m.sleep(m.config.Pen.SettleMS)
	}
}

// GetOutput returns any pending host output and clears the buffer
func (m *Manager) GetOutput() []byte {
	if m.output.CurPosition() == 0 {
		return nil
	}

	result := m.output.Result()
	output := make([]byte, len(result))
	copy(output, result)
	m.output.Reset()
	return output
}

// IsRunning returns whether the manager is running
func (m *Manager) IsRunning() bool {
	return m.running
}

// State returns the dispatch state
func (m *Manager) State() State {
	return m.state
}

// Joints returns the angles reached by the last completed move
func (m *Manager) Joints() (a, b float64) {
	return m.interp.Current()
}

// QueueOccupancy returns the number of queued commands
func (m *Manager) QueueOccupancy() int {
	return m.queue.Occupancy()
}

// Config returns the active configuration
func (m *Manager) Config() *MachineConfig {
	return m.config
}

// Stats returns the running counters
func (m *Manager) Stats() Stats {
	return Stats{
		Lines:      m.lines,
		Dropped:    m.queue.Dropped(),
		Overflowed: m.assembler.Overflows(),
		Invalid:    m.invalid,
		Moves:      m.moves,
		PenActions: m.penActions,
		Requests:   m.flow.Requests(),
		Errors:     m.servoErrors,
	}
}
