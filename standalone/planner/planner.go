// Package planner executes linear two-joint moves as scheduler-driven step
// sequences.
package planner

import (
	"math"
	"strconv"

	"penarm/core"
)

// Joint binds one logical joint to its servo output
type Joint struct {
	Name     string
	Driver   core.ServoDriver
	Mapping  core.ServoMapping
	MinAngle float64
	MaxAngle float64
	Initial  float64
}

// clamp limits deg to the joint's range, itself inside [0, 180]
func (j *Joint) clamp(deg float64) float64 {
	return core.ClampAngle(max(j.MinAngle, min(deg, j.MaxAngle)))
}

// Config holds the timing parameters of an interpolated move
type Config struct {
	StepDelayMS uint32 // time between steps
	MinSteps    int    // lower bound on steps per move
}

// Interpolator moves two joints together from their current angles to a
// target, one step per timer firing. Only one move runs at a time.
type Interpolator struct {
	sched  *core.Scheduler
	joints [2]Joint
	config Config

	current [2]float64 // angles reached by the last completed move
	start   [2]float64
	dest    [2]float64
	steps   int
	step    int
	busy    bool
	timer   core.Timer

	onDone  func()
	onError func(joint int, err error)

	writes uint32
}

// NewInterpolator creates an interpolator that runs its steps on sched
func NewInterpolator(sched *core.Scheduler, joints [2]Joint, config Config) *Interpolator {
	if config.MinSteps < 1 {
		config.MinSteps = 1
	}
	ip := &Interpolator{
		sched:  sched,
		joints: joints,
		config: config,
	}
	for i := range ip.joints {
		if ip.joints[i].MaxAngle == 0 {
			ip.joints[i].MaxAngle = core.AngleMax
		}
		ip.current[i] = ip.joints[i].clamp(ip.joints[i].Initial)
	}
	ip.timer.Handler = ip.stepHandler
	return ip
}

// SetCallbacks registers the move-complete and driver-error callbacks
func (ip *Interpolator) SetCallbacks(onDone func(), onError func(joint int, err error)) {
	ip.onDone = onDone
	ip.onError = onError
}

// Home drives both joints straight to their initial angles without
// interpolation. It returns the first driver error.
func (ip *Interpolator) Home() error {
	var first error
	for i := range ip.joints {
		target := ip.joints[i].clamp(ip.joints[i].Initial)
		if err := ip.write(i, target); err != nil && first == nil {
			first = err
		}
		ip.current[i] = target
	}
	return first
}

// MoveTo starts a move to (a, b) at time now. Targets are clamped to each
// joint's range. It returns false without touching the servos when the
// clamped target equals the current position or a move is already running.
func (ip *Interpolator) MoveTo(a, b float64, now uint32) bool {
	if ip.busy {
		return false
	}

	dest := [2]float64{ip.joints[0].clamp(a), ip.joints[1].clamp(b)}
	da := math.Abs(dest[0] - ip.current[0])
	db := math.Abs(dest[1] - ip.current[1])
	if da == 0 && db == 0 {
		return false
	}

	ip.start = ip.current
	ip.dest = dest
	ip.steps = max(int(math.Round(max(da, db))), ip.config.MinSteps)
	ip.step = 0
	ip.busy = true

	core.RecordTrace(core.EvtMoveStart, 0xFF, now, float64(ip.steps))
	if core.IsDebugEnabled() {
		core.DebugPrintln("[PLAN] move " + fmtAngle(dest[0]) + "," + fmtAngle(dest[1]) +
			" steps=" + strconv.Itoa(ip.steps))
	}

	ip.timer.WakeTime = now
	ip.sched.Schedule(&ip.timer)
	return true
}

// stepHandler writes one interpolation step per firing. The firing after the
// last step's delay completes the move.
func (ip *Interpolator) stepHandler(t *core.Timer) uint8 {
	if ip.step >= ip.steps {
		ip.finish()
		return core.SF_DONE
	}

	ip.step++
	frac := float64(ip.step) / float64(ip.steps)
	for i := range ip.joints {
		angle := ip.start[i] + (ip.dest[i]-ip.start[i])*frac
		if err := ip.write(i, angle); err != nil && ip.onError != nil {
			ip.onError(i, err)
		}
	}

	t.WakeTime += ip.config.StepDelayMS
	return core.SF_RESCHEDULE
}

func (ip *Interpolator) finish() {
	ip.current = ip.dest
	ip.busy = false
	core.RecordTrace(core.EvtMoveDone, 0xFF, ip.sched.Now(), 0)
	if ip.onDone != nil {
		ip.onDone()
	}
}

func (ip *Interpolator) write(joint int, angle float64) error {
	j := &ip.joints[joint]
	out, err := j.Mapping.Drive(j.Driver, j.clamp(angle))
	ip.writes++
	core.RecordTrace(core.EvtStep, uint8(joint), ip.sched.Now(), out)
	if core.IsDebugEnabled() {
		core.DebugPrintln("[PLAN] " + j.Name + " " + fmtAngle(angle) + " -> " + fmtAngle(out))
	}
	return err
}

// Cancel abandons the running move. The joints stay wherever the last step
// left them; Current still reports the last completed target.
func (ip *Interpolator) Cancel() {
	if !ip.busy {
		return
	}
	ip.sched.Cancel(&ip.timer)
	ip.busy = false
}

// Busy reports whether a move is in progress
func (ip *Interpolator) Busy() bool {
	return ip.busy
}

// Current returns the joint angles of the last completed move
func (ip *Interpolator) Current() (a, b float64) {
	return ip.current[0], ip.current[1]
}

// Progress returns the steps written and the total of the running move
func (ip *Interpolator) Progress() (step, steps int) {
	return ip.step, ip.steps
}

// Writes returns the number of servo writes issued since creation
func (ip *Interpolator) Writes() uint32 {
	return ip.writes
}

func fmtAngle(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
