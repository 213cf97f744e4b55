package scheduler

import "math"

// Task is time-driven work ticked by a Scheduler. Times are seconds on the
// task's own timeline: the scheduler starts every task at 0 and ticks it
// with the time elapsed since it was added. Tasks never read the clock.
type Task interface {
	Start(t float64)
	Tick(t float64)
	IsFinished(t float64) bool
}

// RepeatingTask restarts its inner task every Duration seconds. The inner
// task sees time wrap back to its start each period, so it must be a pure
// function of time. It never finishes on its own.
type RepeatingTask struct {
	Inner    Task
	Duration float64

	// ProgressOffset shifts the phase by a fraction of one period, to stagger
	// copies of the same animation
	ProgressOffset float64

	start float64
}

func NewRepeatingTask(inner Task, duration, progressOffset float64) *RepeatingTask {
	return &RepeatingTask{Inner: inner, Duration: duration, ProgressOffset: progressOffset}
}

func (r *RepeatingTask) Start(t float64) {
	r.start = t
	r.Inner.Start(t)
}

func (r *RepeatingTask) Tick(t float64) {
	r.Inner.Tick(r.start + r.phase(t))
}

// phase is the time into the current period, in [0, Duration)
func (r *RepeatingTask) phase(t float64) float64 {
	if r.Duration <= 0 {
		return 0
	}
	p := math.Mod(t-r.start+r.ProgressOffset*r.Duration, r.Duration)
	if p < 0 {
		p += r.Duration
	}
	return p
}

func (r *RepeatingTask) IsFinished(t float64) bool {
	return false
}

// GateState is the state of a GatedTask
type GateState int

const (
	// Armed holds the inner task on its first frame
	Armed GateState = iota
	// Releasing runs the inner task from the release time onward
	Releasing
)

func (s GateState) String() string {
	if s == Releasing {
		return "releasing"
	}
	return "armed"
}

// GatedTask freezes its inner task on the first frame until Release is
// called (typically from a MIDI note-off), then plays it from the start.
type GatedTask struct {
	Inner Task

	start       float64
	state       GateState
	pending     bool
	releaseTime float64
}

func NewGatedTask(inner Task) *GatedTask {
	return &GatedTask{Inner: inner}
}

func (g *GatedTask) Start(t float64) {
	g.start = t
	g.state = Armed
	g.pending = false
	g.Inner.Start(t)
}

// Release opens the gate. The release time is taken from the next Tick so
// the gate never has to read a clock. Releasing twice is a no-op.
func (g *GatedTask) Release() {
	if g.state == Armed {
		g.pending = true
	}
}

func (g *GatedTask) State() GateState {
	return g.state
}

func (g *GatedTask) Tick(t float64) {
	if g.state == Armed && g.pending {
		g.state = Releasing
		g.releaseTime = t
		g.pending = false
	}
	if g.state == Armed {
		g.Inner.Tick(g.start)
		return
	}
	g.Inner.Tick(g.rebase(t))
}

func (g *GatedTask) rebase(t float64) float64 {
	return g.start + (t - g.releaseTime)
}

func (g *GatedTask) IsFinished(t float64) bool {
	if g.state == Armed {
		return false
	}
	return g.Inner.IsFinished(g.rebase(t))
}

// FuncTask adapts a tick function to Task. It finishes once Done returns
// true (never, when Done is nil).
type FuncTask struct {
	OnTick func(t float64)
	Done   func(t float64) bool
}

func (f *FuncTask) Start(t float64) {}

func (f *FuncTask) Tick(t float64) {
	if f.OnTick != nil {
		f.OnTick(t)
	}
}

func (f *FuncTask) IsFinished(t float64) bool {
	return f.Done != nil && f.Done(t)
}
