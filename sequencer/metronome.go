package sequencer

import (
	"math"

	"lightful/debug"
	"lightful/midi"
	"lightful/scheduler"
)

// Metronome is the shared beat clock. Its tick is recomputed from elapsed
// time on every call, never accumulated, so a late scheduler tick skips
// ticks instead of drifting.
type Metronome struct {
	Tempo           int // microseconds per beat
	TicksPerBeat    int
	BeatsPerMeasure int

	// OnBeat fires once per beat with the beat index within the measure
	OnBeat func(beat int)

	absTick  int // ticks since start; -1 before the first tick
	lastTime float64
	beats    int
}

func NewMetronome(tempo, ticksPerBeat, beatsPerMeasure int) *Metronome {
	return &Metronome{
		Tempo:           tempo,
		TicksPerBeat:    ticksPerBeat,
		BeatsPerMeasure: beatsPerMeasure,
		absTick:         -1,
	}
}

func (m *Metronome) Start(t float64) {
	m.absTick = -1
	m.lastTime = t
	m.beats = 0
}

// Reset returns the metronome to its not-running state, so tasks synced to
// it stop until the next Start
func (m *Metronome) Reset() {
	m.absTick = -1
	m.beats = 0
}

func (m *Metronome) Tick(t float64) {
	abs := int(math.Floor(t / midi.TickDuration(m.Tempo, m.TicksPerBeat)))

	switch {
	case abs == m.absTick:
		return
	case abs < m.absTick:
		debug.Warn("metronome", "clock went backwards: tick %d -> %d", m.absTick, abs)
		return
	case m.absTick >= 0 && abs-m.absTick > 1:
		debug.Warn("metronome", "tick jump: %d ticks (%d -> %d)", abs-m.absTick, m.CurrentTick(), abs%m.TicksPerMeasure())
	}

	prev := m.absTick
	m.absTick = abs
	m.lastTime = t

	if prev < 0 || abs/m.TicksPerBeat != prev/m.TicksPerBeat {
		m.beats++
		if m.OnBeat != nil {
			m.OnBeat(m.CurrentBeat())
		}
	}
}

func (m *Metronome) IsFinished(t float64) bool {
	return false
}

// Running reports whether the metronome has ticked since Start
func (m *Metronome) Running() bool {
	return m.absTick >= 0
}

// CurrentTick is the tick within the current measure
func (m *Metronome) CurrentTick() int {
	if m.absTick < 0 {
		return 0
	}
	return m.absTick % m.TicksPerMeasure()
}

// AbsoluteTick counts ticks since start without wrapping (-1 before the
// first tick)
func (m *Metronome) AbsoluteTick() int {
	return m.absTick
}

// CurrentBeat is the beat within the current measure
func (m *Metronome) CurrentBeat() int {
	return m.CurrentTick() / m.TicksPerBeat
}

// Measure counts completed measures since start
func (m *Metronome) Measure() int {
	if m.absTick < 0 {
		return 0
	}
	return m.absTick / m.TicksPerMeasure()
}

// Beats counts beat callbacks since start
func (m *Metronome) Beats() int {
	return m.beats
}

// CurrentTime is the current tick converted back to seconds into the measure
func (m *Metronome) CurrentTime() float64 {
	return midi.ToSeconds(m.CurrentTick(), m.Tempo, m.TicksPerBeat)
}

// LastTickTime is the task time of the last tick change
func (m *Metronome) LastTickTime() float64 {
	return m.lastTime
}

func (m *Metronome) TicksPerMeasure() int {
	return m.TicksPerBeat * m.BeatsPerMeasure
}

func (m *Metronome) SecondsPerMeasure() float64 {
	return midi.ToSeconds(m.TicksPerMeasure(), m.Tempo, m.TicksPerBeat)
}

func (m *Metronome) BPM() float64 {
	return midi.BPM(m.Tempo)
}

// SyncedTask runs its inner task on the metronome's timeline instead of its
// own: the inner task is ticked with the seconds into the current measure,
// once per metronome tick.
type SyncedTask struct {
	Metronome *Metronome
	Inner     scheduler.Task

	// Continuous re-ticks the inner task on every call at the last metronome
	// time. Animations need this to redraw each frame; event players must
	// leave it off.
	Continuous bool

	lastAbs int
}

func NewSyncedTask(m *Metronome, inner scheduler.Task) *SyncedTask {
	return &SyncedTask{Metronome: m, Inner: inner, lastAbs: -1}
}

func (s *SyncedTask) Start(t float64) {
	s.lastAbs = -1
	s.Inner.Start(0)
}

func (s *SyncedTask) Tick(t float64) {
	abs := s.Metronome.AbsoluteTick()
	if abs < 0 || (abs == s.lastAbs && !s.Continuous) {
		return
	}
	s.lastAbs = abs
	s.Inner.Tick(s.Metronome.CurrentTime())
}

func (s *SyncedTask) IsFinished(t float64) bool {
	return false
}
