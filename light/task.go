package light

import (
	"math"

	"lightful/midi"
	"lightful/scheduler"
)

// EffectTask animates an effect over a section for Duration seconds,
// blending each frame over whatever is already on the strip.
type EffectTask struct {
	Effect   Effect
	Section  Section
	Duration float64

	strip Strip
	start float64
}

func NewEffectTask(strip Strip, effect Effect, section Section, duration float64) *EffectTask {
	return &EffectTask{Effect: effect, Section: section, Duration: duration, strip: strip}
}

func (e *EffectTask) Start(t float64) {
	e.start = t
}

func (e *EffectTask) Tick(t float64) {
	progress := e.Progress(t)
	for i, pos := range e.Section.Positions {
		c := e.Effect.ColorAt(progress, e.Section.Gradients[i])
		e.strip.SetColor(pos, c.BlendedWith(e.strip.Color(pos)))
	}
}

func (e *EffectTask) IsFinished(t float64) bool {
	return e.Progress(t) >= 1
}

// Progress is elapsed/Duration clamped to [0, 1]
func (e *EffectTask) Progress(t float64) float64 {
	if e.Duration <= 0 {
		return 1
	}
	return math.Max(0, math.Min((t-e.start)/e.Duration, 1))
}

// Factory builds effect tasks bound to one strip and hub
type Factory struct {
	strip Strip
	hub   *midi.Hub
}

func NewFactory(strip Strip, hub *midi.Hub) *Factory {
	return &Factory{strip: strip, hub: hub}
}

func (f *Factory) Strip() Strip {
	return f.strip
}

func (f *Factory) Task(effect Effect, section Section, duration float64) *EffectTask {
	return NewEffectTask(f.strip, effect, section, duration)
}

// Repeating loops the effect every duration seconds, phase-shifted by
// offset (a fraction of one period)
func (f *Factory) Repeating(effect Effect, section Section, duration, offset float64) *scheduler.RepeatingTask {
	return scheduler.NewRepeatingTask(f.Task(effect, section, duration), duration, offset)
}

// NoteOff holds the effect on its first frame until the note is released
// on channel, then plays it out
func (f *Factory) NoteOff(effect Effect, section Section, duration float64, pitch, channel uint8) *NoteGate {
	return &NoteGate{
		GatedTask: scheduler.NewGatedTask(f.Task(effect, section, duration)),
		Pitch:     pitch,
		Channel:   channel,
		hub:       f.hub,
	}
}

// NoteGate is a GatedTask released by a NoteOff. It observes the hub from
// Start until the matching NoteOff arrives.
type NoteGate struct {
	*scheduler.GatedTask
	Pitch   uint8
	Channel uint8

	hub *midi.Hub
}

func (n *NoteGate) Start(t float64) {
	n.GatedTask.Start(t)
	if n.hub != nil {
		n.hub.Register(n)
	}
}

func (n *NoteGate) ReceivedMIDI(evt midi.Event) {
	if !evt.IsNoteOff() || evt.Note != n.Pitch || evt.Channel != n.Channel {
		return
	}
	n.Release()
	n.hub.Unregister(n)
}
