package sequencer

import (
	"lightful/debug"
	"lightful/midi"
)

// Recorder captures live input into a loop, keyed by the metronome tick at
// arrival. Register it with the hub; it ignores everything that is not on
// the live channel so loop playback is never re-recorded.
type Recorder struct {
	Channel uint8 // logical loop channel written into recorded events

	metronome *Metronome
	loop      *midi.Loop
	recording bool
	pedalOn   bool
}

func NewRecorder(channel uint8, m *Metronome) *Recorder {
	return &Recorder{
		Channel:   channel,
		metronome: m,
		loop:      midi.NewLoop(m.Tempo, m.TicksPerBeat, m.BeatsPerMeasure),
		recording: true,
	}
}

func (r *Recorder) ReceivedMIDI(evt midi.Event) {
	if !r.recording || evt.Channel != midi.LiveChannel {
		return
	}

	switch evt.Type {
	case midi.NoteOn, midi.NoteOff:
	case midi.CC:
		if !evt.IsSustain() {
			debug.Log("recorder", "ch%d: dropped %s", r.Channel, evt)
			return
		}
		on := evt.SustainOn()
		if on == r.pedalOn {
			return
		}
		r.pedalOn = on
	default:
		debug.Log("recorder", "ch%d: dropped %s", r.Channel, evt)
		return
	}

	tick := r.metronome.CurrentTick()
	r.loop.Add(tick, evt.WithChannel(r.Channel))
	debug.Log("recorder", "ch%d tick %d: %s", r.Channel, tick, evt)
}

// Stop ends recording; the loop is immutable from here on
func (r *Recorder) Stop() {
	r.recording = false
}

func (r *Recorder) IsRecording() bool {
	return r.recording
}

func (r *Recorder) Loop() *midi.Loop {
	return r.loop
}
