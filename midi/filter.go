package midi

import "math"

// NoteRange is an inclusive pitch range
type NoteRange struct {
	Low, High uint8
}

func (r NoteRange) Contains(note uint8) bool {
	return note >= r.Low && note <= r.High
}

// ScaleVelocity returns a copy of loop with NoteOn velocities in r multiplied
// by scale, clamped to 1..127
func ScaleVelocity(loop *Loop, r NoteRange, scale float64) *Loop {
	return loop.Map(func(evt Event) (Event, bool) {
		if evt.IsNoteOn() && r.Contains(evt.Note) {
			v := math.Round(float64(evt.Velocity) * scale)
			evt.Velocity = uint8(math.Max(1, math.Min(127, v)))
		}
		return evt, true
	})
}

// Split separates the notes in r from the rest. Controller events stay with
// the rest.
func Split(loop *Loop, r NoteRange) (inside, outside *Loop) {
	isNote := func(evt Event) bool {
		return (evt.IsNoteOn() || evt.IsNoteOff()) && r.Contains(evt.Note)
	}
	inside = loop.Map(func(evt Event) (Event, bool) { return evt, isNote(evt) })
	outside = loop.Map(func(evt Event) (Event, bool) { return evt, !isNote(evt) })
	return inside, outside
}
