package midi

import "sort"

// Loop is one measure of recorded events keyed by tick within the measure.
// A tick may hold several events (chords); order within a tick is arrival
// order.
type Loop struct {
	Tempo           int // microseconds per beat
	TicksPerBeat    int
	BeatsPerMeasure int

	// Offset is how far into the measure recording started, in ticks
	Offset int

	Events map[int][]Event
}

func NewLoop(tempo, ticksPerBeat, beatsPerMeasure int) *Loop {
	return &Loop{
		Tempo:           tempo,
		TicksPerBeat:    ticksPerBeat,
		BeatsPerMeasure: beatsPerMeasure,
		Events:          make(map[int][]Event),
	}
}

func (l *Loop) TicksPerMeasure() int {
	return l.TicksPerBeat * l.BeatsPerMeasure
}

// Add appends an event at tick (wrapped into the measure)
func (l *Loop) Add(tick int, evt Event) {
	tick = wrapTick(tick, l.TicksPerMeasure())
	l.Events[tick] = append(l.Events[tick], evt)
}

// At returns the events recorded at tick
func (l *Loop) At(tick int) []Event {
	return l.Events[tick]
}

// Ticks returns the ticks holding events, ascending
func (l *Loop) Ticks() []int {
	ticks := make([]int, 0, len(l.Events))
	for tick, evts := range l.Events {
		if len(evts) > 0 {
			ticks = append(ticks, tick)
		}
	}
	sort.Ints(ticks)
	return ticks
}

// Len returns the total number of events
func (l *Loop) Len() int {
	n := 0
	for _, evts := range l.Events {
		n += len(evts)
	}
	return n
}

// Clone returns a deep copy
func (l *Loop) Clone() *Loop {
	c := *l
	c.Events = make(map[int][]Event, len(l.Events))
	for tick, evts := range l.Events {
		c.Events[tick] = append([]Event(nil), evts...)
	}
	return &c
}

// Map returns a copy with fn applied to each event; events for which fn
// returns false are dropped
func (l *Loop) Map(fn func(Event) (Event, bool)) *Loop {
	c := *l
	c.Events = make(map[int][]Event, len(l.Events))
	for tick, evts := range l.Events {
		for _, evt := range evts {
			if out, keep := fn(evt); keep {
				c.Events[tick] = append(c.Events[tick], out)
			}
		}
	}
	return &c
}

func wrapTick(tick, measure int) int {
	if measure <= 0 {
		return tick
	}
	tick %= measure
	if tick < 0 {
		tick += measure
	}
	return tick
}
