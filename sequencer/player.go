package sequencer

import (
	"sort"

	"lightful/debug"
	"lightful/midi"
)

// Sender is where the player writes events (the hub, so playback both
// reaches the MIDI output and drives the lights)
type Sender interface {
	Send(evt midi.Event) error
}

// Player replays a loop. Wrap it in a SyncedTask: it is ticked with seconds
// into the measure and emits every event keyed at the matching tick. Ticks
// skipped by a late scheduler tick are caught up, so nothing is dropped.
type Player struct {
	loop         *midi.Loop
	out          Sender
	tempo        int
	ticksPerBeat int
	measure      int

	lastTick int
	active   map[uint8]bool // notes left sounding, by pitch
	sustain  bool
	channel  uint8
}

// NewPlayer plays loop against the metronome's timing
func NewPlayer(loop *midi.Loop, out Sender, m *Metronome, channel uint8) *Player {
	return &Player{
		loop:         loop,
		out:          out,
		tempo:        m.Tempo,
		ticksPerBeat: m.TicksPerBeat,
		measure:      m.TicksPerMeasure(),
		lastTick:     -1,
		active:       make(map[uint8]bool),
		channel:      channel,
	}
}

func (p *Player) Start(t float64) {
	p.lastTick = -1
}

func (p *Player) Tick(t float64) {
	tick := midi.ToTicks(t, p.tempo, p.ticksPerBeat) % p.measure

	if p.lastTick < 0 {
		p.lastTick = tick
		p.play(tick)
		return
	}

	gap := (tick - p.lastTick + p.measure) % p.measure
	if gap == 0 {
		return
	}
	if gap > 1 {
		debug.Log("player", "ch%d: catching up %d ticks", p.channel, gap)
	}
	for i := 1; i <= gap; i++ {
		p.play((p.lastTick + i) % p.measure)
	}
	p.lastTick = tick
}

func (p *Player) IsFinished(t float64) bool {
	return false
}

func (p *Player) play(tick int) {
	for _, evt := range p.loop.At(tick) {
		p.emit(evt)
	}
}

func (p *Player) emit(evt midi.Event) {
	switch {
	case evt.IsNoteOn():
		p.active[evt.Note] = true
	case evt.IsNoteOff():
		delete(p.active, evt.Note)
	case evt.IsSustain():
		p.sustain = evt.SustainOn()
	}
	p.out.Send(evt)
}

// ActiveNotes returns the pitches currently sounding, ascending
func (p *Player) ActiveNotes() []uint8 {
	notes := make([]uint8, 0, len(p.active))
	for n := range p.active {
		notes = append(notes, n)
	}
	sort.Slice(notes, func(i, j int) bool { return notes[i] < notes[j] })
	return notes
}

// Silence sends NoteOff for every sounding note and releases a held pedal
func (p *Player) Silence() {
	for _, n := range p.ActiveNotes() {
		p.emit(midi.NoteOffEvent(p.channel, n))
	}
	if p.sustain {
		p.emit(midi.ControlEvent(p.channel, midi.SustainPedal, 0))
	}
}
