package show

import (
	"fmt"
	"math"

	"lightful/debug"
	"lightful/light"
	"lightful/midi"
	"lightful/scheduler"
	"lightful/sequencer"
	"lightful/theme"
)

var (
	BlueBG    = light.MakeColor(0, 35, 50)
	GreenBG   = light.MakeColor(0, 60, 30)
	Yellow    = light.MakeColor(220, 200, 60)
	Orange    = light.MakeColor(220, 140, 60)
	OrangeRed = light.MakeColor(220, 100, 60)
	Red       = light.MakeColor(160, 40, 40)
	Purple    = light.RGBA(150, 20, 140, 127)
)

const (
	// background rows tick first so note effects land on top of them
	PriorityBackground = -10

	baseDuration = 7.0

	columnTag         = "metronome-column"
	columnSubMeasures = 2
	columnThreshold   = 0.05
)

// Looper is what the show needs from the looper
type Looper interface {
	IsStarted() bool
	RecordingChannel() (uint8, bool)
	Metronome() *sequencer.Metronome
}

// Builder makes a fresh task for one triggering note
type Builder func(evt midi.Event) scheduler.Task

type noteKey struct {
	pitch, channel uint8
}

// Show turns notes into light effects on the door strip: four rows of 20
// LEDs with a slowly breathing blue/green background.
type Show struct {
	sched   *scheduler.Scheduler
	factory *light.Factory
	hub     *midi.Hub
	palette *theme.Palette
	looper  Looper

	notes map[noteKey]Builder

	Rows  [4]light.Section
	All   light.Section
	All16 light.Section // the middle 16 LEDs of each row

	triggered int
}

// New builds the show and registers it on the hub. palette may be nil.
func New(sched *scheduler.Scheduler, strip light.Strip, hub *midi.Hub, palette *theme.Palette) *Show {
	s := &Show{
		sched:   sched,
		factory: light.NewFactory(strip, hub),
		hub:     hub,
		palette: palette,
		notes:   make(map[noteKey]Builder),
	}

	s.Rows = [4]light.Section{
		light.Range(10, 30),
		light.Range(50, 30),
		light.Range(60, 80),
		light.Range(100, 80),
	}
	s.All = light.MergeAll(s.Rows[:]...)
	var inner []light.Section
	for _, row := range s.Rows {
		inner = append(inner, row.Slice(2, -2))
	}
	s.All16 = light.MergeAll(inner...)

	s.mapNotes()
	s.initLights()
	hub.Register(s)
	return s
}

func (s *Show) mapNotes() {
	f := s.factory

	// channel 1 high: main melody
	for pitch, pos := range EvenlySpaced(CMajor(58, 92), s.Rows[3].Positions) {
		section := light.Range(pos, pos+2)
		s.notes[noteKey{pitch, 1}] = func(evt midi.Event) scheduler.Task {
			return f.NoteOff(light.SolidColor{Color: Yellow}, section, 0.15, evt.Note, evt.Channel)
		}
	}

	// channel 1 low: stands in for the bass channel
	for pitch, pos := range EvenlySpaced(CMajor(36, 50), s.Rows[3].Positions) {
		section := light.NewSection(pos)
		s.notes[noteKey{pitch, 1}] = func(evt midi.Event) scheduler.Task {
			return f.NoteOff(light.SolidColor{Color: Yellow}, section, 0.15, evt.Note, evt.Channel)
		}
	}

	// channel 2: every bass note sends a meteor up row 1
	meteorRow := s.Rows[0].Reversed()
	for _, pitch := range CMajor(24, 48) {
		s.notes[noteKey{pitch, 2}] = func(evt midi.Event) scheduler.Task {
			return f.Task(light.Meteor{Color: Purple}, meteorRow, 1.2)
		}
	}

	for pitch, pos := range EvenlySpaced(CMajor(36, 66), s.Rows[1].Positions) {
		section := light.Range(pos-2, pos+2)
		s.notes[noteKey{pitch, 3}] = func(evt midi.Event) scheduler.Task {
			return f.Task(light.SolidColor{Color: Red.WithAlpha(0.3)}, section, 0.5)
		}
	}

	for pitch, pos := range EvenlySpaced(CMajor(48, 80), s.Rows[2].Positions) {
		section := light.Range(pos-2, pos+3)
		s.notes[noteKey{pitch, 4}] = func(evt midi.Event) scheduler.Task {
			return f.Task(light.SolidColor{Color: OrangeRed.WithAlpha(0.35)}, section, 0.5)
		}
	}
}

// builder finds the effect for a note. Channels past 4 flash a palette
// sweep across one row.
func (s *Show) builder(pitch, channel uint8) (Builder, bool) {
	if b, ok := s.notes[noteKey{pitch, channel}]; ok {
		return b, true
	}
	if channel <= 4 || s.palette == nil {
		return nil, false
	}
	row := s.Rows[int(channel-5)%len(s.Rows)]
	effect := light.PaletteEffect{Palette: s.palette, Scroll: float64(pitch%12) / 12, Fade: true}
	return func(evt midi.Event) scheduler.Task {
		return s.factory.Task(effect, row, 0.5)
	}, true
}

func (s *Show) initLights() {
	for i, row := range s.Rows {
		task := s.factory.Repeating(light.Gradient{From: BlueBG, To: GreenBG}, row, baseDuration, float64(i)*0.1)
		s.sched.Add(task, scheduler.WithPriority(PriorityBackground))
	}
	if s.looper != nil {
		s.addMetronomeColumn()
	}
}

// AttachLooper links the show to a looper: live notes light up as the
// channel being recorded, and a column of light sweeps with the metronome.
func (s *Show) AttachLooper(l Looper) {
	s.looper = l
	s.addMetronomeColumn()
	debug.Log("show", "attached looper, started=%v", l.IsStarted())
}

func (s *Show) addMetronomeColumn() {
	m := s.looper.Metronome()
	task := s.factory.Task(light.Func(columnColor), s.All16.Reversed(), m.SecondsPerMeasure())
	synced := sequencer.NewSyncedTask(m, task)
	synced.Continuous = true
	s.sched.Add(synced, scheduler.WithTag(columnTag))
}

// columnColor lights the LEDs near the playhead; a metronome measure spans
// two passes of the column
func columnColor(progress, gradient float64) light.Color {
	progress = math.Mod(progress*columnSubMeasures, 1)
	delta := math.Abs(progress - gradient)
	if delta < columnThreshold {
		return Yellow.WithAlpha((1 - delta/columnThreshold) * 0.6)
	}
	return Yellow.WithAlpha(0)
}

func (s *Show) ReceivedMIDI(evt midi.Event) {
	if !evt.IsNoteOn() {
		return
	}

	// while a loop channel records, live notes look like that channel
	channel := evt.Channel
	if channel == midi.LiveChannel && s.looper != nil {
		if rec, ok := s.looper.RecordingChannel(); ok {
			channel = rec
		}
	}

	build, ok := s.builder(evt.Note, channel)
	if !ok {
		return
	}

	var opts []scheduler.Option
	if channel == midi.LiveChannel {
		opts = append(opts, scheduler.WithTag(fmt.Sprintf("note/%d/%d", channel, evt.Note)))
	}
	s.sched.Add(build(evt), opts...)
	s.triggered++
}

// Reset drops every running effect and restarts the background
func (s *Show) Reset() {
	s.sched.Clear()
	s.initLights()
	debug.Info("show", "lights reset")
}

// Blackout drops every effect and paints the whole strip black. The caller
// pushes the frame.
func (s *Show) Blackout() {
	s.sched.Clear()
	s.sched.Add(s.factory.Task(light.SolidColor{Color: light.Black}, s.All, 1))
	s.sched.Tick()
	debug.Info("show", "blackout")
}

// Triggered counts notes that started an effect
func (s *Show) Triggered() int {
	return s.triggered
}

// Mapped counts the (pitch, channel) pairs with a dedicated effect
func (s *Show) Mapped() int {
	return len(s.notes)
}

func (s *Show) Close() {
	s.hub.Unregister(s)
}
