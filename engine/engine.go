// Package engine runs the control loop: MIDI scheduling, input, the light
// show and the hardware strip on a single goroutine.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"lightful/debug"
	"lightful/light"
	"lightful/midi"
	"lightful/scheduler"
	"lightful/sequencer"
	"lightful/show"
	"lightful/theme"
)

var (
	ErrUnknownAction = errors.New("unknown looper action")
	ErrNotRunning    = errors.New("engine is not running")
)

// Actions accepted by Manager.Action
var Actions = []string{"record", "save", "cancel", "play", "pause", "clear", "write"}

const (
	statusInterval = time.Second / 30
	callTimeout    = 2 * time.Second
	loopSleep      = time.Millisecond
)

type Options struct {
	Tempo           int // microseconds per beat
	TicksPerBeat    int
	BeatsPerMeasure int

	Strip   light.Strip
	Palette *theme.Palette
	Project string

	// Clock defaults to the wall clock
	Clock scheduler.Clock

	// OnBeat runs on the control loop once per metronome beat
	OnBeat func(beat int)

	Profile bool
}

// Manager owns every piece of the installation and drives them from Run.
// Other goroutines talk to it through Do and the blocking helpers built on
// it; Status and UpdateChan are the read side.
type Manager struct {
	hub       *midi.Hub
	midiSched *scheduler.Scheduler
	animSched *scheduler.Scheduler
	strip     light.Strip
	looper    *sequencer.Looper
	show      *show.Show
	devices   *midi.DeviceManager
	surface   *Surface
	profiler  *Profiler

	project  string
	selected uint8
	message  string

	commands    chan func(*Manager)
	lastPublish time.Time

	mu     sync.RWMutex
	status Status

	// UpdateChan is signalled (without blocking) after each status publish
	UpdateChan chan struct{}
}

func New(opts Options) *Manager {
	clock := opts.Clock
	if clock == nil {
		clock = scheduler.WallClock()
	}
	strip := opts.Strip
	if strip == nil {
		strip = light.NewBuffer(100)
	}
	project := opts.Project
	if project == "" {
		project = "untitled"
	}

	m := &Manager{
		hub:        midi.NewHub(),
		midiSched:  scheduler.New("midi", clock),
		animSched:  scheduler.New("animation", clock),
		strip:      strip,
		profiler:   NewProfiler(opts.Profile),
		project:    project,
		selected:   midi.LiveChannel + 1,
		commands:   make(chan func(*Manager), 64),
		UpdateChan: make(chan struct{}, 1),
	}

	metronome := sequencer.NewMetronome(opts.Tempo, opts.TicksPerBeat, opts.BeatsPerMeasure)
	if opts.OnBeat != nil {
		metronome.OnBeat = opts.OnBeat
	}
	m.looper = sequencer.NewLooper(m.midiSched, m.hub, metronome)
	m.show = show.New(m.animSched, strip, m.hub, opts.Palette)
	m.show.AttachLooper(m.looper)
	m.publish()
	return m
}

// Hub is the MIDI hub; Enqueue on it is safe from any goroutine
func (m *Manager) Hub() *midi.Hub { return m.hub }

// Looper and Show may only be used from inside a command
func (m *Manager) Looper() *sequencer.Looper { return m.looper }
func (m *Manager) Show() *show.Show           { return m.show }

// AttachDevices hands hot-plug handling to dm, which must feed this
// manager's hub. Run starts it.
func (m *Manager) AttachDevices(dm *midi.DeviceManager) {
	m.devices = dm
}

// Run drives the control loop until ctx is cancelled, then blacks out the
// strip and stops the looper
func (m *Manager) Run(ctx context.Context) error {
	var deviceEvents <-chan midi.DeviceEvent
	if m.devices != nil {
		go m.devices.Run(ctx)
		deviceEvents = m.devices.Events()
	}

	debug.Info("engine", "running: %.1f bpm, %d pixels, project %q", m.looper.Metronome().BPM(), m.strip.Len(), m.project)
	for {
		select {
		case <-ctx.Done():
			m.shutdown()
			return ctx.Err()
		case evt, ok := <-deviceEvents:
			if !ok {
				deviceEvents = nil
				break
			}
			m.deviceEvent(evt)
		default:
		}
		m.Step()
		time.Sleep(loopSleep)
	}
}

// Step runs one iteration of the control loop
func (m *Manager) Step() {
	m.profiler.Measure("midi tick", m.midiSched.Tick)
	m.profiler.Measure("midi poll", func() { m.hub.Poll() })
	m.drainCommands()
	m.drainPads()

	if m.strip.Ready() {
		m.profiler.Measure("animation tick", m.animSched.Tick)
		m.profiler.Measure("push", func() {
			if err := m.strip.Push(); err != nil {
				debug.LogEvery(100, "strip", "push: %v", err)
			}
		})
	}

	if time.Since(m.lastPublish) >= statusInterval {
		m.publish()
	}
	m.profiler.Report()
}

func (m *Manager) drainCommands() {
	for {
		select {
		case fn := <-m.commands:
			fn(m)
		default:
			return
		}
	}
}

func (m *Manager) drainPads() {
	if m.surface == nil {
		return
	}
	for {
		select {
		case evt, ok := <-m.surface.Pads():
			if !ok {
				return
			}
			m.handlePad(evt)
		default:
			return
		}
	}
}

func (m *Manager) deviceEvent(evt midi.DeviceEvent) {
	switch evt.Type {
	case midi.DeviceConnected:
		debug.Info("engine", "%s connected: %s", evt.Controller.Type(), evt.ID)
		if evt.Controller.Type() == midi.ControllerLaunchpad && m.surface == nil {
			m.surface = NewSurface(evt.Controller)
		}
	case midi.DeviceDisconnected:
		debug.Info("engine", "disconnected: %s", evt.ID)
		if m.surface != nil && m.surface.ID() == evt.ID {
			m.surface = nil
		}
	}
	m.publish()
}

func (m *Manager) shutdown() {
	m.drainCommands()
	m.looper.Stop()
	m.show.Blackout()

	deadline := time.Now().Add(100 * time.Millisecond)
	for !m.strip.Ready() && time.Now().Before(deadline) {
		time.Sleep(loopSleep)
	}
	if err := m.strip.Push(); err != nil {
		debug.Warn("engine", "final blackout: %v", err)
	}
	m.show.Close()
	m.publish()
	debug.Info("engine", "stopped")
}

// Do queues fn to run on the control loop
func (m *Manager) Do(fn func(*Manager)) {
	m.commands <- fn
}

// call runs fn on the control loop and waits for its result
func (m *Manager) call(fn func(*Manager) error) error {
	done := make(chan error, 1)
	cmd := func(m *Manager) {
		err := fn(m)
		m.report(err)
		m.publish()
		done <- err
	}

	select {
	case m.commands <- cmd:
	case <-time.After(callTimeout):
		return ErrNotRunning
	}
	select {
	case err := <-done:
		return err
	case <-time.After(callTimeout):
		return ErrNotRunning
	}
}

func (m *Manager) report(err error) {
	if err != nil {
		m.message = err.Error()
		debug.Warn("engine", "%v", err)
	}
}

// publish snapshots the engine for readers on other goroutines
func (m *Manager) publish() {
	metronome := m.looper.Metronome()
	st := Status{
		Started:         m.looper.IsStarted(),
		BPM:             metronome.BPM(),
		TicksPerMeasure: metronome.TicksPerMeasure(),
		BeatsPerMeasure: metronome.BeatsPerMeasure,
		Selected:        m.selected,
		Channels:        m.looper.Channels(),
		Sustain:         m.hub.SustainOn(),
		StripReady:      m.strip.Ready(),
		MIDITasks:       m.midiSched.Len(),
		AnimationTasks:  m.animSched.Len(),
		Triggered:       m.show.Triggered(),
		Project:         m.project,
		Message:         m.message,
	}
	if st.Started && metronome.Running() {
		st.Tick = metronome.CurrentTick()
		st.Beat = metronome.CurrentBeat()
		st.Measure = metronome.Measure()
	}

	st.Pixels = make([]light.Color, m.strip.Len())
	for i := range st.Pixels {
		st.Pixels[i] = m.strip.Color(i)
	}
	if b, ok := m.strip.(interface{ Pushes() int }); ok {
		st.Pushes = b.Pushes()
	}

	if m.devices != nil {
		st.Output = m.devices.OutputName()
		for id := range m.devices.Controllers() {
			st.Devices = append(st.Devices, id)
		}
		sort.Strings(st.Devices)
	}

	if m.surface != nil {
		m.surface.Flush(RenderLEDs(st))
	}

	m.mu.Lock()
	m.status = st
	m.mu.Unlock()
	m.lastPublish = time.Now()

	select {
	case m.UpdateChan <- struct{}{}:
	default:
	}
}

// Status returns the last published snapshot
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Commands. These run on the control loop and block until it has run them.

// StartLooper starts the metronome
func (m *Manager) StartLooper() error {
	return m.call(func(m *Manager) error {
		m.looper.Start()
		return nil
	})
}

// StopLooper pauses every channel and stops the metronome
func (m *Manager) StopLooper() error {
	return m.call(func(m *Manager) error {
		m.looper.Stop()
		return nil
	})
}

// Select makes ch the channel the TUI keys act on
func (m *Manager) Select(ch uint8) error {
	return m.call(func(m *Manager) error {
		if ch <= midi.LiveChannel || ch > 16 {
			return fmt.Errorf("%w: %d", sequencer.ErrInvalidChannel, ch)
		}
		m.selected = ch
		return nil
	})
}

// Action runs a named looper action on ch
func (m *Manager) Action(ch uint8, action string) error {
	return m.call(func(m *Manager) error {
		return m.action(ch, action)
	})
}

func (m *Manager) action(ch uint8, action string) error {
	l := m.looper
	switch action {
	case "record":
		return l.Record(ch)
	case "save":
		return l.SaveRecord(ch)
	case "cancel":
		return l.CancelRecord(ch)
	case "play":
		return l.Play(ch)
	case "pause":
		return l.Pause(ch)
	case "clear":
		return l.Clear(ch)
	case "write":
		_, err := m.writeLoop(ch)
		return err
	}
	return fmt.Errorf("%w: %q", ErrUnknownAction, action)
}

// ToggleRecord starts recording on ch, or saves the recording in progress
func (m *Manager) ToggleRecord(ch uint8) error {
	return m.call(func(m *Manager) error {
		if m.looper.IsRecording(ch) {
			return m.looper.SaveRecord(ch)
		}
		return m.looper.Record(ch)
	})
}

// Cycle steps ch through its lifecycle the way a loop pedal does: record,
// then save and play, then pause and play again. Runs on the control loop.
func (m *Manager) Cycle(ch uint8) error {
	l := m.looper
	switch l.State(ch) {
	case sequencer.Idle:
		return l.Record(ch)
	case sequencer.Recording:
		if err := l.SaveRecord(ch); err != nil {
			return err
		}
		return l.Play(ch)
	case sequencer.Playing:
		return l.Pause(ch)
	}
	return l.Play(ch)
}

// WriteLoop saves the loop on ch into the project and returns the file name
func (m *Manager) WriteLoop(ch uint8) (string, error) {
	var name string
	err := m.call(func(m *Manager) error {
		var err error
		name, err = m.writeLoop(ch)
		return err
	})
	return name, err
}

func (m *Manager) writeLoop(ch uint8) (string, error) {
	loop, err := m.looper.Export(ch)
	if err != nil {
		return "", err
	}
	name, err := sequencer.SaveLoop(m.project, ch, loop)
	if err != nil {
		return "", err
	}
	m.message = "saved " + name
	return name, nil
}

// LoadLoop reads a project save onto ch
func (m *Manager) LoadLoop(ch uint8, filename string) error {
	return m.call(func(m *Manager) error {
		loop, info, err := sequencer.LoadLoop(m.project, filename, m.looper.Metronome().TicksPerBeat)
		if err != nil {
			return err
		}
		if err := m.looper.Import(ch, loop); err != nil {
			return err
		}
		m.message = "loaded " + info.Filename
		return nil
	})
}

// Inject plays a virtual note as if it came from the live keyboard: it is
// sent to the output and dispatched to the looper and the show
func (m *Manager) Inject(evt midi.Event) error {
	return m.call(func(m *Manager) error {
		return m.hub.Send(evt)
	})
}

// Blackout drops every light effect and paints the strip black
func (m *Manager) Blackout() error {
	return m.call(func(m *Manager) error {
		m.show.Blackout()
		return nil
	})
}

// ResetLights restarts the background animation
func (m *Manager) ResetLights() error {
	return m.call(func(m *Manager) error {
		m.show.Reset()
		return nil
	})
}
