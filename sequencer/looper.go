package sequencer

import (
	"errors"
	"fmt"
	"sort"

	"lightful/debug"
	"lightful/midi"
	"lightful/scheduler"
)

// ChannelState is where a loop channel is in its lifecycle:
// Idle -> Recording -> Stopped -> Playing <-> Paused -> Idle (Clear)
type ChannelState int

const (
	Idle ChannelState = iota
	Recording
	Stopped
	Playing
	Paused
)

func (s ChannelState) String() string {
	switch s {
	case Recording:
		return "recording"
	case Stopped:
		return "stopped"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	}
	return "idle"
}

func (s ChannelState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Scheduler priorities: the metronome must tick before anything synced to it
const (
	PriorityMetronome = 100
	PriorityPlayback  = 50
)

const metronomeTag = "metronome"

var (
	ErrInvalidChannel = errors.New("invalid loop channel")
	ErrNotRecording   = errors.New("channel is not recording")
	ErrNoLoop         = errors.New("channel has no recorded loop")
	ErrRecording      = errors.New("channel is recording")
	ErrLoopTooLong    = errors.New("loop is longer than a measure")
)

// loop channel bookkeeping
type track struct {
	state    ChannelState
	loop     *midi.Loop
	recorder *Recorder
	player   *Player
	task     *SyncedTask
}

// ChannelInfo is a read-only view of one loop channel
type ChannelInfo struct {
	Channel  uint8        `json:"channel"`
	State    ChannelState `json:"state"`
	Events   int          `json:"events"`
	Offset   int          `json:"offset"`
	Sounding int          `json:"sounding"`
}

// Looper records live input into per-channel loops and plays them back in
// sync with a shared metronome. Channels 2-16 are loop channels; channel 1
// is live input.
type Looper struct {
	metronome *Metronome
	sched     *scheduler.Scheduler
	hub       *midi.Hub

	started   bool
	startTime float64
	tracks    map[uint8]*track
}

func NewLooper(sched *scheduler.Scheduler, hub *midi.Hub, m *Metronome) *Looper {
	return &Looper{
		metronome: m,
		sched:     sched,
		hub:       hub,
		tracks:    make(map[uint8]*track),
	}
}

func (l *Looper) Metronome() *Metronome {
	return l.metronome
}

// Start schedules the metronome if it is not running. Idempotent.
func (l *Looper) Start() {
	if l.started && l.sched.Contains(l.metronome) {
		return
	}
	st := l.sched.Add(l.metronome, scheduler.WithPriority(PriorityMetronome), scheduler.WithTag(metronomeTag))
	l.startTime = st.StartTime
	l.started = true
	debug.Info("looper", "metronome started: %.1f bpm, %d ticks/measure", l.metronome.BPM(), l.metronome.TicksPerMeasure())
}

func (l *Looper) IsStarted() bool {
	return l.started
}

// StartTime is the clock time the metronome was scheduled
func (l *Looper) StartTime() float64 {
	return l.startTime
}

func validChannel(ch uint8) bool {
	return ch > midi.LiveChannel && ch <= 16
}

func (l *Looper) track(ch uint8) *track {
	t, ok := l.tracks[ch]
	if !ok {
		t = &track{}
		l.tracks[ch] = t
	}
	return t
}

// Record starts a fresh recording on ch, starting the metronome if needed.
// The previous loop keeps playing until the recording is saved.
func (l *Looper) Record(ch uint8) error {
	if !validChannel(ch) {
		return fmt.Errorf("%w: %d", ErrInvalidChannel, ch)
	}
	l.Start()

	t := l.track(ch)
	if t.recorder != nil {
		l.hub.Unregister(t.recorder)
		t.recorder.Stop()
	}

	rec := NewRecorder(ch, l.metronome)
	now := l.sched.Now()
	offset := midi.ToTicks(now-l.startTime, l.metronome.Tempo, l.metronome.TicksPerBeat) % l.metronome.TicksPerMeasure()
	rec.Loop().Offset = offset
	l.hub.Register(rec)

	t.recorder = rec
	t.state = Recording
	debug.Info("looper", "ch%d recording, %.3fs after start (%d ticks into measure)", ch, now-l.startTime, offset)
	return nil
}

// SaveRecord stops recording on ch and keeps the result as its loop
func (l *Looper) SaveRecord(ch uint8) error {
	t, ok := l.tracks[ch]
	if !ok || t.recorder == nil {
		return ErrNotRecording
	}
	l.hub.Unregister(t.recorder)
	t.recorder.Stop()

	wasPlaying := t.task != nil && l.sched.Contains(t.task)
	if wasPlaying {
		l.pause(t)
	}

	t.loop = t.recorder.Loop()
	t.recorder = nil
	t.state = Stopped
	debug.Info("looper", "ch%d saved %d events", ch, t.loop.Len())

	if wasPlaying {
		return l.Play(ch)
	}
	return nil
}

// CancelRecord drops the recording on ch, keeping any previous loop
func (l *Looper) CancelRecord(ch uint8) error {
	t, ok := l.tracks[ch]
	if !ok || t.recorder == nil {
		return ErrNotRecording
	}
	l.hub.Unregister(t.recorder)
	t.recorder.Stop()
	t.recorder = nil

	switch {
	case t.task != nil && l.sched.Contains(t.task):
		t.state = Playing
	case t.loop != nil:
		t.state = Stopped
	default:
		delete(l.tracks, ch)
	}
	debug.Info("looper", "ch%d recording cancelled", ch)
	return nil
}

// IsRecording reports whether ch is recording
func (l *Looper) IsRecording(ch uint8) bool {
	t, ok := l.tracks[ch]
	return ok && t.recorder != nil
}

// RecordingChannel returns the lowest channel currently recording
func (l *Looper) RecordingChannel() (uint8, bool) {
	for ch := midi.LiveChannel + 1; ch <= 16; ch++ {
		if l.IsRecording(ch) {
			return ch, true
		}
	}
	return 0, false
}

// Play loops the saved recording on ch in sync with the metronome
func (l *Looper) Play(ch uint8) error {
	t, ok := l.tracks[ch]
	if !ok || t.loop == nil {
		return ErrNoLoop
	}
	if t.task != nil && l.sched.Contains(t.task) {
		return nil
	}
	l.Start()

	t.player = NewPlayer(t.loop, l.hub, l.metronome, ch)
	t.task = NewSyncedTask(l.metronome, t.player)
	l.sched.Add(t.task, scheduler.WithPriority(PriorityPlayback), scheduler.WithTag(loopTag(ch)))
	if t.recorder == nil {
		t.state = Playing
	}
	debug.Info("looper", "ch%d playing", ch)
	return nil
}

// Pause stops playback on ch, first releasing every note it left sounding
func (l *Looper) Pause(ch uint8) error {
	t, ok := l.tracks[ch]
	if !ok || t.task == nil {
		return nil
	}
	l.pause(t)
	if t.recorder == nil {
		t.state = Paused
	}
	debug.Info("looper", "ch%d paused", ch)
	return nil
}

func (l *Looper) pause(t *track) {
	if t.player != nil {
		t.player.Silence()
	}
	l.sched.Remove(t.task)
	t.task = nil
	t.player = nil
}

// Stop pauses every channel, saves any recording in progress and stops the
// metronome
func (l *Looper) Stop() {
	for _, ch := range l.channels() {
		t := l.tracks[ch]
		if t.recorder != nil {
			l.SaveRecord(ch)
		}
		if t.task != nil {
			l.Pause(ch)
		}
	}
	l.sched.Remove(l.metronome)
	l.metronome.Reset()
	l.started = false
	debug.Info("looper", "stopped")
}

// Clear returns ch to Idle, dropping its loop
func (l *Looper) Clear(ch uint8) error {
	t, ok := l.tracks[ch]
	if !ok {
		return nil
	}
	if t.recorder != nil {
		l.hub.Unregister(t.recorder)
		t.recorder.Stop()
	}
	if t.task != nil {
		l.pause(t)
	}
	delete(l.tracks, ch)
	debug.Info("looper", "ch%d cleared", ch)
	return nil
}

// State returns the lifecycle state of ch
func (l *Looper) State(ch uint8) ChannelState {
	if t, ok := l.tracks[ch]; ok {
		return t.state
	}
	return Idle
}

// Loop returns the saved loop on ch (nil if none). Treat it as read-only.
func (l *Looper) Loop(ch uint8) *midi.Loop {
	if t, ok := l.tracks[ch]; ok {
		return t.loop
	}
	return nil
}

// Export returns a copy of the saved loop on ch
func (l *Looper) Export(ch uint8) (*midi.Loop, error) {
	t, ok := l.tracks[ch]
	if !ok || t.loop == nil {
		return nil, ErrNoLoop
	}
	return t.loop.Clone(), nil
}

// Import sets the loop on ch (for example one read from a file). The loop
// plays at the metronome's tempo; its tick resolution must match.
func (l *Looper) Import(ch uint8, loop *midi.Loop) error {
	if !validChannel(ch) {
		return fmt.Errorf("%w: %d", ErrInvalidChannel, ch)
	}
	if l.IsRecording(ch) {
		return ErrRecording
	}
	if loop.TicksPerBeat != l.metronome.TicksPerBeat {
		return fmt.Errorf("loop has %d ticks per beat, metronome %d", loop.TicksPerBeat, l.metronome.TicksPerBeat)
	}

	// the player only reaches ticks inside the metronome's measure
	measure := l.metronome.TicksPerMeasure()
	if ticks := loop.Ticks(); len(ticks) > 0 && ticks[len(ticks)-1] >= measure {
		return fmt.Errorf("%w: event at tick %d, measure has %d ticks", ErrLoopTooLong, ticks[len(ticks)-1], measure)
	}

	// events move to this channel
	imported := loop.Map(func(evt midi.Event) (midi.Event, bool) {
		return evt.WithChannel(ch), true
	})
	imported.BeatsPerMeasure = l.metronome.BeatsPerMeasure

	t := l.track(ch)
	if t.task != nil {
		l.pause(t)
	}
	t.loop = imported
	t.state = Stopped
	return nil
}

// Channels describes every non-idle channel, ascending
func (l *Looper) Channels() []ChannelInfo {
	var out []ChannelInfo
	for _, ch := range l.channels() {
		t := l.tracks[ch]
		info := ChannelInfo{Channel: ch, State: t.state}
		if t.loop != nil {
			info.Events = t.loop.Len()
			info.Offset = t.loop.Offset
		}
		if t.recorder != nil {
			info.Events = t.recorder.Loop().Len()
			info.Offset = t.recorder.Loop().Offset
		}
		if t.player != nil {
			info.Sounding = len(t.player.ActiveNotes())
		}
		out = append(out, info)
	}
	return out
}

func (l *Looper) channels() []uint8 {
	chs := make([]uint8, 0, len(l.tracks))
	for ch := range l.tracks {
		chs = append(chs, ch)
	}
	sort.Slice(chs, func(i, j int) bool { return chs[i] < chs[j] })
	return chs
}

func loopTag(ch uint8) string {
	return fmt.Sprintf("loop/%d", ch)
}
