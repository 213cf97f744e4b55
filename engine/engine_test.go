package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"lightful/light"
	"lightful/midi"
	"lightful/sequencer"
)

type rig struct {
	now   float64
	strip *light.Buffer
	m     *Manager
}

func newRig(t *testing.T) *rig {
	t.Helper()
	r := &rig{strip: light.NewBuffer(100)}
	r.m = New(Options{
		Tempo:           500_000,
		TicksPerBeat:    24,
		BeatsPerMeasure: 4,
		Strip:           r.strip,
		Project:         "test",
		Clock:           func() float64 { return r.now },
	})
	return r
}

// exec runs a blocking command while stepping the loop on this goroutine
func (r *rig) exec(t *testing.T, fn func() error) error {
	t.Helper()
	errc := make(chan error, 1)
	go func() { errc <- fn() }()

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		select {
		case err := <-errc:
			return err
		default:
			r.m.Step()
			time.Sleep(time.Millisecond)
		}
	}
	t.Fatal("command never ran")
	return nil
}

func (r *rig) advance(seconds float64) {
	r.now += seconds
	r.m.Step()
}

func TestManagerRecordAndPlay(t *testing.T) {
	r := newRig(t)
	m := r.m

	if err := r.exec(t, func() error { return m.Action(2, "record") }); err != nil {
		t.Fatal(err)
	}
	r.advance(0.1)
	// 36 lights a meteor on channel 2
	r.exec(t, func() error { return m.Inject(midi.NoteOnEvent(1, 36, 100)) })
	r.advance(0.2)
	r.exec(t, func() error { return m.Inject(midi.NoteOffEvent(1, 36)) })
	r.advance(0.1)

	if err := r.exec(t, func() error { return m.Action(2, "save") }); err != nil {
		t.Fatal(err)
	}
	if err := r.exec(t, func() error { return m.Action(2, "play") }); err != nil {
		t.Fatal(err)
	}

	st := m.Status()
	if !st.Started {
		t.Error("metronome not started by record")
	}
	info := st.Channel(2)
	if info.State != sequencer.Playing || info.Events != 2 {
		t.Errorf("ch2 = %+v, want playing with 2 events", info)
	}
	if st.Triggered == 0 {
		t.Error("injected note did not trigger a light")
	}
	if len(st.Pixels) != 100 {
		t.Errorf("%d pixels in status, want 100", len(st.Pixels))
	}
	if r.strip.Pushes() == 0 {
		t.Error("strip never pushed")
	}
}

func TestManagerActionErrors(t *testing.T) {
	r := newRig(t)
	m := r.m

	tests := []struct {
		ch     uint8
		action string
		want   error
	}{
		{2, "explode", ErrUnknownAction},
		{1, "record", sequencer.ErrInvalidChannel},
		{17, "record", sequencer.ErrInvalidChannel},
		{3, "play", sequencer.ErrNoLoop},
		{3, "save", sequencer.ErrNotRecording},
		{3, "write", sequencer.ErrNoLoop},
	}
	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			err := r.exec(t, func() error { return m.Action(tt.ch, tt.action) })
			if !errors.Is(err, tt.want) {
				t.Errorf("Action(%d, %q) = %v, want %v", tt.ch, tt.action, err, tt.want)
			}
			if m.Status().Message == "" {
				t.Error("error not reported in status")
			}
		})
	}
}

func TestManagerWriteAndLoad(t *testing.T) {
	old := sequencer.ProjectsRoot
	sequencer.ProjectsRoot = t.TempDir()
	t.Cleanup(func() { sequencer.ProjectsRoot = old })

	r := newRig(t)
	m := r.m
	r.exec(t, func() error { return m.Action(4, "record") })
	r.advance(0.05)
	r.exec(t, func() error { return m.Inject(midi.NoteOnEvent(1, 64, 90)) })
	r.advance(0.05)
	r.exec(t, func() error { return m.Action(4, "save") })

	var name string
	err := r.exec(t, func() error {
		var err error
		name, err = m.WriteLoop(4)
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	if name == "" {
		t.Fatal("no file name")
	}

	if err := r.exec(t, func() error { return m.LoadLoop(5, name) }); err != nil {
		t.Fatal(err)
	}
	info := m.Status().Channel(5)
	if info.State != sequencer.Stopped || info.Events != 1 {
		t.Errorf("ch5 = %+v, want stopped with 1 event", info)
	}

	// no name loads the newest save
	if err := r.exec(t, func() error { return m.LoadLoop(6, "") }); err != nil {
		t.Fatal(err)
	}
	if got, want := m.Status().Message, "loaded "+name; got != want {
		t.Errorf("message = %q, want %q", got, want)
	}
	if m.Status().Channel(6).Events != 1 {
		t.Errorf("ch6 = %+v, want 1 event", m.Status().Channel(6))
	}
}

func TestManagerCycle(t *testing.T) {
	r := newRig(t)
	m := r.m

	want := []sequencer.ChannelState{
		sequencer.Recording,
		sequencer.Playing,
		sequencer.Paused,
		sequencer.Playing,
	}
	for i, state := range want {
		if err := m.Cycle(6); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		r.advance(0.01)
		if got := m.Looper().State(6); got != state {
			t.Errorf("step %d: state = %v, want %v", i, got, state)
		}
	}
}

func TestManagerSelect(t *testing.T) {
	r := newRig(t)
	if r.m.Status().Selected != 2 {
		t.Errorf("default selection = %d, want 2", r.m.Status().Selected)
	}
	if err := r.exec(t, func() error { return r.m.Select(9) }); err != nil {
		t.Fatal(err)
	}
	if r.m.Status().Selected != 9 {
		t.Errorf("selected = %d, want 9", r.m.Status().Selected)
	}
	if err := r.exec(t, func() error { return r.m.Select(1) }); !errors.Is(err, sequencer.ErrInvalidChannel) {
		t.Errorf("Select(1) = %v, want ErrInvalidChannel", err)
	}
}

func TestManagerBlackout(t *testing.T) {
	r := newRig(t)
	r.advance(0.5)
	if err := r.exec(t, r.m.Blackout); err != nil {
		t.Fatal(err)
	}
	r.advance(0.01)
	for _, c := range r.strip.Snapshot() {
		if c != light.Black {
			t.Fatalf("pixel %s after blackout", c)
		}
	}
}

func TestManagerRunStopsOnCancel(t *testing.T) {
	strip := light.NewBuffer(100)
	m := New(Options{Tempo: 500_000, TicksPerBeat: 24, BeatsPerMeasure: 4, Strip: strip})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	if err := m.StartLooper(); err != nil {
		t.Fatal(err)
	}
	if !m.Status().Started {
		t.Error("looper not started")
	}
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}

	if m.Status().Started {
		t.Error("looper still started after shutdown")
	}
	for _, c := range strip.Snapshot() {
		if c != light.Black {
			t.Fatalf("pixel %s after shutdown", c)
		}
	}
}
