package show

import (
	"reflect"
	"testing"

	"lightful/light"
	"lightful/midi"
	"lightful/scheduler"
	"lightful/sequencer"
	"lightful/theme"
)

func TestEvenlySpaced(t *testing.T) {
	got := EvenlySpaced([]int{1, 2, 3}, []string{"a", "b", "c", "d", "e", "f"})
	if want := map[int]string{1: "a", 2: "c", 3: "e"}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	// more keys than values never indexes past the end
	crowded := EvenlySpaced([]int{1, 2, 3, 4}, []int{10, 20})
	if crowded[4] != 20 {
		t.Errorf("crowded = %v", crowded)
	}

	if len(EvenlySpaced([]int{1}, []int{})) != 0 {
		t.Error("mapping onto nothing")
	}
}

func TestCMajor(t *testing.T) {
	if got := CMajor(60, 72); !reflect.DeepEqual(got, []uint8{60, 62, 64, 65, 67, 69, 71}) {
		t.Errorf("CMajor(60, 72) = %v", got)
	}
	if len(CMajor(58, 92)) != 20 {
		t.Errorf("melody range has %d white keys, want 20", len(CMajor(58, 92)))
	}
	if IsCMajor(61) || !IsCMajor(0) {
		t.Error("IsCMajor wrong")
	}
}

type rig struct {
	now   float64
	sched *scheduler.Scheduler
	hub   *midi.Hub
	strip *light.Buffer
	show  *Show
}

func newRig(palette *theme.Palette) *rig {
	r := &rig{hub: midi.NewHub(), strip: light.NewBuffer(100)}
	r.sched = scheduler.New("animation", func() float64 { return r.now })
	r.show = New(r.sched, r.strip, r.hub, palette)
	return r
}

func TestShowBackground(t *testing.T) {
	r := newRig(nil)
	if r.sched.Len() != 4 {
		t.Fatalf("%d tasks, want 4 background rows", r.sched.Len())
	}
	if r.hub.Observers() != 1 {
		t.Error("show not registered on the hub")
	}

	r.sched.Tick()
	if r.strip.Color(10) == light.Black {
		t.Error("row 1 not painted")
	}
	if r.strip.Color(0) != light.Black || r.strip.Color(55) != light.Black {
		t.Error("painted outside the rows")
	}

	r.show.Close()
	if r.hub.Observers() != 0 {
		t.Error("Close did not unregister")
	}
}

func TestShowLiveNotesDedupe(t *testing.T) {
	r := newRig(nil)

	r.hub.Dispatch(midi.NoteOnEvent(1, 60, 100))
	r.hub.Dispatch(midi.NoteOnEvent(1, 60, 100))

	if !r.sched.Has("note/1/60") {
		t.Fatal("live note not tagged")
	}
	if r.sched.Len() != 5 {
		t.Errorf("%d tasks, want 4 rows and one note", r.sched.Len())
	}
	if r.show.Triggered() != 2 {
		t.Errorf("Triggered() = %d, want 2", r.show.Triggered())
	}
}

func TestShowLoopNotesStack(t *testing.T) {
	r := newRig(nil)

	r.hub.Dispatch(midi.NoteOnEvent(3, 60, 100))
	r.hub.Dispatch(midi.NoteOnEvent(3, 60, 100))
	r.hub.Dispatch(midi.NoteOffEvent(3, 60))

	if r.sched.Len() != 6 {
		t.Errorf("%d tasks, want 4 rows and two notes", r.sched.Len())
	}
}

func TestShowUnmappedNotes(t *testing.T) {
	r := newRig(nil)
	r.hub.Dispatch(midi.NoteOnEvent(1, 61, 100)) // black key
	r.hub.Dispatch(midi.NoteOnEvent(9, 60, 100)) // no palette

	if r.sched.Len() != 4 || r.show.Triggered() != 0 {
		t.Errorf("unmapped notes triggered effects")
	}

	withPalette := newRig(&theme.Palette{Colors: []theme.RGB{{255, 0, 0}, {0, 0, 255}}})
	withPalette.hub.Dispatch(midi.NoteOnEvent(9, 60, 100))
	if withPalette.sched.Len() != 5 {
		t.Error("palette fallback not used for a high channel")
	}
}

func TestShowNoteOffGate(t *testing.T) {
	r := newRig(nil)
	r.hub.Dispatch(midi.NoteOnEvent(1, 60, 100))

	r.now = 3
	r.sched.Tick()
	if r.sched.Len() != 5 {
		t.Fatal("held note finished while the key is down")
	}

	r.hub.Dispatch(midi.NoteOffEvent(1, 60))
	r.now = 3.1
	r.sched.Tick()
	r.now = 3.5
	r.sched.Tick()
	if r.sched.Has("note/1/60") {
		t.Error("note effect still running after release")
	}
}

func newLooper(hub *midi.Hub) (*sequencer.Looper, *scheduler.Scheduler) {
	sched := scheduler.New("midi", func() float64 { return 0 })
	return sequencer.NewLooper(sched, hub, sequencer.NewMetronome(midi.DefaultTempo, 24, 4)), sched
}

func TestShowRemapsLiveInputWhileRecording(t *testing.T) {
	r := newRig(nil)
	looper, _ := newLooper(r.hub)
	looper.Record(2)
	r.show.AttachLooper(looper)
	base := r.sched.Len()

	// 24 is only mapped on channel 2 (bass meteor)
	r.hub.Dispatch(midi.NoteOnEvent(1, 24, 100))

	if r.sched.Len() != base+1 {
		t.Fatalf("%d tasks, want %d", r.sched.Len(), base+1)
	}
	if r.sched.Has("note/1/24") {
		t.Error("remapped note deduped like live input")
	}
}

func TestShowMetronomeColumn(t *testing.T) {
	r := newRig(nil)
	looper, _ := newLooper(r.hub)
	looper.Start()

	r.show.AttachLooper(looper)
	if !r.sched.Has(columnTag) || r.sched.Len() != 5 {
		t.Fatalf("column not scheduled: %d tasks", r.sched.Len())
	}

	r.show.Reset()
	if !r.sched.Has(columnTag) || r.sched.Len() != 5 {
		t.Errorf("Reset lost the column: %d tasks", r.sched.Len())
	}
}

func TestColumnColor(t *testing.T) {
	if a := columnColor(0.25, 0.5).A(); a != 153 {
		t.Errorf("alpha at the playhead = %d, want 153", a)
	}
	if a := columnColor(0.25, 0.9).A(); a != 0 {
		t.Errorf("alpha away from the playhead = %d, want 0", a)
	}
	// second half of the measure sweeps again
	if a := columnColor(0.75, 0.5).A(); a != 153 {
		t.Errorf("alpha on the second pass = %d, want 153", a)
	}
}

func TestShowBlackout(t *testing.T) {
	r := newRig(nil)
	r.sched.Tick()
	r.hub.Dispatch(midi.NoteOnEvent(3, 60, 100))

	r.show.Blackout()

	if r.sched.Len() != 1 {
		t.Errorf("%d tasks after blackout, want 1", r.sched.Len())
	}
	for _, pos := range r.show.All.Positions {
		if r.strip.Color(pos) != light.Black {
			t.Fatalf("pixel %d = %s after blackout", pos, r.strip.Color(pos))
		}
	}
}
