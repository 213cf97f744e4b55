package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"lightful/engine"
	"lightful/light"
	"lightful/midi"
	"lightful/sequencer"
	"lightful/theme"
)

type fakeEngine struct {
	status engine.Status
	calls  []string
	events []midi.Event
	err    error
}

func (f *fakeEngine) Status() engine.Status { return f.status }

func (f *fakeEngine) record(call string) error {
	f.calls = append(f.calls, call)
	return f.err
}

func (f *fakeEngine) Select(ch uint8) error {
	f.status.Selected = ch
	return f.record("select")
}
func (f *fakeEngine) StartLooper() error                 { return f.record("start") }
func (f *fakeEngine) StopLooper() error                  { return f.record("stop") }
func (f *fakeEngine) Action(ch uint8, a string) error    { return f.record(a) }
func (f *fakeEngine) ToggleRecord(ch uint8) error        { return f.record("toggle") }
func (f *fakeEngine) WriteLoop(ch uint8) (string, error) { return "x.mid", f.record("write") }
func (f *fakeEngine) Blackout() error                    { return f.record("blackout") }
func (f *fakeEngine) Inject(evt midi.Event) error {
	f.events = append(f.events, evt)
	return f.record("inject")
}

func newTestModel() (Model, *fakeEngine) {
	f := &fakeEngine{status: engine.Status{Selected: 2, BeatsPerMeasure: 4, Pixels: make([]light.Color, 40)}}
	return NewModel(f, make(chan struct{}), theme.New(nil)), f
}

func press(m Model, k string) (Model, tea.Cmd) {
	msg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	if k == " " {
		msg = tea.KeyMsg{Type: tea.KeySpace}
	}
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

// settle runs cmd and feeds its result back in
func settle(m Model, cmd tea.Cmd) Model {
	if cmd == nil {
		return m
	}
	next, _ := m.Update(cmd())
	return next.(Model)
}

func TestKeysCallEngine(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"m", "start"},
		{"x", "stop"},
		{"r", "toggle"},
		{"c", "cancel"},
		{"p", "play"},
		{" ", "pause"},
		{"d", "clear"},
		{"w", "write"},
		{"b", "blackout"},
		{"5", "select"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			m, f := newTestModel()
			m, cmd := press(m, tt.key)
			if cmd == nil {
				t.Fatalf("key %q produced no command", tt.key)
			}
			settle(m, cmd)
			if len(f.calls) != 1 || f.calls[0] != tt.want {
				t.Errorf("key %q called %v, want %s", tt.key, f.calls, tt.want)
			}
		})
	}
}

func TestSelectChannel(t *testing.T) {
	m, f := newTestModel()
	m, cmd := press(m, "7")
	if m.status.Selected != 7 {
		t.Errorf("selected = %d, want 7", m.status.Selected)
	}
	m = settle(m, cmd)
	if f.status.Selected != 7 || m.message != "channel 7" {
		t.Errorf("engine selected %d, message %q", f.status.Selected, m.message)
	}
}

func TestErrorsShowInMessage(t *testing.T) {
	m, f := newTestModel()
	f.err = sequencer.ErrNoLoop
	m, cmd := press(m, "p")
	m = settle(m, cmd)
	if !strings.Contains(m.message, sequencer.ErrNoLoop.Error()) {
		t.Errorf("message = %q", m.message)
	}
	if !strings.Contains(m.View(), m.message) {
		t.Error("message not rendered")
	}
}

func TestTestNotePlaysAndReleases(t *testing.T) {
	m, f := newTestModel()
	m, _ = press(m, "n")
	if m.nextNote != 1 {
		t.Errorf("nextNote = %d, want 1", m.nextNote)
	}

	// the note-off arrives from the timer
	next, cmd := m.Update(noteOffMsg(60))
	settle(next.(Model), cmd)
	if len(f.events) != 1 || !f.events[0].IsNoteOff() || f.events[0].Note != 60 {
		t.Errorf("events = %v, want NoteOff 60", f.events)
	}
}

func TestQuit(t *testing.T) {
	m, _ := newTestModel()
	m, cmd := press(m, "q")
	if cmd == nil || !m.quitting {
		t.Fatal("q did not quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("quit command did not return QuitMsg")
	}
	if m.View() != "" {
		t.Error("view drawn after quit")
	}
}

func TestViewShowsChannels(t *testing.T) {
	m, f := newTestModel()
	f.status.Started = true
	f.status.Channels = []sequencer.ChannelInfo{{Channel: 4, State: sequencer.Playing, Events: 12}}
	next, _ := m.Update(UpdateMsg{})
	view := next.(Model).View()

	for _, want := range []string{"ch2", "ch4", "playing", "12 events"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if strings.Contains(view, "ch3 ") {
		t.Error("idle unselected channel shown")
	}
}

func TestWriteReportsFileName(t *testing.T) {
	m, f := newTestModel()
	m, cmd := press(m, "w")
	m = settle(m, cmd)
	if m.message != "saved x.mid" {
		t.Errorf("message = %q", m.message)
	}

	f.err = errors.New("disk full")
	m, cmd = press(m, "w")
	m = settle(m, cmd)
	if m.message != "error: disk full" {
		t.Errorf("message = %q", m.message)
	}
}
