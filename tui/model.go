package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"lightful/engine"
	"lightful/midi"
	"lightful/sequencer"
	"lightful/theme"
	"lightful/widgets"
)

const (
	stripWidth   = 20
	noteLength   = 200 * time.Millisecond
	noteVelocity = 100
)

// notes played by the test note key, one per press
var testNotes = []uint8{60, 62, 64, 65, 67, 69, 71, 72}

// Engine is what the TUI drives. Every call blocks until the control loop
// has run it, so the model only calls it from commands.
type Engine interface {
	Status() engine.Status
	Select(ch uint8) error
	StartLooper() error
	StopLooper() error
	Action(ch uint8, action string) error
	ToggleRecord(ch uint8) error
	WriteLoop(ch uint8) (string, error)
	Inject(evt midi.Event) error
	Blackout() error
}

type Model struct {
	Engine  Engine
	Theme   *theme.Theme
	updates <-chan struct{}

	help     help.Model
	status   engine.Status
	message  string
	nextNote int
	quitting bool
}

// UpdateMsg means the engine published a new status
type UpdateMsg struct{}

type resultMsg struct {
	text string
	err  error
}

type noteOffMsg uint8

func NewModel(e Engine, updates <-chan struct{}, th *theme.Theme) Model {
	return Model{
		Engine:  e,
		Theme:   th,
		updates: updates,
		help:    help.New(),
		status:  e.Status(),
	}
}

func ListenForUpdates(updates <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-updates
		return UpdateMsg{}
	}
}

func (m Model) Init() tea.Cmd {
	return ListenForUpdates(m.updates)
}

// run calls the engine off the UI goroutine
func run(fn func() error, done string) tea.Cmd {
	return func() tea.Msg {
		if err := fn(); err != nil {
			return resultMsg{err: err}
		}
		return resultMsg{text: done}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.help.Width = msg.Width

	case UpdateMsg:
		m.status = m.Engine.Status()
		return m, ListenForUpdates(m.updates)

	case resultMsg:
		if msg.err != nil {
			m.message = "error: " + msg.err.Error()
		} else if msg.text != "" {
			m.message = msg.text
		}
		m.status = m.Engine.Status()

	case noteOffMsg:
		note := uint8(msg)
		return m, run(func() error {
			return m.Engine.Inject(midi.NoteOffEvent(midi.LiveChannel, note))
		}, "")
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	e := m.Engine
	ch := m.status.Selected

	switch {
	case key.Matches(msg, keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, keys.Channel):
		sel := msg.String()[0] - '0'
		m.status.Selected = sel
		return m, run(func() error { return e.Select(sel) }, fmt.Sprintf("channel %d", sel))

	case key.Matches(msg, keys.Start):
		return m, run(e.StartLooper, "metronome started")

	case key.Matches(msg, keys.StopAll):
		return m, run(e.StopLooper, "stopped")

	case key.Matches(msg, keys.Record):
		return m, run(func() error { return e.ToggleRecord(ch) }, "")

	case key.Matches(msg, keys.Cancel):
		return m, run(func() error { return e.Action(ch, "cancel") }, "recording cancelled")

	case key.Matches(msg, keys.Play):
		return m, run(func() error { return e.Action(ch, "play") }, "")

	case key.Matches(msg, keys.Pause):
		return m, run(func() error { return e.Action(ch, "pause") }, "")

	case key.Matches(msg, keys.Clear):
		return m, run(func() error { return e.Action(ch, "clear") }, fmt.Sprintf("channel %d cleared", ch))

	case key.Matches(msg, keys.Write):
		return m, func() tea.Msg {
			name, err := e.WriteLoop(ch)
			return resultMsg{text: "saved " + name, err: err}
		}

	case key.Matches(msg, keys.Note):
		note := testNotes[m.nextNote%len(testNotes)]
		m.nextNote++
		return m, tea.Batch(
			run(func() error { return e.Inject(midi.NoteOnEvent(midi.LiveChannel, note, noteVelocity)) }, ""),
			tea.Tick(noteLength, func(time.Time) tea.Msg { return noteOffMsg(note) }),
		)

	case key.Matches(msg, keys.Blackout):
		return m, run(e.Blackout, "blackout")
	}
	return m, nil
}

func (m Model) stateSymbol(state sequencer.ChannelState) string {
	sym := m.Theme.Symbols
	switch state {
	case sequencer.Recording:
		return lipgloss.NewStyle().Foreground(m.Theme.Warning()).Render(string(sym.Recording))
	case sequencer.Stopped:
		return string(sym.Stopped)
	case sequencer.Playing:
		return lipgloss.NewStyle().Foreground(m.Theme.Success()).Render(string(sym.Playing))
	case sequencer.Paused:
		return string(sym.Paused)
	}
	return string(sym.Idle)
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	st := m.status

	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	cursorStyle := lipgloss.NewStyle().Foreground(m.Theme.Cursor())

	// Header
	clock := dimStyle.Render("metronome off (m)")
	if st.Started {
		clock = fmt.Sprintf("%s  tick %02d/%d  bar %d",
			widgets.RenderBeats(st.Beat, st.BeatsPerMeasure, m.Theme.Symbols.Beat, m.Theme.Symbols.Off, m.Theme.Accent()),
			st.Tick, st.TicksPerMeasure, st.Measure+1)
	}
	sustain := ""
	if st.Sustain {
		sustain = "  sus"
	}
	header := headerStyle.Render(fmt.Sprintf("lightful  %.1fbpm  %s", st.BPM, st.Project)) + "  " + clock + sustain

	// Loop channels
	var chans []string
	for ch := midi.LiveChannel + 1; ch <= 16; ch++ {
		info := st.Channel(ch)
		if info.State == sequencer.Idle && ch != st.Selected {
			continue
		}
		line := fmt.Sprintf("%s ch%-2d %-9s %3d events", m.stateSymbol(info.State), ch, info.State, info.Events)
		if info.Sounding > 0 {
			line += fmt.Sprintf("  %d sounding", info.Sounding)
		}
		if ch == st.Selected {
			line = cursorStyle.Render("> ") + line
		} else {
			line = "  " + line
		}
		chans = append(chans, line)
	}

	// Strip and Launchpad mirror side by side
	strip := widgets.RenderStrip(st.Pixels, stripWidth, m.Theme.Symbols.Pixel)
	var grid widgets.PadGrid
	for _, led := range engine.RenderLEDs(st) {
		grid.Set(led.Row, led.Col, led.Color)
	}
	panels := lipgloss.JoinHorizontal(lipgloss.Top, strip, "    ", widgets.RenderPadGrid(grid))

	devices := "no devices"
	if len(st.Devices) > 0 {
		devices = strings.Join(st.Devices, ", ")
	}
	if st.Output != "" {
		devices += "  out: " + st.Output
	}
	info := dimStyle.Render(fmt.Sprintf("%s  tasks %d/%d  lights %d", devices, st.MIDITasks, st.AnimationTasks, st.Triggered))

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n\n")
	out.WriteString(strings.Join(chans, "\n"))
	out.WriteString("\n\n")
	out.WriteString(panels)
	out.WriteString("\n\n")
	out.WriteString(info)
	if m.message != "" {
		out.WriteString("\n")
		out.WriteString(m.message)
	}
	out.WriteString("\n\n")
	out.WriteString(m.help.View(keys))
	return out.String()
}
