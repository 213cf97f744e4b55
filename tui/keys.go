package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Channel  key.Binding
	Start    key.Binding
	Record   key.Binding
	Cancel   key.Binding
	Play     key.Binding
	Pause    key.Binding
	StopAll  key.Binding
	Clear    key.Binding
	Write    key.Binding
	Note     key.Binding
	Blackout key.Binding
	Help     key.Binding
	Quit     key.Binding
}

var keys = keyMap{
	Channel:  key.NewBinding(key.WithKeys("2", "3", "4", "5", "6", "7", "8", "9"), key.WithHelp("2-9", "channel")),
	Start:    key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "metronome")),
	Record:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "record/save")),
	Cancel:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "cancel rec")),
	Play:     key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "play")),
	Pause:    key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "pause")),
	StopAll:  key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "stop all")),
	Clear:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "clear")),
	Write:    key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "write .mid")),
	Note:     key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "test note")),
	Blackout: key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "blackout")),
	Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Channel, k.Record, k.Play, k.Pause, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Channel, k.Start, k.StopAll},
		{k.Record, k.Cancel, k.Write},
		{k.Play, k.Pause, k.Clear},
		{k.Note, k.Blackout, k.Quit},
	}
}
