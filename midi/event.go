package midi

import (
	"fmt"

	gomidi "gitlab.com/gomidi/midi/v2"
)

// MIDI message types
const (
	NoteOn  uint8 = 0x90
	NoteOff uint8 = 0x80
	CC      uint8 = 0xB0
)

// Controller numbers with special handling
const (
	SustainPedal uint8 = 64

	// pedal values above this count as pressed
	sustainThreshold uint8 = 64
)

// LiveChannel is the hardware channel carrying real-time input. Every other
// channel is loop playback or synthetic.
const LiveChannel uint8 = 1

// Event is a note or controller message. Channels are 1-based (1-16) like
// the channel numbers printed on instruments; conversion to the wire value
// happens at the transport.
type Event struct {
	Type       uint8 // NoteOn, NoteOff, CC
	Channel    uint8
	Note       uint8
	Velocity   uint8
	Controller uint8
	Value      uint8
}

func NoteOnEvent(channel, note, velocity uint8) Event {
	return Event{Type: NoteOn, Channel: channel, Note: note, Velocity: velocity}
}

func NoteOffEvent(channel, note uint8) Event {
	return Event{Type: NoteOff, Channel: channel, Note: note}
}

func ControlEvent(channel, controller, value uint8) Event {
	return Event{Type: CC, Channel: channel, Controller: controller, Value: value}
}

// WithChannel returns a copy tagged with another channel
func (e Event) WithChannel(channel uint8) Event {
	e.Channel = channel
	return e
}

func (e Event) IsNoteOn() bool  { return e.Type == NoteOn }
func (e Event) IsNoteOff() bool { return e.Type == NoteOff }

func (e Event) IsSustain() bool {
	return e.Type == CC && e.Controller == SustainPedal
}

// SustainOn reports whether a pedal event means pressed
func (e Event) SustainOn() bool {
	return e.IsSustain() && e.Value > sustainThreshold
}

func (e Event) String() string {
	switch e.Type {
	case NoteOn:
		return fmt.Sprintf("NoteOn ch=%d note=%d vel=%d", e.Channel, e.Note, e.Velocity)
	case NoteOff:
		return fmt.Sprintf("NoteOff ch=%d note=%d", e.Channel, e.Note)
	case CC:
		return fmt.Sprintf("CC ch=%d ctrl=%d val=%d", e.Channel, e.Controller, e.Value)
	}
	return fmt.Sprintf("Unknown type=%#x ch=%d", e.Type, e.Channel)
}

// Message converts to a wire message
func (e Event) Message() (gomidi.Message, error) {
	if e.Channel < 1 || e.Channel > 16 {
		return nil, fmt.Errorf("channel %d out of range", e.Channel)
	}
	midiCh := e.Channel - 1
	switch e.Type {
	case NoteOn:
		return gomidi.NoteOn(midiCh, e.Note, e.Velocity), nil
	case NoteOff:
		return gomidi.NoteOff(midiCh, e.Note), nil
	case CC:
		return gomidi.ControlChange(midiCh, e.Controller, e.Value), nil
	}
	return nil, fmt.Errorf("unsupported event type %#x", e.Type)
}

// FromMessage converts a wire message. NoteOn with velocity 0 becomes
// NoteOff. ok is false for anything that is not a note or controller.
func FromMessage(msg gomidi.Message) (Event, bool) {
	var channel, note, velocity, controller, value uint8
	switch {
	case msg.GetNoteOn(&channel, &note, &velocity):
		if velocity == 0 {
			return NoteOffEvent(channel+1, note), true
		}
		return NoteOnEvent(channel+1, note, velocity), true
	case msg.GetNoteOff(&channel, &note, &velocity):
		return NoteOffEvent(channel+1, note), true
	case msg.GetControlChange(&channel, &controller, &value):
		return ControlEvent(channel+1, controller, value), true
	}
	return Event{}, false
}
