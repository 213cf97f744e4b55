package midi

import (
	"fmt"

	"lightful/debug"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// KeyboardController is a plain MIDI input (piano, synth). Every note and
// controller message is queued into the hub.
type KeyboardController struct {
	id       string
	stopFunc func()
}

// NewKeyboardController listens on inPort and feeds hub
func NewKeyboardController(id string, inPort drivers.In, hub *Hub) (*KeyboardController, error) {
	kb := &KeyboardController{id: id}

	stop, err := gomidi.ListenTo(inPort, func(msg gomidi.Message, timestampms int32) {
		evt, ok := FromMessage(msg)
		if !ok {
			debug.Log("midi-in", "%s: dropped unsupported %s", id, msg)
			return
		}
		hub.Enqueue(evt)
	}, gomidi.HandleError(func(err error) {
		debug.Error("midi-in", "%s: %v", id, err)
	}))
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	kb.stopFunc = stop

	return kb, nil
}

func (kb *KeyboardController) ID() string {
	return kb.id
}

func (kb *KeyboardController) Type() ControllerType {
	return ControllerKeyboard
}

func (kb *KeyboardController) PadEvents() <-chan PadEvent {
	return nil
}

func (kb *KeyboardController) SetLEDBatch(updates []LEDUpdate) error {
	return nil
}

func (kb *KeyboardController) Close() error {
	if kb.stopFunc != nil {
		kb.stopFunc()
	}
	return nil
}

// Port is an opened MIDI output
type Port struct {
	name string
	send func(msg gomidi.Message) error
}

// OpenPort opens an output port for sending
func OpenPort(out drivers.Out) (*Port, error) {
	send, err := gomidi.SendTo(out)
	if err != nil {
		return nil, fmt.Errorf("open output %s: %w", out.String(), err)
	}
	return &Port{name: out.String(), send: send}, nil
}

func (p *Port) Name() string { return p.name }

func (p *Port) Send(evt Event) error {
	msg, err := evt.Message()
	if err != nil {
		return err
	}
	return p.send(msg)
}
