package midi

import (
	"sync"

	"lightful/debug"
)

// Observer receives every event dispatched by a Hub. Observers are compared
// by identity, so register pointers.
type Observer interface {
	ReceivedMIDI(evt Event)
}

// FuncObserver adapts a function to Observer. Keep the pointer to
// unregister it later.
type FuncObserver struct {
	fn func(evt Event)
}

func NewFuncObserver(fn func(evt Event)) *FuncObserver {
	return &FuncObserver{fn: fn}
}

func (f *FuncObserver) ReceivedMIDI(evt Event) { f.fn(evt) }

// Output is where outgoing events go (a port, a test recorder).
type Output interface {
	Send(evt Event) error
}

// Hub fans incoming MIDI out to observers. Driver goroutines call Enqueue;
// the control loop calls Poll, so observers only ever run on the loop.
type Hub struct {
	mu        sync.Mutex
	observers []Observer
	out       Output
	queue     chan Event

	sustainOn bool
}

const queueSize = 256

func NewHub() *Hub {
	return &Hub{queue: make(chan Event, queueSize)}
}

// SetOutput sets (or clears, with nil) the destination for Send
func (h *Hub) SetOutput(out Output) {
	h.mu.Lock()
	h.out = out
	h.mu.Unlock()
}

// Register adds an observer. Registering twice is a no-op.
func (h *Hub) Register(o Observer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, existing := range h.observers {
		if existing == o {
			return
		}
	}
	h.observers = append(h.observers, o)
}

// Unregister removes an observer if present
func (h *Hub) Unregister(o Observer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, existing := range h.observers {
		if existing == o {
			h.observers = append(h.observers[:i:i], h.observers[i+1:]...)
			return
		}
	}
}

// Observers returns how many observers are registered
func (h *Hub) Observers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.observers)
}

// Enqueue queues an incoming event. Safe from any goroutine; drops the event
// when the queue is full rather than blocking a driver callback.
func (h *Hub) Enqueue(evt Event) {
	select {
	case h.queue <- evt:
	default:
		debug.Warn("midi-in", "queue full, dropped %s", evt)
	}
}

// Poll dispatches every queued event. Call from the control loop only.
func (h *Hub) Poll() int {
	n := 0
	for {
		select {
		case evt := <-h.queue:
			h.Dispatch(evt)
			n++
		default:
			return n
		}
	}
}

// Send writes an event to the output (if any) and dispatches it locally, so
// loop playback and injected notes drive the lights like live input does.
func (h *Hub) Send(evt Event) error {
	h.mu.Lock()
	out := h.out
	h.mu.Unlock()

	var err error
	if out != nil {
		err = out.Send(evt)
		if err != nil {
			debug.Error("midi-out", "send %s: %v", evt, err)
		}
	}
	h.Dispatch(evt)
	return err
}

// Dispatch delivers an event to the observers registered right now.
// Observers may register or unregister from inside the callback.
func (h *Hub) Dispatch(evt Event) {
	switch evt.Type {
	case NoteOn, NoteOff, CC:
	default:
		debug.Log("midi-in", "dropped unsupported %s", evt)
		return
	}

	h.mu.Lock()
	if evt.IsSustain() {
		evt = h.normalizeSustain(evt)
	}
	observers := make([]Observer, len(h.observers))
	copy(observers, h.observers)
	h.mu.Unlock()

	for _, o := range observers {
		o.ReceivedMIDI(evt)
	}
}

// normalizeSustain collapses continuous pedal values to on (127) or off (0).
// Caller holds h.mu.
func (h *Hub) normalizeSustain(evt Event) Event {
	on := evt.SustainOn()
	if evt.Channel == LiveChannel {
		h.sustainOn = on
	}
	if on {
		evt.Value = 127
	} else {
		evt.Value = 0
	}
	return evt
}

// SustainOn reports the live pedal state
func (h *Hub) SustainOn() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sustainOn
}
