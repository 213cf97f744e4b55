package engine

import (
	"lightful/debug"
	"lightful/midi"
	"lightful/sequencer"
)

// LEDState is one lit pad
type LEDState struct {
	Row, Col int
	Color    [3]uint8
	Channel  uint8
}

// Launchpad layout. Rows count from the bottom; row 8 is the top button row.
//
//	row 7: loop channels 2-9
//	row 6: loop channels 10-16
//	row 0: beat indicator
//	row 8: start, stop all, ..., blackout
const (
	topRow       = 8
	beatRow      = 0
	padStart     = 0
	padStopAll   = 1
	padBlackout  = 7
	channelsWide = 8
)

var (
	ledRecording = [3]uint8{255, 0, 0}
	ledStopped   = [3]uint8{255, 160, 0}
	ledPlaying   = [3]uint8{0, 255, 0}
	ledPaused    = [3]uint8{0, 80, 0}
	ledSelected  = [3]uint8{40, 40, 40}
	ledBeat      = [3]uint8{0, 0, 255}
	ledAccent    = [3]uint8{255, 255, 255}
)

func channelPad(ch uint8) (row, col int) {
	i := int(ch) - int(midi.LiveChannel) - 1
	return 7 - i/channelsWide, i % channelsWide
}

func padChannel(row, col int) (uint8, bool) {
	if col < 0 || col >= channelsWide || row < 6 || row > 7 {
		return 0, false
	}
	ch := (7-row)*channelsWide + col + int(midi.LiveChannel) + 1
	if ch > 16 {
		return 0, false
	}
	return uint8(ch), true
}

// RenderLEDs lays out the looper state on the grid
func RenderLEDs(st Status) []LEDState {
	var leds []LEDState

	for ch := midi.LiveChannel + 1; ch <= 16; ch++ {
		row, col := channelPad(ch)
		led := LEDState{Row: row, Col: col}
		switch st.Channel(ch).State {
		case sequencer.Recording:
			led.Color, led.Channel = ledRecording, midi.ChannelPulse
		case sequencer.Stopped:
			led.Color = ledStopped
		case sequencer.Playing:
			led.Color = ledPlaying
		case sequencer.Paused:
			led.Color = ledPaused
		default:
			if ch != st.Selected {
				continue
			}
			led.Color = ledSelected
		}
		leds = append(leds, led)
	}

	if st.Started {
		for b := 0; b < st.BeatsPerMeasure && b < channelsWide; b++ {
			led := LEDState{Row: beatRow, Col: b, Color: ledSelected}
			if b == st.Beat {
				led.Color = ledBeat
				if b == 0 {
					led.Color = ledAccent
				}
			}
			leds = append(leds, led)
		}
		leds = append(leds, LEDState{Row: topRow, Col: padStopAll, Color: ledStopped})
	} else {
		leds = append(leds, LEDState{Row: topRow, Col: padStart, Color: ledPlaying})
	}
	leds = append(leds, LEDState{Row: topRow, Col: padBlackout, Color: ledRecording})
	return leds
}

// Surface drives a grid controller, sending only the pads that changed
type Surface struct {
	ctrl midi.Controller
	prev map[[2]int]LEDState
}

func NewSurface(ctrl midi.Controller) *Surface {
	return &Surface{ctrl: ctrl, prev: make(map[[2]int]LEDState)}
}

func (s *Surface) ID() string {
	return s.ctrl.ID()
}

func (s *Surface) Pads() <-chan midi.PadEvent {
	return s.ctrl.PadEvents()
}

// Flush sends the difference between leds and what the grid shows now and
// returns the number of pads updated
func (s *Surface) Flush(leds []LEDState) int {
	next := make(map[[2]int]LEDState, len(leds))
	var updates []midi.LEDUpdate

	for _, led := range leds {
		key := [2]int{led.Row, led.Col}
		next[key] = led
		if prev, ok := s.prev[key]; !ok || prev != led {
			updates = append(updates, midi.LEDUpdate{
				Row:     led.Row,
				Col:     led.Col,
				Color:   led.Color,
				Channel: led.Channel,
			})
		}
	}

	// pads that went dark
	for key := range s.prev {
		if _, ok := next[key]; !ok {
			updates = append(updates, midi.LEDUpdate{Row: key[0], Col: key[1]})
		}
	}

	if len(updates) == 0 {
		return 0
	}
	if err := s.ctrl.SetLEDBatch(updates); err != nil {
		debug.LogEvery(50, "surface", "set LEDs: %v", err)
		// resend everything next time
		s.prev = make(map[[2]int]LEDState)
		return 0
	}
	s.prev = next
	return len(updates)
}

// Reset forgets what the grid shows so the next Flush repaints it
func (s *Surface) Reset() {
	s.prev = make(map[[2]int]LEDState)
}

// handlePad maps a pad press to a looper command. Releases are ignored.
func (m *Manager) handlePad(evt midi.PadEvent) {
	if evt.Velocity == 0 {
		return
	}
	if ch, ok := padChannel(evt.Row, evt.Col); ok {
		m.selected = ch
		m.report(m.Cycle(ch))
		return
	}
	switch {
	case evt.Row == topRow && evt.Col == padStart:
		m.looper.Start()
	case evt.Row == topRow && evt.Col == padStopAll:
		m.looper.Stop()
	case evt.Row == topRow && evt.Col == padBlackout:
		m.show.Blackout()
	default:
		debug.Log("surface", "unmapped pad %d,%d", evt.Row, evt.Col)
	}
}
