package midi

import (
	"errors"
	"fmt"
	"io"
	"math"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

var ErrNoMetricTicks = errors.New("midi file does not use metric ticks")

// offsetMarker carries Loop.Offset, in file ticks
const offsetMarker = "offset %d"

// WriteSMF writes loop as a single-track standard MIDI file: tempo and meter
// meta events, then the events in tick order, with end of track at the end
// of the measure.
func WriteSMF(w io.Writer, loop *Loop) error {
	if loop.TicksPerBeat <= 0 || loop.TicksPerBeat > math.MaxUint16 {
		return fmt.Errorf("ticks per beat %d out of range", loop.TicksPerBeat)
	}

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(uint16(loop.TicksPerBeat))

	var track smf.Track
	track.Add(0, smf.MetaTempo(BPM(loop.Tempo)))
	track.Add(0, smf.MetaMeter(uint8(loop.BeatsPerMeasure), 4))
	if loop.Offset != 0 {
		track.Add(0, smf.MetaMarker(fmt.Sprintf(offsetMarker, loop.Offset)))
	}

	last := 0
	for _, tick := range loop.Ticks() {
		for _, evt := range loop.At(tick) {
			msg, err := evt.Message()
			if err != nil {
				return fmt.Errorf("tick %d: %w", tick, err)
			}
			track.Add(uint32(tick-last), msg)
			last = tick
		}
	}

	end := loop.TicksPerMeasure() - last
	if end < 0 {
		end = 0
	}
	track.Close(uint32(end))

	if err := s.Add(track); err != nil {
		return err
	}
	_, err := s.WriteTo(w)
	return err
}

// ReadSMF reads a file written by WriteSMF (or any metric-tick file) into a
// loop. Events from every track are merged; ticks past the first measure
// wrap. When ticksPerBeat is positive and differs from the file resolution,
// ticks are rescaled to it.
func ReadSMF(r io.Reader, ticksPerBeat int) (*Loop, error) {
	s, err := smf.ReadFrom(r)
	if err != nil {
		return nil, fmt.Errorf("read midi file: %w", err)
	}

	mt, ok := s.TimeFormat.(smf.MetricTicks)
	if !ok {
		return nil, ErrNoMetricTicks
	}
	resolution := int(mt.Resolution())
	if ticksPerBeat <= 0 {
		ticksPerBeat = resolution
	}

	tempo := DefaultTempo
	beats := 4
	offset := 0

	type timed struct {
		tick int
		evt  Event
	}
	var events []timed

	for _, track := range s.Tracks {
		var abs int64
		for _, ev := range track {
			abs += int64(ev.Delta)

			var bpm float64
			var num, denom uint8
			var text string
			switch {
			case ev.Message.GetMetaTempo(&bpm):
				if bpm > 0 {
					tempo = TempoFromBPM(bpm)
				}
				continue
			case ev.Message.GetMetaMeter(&num, &denom):
				if num > 0 {
					beats = int(num)
				}
				continue
			case ev.Message.GetMetaMarker(&text):
				var n int
				if _, err := fmt.Sscanf(text, offsetMarker, &n); err == nil {
					offset = n
				}
				continue
			}

			evt, ok := FromMessage(gomidi.Message(ev.Message))
			if !ok {
				continue
			}
			tick := int(math.Round(float64(abs) * float64(ticksPerBeat) / float64(resolution)))
			events = append(events, timed{tick: tick, evt: evt})
		}
	}

	loop := NewLoop(tempo, ticksPerBeat, beats)
	loop.Offset = wrapTick(int(math.Round(float64(offset)*float64(ticksPerBeat)/float64(resolution))), loop.TicksPerMeasure())
	for _, te := range events {
		loop.Add(te.tick, te.evt)
	}
	return loop, nil
}
