package midi

import "math"

// DefaultTempo is 120 bpm in microseconds per beat
const DefaultTempo = 500000

// tickScale is the length of one tick in seconds. Both conversions share it
// so a round trip stays within one tick.
func tickScale(tempo, ticksPerBeat int) float64 {
	return float64(tempo) * 1e-6 / float64(ticksPerBeat)
}

// ToTicks converts seconds to the nearest tick
func ToTicks(seconds float64, tempo, ticksPerBeat int) int {
	return int(math.Round(seconds / tickScale(tempo, ticksPerBeat)))
}

// ToSeconds converts ticks back to seconds
func ToSeconds(ticks int, tempo, ticksPerBeat int) float64 {
	return float64(ticks) * tickScale(tempo, ticksPerBeat)
}

// TickDuration returns the length of one tick in seconds
func TickDuration(tempo, ticksPerBeat int) float64 {
	return tickScale(tempo, ticksPerBeat)
}

// TempoFromBPM converts beats per minute to microseconds per beat
func TempoFromBPM(bpm float64) int {
	return int(math.Round(60_000_000 / bpm))
}

// BPM converts microseconds per beat to beats per minute
func BPM(tempo int) float64 {
	return 60_000_000 / float64(tempo)
}
