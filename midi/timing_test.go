package midi

import (
	"math"
	"testing"
)

func TestTickRoundTripWithinOneTick(t *testing.T) {
	cases := []struct {
		name         string
		tempo        int
		ticksPerBeat int
	}{
		{"120bpm-480", 500000, 480},
		{"120bpm-9600", 500000, 9600},
		{"60bpm-4", 1000000, 4},
		{"odd-tempo", 437123, 96},
		{"fast-24", 250000, 24},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tick := TickDuration(tc.tempo, tc.ticksPerBeat)
			for _, sec := range []float64{0, 0.001, 0.1234, 1, 2.5, 7.77, 61.3} {
				got := ToSeconds(ToTicks(sec, tc.tempo, tc.ticksPerBeat), tc.tempo, tc.ticksPerBeat)
				if math.Abs(got-sec) > tick {
					t.Errorf("%v s -> %v s, off by more than one tick (%v)", sec, got, tick)
				}
			}
		})
	}
}

func TestTicksExactForWholeTicks(t *testing.T) {
	for ticks := 0; ticks < 100; ticks++ {
		sec := ToSeconds(ticks, 500000, 480)
		if got := ToTicks(sec, 500000, 480); got != ticks {
			t.Fatalf("ToTicks(ToSeconds(%d)) = %d", ticks, got)
		}
	}
}

func TestToTicksRounds(t *testing.T) {
	// one tick is 0.25s at 60bpm with 4 ticks per beat
	cases := []struct {
		sec  float64
		want int
	}{
		{0.0, 0},
		{0.12, 0},
		{0.13, 1},
		{0.25, 1},
		{1.0, 4},
		{1.1, 4},
	}
	for _, tc := range cases {
		if got := ToTicks(tc.sec, 1000000, 4); got != tc.want {
			t.Errorf("ToTicks(%v) = %d, want %d", tc.sec, got, tc.want)
		}
	}
}

func TestTempoBPM(t *testing.T) {
	if got := TempoFromBPM(120); got != 500000 {
		t.Errorf("TempoFromBPM(120) = %d", got)
	}
	if got := BPM(500000); got != 120 {
		t.Errorf("BPM(500000) = %v", got)
	}
}
