// Package audio plays the metronome click
package audio

import (
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"

	"lightful/debug"
)

const (
	DefaultSampleRate = 44100

	clickLength = 30 * time.Millisecond
	clickFreq   = 1000.0
	accentFreq  = 1500.0
	decay       = 120.0 // per second
)

// Clicker plays a short sine blip on every beat, higher on the downbeat.
// Playback is mixed by the speaker on its own goroutine, so Click returns
// immediately.
type Clicker struct {
	Volume float64

	sr      beep.SampleRate
	once    sync.Once
	initErr error

	play func(beep.Streamer)
}

func NewClicker(sampleRate int) *Clicker {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return &Clicker{
		Volume: 0.4,
		sr:     beep.SampleRate(sampleRate),
		play:   func(s beep.Streamer) { speaker.Play(s) },
	}
}

// Init opens the speaker. Only the first call does anything.
func (c *Clicker) Init() error {
	c.once.Do(func() {
		c.initErr = speaker.Init(c.sr, c.sr.N(time.Second/20))
		if c.initErr != nil {
			debug.Error("audio", "speaker init: %v", c.initErr)
			return
		}
		debug.Info("audio", "speaker ready at %d Hz", c.sr)
	})
	return c.initErr
}

// Click plays the blip for beat. Matches sequencer.Metronome.OnBeat.
func (c *Clicker) Click(beat int) {
	if c.initErr != nil {
		return
	}
	freq := clickFreq
	if beat == 0 {
		freq = accentFreq
	}
	c.play(c.blip(freq))
}

// blip is a sine at freq that decays to silence over clickLength
func (c *Clicker) blip(freq float64) beep.Streamer {
	total := c.sr.N(clickLength)
	pos := 0
	return beep.StreamerFunc(func(samples [][2]float64) (n int, ok bool) {
		for i := range samples {
			if pos >= total {
				return i, i > 0
			}
			t := float64(pos) / float64(c.sr)
			v := c.Volume * math.Exp(-decay*t) * math.Sin(2*math.Pi*freq*t)
			samples[i][0] = v
			samples[i][1] = v
			pos++
		}
		return len(samples), true
	})
}

// Close stops the speaker
func (c *Clicker) Close() {
	if c.initErr == nil {
		speaker.Close()
	}
}
