package engine

import (
	"lightful/light"
	"lightful/sequencer"
)

// Status is a snapshot of the engine taken on the control loop. It is safe
// to read from any goroutine.
type Status struct {
	Started         bool    `json:"started"`
	BPM             float64 `json:"bpm"`
	Tick            int     `json:"tick"`
	Beat            int     `json:"beat"`
	Measure         int     `json:"measure"`
	TicksPerMeasure int     `json:"ticks_per_measure"`
	BeatsPerMeasure int     `json:"beats_per_measure"`

	Selected uint8                   `json:"selected"`
	Channels []sequencer.ChannelInfo `json:"channels"`
	Sustain  bool                    `json:"sustain"`

	Pixels         []light.Color `json:"-"`
	StripReady     bool          `json:"strip_ready"`
	Pushes         int           `json:"pushes"`
	MIDITasks      int           `json:"midi_tasks"`
	AnimationTasks int           `json:"animation_tasks"`
	Triggered      int           `json:"triggered"`

	Project string   `json:"project"`
	Output  string   `json:"output,omitempty"`
	Devices []string `json:"devices,omitempty"`
	Message string   `json:"message,omitempty"`
}

// Channel returns the info for ch, or an idle entry
func (s Status) Channel(ch uint8) sequencer.ChannelInfo {
	for _, info := range s.Channels {
		if info.Channel == ch {
			return info
		}
	}
	return sequencer.ChannelInfo{Channel: ch}
}
