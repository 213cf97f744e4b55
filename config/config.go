package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"lightful/midi"
	"lightful/theme"
)

// MIDIConfig picks the MIDI ports by case-insensitive substring
type MIDIConfig struct {
	Input  string `yaml:"input"`            // empty: every keyboard
	Output string `yaml:"output,omitempty"` // empty: no output
}

// PixelsConfig describes the LED strip
type PixelsConfig struct {
	Device  string `yaml:"device,omitempty"` // serial port; empty with Virtual
	Baud    int    `yaml:"baud"`
	Count   int    `yaml:"count"`
	Virtual bool   `yaml:"virtual"`
	// handshake timeout in seconds
	Timeout float64 `yaml:"timeout"`
}

// TimingConfig sets the metronome
type TimingConfig struct {
	Tempo           int `yaml:"tempo"` // microseconds per beat
	TicksPerBeat    int `yaml:"ticks_per_beat"`
	BeatsPerMeasure int `yaml:"beats_per_measure"`
}

// UIConfig stores UI preferences
type UIConfig struct {
	Palette string `yaml:"palette"` // built-in name or .gpl path
	Project string `yaml:"project"`
}

type APIConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

type AudioConfig struct {
	Click      bool `yaml:"click"`
	SampleRate int  `yaml:"sample_rate"`
}

// Config is the main configuration structure
type Config struct {
	MIDI   MIDIConfig   `yaml:"midi"`
	Pixels PixelsConfig `yaml:"pixels"`
	Timing TimingConfig `yaml:"timing"`
	UI     UIConfig     `yaml:"ui"`
	API    APIConfig    `yaml:"api"`
	Audio  AudioConfig  `yaml:"audio"`
}

// DefaultConfig returns a config for the door installation with a
// simulated strip
func DefaultConfig() *Config {
	return &Config{
		Pixels: PixelsConfig{
			Baud:    115200,
			Count:   100,
			Virtual: true,
			Timeout: 5,
		},
		Timing: TimingConfig{
			Tempo:           midi.DefaultTempo,
			TicksPerBeat:    24,
			BeatsPerMeasure: 4,
		},
		UI: UIConfig{
			Palette: theme.DefaultPalette,
			Project: "untitled",
		},
		API: APIConfig{
			Listen: "127.0.0.1:8080",
		},
		Audio: AudioConfig{
			SampleRate: 44100,
		},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "lightful"), nil
}

// ConfigPath returns the full path to config.yaml
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the default config file, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads path over the defaults, so missing keys keep their
// default values. A missing file gives the defaults.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to the default path
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the config to path, creating its directory
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := c.Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Marshal encodes the config as YAML
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Validate rejects settings the engine cannot run with
func (c *Config) Validate() error {
	switch {
	case c.Timing.Tempo <= 0:
		return fmt.Errorf("timing.tempo must be positive, got %d", c.Timing.Tempo)
	case c.Timing.TicksPerBeat <= 0:
		return fmt.Errorf("timing.ticks_per_beat must be positive, got %d", c.Timing.TicksPerBeat)
	case c.Timing.BeatsPerMeasure <= 0:
		return fmt.Errorf("timing.beats_per_measure must be positive, got %d", c.Timing.BeatsPerMeasure)
	case c.Pixels.Count <= 0:
		return fmt.Errorf("pixels.count must be positive, got %d", c.Pixels.Count)
	case !c.Pixels.Virtual && c.Pixels.Count > 255:
		return fmt.Errorf("pixels.count %d: the serial protocol sends at most 255", c.Pixels.Count)
	}
	return nil
}
