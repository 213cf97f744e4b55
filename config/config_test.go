package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadFromMissingFileGivesDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if *cfg != *DefaultConfig() {
		t.Errorf("got %+v, want defaults", cfg)
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Pixels.Device = "/dev/ttyACM0"
	cfg.Pixels.Virtual = false
	cfg.Timing.Tempo = 400_000
	cfg.API.Enabled = true

	if err := cfg.SaveTo(path); err != nil {
		t.Fatal(err)
	}
	got, err := LoadFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if *got != *cfg {
		t.Errorf("loaded %+v, want %+v", got, cfg)
	}
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	os.WriteFile(path, []byte("timing:\n  tempo: 600000\nmidi:\n  input: digital piano\n"), 0644)

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Timing.Tempo != 600000 || cfg.MIDI.Input != "digital piano" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Timing.TicksPerBeat != 24 || cfg.Pixels.Count != 100 {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   string
	}{
		{"zero tempo", func(c *Config) { c.Timing.Tempo = 0 }, "tempo"},
		{"zero ticks", func(c *Config) { c.Timing.TicksPerBeat = 0 }, "ticks_per_beat"},
		{"zero measure", func(c *Config) { c.Timing.BeatsPerMeasure = 0 }, "beats_per_measure"},
		{"no pixels", func(c *Config) { c.Pixels.Count = 0 }, "pixels.count"},
		{"too many serial pixels", func(c *Config) { c.Pixels.Virtual = false; c.Pixels.Count = 300 }, "255"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want error about %s", err, tt.want)
			}
		})
	}

	big := DefaultConfig()
	big.Pixels.Count = 300
	if err := big.Validate(); err != nil {
		t.Errorf("virtual strip limited: %v", err)
	}
}

func TestLoadFromRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	os.WriteFile(path, []byte("timing: [1, 2"), 0644)
	if _, err := LoadFrom(path); err == nil {
		t.Error("bad YAML accepted")
	}

	os.WriteFile(path, []byte("timing:\n  tempo: -5\n"), 0644)
	if _, err := LoadFrom(path); err == nil {
		t.Error("invalid tempo accepted")
	}
}
