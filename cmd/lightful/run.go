package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"lightful/api"
	"lightful/audio"
	"lightful/config"
	"lightful/debug"
	"lightful/engine"
	"lightful/light"
	"lightful/midi"
	"lightful/theme"
	"lightful/tui"
)

var runFlags struct {
	virtual  bool
	serial   string
	baud     int
	pixels   int
	in       string
	out      string
	api      string
	click    bool
	debug    bool
	headless bool
	profile  bool
	project  string
	palette  string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the light show",
	Long: `Runs the looper and the light show. Flags override the config file.
The terminal UI is shown when stdout is a terminal and --headless is not set.`,
	Args: cobra.NoArgs,
	RunE: runShow,
}

func init() {
	f := runCmd.Flags()
	f.BoolVar(&runFlags.virtual, "virtual", false, "Simulate the strip instead of opening a serial port")
	f.StringVar(&runFlags.serial, "serial", "", "Serial device of the pixel controller")
	f.IntVar(&runFlags.baud, "baud", 0, "Serial baud rate")
	f.IntVar(&runFlags.pixels, "pixels", 0, "Number of LEDs")
	f.StringVar(&runFlags.in, "in", "", "MIDI input port name filter")
	f.StringVar(&runFlags.out, "out", "", "MIDI output port name filter")
	f.StringVar(&runFlags.api, "api", "", "Serve the HTTP API on this address")
	f.BoolVar(&runFlags.click, "click", false, "Play a metronome click")
	f.BoolVar(&runFlags.debug, "debug", false, "Write a debug log to ~/.config/lightful/debug.log")
	f.BoolVar(&runFlags.headless, "headless", false, "Do not show the terminal UI")
	f.BoolVar(&runFlags.profile, "profile", false, "Log control loop timings every 2s")
	f.StringVar(&runFlags.project, "project", "", "Project that saved loops go to")
	f.StringVar(&runFlags.palette, "palette", "", "Palette name or .gpl file")
}

// applyRunFlags layers the flags that were set over cfg
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	set := cmd.Flags().Changed
	if set("virtual") {
		cfg.Pixels.Virtual = runFlags.virtual
	}
	if set("serial") {
		cfg.Pixels.Device = runFlags.serial
		cfg.Pixels.Virtual = false
	}
	if set("baud") {
		cfg.Pixels.Baud = runFlags.baud
	}
	if set("pixels") {
		cfg.Pixels.Count = runFlags.pixels
	}
	if set("in") {
		cfg.MIDI.Input = runFlags.in
	}
	if set("out") {
		cfg.MIDI.Output = runFlags.out
	}
	if set("api") {
		cfg.API.Listen = runFlags.api
		cfg.API.Enabled = runFlags.api != ""
	}
	if set("click") {
		cfg.Audio.Click = runFlags.click
	}
	if set("project") {
		cfg.UI.Project = runFlags.project
	}
	if set("palette") {
		cfg.UI.Palette = runFlags.palette
	}
}

func openStrip(cfg config.PixelsConfig) (light.Strip, func(), error) {
	if cfg.Virtual || cfg.Device == "" {
		debug.Info("main", "simulated strip, %d pixels", cfg.Count)
		return light.NewBuffer(cfg.Count), func() {}, nil
	}
	timeout := time.Duration(cfg.Timeout * float64(time.Second))
	s, err := light.OpenSerialStrip(cfg.Device, cfg.Baud, cfg.Count, timeout)
	if err != nil {
		return nil, nil, err
	}
	return s, func() { s.Close() }, nil
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyRunFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	useTUI := !runFlags.headless && isatty.IsTerminal(os.Stdout.Fd())
	switch {
	case !useTUI:
		debug.EnableTo(os.Stderr)
	case runFlags.debug:
		if err := debug.Enable(); err != nil {
			return fmt.Errorf("debug log: %w", err)
		}
	}
	defer debug.Disable()

	palette, err := theme.Load(cfg.UI.Palette)
	if err != nil {
		return err
	}

	strip, closeStrip, err := openStrip(cfg.Pixels)
	if err != nil {
		return err
	}
	defer closeStrip()

	opts := engine.Options{
		Tempo:           cfg.Timing.Tempo,
		TicksPerBeat:    cfg.Timing.TicksPerBeat,
		BeatsPerMeasure: cfg.Timing.BeatsPerMeasure,
		Strip:           strip,
		Palette:         palette,
		Project:         cfg.UI.Project,
		Profile:         runFlags.profile,
	}
	if cfg.Audio.Click {
		clicker := audio.NewClicker(cfg.Audio.SampleRate)
		if err := clicker.Init(); err != nil {
			debug.Warn("main", "no click: %v", err)
		} else {
			defer clicker.Close()
			opts.OnBeat = clicker.Click
		}
	}

	m := engine.New(opts)
	m.AttachDevices(midi.NewDeviceManager(m.Hub(), cfg.MIDI.Input, cfg.MIDI.Output))

	ctx, stop := context.WithCancel(cmd.Context())
	defer stop()

	if cfg.API.Enabled {
		srv := api.NewServer(m)
		go func() {
			if err := srv.Run(ctx, cfg.API.Listen); err != nil {
				debug.Error("api", "%v", err)
			}
		}()
	}

	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	if useTUI {
		model := tui.NewModel(m, m.UpdateChan, theme.New(palette))
		p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
		if _, err := p.Run(); err != nil && ctx.Err() == nil {
			stop()
			<-done
			return err
		}
		stop()
	}

	if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
