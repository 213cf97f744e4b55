package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"lightful/config"
	"lightful/light"
	"lightful/midi"
	"lightful/sequencer"
)

const portsTimeout = 3 * time.Second

var (
	watchPorts bool
	editRange  midi.NoteRange
	editScale  float64
)

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List MIDI and serial ports",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if watchPorts {
			return pollPorts(cmd)
		}
		return listPorts()
	},
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.mid>",
	Short: "Print the events of a saved loop",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		loop, err := readLoop(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%.1f bpm, %d ticks per beat, %d beats, %d events\n",
			midi.BPM(loop.Tempo), loop.TicksPerBeat, loop.BeatsPerMeasure, loop.Len())
		for _, tick := range loop.Ticks() {
			for _, evt := range loop.At(tick) {
				fmt.Printf("%5d  %s\n", tick, evt)
			}
		}
		return nil
	},
}

var editCmd = &cobra.Command{
	Use:   "edit <in.mid> <out.mid>",
	Short: "Scale note velocities in a saved loop",
	Long: `Multiplies the velocity of every note between --low and --high by
--scale and writes the result to a new file.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if editRange.Low > editRange.High {
			return fmt.Errorf("--low %d is above --high %d", editRange.Low, editRange.High)
		}
		loop, err := readLoop(args[0])
		if err != nil {
			return err
		}
		out, err := os.Create(args[1])
		if err != nil {
			return err
		}
		defer out.Close()
		if err := midi.WriteSMF(out, midi.ScaleVelocity(loop, editRange, editScale)); err != nil {
			return err
		}
		return out.Close()
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the config file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			var err error
			if path, err = config.ConfigPath(); err != nil {
				return err
			}
		}
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
		if err := config.DefaultConfig().SaveTo(path); err != nil {
			return err
		}
		fmt.Println("wrote", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the config in effect",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		data, err := cfg.Marshal()
		if err != nil {
			return err
		}
		fmt.Print(string(data))
		return nil
	},
}

var projectsCmd = &cobra.Command{
	Use:   "projects [name]",
	Short: "List projects, or the saved loops of one project",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			names, err := sequencer.ListProjects()
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Println(name)
			}
			return nil
		}
		saves, err := sequencer.ListSaves(args[0])
		if err != nil {
			return err
		}
		for _, s := range saves {
			fmt.Printf("%s  ch%-2d  %s\n", s.Timestamp.Format("2006-01-02 15:04:05"), s.Channel, s.Filename)
		}
		return nil
	},
}

func init() {
	portsCmd.Flags().BoolVarP(&watchPorts, "watch", "w", false, "Keep polling and report ports as they come and go")

	editCmd.Flags().Uint8Var(&editRange.Low, "low", 0, "Lowest note to change")
	editCmd.Flags().Uint8Var(&editRange.High, "high", 127, "Highest note to change")
	editCmd.Flags().Float64Var(&editScale, "scale", 1, "Velocity multiplier")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}

func readLoop(path string) (*midi.Loop, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return midi.ReadSMF(f, 0)
}

func listPorts() error {
	ins, outs, err := midi.ListPorts(portsTimeout)
	if err != nil {
		return err
	}

	fmt.Println("MIDI inputs:")
	for _, p := range ins {
		fmt.Printf("  %s%s\n", p.String(), launchpadMark(p.String()))
	}
	fmt.Println("MIDI outputs:")
	for _, p := range outs {
		fmt.Printf("  %s%s\n", p.String(), launchpadMark(p.String()))
	}

	serials, err := light.SerialPorts()
	if err != nil {
		return fmt.Errorf("serial ports: %w", err)
	}
	fmt.Println("Serial ports:")
	for _, name := range serials {
		fmt.Printf("  %s\n", name)
	}
	return nil
}

func launchpadMark(name string) string {
	if midi.IsLaunchpad(name) {
		return "  (launchpad)"
	}
	return ""
}

// pollPorts prints MIDI inputs as they appear and disappear until interrupted
func pollPorts(cmd *cobra.Command) error {
	fmt.Println("Watching MIDI inputs (Ctrl+C to stop)...")
	known := make(map[string]bool)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		ins, _, err := midi.ListPorts(portsTimeout)
		if err != nil {
			fmt.Println(err)
		} else {
			seen := make(map[string]bool, len(ins))
			for _, p := range ins {
				name := p.String()
				seen[name] = true
				if !known[name] {
					fmt.Printf("%s  + %s%s\n", time.Now().Format("15:04:05"), name, launchpadMark(name))
				}
			}
			for name := range known {
				if !seen[name] {
					fmt.Printf("%s  - %s\n", time.Now().Format("15:04:05"), name)
				}
			}
			known = seen
		}

		select {
		case <-cmd.Context().Done():
			return nil
		case <-ticker.C:
		}
	}
}
