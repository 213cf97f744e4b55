// Command lightful runs the MIDI light installation
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"lightful/config"
)

var (
	version = "dev"
	commit  = "none"
)

var configPath string

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "lightful",
	Short: "MIDI-reactive LED light show with a live looper",
	Long: `lightful turns notes from a MIDI keyboard into light effects on an
addressable LED strip and loops recorded phrases in sync with a metronome.

Examples:
  lightful run --virtual
  lightful run --serial /dev/ttyACM0 --in "digital piano" --out fluidsynth
  lightful ports
  lightful inspect ~/.config/lightful/projects/untitled/2024-01-15_14-30-00_ch2.mid
  lightful config init`,
	Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default ~/.config/lightful/config.yaml)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(portsCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(projectsCmd)
}

// loadConfig reads --config, or the default path
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFrom(configPath)
	}
	return config.Load()
}
