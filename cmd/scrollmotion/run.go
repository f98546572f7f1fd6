package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ivlev/scrollmotion/internal/engine"
	"github.com/ivlev/scrollmotion/internal/scenario"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Play a scenario offline and write a report",
	Long: `Plays the scenario's script on a simulated frame clock and reports the final
session state, captured frames and any requested snapshots, preview or audit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Scenario == "" {
			latest, err := scenario.FindLatestScenario(scenario.DefaultDir)
			if err != nil {
				return fmt.Errorf("%w: pass --scenario or run scaffold first", err)
			}
			cfg.Scenario = latest
			fmt.Fprintf(os.Stderr, "[*] Selected scenario: %s\n", latest)
		}

		// A preview needs frames on disk.
		if cfg.Preview != "" && cfg.Snapshots == "" {
			dir, err := os.MkdirTemp("", "scrollmotion-frames-")
			if err != nil {
				return err
			}
			defer os.RemoveAll(dir)
			cfg.Snapshots = dir
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		report, err := engine.NewSimulation(cfg, logger).Run(ctx)
		if err != nil {
			return err
		}

		if cfg.Output == "" {
			enc := yaml.NewEncoder(os.Stdout)
			defer enc.Close()
			return enc.Encode(report)
		}
		if err := engine.WriteReport(report, cfg.Output); err != nil {
			return err
		}
		fmt.Printf("[+] Report: %s (%d frames, %d script errors)\n", cfg.Output, len(report.Frames), len(report.Errors))
		if report.Preview != "" {
			fmt.Printf("[+] Preview: %s\n", report.Preview)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	f := runCmd.Flags()
	f.StringP("output", "o", "", "report path (default: stdout)")
	f.Float64("duration", 0, "session length in seconds (default: scenario, then last event + 2s)")
	f.Int("workers", 0, "snapshot writer workers")
	f.String("snapshots", "", "write PNG snapshots to this directory")
	f.Int("snapshot-every", 0, "capture every Nth frame")
	f.String("preview", "", "encode snapshots to this video file with ffmpeg")
	f.String("encoder", "", "ffmpeg H.264 encoder (default: best available)")
	f.Int("quality", 0, "encoder quality (0: per-encoder default)")
	f.Bool("audit", false, "flag sections that render blank")
	f.Bool("stats", false, "print a performance report and append it to benchmark.log")
}
