package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ivlev/scrollmotion/internal/config"
	"github.com/ivlev/scrollmotion/internal/logging"
	"github.com/ivlev/scrollmotion/internal/system"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "scrollmotion",
	Short: "Scroll-driven animation scheduler for HTML pages",
	Long: `scrollmotion mounts scroll-triggered animation sections on an HTML document,
plays scripted sessions against them offline or serves a live session over HTTP.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "YAML config file")
	pf.String("env-file", ".env", "dotenv file with SCROLLMOTION_* overrides")
	pf.String("log-level", "", "debug, info, warn or error")
	pf.String("document", "", "HTML document (default: the one named by the scenario)")
	pf.String("scenario", "", "scenario YAML (default: the newest one in internal/scenarios)")
	pf.Int("width", 0, "viewport width")
	pf.Int("height", 0, "viewport height")
	pf.Int("fps", 0, "frames per second")
	pf.String("preference", "", "reduced-motion preference: reduce or no-preference")
	pf.String("preference-file", "", "watch this file for the reduced-motion preference")
}

// setup layers defaults, the config file, the environment and flags, in
// that order, and builds the logger.
func setup(cmd *cobra.Command) error {
	cfg = config.Default()
	cfg.BuildVersion = version

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return err
		}
	}
	envFile, _ := cmd.Flags().GetString("env-file")
	if err := cfg.LoadEnv(envFile); err != nil {
		return err
	}
	applyFlags(cmd)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger = logging.New(logging.ParseLevel(cfg.LogLevel))
	slog.SetDefault(logger)
	system.InitResourceLimits(logger)
	return nil
}

// applyFlags copies every flag the user set onto cfg.
func applyFlags(cmd *cobra.Command) {
	fs := cmd.Flags()
	str := func(name string, dst *string) {
		if fs.Lookup(name) != nil && fs.Changed(name) {
			*dst, _ = fs.GetString(name)
		}
	}
	num := func(name string, dst *int) {
		if fs.Lookup(name) != nil && fs.Changed(name) {
			*dst, _ = fs.GetInt(name)
		}
	}
	flag := func(name string, dst *bool) {
		if fs.Lookup(name) != nil && fs.Changed(name) {
			*dst, _ = fs.GetBool(name)
		}
	}

	str("log-level", &cfg.LogLevel)
	str("document", &cfg.Document)
	str("scenario", &cfg.Scenario)
	num("width", &cfg.Width)
	num("height", &cfg.Height)
	num("fps", &cfg.FPS)
	str("preference", &cfg.Preference)
	str("preference-file", &cfg.PreferenceFile)

	str("output", &cfg.Output)
	num("workers", &cfg.Workers)
	str("snapshots", &cfg.Snapshots)
	num("snapshot-every", &cfg.SnapshotEvery)
	str("preview", &cfg.Preview)
	str("encoder", &cfg.VideoEncoder)
	num("quality", &cfg.Quality)
	flag("audit", &cfg.Audit)
	flag("stats", &cfg.ShowStats)
	str("addr", &cfg.Addr)
	if fs.Lookup("duration") != nil && fs.Changed("duration") {
		cfg.Duration, _ = fs.GetFloat64("duration")
	}
}
