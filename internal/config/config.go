// Package config holds the run settings shared by every subcommand.
// Values are layered: Default, then an optional YAML file, then .env and
// SCROLLMOTION_* environment variables, then command-line flags.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SCROLLMOTION_"

type Config struct {
	Document       string  `yaml:"document"`
	Scenario       string  `yaml:"scenario"`
	Output         string  `yaml:"output"`
	Duration       float64 `yaml:"duration"`
	Width          int     `yaml:"width"`
	Height         int     `yaml:"height"`
	FPS            int     `yaml:"fps"`
	Workers        int     `yaml:"workers"`
	Snapshots      string  `yaml:"snapshots"`
	SnapshotEvery  int     `yaml:"snapshot_every"`
	Preview        string  `yaml:"preview"`
	VideoEncoder   string  `yaml:"video_encoder"`
	Quality        int     `yaml:"quality"`
	Audit          bool    `yaml:"audit"`
	Preference     string  `yaml:"preference"`
	PreferenceFile string  `yaml:"preference_file"`
	LogLevel       string  `yaml:"log_level"`
	Addr           string  `yaml:"addr"`
	ShowStats      bool    `yaml:"show_stats"`
	BuildVersion   string  `yaml:"-"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Width:         1440,
		Height:        800,
		FPS:           60,
		Workers:       runtime.NumCPU(),
		SnapshotEvery: 1,
		Preference:    "no-preference",
		LogLevel:      "info",
		Addr:          ":8080",
	}
}

// LoadFile overlays the YAML file at path onto c. Keys absent from the
// file keep their current values.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// LoadEnv loads the given .env files, if present, and then applies
// SCROLLMOTION_* variables. Variables already set in the process win over
// the files.
func (c *Config) LoadEnv(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return c.applyEnv(os.LookupEnv)
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"DOCUMENT":        &c.Document,
		"SCENARIO":        &c.Scenario,
		"OUTPUT":          &c.Output,
		"SNAPSHOTS":       &c.Snapshots,
		"PREVIEW":         &c.Preview,
		"VIDEO_ENCODER":   &c.VideoEncoder,
		"PREFERENCE":      &c.Preference,
		"PREFERENCE_FILE": &c.PreferenceFile,
		"LOG_LEVEL":       &c.LogLevel,
		"ADDR":            &c.Addr,
	}
	for k, p := range strs {
		if v, ok := lookup(EnvPrefix + k); ok {
			*p = v
		}
	}

	ints := map[string]*int{
		"WIDTH":          &c.Width,
		"HEIGHT":         &c.Height,
		"FPS":            &c.FPS,
		"WORKERS":        &c.Workers,
		"SNAPSHOT_EVERY": &c.SnapshotEvery,
		"QUALITY":        &c.Quality,
	}
	for k, p := range ints {
		if v, ok := lookup(EnvPrefix + k); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, k, err)
			}
			*p = n
		}
	}

	if v, ok := lookup(EnvPrefix + "DURATION"); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("%sDURATION: %w", EnvPrefix, err)
		}
		c.Duration = f
	}

	bools := map[string]*bool{"AUDIT": &c.Audit, "SHOW_STATS": &c.ShowStats}
	for k, p := range bools {
		if v, ok := lookup(EnvPrefix + k); ok {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, k, err)
			}
			*p = b
		}
	}
	return nil
}

// Validate rejects settings no run can use.
func (c *Config) Validate() error {
	switch {
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("config: viewport %dx%d must be positive", c.Width, c.Height)
	case c.FPS <= 0:
		return fmt.Errorf("config: fps %d must be positive", c.FPS)
	case c.Duration < 0:
		return fmt.Errorf("config: negative duration %.2f", c.Duration)
	case c.SnapshotEvery <= 0:
		return fmt.Errorf("config: snapshot_every %d must be positive", c.SnapshotEvery)
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	return nil
}
