package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ivlev/scrollmotion/internal/dom"
	"github.com/ivlev/scrollmotion/internal/scenario"
	"github.com/ivlev/scrollmotion/internal/system"
)

// inputDir is searched for the newest page when no document is given.
const inputDir = "input/html"

var scaffoldCmd = &cobra.Command{
	Use:   "scaffold",
	Short: "Generate a starter scenario from a document",
	Long: `Detects the page's header, section and footer blocks, picks an effect preset
for each from its content and writes a scenario that scrolls through them.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, d := range []string{inputDir, scenario.DefaultDir} {
			os.MkdirAll(d, 0o755)
		}

		docPath := cfg.Document
		if docPath == "" {
			latest, err := system.FindLatest(inputDir, ".html", ".htm")
			if err != nil {
				return fmt.Errorf("%w: put a page in %s/ or pass --document", err, inputDir)
			}
			docPath = latest
			fmt.Printf("[*] Selected document: %s\n", docPath)
		}
		doc, err := dom.Load(docPath)
		if err != nil {
			return err
		}

		out, _ := cmd.Flags().GetString("output")
		if out == "" {
			out = scenario.GenerateScenarioPath(scenario.DefaultDir)
		}
		// Scenario documents resolve against the scenario's directory.
		ref := docPath
		if abs, err := filepath.Abs(docPath); err == nil {
			if dir, err := filepath.Abs(filepath.Dir(out)); err == nil {
				if rel, err := filepath.Rel(dir, abs); err == nil {
					ref = rel
				}
			}
		}

		total, _ := cmd.Flags().GetFloat64("duration")
		d := scenario.NewDirector(float64(cfg.Width), float64(cfg.Height))
		sc, err := d.GenerateScenario(doc, ref, total)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			return err
		}
		if err := scenario.WriteScenario(sc, out); err != nil {
			return err
		}
		fmt.Printf("[+] Scenario: %s (%d sections, %d events)\n", out, len(sc.Sections), len(sc.Script))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scaffoldCmd)
	scaffoldCmd.Flags().Float64("duration", 15, "target script length in seconds")
	scaffoldCmd.Flags().StringP("output", "o", "", "scenario path (default: timestamped file in internal/scenarios)")
}
