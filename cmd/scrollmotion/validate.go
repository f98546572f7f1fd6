package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ivlev/scrollmotion/internal/engine"
	"github.com/ivlev/scrollmotion/internal/scenario"
)

var validateCmd = &cobra.Command{
	Use:   "validate [scenario]",
	Short: "Check a scenario against its document",
	Long:  `Resolves every section owner and tween target, and checks easings and script events.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			cfg.Scenario = args[0]
		}
		if cfg.Scenario == "" {
			return fmt.Errorf("no scenario given")
		}
		sc, doc, err := engine.NewSimulation(cfg, logger).Load()
		if err != nil {
			return err
		}
		if err := scenario.Validate(sc, doc); err != nil {
			return fmt.Errorf("validation failed:\n%w", err)
		}
		fmt.Printf("[+] %s is valid: %d sections, %d events\n", cfg.Scenario, len(sc.Sections), len(sc.Script))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
