package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rmagana/holofan/internal/config"
	"github.com/rmagana/holofan/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "holofan",
	Short: "Holographic fan chatbot pipeline",
	Long: `holofan turns chat replies into spinning text animations on a
holographic LED fan display.

Examples:
  # Start the interactive chat loop
  holofan run

  # Health-check the fan endpoint
  holofan check

  # Convert a directory of images to fan resolution
  holofan convert ./images ./converted

  # Convert images as they are dropped into a folder
  holofan watch ./drop ./converted
`,
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(watchCmd)
}

// setup loads config and builds the shared logger.
func setup() (*config.Config, *logging.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	logger, err := logging.New(&logging.Config{
		LogDir:  cfg.Log.Dir,
		Level:   logging.LogLevel(cfg.Log.Level),
		Console: cfg.Log.Console,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("init logging: %w", err)
	}
	return cfg, logger, nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
