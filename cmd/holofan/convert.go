package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rmagana/holofan/internal/frame"
)

var convertPattern string

var convertCmd = &cobra.Command{
	Use:   "convert <input-dir> <output-dir>",
	Short: "Convert a directory of images to fan resolution",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer logger.Close()

		processor, err := frame.NewProcessor(cfg.Fan.Width, cfg.Fan.Height, logger.Zerolog())
		if err != nil {
			return err
		}

		converted, err := processor.ConvertDir(args[0], args[1], convertPattern)
		if err != nil {
			return err
		}
		fmt.Printf("converted %d images to %dx%d\n", converted, cfg.Fan.Width, cfg.Fan.Height)
		return nil
	},
}

func init() {
	convertCmd.Flags().StringVar(&convertPattern, "pattern", "*", "Filename glob to match")
}
