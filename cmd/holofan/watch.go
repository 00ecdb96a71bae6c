package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rmagana/holofan/internal/frame"
	"github.com/rmagana/holofan/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch <input-dir> <output-dir>",
	Short: "Convert images as they are dropped into a folder",
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
		w, err := watch.New(processor, args[1], logger.Zerolog())
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Printf("watching %s, writing to %s (ctrl-c to stop)\n", args[0], args[1])
		if err := w.Run(ctx, args[0]); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		fmt.Printf("converted %d images\n", w.Converted())
		return nil
	},
}
