package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rmagana/holofan/internal/fan"
	"github.com/rmagana/holofan/internal/model"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Health-check the fan endpoint and the configured model",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer logger.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		client := fan.NewClient(&fan.Config{
			BaseURL:        cfg.Fan.BaseURL,
			UploadPath:     cfg.Fan.UploadPath,
			FrameRate:      cfg.Animation.FrameRate,
			Width:          cfg.Fan.Width,
			Height:         cfg.Fan.Height,
			ConnectTimeout: cfg.Fan.ConnectTimeout,
			ReadTimeout:    cfg.Fan.ReadTimeout,
			RetryCount:     1,
		}, logger.Zerolog())
		defer client.Close()

		if client.TestConnection(ctx) {
			fmt.Printf("fan OK: %s\n", client.URL())
		} else {
			fmt.Printf("fan UNREACHABLE: %s\n", client.URL())
		}

		if cfg.Model.Path == "" {
			fmt.Println("model: not configured")
			return nil
		}
		m, err := model.Load(cfg.Model.Path, logger.Zerolog())
		if err != nil {
			fmt.Printf("model FAILED: %v\n", err)
			return nil
		}
		info := m.Describe()
		fmt.Printf("model OK: %s (%d nodes, %d meshes, %d morph targets)\n",
			info.Path, info.Nodes, info.Meshes, len(info.MorphTargets))
		return nil
	},
}
