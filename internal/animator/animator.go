// Package animator turns a line of text into a timed rotation
// animation and hands it to the fan. Generation and delivery are two
// distinct phases: every frame is rendered and processed up front, then
// the finished set is streamed at the display rate. Pre-rendering keeps
// delivery pacing honest; interleaving would let slow frames starve the
// fan mid-spin.
package animator

import (
	"context"
	"fmt"
	"image"
	"math"

	"github.com/rs/zerolog"

	"github.com/rmagana/holofan/internal/fan"
	"github.com/rmagana/holofan/internal/frame"
	"github.com/rmagana/holofan/internal/render"
)

// Animator drives the render/process/deliver pipeline for one fan.
type Animator struct {
	renderer  render.Renderer
	processor *frame.Processor
	client    *fan.Client
	frameRate int
	logger    zerolog.Logger
}

// Options tunes frame post-processing during animation.
type Options struct {
	Brightness float64
	Contrast   float64
	Sharpen    bool
}

// DefaultOptions leaves frames untouched apart from the resize.
func DefaultOptions() Options {
	return Options{Brightness: 1.0, Contrast: 1.0}
}

// New creates an animator over the given pipeline stages.
func New(r render.Renderer, p *frame.Processor, c *fan.Client, frameRate int, logger zerolog.Logger) (*Animator, error) {
	if r == nil || p == nil || c == nil {
		return nil, fmt.Errorf("animator: all pipeline stages are required")
	}
	if frameRate <= 0 {
		return nil, fmt.Errorf("animator: invalid frame rate %d", frameRate)
	}
	return &Animator{
		renderer:  r,
		processor: p,
		client:    c,
		frameRate: frameRate,
		logger:    logger.With().Str("component", "animator").Logger(),
	}, nil
}

// Animate renders text as one full rotation over the given duration in
// seconds, then streams the frames to the fan. A generation failure
// aborts the run before anything is sent; delivery failures are
// absorbed per frame and reflected in the result.
func (a *Animator) Animate(ctx context.Context, text string, duration float64) (fan.StreamResult, error) {
	frames, err := a.GenerateFrames(ctx, text, duration, DefaultOptions())
	if err != nil {
		return fan.StreamResult{}, err
	}
	return a.client.StreamFrames(ctx, frames, a.frameRate), nil
}

// GenerateFrames renders and processes the full frame set without
// delivering it. Frame count is the rounded product of rate and
// duration, never less than one, and frame i views the content from
// angle 360/count x i so the set tiles seamlessly when looped.
func (a *Animator) GenerateFrames(ctx context.Context, text string, duration float64, opts Options) ([]*image.NRGBA, error) {
	if duration <= 0 {
		return nil, fmt.Errorf("animator: duration must be positive, got %g", duration)
	}

	count := int(math.Round(float64(a.frameRate) * duration))
	if count < 1 {
		count = 1
	}
	angleStep := 360.0 / float64(count)

	a.logger.Info().Str("text", text).Float64("duration", duration).
		Int("frames", count).Msg("Generating animation")

	frames := make([]*image.NRGBA, 0, count)
	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("animator: generation cancelled at frame %d: %w", i, err)
		}

		rendered, err := a.renderer.Render(text, angleStep*float64(i))
		if err != nil {
			return nil, fmt.Errorf("animator: frame %d of %d: %w", i, count, err)
		}

		processed, err := a.processor.OptimizeForDisplay(rendered, opts.Brightness, opts.Contrast, opts.Sharpen)
		if err != nil {
			return nil, fmt.Errorf("animator: process frame %d of %d: %w", i, count, err)
		}
		frames = append(frames, processed)
	}

	return frames, nil
}
