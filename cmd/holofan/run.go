package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rmagana/holofan/internal/animator"
	"github.com/rmagana/holofan/internal/chat"
	"github.com/rmagana/holofan/internal/config"
	"github.com/rmagana/holofan/internal/fan"
	"github.com/rmagana/holofan/internal/frame"
	"github.com/rmagana/holofan/internal/lipsync"
	"github.com/rmagana/holofan/internal/logging"
	"github.com/rmagana/holofan/internal/model"
	"github.com/rmagana/holofan/internal/preview"
	"github.com/rmagana/holofan/internal/render"
	"github.com/rmagana/holofan/internal/speech"
)

// apology is spoken and animated when the chat backend is down. The
// session keeps going; one failed turn is not a reason to exit.
const apology = "Sorry, I could not think of a reply just now."

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the interactive chat loop",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer logger.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		p, err := buildPipeline(cfg, logger)
		if err != nil {
			return err
		}
		defer p.close()

		return p.repl(ctx)
	},
}

// pipeline wires the full chat-to-fan path for one session.
type pipeline struct {
	cfg    *config.Config
	logger zerolog.Logger

	client      *fan.Client
	animator    *animator.Animator
	responder   *chat.OpenAIClient
	synthesizer *speech.HTTPSynthesizer
	player      *speech.Player
	hub         *preview.Hub
	avatar      *model.Model
}

func buildPipeline(cfg *config.Config, log *logging.Logger) (*pipeline, error) {
	logger := log.Zerolog()

	fanCfg := &fan.Config{
		BaseURL:        cfg.Fan.BaseURL,
		UploadPath:     cfg.Fan.UploadPath,
		FrameRate:      cfg.Animation.FrameRate,
		Width:          cfg.Fan.Width,
		Height:         cfg.Fan.Height,
		ConnectTimeout: cfg.Fan.ConnectTimeout,
		ReadTimeout:    cfg.Fan.ReadTimeout,
		RetryCount:     cfg.Fan.RetryCount,
	}
	client := fan.NewClient(fanCfg, logger)

	processor, err := frame.NewProcessor(cfg.Fan.Width, cfg.Fan.Height, logger)
	if err != nil {
		return nil, err
	}
	renderer, err := render.NewTextRenderer(cfg.Fan.Width, cfg.Fan.Height, logger)
	if err != nil {
		return nil, err
	}
	anim, err := animator.New(renderer, processor, client, cfg.Animation.FrameRate, logger)
	if err != nil {
		return nil, err
	}

	p := &pipeline{
		cfg:      cfg,
		logger:   logger,
		client:   client,
		animator: anim,
		responder: chat.NewOpenAIClient(logger, &chat.Config{
			APIKey:       cfg.Chat.APIKey,
			BaseURL:      cfg.Chat.BaseURL,
			Model:        cfg.Chat.Model,
			SystemPrompt: cfg.Chat.SystemPrompt,
			MaxTokens:    cfg.Chat.MaxTokens,
			Temperature:  cfg.Chat.Temperature,
			MaxHistory:   cfg.Chat.MaxHistory,
			Timeout:      30 * time.Second,
		}),
	}

	if cfg.Speech.Enabled {
		p.synthesizer = speech.NewHTTPSynthesizer(logger, &speech.Config{
			APIKey:  cfg.Speech.APIKey,
			BaseURL: cfg.Speech.BaseURL,
			Model:   cfg.Speech.Model,
			Voice:   cfg.Speech.Voice,
			Speed:   cfg.Speech.Speed,
			OutDir:  cfg.Speech.OutDir,
			Timeout: 30 * time.Second,
		})
		p.player = speech.NewPlayer(logger)
	}

	if cfg.Preview.Enabled {
		p.hub = preview.NewHub(cfg.Preview.Addr, logger)
		if err := p.hub.Start(); err != nil {
			return nil, err
		}
		client.SetFrameObserver(p.hub.Broadcast)
	}

	if cfg.Model.Path != "" {
		avatar, err := model.Load(cfg.Model.Path, logger)
		if err != nil {
			// The model only gates lip-sync, the fan works without it.
			logger.Warn().Err(err).Msg("Avatar model unavailable, lip-sync disabled")
		} else {
			p.avatar = avatar
			if !avatar.HasMouthShapes(lipsync.BlendParams()) {
				logger.Warn().Strs("required", lipsync.BlendParams()).
					Msg("Avatar model lacks mouth blend shapes")
			}
		}
	}

	return p, nil
}

func (p *pipeline) close() {
	if p.hub != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		p.hub.Shutdown(ctx)
		cancel()
	}
	p.client.Close()
	if p.cfg.Speech.Enabled {
		speech.CleanDir(p.cfg.Speech.OutDir, p.logger)
	}
}

// repl reads user lines until EOF, quit, or cancellation.
func (p *pipeline) repl(ctx context.Context) error {
	if !p.client.TestConnection(ctx) {
		fmt.Println("Warning: fan is not reachable, frames will be dropped.")
	}

	fmt.Println("holofan ready. Type a message, or: quit, clear, stats.")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "quit", "exit":
			return nil
		case "clear":
			p.responder.ClearHistory()
			fmt.Println("Conversation cleared.")
			continue
		case "stats":
			s := p.client.GetStats()
			fmt.Printf("frames sent: %d  fan: %s  %dx%d @ %d fps\n",
				s.FramesSent, s.URL, s.Width, s.Height, s.FrameRate)
			continue
		}

		p.turn(ctx, line)
	}
}

// turn runs one full chat exchange. Every stage degrades rather than
// aborts: a dead chat backend yields an apology, failed speech stays
// silent, and dropped frames are already absorbed by the stream.
func (p *pipeline) turn(ctx context.Context, userText string) {
	reply, err := p.responder.Respond(ctx, userText)
	if err != nil {
		p.logger.Error().Err(err).Msg("Chat turn failed")
		reply = apology
	}
	fmt.Println(reply)

	duration := speech.EstimateDuration(reply)

	if p.synthesizer != nil && p.synthesizer.IsAvailable() {
		if path, err := p.synthesizer.Synthesize(ctx, reply); err != nil {
			p.logger.Warn().Err(err).Msg("Speech synthesis failed, continuing silent")
		} else if p.player.Available() {
			// Audio plays while the animation streams.
			go func() {
				if err := p.player.Play(ctx, path); err != nil && ctx.Err() == nil {
					p.logger.Warn().Err(err).Msg("Audio playback failed")
				}
			}()
		}
	}

	if p.avatar != nil {
		visemes := lipsync.SymbolsToVisemes(lipsync.ApproximateSymbols(reply))
		timeline, err := lipsync.BuildTimeline(visemes, duration)
		if err != nil {
			p.logger.Warn().Err(err).Msg("Lip-sync timeline failed")
		} else {
			p.logger.Debug().Int("keyframes", len(timeline.Keyframes)).
				Float64("duration", duration).Msg("Lip-sync timeline built")
		}
	}

	result, err := p.animator.Animate(ctx, reply, duration)
	if err != nil {
		p.logger.Error().Err(err).Msg("Animation failed")
		return
	}
	if result.Sent < result.Total {
		fmt.Printf("(%d of %d frames delivered)\n", result.Sent, result.Total)
	}
}
