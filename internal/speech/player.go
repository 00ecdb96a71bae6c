package speech

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/rs/zerolog"
)

// playerCommands lists known command-line audio players in preference
// order, with the flags that make them exit quietly when done.
var playerCommands = [][]string{
	{"mpg123", "-q"},
	{"afplay"},
	{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet"},
	{"play", "-q"},
}

// Player plays audio files through whichever command-line player is
// installed. Detection happens once at construction.
type Player struct {
	command []string
	logger  zerolog.Logger
}

// NewPlayer finds an available audio player on PATH. A nil-command
// player is still usable; Play just reports the absence.
func NewPlayer(logger zerolog.Logger) *Player {
	p := &Player{logger: logger.With().Str("component", "player").Logger()}
	for _, cmd := range playerCommands {
		if _, err := exec.LookPath(cmd[0]); err == nil {
			p.command = cmd
			p.logger.Info().Str("player", cmd[0]).Msg("Audio player found")
			return p
		}
	}
	p.logger.Warn().Msg("No audio player found, playback disabled")
	return p
}

// Available reports whether a player binary was found.
func (p *Player) Available() bool { return p.command != nil }

// Play blocks until the file finishes playing or ctx is cancelled.
func (p *Player) Play(ctx context.Context, path string) error {
	if p.command == nil {
		return fmt.Errorf("speech: no audio player available")
	}

	args := append(append([]string{}, p.command[1:]...), path)
	cmd := exec.CommandContext(ctx, p.command[0], args...)
	p.logger.Debug().Str("file", path).Str("player", p.command[0]).Msg("Playing audio")

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("speech: play %s: %w", path, err)
	}
	return nil
}
