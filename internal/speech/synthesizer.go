// Package speech synthesizes spoken audio for chat replies and plays
// it alongside the fan animation. Synthesis is best-effort in the
// pipeline: a reply that cannot be voiced still gets animated.
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Synthesizer converts text to an audio file on disk.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (string, error)
	EstimateDuration(text string) float64
}

// speechCharsPerSecond approximates a comfortable speaking rate for
// duration estimates when the audio length is unknown.
const speechCharsPerSecond = 15.0

// minSpeechSeconds floors estimates so one-word replies still get a
// visible animation.
const minSpeechSeconds = 1.0

// EstimateDuration approximates how long text takes to speak, in
// seconds. Character count is a crude proxy but tracks real TTS output
// closely enough to size animations.
func EstimateDuration(text string) float64 {
	d := float64(len(strings.TrimSpace(text))) / speechCharsPerSecond
	return math.Max(d, minSpeechSeconds)
}

// Config holds TTS settings.
type Config struct {
	APIKey   string        `json:"api_key"`
	BaseURL  string        `json:"base_url"`
	Model    string        `json:"model"`
	Voice    string        `json:"voice"`
	Speed    float64       `json:"speed"`
	OutDir   string        `json:"out_dir"`
	Timeout  time.Duration `json:"timeout"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BaseURL: "https://api.openai.com",
		Model:   "tts-1",
		Voice:   "nova",
		Speed:   1.0,
		OutDir:  os.TempDir(),
		Timeout: 30 * time.Second,
	}
}

// HTTPSynthesizer implements Synthesizer against the OpenAI speech API,
// writing each clip to a numbered mp3 under the configured directory.
type HTTPSynthesizer struct {
	apiKey string
	client *http.Client
	logger zerolog.Logger
	config *Config
	clips  int
}

type speechRequest struct {
	Model          string  `json:"model"`
	Input          string  `json:"input"`
	Voice          string  `json:"voice"`
	ResponseFormat string  `json:"response_format,omitempty"`
	Speed          float64 `json:"speed,omitempty"`
}

// NewHTTPSynthesizer creates a synthesizer. The API key falls back to
// OPENAI_API_KEY when not configured.
func NewHTTPSynthesizer(logger zerolog.Logger, config *Config) *HTTPSynthesizer {
	if config == nil {
		config = DefaultConfig()
	}
	apiKey := config.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	return &HTTPSynthesizer{
		apiKey: apiKey,
		client: &http.Client{Timeout: config.Timeout},
		logger: logger.With().Str("component", "speech").Logger(),
		config: config,
	}
}

// IsAvailable reports whether an API key is configured.
func (s *HTTPSynthesizer) IsAvailable() bool { return s.apiKey != "" }

// Synthesize converts text to speech and returns the path of the mp3
// it wrote.
func (s *HTTPSynthesizer) Synthesize(ctx context.Context, text string) (string, error) {
	if s.apiKey == "" {
		return "", fmt.Errorf("speech: API key not configured")
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("speech: empty text")
	}

	startTime := time.Now()

	body, err := json.Marshal(speechRequest{
		Model:          s.config.Model,
		Input:          text,
		Voice:          s.config.Voice,
		ResponseFormat: "mp3",
		Speed:          s.config.Speed,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := strings.TrimRight(s.config.BaseURL, "/") + "/v1/audio/speech"
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		s.logger.Error().
			Int("status", resp.StatusCode).
			Str("body", string(bodyBytes)).
			Msg("TTS request failed")
		return "", fmt.Errorf("TTS API error: status %d", resp.StatusCode)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if err := os.MkdirAll(s.config.OutDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(s.config.OutDir, fmt.Sprintf("speech_%04d.mp3", s.clips))
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		return "", fmt.Errorf("write audio file: %w", err)
	}
	s.clips++

	s.logger.Info().
		Str("voice", s.config.Voice).
		Int("audioBytes", len(audio)).
		Dur("processingTime", time.Since(startTime)).
		Str("path", path).
		Msg("Speech synthesized")

	return path, nil
}

// EstimateDuration implements Synthesizer.
func (s *HTTPSynthesizer) EstimateDuration(text string) float64 {
	return EstimateDuration(text)
}

// CleanDir removes generated speech clips from dir. Only files named
// by this package are touched.
func CleanDir(dir string, logger zerolog.Logger) error {
	matches, err := filepath.Glob(filepath.Join(dir, "speech_*.mp3"))
	if err != nil {
		return fmt.Errorf("speech: glob clips: %w", err)
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil {
			logger.Warn().Err(err).Str("file", m).Msg("Failed to remove speech clip")
		}
	}
	logger.Debug().Int("removed", len(matches)).Str("dir", dir).Msg("Speech clips cleaned")
	return nil
}
