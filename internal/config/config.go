// Package config provides configuration management for holofan
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Fan       FanConfig       `mapstructure:"fan"`
	Chat      ChatConfig      `mapstructure:"chat"`
	Speech    SpeechConfig    `mapstructure:"speech"`
	Animation AnimationConfig `mapstructure:"animation"`
	Preview   PreviewConfig   `mapstructure:"preview"`
	Model     ModelConfig     `mapstructure:"model"`
	Log       LogConfig       `mapstructure:"log"`
}

// FanConfig configures the LED fan endpoint
type FanConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	UploadPath     string        `mapstructure:"upload_path"`
	Width          int           `mapstructure:"width"`
	Height         int           `mapstructure:"height"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	RetryCount     int           `mapstructure:"retry_count"`
}

// ChatConfig configures the chat backend
type ChatConfig struct {
	APIKey       string  `mapstructure:"api_key"`
	BaseURL      string  `mapstructure:"base_url"`
	Model        string  `mapstructure:"model"`
	SystemPrompt string  `mapstructure:"system_prompt"`
	MaxTokens    int     `mapstructure:"max_tokens"`
	Temperature  float64 `mapstructure:"temperature"`
	MaxHistory   int     `mapstructure:"max_history"`
}

// SpeechConfig configures text-to-speech
type SpeechConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	APIKey  string  `mapstructure:"api_key"`
	BaseURL string  `mapstructure:"base_url"`
	Model   string  `mapstructure:"model"`
	Voice   string  `mapstructure:"voice"`
	Speed   float64 `mapstructure:"speed"`
	OutDir  string  `mapstructure:"out_dir"`
}

// AnimationConfig configures frame generation
type AnimationConfig struct {
	FrameRate  int     `mapstructure:"frame_rate"`
	Brightness float64 `mapstructure:"brightness"`
	Contrast   float64 `mapstructure:"contrast"`
	Sharpen    bool    `mapstructure:"sharpen"`
}

// PreviewConfig configures the browser preview hub
type PreviewConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// ModelConfig points at the avatar model used for lip-sync validation
type ModelConfig struct {
	Path string `mapstructure:"path"`
}

// LogConfig configures logging output
type LogConfig struct {
	Level   string `mapstructure:"level"`
	Dir     string `mapstructure:"dir"`
	Console bool   `mapstructure:"console"`
}

// DefaultConfig returns sensible default configuration
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Fan: FanConfig{
			BaseURL:        "http://192.168.1.100",
			UploadPath:     "/upload_frame",
			Width:          256,
			Height:         256,
			ConnectTimeout: 5 * time.Second,
			ReadTimeout:    30 * time.Second,
			RetryCount:     3,
		},
		Chat: ChatConfig{
			BaseURL: "https://api.openai.com",
			Model:   "gpt-4o-mini",
			SystemPrompt: "You are a friendly assistant displayed on a holographic fan. " +
				"Keep replies to one or two short sentences.",
			MaxTokens:   150,
			Temperature: 0.7,
			MaxHistory:  10,
		},
		Speech: SpeechConfig{
			Enabled: true,
			BaseURL: "https://api.openai.com",
			Model:   "tts-1",
			Voice:   "nova",
			Speed:   1.0,
			OutDir:  filepath.Join(home, ".holofan", "speech"),
		},
		Animation: AnimationConfig{
			FrameRate:  30,
			Brightness: 1.0,
			Contrast:   1.0,
			Sharpen:    false,
		},
		Preview: PreviewConfig{
			Enabled: false,
			Addr:    "127.0.0.1:8090",
		},
		Model: ModelConfig{
			Path: "",
		},
		Log: LogConfig{
			Level:   "info",
			Dir:     filepath.Join(home, ".holofan", "logs"),
			Console: true,
		},
	}
}

// Validate checks settings the pipeline cannot recover from at runtime.
func (c *Config) Validate() error {
	if c.Fan.BaseURL == "" {
		return fmt.Errorf("config: fan.base_url is required")
	}
	if c.Animation.FrameRate < 1 || c.Animation.FrameRate > 60 {
		return fmt.Errorf("config: animation.frame_rate must be 1-60, got %d", c.Animation.FrameRate)
	}
	if c.Fan.Width < 128 || c.Fan.Width > 1024 || c.Fan.Height < 128 || c.Fan.Height > 1024 {
		return fmt.Errorf("config: fan resolution must be 128-1024, got %dx%d", c.Fan.Width, c.Fan.Height)
	}
	if c.Fan.RetryCount < 1 {
		return fmt.Errorf("config: fan.retry_count must be at least 1, got %d", c.Fan.RetryCount)
	}
	return nil
}

// Load reads configuration from file and environment
func Load() (*Config, error) {
	cfg := DefaultConfig()

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return cfg, err
	}

	configDir := filepath.Join(homeDir, ".holofan")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return cfg, err
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".")

	// Environment variable overrides
	viper.SetEnvPrefix("HOLOFAN")
	viper.AutomaticEnv()

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return cfg, err
		}
		// Config file not found, use defaults and create one
		if err := Save(cfg); err != nil {
			return cfg, err
		}
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Save writes the configuration to file
func Save(cfg *Config) error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return err
	}

	configDir := filepath.Join(homeDir, ".holofan")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}

	viper.Set("fan", cfg.Fan)
	viper.Set("chat", cfg.Chat)
	viper.Set("speech", cfg.Speech)
	viper.Set("animation", cfg.Animation)
	viper.Set("preview", cfg.Preview)
	viper.Set("model", cfg.Model)
	viper.Set("log", cfg.Log)

	configPath := filepath.Join(configDir, "config.yaml")
	return viper.WriteConfigAs(configPath)
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".holofan"), nil
}
