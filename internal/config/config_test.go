package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}

func TestValidate_FrameRate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Animation.FrameRate = 0
	assert.Error(t, cfg.Validate())

	cfg.Animation.FrameRate = 61
	assert.Error(t, cfg.Validate())

	cfg.Animation.FrameRate = 60
	assert.NoError(t, cfg.Validate())
}

func TestValidate_Resolution(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Fan.Width = 64
	assert.Error(t, cfg.Validate())

	cfg.Fan.Width = 2048
	assert.Error(t, cfg.Validate())

	cfg.Fan.Width = 512
	cfg.Fan.Height = 512
	assert.NoError(t, cfg.Validate())
}

func TestValidate_FanURL(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Fan.BaseURL = ""
	assert.Error(t, cfg.Validate())
}

func TestValidate_RetryCount(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Fan.RetryCount = 0
	assert.Error(t, cfg.Validate())
}
