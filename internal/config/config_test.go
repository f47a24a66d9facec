package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 90*time.Second, cfg.Render.Timeout)
	assert.Equal(t, 1200, cfg.Render.ViewportWidth)
	assert.Equal(t, 8.5, cfg.Render.PaperWidth)
	assert.Equal(t, 10*1024*1024, cfg.Resolver.MaxDocumentBytes)
	assert.Empty(t, cfg.History.DSN)

	require.NoError(t, cfg.Validate())
}

func TestNewConfigFromViper(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("render.viewport_width", 1920)
	v.Set("render.device_scale", 3.0)
	v.Set("output.compress_document", true)

	cfg, err := NewConfigFromViper(v)
	require.NoError(t, err)

	assert.Equal(t, 1920, cfg.Render.ViewportWidth)
	assert.Equal(t, 3.0, cfg.Render.DeviceScale)
	assert.True(t, cfg.Output.CompressDocument)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero timeout", func(c *Config) { c.Render.Timeout = 0 }},
		{"negative viewport", func(c *Config) { c.Render.ViewportWidth = -1 }},
		{"zero device scale", func(c *Config) { c.Render.DeviceScale = 0 }},
		{"zero paper size", func(c *Config) { c.Render.PaperHeight = 0 }},
		{"zero document limit", func(c *Config) { c.Resolver.MaxDocumentBytes = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestNewConfigFromViperRejectsInvalid(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("render.timeout", "0s")

	_, err := NewConfigFromViper(v)
	require.Error(t, err)
}
