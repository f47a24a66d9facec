// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	Browser  BrowserConfig  `mapstructure:"browser" yaml:"browser"`
	Render   RenderConfig   `mapstructure:"render" yaml:"render"`
	Resolver ResolverConfig `mapstructure:"resolver" yaml:"resolver"`
	Output   OutputConfig   `mapstructure:"output" yaml:"output"`
	History  HistoryConfig  `mapstructure:"history" yaml:"history"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig holds settings for the shared headless browser process.
type BrowserConfig struct {
	Headless bool `mapstructure:"headless" yaml:"headless"`
	// ExecPath points at a specific Chrome binary; empty means autodetect.
	ExecPath string   `mapstructure:"exec_path" yaml:"exec_path"`
	Args     []string `mapstructure:"args" yaml:"args"`
	Debug    bool     `mapstructure:"debug" yaml:"debug"`
	// LaunchTimeout bounds the initial process start and CDP handshake.
	LaunchTimeout time.Duration `mapstructure:"launch_timeout" yaml:"launch_timeout"`
}

// RenderConfig tunes per-call render behavior.
type RenderConfig struct {
	// Timeout is the per-call implicit deadline; on expiry the page is
	// force-closed and the error surfaces.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
	// SettleDelay is the extra wait after network idle so fonts and other
	// late assets finish painting.
	SettleDelay time.Duration `mapstructure:"settle_delay" yaml:"settle_delay"`
	// QuietPeriod is how long the network must stay silent to count as idle.
	QuietPeriod time.Duration `mapstructure:"quiet_period" yaml:"quiet_period"`
	ViewportWidth  int     `mapstructure:"viewport_width" yaml:"viewport_width"`
	ViewportHeight int     `mapstructure:"viewport_height" yaml:"viewport_height"`
	DeviceScale    float64 `mapstructure:"device_scale" yaml:"device_scale"`
	// PaperWidth and PaperHeight are the default PDF page size in inches.
	PaperWidth  float64 `mapstructure:"paper_width" yaml:"paper_width"`
	PaperHeight float64 `mapstructure:"paper_height" yaml:"paper_height"`
	Margin      float64 `mapstructure:"margin" yaml:"margin"`
}

// ResolverConfig bounds resolver inputs.
type ResolverConfig struct {
	// MaxDocumentBytes rejects oversized generated documents outright.
	MaxDocumentBytes int `mapstructure:"max_document_bytes" yaml:"max_document_bytes"`
}

// OutputConfig configures the filesystem output router.
type OutputConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
	// CompressDocument stores the resolved HTML brotli-compressed.
	CompressDocument bool `mapstructure:"compress_document" yaml:"compress_document"`
}

// HistoryConfig enables the PostgreSQL conversion-history store.
type HistoryConfig struct {
	// DSN is a pgx connection string; empty disables history entirely.
	DSN string `mapstructure:"dsn" yaml:"dsn"`
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "canvaspress")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.debug", false)
	v.SetDefault("browser.launch_timeout", "60s")

	// -- Render --
	v.SetDefault("render.timeout", "90s")
	v.SetDefault("render.settle_delay", "500ms")
	v.SetDefault("render.quiet_period", "500ms")
	v.SetDefault("render.viewport_width", 1200)
	v.SetDefault("render.viewport_height", 800)
	v.SetDefault("render.device_scale", 2.0)
	// US Letter.
	v.SetDefault("render.paper_width", 8.5)
	v.SetDefault("render.paper_height", 11.0)
	v.SetDefault("render.margin", 0.0)

	// -- Resolver --
	v.SetDefault("resolver.max_document_bytes", 10*1024*1024)

	// -- Output --
	v.SetDefault("output.dir", "./out")
	v.SetDefault("output.compress_document", false)

	// -- History --
	v.SetDefault("history.dsn", "")
}

// NewDefaultConfig creates a configuration populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// Cannot happen with defaults only.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// NewConfigFromViper creates a configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for sane values.
func (c *Config) Validate() error {
	if c.Render.Timeout <= 0 {
		return fmt.Errorf("render.timeout must be a positive duration")
	}
	if c.Render.ViewportWidth <= 0 || c.Render.ViewportHeight <= 0 {
		return fmt.Errorf("render viewport dimensions must be positive")
	}
	if c.Render.DeviceScale <= 0 {
		return fmt.Errorf("render.device_scale must be positive")
	}
	if c.Render.PaperWidth <= 0 || c.Render.PaperHeight <= 0 {
		return fmt.Errorf("render paper dimensions must be positive")
	}
	if c.Resolver.MaxDocumentBytes <= 0 {
		return fmt.Errorf("resolver.max_document_bytes must be positive")
	}
	return nil
}
