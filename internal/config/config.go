/*******************************************************************************
* File name: config.go
*
* Description: loads the storage service's configuration from environment
* variables (and, optionally, a config file), with defaults and validation.
*******************************************************************************/

package config

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// envPrefix namespaces every environment variable this service reads, e.g.
// STRIPEDFS_NUM_DISKS.
const envPrefix = "STRIPEDFS"

// Config is the full set of settings the storage engine and its facades
// need: stripe layout, size limits, and transport-level settings the HTTP
// facade uses.
type Config struct {
	// NumDisks is N, the stripe width. Must be >= 3 (two data blocks, one
	// parity block at minimum).
	NumDisks int `mapstructure:"num_disks"`

	// UploadPath is the block-root directory used in production mode.
	UploadPath string `mapstructure:"upload_path"`

	// FolderPrefix names each block directory: "<prefix>-<i>".
	FolderPrefix string `mapstructure:"folder_prefix"`

	// MaxSize is the per-file byte cap enforced before any fragment write.
	MaxSize int64 `mapstructure:"max_size"`

	// TestMode selects /tmp as the block root instead of UploadPath.
	TestMode bool `mapstructure:"test_mode"`

	// HTTPAddr is the listen address for the file API.
	HTTPAddr string `mapstructure:"http_addr"`

	// MetricsAddr is the listen address for the Prometheus /metrics
	// endpoint. Empty disables the metrics server.
	MetricsAddr string `mapstructure:"metrics_addr"`

	// LogLevel is one of debug/info/warn/error.
	LogLevel string `mapstructure:"log_level"`

	// ScrubInterval, if positive, enables a periodic background integrity
	// sweep over every stored file (see internal/scrub). A zero value
	// disables scrubbing.
	ScrubInterval string `mapstructure:"scrub_interval"`
}

// defaults returns the baseline configuration applied when no source sets
// a value: a sane localhost development default.
func defaults() Config {
	return Config{
		NumDisks:      3,
		UploadPath:    "/var/lib/stripedfs",
		FolderPrefix:  "block",
		MaxSize:       32 << 20, // 32 MiB
		TestMode:      false,
		HTTPAddr:      ":8080",
		MetricsAddr:   ":9090",
		LogLevel:      "info",
		ScrubInterval: "",
	}
}

// Load reads configuration from environment variables prefixed STRIPEDFS_
// (and, if configPath is non-empty, a YAML/TOML/JSON config file), layering
// them over the package defaults. Environment variables take precedence
// over the config file.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	cfg := defaults()
	setViperDefaults(v, cfg)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %q: %w", configPath, err)
		}
	}

	var out Config
	if err := v.Unmarshal(&out, viper.DecodeHook(mapstructure.StringToTimeDurationHookFunc())); err != nil {
		return nil, fmt.Errorf("config: unmarshalling: %w", err)
	}

	if err := out.Validate(); err != nil {
		return nil, err
	}

	return &out, nil
}

func setViperDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("num_disks", cfg.NumDisks)
	v.SetDefault("upload_path", cfg.UploadPath)
	v.SetDefault("folder_prefix", cfg.FolderPrefix)
	v.SetDefault("max_size", cfg.MaxSize)
	v.SetDefault("test_mode", cfg.TestMode)
	v.SetDefault("http_addr", cfg.HTTPAddr)
	v.SetDefault("metrics_addr", cfg.MetricsAddr)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("scrub_interval", cfg.ScrubInterval)
}

// Validate rejects configurations the engine cannot operate under.
func (c *Config) Validate() error {
	if c.NumDisks < 3 {
		return fmt.Errorf("config: num_disks must be >= 3, got %d", c.NumDisks)
	}
	if c.MaxSize <= 0 {
		return fmt.Errorf("config: max_size must be > 0, got %d", c.MaxSize)
	}
	if !c.TestMode && c.UploadPath == "" {
		return fmt.Errorf("config: upload_path is required when test_mode is false")
	}
	return nil
}

// Root returns the block-root directory this configuration resolves to:
// /tmp in test mode, UploadPath otherwise.
func (c *Config) Root() string {
	if c.TestMode {
		return "/tmp"
	}
	return c.UploadPath
}
