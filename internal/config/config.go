// Package config loads application settings from configs/config.yml
// via viper. Every setting has a working default; a missing config
// file is not an error.
package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// Config carries the tunable knobs of the analysis pipeline.
type Config struct {
	LogLevel string `mapstructure:"log_level"`

	// SafeExtrusionTemp is the fixed nozzle floor for the standalone
	// cold-extrusion detector, in °C.
	SafeExtrusionTemp float64 `mapstructure:"safe_extrusion_temp"`

	// Snippet extraction bounds for the external explanation service.
	SnippetWindow   int `mapstructure:"snippet_window"`
	SnippetMaxLines int `mapstructure:"snippet_max_lines"`

	// MaxConcurrentFiles bounds parallel file analysis in the CLI.
	MaxConcurrentFiles int `mapstructure:"max_concurrent_files"`

	// FilamentProfiles optionally points at a YAML profile file.
	FilamentProfiles string `mapstructure:"filament_profiles"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("safe_extrusion_temp", 170.0)
	v.SetDefault("snippet_window", 50)
	v.SetDefault("snippet_max_lines", 200)
	v.SetDefault("max_concurrent_files", 4)
	v.SetDefault("filament_profiles", "")
}

// Load reads configs/config.yml relative to the working directory.
// When the file does not exist the defaults are returned.
func Load() (Config, error) {
	v := viper.New()
	v.AddConfigPath("configs")
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// Default returns the built-in configuration without touching disk.
func Default() Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return cfg
}
