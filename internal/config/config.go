// Package config loads profstat settings from flags, a YAML file, .env and
// the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Ljiacheng/aleo-std/internal/logging"
)

// EnvPrefix is prepended to every environment variable read by Load.
const EnvPrefix = "PROFSTAT"

// Config holds profiler and tool settings
type Config struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	Strict   bool   `mapstructure:"strict" yaml:"strict"`
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
	LogJSON  bool   `mapstructure:"log_json" yaml:"log_json"`
	Listen   string `mapstructure:"listen" yaml:"listen"`
	// Color is false when CLICOLOR=0.
	Color bool `mapstructure:"color" yaml:"color"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Enabled:  true,
		Strict:   true,
		LogLevel: "info",
		Listen:   ":9464",
		Color:    true,
	}
}

// Load reads .env files from the working directory, then cfgFile (or
// $HOME/.profstat/config.yaml when cfgFile is empty), then PROFSTAT_*
// environment variables. Later sources win. A missing config file is not an error.
func Load(v *viper.Viper, cfgFile string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	def := Default()
	v.SetDefault("enabled", def.Enabled)
	v.SetDefault("strict", def.Strict)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("log_json", def.LogJSON)
	v.SetDefault("listen", def.Listen)
	v.SetDefault("color", def.Color)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	if err := v.BindEnv("color", "CLICOLOR"); err != nil {
		return Config{}, fmt.Errorf("failed to bind CLICOLOR: %w", err)
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".profstat"))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// Logger builds the logger described by cfg.
func (c Config) Logger() *logging.Logger {
	return logging.NewLogger(logging.ParseLevel(c.LogLevel), c.LogJSON)
}
