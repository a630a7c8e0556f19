// Package config loads runtime configuration from config.yaml and the
// environment, with an optional .env file seeding the environment first.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/schemaforge/schemaforge/internal/erd"
)

const configFile = "config.yaml"

// Config holds all runtime configuration. Environment variables override
// config.yaml values; defaults suit a local single-run invocation.
type Config struct {
	ArtifactsDir  string        `yaml:"artifacts_dir" env:"ARTIFACTS_DIR" env-default:"./artifacts"`
	GenerateSQL   bool          `yaml:"generate_sql" env:"GENERATE_SQL" env-default:"true"`
	GenerateERD   bool          `yaml:"generate_erd" env:"GENERATE_ERD" env-default:"true"`
	ERDFormatsRaw string        `yaml:"erd_formats" env:"ERD_FORMATS" env-default:"png,svg,pdf"`
	ChromePath    string        `yaml:"chrome_path" env:"CHROME_EXECUTABLE_PATH"`
	RenderTimeout time.Duration `yaml:"render_timeout" env:"RENDER_TIMEOUT" env-default:"60s"`

	Log LogConfig `yaml:"log"`

	// ERDFormats is parsed from ERDFormatsRaw during Load
	ERDFormats []erd.Format `yaml:"-"`
}

// LogConfig controls the process logger
type LogConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	File  string `yaml:"file" env:"LOG_FILE"`
}

// Load reads configuration. A .env file in the working directory seeds the
// environment without overriding variables that are already set; config.yaml
// is honored when present, and the environment wins over it.
func Load() (*Config, error) {
	_ = godotenv.Load() // .env is optional

	cfg := &Config{}
	if _, err := os.Stat(configFile); err == nil {
		if err := cleanenv.ReadConfig(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", configFile, err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if err := cfg.parseComplexFields(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseComplexFields derives structured fields from their raw string forms
func (c *Config) parseComplexFields() error {
	formats, err := erd.ParseFormats(c.ERDFormatsRaw)
	if err != nil {
		return fmt.Errorf("invalid ERD_FORMATS: %w", err)
	}
	c.ERDFormats = formats
	return nil
}

func (c *Config) validate() error {
	if c.ArtifactsDir == "" {
		return fmt.Errorf("artifacts directory must not be empty")
	}
	if c.RenderTimeout < 0 {
		return fmt.Errorf("render timeout must not be negative")
	}
	return nil
}
