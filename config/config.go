// Package config handles runtime settings: defaults, an optional YAML
// file, a .env file, BULLETINBOARD_* environment variables and finally
// command-line flags, each layer overriding the previous one.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const envPrefix = "BULLETINBOARD_"

// Config holds runtime settings.
//
// Fields:
//   - DataDir: directory holding the database and the legacy document.
//   - DatabaseFile / LegacyFile: file names, relative to DataDir unless absolute.
//   - Timezone: IANA zone used for legacy timestamps without offset; "" or
//     "Local" means the system zone.
//   - LogLevel / LogFormat: slog level and handler.
type Config struct {
	DataDir      string `yaml:"data_dir" validate:"required"`
	DatabaseFile string `yaml:"database_file" validate:"required"`
	LegacyFile   string `yaml:"legacy_file"`
	Timezone     string `yaml:"timezone"`
	LogLevel     string `yaml:"log_level" validate:"oneof=debug info warn error"`
	LogFormat    string `yaml:"log_format" validate:"oneof=text json"`
}

// LoadDefaults fills c with the values used when nothing else is set.
func (c *Config) LoadDefaults() {
	c.DataDir = "data"
	c.DatabaseFile = "database.db"
	c.LegacyFile = "data.json"
	c.Timezone = ""
	c.LogLevel = "info"
	c.LogFormat = "text"
}

// Load applies defaults, the YAML file at path when path is not empty, a
// .env file in the working directory if there is one, and the environment.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if path != "" {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg.loadEnv()

	return cfg, nil
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) loadEnv() {
	c.DataDir = getEnv(envPrefix+"DATA_DIR", c.DataDir)
	c.DatabaseFile = getEnv(envPrefix+"DATABASE_FILE", c.DatabaseFile)
	c.LegacyFile = getEnv(envPrefix+"LEGACY_FILE", c.LegacyFile)
	c.Timezone = getEnv(envPrefix+"TIMEZONE", c.Timezone)
	c.LogLevel = getEnv(envPrefix+"LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv(envPrefix+"LOG_FORMAT", c.LogFormat)
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// Validate checks field values and the time zone.
func (c *Config) Validate() error {
	c.LogLevel = strings.ToLower(c.LogLevel)
	c.LogFormat = strings.ToLower(c.LogFormat)
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// DatabasePath is the database file joined to DataDir.
func (c *Config) DatabasePath() string {
	return c.resolve(c.DatabaseFile)
}

// LegacyPath is the legacy document joined to DataDir, or "" when unset.
func (c *Config) LegacyPath() string {
	if c.LegacyFile == "" {
		return ""
	}
	return c.resolve(c.LegacyFile)
}

func (c *Config) resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.DataDir, name)
}

// Location loads Timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
