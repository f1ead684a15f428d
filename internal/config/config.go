package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/N3moAhead/kinship/internal/person"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where the CLI looks for its configuration.
const DefaultPath = "kinship.yaml"

// Config holds all kinship configuration.
type Config struct {
	// Family file used when no file argument is given
	DataFile string `yaml:"data_file"`

	// Shell prompt
	Prompt string `yaml:"prompt"`

	// Save after every successful mutating shell command
	Autosave bool `yaml:"autosave"`

	// Pins "today" for age statistics (DD-MM-YYYY). Empty means the clock.
	ReferenceDate string `yaml:"reference_date"`

	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`  // empty logs to stderr
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		DataFile: "family.json",
		Prompt:   "TREE> ",
		Logging: LoggingConfig{
			Level: "warn",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return defaults if config file doesn't exist
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	if _, err := cfg.Today(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("KINSHIP_DATA_FILE"); v != "" {
		c.DataFile = v
	}
	if v := os.Getenv("KINSHIP_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Today returns the reference date for ages.
func (c *Config) Today() (time.Time, error) {
	if c.ReferenceDate == "" {
		return time.Now(), nil
	}
	day, month, year, err := person.ParseBirthdate(c.ReferenceDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid reference_date: %w", err)
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), nil
}
