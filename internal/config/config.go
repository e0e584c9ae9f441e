// Package config loads the mwa2uv converter configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the converter configuration.
type Config struct {
	// Telescope names the site in the telescope registry; the metafits
	// TELESCOP keyword must agree.
	Telescope string         `yaml:"telescope"`
	Output    OutputConfig   `yaml:"output"`
	Catalog   CatalogConfig  `yaml:"catalog"`
	Flagging  FlaggingConfig `yaml:"flagging"`
	Log       LogConfig      `yaml:"log"`
}

// OutputConfig controls where the reordered visibility dump goes.
type OutputConfig struct {
	Path string `yaml:"path"`
}

// CatalogConfig controls the observation catalog database.
type CatalogConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// FlaggingConfig controls baseline masking.
type FlaggingConfig struct {
	// UseMetafitsFlags masks baselines of antennas flagged in the metafits.
	UseMetafitsFlags bool `yaml:"use_metafits_flags"`
	// ExtraAntennas are masked in addition to the metafits flags.
	ExtraAntennas []int `yaml:"extra_antennas"`
}

// LogConfig controls logging.
type LogConfig struct {
	Debug bool `yaml:"debug"`
}

func defaults() *Config {
	return &Config{
		Telescope: "MWA",
		Output: OutputConfig{
			Path: "visibilities.mwav",
		},
		Catalog: CatalogConfig{
			Enabled: false,
			Path:    "data/observations.db",
		},
		Flagging: FlaggingConfig{
			UseMetafitsFlags: true,
		},
	}
}

// Load reads the configuration file at path, applying defaults for absent
// keys.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return LoadFromString(string(data))
}

// LoadFromString parses configuration from a string (useful for testing).
func LoadFromString(data string) (*Config, error) {
	cfg := defaults()
	if err := yaml.Unmarshal([]byte(data), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used when no config file is given.
func Default() *Config {
	return defaults()
}

func (c *Config) validate() error {
	if c.Telescope == "" {
		return fmt.Errorf("telescope must not be empty")
	}
	if c.Output.Path == "" {
		return fmt.Errorf("output.path must not be empty")
	}
	if c.Catalog.Enabled && c.Catalog.Path == "" {
		return fmt.Errorf("catalog.path must not be empty when the catalog is enabled")
	}
	return nil
}
