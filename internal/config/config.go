// Package config reads the optional YAML configuration file of the yindex
// command. Command-line flags take precedence over values read here.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultDBPath is used when neither a flag nor the file names a database.
const DefaultDBPath = ".yindex.db"

// Config holds settings shared by the yindex subcommands.
type Config struct {
	// DB is the SQLite database used by index, load and query.
	DB string `yaml:"db"`
	// SearchPath lists directories searched for imported and included
	// modules.
	SearchPath []string `yaml:"search_path"`
	// MakeModuleTable emits one modules row per processed module.
	MakeModuleTable bool `yaml:"make_module_table"`
	// LogLevel is a zerolog level name.
	LogLevel string `yaml:"log_level"`
	// LogFormat is "console" or "json".
	LogFormat string `yaml:"log_format"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		DB:        DefaultDBPath,
		LogLevel:  "warn",
		LogFormat: "console",
	}
}

// Load reads the YAML file at path on top of the defaults. Unknown keys are
// rejected so that typos surface.
func Load(path string) (Config, error) {
	cfg := Default()
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate reports settings that cannot work.
func (c Config) Validate() error {
	switch c.LogFormat {
	case "", "console", "json":
	default:
		return fmt.Errorf("config: unknown log_format %q", c.LogFormat)
	}
	for _, dir := range c.SearchPath {
		if dir == "" {
			return errors.New("config: empty search_path entry")
		}
	}
	return nil
}
