// Package config loads the per-user cosh configuration file (spec.md §2
// "Configuration"): prompt string, history file path, and startup library
// paths to preload into every REPL/script run.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the parsed shape of ~/.config/cosh/config.yaml.
type Config struct {
	Prompt      string   `yaml:"prompt"`
	HistoryFile string   `yaml:"history_file"`
	Libs        []string `yaml:"libs"`
}

// Default returns the configuration used when loading is skipped or no
// config file is present.
func Default() *Config {
	return &Config{Prompt: "cosh> "}
}

// Path returns the conventional config file location, honoring
// $XDG_CONFIG_HOME when set.
func Path() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "cosh", "config.yaml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "cosh", "config.yaml"), nil
}

// Load reads and parses the config file at Path(). A missing file is not an
// error; it returns Default(). skip, when true (the CLI's --no-cosh-conf),
// bypasses the read entirely and returns Default().
func Load(skip bool) (*Config, error) {
	cfg := Default()
	if skip {
		return cfg, nil
	}
	path, err := Path()
	if err != nil {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if cfg.Prompt == "" {
		cfg.Prompt = "cosh> "
	}
	return cfg, nil
}
