package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"smfplay/smf"
)

// OutputConfig selects the MIDI output port used for playback
type OutputConfig struct {
	PortName string `json:"portName,omitempty"`
}

// PlaybackConfig controls how ticks become time and how notes are assembled
type PlaybackConfig struct {
	Tempo   int    `json:"tempo,omitempty"`   // BPM for PPQN files
	Overlap string `json:"overlap,omitempty"` // "replace" or "stack"
}

// UIConfig stores UI preferences
type UIConfig struct {
	Palette string `json:"palette,omitempty"` // GPL file, empty for the built-in palette
}

// Config is the main configuration structure
type Config struct {
	Output   OutputConfig   `json:"output,omitempty"`
	Playback PlaybackConfig `json:"playback,omitempty"`
	UI       UIConfig       `json:"ui,omitempty"`
	Debug    bool           `json:"debug,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Playback: PlaybackConfig{
			Tempo:   120,
			Overlap: smf.OverlapReplace.String(),
		},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "smfplay"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads the config at path. Missing fields keep their defaults.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks values that the JSON decoder cannot
func (c *Config) Validate() error {
	if c.Playback.Tempo < 20 || c.Playback.Tempo > 300 {
		return fmt.Errorf("playback.tempo %d out of range 20-300", c.Playback.Tempo)
	}
	if _, err := smf.ParseOverlapPolicy(c.Playback.Overlap); err != nil {
		return fmt.Errorf("playback.overlap: %w", err)
	}
	return nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the config to path, creating its directory
func (c *Config) SaveTo(path string) error {
	// Create directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ParseOptions returns the smf options this config selects
func (c *Config) ParseOptions() []smf.Option {
	policy, _ := smf.ParseOverlapPolicy(c.Playback.Overlap)
	return []smf.Option{smf.WithOverlapPolicy(policy)}
}
