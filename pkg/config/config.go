// Package config loads the host configuration from YAML. Missing keys
// fall back to defaults, so an empty file is a valid configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/justyntemme/plughost/pkg/framework/event"
)

// AudioConfig sets the engine format.
type AudioConfig struct {
	SampleRate float64 `yaml:"sample_rate"`
	BlockSize  uint32  `yaml:"block_size"`
}

// QueueConfig sizes the fixed event pools. Pools never grow at runtime,
// so these bound how many events can be in flight per block.
type QueueConfig struct {
	NotePool   int `yaml:"note_pool"`
	ReportPool int `yaml:"report_pool"`
}

// OSCConfig points report notifications at an external UI.
type OSCConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
}

// LogConfig selects log level and an optional log file.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Config is the full host configuration.
type Config struct {
	Audio  AudioConfig `yaml:"audio"`
	Queues QueueConfig `yaml:"queues"`
	OSC    OSCConfig   `yaml:"osc"`
	Log    LogConfig   `yaml:"log"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Audio: AudioConfig{
			SampleRate: 48000,
			BlockSize:  512,
		},
		Queues: QueueConfig{
			NotePool:   event.DefaultNoteCapacity,
			ReportPool: event.DefaultPostCapacity,
		},
		OSC: OSCConfig{
			Host: "127.0.0.1",
			Port: 22752,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads and parses the configuration file at path, applying defaults
// for anything the file leaves out.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: invalid %s: %w", path, err)
	}
	return cfg, nil
}

var validLogLevels = map[string]bool{
	"": true, "debug": true, "info": true, "warn": true, "warning": true,
	"error": true, "fatal": true, "off": true, "none": true,
}

// Validate reports the first setting that would break the host.
func (c *Config) Validate() error {
	if c.Audio.SampleRate <= 0 {
		return fmt.Errorf("audio.sample_rate must be positive (got %g)", c.Audio.SampleRate)
	}
	if c.Audio.BlockSize == 0 {
		return fmt.Errorf("audio.block_size must be positive")
	}
	if c.Queues.NotePool <= 0 {
		return fmt.Errorf("queues.note_pool must be positive (got %d)", c.Queues.NotePool)
	}
	if c.Queues.ReportPool <= 0 {
		return fmt.Errorf("queues.report_pool must be positive (got %d)", c.Queues.ReportPool)
	}
	if c.OSC.Enabled {
		if c.OSC.Host == "" {
			return fmt.Errorf("osc.host is required when osc is enabled")
		}
		if c.OSC.Port < 1 || c.OSC.Port > 65535 {
			return fmt.Errorf("osc.port must be in 1..65535 (got %d)", c.OSC.Port)
		}
	}
	if !validLogLevels[c.Log.Level] {
		return fmt.Errorf("log.level must be one of: debug, info, warn, error, fatal, off (got %q)", c.Log.Level)
	}
	return nil
}
