package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plughost.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Expected the default config to validate, got %v", err)
	}
	if cfg.Audio.SampleRate != 48000 || cfg.Audio.BlockSize != 512 {
		t.Errorf("Unexpected audio defaults: %+v", cfg.Audio)
	}
	if cfg.OSC.Enabled {
		t.Error("Expected OSC off by default")
	}
}

func TestLoadFullFile(t *testing.T) {
	path := writeConfig(t, `
audio:
  sample_rate: 44100
  block_size: 256
queues:
  note_pool: 64
  report_pool: 256
osc:
  enabled: true
  host: 10.0.0.2
  port: 9000
log:
  level: debug
  file: /tmp/plughost.log
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Audio.SampleRate != 44100 || cfg.Audio.BlockSize != 256 {
		t.Errorf("Audio settings did not load: %+v", cfg.Audio)
	}
	if cfg.Queues.NotePool != 64 || cfg.Queues.ReportPool != 256 {
		t.Errorf("Queue settings did not load: %+v", cfg.Queues)
	}
	if !cfg.OSC.Enabled || cfg.OSC.Host != "10.0.0.2" || cfg.OSC.Port != 9000 {
		t.Errorf("OSC settings did not load: %+v", cfg.OSC)
	}
	if cfg.Log.Level != "debug" || cfg.Log.File != "/tmp/plughost.log" {
		t.Errorf("Log settings did not load: %+v", cfg.Log)
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "audio:\n  block_size: 128\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Audio.BlockSize != 128 {
		t.Errorf("Expected block size 128, got %d", cfg.Audio.BlockSize)
	}
	if cfg.Audio.SampleRate != 48000 {
		t.Errorf("Expected the default sample rate, got %g", cfg.Audio.SampleRate)
	}
	if cfg.Queues.NotePool == 0 || cfg.Queues.ReportPool == 0 {
		t.Errorf("Expected default pool sizes, got %+v", cfg.Queues)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected an error for a missing file")
	}
}

func TestLoadBadYAML(t *testing.T) {
	path := writeConfig(t, "audio: [not a mapping\n")
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "parse") {
		t.Errorf("Expected a parse error, got %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"zero sample rate", func(c *Config) { c.Audio.SampleRate = 0 }, "sample_rate"},
		{"zero block size", func(c *Config) { c.Audio.BlockSize = 0 }, "block_size"},
		{"zero note pool", func(c *Config) { c.Queues.NotePool = 0 }, "note_pool"},
		{"negative report pool", func(c *Config) { c.Queues.ReportPool = -1 }, "report_pool"},
		{"osc without host", func(c *Config) { c.OSC.Enabled = true; c.OSC.Host = "" }, "osc.host"},
		{"osc bad port", func(c *Config) { c.OSC.Enabled = true; c.OSC.Port = 0 }, "osc.port"},
		{"unknown log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestValidateDisabledOSCIgnoresTarget(t *testing.T) {
	cfg := Default()
	cfg.OSC.Host = ""
	cfg.OSC.Port = 0
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected a disabled OSC target to pass, got %v", err)
	}
}
