package config

import (
	"os"
	"path/filepath"
	"testing"
)

// TestDefault verifies the default configuration is valid and sensible
func TestDefault(t *testing.T) {
	cfg := Default()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default() is invalid: %v", err)
	}

	if !cfg.Compare.Deep {
		t.Error("default Compare.Deep = false, want true")
	}
	if cfg.Compare.HashProgressInterval != 50 {
		t.Errorf("default HashProgressInterval = %d, want 50", cfg.Compare.HashProgressInterval)
	}
	if cfg.Performance.MaxWorkers < 1 {
		t.Errorf("default MaxWorkers = %d, want >= 1", cfg.Performance.MaxWorkers)
	}
	if cfg.Output.Format != "human" {
		t.Errorf("default Output.Format = %s, want human", cfg.Output.Format)
	}
}

// TestValidate verifies each invalid field is rejected
func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"ZeroWorkers", func(c *Config) { c.Performance.MaxWorkers = 0 }},
		{"TinyBuffer", func(c *Config) { c.Performance.BufferSize = 512 }},
		{"NegativeBandwidth", func(c *Config) { c.Performance.BandwidthLimit = -1 }},
		{"ZeroHashInterval", func(c *Config) { c.Compare.HashProgressInterval = 0 }},
		{"BadOutputFormat", func(c *Config) { c.Output.Format = "xml" }},
		{"BadLogFormat", func(c *Config) { c.Logging.Format = "csv" }},
		{"BadLogLevel", func(c *Config) { c.Logging.Level = "trace" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

// TestSaveLoadRoundTrip verifies YAML persistence
func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg := Default()
	cfg.Compare.Deep = false
	cfg.Performance.MaxWorkers = 7
	cfg.Performance.BandwidthLimit = 10 * 1024 * 1024
	cfg.Exclude = []string{"*.bak", "node_modules/"}

	if err := SaveToFile(cfg, path); err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}

	loaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if loaded.Compare.Deep {
		t.Error("loaded Compare.Deep = true, want false")
	}
	if loaded.Performance.MaxWorkers != 7 {
		t.Errorf("loaded MaxWorkers = %d, want 7", loaded.Performance.MaxWorkers)
	}
	if loaded.Performance.BandwidthLimit != 10*1024*1024 {
		t.Errorf("loaded BandwidthLimit = %d, want %d", loaded.Performance.BandwidthLimit, 10*1024*1024)
	}
	if len(loaded.Exclude) != 2 || loaded.Exclude[0] != "*.bak" {
		t.Errorf("loaded Exclude = %v, want [*.bak node_modules/]", loaded.Exclude)
	}
}

// TestLoadPartialFile verifies missing keys fall back to defaults
func TestLoadPartialFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "partial.yaml")

	content := []byte("performance:\n  max_workers: 3\n")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.Performance.MaxWorkers != 3 {
		t.Errorf("MaxWorkers = %d, want 3", cfg.Performance.MaxWorkers)
	}
	if !cfg.Compare.Deep {
		t.Error("Compare.Deep should keep its default true")
	}
	if cfg.Output.Format != "human" {
		t.Errorf("Output.Format = %s, want default human", cfg.Output.Format)
	}
}

// TestLoadMissingFile verifies a missing path is an error
func TestLoadMissingFile(t *testing.T) {
	if _, err := LoadFromFile("/nonexistent/foldermirror/config.yaml"); err == nil {
		t.Error("LoadFromFile() of missing file should return an error")
	}
}

// TestLoadInvalidYAML verifies parse errors surface
func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.yaml")
	if err := os.WriteFile(path, []byte("compare: ["), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if _, err := LoadFromFile(path); err == nil {
		t.Error("LoadFromFile() of invalid YAML should return an error")
	}
}
