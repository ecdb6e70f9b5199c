package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Version != 1 {
		t.Errorf("Expected version 1, got %d", cfg.Version)
	}
	if cfg.Indexer.FilePattern != "*.py" {
		t.Errorf("Expected default pattern *.py, got %s", cfg.Indexer.FilePattern)
	}
	if cfg.Cache.MaxSizeMB != 5000 {
		t.Errorf("Expected 5000MB cache budget, got %d", cfg.Cache.MaxSizeMB)
	}
	if cfg.Cache.Shallow {
		t.Error("Clones should keep history by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should validate: %v", err)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig with missing file should succeed: %v", err)
	}
	if cfg.Cache.TTLHours != 24 {
		t.Errorf("Expected default TTL 24h, got %d", cfg.Cache.TTLHours)
	}
}

func TestLoadConfig_FromFile(t *testing.T) {
	dir := t.TempDir()
	content := `{
  "version": 1,
  "cache": {"maxSizeMB": 100, "ttlHours": 1},
  "indexer": {"filePattern": "*.py", "workers": 4}
}`
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Cache.MaxSizeMB != 100 {
		t.Errorf("Expected maxSizeMB 100, got %d", cfg.Cache.MaxSizeMB)
	}
	if cfg.Indexer.Workers != 4 {
		t.Errorf("Expected 4 workers, got %d", cfg.Indexer.Workers)
	}
	// Unset fields keep defaults
	if cfg.Fetch.MaxRetries != 2 {
		t.Errorf("Expected default maxRetries 2, got %d", cfg.Fetch.MaxRetries)
	}
}

func TestSaveAndReload(t *testing.T) {
	dir := t.TempDir()

	cfg := DefaultConfig()
	cfg.Cache.MaxSizeMB = 42
	if err := cfg.Save(dir); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if loaded.Cache.MaxSizeMB != 42 {
		t.Errorf("Expected round-tripped maxSizeMB 42, got %d", loaded.Cache.MaxSizeMB)
	}
}

func TestValidate_Invalid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Cache.MaxSizeMB = -1
	if err := cfg.Validate(); err == nil {
		t.Error("Negative cache budget should fail validation")
	}
}
