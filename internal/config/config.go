package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the complete scout configuration
type Config struct {
	Version int `json:"version" mapstructure:"version"`

	Cache   CacheConfig   `json:"cache" mapstructure:"cache"`
	Fetch   FetchConfig   `json:"fetch" mapstructure:"fetch"`
	Indexer IndexerConfig `json:"indexer" mapstructure:"indexer"`
	Search  SearchConfig  `json:"search" mapstructure:"search"`
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
}

// CacheConfig controls the remote repository cache
type CacheConfig struct {
	// Dir is the directory holding cached clones and the manifest database
	Dir string `json:"dir" mapstructure:"dir"`

	// MaxSizeMB is the total on-disk budget before LRU eviction kicks in
	MaxSizeMB int64 `json:"maxSizeMB" mapstructure:"maxSizeMB"`

	// TTLHours is the per-entry age limit before an entry is considered stale
	TTLHours int `json:"ttlHours" mapstructure:"ttlHours"`

	// CloneTimeoutSec bounds a single git clone
	CloneTimeoutSec int `json:"cloneTimeoutSec" mapstructure:"cloneTimeoutSec"`

	// Shallow clones omit history. Blame requires history and will fail
	// with HISTORY_UNAVAILABLE on shallow clones.
	Shallow bool `json:"shallow" mapstructure:"shallow"`

	// HostsFile is an optional TOML file mapping git hosts to clone rules
	HostsFile string `json:"hostsFile" mapstructure:"hostsFile"`
}

// FetchConfig controls retry behavior for remote fetches
type FetchConfig struct {
	// MaxRetries is the number of retries after the first failed attempt
	MaxRetries int `json:"maxRetries" mapstructure:"maxRetries"`

	// BackoffMs is the initial backoff, doubled per retry
	BackoffMs int `json:"backoffMs" mapstructure:"backoffMs"`
}

// IndexerConfig controls symbol index construction
type IndexerConfig struct {
	// FilePattern is the default glob for indexable files
	FilePattern string `json:"filePattern" mapstructure:"filePattern"`

	// IgnoreDirs are directory names skipped during the walk
	IgnoreDirs []string `json:"ignoreDirs" mapstructure:"ignoreDirs"`

	// Workers bounds concurrent per-file parsing (0 = GOMAXPROCS)
	Workers int `json:"workers" mapstructure:"workers"`
}

// SearchConfig controls text search
type SearchConfig struct {
	// MaxFileSizeMB skips files larger than this during scans
	MaxFileSizeMB int64 `json:"maxFileSizeMB" mapstructure:"maxFileSizeMB"`
}

// LoggingConfig controls log output
type LoggingConfig struct {
	Level string `json:"level" mapstructure:"level"`
	File  string `json:"file" mapstructure:"file"`
}

// DefaultConfig returns the default scout configuration
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Cache: CacheConfig{
			Dir:             filepath.Join(os.TempDir(), "scout-cache"),
			MaxSizeMB:       5000,
			TTLHours:        24,
			CloneTimeoutSec: 300,
			Shallow:         false,
		},
		Fetch: FetchConfig{
			MaxRetries: 2,
			BackoffMs:  500,
		},
		Indexer: IndexerConfig{
			FilePattern: "*.py",
			IgnoreDirs: []string{
				".git", ".hg", ".svn", "__pycache__", "node_modules",
				"venv", ".venv", ".tox", ".mypy_cache", ".pytest_cache",
				"build", "dist",
			},
			Workers: 0,
		},
		Search: SearchConfig{
			MaxFileSizeMB: 10,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig loads configuration from <configDir>/config.json, with
// SCOUT_* environment variables overriding file values.
// A missing config file yields the defaults.
func LoadConfig(configDir string) (*Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("version", defaults.Version)
	v.SetDefault("cache.dir", defaults.Cache.Dir)
	v.SetDefault("cache.maxSizeMB", defaults.Cache.MaxSizeMB)
	v.SetDefault("cache.ttlHours", defaults.Cache.TTLHours)
	v.SetDefault("cache.cloneTimeoutSec", defaults.Cache.CloneTimeoutSec)
	v.SetDefault("cache.shallow", defaults.Cache.Shallow)
	v.SetDefault("fetch.maxRetries", defaults.Fetch.MaxRetries)
	v.SetDefault("fetch.backoffMs", defaults.Fetch.BackoffMs)
	v.SetDefault("indexer.filePattern", defaults.Indexer.FilePattern)
	v.SetDefault("indexer.ignoreDirs", defaults.Indexer.IgnoreDirs)
	v.SetDefault("indexer.workers", defaults.Indexer.Workers)
	v.SetDefault("search.maxFileSizeMB", defaults.Search.MaxFileSizeMB)
	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.file", defaults.Logging.File)

	v.SetConfigName("config")
	v.SetConfigType("json")
	if configDir != "" {
		v.AddConfigPath(configDir)
	}

	v.SetEnvPrefix("SCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// Config file is optional; fall through with defaults + env
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to <configDir>/config.json
func (c *Config) Save(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(configDir, "config.json"), data, 0644)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Cache.MaxSizeMB < 0 {
		return &ConfigError{Field: "cache.maxSizeMB", Message: "must be non-negative"}
	}
	if c.Cache.TTLHours < 0 {
		return &ConfigError{Field: "cache.ttlHours", Message: "must be non-negative"}
	}
	if c.Fetch.MaxRetries < 0 {
		return &ConfigError{Field: "fetch.maxRetries", Message: "must be non-negative"}
	}
	if c.Indexer.Workers < 0 {
		return &ConfigError{Field: "indexer.workers", Message: "must be non-negative"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
