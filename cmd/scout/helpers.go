package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"scout/internal/config"
	"scout/internal/engine"
	"scout/internal/slogutil"
)

// defaultConfigDir resolves the platform config directory for scout.
func defaultConfigDir() string {
	if configDirFlag != "" {
		return configDirFlag
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, "scout")
}

// mustLoadConfig loads the configuration or exits.
func mustLoadConfig() *config.Config {
	cfg, err := config.LoadConfig(defaultConfigDir())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	return cfg
}

// newLogger builds the CLI logger: stderr by default, a file when
// configured. Verbosity flags override the configured level.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slogutil.LevelFromString(cfg.Logging.Level)
	if verboseFlag > 0 {
		level = slogutil.LevelFromVerbosity(verboseFlag, false)
	}

	if cfg.Logging.File != "" {
		logger, _, err := slogutil.NewFileLogger(cfg.Logging.File, level)
		if err == nil {
			return logger
		}
		fmt.Fprintf(os.Stderr, "failed to open log file, logging to stderr: %v\n", err)
	}
	return slogutil.NewLogger(os.Stderr, level)
}

// mustNewEngine builds the engine or exits.
func mustNewEngine() (*engine.Engine, *slog.Logger) {
	cfg := mustLoadConfig()
	logger := newLogger(cfg)
	eng, err := engine.New(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start engine: %v\n", err)
		os.Exit(1)
	}
	return eng, logger
}

// queryContext applies the --timeout flag.
func queryContext() (context.Context, context.CancelFunc) {
	if timeoutFlag > 0 {
		return context.WithTimeout(context.Background(), time.Duration(timeoutFlag)*time.Second)
	}
	return context.WithCancel(context.Background())
}

// newRequest assembles the common request from flags.
func newRequest(root string) engine.Request {
	return engine.Request{
		Root:       root,
		Credential: tokenFlag,
		Pattern:    patternFlag,
	}
}

// printEnvelope renders a response envelope as indented JSON and exits
// non-zero on a root-level failure.
func printEnvelope(env *engine.Envelope) {
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to render response: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(data))
	if env.Error != nil {
		os.Exit(1)
	}
}
