// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading for studymate.
//
// Configuration sources, in order of precedence:
//   - STUDYMATE_API_URL environment variable
//   - ~/.studymate/config.toml
//   - Built-in defaults
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// EnvServerURL overrides the backend base URL when set.
const EnvServerURL = "STUDYMATE_API_URL"

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete studymate configuration.
type Config struct {
	// ServerURL is the StudyMate backend base URL.
	ServerURL string `toml:"server_url"`

	// LogFile is the path for the rotating log file. Empty disables file
	// logging entirely.
	LogFile string `toml:"log_file"`

	// Debug mirrors log output to stderr. Off by default; the TUI owns
	// the terminal.
	Debug bool `toml:"debug"`

	// Timeouts for the backend calls, in seconds. Zero values take the
	// defaults (5 health / 30 chat / 60 upload).
	HealthTimeoutSecs int `toml:"health_timeout_secs"`
	ChatTimeoutSecs   int `toml:"chat_timeout_secs"`
	UploadTimeoutSecs int `toml:"upload_timeout_secs"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		ServerURL:         "http://localhost:5000",
		LogFile:           filepath.Join(dataDir(), "studymate.log"),
		HealthTimeoutSecs: 5,
		ChatTimeoutSecs:   30,
		UploadTimeoutSecs: 60,
	}
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads the configuration: defaults, then the config file if present,
// then environment overrides. A missing config file is not an error; a
// malformed one is.
func Load() (*Config, error) {
	cfg := Default()

	path := filepath.Join(dataDir(), "config.toml")
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	if envURL := os.Getenv(EnvServerURL); envURL != "" {
		cfg.ServerURL = envURL
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for obvious mistakes.
func (c *Config) Validate() error {
	if c.ServerURL == "" {
		return errors.New("server_url must not be empty")
	}

	u, err := url.Parse(c.ServerURL)
	if err != nil {
		return fmt.Errorf("invalid server_url %q: %w", c.ServerURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("server_url %q must use http or https", c.ServerURL)
	}
	if u.Host == "" {
		return fmt.Errorf("server_url %q has no host", c.ServerURL)
	}

	for name, secs := range map[string]int{
		"health_timeout_secs": c.HealthTimeoutSecs,
		"chat_timeout_secs":   c.ChatTimeoutSecs,
		"upload_timeout_secs": c.UploadTimeoutSecs,
	} {
		if secs < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}
	return nil
}

// HealthTimeout returns the health-check timeout as a duration.
func (c *Config) HealthTimeout() time.Duration {
	return time.Duration(c.HealthTimeoutSecs) * time.Second
}

// ChatTimeout returns the chat timeout as a duration.
func (c *Config) ChatTimeout() time.Duration {
	return time.Duration(c.ChatTimeoutSecs) * time.Second
}

// UploadTimeout returns the upload timeout as a duration.
func (c *Config) UploadTimeout() time.Duration {
	return time.Duration(c.UploadTimeoutSecs) * time.Second
}

// DataDir returns the studymate data directory (~/.studymate), creating it
// if needed.
func DataDir() (string, error) {
	dir := dataDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

func dataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// No home directory: fall back to the working directory.
		return ".studymate"
	}
	return filepath.Join(home, ".studymate")
}
